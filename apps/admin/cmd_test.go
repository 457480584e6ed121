package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	emailsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/email"
	testutil "github.com/Brainhard-droid/sports-school-crm-sub001/tests"
)

func setup(t *testing.T) (*commandLine, testutil.Repos, *bytes.Buffer) {
	repos := testutil.NewRepos(t)
	projector := testutil.NewProjector(testutil.Now)
	conf := *core.Conf
	conf.Schedule.UpcomingCount = 3

	out := new(bytes.Buffer)
	return &commandLine{
		usrRepo:   repos.Users,
		usrSvc:    user.NewService(repos.Users, emailsvc.NewConsoleServiceMock()),
		groupSvc:  group.NewService(repos.Groups, projector, &conf),
		projector: projector,
		conf:      &conf,
		out:       out,
	}, repos, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantAnyErr bool
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	case tt.wantAnyErr:
		assert.Error(t, err)
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		if _, err := fs.Stat(fsys, dir); err != nil {
			return err
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_branches", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, repos, out := setup(t)
	testutil.CreateUser(t, repos.Users, "Marina", "marina", "marina@test.ru", "", []string{user.RoleManager}, true)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no username nor email", args: []string{"adduser", "-name", "Oleg"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Oleg", "-username", "oleg"}, wantErr: errHelp},
		{name: "weak password", wantAnyErr: true, args: []string{"adduser", "-name", "Oleg", "-username", "oleg"}, extra: "12345678"},
		{name: "unknown role", wantAnyErr: true, args: []string{"adduser", "-name", "Oleg", "-username", "oleg", "-roles", "coach:"}, extra: "Kv7#pLm2xq"},
		{name: "username taken", wantAnyErr: true, args: []string{"adduser", "-name", "Marina", "-username", "MARINA"}, extra: "Kv7#pLm2xq"},
		{name: "trainer", args: []string{"adduser", "-name", "Oleg", "-username", "oleg", "-roles", "trainer:"}, extra: "Kv7#pLm2xq"},
		{name: "owner", args: []string{"adduser", "-name", "Boss", "-email", "boss@test.ru", "-roles", "admin:, admin:owner"}, extra: "Kv7#pLm2xq"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	oleg, err := repos.Users.GetUser(context.Background(), user.GetFilter{Username: "oleg"})
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleTrainer}, oleg.Roles)
	assert.True(t, oleg.Active())
	assert.NoError(t, oleg.CheckPassword("Kv7#pLm2xq"))

	boss, err := repos.Users.GetUser(context.Background(), user.GetFilter{Email: "boss@test.ru"})
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleAdmin, user.RoleAdminOwner}, boss.Roles)

	assert.Contains(t, out.String(), "created user "+oleg.ID)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repos, _ := setup(t)
	usr := testutil.CreateUser(t, repos.Users, "User", "awe", "awe@test.ru", "mdr", nil, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", "AWE"}, extra: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err == nil {
				refreshedUsr, err := repos.Users.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.NoError(t, refreshedUsr.CheckPassword(pwd))
			}
		})
	}
}

func Test_commandLine_sessions(t *testing.T) {
	cli, repos, out := setup(t)
	g := testutil.CreateGroup(t, repos.Groups, "Футбол U10", "Среда: 18:00 - 19:00\nПонедельник: 10:00 - 11:00", "", 3000, 0)

	tests := []cliTest{
		{name: "no source", args: []string{"sessions"}, wantErr: errHelp},
		{name: "both sources", args: []string{"sessions", "-schedule", "Среда: 18:00", "-group", g.ID}, wantErr: errHelp},
		{name: "unreadable", args: []string{"sessions", "-schedule", "whenever"}, wantErr: errNoSchedule},
		{name: "unknown group", args: []string{"sessions", "-group", "6d2e1c4a-9b7f-4f3e-8a51-0c1d2e3f4a5b"}, wantErr: group.ErrNotFound},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("schedule", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "sessions", "-schedule", "Среда: 18:00 - 19:00\nПонедельник: 10:00 - 11:00", "-count", "2"}))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "Понедельник: 10:00 - 11:00", lines[0])
		assert.Equal(t, "Среда: 18:00 - 19:00", lines[1])
		assert.True(t, strings.HasPrefix(lines[3], "16 января 2023"), lines[3])
		assert.True(t, strings.HasSuffix(lines[3], "10:00 - 11:00"), lines[3])
		assert.True(t, strings.HasPrefix(lines[4], "18 января 2023"), lines[4])
	})

	t.Run("group", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "sessions", "-group", g.ID}))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, cli.conf.Schedule.UpcomingCount)
		assert.True(t, strings.HasPrefix(lines[2], "23 января 2023"), lines[2])
	})
}

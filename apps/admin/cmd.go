package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sqlx.DB
	usrRepo   user.Repository
	usrSvc    user.Service
	groupSvc  group.Service
	projector *schedule.Projector
	conf      *core.Config
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                  - run a goose command against the embedded migrations")
	fmt.Fprintln(cli.out, "  adduser -name NAME -username USERNAME -email EMAIL -roles ROLE[,ROLE] - create a staff account")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL                  - reset user's password")
	fmt.Fprintln(cli.out, "  sessions -schedule SCHEDULE|-group ID [-count N]        - list the next sessions of a schedule")
}

// promptPassword reads a password without echoing it; an empty answer prints usage.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRoles := addUserCmd.String("roles", user.RoleAdmin, "Comma separated roles. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	sessionsCmd := flag.NewFlagSet("sessions", flag.ExitOnError)
	sessionsSchedule := sessionsCmd.String("schedule", "", `A weekly schedule, e.g. "Понедельник: 10:00 - 11:00".`)
	sessionsGroup := sessionsCmd.String("group", "", "The ID of a group whose schedule is projected.")
	sessionsCount := sessionsCmd.Int("count", 0, "How many sessions to list.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || (*addUserUname == "" && *addUserEmail == "") {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, splitRoles(*addUserRoles))

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "sessions":
		if err := sessionsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*sessionsSchedule == "") == (*sessionsGroup == "") {
			sessionsCmd.Usage()
			return errHelp
		}
		return cli.sessions(*sessionsSchedule, *sessionsGroup, *sessionsCount)

	default:
		cli.printUsage()
		return errHelp
	}
}

func splitRoles(s string) []string {
	var roles []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

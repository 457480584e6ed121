package trial_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	emailsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/email"
	lockersvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/locker"
	testutil "github.com/Brainhard-droid/sports-school-crm-sub001/tests"
)

func newService(t *testing.T, seats int) (trial.Service, testutil.Repos) {
	repos := testutil.NewRepos(t)
	conf := *core.Conf
	conf.ManagerEmails = nil
	conf.Schedule.TrialSeats = seats
	conf.Schedule.UpcomingCount = 4

	mail := emailsvc.NewConsoleServiceMock()
	svc := trial.NewService(trial.Deps{
		Repo:     repos.Trials,
		GroupSvc: group.NewService(repos.Groups, testutil.NewProjector(testutil.Now), &conf),
		UserSvc:  user.NewService(repos.Users, mail),
		MailSvc:  mail,
		Locker:   lockersvc.NewLocalLocker(),
		Conf:     &conf,
	})
	return svc, repos
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{trial.StatusNew, trial.StatusInvited, true},
		{trial.StatusNew, trial.StatusRefused, true},
		{trial.StatusNew, trial.StatusAttended, false},
		{trial.StatusInvited, trial.StatusAttended, true},
		{trial.StatusAttended, trial.StatusConverted, true},
		{trial.StatusAttended, trial.StatusNew, false},
		{trial.StatusConverted, trial.StatusRefused, false},
		{trial.StatusRefused, trial.StatusInvited, false},
		{trial.StatusNew, trial.StatusNew, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, trial.CanTransition(tt.from, tt.to))
		})
	}
}

func TestService_Create_concurrentBookings(t *testing.T) {
	svc, repos := newService(t, 3)
	g := testutil.CreateGroup(t, repos.Groups, "Футбол U10", "Понедельник: 10:00 - 11:00", "", 3000, 0)
	monday := time.Date(2023, time.January, 16, 10, 0, 0, 0, time.UTC)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		refused int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), trial.NewRequest{
				ChildName: "Петя", ParentName: "Анна", Phone: "+79001234567", GroupID: g.ID, DesiredAt: monday,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				booked++
				return
			}
			var vErr *core.ValidationError
			if assert.True(t, errors.As(err, &vErr), err) {
				assert.Equal(t, "desired_at", vErr.Fields[0].Field)
			}
			refused++
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, booked)
	assert.Equal(t, 7, refused)

	n, err := repos.Trials.CountActiveRequests(context.Background(), g.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestService_AvailableSlots(t *testing.T) {
	svc, repos := newService(t, 1)
	g := testutil.CreateGroup(t, repos.Groups, "Плавание", "Вторник: 09:00\nЧетверг: 09:00", "", 2000, 0)
	tuesday := time.Date(2023, time.January, 17, 9, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), trial.NewRequest{
		ChildName: "Петя", ParentName: "Анна", Phone: "+79001234567", GroupID: g.ID, DesiredAt: tuesday,
	})
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.True(t, slots[0].Start.Equal(tuesday))
	assert.Equal(t, 0, slots[0].FreeSeats)
	assert.Equal(t, 1, slots[1].FreeSeats)
	assert.Equal(t, "09:00", slots[1].Time)

	_, err = svc.AvailableSlots(context.Background(), "6d2e1c4a-9b7f-4f3e-8a51-0c1d2e3f4a5b")
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "group_id", vErr.Fields[0].Field)
}

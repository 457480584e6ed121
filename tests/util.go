package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	inmemdb "github.com/Brainhard-droid/sports-school-crm-sub001/storage/database/inmem"
)

// Monday 16 January 2023, 09:00 UTC.
var Now = time.Date(2023, time.January, 16, 9, 0, 0, 0, time.UTC)

type Repos struct {
	DB         *inmemdb.DB
	Users      user.Repository
	Groups     group.Repository
	Students   student.Repository
	Trials     trial.Repository
	Attendance attendance.Repository
	Payments   payment.Repository
}

// NewRepos returns in-memory repositories sharing a fresh database.
func NewRepos(t *testing.T) Repos {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return Repos{
		DB:         db,
		Users:      inmemdb.NewUserRepository(db),
		Groups:     inmemdb.NewGroupRepository(db),
		Students:   inmemdb.NewStudentRepository(db),
		Trials:     inmemdb.NewTrialRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
		Payments:   inmemdb.NewPaymentRepository(db),
	}
}

// NewProjector returns a UTC projector frozen at now.
func NewProjector(now time.Time, logger ...core.Logger) *schedule.Projector {
	var l core.Logger = core.NopLogger{}
	if len(logger) > 0 {
		l = logger[0]
	}
	return schedule.NewProjector(l, schedule.WithLocation(time.UTC), schedule.WithClock(func() time.Time { return now }))
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateGroup(t *testing.T, repo group.Repository, name, sched, trainerID string, fee int64, capacity int) group.Group {
	t.Helper()
	now := time.Now().UTC()
	g, err := repo.CreateGroup(context.Background(), group.Group{
		Name:       name,
		Branch:     "Центр",
		TrainerID:  trainerID,
		Schedule:   sched,
		MonthlyFee: decimal.NewFromInt(fee),
		Capacity:   capacity,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}

func CreateStudent(t *testing.T, repo student.Repository, name, groupID string, isActive bool) student.Student {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateStudent(context.Background(), student.Student{
		Name:       name,
		ParentName: "Родитель " + name,
		Phone:      "+7 900 000-00-00",
		GroupID:    groupID,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreatePayment(t *testing.T, repo payment.Repository, studentID, amount, period string) payment.Payment {
	t.Helper()
	now := time.Now().UTC()
	p, err := repo.CreatePayment(context.Background(), payment.Payment{
		StudentID: studentID,
		Amount:    decimal.RequireFromString(amount),
		Period:    period,
		PaidAt:    now,
		Method:    payment.MethodCash,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}

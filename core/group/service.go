package group

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
)

const maxSessionCount = 50

var (
	// errors
	ErrNotFound = errors.New("group not found")
	ErrInUse    = errors.New("group still has students or trial requests")

	errTooManySessions = errors.Errorf("count cannot exceed %d", maxSessionCount)
)

type (
	Service interface {
		Create(ctx context.Context, ng NewGroup) (Group, error)
		Get(ctx context.Context, id string) (Group, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Group, error)
		Update(ctx context.Context, g Group, ug UpdateGroup) (Group, error)
		Delete(ctx context.Context, id string) error

		// WeeklySchedule is the parsed schedule of g in canonical day order.
		WeeklySchedule(g Group) schedule.WeeklySchedule
		// UpcomingSessions projects the next count sessions of the group from now;
		// count <= 0 asks for the configured default.
		UpcomingSessions(ctx context.Context, id string, count int) (Group, []schedule.Session, error)
		// Calendar renders UpcomingSessions as an iCalendar feed.
		Calendar(ctx context.Context, id string, count int) (string, error)
	}

	service struct {
		repo      Repository
		projector *schedule.Projector
		conf      *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, projector *schedule.Projector, conf *core.Config) Service {
	return &service{repo: repo, projector: projector, conf: conf}
}

func (svc *service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	g := Group{
		Name:       ng.Name,
		Branch:     ng.Branch,
		TrainerID:  ng.TrainerID,
		Schedule:   ng.Schedule,
		MonthlyFee: ng.MonthlyFee,
		Capacity:   ng.Capacity,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *service) Get(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, g Group, ug UpdateGroup) (Group, error) {
	g = ug.apply(g)
	g.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, g)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	err := svc.repo.DeleteGroup(ctx, id)
	if errors.Cause(err) == ErrInUse {
		return core.NewValidationError(err)
	}
	return err
}

func (svc *service) WeeklySchedule(g Group) schedule.WeeklySchedule {
	return svc.projector.Sort(svc.projector.Parse(g.Schedule))
}

func (svc *service) UpcomingSessions(ctx context.Context, id string, count int) (Group, []schedule.Session, error) {
	if count <= 0 {
		count = svc.conf.Schedule.UpcomingCount
	}
	if count > maxSessionCount {
		return Group{}, nil, core.NewFieldError("count", errTooManySessions.Error())
	}

	g, err := svc.repo.GetGroup(ctx, id)
	if err != nil {
		return Group{}, nil, err
	}
	if !g.IsActive {
		return g, []schedule.Session{}, nil
	}
	sessions := svc.projector.NextSessions(svc.WeeklySchedule(g), count)
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	return g, sessions, nil
}

func (svc *service) Calendar(ctx context.Context, id string, count int) (string, error) {
	g, sessions, err := svc.UpcomingSessions(ctx, id, count)
	if err != nil {
		return "", err
	}
	info := schedule.CalendarInfo{ID: g.ID, Name: g.Name, Location: g.Branch}
	return schedule.Calendar(info, sessions, svc.conf.Schedule.SessionLength, svc.projector.Now()), nil
}

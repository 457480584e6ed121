package trial

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("trial request not found")

	errGroupNotFound = errors.New("group not found")
	errGroupInactive = errors.New("group is not accepting trial requests")
	errNoSession     = errors.New("the group has no upcoming session at this time")
	errNoSeats       = errors.New("no trial seats left for this session")
)

// Slot is an upcoming session a trial can be booked for.
type Slot struct {
	Start     time.Time `json:"start"`
	Time      string    `json:"time"`
	Display   string    `json:"display"`
	FreeSeats int       `json:"free_seats"`
}

type (
	Service interface {
		// Create books a trial for one of the group's upcoming sessions.
		Create(ctx context.Context, nr NewRequest) (Request, error)
		// AvailableSlots lists the group's upcoming sessions with their free trial seats.
		AvailableSlots(ctx context.Context, groupID string) ([]Slot, error)
		Get(ctx context.Context, id string) (Request, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Request, error)
		UpdateStatus(ctx context.Context, r Request, us UpdateStatus) (Request, error)
	}

	service struct {
		repo     Repository
		groupSvc group.Service
		userSvc  user.Service
		mailSvc  core.EmailService
		locker   core.Locker
		conf     *core.Config
		logger   core.Logger
	}

	Deps struct {
		Repo     Repository
		GroupSvc group.Service
		UserSvc  user.Service
		MailSvc  core.EmailService
		Locker   core.Locker
		Conf     *core.Config
		Logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(deps Deps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &service{
		repo:     deps.Repo,
		groupSvc: deps.GroupSvc,
		userSvc:  deps.UserSvc,
		mailSvc:  deps.MailSvc,
		locker:   deps.Locker,
		conf:     deps.Conf,
		logger:   logger,
	}
}

func groupFieldError(err error) error {
	return core.NewFieldError("group_id", err.Error())
}

func (svc *service) upcoming(ctx context.Context, groupID string) (group.Group, []schedule.Session, error) {
	g, sessions, err := svc.groupSvc.UpcomingSessions(ctx, groupID, 0)
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return group.Group{}, nil, groupFieldError(errGroupNotFound)
		}
		return group.Group{}, nil, errors.Wrap(err, "projecting group sessions")
	}
	if !g.IsActive {
		return group.Group{}, nil, groupFieldError(errGroupInactive)
	}
	return g, sessions, nil
}

func (svc *service) AvailableSlots(ctx context.Context, groupID string) ([]Slot, error) {
	g, sessions, err := svc.upcoming(ctx, groupID)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(sessions))
	for _, s := range sessions {
		n, err := svc.repo.CountActiveRequests(ctx, g.ID, s.Start())
		if err != nil {
			return nil, errors.Wrap(err, "counting trial requests")
		}
		free := svc.conf.Schedule.TrialSeats - n
		if free < 0 {
			free = 0
		}
		slots = append(slots, Slot{
			Start:     s.Start(),
			Time:      s.Time,
			Display:   schedule.FormatDateTime(s.Start()),
			FreeSeats: free,
		})
	}
	return slots, nil
}

func (svc *service) Create(ctx context.Context, nr NewRequest) (Request, error) {
	g, sessions, err := svc.upcoming(ctx, nr.GroupID)
	if err != nil {
		return Request{}, err
	}

	var slot *schedule.Session
	for i := range sessions {
		if sessions[i].Start().Equal(nr.DesiredAt) {
			slot = &sessions[i]
			break
		}
	}
	if slot == nil {
		return Request{}, core.NewFieldError("desired_at", errNoSession.Error())
	}
	start := slot.Start()

	// seats are counted and taken under the session lock
	lock, err := svc.locker.Lock(ctx, fmt.Sprintf("trial:%s:%d", g.ID, start.Unix()))
	if err != nil {
		return Request{}, errors.Wrap(err, "locking trial session")
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			svc.logger.Error("releasing trial session lock", err)
		}
	}()

	n, err := svc.repo.CountActiveRequests(ctx, g.ID, start)
	if err != nil {
		return Request{}, errors.Wrap(err, "counting trial requests")
	}
	if n >= svc.conf.Schedule.TrialSeats {
		return Request{}, core.NewFieldError("desired_at", errNoSeats.Error())
	}

	now := time.Now().UTC()
	r, err := svc.repo.CreateRequest(ctx, Request{
		ChildName:  nr.ChildName,
		ParentName: nr.ParentName,
		Phone:      nr.Phone,
		GroupID:    g.ID,
		DesiredAt:  start.UTC(),
		Status:     StatusNew,
		Notes:      nr.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Request{}, errors.Wrap(err, "creating trial request")
	}

	svc.notifyManagers(ctx, g, r, start)
	return r, nil
}

// managerAddresses merges the configured addresses with the active managers and admins.
func (svc *service) managerAddresses(ctx context.Context) []mail.Address {
	seen := make(map[string]bool)
	var addrs []mail.Address
	add := func(a mail.Address) {
		key := strings.ToLower(a.Address)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		addrs = append(addrs, a)
	}

	for _, raw := range svc.conf.ManagerEmails {
		a, err := mail.ParseAddress(raw)
		if err != nil {
			svc.logger.Warn("invalid manager email in config", map[string]interface{}{"email": raw})
			continue
		}
		add(*a)
	}

	managers, err := svc.userSvc.QueryByRole(ctx, user.RoleManager, user.RoleAdmin)
	if err != nil {
		svc.logger.Error("querying managers", errors.Wrap(err, "querying managers"))
	}
	for _, m := range managers {
		add(mail.Address{Name: m.Name, Address: m.Email})
	}
	return addrs
}

func (svc *service) notifyManagers(ctx context.Context, g group.Group, r Request, start time.Time) {
	to := svc.managerAddresses(ctx)
	if len(to) == 0 {
		svc.logger.Warn("no manager to notify about trial request", map[string]interface{}{"request_id": r.ID})
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "Заявка на пробное занятие: " + g.Name,
		TemplateName: "trial_request",
		TemplateData: map[string]interface{}{
			"ChildName":  r.ChildName,
			"ParentName": r.ParentName,
			"Phone":      r.Phone,
			"GroupName":  g.Name,
			"SessionAt":  schedule.FormatDateTime(start),
			"Notes":      r.Notes,
		},
	})
}

func (svc *service) Get(ctx context.Context, id string) (Request, error) {
	return svc.repo.GetRequest(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Request, error) {
	return svc.repo.QueryRequests(ctx, filter, ordering)
}

func (svc *service) UpdateStatus(ctx context.Context, r Request, us UpdateStatus) (Request, error) {
	if !CanTransition(r.Status, us.Status) {
		msg := fmt.Sprintf("cannot change status from %q to %q", r.Status, us.Status)
		return Request{}, core.NewFieldError("status", msg)
	}
	r.Status = us.Status
	if us.Notes != "" {
		r.Notes = us.Notes
	}
	r.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRequest(ctx, r)
}

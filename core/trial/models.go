package trial

import (
	"context"
	"time"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// Request statuses
const (
	StatusNew       = "new"
	StatusInvited   = "invited"
	StatusAttended  = "attended"
	StatusConverted = "converted"
	StatusRefused   = "refused"
)

var (
	AllStatuses = []string{StatusNew, StatusInvited, StatusAttended, StatusConverted, StatusRefused}

	// ActiveStatuses hold a seat in the requested session.
	ActiveStatuses = []string{StatusNew, StatusInvited, StatusAttended}

	transitions = map[string][]string{
		StatusNew:      {StatusInvited, StatusRefused},
		StatusInvited:  {StatusAttended, StatusRefused},
		StatusAttended: {StatusConverted, StatusRefused},
	}
)

// CanTransition reports whether a request may move from status from to status to.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Request is a parent's request for a trial session of a group.
type Request struct {
	ID         string    `json:"id"`
	ChildName  string    `json:"child_name"`
	ParentName string    `json:"parent_name"`
	Phone      string    `json:"phone"`
	GroupID    string    `json:"group_id"`
	DesiredAt  time.Time `json:"desired_at"` // start of the requested session
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewRequest is what the public booking form submits.
type NewRequest struct {
	ChildName  string    `json:"child_name" validate:"required,notblank,max=150"`
	ParentName string    `json:"parent_name" validate:"required,notblank,max=150"`
	Phone      string    `json:"phone" validate:"required,phone"`
	GroupID    string    `json:"group_id" validate:"required,uuid"`
	DesiredAt  time.Time `json:"desired_at" validate:"required"`
	Notes      string    `json:"notes" validate:"max=1000"`
}

func (nr *NewRequest) Validate() error {
	nr.ChildName = core.CleanString(nr.ChildName)
	nr.ParentName = core.CleanString(nr.ParentName)
	nr.Phone = core.CleanString(nr.Phone)
	nr.GroupID = core.CleanString(nr.GroupID, true /* lower */)
	nr.Notes = core.CleanString(nr.Notes)
	return core.Validate.Struct(nr)
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,trial_status"`
	Notes  string `json:"notes" validate:"max=1000"`
}

func (us *UpdateStatus) Validate() error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	us.Notes = core.CleanString(us.Notes)
	return core.Validate.Struct(us)
}

type QueryFilter struct {
	Status  []string  `query:"status"`
	GroupID string    `query:"group_id"`
	From    time.Time `query:"from"`
	To      time.Time `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.GroupID = core.CleanString(qf.GroupID, true /* lower */)
}

type Repository interface {
	CreateRequest(ctx context.Context, r Request, exec ...core.DBExecutor) (Request, error)
	// QueryRequests applies AND operation on available QueryFilter fields;
	// From and To bound Request.DesiredAt.
	QueryRequests(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Request, error)
	GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (Request, error)
	// CountActiveRequests counts requests in ActiveStatuses booked for the session of groupID starting at at.
	CountActiveRequests(ctx context.Context, groupID string, at time.Time, exec ...core.DBExecutor) (int, error)
	UpdateRequest(ctx context.Context, r Request, exec ...core.DBExecutor) (Request, error)
}

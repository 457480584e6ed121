package group

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// Group is a training group. Schedule keeps the weekly schedule exactly as it was entered
// (text or JSON); it is parsed on every read.
type Group struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Branch     string          `json:"branch"`
	TrainerID  string          `json:"trainer_id"`
	Schedule   string          `json:"schedule"`
	MonthlyFee decimal.Decimal `json:"monthly_fee"`
	Capacity   int             `json:"capacity"` // 0: unlimited
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"` // UTC
	UpdatedAt  time.Time       `json:"updated_at"` // UTC
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name       string          `json:"name" validate:"required,notblank,max=100"`
	Branch     string          `json:"branch" validate:"max=100"`
	TrainerID  string          `json:"trainer_id" validate:"omitempty,uuid"`
	Schedule   string          `json:"schedule" validate:"required,weekly_schedule"`
	MonthlyFee decimal.Decimal `json:"monthly_fee" validate:"decimal_nonnegative"`
	Capacity   int             `json:"capacity" validate:"gte=0"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Branch = core.CleanString(ng.Branch)
	ng.TrainerID = core.CleanString(ng.TrainerID, true /* lower */)
	ng.Schedule = core.CleanString(ng.Schedule)
	return core.Validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
// Unset fields keep their current value.
type UpdateGroup struct {
	Name       *string          `json:"name" validate:"omitempty,notblank,max=100"`
	Branch     *string          `json:"branch" validate:"omitempty,max=100"`
	TrainerID  *string          `json:"trainer_id" validate:"omitempty,uuid"`
	Schedule   *string          `json:"schedule" validate:"omitempty,weekly_schedule"`
	MonthlyFee *decimal.Decimal `json:"monthly_fee" validate:"omitempty,decimal_nonnegative"`
	Capacity   *int             `json:"capacity" validate:"omitempty,gte=0"`
	IsActive   *bool            `json:"is_active"`
}

func (ug *UpdateGroup) Validate() error {
	clean := func(s *string, lower ...bool) {
		if s != nil {
			*s = core.CleanString(*s, lower...)
		}
	}
	clean(ug.Name)
	clean(ug.Branch)
	clean(ug.TrainerID, true /* lower */)
	clean(ug.Schedule)
	return core.Validate.Struct(ug)
}

func (ug UpdateGroup) apply(g Group) Group {
	if ug.Name != nil && *ug.Name != "" {
		g.Name = *ug.Name
	}
	if ug.Branch != nil {
		g.Branch = *ug.Branch
	}
	if ug.TrainerID != nil {
		g.TrainerID = *ug.TrainerID
	}
	if ug.Schedule != nil && *ug.Schedule != "" {
		g.Schedule = *ug.Schedule
	}
	if ug.MonthlyFee != nil {
		g.MonthlyFee = *ug.MonthlyFee
	}
	if ug.Capacity != nil {
		g.Capacity = *ug.Capacity
	}
	if ug.IsActive != nil {
		g.IsActive = *ug.IsActive
	}
	return g
}

type QueryFilter struct {
	Search    string `query:"search"`
	Branch    string `query:"branch"`
	TrainerID string `query:"trainer_id"`
	IsActive  *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Branch = core.CleanString(qf.Branch)
	qf.TrainerID = core.CleanString(qf.TrainerID, true /* lower */)
}

type Repository interface {
	CreateGroup(ctx context.Context, g Group, exec ...core.DBExecutor) (Group, error)
	// QueryGroups applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on Group.Name.
	QueryGroups(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Group, error)
	GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (Group, error)
	UpdateGroup(ctx context.Context, g Group, exec ...core.DBExecutor) (Group, error)
	// DeleteGroup returns ErrInUse while students or trial requests reference the group.
	DeleteGroup(ctx context.Context, id string, exec ...core.DBExecutor) error
}

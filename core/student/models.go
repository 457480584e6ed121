package student

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ParentName string    `json:"parent_name"`
	Phone      string    `json:"phone"`
	BirthDate  null.Time `json:"birth_date"`
	GroupID    string    `json:"group_id"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to enroll a Student in a group.
type NewStudent struct {
	Name       string    `json:"name" validate:"required,notblank,max=150"`
	ParentName string    `json:"parent_name" validate:"max=150"`
	Phone      string    `json:"phone" validate:"omitempty,phone"`
	BirthDate  null.Time `json:"birth_date"`
	GroupID    string    `json:"group_id" validate:"required,uuid"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.ParentName = core.CleanString(ns.ParentName)
	ns.Phone = core.CleanString(ns.Phone)
	ns.GroupID = core.CleanString(ns.GroupID, true /* lower */)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return validateBirthDate(ns.BirthDate)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Unset fields keep their current value.
type UpdateStudent struct {
	Name       *string   `json:"name" validate:"omitempty,notblank,max=150"`
	ParentName *string   `json:"parent_name" validate:"omitempty,max=150"`
	Phone      *string   `json:"phone" validate:"omitempty,phone"`
	BirthDate  null.Time `json:"birth_date"`
	GroupID    *string   `json:"group_id" validate:"omitempty,uuid"`
	IsActive   *bool     `json:"is_active"`
}

func (us *UpdateStudent) Validate() error {
	for _, s := range []*string{us.Name, us.ParentName, us.Phone} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if us.GroupID != nil {
		*us.GroupID = core.CleanString(*us.GroupID, true /* lower */)
	}
	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return validateBirthDate(us.BirthDate)
}

func (us UpdateStudent) apply(s Student) Student {
	if us.Name != nil && *us.Name != "" {
		s.Name = *us.Name
	}
	if us.ParentName != nil {
		s.ParentName = *us.ParentName
	}
	if us.Phone != nil {
		s.Phone = *us.Phone
	}
	if us.BirthDate.Valid {
		s.BirthDate = us.BirthDate
	}
	if us.GroupID != nil && *us.GroupID != "" {
		s.GroupID = *us.GroupID
	}
	if us.IsActive != nil {
		s.IsActive = *us.IsActive
	}
	return s
}

func validateBirthDate(d null.Time) error {
	if d.Valid && d.Time.After(time.Now()) {
		return core.NewFieldError("birth_date", "birth date cannot be in the future")
	}
	return nil
}

type QueryFilter struct {
	Search   string `query:"search"`
	GroupID  string `query:"group_id"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.GroupID = core.CleanString(qf.GroupID, true /* lower */)
}

type Repository interface {
	CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
	// QueryStudents applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of Student.Name, Student.ParentName or Student.Phone.
	QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
	GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
	CountActiveStudents(ctx context.Context, groupID string, exec ...core.DBExecutor) (int, error)
	UpdateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
	// DeleteStudent drops the student's attendance marks and returns ErrInUse when payments reference it.
	DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error
}

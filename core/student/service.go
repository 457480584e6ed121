package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
	ErrInUse    = errors.New("student has recorded payments")

	errGroupNotFound = errors.New("group not found")
	errGroupInactive = errors.New("group is not active")
	errGroupFull     = errors.New("group is full")
)

type (
	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Get(ctx context.Context, id string) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		QueryByGroup(ctx context.Context, groupID string) ([]Student, error)
		Update(ctx context.Context, s Student, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo      Repository
		groupRepo group.Repository
		locker    core.Locker
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, groupRepo group.Repository, locker core.Locker) Service {
	return &service{repo: repo, groupRepo: groupRepo, locker: locker}
}

// enroll runs create while no one else enrolls into groupID, once the group is known to have room.
func (svc *service) enroll(ctx context.Context, groupID string, create func() (Student, error)) (Student, error) {
	g, err := svc.groupRepo.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return Student{}, core.NewFieldError("group_id", errGroupNotFound.Error())
		}
		return Student{}, errors.Wrap(err, "finding group")
	}
	if !g.IsActive {
		return Student{}, core.NewFieldError("group_id", errGroupInactive.Error())
	}
	if g.Capacity <= 0 {
		return create()
	}

	lock, err := svc.locker.Lock(ctx, "enroll:"+g.ID)
	if err != nil {
		return Student{}, errors.Wrap(err, "locking group enrollment")
	}
	defer func() { _ = lock.Release(context.Background()) }()

	n, err := svc.repo.CountActiveStudents(ctx, g.ID)
	if err != nil {
		return Student{}, errors.Wrap(err, "counting students")
	}
	if n >= g.Capacity {
		return Student{}, core.NewFieldError("group_id", errGroupFull.Error())
	}
	return create()
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	return svc.enroll(ctx, ns.GroupID, func() (Student, error) {
		now := time.Now().UTC()
		return svc.repo.CreateStudent(ctx, Student{
			Name:       ns.Name,
			ParentName: ns.ParentName,
			Phone:      ns.Phone,
			BirthDate:  ns.BirthDate,
			GroupID:    ns.GroupID,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
}

func (svc *service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) QueryByGroup(ctx context.Context, groupID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, &QueryFilter{GroupID: groupID}, []core.DBOrdering{{Field: "name", Ascending: true}})
}

func (svc *service) Update(ctx context.Context, s Student, us UpdateStudent) (Student, error) {
	updated := us.apply(s)
	updated.UpdatedAt = time.Now().UTC()

	// moving to another group (or re-activating) takes a seat there
	if updated.IsActive && (updated.GroupID != s.GroupID || !s.IsActive) {
		return svc.enroll(ctx, updated.GroupID, func() (Student, error) {
			return svc.repo.UpdateStudent(ctx, updated)
		})
	}
	return svc.repo.UpdateStudent(ctx, updated)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	err := svc.repo.DeleteStudent(ctx, id)
	if errors.Cause(err) == ErrInUse {
		return core.NewValidationError(err)
	}
	return err
}

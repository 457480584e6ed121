package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	g.ID = newID()
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]group.Group, 0)
	for _, g := range repo.db.groups {
		if filter != nil {
			if filter.Search != "" && !containsFold(g.Name, filter.Search) {
				continue
			}
			if filter.Branch != "" && !strings.EqualFold(g.Branch, filter.Branch) {
				continue
			}
			if filter.TrainerID != "" && g.TrainerID != filter.TrainerID {
				continue
			}
			if filter.IsActive != nil && g.IsActive != *filter.IsActive {
				continue
			}
		}
		groups = append(groups, *g)
	}

	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}}
	}
	sort.SliceStable(groups, lessFunc(ordering, func(i, j int, field string) int {
		a, b := groups[i], groups[j]
		switch field {
		case "id":
			return strings.Compare(a.ID, b.ID)
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "branch":
			return strings.Compare(a.Branch, b.Branch)
		case "monthly_fee":
			return a.MonthlyFee.Cmp(b.MonthlyFee)
		case "is_active":
			return compareBool(a.IsActive, b.IsActive)
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		}
		return 0
	}))
	return groups, nil
}

func (repo *groupRepository) GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return *g, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.groups[g.ID]; !ok {
		return group.Group{}, group.ErrNotFound
	}
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.groups[id]; !ok {
		return group.ErrNotFound
	}
	for _, s := range repo.db.students {
		if s.GroupID == id {
			return group.ErrInUse
		}
	}
	for _, r := range repo.db.trials {
		if r.GroupID == id {
			return group.ErrInUse
		}
	}

	delete(repo.db.groups, id)
	for k := range repo.db.marks {
		if k.groupID == id {
			delete(repo.db.marks, k)
		}
	}
	return nil
}

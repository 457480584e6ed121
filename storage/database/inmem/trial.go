package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
)

type trialRepository struct {
	db *DB
}

var _ trial.Repository = (*trialRepository)(nil) // interface compliance check

func NewTrialRepository(db *DB) trial.Repository {
	return &trialRepository{db: db}
}

func (repo *trialRepository) CreateRequest(ctx context.Context, r trial.Request, exec ...core.DBExecutor) (trial.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = newID()
	repo.db.trials[r.ID] = &r
	return r, nil
}

func hasStatus(r trial.Request, statuses []string) bool {
	for _, s := range statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

func (repo *trialRepository) QueryRequests(ctx context.Context, filter *trial.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]trial.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	requests := make([]trial.Request, 0)
	for _, r := range repo.db.trials {
		if filter != nil {
			if len(filter.Status) > 0 && !hasStatus(*r, filter.Status) {
				continue
			}
			if filter.GroupID != "" && r.GroupID != filter.GroupID {
				continue
			}
			if !filter.From.IsZero() && r.DesiredAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && r.DesiredAt.After(filter.To) {
				continue
			}
		}
		requests = append(requests, *r)
	}

	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}, {Field: "id", Ascending: true}}
	}
	sort.SliceStable(requests, lessFunc(ordering, func(i, j int, field string) int {
		a, b := requests[i], requests[j]
		switch field {
		case "id":
			return strings.Compare(a.ID, b.ID)
		case "child_name":
			return strings.Compare(a.ChildName, b.ChildName)
		case "status":
			return strings.Compare(a.Status, b.Status)
		case "desired_at":
			return compareTime(a.DesiredAt, b.DesiredAt)
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		}
		return 0
	}))
	return requests, nil
}

func (repo *trialRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (trial.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.trials[id]; ok {
		return *r, nil
	}
	return trial.Request{}, trial.ErrNotFound
}

func (repo *trialRepository) CountActiveRequests(ctx context.Context, groupID string, at time.Time, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, r := range repo.db.trials {
		if r.GroupID == groupID && r.DesiredAt.Equal(at) && hasStatus(*r, trial.ActiveStatuses) {
			n++
		}
	}
	return n, nil
}

func (repo *trialRepository) UpdateRequest(ctx context.Context, r trial.Request, exec ...core.DBExecutor) (trial.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.trials[r.ID]; !ok {
		return trial.Request{}, trial.ErrNotFound
	}
	repo.db.trials[r.ID] = &r
	return r, nil
}

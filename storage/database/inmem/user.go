package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.query() {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = newID()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func hasRolePrefix(usr user.User, prefixes []string) bool {
	for _, prefix := range prefixes {
		for _, role := range usr.Roles {
			if strings.HasPrefix(role, prefix) {
				return true
			}
		}
	}
	return false
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter != nil {
			if filter.Search != "" && !(containsFold(usr.Name, filter.Search) ||
				containsFold(usr.Username, filter.Search) ||
				containsFold(usr.Email, filter.Search)) {
				continue
			}
			if len(filter.Roles) > 0 && !hasRolePrefix(usr, filter.Roles) {
				continue
			}
			if filter.IsActive != nil && usr.Active() != *filter.IsActive {
				continue
			}
			if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
				continue
			}
			if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
				continue
			}
		}
		users = append(users, usr)
	}

	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}, {Field: "id", Ascending: true}}
	}
	sort.SliceStable(users, lessFunc(ordering, func(i, j int, field string) int {
		a, b := users[i], users[j]
		switch field {
		case "id":
			return strings.Compare(a.ID, b.ID)
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "username":
			return strings.Compare(a.Username, b.Username)
		case "email":
			return strings.Compare(a.Email, b.Email)
		case "is_active":
			return compareBool(a.Active(), b.Active())
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		case "last_login":
			return compareTime(a.LastLogin, b.LastLogin)
		}
		return 0
	}))
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}

	var match func(usr user.User) bool
	switch {
	case filter.Username != "":
		match = func(usr user.User) bool { return usr.Username == filter.Username }
	case filter.Email != "":
		match = func(usr user.User) bool { return usr.Email == filter.Email }
	case filter.UsernameOrEmail != "":
		match = func(usr user.User) bool {
			return usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail
		}
	default:
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.query() {
		if match(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.users[id]; !ok {
			continue
		}
		delete(repo.db.users, id)
		cnt++

		// groups.trainer_id is ON DELETE SET NULL
		for _, g := range repo.db.groups {
			if g.TrainerID == id {
				g.TrainerID = ""
			}
		}
	}
	return cnt, nil
}

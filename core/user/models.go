package user

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// Staff roles. A prefix ending in ":" names the family; admin:owner is an admin too.
const (
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"
	RoleManager    = "manager:" // trial requests, students and payments
	RoleTrainer    = "trainer:" // own groups and their attendance
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Roles lists the assignable roles from least to most powerful.
var Roles = []Role{
	{Name: "Тренер", Value: RoleTrainer},
	{Name: "Менеджер", Value: RoleManager},
	{Name: "Администратор", Value: RoleAdmin},
	{Name: "Владелец", Value: RoleAdminOwner},
}

// rank orders roles inside bands: admins 21-30, managers 11-20, trainers 1-10.
var rank = map[string]int{
	RoleAdminOwner: 30,
	RoleAdmin:      21,
	RoleManager:    11,
	RoleTrainer:    1,
}

func knownRole(role string) bool {
	_, ok := rank[role]
	return ok
}

// MaxRolePriority is the rank of the strongest of roles, 0 when none is known.
func MaxRolePriority(roles []string) int {
	top := 0
	for _, role := range roles {
		if r := rank[role]; r > top {
			top = r
		}
	}
	return top
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     *bool     `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) (err error) {
	u.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	return err
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

// Active reports whether the account may log in; accounts never (de)activated are active.
func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// HasRole reports whether one of the user's roles belongs to any of the given families.
func (u *User) HasRole(families ...string) bool {
	for _, role := range u.Roles {
		for _, family := range families {
			if strings.HasPrefix(role, family) {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

// CanManage is true for admins and managers.
func (u *User) CanManage() bool { return u.HasRole(RoleAdmin, RoleManager) }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required,notblank"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(ctx context.Context, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// Validate fills blank fields from origUsr before checking, so a partial update keeps the rest.
func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, svc Service) error {
	uu.Name = orDefault(core.CleanString(uu.Name), origUsr.Name)
	uu.Username = orDefault(core.CleanString(uu.Username, true /* lower */), origUsr.Username)
	uu.Email = orDefault(core.CleanString(uu.Email, true /* lower */), origUsr.Email)

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}

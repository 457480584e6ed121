package echoapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

// context keys of the objects loaded by detail middlewares
const (
	objectKey  = "object"
	groupKey   = "group"
	studentKey = "student"
)

// rolesMiddleware lets through users holding a role starting with any of prefixes.
func rolesMiddleware(prefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := contextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.HasRolePrefix(prefixes...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

var (
	staffMiddleware   = rolesMiddleware(user.RoleAdmin, user.RoleManager, user.RoleTrainer)
	managerMiddleware = rolesMiddleware(user.RoleAdmin, user.RoleManager)
	adminMiddleware   = rolesMiddleware(user.RoleAdmin)
)

// groupMiddleware loads the group named by the :id path param.
func groupMiddleware(svc group.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !isUUID(ctx.Param("id")) {
				return errHttpNotFound
			}
			g, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == group.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding group by ID")
			}
			ctx.Set(groupKey, g)
			return next(ctx)
		}
	}
}

// trainerGroupMiddleware hides groups from trainers who do not run them.
// Must run after groupMiddleware.
func trainerGroupMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := contextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		g, err := contextGroup(ctx)
		if err != nil {
			return err
		}
		if claims.CanManage() || g.TrainerID == claims.Subject {
			return next(ctx)
		}
		return errHttpNotFound
	}
}

func studentMiddleware(svc student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !isUUID(ctx.Param("id")) {
				return errHttpNotFound
			}
			s, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(studentKey, s)
			return next(ctx)
		}
	}
}

func trialMiddleware(svc trial.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !isUUID(ctx.Param("id")) {
				return errHttpNotFound
			}
			r, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == trial.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding trial request by ID")
			}
			ctx.Set(objectKey, r)
			return next(ctx)
		}
	}
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func contextGroup(ctx echo.Context) (group.Group, error) {
	g, ok := ctx.Get(groupKey).(group.Group)
	if !ok {
		return group.Group{}, errors.New("group object not found in echo.Context")
	}
	return g, nil
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	s, ok := ctx.Get(studentKey).(student.Student)
	if !ok {
		return student.Student{}, errors.New("student object not found in echo.Context")
	}
	return s, nil
}

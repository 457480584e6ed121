package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

const (
	targetUserKey = "target_user"

	resetRequestedMsg = "Если адрес принадлежит активной учётной записи, на него придёт письмо с инструкцией по сбросу пароля."
	resetDoneMsg      = "Пароль изменён."
)

var errRolesAboveOwn = core.NewFieldError("roles", "not enough rights to set these roles")

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"` // username or email
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

type userApi struct {
	svc user.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, limit []echo.MiddlewareFunc, svc user.Service) {
	api := userApi{svc: svc}
	ug := g.Group("/users")

	ug.POST("/login", api.login, limit...)
	ug.POST("/password-reset", api.requestPasswordReset, limit...)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset, limit...)

	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/roles", api.roles, adminMiddleware)
	ag.GET("", api.query, adminMiddleware)
	ag.POST("/register", api.create, adminMiddleware)
	ag.DELETE("", api.destroyMultiple, adminMiddleware)

	// staff see their own account, admins see everyone's
	dg := ag.Group("/:id", api.targetMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware)
}

// outranks reports whether actor may grant roles (or act on an account holding them).
func outranks(actor user.User, roles []string) bool {
	return user.MaxRolePriority(roles) <= user.MaxRolePriority(actor.Roles)
}

func (api *userApi) targetMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		actor, err := currentUser(ctx, api.svc)
		if err != nil {
			return err
		}
		id := ctx.Param("id")
		if !isUUID(id) || (id != actor.ID && !actor.IsAdmin()) {
			return errHttpNotFound
		}

		target := actor
		if id != actor.ID {
			if target, err = api.svc.GetByID(ctx.Request().Context(), id); err != nil {
				return errors.Wrap(err, "finding user by ID")
			}
		}
		ctx.Set(targetUserKey, target)
		return next(ctx)
	}
}

func targetUser(ctx echo.Context) (user.User, error) {
	usr, ok := ctx.Get(targetUserKey).(user.User)
	if !ok {
		return user.User{}, errors.New("target user not found in echo.Context")
	}
	return usr, nil
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := checkCredentials(ctx.Request().Context(), api.svc, data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := IssueToken(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := reissueToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) requestPasswordReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// the answer never tells whether the address is known
	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: resetRequestedMsg})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: resetDoneMsg})
}

func (api *userApi) roles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	users, err := api.svc.Query(ctx.Request().Context(), filter, queryOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) create(ctx echo.Context) error {
	actor, err := currentUser(ctx, api.svc)
	if err != nil {
		return err
	}

	var data user.NewUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err = data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}
	if !outranks(actor, data.Roles) {
		return errRolesAboveOwn
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := targetUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := targetUser(ctx)
	if err != nil {
		return err
	}
	actor, err := currentUser(ctx, api.svc)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	// staff may rename themselves and change their password; the rest is up to admins
	adminOnly := data.IsActive != nil || data.Roles != nil || data.Username != "" || data.Email != ""
	if adminOnly && !actor.IsAdmin() {
		return errHttpForbidden
	}
	if err = data.Validate(ctx.Request().Context(), usr, api.svc); err != nil {
		return err
	}
	if !outranks(actor, data.Roles) {
		return errRolesAboveOwn
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, err := targetUser(ctx)
	if err != nil {
		return err
	}
	actor, err := currentUser(ctx, api.svc)
	if err != nil {
		return err
	}
	if usr.ID == actor.ID || !outranks(actor, usr.Roles) {
		return errHttpForbidden
	}

	if _, err = api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// destroyMultiple deletes every listed account, or none if one of them may not be deleted by the caller.
func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	actor, err := currentUser(ctx, api.svc)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(query.IDs))
	for _, id := range query.IDs {
		if id == actor.ID {
			return errHttpForbidden
		}
		if !isUUID(id) {
			continue
		}
		usr, err := api.svc.GetByID(ctx.Request().Context(), id)
		if errors.Cause(err) == user.ErrNotFound {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		if !outranks(actor, usr.Roles) {
			return errHttpForbidden
		}
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		if _, err = api.svc.Delete(ctx.Request().Context(), ids...); err != nil {
			return errors.Wrap(err, "deleting users")
		}
	}
	return ctx.NoContent(http.StatusNoContent)
}

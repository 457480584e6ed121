package echoapi

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

const (
	claimsKey    = "jwt"
	staffKey     = "staff"
	jwtAudience  = "staff"
	jwtAlgorithm = middleware.AlgorithmHS256
)

// Claims are carried by the staff JWT. Roles are copied at issue time;
// handlers that need the current account state load it with currentUser.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"` // first login of the refresh chain
	Name         string   `json:"name,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

// HasRolePrefix reports whether one of the claimed roles starts with any of prefixes.
func (c Claims) HasRolePrefix(prefixes ...string) bool {
	for _, role := range c.Roles {
		for _, prefix := range prefixes {
			if strings.HasPrefix(role, prefix) {
				return true
			}
		}
	}
	return false
}

func (c Claims) IsAdmin() bool { return c.HasRolePrefix(user.RoleAdmin) }

// CanManage is true for admins and managers.
func (c Claims) CanManage() bool { return c.HasRolePrefix(user.RoleAdmin, user.RoleManager) }

func jwtMiddleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: jwtAlgorithm,
		ContextKey:    claimsKey,
		Claims:        new(Claims),
	})
}

// IssueToken signs a JWT for usr. A refreshed token passes the issue time of the login it descends from.
func IssueToken(usr user.User, loggedInAt ...time.Time) (string, error) {
	now := time.Now()
	oriat := now
	if len(loggedInAt) > 0 {
		oriat = loggedInAt[0]
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			Audience:  jwtAudience,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: oriat.Unix(),
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		Roles:        usr.Roles,
	}
	token, err := jwt.NewWithClaims(jwt.GetSigningMethod(jwtAlgorithm), claims).SignedString([]byte(core.Conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return token, nil
}

// checkCredentials returns the active account matching uname and pwd, and records the login.
func checkCredentials(ctx context.Context, svc user.Service, uname, pwd string) (user.User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	switch {
	case errors.Cause(err) == user.ErrNotFound:
		return user.User{}, errAuthenticationFailed
	case err != nil:
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}

	if usr.CheckPassword(pwd) != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.Active() {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

func contextClaims(ctx echo.Context) (Claims, error) {
	token, ok := ctx.Get(claimsKey).(*jwt.Token)
	if !ok {
		return Claims{}, errUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, errUnauthorized
	}
	return *claims, nil
}

// currentUser loads the account behind the request's token, once per request.
func currentUser(ctx echo.Context, svc user.Service) (user.User, error) {
	if usr, ok := ctx.Get(staffKey).(user.User); ok {
		return usr, nil
	}
	claims, err := contextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if errors.Cause(err) == user.ErrNotFound {
		return user.User{}, errUnauthorized // the account was deleted after login
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(staffKey, usr)
	return usr, nil
}

// reissueToken extends the session of the request's user until JWTRefreshExpirationDelta
// has passed since their login.
func reissueToken(ctx echo.Context, svc user.Service) (string, error) {
	claims, err := contextClaims(ctx)
	if err != nil {
		return "", err
	}
	usr, err := currentUser(ctx, svc)
	if err != nil {
		return "", err
	}
	if !usr.Active() {
		return "", errAccountDeactivated
	}

	loggedInAt := time.Unix(claims.OrigIssuedAt, 0)
	if time.Since(loggedInAt) > core.Conf.Server.JWTRefreshExpirationDelta {
		return "", errRefreshExpired
	}
	return IssueToken(usr, loggedInAt)
}

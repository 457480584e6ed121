package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errHttpConflict         = echo.NewHTTPError(http.StatusConflict, core.ErrLockNotObtained.Error())
)

func isNotFound(err error) bool {
	switch errors.Cause(err) {
	case user.ErrNotFound, group.ErrNotFound, student.ErrNotFound, trial.ErrNotFound:
		return true
	}
	return false
}

// errorResponse maps err to a status code and a body. ok is false for unexpected errors.
func errorResponse(err error) (code int, body interface{}, ok bool) {
	cause := errors.Cause(err)
	switch {
	case cause == core.ErrLockNotObtained:
		return errHttpConflict.Code, errHttpConflict.Message, true
	case isNotFound(cause):
		return errHttpNotFound.Code, errHttpNotFound.Message, true
	}

	switch e := cause.(type) {
	case *echo.HTTPError:
		if e == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, e.Message, true
		}
		if inner, isHTTP := e.Internal.(*echo.HTTPError); isHTTP {
			e = inner
		}
		return e.Code, e.Message, true
	case validator.ValidationErrors:
		fields := make(map[string]string, len(e))
		for _, fe := range e {
			fields[fieldPath(fe)] = fe.Translate(core.Translator)
		}
		return http.StatusBadRequest, fields, true
	case *core.ValidationError:
		if e.Fields == nil {
			return http.StatusBadRequest, e.Error(), true
		}
		fields := make(map[string]string, len(e.Fields))
		for _, fe := range e.Fields {
			fields[fe.Field] = fe.Error
		}
		return http.StatusBadRequest, fields, true
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false
}

// newAppHTTPErrorHandler renders errors as JSON and reports unexpected ones.
// signalShutdown is called when a core shutdown error reaches the handler.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body, ok := errorResponse(err)
		if !ok {
			msg := body.(string)
			logger.Error(msg, errors.Wrap(err, msg), requestActor(ctx))
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			body = err.Error()
		}
		if msg, isStr := body.(string); isStr {
			body = echo.Map{"error": msg}
		}
		if ctx.Response().Committed {
			return
		}

		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

// requestActor is the caller as far as the token tells, without a database round trip.
func requestActor(ctx echo.Context) user.User {
	claims, err := contextClaims(ctx)
	if err != nil {
		return user.User{}
	}
	return user.User{ID: claims.Subject, Username: claims.Username, Email: claims.Email}
}

// fieldPath names nested fields like marks[0].student_id; top level fields keep their JSON name.
func fieldPath(fe validator.FieldError) string {
	if _, rest, found := strings.Cut(fe.Namespace(), "."); found {
		return rest
	}
	return fe.Field()
}

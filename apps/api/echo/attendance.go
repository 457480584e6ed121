package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := attendanceApi{svc: opts.AttendanceSvc}

	ag := g.Group("/groups/:id/attendance", jwt, staffMiddleware, groupMiddleware(opts.GroupSvc), trainerGroupMiddleware)
	ag.POST("", api.saveMarks)
	ag.GET("", api.sheet)
}

// Handlers

func (api *attendanceApi) saveMarks(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	claims, err := contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.SaveMarks
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveMarks")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	marks, err := api.svc.SaveMarks(ctx.Request().Context(), g, data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "saving marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *attendanceApi) sheet(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}

	var filter attendance.SheetFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to SheetFilter")
	}
	if err = filter.Validate(); err != nil {
		return err
	}

	sheet, err := api.svc.Sheet(ctx.Request().Context(), g, filter)
	if err != nil {
		return errors.Wrap(err, "building attendance sheet")
	}
	return ctx.JSON(http.StatusOK, sheet)
}

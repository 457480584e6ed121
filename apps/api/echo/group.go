package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

type groupApi struct {
	svc        group.Service
	studentSvc student.Service
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := groupApi{svc: opts.GroupSvc, studentSvc: opts.StudentSvc}

	gg := g.Group("/groups")

	// public: calendar apps subscribe without credentials
	gg.GET("/:id/calendar.ics", api.calendar, groupMiddleware(api.svc))

	ag := gg.Group("", jwt, staffMiddleware)
	ag.GET("", api.query)
	ag.POST("", api.create, managerMiddleware)

	// detail endpoints
	dg := ag.Group("/:id", groupMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, managerMiddleware)
	dg.DELETE("", api.destroy, managerMiddleware)
	dg.GET("/sessions", api.sessions)
	dg.GET("/students", api.students)
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []group.Group{})
	}
	filter.Clean()

	groups, err := api.svc.Query(ctx.Request().Context(), filter, queryOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) update(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}

	var data group.UpdateGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	g, err = api.svc.Update(ctx.Request().Context(), g, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), g.ID); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) sessions(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	count, err := queryInt(ctx, "count")
	if err != nil {
		return err
	}

	_, sessions, err := api.svc.UpcomingSessions(ctx.Request().Context(), g.ID, count)
	if err != nil {
		return errors.Wrap(err, "projecting sessions")
	}
	return ctx.JSON(http.StatusOK, newSessionViews(sessions))
}

func (api *groupApi) calendar(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	count, err := queryInt(ctx, "count")
	if err != nil {
		return err
	}

	cal, err := api.svc.Calendar(ctx.Request().Context(), g.ID, count)
	if err != nil {
		return errors.Wrap(err, "building calendar")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+g.ID+`.ics"`)
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal))
}

func (api *groupApi) students(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	students, err := api.studentSvc.QueryByGroup(ctx.Request().Context(), g.ID)
	if err != nil {
		return errors.Wrap(err, "querying group students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

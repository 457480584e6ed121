package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
)

var errTrialNotFoundInCtx = errors.New("trial request object not found in echo.Context")

type trialApi struct {
	svc trial.Service
}

func registerTrialAPI(g *echo.Group, jwt echo.MiddlewareFunc, limit []echo.MiddlewareFunc, opts *Options) {
	api := trialApi{svc: opts.TrialSvc}

	tg := g.Group("/trials")

	ag := tg.Group("", jwt, managerMiddleware)
	ag.GET("", api.query)
	dg := ag.Group("/:id", trialMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("/status", api.updateStatus)

	// public booking, registered after the authed group so it replaces the group's catch-all route
	tg.POST("", api.create, limit...)
	g.GET("/groups/:id/trial-slots", api.slots, limit...)
}

// Handlers

func (api *trialApi) create(ctx echo.Context) error {
	var data trial.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating trial request")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *trialApi) slots(ctx echo.Context) error {
	if !isUUID(ctx.Param("id")) {
		return errHttpNotFound
	}
	slots, err := api.svc.AvailableSlots(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing trial slots")
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *trialApi) query(ctx echo.Context) error {
	filter := new(trial.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []trial.Request{})
	}
	filter.Clean()

	requests, err := api.svc.Query(ctx.Request().Context(), filter, queryOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying trial requests")
	}
	if requests == nil {
		requests = []trial.Request{}
	}
	return ctx.JSON(http.StatusOK, requests)
}

func (api *trialApi) retrieve(ctx echo.Context) error {
	r, ok := ctx.Get(objectKey).(trial.Request)
	if !ok {
		return errors.Wrap(errTrialNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *trialApi) updateStatus(ctx echo.Context) error {
	r, ok := ctx.Get(objectKey).(trial.Request)
	if !ok {
		return errors.Wrap(errTrialNotFoundInCtx, "retrieving object from context")
	}

	var data trial.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	r, err := api.svc.UpdateStatus(ctx.Request().Context(), r, data)
	if err != nil {
		return errors.Wrap(err, "updating trial status")
	}
	return ctx.JSON(http.StatusOK, r)
}

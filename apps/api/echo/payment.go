package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
)

const periodLayout = "2006-01"

type paymentApi struct {
	svc       payment.Service
	projector *schedule.Projector
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := paymentApi{svc: opts.PaymentSvc, projector: opts.Projector}

	pg := g.Group("/payments", jwt, managerMiddleware)
	pg.POST("", api.create)

	g.GET("/students/:id/payments", api.studentPayments, jwt, managerMiddleware, studentMiddleware(opts.StudentSvc))
	g.GET("/groups/:id/debts", api.debts, jwt, managerMiddleware, groupMiddleware(opts.GroupSvc))
}

// PeriodQuery selects a billing period, the current month when empty.
type PeriodQuery struct {
	Period string `json:"period" query:"period" validate:"omitempty,period"`
}

func (pq *PeriodQuery) Validate() error {
	pq.Period = core.CleanString(pq.Period)
	return core.Validate.Struct(pq)
}

// Handlers

func (api *paymentApi) create(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data payment.NewPayment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentApi) studentPayments(ctx echo.Context) error {
	s, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	var query PeriodQuery
	if err = ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to PeriodQuery")
	}
	if err = query.Validate(); err != nil {
		return err
	}

	payments, err := api.svc.QueryByStudent(ctx.Request().Context(), s.ID, query.Period)
	if err != nil {
		return errors.Wrap(err, "querying student payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) debts(ctx echo.Context) error {
	g, err := contextGroup(ctx)
	if err != nil {
		return err
	}
	var query PeriodQuery
	if err = ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to PeriodQuery")
	}
	if err = query.Validate(); err != nil {
		return err
	}
	if query.Period == "" {
		query.Period = api.projector.Now().Format(periodLayout)
	}

	debts, err := api.svc.Debts(ctx.Request().Context(), g, query.Period)
	if err != nil {
		return errors.Wrap(err, "computing debts")
	}
	return ctx.JSON(http.StatusOK, debts)
}

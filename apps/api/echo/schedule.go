package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
)

const sessionDateLayout = "2006-01-02"

type scheduleApi struct {
	projector *schedule.Projector
	conf      *core.Config
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, projector *schedule.Projector, conf *core.Config) {
	api := scheduleApi{projector: projector, conf: conf}

	sg := g.Group("/schedule", jwt, staffMiddleware)
	sg.POST("/preview", api.preview)
}

type (
	PreviewRequest struct {
		Schedule string `json:"schedule" validate:"required,notblank"`
		Count    int    `json:"count" validate:"gte=0,lte=50"`
	}

	PreviewResponse struct {
		Schedule schedule.WeeklySchedule `json:"schedule"`
		Text     string                  `json:"text"`
		Days     []string                `json:"days"`
		Horizon  int                     `json:"horizon"`
		Sessions []SessionView           `json:"sessions"`
	}

	// SessionView is a projected session as shown to staff and parents.
	SessionView struct {
		Date    string    `json:"date"`
		Time    string    `json:"time"`
		Start   time.Time `json:"start"`
		Display string    `json:"display"`
	}
)

func (pr *PreviewRequest) Validate() error {
	return core.Validate.Struct(pr)
}

func newSessionViews(sessions []schedule.Session) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		start := s.Start()
		views = append(views, SessionView{
			Date:    s.Date.Format(sessionDateLayout),
			Time:    s.Time,
			Start:   start,
			Display: schedule.FormatDateTime(start),
		})
	}
	return views
}

// preview shows how a schedule would be read and when its next sessions fall, before it is saved.
func (api *scheduleApi) preview(ctx echo.Context) error {
	var data PreviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PreviewRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	count := data.Count
	if count == 0 {
		count = api.conf.Schedule.UpcomingCount
	}

	ws := api.projector.Sort(api.projector.Parse(data.Schedule))
	if ws == nil {
		return core.NewFieldError("schedule", "schedule could not be read")
	}

	return ctx.JSON(http.StatusOK, PreviewResponse{
		Schedule: ws,
		Text:     ws.String(),
		Days:     ws.Days(),
		Horizon:  schedule.Horizon(ws),
		Sessions: newSessionViews(api.projector.NextSessions(ws, count)),
	})
}

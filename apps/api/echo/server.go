package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		RateLimit      int // requests per minute per IP on public endpoints, 0 disables limiting

		Conf      *core.Config
		Logger    core.Logger
		Projector *schedule.Projector

		UserSvc       user.Service
		GroupSvc      group.Service
		StudentSvc    student.Service
		TrialSvc      trial.Service
		AttendanceSvc attendance.Service
		PaymentSvc    payment.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Conf == nil {
		opts.Conf = core.Conf
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := jwtMiddleware()

	registerUserAPI(v1, jwt, s.rateLimit(), s.opts.UserSvc)
	registerScheduleAPI(v1, jwt, s.opts.Projector, conf)
	registerGroupAPI(v1, jwt, s.opts)
	registerStudentAPI(v1, jwt, s.opts)
	registerTrialAPI(v1, jwt, s.rateLimit(), s.opts)
	registerAttendanceAPI(v1, jwt, s.opts)
	registerPaymentAPI(v1, jwt, s.opts)
}

// rateLimit returns a fresh per-IP limiter, so each endpoint using it gets its own budget.
func (s *server) rateLimit() []echo.MiddlewareFunc {
	if s.opts.RateLimit <= 0 {
		return nil
	}
	return []echo.MiddlewareFunc{echo.WrapMiddleware(httprate.LimitByIP(s.opts.RateLimit, time.Minute))}
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to SportSchool CRM API!")
}

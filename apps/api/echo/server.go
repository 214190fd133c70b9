package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/attendance"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/notification"
	"github.com/athlos-club/athlos/core/payment"
	"github.com/athlos-club/athlos/core/thread"
	"github.com/athlos-club/athlos/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Conf           *core.Config
		Logger         core.Logger
		// SignalShutdown is called when an unrecoverable error is caught.
		SignalShutdown func()

		UserSvc         *user.Service
		BranchSvc       *branch.Service
		AthleteSvc      *athlete.Service
		AttendanceSvc   *attendance.Service
		PaymentSvc      *payment.Service
		ThreadSvc       *thread.Service
		NotificationSvc *notification.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *auth
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: newAuth(opts.Conf, opts.UserSvc),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()

	registerUserAPI(v1, jwt, s.auth, s.opts.UserSvc, validate)
	registerCoachAPI(v1, jwt, s.opts.UserSvc, s.opts.BranchSvc, validate)
	registerBranchAPI(v1, jwt, s.opts.BranchSvc, s.opts.UserSvc, validate)
	registerAthleteAPI(v1, jwt, s.opts.AthleteSvc, s.opts.UserSvc, validate)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.UserSvc, validate)
	registerPaymentAPI(v1, jwt, s.opts.PaymentSvc, s.opts.UserSvc, validate)
	registerThreadAPI(v1, jwt, s.opts.ThreadSvc, s.opts.UserSvc, validate)
	registerNotificationAPI(v1, jwt, s.opts.NotificationSvc, validate)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Athlos API!")
}

func newTranslator() ut.Translator {
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ := uni.GetTranslator("en")
	return translator
}

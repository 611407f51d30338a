package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
)

type ServerDeps struct {
	Conf           *core.Config
	Logger         core.Logger
	Validate       *validator.Validate
	Translator     ut.Translator
	UserSvc        user.Service
	StudentSvc     student.Service
	FeeSvc         fee.Service
	BatchSvc       batch.Service
	AttendanceSvc  attendance.Service
	DisableReqLogs bool
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	auth     *authenticator
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: newRequestID}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	admin := adminMiddleware()

	registerAuthAPI(s.app.Group("/auth"), jwt, s.auth, s.deps.Validate)
	registerStudentAPI(s.app.Group("/students", jwt), admin, s.deps.StudentSvc, s.deps.Validate)
	registerFeeAPI(s.app.Group("/fees", jwt), admin, s.deps.FeeSvc, s.deps.Validate)
	registerBatchAPI(s.app.Group("/batches", jwt), admin, s.deps.BatchSvc, s.deps.Validate)
	registerAttendanceAPI(s.app.Group("/attendance", jwt), s.deps.AttendanceSvc, s.deps.Validate)
}

// Start blocks serving requests; listener errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, echo.Map{"message": "Welcome to " + s.deps.Conf.AppName + " API!"})
}

// respond writes the success envelope: data fields are merged next to "success": true.
func respond(ctx echo.Context, code int, data echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return ctx.JSON(code, body)
}

package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/assignment"
	"github.com/trezcool/lophoc/core/attendance"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/conversation"
	"github.com/trezcool/lophoc/core/material"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/upload"
	"github.com/trezcool/lophoc/core/user"
	"github.com/trezcool/lophoc/services/realtime"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Cache      core.Cache
		Hub        *realtime.Hub

		UserSvc         *user.Service
		ClassSvc        *class.Service
		AttendanceSvc   *attendance.Service
		AssignmentSvc   *assignment.Service
		AbsenceSvc      *absence.Service
		ConversationSvc *conversation.Service
		NotificationSvc *notification.Service
		MaterialSvc     *material.Service
		UploadSvc       *upload.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Cache, "Cache"),
		vala.IsNotNil(deps.UserSvc, "UserSvc"),
	).CheckAndPanic()

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.Cache, deps.UserSvc),
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
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins:   conf.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}).Handler))
	s.app.Use(metricsMiddleware())

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if conf.Storage.Backend != "minio" && conf.Storage.UploadDir != "" {
		s.app.Static("/uploads", conf.Storage.UploadDir)
	}

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{middleware.JWTWithConfig(s.auth.jwtConfig), s.auth.userMiddleware}

	registerUserAPI(v1, authed, s.deps, s.auth)
	registerClassAPI(v1, authed, s.deps)
	registerAttendanceAPI(v1, authed, s.deps)
	registerAssignmentAPI(v1, authed, s.deps)
	registerAbsenceAPI(v1, authed, s.deps)
	registerMaterialAPI(v1, authed, s.deps)
	registerConversationAPI(v1, authed, s.deps)
	registerNotificationAPI(v1, authed, s.deps)
	registerUploadAPI(v1, authed, s.deps)
	if s.deps.Hub != nil {
		wsAuth := s.auth.jwtConfig
		wsAuth.TokenLookup = "query:token"
		v1.GET("/ws", s.serveWS, middleware.JWTWithConfig(wsAuth), s.auth.userMiddleware)
	}
}

// Start starts listening; a failure is reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
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

func (s *Server) serveWS(ctx echo.Context) error {
	usr := contextUser(ctx)
	return s.deps.Hub.Serve(ctx.Response(), ctx.Request(), usr.ID)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Lophoc API!")
}

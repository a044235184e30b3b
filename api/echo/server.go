package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		PrincipalSvc   *principal.Service
		CatalogSvc     *catalog.Service
		Auth           *principal.Authenticator
		Tokens         *principal.TokenManager
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/api/v1")
	authn := authnMiddleware(s.deps.Tokens, s.deps.PrincipalSvc)

	registerPrincipalAPI(v1, authn, &s.deps)
	registerCatalogAPI(v1, authn, &s.deps)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	addr := fmt.Sprintf("%s:%d", s.deps.Conf.Server.Host, s.deps.Conf.Server.Port)
	go func() {
		s.errors <- s.app.Start(addr)
	}()
}

// Errors receives the fatal server error, if any.
func (s *Server) Errors() <-chan error { return s.errors }

// ShutdownSignal receives OS termination signals.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown requests a graceful stop from within the app.
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
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

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Institute API!")
}

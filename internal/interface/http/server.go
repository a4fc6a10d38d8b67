// Package http implements the REST API for School Hub.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/schoolhub/school-hub/internal/application/authz"
	"github.com/schoolhub/school-hub/internal/application/command"
	"github.com/schoolhub/school-hub/internal/application/query"
	"github.com/schoolhub/school-hub/internal/interface/http/handlers"
	"github.com/schoolhub/school-hub/pkg/logger"
	"github.com/schoolhub/school-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds listener and middleware settings.
type Config struct {
	Host string
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// MaxBodyBytes caps request bodies; 0 disables the limit.
	MaxBodyBytes int64

	// AllowedOrigins enables CORS for the listed origins ("*" for any).
	AllowedOrigins []string

	// RateLimitPerMinute is the per-client request budget; 0 disables it.
	RateLimitPerMinute int

	Version string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        time.Minute,
		MaxHeaderBytes:     1 << 20,
		MaxBodyBytes:       1 << 20,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 100,
		Version:            "v1",
	}
}

// Address is the host:port the server listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Dependencies are the use cases and collaborators served over HTTP.
type Dependencies struct {
	RegisterUser     *command.RegisterUserHandler
	LoginUser        *command.LoginUserHandler
	CreateStudent    *command.CreateStudentHandler
	SubmitResult     *command.SubmitResultHandler
	RunAutoPromotion *command.RunAutoPromotionHandler
	PromoteStudent   *command.PromoteStudentHandler

	ListStudents        *query.ListStudentsHandler
	ListResults         *query.ListResultsHandler
	GetClassLeaderboard *query.GetClassLeaderboardHandler

	Authorizer *authz.Authorizer
	Tokens     handlers.TokenVerifier

	// Clock supplies the default promotion year and the rate limit windows.
	Clock timeutil.Clock

	Logger        *logger.Logger
	HealthChecker handlers.HealthChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server serves the School Hub API.
type Server struct {
	config    Config
	deps      Dependencies
	logger    *logger.Logger
	validator *handlers.Validator
	bearer    *handlers.BearerAuth
	limiter   *rateLimiter

	mux     *http.ServeMux
	handler http.Handler
	srv     *http.Server

	// startedAt is the unix nano start time, 0 while stopped.
	startedAt atomic.Int64
}

// NewServer wires routes and middleware. Call Start or StartAsync to listen.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.SystemClock{}
	}
	if config.Version == "" {
		config.Version = "v1"
	}

	s := &Server{
		config:    config,
		deps:      deps,
		logger:    deps.Logger,
		validator: handlers.NewValidator(),
		mux:       http.NewServeMux(),
	}
	s.bearer = handlers.NewBearerAuth(deps.Tokens, s.writeUnauthorized)
	if config.RateLimitPerMinute > 0 {
		s.limiter = newRateLimiter(deps.Clock, config.RateLimitPerMinute, time.Minute)
	}

	s.routes()
	s.handler = s.middleware(s.mux)
	s.srv = &http.Server{
		Addr:           config.Address(),
		Handler:        s.handler,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() {
	public := map[string]http.HandlerFunc{
		"GET /health": s.handleHealth,
		"GET /ready":  s.handleReady,
		"GET /live":   s.handleLive,

		"POST /api/v1/auth/register": s.handleRegister,
		"POST /api/v1/auth/login":    s.handleLogin,
	}
	for pattern, h := range public {
		s.mux.HandleFunc(pattern, h)
	}

	private := map[string]http.HandlerFunc{
		"GET /api/v1/auth/me": s.handleMe,

		"POST /api/v1/students":                s.handleCreateStudent,
		"GET /api/v1/students":                 s.handleListStudents,
		"POST /api/v1/students/promote/auto":   s.handlePromoteAuto,
		"POST /api/v1/students/promote/manual": s.handlePromoteManual,
		"POST /api/v1/students/promote/{id}":   s.handlePromoteByPath,

		"POST /api/v1/results":                        s.handleSubmitResult,
		"GET /api/v1/results/leaderboard/{studentId}": s.handleLeaderboard,
		"GET /api/v1/results/parent/{studentId}":      s.handleChildResults,
		"GET /api/v1/results/{studentId}":             s.handleStudentResults,
	}
	for pattern, h := range private {
		s.mux.Handle(pattern, s.bearer.Middleware(h))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// ErrServerRunning is returned by Start on a server that is already serving.
var ErrServerRunning = errors.New("http server already running")

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	if !s.startedAt.CompareAndSwap(0, time.Now().UnixNano()) {
		return ErrServerRunning
	}

	s.logger.Info("starting HTTP server", logger.String("address", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.startedAt.Store(0)
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// StartAsync runs Start in a goroutine. The channel yields a listen error,
// if any, and is closed when the server stops.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.Start(); err != nil {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.startedAt.Swap(0) == 0 {
		return nil
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.logger.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}

// Uptime is zero while the server is not serving.
func (s *Server) Uptime() time.Duration {
	started := s.startedAt.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

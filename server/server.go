// Package server exposes the engine, the notification relay and the
// contact directory over HTTP, plus a websocket that pushes payment
// requests to the connected wallet.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/chain"
	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/engine"
	"github.com/derek2403/token2049/relay"
)

// Server routes HTTP requests to the engine.
type Server struct {
	engine       *engine.Engine
	relay        *relay.Relay
	balances     *chain.BalanceReader
	pollInterval time.Duration
	upgrader     websocket.Upgrader
	logger       *zap.Logger

	echo *echo.Echo

	// base outlives individual requests and bounds websocket watchers.
	base context.Context
	stop context.CancelFunc
}

// Option configures the server.
type Option func(*Server)

// WithBalances enables GET /api/balances.
func WithBalances(b *chain.BalanceReader) Option {
	return func(s *Server) {
		s.balances = b
	}
}

// WithPollInterval sets how often websocket watchers poll for requests.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		s.pollInterval = d
	}
}

// WithCheckOrigin replaces the websocket origin check. The default
// accepts every origin, as the chat UI is served from elsewhere.
func WithCheckOrigin(f func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server for eng. Notification routes use the engine's relay.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:       eng,
		relay:        eng.Relay(),
		pollInterval: relay.DefaultPollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")
	s.base, s.stop = context.WithCancel(context.Background())

	s.echo = echo.New()
	s.registerRoutes(s.echo)
	return s
}

func (s *Server) registerRoutes(e *echo.Echo) {
	e.GET("/health", s.health)

	g := e.Group("/api/sessions")
	g.POST("", s.createSession)
	g.GET("/:id", s.getSession)
	g.DELETE("/:id", s.deleteSession)
	g.POST("/:id/chat", s.chat)
	g.POST("/:id/actions/:actionId/confirm", s.confirmAction)
	g.POST("/:id/actions/:actionId/cancel", s.cancelAction)
	g.POST("/:id/requests/:notificationId/pay", s.payRequest)
	g.POST("/:id/requests/:notificationId/dismiss", s.dismissRequest)

	n := e.Group("/api/notifications")
	n.GET("", s.latestNotification)
	n.GET("/pending", s.pendingNotifications)
	n.GET("/:id", s.getNotification)
	n.POST("", s.saveNotifications)
	n.DELETE("", s.deleteNotification)
	n.DELETE("/:id", s.deleteNotification)

	e.GET("/api/contacts", s.searchContacts)
	e.GET("/api/balances", s.getBalances)
	e.GET("/ws/notifications", s.watchNotifications)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// Close stops every websocket watcher. Run calls it on shutdown.
func (s *Server) Close() {
	s.stop()
}

func (s *Server) health(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"notifications": s.relay != nil,
		"balances":      s.balances != nil,
	})
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func fail(c *echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Success: false, Error: msg})
}

// failErr maps err to a status code by its sentinel.
func failErr(c *echo.Context, err error) error {
	return fail(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrNoSigner):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrActionInFlight):
		return http.StatusConflict
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrCompletionFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"canteen-planner/internal/app"
	"canteen-planner/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Pinger checks a backing store for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configure the HTTP surface.
type Options struct {
	Addr        string
	DataPath    string
	CORSOrigins []string
	DB          Pinger
	// Webhook, when set, is mounted at WebhookPath for chat updates.
	Webhook     http.Handler
	WebhookPath string
}

// Server exposes the planner over a JSON API.
type Server struct {
	app      *app.App
	router   *gin.Engine
	opts     Options
	appeared time.Time
}

// New builds the router with logging, metrics and CORS middleware and
// registers every route.
func New(a *app.App, opts Options) *Server {
	metrics.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Logger))
	r.Use(RequestMetrics())
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{app: a, router: r, opts: opts, appeared: time.Now()}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

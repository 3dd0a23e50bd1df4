package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fridgegram/fridgegram/internal/auth"
	"github.com/fridgegram/fridgegram/internal/config"
	"github.com/fridgegram/fridgegram/internal/feed"
	"github.com/fridgegram/fridgegram/internal/identity"
	"github.com/fridgegram/fridgegram/internal/imagestore"
	"github.com/fridgegram/fridgegram/internal/metrics"
	"github.com/fridgegram/fridgegram/internal/profilecache"
	"github.com/fridgegram/fridgegram/internal/repository"
	"github.com/fridgegram/fridgegram/internal/store"
	"github.com/fridgegram/fridgegram/internal/streak"
)

// Deps bundles the collaborators the HTTP layer dispatches into.
type Deps struct {
	Store    *store.Store
	Repo     *repository.Repository
	Identity identity.Client
	Sessions *auth.Sessions
	Images   imagestore.ObjectStore
	Cache    *profilecache.Cache
	Tracker  *streak.Tracker
	Hub      *feed.Hub
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	store    *store.Store
	repo     *repository.Repository
	identity identity.Client
	sessions *auth.Sessions
	images   imagestore.ObjectStore
	cache    *profilecache.Cache
	tracker  *streak.Tracker
	hub      *feed.Hub
	limiter  *RateLimiter
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer
	logger   *log.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	s := &Server{
		cfg:      cfg,
		store:    deps.Store,
		repo:     deps.Repo,
		identity: deps.Identity,
		sessions: deps.Sessions,
		images:   deps.Images,
		cache:    deps.Cache,
		tracker:  deps.Tracker,
		hub:      deps.Hub,
		limiter:  NewRateLimiter(cfg.WriteRatePerMin, cfg.WriteRateBurst),
		metrics:  recorder,
		gatherer: deps.Gatherer,
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(s.gatherer))
	}
	s.router.Post("/auth/login", s.handleLogin)
	s.router.Get("/feed", s.handleFeed)
	s.router.Get("/feed/live", s.handleLiveFeed)
	s.router.Get("/users/{id}", s.handleGetProfile)
	s.router.Route("/fridges", func(r chi.Router) {
		r.With(s.requireAuth, s.limitWrites).Post("/", s.handleCreatePost)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPost)
			r.Get("/comments", s.handleListComments)
			r.With(s.requireAuth, s.limitWrites).Post("/comments", s.handleCreateComment)
			r.With(s.requireAuth, s.limitWrites).Post("/ratings", s.handleSubmitRating)
			r.With(s.requireAuth).Get("/ratings/me", s.handleGetMyRating)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is canceled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

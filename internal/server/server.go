package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-odds-web/internal/config"
	"github.com/fakhrymubarak/weather-odds-web/internal/handler"
	"github.com/fakhrymubarak/weather-odds-web/internal/middleware"
	"github.com/fakhrymubarak/weather-odds-web/internal/repository"
	"github.com/fakhrymubarak/weather-odds-web/internal/service"
	"github.com/fakhrymubarak/weather-odds-web/internal/view"
)

// Options are the collaborators the router is built from. Zero values fall back to
// config-driven defaults.
type Options struct {
	OddsRepo    repository.OddsRepository
	Sessions    repository.SessionRepository
	Renderer    *view.Renderer
	Logger      *zap.SugaredLogger
	ImagesDir   string
	CookieName  string
	SessionTTL  time.Duration
	RateLimiter *middleware.RateLimiter
}

// Server holds the router and the long-lived pieces behind it
type Server struct {
	router      *mux.Router
	rateLimiter *middleware.RateLimiter
}

func New(opts Options) *Server {
	if opts.Sessions == nil {
		opts.Sessions = repository.NewSessionRepository()
	}
	if opts.OddsRepo == nil {
		opts.OddsRepo = repository.NewOddsRepository()
	}
	if opts.Renderer == nil {
		opts.Renderer = view.MustNewRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = config.GetLogger()
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = config.GetImagesDir()
	}
	if opts.CookieName == "" {
		opts.CookieName = config.GetSessionCookieName()
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = config.GetSessionTTL()
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = middleware.NewRateLimiter("location")
	}

	s := &Server{router: mux.NewRouter(), rateLimiter: opts.RateLimiter}
	s.setupRoutes(opts)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(opts Options) {
	queries := service.NewQueryService(opts.OddsRepo, opts.Sessions)
	odds := handler.NewOddsHandler(queries, opts.Renderer)
	results := handler.NewResultsHandler(opts.Sessions, opts.Renderer)
	health := &handler.HealthHandler{Sessions: opts.Sessions}

	s.router.Use(middleware.Session(opts.CookieName, opts.SessionTTL), middleware.RequestLogger(opts.Logger))

	s.router.HandleFunc("/health", health.HandleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/", odds.HandleIndex).Methods(http.MethodGet)
	s.router.Handle("/odds", s.rateLimiter.Middleware(http.HandlerFunc(odds.HandleOdds))).Methods(http.MethodPost)
	s.router.HandleFunc("/export", odds.HandleExport).Methods(http.MethodGet)
	s.router.HandleFunc("/result", results.HandleResults).Methods(http.MethodGet)

	s.router.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(opts.ImagesDir)))).Methods(http.MethodGet)
}

func (s *Server) Router() http.Handler { return s.router }

// StartBackground launches the periodic work tied to the server's lifetime.
func (s *Server) StartBackground(ctx context.Context) {
	s.rateLimiter.StartCleanup(ctx)
}

// HTTPServer wraps the router in an http.Server with configured timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout"),
		ReadTimeout:       config.GetServerTimeout("read_timeout"),
		WriteTimeout:      config.GetServerTimeout("write_timeout"),
		IdleTimeout:       config.GetServerTimeout("idle_timeout"),
	}
}

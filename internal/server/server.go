// Package server exposes the marble game simulations over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/marblesim/marble-game/internal/calculation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	RateLimit      float64 // requests per second per client IP; <= 0 disables limiting
	RateBurst      int
	MaxSimulations int
	MaxDraws       int
	MaxBuckets     int
	Workers        int
	AllowedOrigins []string // WebSocket origins; "*" allows any
}

// DefaultConfig returns the settings used by `marbles serve`.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		RateLimit:      5,
		RateBurst:      10,
		MaxSimulations: 100000,
		MaxDraws:       10000,
		MaxBuckets:     200,
		Workers:        4,
		AllowedOrigins: []string{"*"},
	}
}

// Server serves the simulation API.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	engine   *calculation.CalculationEngine
	metrics  *Metrics
	upgrader websocket.Upgrader

	ipLimiters sync.Map // map[string]*rate.Limiter

	mu  sync.Mutex
	srv *http.Server
}

// New creates a server. A nil logger discards output.
func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxSimulations <= 0 {
		cfg.MaxSimulations = def.MaxSimulations
	}
	if cfg.MaxDraws <= 0 {
		cfg.MaxDraws = def.MaxDraws
	}
	if cfg.MaxBuckets <= 0 {
		cfg.MaxBuckets = def.MaxBuckets
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	engine := calculation.NewCalculationEngine()
	engine.Workers = cfg.Workers
	engine.SetLogger(logger.Named("engine").Sugar())

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		metrics: NewMetrics(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", s.metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/presets", s.handlePresets)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/simulate", s.handleSimulate)
			r.Post("/montecarlo", s.handleMonteCarlo)
			r.Post("/compare", s.handleCompare)
			r.Get("/montecarlo/stream", s.handleMonteCarloStream)
		})
	})
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Info("Starting simulation server", zap.String("addr", s.cfg.Addr))

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	s.logger.Info("Stopping simulation server")
	return s.srv.Shutdown(ctx)
}

// requestLogger logs each request with zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// rateLimit rejects clients that exceed the per-IP token bucket.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit > 0 {
			ip := remoteIP(r)
			if !s.ipLimiter(ip).Allow() {
				s.logger.Warn("IP rate limit exceeded", zap.String("ip", ip))
				s.metrics.rejectedTotal.WithLabelValues("rate_limit").Inc()
				writeError(w, http.StatusTooManyRequests, kindRateLimited, "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ipLimiter returns or creates the limiter for ip.
func (s *Server) ipLimiter(ip string) *rate.Limiter {
	if val, ok := s.ipLimiters.Load(ip); ok {
		return val.(*rate.Limiter)
	}
	burst := s.cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	actual, _ := s.ipLimiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst))
	return actual.(*rate.Limiter)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// checkOrigin validates the WebSocket origin against the allow list.
// Requests without an Origin header (non-browser clients) are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	originStr := parsed.Scheme + "://" + parsed.Host
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == originStr {
			return true
		}
	}
	s.logger.Warn("Rejected WebSocket connection from unauthorized origin", zap.String("origin", origin))
	s.metrics.rejectedTotal.WithLabelValues("invalid_origin").Inc()
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

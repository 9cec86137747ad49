package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/hupe1980/contactbook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Tokens are the accepted bearer tokens. Empty disables authentication.
	Tokens []string
	// RateLimit is the sustained request rate per second across all
	// clients. Values <= 0 disable rate limiting.
	RateLimit float64
	// RateBurst is the largest burst above RateLimit.
	RateBurst int
	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Logger receives request logs. Defaults to contactbook.NoopLogger.
	Logger *contactbook.Logger
	// ReadTimeout bounds reading a request, including its body.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration
}

// Server serves a Book over HTTP.
type Server struct {
	book    *contactbook.Book
	cfg     Config
	logger  *contactbook.Logger
	limiter *rate.Limiter
	tokens  [][]byte
	handler http.Handler
	srv     *http.Server
}

// New creates a Server for book.
func New(book *contactbook.Book, cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = contactbook.NoopLogger()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	s := &Server{
		book:   book,
		cfg:    cfg,
		logger: cfg.Logger.With("component", "http"),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	for _, t := range cfg.Tokens {
		if t != "" {
			s.tokens = append(s.tokens, []byte(t))
		}
	}

	s.handler = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	api := func(h http.HandlerFunc) http.Handler {
		return s.rateLimit(s.authenticate(h))
	}
	mux.Handle("GET /contacts", api(s.listContacts))
	mux.Handle("POST /contacts", api(s.createContact))
	mux.Handle("PUT /contacts", api(s.renameContact))
	mux.Handle("PATCH /contacts/email", api(s.changeEmail))
	mux.Handle("DELETE /contacts", api(s.deleteContact))
	mux.Handle("GET /search", api(s.search))

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	health.AddReadinessCheck("index", s.indexReady())
	mux.Handle("GET /live", health)
	mux.Handle("GET /ready", health)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	return s.logRequests(mux)
}

func (s *Server) indexReady() healthcheck.Check {
	return func() error {
		if !s.book.Ready() {
			return errors.New("contact book is not ready")
		}
		return nil
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe listens on the configured address. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

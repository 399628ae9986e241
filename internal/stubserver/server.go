// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stubserver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/ckyc-assist/internal/gateway"
	"github.com/jeranaias/ckyc-assist/internal/logging"
	"github.com/jeranaias/ckyc-assist/internal/telemetry"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:5000"

	// Version is the stub API version reported by /api/health.
	Version = "1.0.0"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config configures a Server.
type Config struct {
	// Addr is the listen address (default: DefaultAddr).
	Addr string

	// DBPath is the SQLite interaction log; empty keeps it in memory.
	DBPath string

	// AllowedOrigins lists the CORS origins of browser clients.
	AllowedOrigins []string

	// Matcher answers chat messages (default: FAQPath, else the built-in
	// FAQ set).
	Matcher *Matcher

	// FAQPath is an FAQ document to load instead of the built-in set. Serve
	// reloads it when it changes.
	FAQPath string

	// RateLimit is the per-client request rate (default: DefaultRateLimit).
	// A negative value disables limiting.
	RateLimit float64

	// RateBurst is the per-client burst (default: DefaultRateBurst).
	RateBurst int

	// Logger (default: logging.Component("stub")).
	Logger *logrus.Entry

	// Metrics (default: telemetry.Default()).
	Metrics *telemetry.Metrics

	// Rand picks one of n simulated replies (default: math/rand/v2).
	Rand func(n int) int

	// Now is the clock used for stored timestamps and reports.
	Now func() time.Time

	// NewID generates session ids (default: uuid).
	NewID func() string
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the development backend of the support widget.
type Server struct {
	addr     string
	router   *chi.Mux
	server   *http.Server
	store    *Store
	matcher  atomic.Pointer[Matcher]
	faqPath  string
	sessions *sessionStore
	log      *logrus.Entry
	metrics  *telemetry.Metrics
	pick     func(n int) int

	watchCtx  context.Context
	stopWatch context.CancelFunc
}

// New creates a server and opens its store.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Component("stub")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Default()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.IntN
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.Matcher == nil {
		var (
			m   *Matcher
			err error
		)
		if cfg.FAQPath != "" {
			m, err = LoadMatcher(cfg.FAQPath)
		} else {
			m, err = DefaultMatcher()
		}
		if err != nil {
			return nil, err
		}
		cfg.Matcher = m
	}

	store, err := OpenStore(cfg.DBPath, cfg.Now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:     cfg.Addr,
		router:   chi.NewRouter(),
		store:    store,
		faqPath:  cfg.FAQPath,
		sessions: newSessionStore(cfg.NewID),
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		pick:     cfg.Rand,
	}
	s.matcher.Store(cfg.Matcher)
	s.watchCtx, s.stopWatch = context.WithCancel(context.Background())
	s.routes(cfg.AllowedOrigins, rate.Limit(cfg.RateLimit), cfg.RateBurst)
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// routes configures middleware and every endpoint.
func (s *Server) routes(origins []string, limit rate.Limit, burst int) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(
		RecoveryMiddleware(s.log),
		SecurityHeadersMiddleware(),
	)
	if limit > 0 {
		s.router.Use(RateLimitMiddleware(limit, burst, s.log))
	}
	s.router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", gateway.HeaderRequestID, gateway.HeaderClientSession},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		LoggingMiddleware(s.log, s.metrics),
		SessionMiddleware(s.sessions),
	)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/translations", s.handleTranslations)
	s.router.Get("/api/report", s.handleReport)

	s.router.Post("/api/set-language", s.handleSetLanguage)
	s.router.Post("/api/set-user-type", s.handleSetUserType)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/check-status", s.handleCheckStatus)
	s.router.Post("/api/wallet-inquiry", s.handleWalletInquiry)
	s.router.Post("/api/mismatch-check", s.handleMismatchCheck)
	s.router.Post("/api/feedback", s.handleFeedback)
	s.router.Post("/api/end-chat", s.handleEndChat)
	s.router.Post("/api/reset", s.handleReset)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// faqs returns the FAQ matcher in use.
func (s *Server) faqs() *Matcher {
	return s.matcher.Load()
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.log.WithFields(logrus.Fields{
		"addr":    l.Addr().String(),
		"version": Version,
		"faqs":    s.faqs().Len(),
	}).Info("stub backend listening")

	if s.faqPath != "" {
		go func() {
			if err := s.WatchFAQ(s.watchCtx); err != nil {
				s.log.WithError(err).Warn("FAQ file is not watched")
			}
		}()
	}

	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("stub backend shutting down")
	s.stopWatch()
	return errors.Join(s.server.Shutdown(ctx), s.store.Close())
}

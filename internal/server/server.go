// Package server is the browser-facing HTTP and WebSocket front of an
// auction view.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alanyoungcy/auctionview/internal/domain"
	"github.com/alanyoungcy/auctionview/internal/server/handler"
	"github.com/alanyoungcy/auctionview/internal/server/middleware"
	"github.com/alanyoungcy/auctionview/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// BidRateLimit bid submissions per BidRateWindow per client IP. Zero
	// disables limiting.
	BidRateLimit  int
	BidRateWindow time.Duration

	// UpstreamTimeout is the per-call timeout of the auction API client. A
	// bid makes up to three sequential calls, so the write timeout is derived
	// from it. Zero means upstream calls are unbounded and so is the write.
	UpstreamTimeout time.Duration
}

// upstreamCallsPerRequest is the longest chain of auction API calls behind a
// single request (post bid, fetch product, fetch bids).
const upstreamCallsPerRequest = 3

const writeTimeoutHeadroom = 10 * time.Second

// writeTimeout returns the http.Server WriteTimeout for an upstream timeout.
func writeTimeout(upstream time.Duration) time.Duration {
	if upstream <= 0 {
		return 0
	}
	return upstreamCallsPerRequest*upstream + writeTimeoutHeadroom
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health  *handler.HealthHandler
	Auction *handler.AuctionHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with every route registered. limiter and wsHub
// may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      Routes(cfg, handlers, limiter, wsHub, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: writeTimeout(cfg.UpstreamTimeout),
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Routes builds the routed handler wrapped in the middleware chain.
func Routes(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Auction view endpoints.
	limitBids := middleware.RateLimit(limiter, "bid", cfg.BidRateLimit, cfg.BidRateWindow, logger)
	mux.HandleFunc("GET /api/auction", handlers.Auction.GetState)
	mux.HandleFunc("POST /api/auction/refresh", handlers.Auction.Refresh)
	mux.Handle("POST /api/auction/bid", limitBids(http.HandlerFunc(handlers.Auction.PlaceBid)))
	mux.HandleFunc("POST /api/auction/watcher", handlers.Auction.AddWatcher)
	mux.HandleFunc("POST /api/auction/validate", handlers.Auction.Validate)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

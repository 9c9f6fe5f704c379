package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumeforge/venued/internal/core/tx"
	"github.com/lumeforge/venued/internal/events"
	"github.com/lumeforge/venued/internal/storage/tradeindex"
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":6806".
	Addr string

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RequireSignatures rejects submissions without a valid signature.
	// When false the claimed account is trusted, which is only suitable
	// for development.
	RequireSignatures bool
}

// Server serves the JSON-RPC API and the websocket event feed.
type Server struct {
	cfg      Config
	engine   *tx.Engine
	index    tradeindex.Repository
	hub      *events.Hub
	registry *methodRegistry
	http     *http.Server
	started  time.Time
}

// New creates a server over the given engine. index may be nil when no
// trade index is configured; its methods then report an internal error.
func New(cfg Config, engine *tx.Engine, index tradeindex.Repository, hub *events.Hub) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		index:    index,
		hub:      hub,
		registry: newMethodRegistry(),
	}
	s.registerMethods()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	if hub != nil {
		mux.Handle("/events", hub)
	}

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.started = time.Now()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("rpc server listening on %s", s.cfg.Addr)
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

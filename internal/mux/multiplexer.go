package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"tailor-form/internal/config"
	"tailor-form/internal/downloads"
	"tailor-form/internal/grpc/server"
	"tailor-form/internal/logging"
)

// Multiplexer serves gRPC and HTTP on one port. With gRPC disabled it
// serves HTTP alone.
type Multiplexer struct {
	cfg    *config.Config
	store  downloads.Store
	logger logging.Logger

	// Servers
	grpcServer *server.Server
	httpServer *http.Server

	// Multiplexer
	mux      cmux.CMux
	listener net.Listener

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMultiplexer creates a new protocol multiplexer
func NewMultiplexer(cfg *config.Config, store downloads.Store, httpHandler http.Handler, logger logging.Logger) *Multiplexer {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = logging.Nop()
	}

	return &Multiplexer{
		cfg:    cfg,
		store:  store,
		logger: logger.WithField("component", "mux"),
		ctx:    ctx,
		cancel: cancel,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and serves until Stop is called
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	m.listener = listener

	httpListener := listener
	if m.cfg.Server.GRPC {
		m.mux = cmux.New(listener)

		// grpc-go clients wait for the server SETTINGS frame before sending
		// headers, so the matcher has to write it
		grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
		httpListener = m.mux.Match(cmux.Any())

		m.grpcServer = server.NewServer(m.cfg, m.store, m.logger)

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.grpcServer.Start(grpcListener); err != nil && m.ctx.Err() == nil {
				m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
			}
		}()

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.logger.Info("Starting protocol multiplexer", map[string]interface{}{"address": m.GetAddress()})
			if err := m.mux.Serve(); err != nil && m.ctx.Err() == nil {
				m.logger.Error("Multiplexer failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": m.GetAddress()})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && m.ctx.Err() == nil {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("Server started", map[string]interface{}{
		"address": m.GetAddress(),
		"grpc":    m.cfg.Server.GRPC,
	})
	return nil
}

// Stop gracefully shuts down the multiplexer and both servers
func (m *Multiplexer) Stop() error {
	m.logger.Info("Stopping server...")

	m.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	if m.grpcServer != nil {
		m.grpcServer.Stop()
	}

	if m.listener != nil {
		if err := m.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			m.logger.Error("Failed to close listener", map[string]interface{}{"error": err.Error()})
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Server stopped gracefully")
	case <-shutdownCtx.Done():
		m.logger.Warn("Server shutdown timed out")
		return shutdownCtx.Err()
	}

	return nil
}

// IsHealthy reports whether the server is still accepting connections
func (m *Multiplexer) IsHealthy() bool {
	return m.ctx.Err() == nil && m.listener != nil
}

// GetAddress returns the address the multiplexer is listening on
func (m *Multiplexer) GetAddress() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}

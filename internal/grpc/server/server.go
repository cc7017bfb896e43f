package server

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"tailor-form/internal/config"
	"tailor-form/internal/downloads"
	"tailor-form/internal/grpc/interceptors"
	"tailor-form/internal/logging"
)

// ServiceName is the health service entry that tracks submission readiness
const ServiceName = "tailorform.Submission"

// Server exposes gRPC health and reflection next to the HTTP form
type Server struct {
	cfg    *config.Config
	store  downloads.Store
	logger logging.Logger

	grpcServer *grpc.Server
	health     *health.Server

	probeInterval time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewServer(cfg *config.Config, store downloads.Store, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithField("component", "grpc")

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(int(cfg.Server.BodyLimit)),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable reflection for debugging
	reflection.Register(grpcServer)

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		ctx:           ctx,
		cancel:        cancel,
		cfg:           cfg,
		store:         store,
		logger:        logger,
		grpcServer:    grpcServer,
		health:        healthServer,
		probeInterval: 15 * time.Second,
	}
}

// Start probes the download store in the background and serves on lis
// until Stop is called
func (s *Server) Start(lis net.Listener) error {
	s.probe(s.ctx)
	s.wg.Add(1)
	go s.watchHealth(s.ctx)

	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server...")

	s.cancel()
	s.wg.Wait()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

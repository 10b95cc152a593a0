package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/contract"
	platformgrpc "github.com/louisbranch/milestonefund/internal/platform/grpc"
	"github.com/louisbranch/milestonefund/internal/platform/timeouts"
	"github.com/louisbranch/milestonefund/internal/storage"
	transportgrpc "github.com/louisbranch/milestonefund/internal/transport/grpc"
)

// Server hosts the campaign gRPC API and the Prometheus metrics endpoint.
type Server struct {
	listener        net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	metricsListener net.Listener
	metricsServer   *http.Server
	store           storage.KV
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// ServerOption customizes NewServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	store    storage.KV
	verifier *auth.ConsentVerifier
}

// WithStore serves an already opened store instead of opening cfg.Store.
func WithStore(store storage.KV) ServerOption {
	return func(o *serverOptions) {
		o.store = store
	}
}

// WithConsentVerifier verifies consent tokens with verifier.
func WithConsentVerifier(verifier *auth.ConsentVerifier) ServerOption {
	return func(o *serverOptions) {
		o.verifier = verifier
	}
}

// NewServer opens storage, listens on the configured addresses, and registers
// the campaign service.
func NewServer(ctx context.Context, cfg Config, logger *zap.Logger, opts ...ServerOption) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var options serverOptions
	for _, opt := range opts {
		opt(&options)
	}

	store := options.store
	if store == nil {
		opened, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = opened
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc, err := contract.New(store, auth.SignerAuthorizer{},
		contract.WithLogger(logger),
		contract.WithMetrics(contract.NewMetrics(registry)),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	if options.verifier == nil {
		logger.Warn("consent verification is not configured; signed calls will be rejected")
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(transportgrpc.ConsentUnaryInterceptor(options.verifier)),
	)
	transportgrpc.Register(grpcServer, transportgrpc.NewCampaignService(svc))
	healthServer := platformgrpc.NewHealthServer(transportgrpc.ServiceName)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	server := &Server{
		listener:        listener,
		grpcServer:      grpcServer,
		health:          healthServer,
		store:           store,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	if cfg.MetricsAddr != "" {
		metricsListener, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			server.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.MetricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		server.metricsListener = metricsListener
		server.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: timeouts.ReadHeader}
	}
	return server, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the metrics listener address, or "" when disabled.
func (s *Server) MetricsAddr() string {
	if s == nil || s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Serve runs the gRPC and metrics servers until ctx ends or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("campaign server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 2)
	go func() {
		err := s.grpcServer.Serve(s.listener)
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve gRPC: %w", err)
		}
		serveErr <- err
	}()
	if s.metricsServer != nil {
		s.logger.Info("metrics listening", zap.String("addr", s.MetricsAddr()))
		go func() {
			err := s.metricsServer.Serve(s.metricsListener)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			if err != nil {
				err = fmt.Errorf("serve metrics: %w", err)
			}
			serveErr <- err
		}()
	}

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-serveErr:
		s.shutdown()
		return err
	}
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = timeouts.Shutdown
	}
	select {
	case <-stopped:
	case <-time.After(timeout):
		s.logger.Warn("graceful stop timed out; forcing", zap.Duration("timeout", timeout))
		s.grpcServer.Stop()
	}

	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.Warn("shutdown metrics server", zap.Error(err))
		}
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.metricsServer != nil {
		_ = s.metricsServer.Close()
	} else if s.metricsListener != nil {
		_ = s.metricsListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close store", zap.Error(err))
		}
		s.store = nil
	}
}

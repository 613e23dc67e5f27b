package grpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/infrastructure/config"
)

// DaemonServer serves planning requests over a Unix socket so that repeated CLI
// invocations share one catalog, one database connection and one metrics registry
type DaemonServer struct {
	mediator mediator.Mediator
	listener net.Listener
	version  string

	limiter   *rate.Limiter
	slots     chan struct{}
	active    atomic.Int32
	startedAt time.Time

	// Shutdown coordination
	shutdownChan chan os.Signal
	done         chan struct{}
	stopOnce     sync.Once
}

// NewDaemonServer creates a daemon listening on cfg.SocketPath
func NewDaemonServer(med mediator.Mediator, cfg *config.DaemonConfig, version string) (*DaemonServer, error) {
	// Remove existing socket file if present
	if err := os.RemoveAll(cfg.SocketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create unix socket listener: %w", err)
	}

	// Owner only
	if err := os.Chmod(cfg.SocketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	server := NewDaemonServerWithListener(med, listener, cfg, version)
	signal.Notify(server.shutdownChan, os.Interrupt, syscall.SIGTERM)
	return server, nil
}

// NewDaemonServerWithListener creates a daemon on an existing listener (used by tests)
func NewDaemonServerWithListener(med mediator.Mediator, listener net.Listener, cfg *config.DaemonConfig, version string) *DaemonServer {
	maxPlans := cfg.MaxConcurrentPlans
	if maxPlans < 1 {
		maxPlans = 1
	}
	return &DaemonServer{
		mediator:     med,
		listener:     listener,
		version:      version,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit.Requests), cfg.RateLimit.Burst),
		slots:        make(chan struct{}, maxPlans),
		startedAt:    time.Now(),
		shutdownChan: make(chan os.Signal, 1),
		done:         make(chan struct{}),
	}
}

// Start serves gRPC requests until Stop is called or a shutdown signal arrives
func (s *DaemonServer) Start() error {
	fmt.Printf("Daemon server listening on %s\n", s.listener.Addr().String())

	go s.handleShutdown()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(rateLimitInterceptor(s.limiter)),
	)
	RegisterPlannerServiceServer(grpcServer, newPlannerServiceImpl(s))

	errChan := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(s.listener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-s.done:
		fmt.Println("Initiating graceful shutdown of gRPC server...")
		grpcServer.GracefulStop()
		return nil
	}
}

// Stop asks a running server to shut down gracefully
func (s *DaemonServer) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *DaemonServer) handleShutdown() {
	select {
	case <-s.shutdownChan:
		fmt.Println("\nShutdown signal received, stopping daemon...")
		s.Stop()
	case <-s.done:
	}
}

// acquirePlanSlot blocks until a planning slot is free or ctx ends
func (s *DaemonServer) acquirePlanSlot(ctx context.Context) (func(), error) {
	select {
	case s.slots <- struct{}{}:
		s.active.Add(1)
		return func() {
			s.active.Add(-1)
			<-s.slots
		}, nil
	case <-ctx.Done():
		return nil, status.Error(codes.ResourceExhausted, "no planning slot became free before the deadline")
	}
}

// health reports the daemon's current load
func (s *DaemonServer) health() *HealthResponse {
	return &HealthResponse{
		Status:       "SERVING",
		Version:      s.version,
		PID:          os.Getpid(),
		ActivePlans:  int(s.active.Load()),
		MaxPlans:     cap(s.slots),
		UptimeSecond: int64(time.Since(s.startedAt).Seconds()),
	}
}

// rateLimitInterceptor rejects requests beyond the configured token bucket
func rateLimitInterceptor(limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if info.FullMethod != methodHealth && !limiter.Allow() {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}

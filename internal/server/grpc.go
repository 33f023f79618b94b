package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the standard gRPC health service so gRPC-native
// orchestrators can probe the daemon without going through HTTP.
type GRPCServer struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// NewGRPC creates a gRPC server on the given port.
func NewGRPC(port int) *GRPCServer {
	return &GRPCServer{port: port, health: health.NewServer()}
}

// SetServing flips the health service between SERVING and NOT_SERVING.
func (g *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
}

// ListenAndServe starts the gRPC server. It blocks until the context is
// cancelled.
func (g *GRPCServer) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	g.server = grpc.NewServer()
	healthpb.RegisterHealthServer(g.server, g.health)

	// TODO: Register the annotation service here once the proto definition lands.

	slog.Info("grpc server listening", "port", g.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc server shutting down")
		g.server.GracefulStop()
	}()

	return g.server.Serve(lis)
}

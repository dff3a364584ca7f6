package app

import (
	"context"
	"net"
	"testing"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestSessionStatus(t *testing.T) {
	tests := []struct {
		screen view.Screen
		want   grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{view.ScreenArena, grpc_health_v1.HealthCheckResponse_SERVING},
		{view.ScreenCharacterSelection, grpc_health_v1.HealthCheckResponse_SERVING},
		{view.ScreenConnectPrompt, grpc_health_v1.HealthCheckResponse_SERVING},
		{view.ScreenNetworkMismatch, grpc_health_v1.HealthCheckResponse_NOT_SERVING},
		{view.ScreenLoading, grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN},
	}
	for _, tt := range tests {
		if got := sessionStatus(tt.screen); got != tt.want {
			t.Fatalf("status(%s) = %v, want %v", tt.screen, got, tt.want)
		}
	}
}

func TestHealthTracksScreens(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	h := startHealth(listener)
	t.Cleanup(h.stop)

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health server: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close gRPC connection: %v", closeErr)
		}
	})
	client := grpc_health_v1.NewHealthClient(conn)

	check := func(want grpc_health_v1.HealthCheckResponse_ServingStatus) {
		t.Helper()
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: SessionService})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if resp.GetStatus() != want {
			t.Fatalf("status = %v, want %v", resp.GetStatus(), want)
		}
	}

	check(grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN)
	h.track(view.View{Screen: view.ScreenArena})
	check(grpc_health_v1.HealthCheckResponse_SERVING)
	h.track(view.View{Screen: view.ScreenNetworkMismatch})
	check(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

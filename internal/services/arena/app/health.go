package app

import (
	"net"
	"sync"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// SessionService is the health service name that follows the engine's
// screen.
const SessionService = "arena.session"

// sessionStatus maps a screen to the health of the session. Only a wrong
// network blocks the player; loading is unknown.
func sessionStatus(screen view.Screen) grpc_health_v1.HealthCheckResponse_ServingStatus {
	switch screen {
	case view.ScreenArena, view.ScreenCharacterSelection, view.ScreenConnectPrompt:
		return grpc_health_v1.HealthCheckResponse_SERVING
	case view.ScreenNetworkMismatch:
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	default:
		return grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN
	}
}

type healthEndpoint struct {
	server   *grpc.Server
	health   *health.Server
	serveErr chan error

	mu     sync.Mutex
	status grpc_health_v1.HealthCheckResponse_ServingStatus
}

func startHealth(listener net.Listener) *healthEndpoint {
	h := &healthEndpoint{
		server:   grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler())),
		health:   health.NewServer(),
		serveErr: make(chan error, 1),
		status:   grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN,
	}
	grpc_health_v1.RegisterHealthServer(h.server, h.health)
	h.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	h.health.SetServingStatus(SessionService, h.status)
	go func() {
		h.serveErr <- h.server.Serve(listener)
	}()
	return h
}

// track updates the session status from a view.
func (h *healthEndpoint) track(v view.View) {
	status := sessionStatus(v.Screen)
	h.mu.Lock()
	defer h.mu.Unlock()
	if status == h.status {
		return
	}
	h.status = status
	h.health.SetServingStatus(SessionService, status)
}

func (h *healthEndpoint) stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
	<-h.serveErr
}

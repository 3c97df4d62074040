package scamshield

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"scamshield/pkg/logger"
)

// Probe checks one backing dependency
type Probe func(ctx context.Context) error

// RegisterHealthServer registers the gRPC health service and keeps it in
// step with the probes until ctx is done.
func RegisterHealthServer(ctx context.Context, grpcServer *grpc.Server, probes map[string]Probe, interval time.Duration, log *logger.Logger) *health.Server {
	log = log.WithComponent("grpc-health")
	healthServer := health.NewServer()
	setStatus(healthServer, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	if len(probes) == 0 {
		return healthServer
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			healthy := true
			for name, probe := range probes {
				probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				err := probe(probeCtx)
				cancel()
				if err != nil {
					log.Warn().Err(err).Str("dependency", name).Msg("health probe failed")
					healthy = false
				}
			}

			if healthy {
				setStatus(healthServer, grpc_health_v1.HealthCheckResponse_SERVING)
			} else {
				setStatus(healthServer, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			}

			select {
			case <-ctx.Done():
				healthServer.Shutdown()
				return
			case <-ticker.C:
			}
		}
	}()

	return healthServer
}

func setStatus(s *health.Server, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.SetServingStatus("", status)
	s.SetServingStatus(ServiceName, status)
}

package health

import (
	"context"
	"errors"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestMonitorProbe(t *testing.T) {
	mongoUp := false
	m := NewMonitor(time.Second, map[string]Check{
		"mongo": func(context.Context) error {
			if !mongoUp {
				return errors.New("not ready")
			}
			return nil
		},
		"redis": func(context.Context) error { return nil },
	})

	ctx := context.Background()
	m.Probe(ctx)
	ok, res := m.Snapshot()
	if ok || res["mongo"] != "not ready" || res["redis"] != "ok" {
		t.Fatalf("ok=%v res=%v", ok, res)
	}
	resp, err := m.hs.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil || resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("grpc status = %v, %v", resp, err)
	}

	mongoUp = true
	m.Probe(ctx)
	if !m.Healthy() {
		t.Fatal("expected healthy after mongo came up")
	}
	resp, err = m.hs.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil || resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("grpc status = %v, %v", resp, err)
	}
}

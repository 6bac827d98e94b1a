package health

import (
	"context"
	"net"
	"sync"
	"time"

	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported next to "".
const ServiceName = "healthseva.Requests"

// Check reports one dependency; nil means healthy.
type Check func(ctx context.Context) error

// Monitor runs named checks periodically and mirrors the aggregate into a
// gRPC health server. The last result is also served over HTTP.
type Monitor struct {
	hs     *health.Server
	checks map[string]Check
	every  time.Duration

	mu   sync.RWMutex
	last map[string]string // name -> "ok" or error text
	ok   bool
}

func NewMonitor(every time.Duration, checks map[string]Check) *Monitor {
	if every <= 0 {
		every = 5 * time.Second
	}
	m := &Monitor{
		hs:     health.NewServer(),
		checks: checks,
		every:  every,
		last:   map[string]string{},
	}
	m.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

func (m *Monitor) setStatus(s healthpb.HealthCheckResponse_ServingStatus) {
	m.hs.SetServingStatus("", s)
	m.hs.SetServingStatus(ServiceName, s)
}

// Run probes until ctx is done; the first probe happens immediately.
func (m *Monitor) Run(ctx context.Context) {
	m.Probe(ctx)
	t := time.NewTicker(m.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.hs.Shutdown()
			return
		case <-t.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) Probe(ctx context.Context) {
	res := make(map[string]string, len(m.checks))
	ok := true
	for name, c := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c(cctx)
		cancel()
		if err != nil {
			ok = false
			res[name] = err.Error()
			continue
		}
		res[name] = "ok"
	}

	m.mu.Lock()
	changed := m.ok != ok
	m.ok, m.last = ok, res
	m.mu.Unlock()

	if ok {
		m.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		m.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	if changed {
		logger.Info("[Health] status changed", zap.Bool("serving", ok), zap.Any("checks", res))
	}
}

// Snapshot returns the aggregate and per-check results of the last probe.
func (m *Monitor) Snapshot() (bool, map[string]string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.last))
	for k, v := range m.last {
		out[k] = v
	}
	return m.ok, out
}

func (m *Monitor) Healthy() bool {
	ok, _ := m.Snapshot()
	return ok
}

// Register attaches the health service to gs.
func (m *Monitor) Register(gs *grpc.Server) {
	healthpb.RegisterHealthServer(gs, m.hs)
}

// ServeGRPC listens on addr and serves gs until ctx is done.
func ServeGRPC(ctx context.Context, addr string, gs *grpc.Server) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.WrapMsg(err, "grpc listen", "addr", addr)
	}
	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()
	logger.Info("[gRPC] listening", zap.String("addr", addr))
	if err := gs.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return errs.Wrap(err)
	}
	return nil
}

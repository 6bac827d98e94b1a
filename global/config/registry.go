package config

import (
	"context"
	"strconv"
	"time"

	"HealthSeva/logger"
	"HealthSeva/service/nacos"
	"HealthSeva/service/registry"

	"go.uber.org/zap"
)

// NewServiceManager returns nil when no registry is configured.
func NewServiceManager(cfg *AppConfig, healthy func() bool) (*registry.ServiceManager, error) {
	var (
		reg registry.Registry
		err error
	)
	switch cfg.Registry {
	case RegistryConsul:
		reg, err = registry.NewConsul(cfg.Consul.Addr)
	case RegistryNacos:
		reg, err = nacos.NewRegistry(NacosClientConfig(cfg))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	self := registry.Instance{
		Service:  cfg.ServiceName,
		ID:       cfg.InstanceID,
		Address:  cfg.Advertise,
		Port:     cfg.HTTPPort,
		Metadata: map[string]string{"grpc_port": strconv.Itoa(cfg.GRPCPort)},
	}
	return registry.New(reg, self, registry.RegisterOptions{
		TTL:       cfg.Consul.TTL,
		HealthURL: registry.HealthURL(cfg.Advertise, cfg.HTTPPort),
	}, healthy), nil
}

// RunService registers in the background and retries registration failures
// until ctx is done.
func RunService(ctx context.Context, m *registry.ServiceManager) {
	if m == nil {
		return
	}
	go func() {
		for {
			err := m.BootBlocking(ctx)
			if ctx.Err() != nil {
				return
			}
			logger.Error("[Registry] boot failed, retrying", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()
}

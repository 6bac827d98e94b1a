package registry

import (
	"context"
	"fmt"
	"time"

	"HealthSeva/tools/errs"

	"github.com/hashicorp/consul/api"
)

type ConsulRegistry struct {
	cli *api.Client
}

func NewConsul(addr string) (*ConsulRegistry, error) {
	cfg := api.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := api.NewClient(cfg)
	if err != nil {
		return nil, errs.ErrArgs.WrapMsg("consul client", "addr", addr, "err", err)
	}
	return &ConsulRegistry{cli: cli}, nil
}

// Register uses an active TTL check; the manager reports within half the window.
func (r *ConsulRegistry) Register(ctx context.Context, inst Instance, opt RegisterOptions) error {
	ttl := opt.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	meta := map[string]string{}
	for k, v := range inst.Metadata {
		meta[k] = v
	}
	if opt.HealthURL != "" {
		meta["health"] = opt.HealthURL
	}
	reg := &api.AgentServiceRegistration{
		Name:    inst.Service,
		ID:      inst.ID,
		Address: inst.Address,
		Port:    inst.Port,
		Meta:    meta,
		Check: &api.AgentServiceCheck{
			TTL:                            ttl.String(),
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := r.cli.Agent().ServiceRegisterOpts(reg, api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return errs.ErrTransport.WrapMsg("consul register", "service", inst.Service, "err", err)
	}
	return nil
}

func (r *ConsulRegistry) Deregister(ctx context.Context, _ string, id string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := r.cli.Agent().ServiceDeregisterOpts(id, q); err != nil {
		return errs.ErrTransport.WrapMsg("consul deregister", "id", id, "err", err)
	}
	return nil
}

func (r *ConsulRegistry) List(ctx context.Context, service string) ([]Instance, error) {
	q := (&api.QueryOptions{RequireConsistent: true}).WithContext(ctx)
	entries, _, err := r.cli.Health().Service(service, "", true, q)
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("consul list", "service", service, "err", err)
	}
	out := make([]Instance, 0, len(entries))
	for _, e := range entries {
		out = append(out, Instance{
			Service:  service,
			ID:       e.Service.ID,
			Address:  e.Service.Address,
			Port:     e.Service.Port,
			Metadata: e.Service.Meta,
		})
	}
	return out, nil
}

// UpdateTTL status is "passing", "warning" or "critical".
func (r *ConsulRegistry) UpdateTTL(checkID, output, status string) error {
	return r.cli.Agent().UpdateTTL(checkID, output, status)
}

func (r *ConsulRegistry) Close() error { return nil }

func HealthURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d/health", host, port)
}

package nacos

import (
	"context"
	"strconv"

	"HealthSeva/service/registry"
	"HealthSeva/tools/errs"

	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// Registry adapts the nacos naming client to registry.Registry. Instances are
// ephemeral, so the SDK's own beat replaces TTL reporting.
type Registry struct {
	client naming_client.INamingClient
	group  string
}

var _ registry.Registry = (*Registry)(nil)

func NewRegistry(c Config) (*Registry, error) {
	cli, err := InitNacosNamingClient(c)
	if err != nil {
		return nil, err
	}
	return &Registry{client: cli, group: c.group()}, nil
}

func (r *Registry) Register(_ context.Context, inst registry.Instance, opt registry.RegisterOptions) error {
	meta := map[string]string{"id": inst.ID}
	for k, v := range inst.Metadata {
		meta[k] = v
	}
	if opt.HealthURL != "" {
		meta["health"] = opt.HealthURL
	}
	ok, err := r.client.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          inst.Address,
		Port:        uint64(inst.Port),
		ServiceName: inst.Service,
		GroupName:   r.group,
		ClusterName: "DEFAULT",
		Weight:      1,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata:    meta,
	})
	if err != nil {
		return errs.ErrTransport.WrapMsg("nacos register", "service", inst.Service, "err", err)
	}
	if !ok {
		return errs.ErrTransport.WrapMsg("nacos register returned false", "service", inst.Service)
	}
	return nil
}

// Deregister needs ip and port, which nacos keys instances by; they are
// recovered from the current listing.
func (r *Registry) Deregister(ctx context.Context, service, id string) error {
	insts, err := r.List(ctx, service)
	if err != nil {
		return err
	}
	for _, in := range insts {
		if in.ID != id {
			continue
		}
		_, err := r.client.DeregisterInstance(vo.DeregisterInstanceParam{
			Ip:          in.Address,
			Port:        uint64(in.Port),
			ServiceName: service,
			GroupName:   r.group,
			Cluster:     "DEFAULT",
			Ephemeral:   true,
		})
		if err != nil {
			return errs.ErrTransport.WrapMsg("nacos deregister", "id", id, "err", err)
		}
	}
	return nil
}

func (r *Registry) List(_ context.Context, service string) ([]registry.Instance, error) {
	insts, err := r.client.SelectInstances(vo.SelectInstancesParam{
		ServiceName: service,
		GroupName:   r.group,
		HealthyOnly: true,
	})
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("nacos list", "service", service, "err", err)
	}
	out := make([]registry.Instance, 0, len(insts))
	for _, in := range insts {
		id := in.Metadata["id"]
		if id == "" {
			id = in.Ip + ":" + strconv.FormatUint(in.Port, 10)
		}
		out = append(out, registry.Instance{
			Service:   service,
			ID:        id,
			Address:   in.Ip,
			Port:      int(in.Port),
			Metadata:  in.Metadata,
			Ephemeral: in.Ephemeral,
		})
	}
	return out, nil
}

func (r *Registry) UpdateTTL(string, string, string) error { return nil }

func (r *Registry) Close() error {
	r.client.CloseClient()
	return nil
}

package registry

import (
	"context"
	"time"
)

type Instance struct {
	Service   string
	ID        string
	Address   string
	Port      int
	Metadata  map[string]string
	Ephemeral bool
}

type RegisterOptions struct {
	TTL       time.Duration // heartbeat window; 0 selects the backend default
	HealthURL string        // informational, reported in metadata
}

// Registry is implemented by the consul backend here and the nacos backend in
// service/nacos.
type Registry interface {
	Register(ctx context.Context, inst Instance, opt RegisterOptions) error
	Deregister(ctx context.Context, service, id string) error
	List(ctx context.Context, service string) ([]Instance, error)
	UpdateTTL(checkID string, note string, status string) error
	Close() error
}

// CheckID is the TTL check id consul assigns to a service registered with an
// embedded check.
func CheckID(serviceID string) string { return "service:" + serviceID }

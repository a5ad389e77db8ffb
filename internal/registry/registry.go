// Package registry registers this process with Consul for fleet
// discovery, rebuilt from the teacher's internal/registry/consul.go
// (trimmed of its health-check-aggregation extras; this system relies on
// Consul's own TTL/HTTP check).
package registry

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
)

// Registrar registers and deregisters a service instance with Consul.
type Registrar struct {
	client    *consulapi.Client
	serviceID string
}

// NewRegistrar connects to Consul at addr ("" disables registration —
// Register becomes a no-op).
func NewRegistrar(addr string) (*Registrar, error) {
	if addr == "" {
		return &Registrar{}, nil
	}
	cfg := consulapi.DefaultConfig()
	cfg.Address = addr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("registry: create consul client: %w", err)
	}
	return &Registrar{client: client}, nil
}

// Register advertises this process as "vyryd" with an HTTP health check.
func (r *Registrar) Register(host string, port int, healthCheckPath string) error {
	if r.client == nil {
		return nil
	}
	r.serviceID = fmt.Sprintf("vyryd-%s-%d", host, port)
	return r.client.Agent().ServiceRegister(&consulapi.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    "vyryd",
		Address: host,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", host, port, healthCheckPath),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	})
}

// Deregister removes this process from Consul on shutdown.
func (r *Registrar) Deregister() error {
	if r.client == nil || r.serviceID == "" {
		return nil
	}
	return r.client.Agent().ServiceDeregister(r.serviceID)
}

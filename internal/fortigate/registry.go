package fortigate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/martinsuchenak/fortimcp/internal/log"
)

// Registry maps device identifiers to their live clients. Clients are
// constructed at most once per id and cached for the process lifetime, so
// repeated lookups share one session and one rate-limit state. The map is
// read-mostly after startup; writes happen only on add and remove.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Client)}
}

// NewRegistryFromConfig eagerly builds clients for every configured device.
// A single invalid record fails the whole startup; the registry never holds
// partial or invalid clients.
func NewRegistryFromConfig(devices map[string]DeviceConfig) (*Registry, error) {
	r := NewRegistry()
	for deviceID, cfg := range devices {
		if err := r.Add(deviceID, cfg); err != nil {
			return nil, fmt.Errorf("device %q: %w", deviceID, err)
		}
	}
	return r, nil
}

// Add validates the record and caches a new client for the id. Duplicate
// ids and invalid records fail with config-kind errors and leave the
// registry unchanged.
func (r *Registry) Add(deviceID string, cfg DeviceConfig) error {
	if deviceID == "" {
		return newAPIError(KindConfig, 0, "device id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[deviceID]; exists {
		return newAPIError(KindConfig, 0, fmt.Sprintf("device %q already exists", deviceID))
	}

	client, err := NewClient(deviceID, cfg)
	if err != nil {
		return err
	}

	r.devices[deviceID] = client
	log.Info("Device registered", "device_id", deviceID, "host", cfg.Host, "auth", client.AuthMethod())
	return nil
}

// Get returns the cached client for the id. The same instance is returned
// for every lookup of a given id.
func (r *Registry) Get(deviceID string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.devices[deviceID]
	if !ok {
		return nil, newAPIError(KindNotFound, 0, fmt.Sprintf(
			"device %q not found; available devices: %v", deviceID, r.idsLocked()))
	}
	return client, nil
}

// List returns the registered device ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove tears down the device's session and discards its rate-limit
// state. A subsequent Get for the id fails with a not-found error.
func (r *Registry) Remove(deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.devices[deviceID]
	if !ok {
		return newAPIError(KindNotFound, 0, fmt.Sprintf("device %q not found", deviceID))
	}

	client.Close()
	delete(r.devices, deviceID)
	log.Info("Device removed", "device_id", deviceID)
	return nil
}

// TestConnection probes one device and reports reachability. Connectivity
// failures are part of the answer, not errors; only an unknown id fails.
func (r *Registry) TestConnection(ctx context.Context, deviceID string) (bool, error) {
	client, err := r.Get(deviceID)
	if err != nil {
		return false, err
	}
	return client.TestConnection(ctx), nil
}

// TestAllConnections probes every registered device and returns the
// reachability result per id.
func (r *Registry) TestAllConnections(ctx context.Context) map[string]bool {
	results := make(map[string]bool)
	for _, deviceID := range r.List() {
		ok, err := r.TestConnection(ctx, deviceID)
		results[deviceID] = ok && err == nil
	}
	return results
}

package daemon

import (
	"context"
	"sync"
	"time"
)

// ComponentStatus represents the health state of a component.
type ComponentStatus string

const (
	ComponentStatusRunning ComponentStatus = "running"
	ComponentStatusFailed  ComponentStatus = "failed"
	ComponentStatusStopped ComponentStatus = "stopped"
)

// IsHealthy returns true if the component status indicates healthy operation.
func (s ComponentStatus) IsHealthy() bool {
	return s == ComponentStatusRunning
}

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Status ComponentStatus `json:"status"`

	// Error is set when Status is failed.
	Error string `json:"error,omitempty"`

	LastChecked time.Time      `json:"last_checked"`
	Details     map[string]any `json:"details,omitempty"`
}

// HealthStatus is the response body of /readyz.
type HealthStatus struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`

	// Ready is false only while the daemon is starting or stopping.
	Ready bool `json:"ready"`

	Uptime     time.Duration              `json:"uptime"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// HealthCheck probes one component. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthManager aggregates health status from multiple components.
// It is safe for concurrent use.
type HealthManager struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	checks     map[string]HealthCheck
	ready      bool
	version    string
	startTime  time.Time
}

// NewHealthManager creates a new HealthManager instance.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		components: make(map[string]ComponentHealth),
		checks:     make(map[string]HealthCheck),
		version:    version,
		startTime:  time.Now(),
	}
}

// UpdateComponent records the health of a named component.
func (m *HealthManager) UpdateComponent(name string, health ComponentHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = health
}

// RegisterCheck adds a probe run by Check.
func (m *HealthManager) RegisterCheck(name string, check HealthCheck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
}

// SetReady marks the daemon ready or not ready to serve.
func (m *HealthManager) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = ready
}

// Check runs every registered probe and records the outcome.
func (m *HealthManager) Check(ctx context.Context) {
	m.mu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	m.mu.RUnlock()

	for _, name := range names {
		_ = m.check(ctx, name)
	}
}

func (m *HealthManager) check(ctx context.Context, name string) error {
	m.mu.RLock()
	probe, ok := m.checks[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	err := probe(ctx)
	health := ComponentHealth{Status: ComponentStatusRunning, LastChecked: time.Now()}
	if err != nil {
		health.Status = ComponentStatusFailed
		health.Error = err.Error()
	}
	m.UpdateComponent(name, health)
	return err
}

// checkProvider runs one probe on the metrics collection interval.
type checkProvider struct {
	health *HealthManager
	name   string
}

func (p checkProvider) CollectMetrics(ctx context.Context) error {
	return p.health.check(ctx, p.name)
}

// Status returns the aggregate health status of all components.
func (m *HealthManager) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := HealthStatus{
		Status:     "healthy",
		Ready:      m.ready,
		Uptime:     time.Since(m.startTime),
		Version:    m.version,
		Components: make(map[string]ComponentHealth, len(m.components)),
	}

	for name, health := range m.components {
		status.Components[name] = health
		if !health.Status.IsHealthy() {
			status.Status = "degraded"
		}
	}

	return status
}

package config

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/leefowlercu/chunkalyze/internal/events"
)

var (
	eventBusMu sync.RWMutex
	eventBus   events.Bus
)

// SetEventBus sets the bus that receives config reload events.
func SetEventBus(bus events.Bus) {
	eventBusMu.Lock()
	defer eventBusMu.Unlock()
	eventBus = bus
}

// ReloadableSections lists the config sections applied without a restart.
var ReloadableSections = []string{"log_level"}

// detectChangedSections compares old and new configs and returns the
// top-level sections that differ.
func detectChangedSections(old, new *Config) []string {
	var changed []string

	if old.LogLevel != new.LogLevel {
		changed = append(changed, "log_level")
	}
	if old.LogFile != new.LogFile {
		changed = append(changed, "log_file")
	}

	sections := []struct {
		name     string
		old, new any
	}{
		{"log_rotation", old.LogRotation, new.LogRotation},
		{"server", old.Server, new.Server},
		{"chunking", old.Chunking, new.Chunking},
		{"backend", old.Backend, new.Backend},
		{"cache", old.Cache, new.Cache},
		{"store", old.Store, new.Store},
		{"metrics", old.Metrics, new.Metrics},
		{"mcp", old.MCP, new.MCP},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.new) {
			changed = append(changed, s.name)
		}
	}

	return changed
}

// isReloadable reports whether every changed section is hot-reloadable.
func isReloadable(changedSections []string) bool {
	reloadable := make(map[string]bool, len(ReloadableSections))
	for _, s := range ReloadableSections {
		reloadable[s] = true
	}

	for _, section := range changedSections {
		if !reloadable[section] {
			return false
		}
	}
	return true
}

func currentBus() events.Bus {
	eventBusMu.RLock()
	defer eventBusMu.RUnlock()
	return eventBus
}

// publishConfigReloaded publishes a config.reloaded event.
func publishConfigReloaded(old, new *Config) {
	changed := detectChangedSections(old, new)
	if !isReloadable(changed) {
		slog.Warn("config reload includes sections that require a restart",
			"changed_sections", changed)
	}

	bus := currentBus()
	if bus == nil {
		return
	}

	if err := bus.Publish(context.Background(), events.NewConfigReloaded(changed)); err != nil {
		slog.Error("failed to publish config reload event", "error", err)
	}
}

// publishConfigReloadFailed publishes a config.reload_failed event.
func publishConfigReloadFailed(err error) {
	bus := currentBus()
	if bus == nil {
		return
	}

	if pubErr := bus.Publish(context.Background(), events.NewConfigReloadFailed(err)); pubErr != nil {
		slog.Error("failed to publish config reload failed event", "error", pubErr)
	}
}

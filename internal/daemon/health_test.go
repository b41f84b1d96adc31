package daemon

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestComponentStatus_IsHealthy(t *testing.T) {
	tests := []struct {
		status ComponentStatus
		want   bool
	}{
		{ComponentStatusRunning, true},
		{ComponentStatusFailed, false},
		{ComponentStatusStopped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsHealthy(); got != tt.want {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthManager_StatusAggregation(t *testing.T) {
	hm := NewHealthManager("1.2.3")
	hm.SetReady(true)

	status := hm.Status()
	if status.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", status.Status)
	}
	if status.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", status.Version)
	}

	hm.UpdateComponent("store", ComponentHealth{
		Status:      ComponentStatusFailed,
		Error:       "connection refused",
		LastChecked: time.Now(),
	})

	status = hm.Status()
	if status.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", status.Status)
	}
	if !status.Ready {
		t.Error("Ready = false, want true")
	}
	if got := status.Components["store"].Error; got != "connection refused" {
		t.Errorf("store error = %q", got)
	}
}

func TestHealthManager_Check(t *testing.T) {
	hm := NewHealthManager("")
	fail := true
	hm.RegisterCheck("store", func(ctx context.Context) error {
		if fail {
			return errors.New("unreachable")
		}
		return nil
	})

	hm.Check(context.Background())
	if got := hm.Status().Components["store"].Status; got != ComponentStatusFailed {
		t.Fatalf("store status = %q, want failed", got)
	}

	fail = false
	if err := (checkProvider{health: hm, name: "store"}).CollectMetrics(context.Background()); err != nil {
		t.Fatalf("CollectMetrics() error = %v", err)
	}
	if got := hm.Status().Components["store"].Status; got != ComponentStatusRunning {
		t.Errorf("store status = %q, want running", got)
	}
}

func TestDaemonState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to DaemonState
		want     bool
	}{
		{DaemonStateStopped, DaemonStateStarting, true},
		{DaemonStateStarting, DaemonStateRunning, true},
		{DaemonStateRunning, DaemonStateStopping, true},
		{DaemonStateStopping, DaemonStateStopped, true},
		{DaemonStateRunning, DaemonStateStarting, false},
		{DaemonStateStopped, DaemonStateRunning, false},
		{DaemonStateStopping, DaemonStateRunning, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

package orchestration

import (
	"time"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// RuntimeStatus is the lifecycle state of a background instance.
type RuntimeStatus string

const (
	StatusPending    RuntimeStatus = "Pending"
	StatusRunning    RuntimeStatus = "Running"
	StatusCompleted  RuntimeStatus = "Completed"
	StatusFailed     RuntimeStatus = "Failed"
	StatusTerminated RuntimeStatus = "Terminated"
)

// Terminal reports whether no further transitions can happen.
func (s RuntimeStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTerminated
}

// Statuses returns every runtime status.
func Statuses() []RuntimeStatus {
	return []RuntimeStatus{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusTerminated}
}

// Instance is the recorded state of one background analysis.
type Instance struct {
	ID            string           `json:"instanceId"`
	Method        providers.Method `json:"method"`
	RuntimeStatus RuntimeStatus    `json:"runtimeStatus"`

	// Phase is the latest progress step; informational only.
	Phase Phase `json:"customStatus,omitempty"`

	ChunkCount int              `json:"chunkCount"`
	Output     []string         `json:"output,omitempty"`
	Result     *analysis.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`

	CreatedAt     time.Time `json:"createdTime"`
	LastUpdatedAt time.Time `json:"lastUpdatedTime"`
}

func (i *Instance) clone() *Instance {
	c := *i
	if i.Output != nil {
		c.Output = append([]string(nil), i.Output...)
	}
	return &c
}

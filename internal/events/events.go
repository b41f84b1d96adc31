// Package events provides an in-process pub/sub bus that carries analysis
// lifecycle notifications between the runner, logging and metrics.
package events

import (
	"time"
)

// EventType identifies the type of event being published.
type EventType string

const (
	// InstanceStarted is published when a background instance is created.
	InstanceStarted EventType = "instance.started"

	// InstanceTerminated is published when a running instance is cancelled.
	InstanceTerminated EventType = "instance.terminated"

	// PhaseChanged is published at each analysis progress step.
	PhaseChanged EventType = "analysis.phase"

	// AnalysisComplete is published when an analysis produces a result.
	AnalysisComplete EventType = "analysis.complete"

	// AnalysisFailed is published when an analysis aborts with an error.
	AnalysisFailed EventType = "analysis.failed"

	// ConfigReloaded is published when configuration is successfully reloaded.
	ConfigReloaded EventType = "config.reloaded"

	// ConfigReloadFailed is published when configuration reload fails.
	ConfigReloadFailed EventType = "config.reload_failed"
)

// Event represents a published event.
type Event struct {
	// Type identifies the event type.
	Type EventType

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Payload contains event-specific data.
	Payload any
}

// NewEvent creates a new event with the given type and payload.
func NewEvent(eventType EventType, payload any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// EventHandler processes one event.
type EventHandler func(event Event)

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package events

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrBusClosed is returned when attempting to publish to a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

var payloadTypes = map[EventType]reflect.Type{
	InstanceStarted:    reflect.TypeOf(&InstanceEvent{}),
	InstanceTerminated: reflect.TypeOf(&InstanceEvent{}),
	PhaseChanged:       reflect.TypeOf(&PhaseEvent{}),
	AnalysisComplete:   reflect.TypeOf(&AnalysisEvent{}),
	AnalysisFailed:     reflect.TypeOf(&AnalysisEvent{}),
	ConfigReloaded:     reflect.TypeOf(&ConfigReloadEvent{}),
	ConfigReloadFailed: reflect.TypeOf(&ConfigReloadEvent{}),
}

// ValidatePayload verifies that an event payload matches the type registered
// for its event type. A nil payload is always accepted.
func ValidatePayload(event Event) error {
	if event.Payload == nil {
		return nil
	}

	expected, ok := payloadTypes[event.Type]
	if !ok {
		return fmt.Errorf("no payload mapping for event type %q", event.Type)
	}

	if reflect.TypeOf(event.Payload) != expected {
		return fmt.Errorf("event %q payload type mismatch; got %T, expected %s", event.Type, event.Payload, expected)
	}

	return nil
}

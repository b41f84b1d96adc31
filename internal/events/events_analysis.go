package events

import "time"

// PhaseEvent reports an analysis progress step.
type PhaseEvent struct {
	// InstanceID is empty for synchronous analyses.
	InstanceID string
	Method     string
	Phase      string
	ChunkCount int
}

// AnalysisEvent reports the end of an analysis.
type AnalysisEvent struct {
	InstanceID string
	Method     string
	ChunkCount int
	Rounds     int
	Duration   time.Duration
	Error      string
}

// InstanceEvent reports an instance lifecycle change.
type InstanceEvent struct {
	InstanceID string
	Method     string
}

// NewPhaseChanged creates a PhaseChanged event.
func NewPhaseChanged(instanceID, method, phase string, chunkCount int) Event {
	return NewEvent(PhaseChanged, &PhaseEvent{
		InstanceID: instanceID,
		Method:     method,
		Phase:      phase,
		ChunkCount: chunkCount,
	})
}

// NewAnalysisComplete creates an AnalysisComplete event.
func NewAnalysisComplete(instanceID, method string, chunkCount, rounds int, duration time.Duration) Event {
	return NewEvent(AnalysisComplete, &AnalysisEvent{
		InstanceID: instanceID,
		Method:     method,
		ChunkCount: chunkCount,
		Rounds:     rounds,
		Duration:   duration,
	})
}

// NewAnalysisFailed creates an AnalysisFailed event.
func NewAnalysisFailed(instanceID, method string, chunkCount int, duration time.Duration, err error) Event {
	return NewEvent(AnalysisFailed, &AnalysisEvent{
		InstanceID: instanceID,
		Method:     method,
		ChunkCount: chunkCount,
		Duration:   duration,
		Error:      errorString(err),
	})
}

// NewInstanceStarted creates an InstanceStarted event.
func NewInstanceStarted(instanceID, method string) Event {
	return NewEvent(InstanceStarted, &InstanceEvent{InstanceID: instanceID, Method: method})
}

// NewInstanceTerminated creates an InstanceTerminated event.
func NewInstanceTerminated(instanceID, method string) Event {
	return NewEvent(InstanceTerminated, &InstanceEvent{InstanceID: instanceID, Method: method})
}

package mcp

import (
	"github.com/leefowlercu/chunkalyze/internal/events"
)

// NotificationInstanceFinished is sent to every client when a background
// instance completes or fails.
const NotificationInstanceFinished = "notifications/chunkalyze/instance_finished"

func (s *Server) startEventListener() {
	if s.deps.Bus == nil {
		s.logger.Debug("MCP event listener not started; no event bus")
		return
	}

	unsubComplete := s.deps.Bus.Subscribe(events.AnalysisComplete, s.handleAnalysisEvent)
	unsubFailed := s.deps.Bus.Subscribe(events.AnalysisFailed, s.handleAnalysisEvent)
	s.unsubscribe = func() {
		unsubComplete()
		unsubFailed()
	}
}

func (s *Server) stopEventListener() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// handleAnalysisEvent forwards instance completions. Synchronous analyses
// carry no instance ID and are not forwarded.
func (s *Server) handleAnalysisEvent(event events.Event) {
	payload, ok := event.Payload.(*events.AnalysisEvent)
	if !ok {
		s.logger.Warn("MCP received invalid analysis event payload", "type", event.Type)
		return
	}
	if payload.InstanceID == "" {
		return
	}

	params := instanceNotification(event.Type, payload)
	s.mcpServer.SendNotificationToAllClients(NotificationInstanceFinished, params)
}

func instanceNotification(eventType events.EventType, payload *events.AnalysisEvent) map[string]any {
	params := map[string]any{
		"instanceId": payload.InstanceID,
		"method":     payload.Method,
		"chunkCount": payload.ChunkCount,
		"durationMs": payload.Duration.Milliseconds(),
		"succeeded":  eventType == events.AnalysisComplete,
	}
	if payload.Error != "" {
		params["error"] = payload.Error
	}
	return params
}

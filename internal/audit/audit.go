// Package audit provides audit logging for the diagnosis pipeline. It
// captures every stage transition, model request and tool call to a
// JSONL file for debugging, analysis and reproducibility.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// EventType represents the type of audit event.
type EventType string

const (
	// EventTypeSessionStart marks the start of a diagnosis session.
	EventTypeSessionStart EventType = "session_start"
	// EventTypeContextCollected marks a completed cluster snapshot.
	EventTypeContextCollected EventType = "context_collected"
	// EventTypeClassification marks the classifier's result.
	EventTypeClassification EventType = "classification"
	// EventTypeExpertsSelected marks the selector's output.
	EventTypeExpertsSelected EventType = "experts_selected"
	// EventTypeExpertStart marks the start of one expert invocation.
	EventTypeExpertStart EventType = "expert_start"
	// EventTypeExpertComplete marks the end of one expert invocation.
	EventTypeExpertComplete EventType = "expert_complete"
	// EventTypeToolStart marks the start of a tool call.
	EventTypeToolStart EventType = "tool_start"
	// EventTypeToolComplete marks the completion of a tool call.
	EventTypeToolComplete EventType = "tool_complete"
	// EventTypeModelRequest logs one model gateway request.
	EventTypeModelRequest EventType = "model_request"
	// EventTypeDiscussion marks the discussion result.
	EventTypeDiscussion EventType = "discussion"
	// EventTypePipelineComplete marks the completion of the pipeline.
	EventTypePipelineComplete EventType = "pipeline_complete"
	// EventTypeError marks an error during processing.
	EventTypeError EventType = "error"
	// EventTypeSessionEnd marks the end of a session.
	EventTypeSessionEnd EventType = "session_end"
)

// Event represents a single audit log event.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Type is the event type.
	Type EventType `json:"type"`
	// SessionID is the diagnosis session identifier.
	SessionID string `json:"session_id"`
	// Agent is the agent that generated the event, if any.
	Agent string `json:"agent,omitempty"`
	// Data contains event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Logger writes audit events to a JSONL file. A nil *Logger is valid
// and discards everything, so call sites need no guards.
type Logger struct {
	file      *os.File
	writer    *bufio.Writer
	mutex     sync.Mutex
	sessionID string
}

// NewLogger creates an audit logger appending to the file at path.
func NewLogger(path, sessionID string) (*Logger, error) {
	// #nosec G304 -- audit log path is intentionally configurable
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		file:      file,
		writer:    bufio.NewWriter(file),
		sessionID: sessionID,
	}, nil
}

func (l *Logger) write(event Event) error {
	if l == nil {
		return nil
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	if _, err := l.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush immediately for crash safety
	return l.writer.Flush()
}

func (l *Logger) event(t EventType, agent string, data map[string]interface{}) error {
	if l == nil {
		return nil
	}
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: l.sessionID,
		Agent:     agent,
		Data:      data,
	})
}

// LogSessionStart logs the start of a new diagnosis session.
func (l *Logger) LogSessionStart(gateway, query string) error {
	return l.event(EventTypeSessionStart, "", map[string]interface{}{
		"gateway": gateway,
		"query":   truncateString(query, 500),
	})
}

// LogContextCollected logs the snapshot summary.
func (l *Logger) LogContextCollected(logNodes, metricNodes int, hdfsStatus string) error {
	return l.event(EventTypeContextCollected, "", map[string]interface{}{
		"log_nodes":    logNodes,
		"metric_nodes": metricNodes,
		"hdfs_status":  hdfsStatus,
	})
}

// LogClassification logs the classifier result.
func (l *Logger) LogClassification(faultType, category string, confidence float64) error {
	return l.event(EventTypeClassification, "classifier", map[string]interface{}{
		"fault_type": faultType,
		"category":   category,
		"confidence": confidence,
	})
}

// LogExpertsSelected logs the selector output.
func (l *Logger) LogExpertsSelected(experts []string) error {
	return l.event(EventTypeExpertsSelected, "", map[string]interface{}{
		"experts": experts,
	})
}

// LogExpertStart logs the start of one expert invocation.
func (l *Logger) LogExpertStart(expert string) error {
	return l.event(EventTypeExpertStart, expert, nil)
}

// LogExpertComplete logs the end of one expert invocation.
func (l *Logger) LogExpertComplete(expert string, success bool, duration time.Duration, detail string) error {
	return l.event(EventTypeExpertComplete, expert, map[string]interface{}{
		"success":     success,
		"duration_ms": duration.Milliseconds(),
		"detail":      truncateString(detail, 500),
	})
}

// LogToolStart logs the start of a tool call.
func (l *Logger) LogToolStart(agent, tool string, args map[string]interface{}) error {
	return l.event(EventTypeToolStart, agent, map[string]interface{}{
		"tool_name": tool,
		"args":      args,
	})
}

// LogToolComplete logs the completion of a tool call.
func (l *Logger) LogToolComplete(agent, tool string, success bool, durationMs int64, summary string) error {
	return l.event(EventTypeToolComplete, agent, map[string]interface{}{
		"tool_name":   tool,
		"success":     success,
		"duration_ms": durationMs,
		"summary":     summary,
	})
}

// LogModelRequest logs one gateway request.
func (l *Logger) LogModelRequest(agent, role string, promptBytes int, err error) error {
	data := map[string]interface{}{
		"role":         role,
		"prompt_bytes": promptBytes,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return l.event(EventTypeModelRequest, agent, data)
}

// LogDiscussion logs the discussion result.
func (l *Logger) LogDiscussion(consensus bool, confidence float64, conflicts int) error {
	return l.event(EventTypeDiscussion, "discussion", map[string]interface{}{
		"consensus":  consensus,
		"confidence": confidence,
		"conflicts":  conflicts,
	})
}

// LogPipelineComplete logs the completion of the pipeline.
func (l *Logger) LogPipelineComplete(duration time.Duration, outcome string) error {
	return l.event(EventTypePipelineComplete, "", map[string]interface{}{
		"duration_ms": duration.Milliseconds(),
		"outcome":     outcome,
	})
}

// LogError logs an error during processing.
func (l *Logger) LogError(agent string, err error) error {
	return l.event(EventTypeError, agent, map[string]interface{}{
		"error": err.Error(),
	})
}

// LogSessionEnd logs the end of a session.
func (l *Logger) LogSessionEnd() error {
	return l.event(EventTypeSessionEnd, "", nil)
}

// Close closes the audit logger and flushes any pending writes.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	var errs []error
	if err := l.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush audit log: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close audit log file: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing audit log: %v", errs)
	}
	return nil
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...[truncated]"
}

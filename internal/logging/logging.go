// Package logging provides leveled, structured logging for synod.
//
// Components obtain a named logger via GetLogger and attach structured
// fields with Field/WithField. Levels can be overridden per component,
// including wildcard patterns ("agent.*"), which is useful when debugging
// a single stage of the diagnosis pipeline:
//
//	logging.Initialize("info", map[string]string{"agent.experts": "debug"})
//	log := logging.GetLogger("orchestrator").WithField("session_id", id)
//	log.InfoWithFields("experts selected", logging.Field("count", n))
//
// Logger values are immutable; WithField and friends return copies, so a
// logger may be shared freely across goroutines.
package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Level is the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	}
	return -1, fmt.Errorf("invalid log level: %s (must be debug, info, warn, error, or fatal)", s)
}

// LogField is a single structured key/value pair.
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field.
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger writes leveled log messages for one named component.
type Logger struct {
	level  Level
	name   string
	fields map[string]interface{}
	ctx    context.Context
}

var (
	globalMu       sync.RWMutex
	globalLevel    = INFO
	componentLevel = map[string]Level{}

	// exitFunc is called by Fatal; overridable in tests.
	exitFunc = os.Exit
)

// Initialize sets the default level and optional per-component overrides.
// Override keys are component names as passed to GetLogger, or wildcard
// patterns like "agent.*".
func Initialize(level string, overrides ...map[string]string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalLevel = lvl
	componentLevel = map[string]Level{}
	if len(overrides) > 0 {
		for name, s := range overrides[0] {
			l, err := ParseLevel(s)
			if err != nil {
				return fmt.Errorf("invalid log level for component %q: %w", name, err)
			}
			componentLevel[name] = l
		}
	}
	return nil
}

// GetLogger returns a logger for the named component.
// Without a prior Initialize call the default level is INFO.
func GetLogger(name string) *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return &Logger{
		level:  globalLevel,
		name:   name,
		fields: map[string]interface{}{},
	}
}

// effectiveLevel resolves per-component overrides: exact match first, then
// the most specific wildcard pattern, then the default level.
func effectiveLevel(name string, fallback Level) Level {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if lvl, ok := componentLevel[name]; ok {
		return lvl
	}
	best := ""
	for pattern := range componentLevel {
		if !strings.HasSuffix(pattern, ".*") {
			continue
		}
		prefix := strings.TrimSuffix(pattern, ".*")
		if strings.HasPrefix(name, prefix+".") && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		return componentLevel[best]
	}
	return fallback
}

func (l *Logger) enabled(level Level) bool {
	return level >= effectiveLevel(l.name, l.level)
}

// WithName returns a copy of the logger under a different component name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{level: l.level, name: name, fields: cloneFields(l.fields), ctx: l.ctx}
}

// WithField returns a copy of the logger with one persistent field added.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	nl := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: l.ctx}
	nl.fields[key] = value
	return nl
}

// WithFields returns a copy of the logger with persistent fields added.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	nl := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: l.ctx}
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	return nl
}

// WithContext returns a copy of the logger that extracts the diagnosis
// session ID from ctx (see SessionIDKey) into every message.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: ctx}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.logf(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.logf(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.logf(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.logf(ERROR, msg, args...) }

// Fatal logs the message and terminates the process with exit code 1.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.logf(FATAL, msg, args...)
	exitFunc(1)
}

// ErrorWithErr logs an error message with the error appended.
func (l *Logger) ErrorWithErr(msg string, err error) {
	l.logf(ERROR, "%s - %v", msg, err)
}

func (l *Logger) DebugWithFields(msg string, fields ...LogField) { l.logFields(DEBUG, msg, fields) }
func (l *Logger) InfoWithFields(msg string, fields ...LogField)  { l.logFields(INFO, msg, fields) }
func (l *Logger) WarnWithFields(msg string, fields ...LogField)  { l.logFields(WARN, msg, fields) }
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) { l.logFields(ERROR, msg, fields) }

func (l *Logger) logf(level Level, msg string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}
	l.write(level, fmt.Sprintf(msg, args...), l.mergedFields(nil))
}

func (l *Logger) logFields(level Level, msg string, fields []LogField) {
	if !l.enabled(level) {
		return
	}
	l.write(level, msg, l.mergedFields(fields))
}

// mergedFields combines context fields, persistent fields and per-call
// fields, in increasing priority.
func (l *Logger) mergedFields(extra []LogField) map[string]interface{} {
	ctxFields := contextFields(l.ctx)
	if ctxFields == nil && len(l.fields) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]interface{}, len(ctxFields)+len(l.fields)+len(extra))
	for k, v := range ctxFields {
		merged[k] = v
	}
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range extra {
		merged[f.Key] = f.Value
	}
	return merged
}

func cloneFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

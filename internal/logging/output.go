package logging

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionIDKey returns the context key under which a diagnosis session ID
// is carried. Loggers created with WithContext include it automatically:
//
//	ctx := context.WithValue(ctx, logging.SessionIDKey(), sessionID)
func SessionIDKey() interface{} {
	return sessionIDKey
}

func contextFields(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	if id := ctx.Value(sessionIDKey); id != nil {
		return map[string]interface{}{"session_id": id}
	}
	return nil
}

// write renders one log line. DEBUG/INFO/WARN go to stdout, ERROR/FATAL to
// stderr. Fields are emitted sorted so output is stable for tests.
func (l *Logger) write(level Level, msg string, fields map[string]interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s: %s", timestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}

	out := os.Stdout
	if level >= ERROR {
		out = os.Stderr
	}
	fmt.Fprintln(out, b.String())
}

// timestamp returns an RFC3339 timestamp, overridable through the
// LOG_TIMESTAMP environment variable for deterministic test output.
func timestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}

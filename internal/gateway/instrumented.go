package gateway

import (
	"context"

	"github.com/synod-io/synod/internal/metrics"
)

// Instrumented wraps a Gateway with Prometheus counters per role and
// outcome. It is transparent otherwise.
type Instrumented struct {
	next Gateway
	m    *metrics.Metrics
}

// NewInstrumented decorates g with request counting.
func NewInstrumented(g Gateway, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: g, m: m}
}

// Generate implements Gateway.Generate.
func (i *Instrumented) Generate(ctx context.Context, req Request) (string, error) {
	text, err := i.next.Generate(ctx, req)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	i.m.ModelRequests.WithLabelValues(req.Role, outcome).Inc()
	return text, err
}

// Name implements Gateway.Name.
func (i *Instrumented) Name() string {
	return i.next.Name()
}

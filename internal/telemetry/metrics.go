// Package telemetry records auth outcomes as OpenTelemetry metrics.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "streamline/backend/auth"

// Auth event names.
const (
	EventLogin          = "login"
	EventRefresh        = "refresh"
	EventLogout         = "logout"
	EventChangePassword = "change_password"
	EventRegister       = "register"
	EventAuthenticate   = "authenticate"
)

// Outcomes attached to auth events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	// OutcomeReuse marks a refresh token that was valid-looking but superseded.
	OutcomeReuse = "reuse"
)

// AuthRecorder counts auth events. Implementations must be safe for concurrent use.
type AuthRecorder interface {
	Record(ctx context.Context, event, outcome string)
}

// AuthMetrics is an AuthRecorder backed by an OTel Int64Counter named auth.events.
type AuthMetrics struct {
	events metric.Int64Counter
}

// NewAuthMetrics creates the counter on meter. A nil meter uses the global MeterProvider.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	c, err := meter.Int64Counter("auth.events",
		metric.WithDescription("Auth operations by event and outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}
	return &AuthMetrics{events: c}, nil
}

// Record adds one to auth.events{event, outcome}.
func (m *AuthMetrics) Record(ctx context.Context, event, outcome string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("outcome", outcome),
	))
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string) {}

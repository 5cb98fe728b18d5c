package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "vendalink"

// Metrics holds all VendaLink metric instruments.
type Metrics struct {
	LoginsAdmitted  metric.Int64Counter
	LoginsRejected  metric.Int64Counter
	LoginDuration   metric.Float64Histogram
	Heartbeats      metric.Int64Counter
	PoolsCreated    metric.Int64Counter
	PoolsReplaced   metric.Int64Counter
	SessionsEnded   metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.LoginsAdmitted, err = meter.Int64Counter("vendalink.logins.admitted",
		metric.WithDescription("Number of logins that established a session"))
	if err != nil {
		return nil, err
	}

	m.LoginsRejected, err = meter.Int64Counter("vendalink.logins.rejected",
		metric.WithDescription("Number of logins rejected (any typed failure)"))
	if err != nil {
		return nil, err
	}

	m.LoginDuration, err = meter.Float64Histogram("vendalink.login.duration_seconds",
		metric.WithDescription("Login flow duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.Heartbeats, err = meter.Int64Counter("vendalink.heartbeats",
		metric.WithDescription("Number of session heartbeats received"))
	if err != nil {
		return nil, err
	}

	m.PoolsCreated, err = meter.Int64Counter("vendalink.pools.created",
		metric.WithDescription("Number of tenant pools dialed"))
	if err != nil {
		return nil, err
	}

	m.PoolsReplaced, err = meter.Int64Counter("vendalink.pools.replaced",
		metric.WithDescription("Number of tenant pools torn down and recreated"))
	if err != nil {
		return nil, err
	}

	m.SessionsEnded, err = meter.Int64Counter("vendalink.sessions.ended",
		metric.WithDescription("Number of sessions explicitly terminated"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

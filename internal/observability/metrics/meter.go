// Copyright 2026 The Gatewarden Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}

	// Get meter from global meter provider; exporters are configured by
	// the hosting environment.
	meter := otel.Meter(serviceName)

	return &Meter{
		meter: meter,
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// DecisionMetrics instruments access checks: totals by outcome plus a
// latency histogram.
type DecisionMetrics struct {
	decisions metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewDecisionMetrics creates the decision instrument set.
func (m *Meter) NewDecisionMetrics() (*DecisionMetrics, error) {
	decisions, err := m.meter.Int64Counter(
		"gatewarden_decisions_total",
		metric.WithDescription("Access decisions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision counter: %w", err)
	}

	latency, err := m.meter.Float64Histogram(
		"gatewarden_decision_duration_ms",
		metric.WithDescription("Access decision latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision histogram: %w", err)
	}

	return &DecisionMetrics{decisions: decisions, latency: latency}, nil
}

// RecordDecision counts one decision and its latency.
func (d *DecisionMetrics) RecordDecision(ctx context.Context, granted bool, latencyMS float64) {
	if d == nil {
		return
	}
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	d.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	d.latency.Record(ctx, latencyMS)
}

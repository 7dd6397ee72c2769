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

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types
const (
	TypePermissionGranted         = "permission_granted"
	TypePermissionDenied          = "permission_denied"
	TypePermissionConditionFailed = "permission_condition_failed"
	TypePermissionCheckError      = "permission_check_error"
)

// Event represents a single access decision outcome.
type Event struct {
	ID        string
	Type      string
	UserID    string
	Resource  string
	Action    string
	Timestamp time.Time
	// Context carries decision detail: client IP, user agent, the
	// permission that failed, error text, decision latency.
	Context map[string]any
}

// Recorder receives every decision event. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// SlogRecorder mirrors audit events to the application log.
type SlogRecorder struct{}

// NewSlogRecorder creates a new slog-backed recorder.
func NewSlogRecorder() *SlogRecorder {
	return &SlogRecorder{}
}

// Record logs the event at INFO with the "audit" component.
func (r *SlogRecorder) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("user_id", event.UserID),
		slog.String("resource", event.Resource),
		slog.String("action", event.Action),
		slog.Time("timestamp", event.Timestamp),
	}

	if len(event.Context) > 0 {
		group := []any{}
		for k, v := range event.Context {
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("context", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// MultiRecorder fans an event out to several recorders.
type MultiRecorder []Recorder

// Record delivers the event to every recorder in order.
func (m MultiRecorder) Record(ctx context.Context, event Event) {
	for _, r := range m {
		r.Record(ctx, event)
	}
}

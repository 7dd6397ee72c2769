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

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/audit"
)

// AuditRepository implements audit.Recorder against the audit_events
// table. Writes are best effort: a failed insert is logged and dropped
// rather than blocking the decision path.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record persists a single audit event.
func (r *AuditRepository) Record(ctx context.Context, event audit.Event) {
	eventCtx, err := json.Marshal(event.Context)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal audit context",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID))
		eventCtx = []byte("{}")
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO audit_events (id, event_type, user_id, resource, action, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.Type, event.UserID, event.Resource, event.Action, eventCtx, event.Timestamp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist audit event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type))
	}
}

// ListRecent returns the newest events, most recent first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, event_type, user_id, resource, action, context, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var eventCtx []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.UserID, &e.Resource, &e.Action, &eventCtx, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if err := json.Unmarshal(eventCtx, &e.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit context: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

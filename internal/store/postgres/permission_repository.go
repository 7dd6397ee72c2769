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

	"github.com/gatewarden/gatewarden/internal/security"
)

// PermissionRepository implements security.PermissionStore.
type PermissionRepository struct {
	db *DB
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Upsert inserts or replaces a permission definition.
func (r *PermissionRepository) Upsert(ctx context.Context, p *security.Permission) error {
	conditions, err := json.Marshal(p.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO permissions (id, resource, action, conditions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			resource = EXCLUDED.resource,
			action = EXCLUDED.action,
			conditions = EXCLUDED.conditions,
			updated_at = now()
	`, p.ID, p.Resource, p.Action, conditions)
	if err != nil {
		return fmt.Errorf("failed to upsert permission: %w", err)
	}
	return nil
}

// List returns the full permission catalog.
func (r *PermissionRepository) List(ctx context.Context) ([]*security.Permission, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, resource, action, conditions
		FROM permissions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []*security.Permission
	for rows.Next() {
		var p security.Permission
		var conditions []byte
		if err := rows.Scan(&p.ID, &p.Resource, &p.Action, &conditions); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		if err := json.Unmarshal(conditions, &p.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
		perms = append(perms, &p)
	}
	return perms, rows.Err()
}

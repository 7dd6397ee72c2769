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

// RoleRepository implements security.RoleStore.
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Upsert inserts or replaces a role definition.
func (r *RoleRepository) Upsert(ctx context.Context, role *security.Role) error {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	inherits, err := json.Marshal(role.Inherits)
	if err != nil {
		return fmt.Errorf("failed to marshal inherited roles: %w", err)
	}

	conditions, err := json.Marshal(role.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO roles (id, name, description, permissions, inherits, is_system, conditions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			permissions = EXCLUDED.permissions,
			inherits = EXCLUDED.inherits,
			is_system = EXCLUDED.is_system,
			conditions = EXCLUDED.conditions,
			updated_at = now()
	`, role.ID, role.Name, role.Description, permissions, inherits, role.IsSystem, conditions)
	if err != nil {
		return fmt.Errorf("failed to upsert role: %w", err)
	}
	return nil
}

// List returns the full role catalog.
func (r *RoleRepository) List(ctx context.Context) ([]*security.Role, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, description, permissions, inherits, is_system, conditions
		FROM roles
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*security.Role
	for rows.Next() {
		var role security.Role
		var permissions, inherits, conditions []byte
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &permissions, &inherits, &role.IsSystem, &conditions); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
		if err := json.Unmarshal(inherits, &role.Inherits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inherited roles: %w", err)
		}
		if err := json.Unmarshal(conditions, &role.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
		roles = append(roles, &role)
	}
	return roles, rows.Err()
}

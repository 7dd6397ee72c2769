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

// UserRepository implements security.UserStore.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts or replaces a user record.
func (r *UserRepository) Upsert(ctx context.Context, u *security.User) error {
	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("failed to marshal roles: %w", err)
	}

	permissions, err := json.Marshal(u.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, roles, permissions, department, level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			roles = EXCLUDED.roles,
			permissions = EXCLUDED.permissions,
			department = EXCLUDED.department,
			level = EXCLUDED.level,
			updated_at = now()
	`, u.ID, u.Name, u.Email, roles, permissions, u.Department, u.Level)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// List returns the full user directory.
func (r *UserRepository) List(ctx context.Context) ([]*security.User, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, email, roles, permissions, department, level
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*security.User
	for rows.Next() {
		var u security.User
		var roles, permissions []byte
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &roles, &permissions, &u.Department, &u.Level); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if err := json.Unmarshal(roles, &u.Roles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal roles: %w", err)
		}
		if err := json.Unmarshal(permissions, &u.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

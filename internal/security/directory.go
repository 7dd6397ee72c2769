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

package security

import (
	"context"
	"fmt"
)

// PermissionStore persists the permission catalog.
type PermissionStore interface {
	Upsert(ctx context.Context, p *Permission) error
	List(ctx context.Context) ([]*Permission, error)
}

// RoleStore persists the role catalog.
type RoleStore interface {
	Upsert(ctx context.Context, r *Role) error
	List(ctx context.Context) ([]*Role, error)
}

// UserStore persists the user directory.
type UserStore interface {
	Upsert(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
}

// Directory groups the persistence interfaces the system seeds from.
type Directory struct {
	Permissions PermissionStore
	Roles       RoleStore
	Users       UserStore
}

// Seed loads the full catalogs from the directory into the in-memory
// registries. Called once at startup; registration endpoints write
// through to the store and the registry afterwards.
func (s *System) Seed(ctx context.Context, dir Directory) error {
	if dir.Permissions != nil {
		perms, err := dir.Permissions.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load permissions: %w", err)
		}
		for _, p := range perms {
			if err := s.AddPermission(p); err != nil {
				return fmt.Errorf("failed to register permission %q: %w", p.ID, err)
			}
		}
	}

	if dir.Roles != nil {
		roles, err := dir.Roles.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load roles: %w", err)
		}
		for _, r := range roles {
			if err := s.AddRole(r); err != nil {
				return fmt.Errorf("failed to register role %q: %w", r.ID, err)
			}
		}
	}

	if dir.Users != nil {
		users, err := dir.Users.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		for _, u := range users {
			if err := s.AddUser(u); err != nil {
				return fmt.Errorf("failed to register user %q: %w", u.ID, err)
			}
		}
	}

	return nil
}

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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/security"
	"github.com/gatewarden/gatewarden/internal/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audited(userID, eventType string) audit.Event {
	return audit.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Resource:  "customer.records",
		Action:    "read",
		Timestamp: time.Now(),
		Context:   map[string]any{"ip": "10.0.0.1"},
	}
}

func testDB(t *testing.T) *DB {
	t.Helper()

	cfg := Config{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnv("DB_PORT", "5432"),
		User:         getEnv("DB_USER", "gatewarden"),
		Password:     getEnv("DB_PASSWORD", "gatewarden_dev_password"),
		Database:     getEnv("DB_NAME", "gatewarden"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	ctx := context.Background()
	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx, InitialSchema))
	return db
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestCatalogRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	permID := fmt.Sprintf("it.perm.%d", suffix)
	perms := NewPermissionRepository(db)
	require.NoError(t, perms.Upsert(ctx, &security.Permission{
		ID:       permID,
		Resource: "customer.*",
		Action:   "export",
		Conditions: []security.Condition{
			{
				Type:     security.ConditionIP,
				Operator: security.OpIn,
				Value:    []string{"10.0.0.0/8"},
			},
		},
	}))

	// Upsert replaces in place.
	require.NoError(t, perms.Upsert(ctx, &security.Permission{
		ID:       permID,
		Resource: "customer.records",
		Action:   "export",
	}))

	list, err := perms.List(ctx)
	require.NoError(t, err)

	var found *security.Permission
	for _, p := range list {
		if p.ID == permID {
			found = p
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "customer.records", found.Resource)
	assert.Empty(t, found.Conditions)

	roleID := fmt.Sprintf("it.role.%d", suffix)
	roles := NewRoleRepository(db)
	require.NoError(t, roles.Upsert(ctx, &security.Role{
		ID:          roleID,
		Name:        "Integration Role",
		Permissions: []string{permID},
		Inherits:    []string{"viewer"},
		Conditions: []security.RoleCondition{
			{Field: "department", Operator: security.OpEquals, Value: "sales"},
		},
	}))

	roleList, err := roles.List(ctx)
	require.NoError(t, err)
	var role *security.Role
	for _, r := range roleList {
		if r.ID == roleID {
			role = r
		}
	}
	require.NotNil(t, role)
	assert.Equal(t, []string{permID}, role.Permissions)
	assert.Equal(t, []string{"viewer"}, role.Inherits)
	require.Len(t, role.Conditions, 1)
	assert.Equal(t, "sales", role.Conditions[0].Value)

	userID := fmt.Sprintf("it.user.%d", suffix)
	users := NewUserRepository(db)
	require.NoError(t, users.Upsert(ctx, &security.User{
		ID:         userID,
		Name:       "Integration User",
		Email:      "it@example.com",
		Roles:      []string{roleID},
		Department: "sales",
		Level:      3,
	}))

	userList, err := users.List(ctx)
	require.NoError(t, err)
	var user *security.User
	for _, u := range userList {
		if u.ID == userID {
			user = u
		}
	}
	require.NotNil(t, user)
	assert.Equal(t, []string{roleID}, user.Roles)
	assert.Equal(t, 3, user.Level)
}

func TestAuditRepository_RecordAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	repo := NewAuditRepository(db)
	userID := fmt.Sprintf("it.audit.%d", time.Now().UnixNano())

	repo.Record(ctx, audited(userID, "permission_denied"))
	repo.Record(ctx, audited(userID, "permission_granted"))

	events, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)

	var mine int
	for _, e := range events {
		if e.UserID == userID {
			mine++
		}
	}
	assert.Equal(t, 2, mine)
}

func TestAPIKeyRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	repo := NewAPIKeyRepository(db)
	subject := fmt.Sprintf("it.key.%d", time.Now().UnixNano())

	_, err := repo.GetBySubject(ctx, subject)
	assert.ErrorIs(t, err, token.ErrAPIKeyNotFound)

	require.NoError(t, repo.Upsert(ctx, &token.APIKey{
		Subject: subject,
		KeyHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Scope:   token.ScopeAdmin,
	}))

	key, err := repo.GetBySubject(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, token.ScopeAdmin, key.Scope)
}

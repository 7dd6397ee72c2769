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
	"errors"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/token"
	"github.com/jackc/pgx/v5"
)

// APIKeyRepository implements token.APIKeyStore.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Upsert inserts or replaces the key for a subject.
func (r *APIKeyRepository) Upsert(ctx context.Context, key *token.APIKey) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO api_keys (subject, key_hash, scope)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			scope = EXCLUDED.scope
	`, key.Subject, key.KeyHash, key.Scope)
	if err != nil {
		return fmt.Errorf("failed to upsert api key: %w", err)
	}
	return nil
}

// GetBySubject returns the stored key for a subject.
func (r *APIKeyRepository) GetBySubject(ctx context.Context, subject string) (*token.APIKey, error) {
	var key token.APIKey
	err := r.db.pool.QueryRow(ctx, `
		SELECT subject, key_hash, scope
		FROM api_keys
		WHERE subject = $1
	`, subject).Scan(&key.Subject, &key.KeyHash, &key.Scope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, token.ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return &key, nil
}

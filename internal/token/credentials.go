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

package token

import (
	"context"
	"errors"
)

// ErrAPIKeyNotFound is returned when no key exists for a subject.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKey is a stored administrative credential. KeyHash is an Argon2id
// encoded hash, never the key itself.
type APIKey struct {
	Subject string
	KeyHash string
	Scope   string
}

// APIKeyStore persists administrative API keys.
type APIKeyStore interface {
	Upsert(ctx context.Context, key *APIKey) error
	GetBySubject(ctx context.Context, subject string) (*APIKey, error)
}

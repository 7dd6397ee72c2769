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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_IssueAndVerify(t *testing.T) {
	s := NewService("test-signing-key", time.Hour)

	signed, err := s.Issue("ops@example.com", ScopeAdmin)
	require.NoError(t, err)

	claims, err := s.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, ScopeAdmin, claims.Scope)
	assert.Equal(t, "gatewarden", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestService_VerifyRejectsExpired(t *testing.T) {
	s := NewService("test-signing-key", -time.Minute)

	signed, err := s.Issue("ops@example.com", ScopeAdmin)
	require.NoError(t, err)

	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_VerifyRejectsWrongKey(t *testing.T) {
	signed, err := NewService("key-one", time.Hour).Issue("ops@example.com", ScopeAdmin)
	require.NoError(t, err)

	_, err = NewService("key-two", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_VerifyRejectsGarbage(t *testing.T) {
	s := NewService("test-signing-key", time.Hour)
	_, err := s.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAPIKeyHasher_RoundTrip(t *testing.T) {
	h := NewAPIKeyHasher(65536, 3, 4, 16, 32)

	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "gw_"))

	encoded, err := h.Hash(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := h.Verify(key, encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong-key", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAPIKeyHasher_SaltMakesHashesUnique(t *testing.T) {
	h := NewAPIKeyHasher(65536, 3, 4, 16, 32)

	a, err := h.Hash("same-key")
	require.NoError(t, err)
	b, err := h.Hash("same-key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAPIKeyHasher_VerifyRejectsMalformedHash(t *testing.T) {
	h := NewAPIKeyHasher(65536, 3, 4, 16, 32)

	_, err := h.Verify("key", "not-an-encoded-hash")
	assert.Error(t, err)

	_, err = h.Verify("key", "$bcrypt$v=19$m=1,t=1,p=1$abc$def")
	assert.Error(t, err)
}

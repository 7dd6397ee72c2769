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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TOKEN_SIGNING_KEY", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Security.DenialThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Security.DenialWindow)
	assert.Equal(t, 10000, cfg.Security.AuditMaxEntries)
	assert.Equal(t, time.Hour, cfg.Security.TokenLifetime)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.False(t, cfg.Observability.OTELEnabled)
	assert.Empty(t, cfg.Alerting.WebhookURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TOKEN_SIGNING_KEY", "0123456789abcdef")
	t.Setenv("SECURITY_DENIAL_THRESHOLD", "3")
	t.Setenv("SECURITY_DENIAL_WINDOW", "90s")
	t.Setenv("ALERT_WEBHOOK_URL", "https://hooks.example.com/sec")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Security.DenialThreshold)
	assert.Equal(t, 90*time.Second, cfg.Security.DenialWindow)
	assert.Equal(t, "https://hooks.example.com/sec", cfg.Alerting.WebhookURL)
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("TOKEN_SIGNING_KEY", "0123456789abcdef")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TOKEN_SIGNING_KEY", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate_RejectsNonPositivePolicy(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("TOKEN_SIGNING_KEY", "0123456789abcdef")
	t.Setenv("SECURITY_DENIAL_THRESHOLD", "0")

	_, err := Load()
	assert.Error(t, err)
}

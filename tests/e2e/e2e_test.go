//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a live server started out of band:
//
//	GATEWARDEN_API_URL=http://127.0.0.1:8080 \
//	GATEWARDEN_ADMIN_SUBJECT=ops \
//	GATEWARDEN_ADMIN_API_KEY=gw_... \
//	go test -tags e2e ./tests/e2e/
var (
	baseURL = getEnv("GATEWARDEN_API_URL", "http://127.0.0.1:8080")
	apiBase = baseURL + "/api/v1"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

type testClient struct {
	httpClient *http.Client
	bearer     string
}

func newTestClient() *testClient {
	return &testClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *testClient) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, apiBase+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (c *testClient) authenticate(t *testing.T) {
	t.Helper()

	subject := os.Getenv("GATEWARDEN_ADMIN_SUBJECT")
	apiKey := os.Getenv("GATEWARDEN_ADMIN_API_KEY")
	if subject == "" || apiKey == "" {
		t.Skip("GATEWARDEN_ADMIN_SUBJECT and GATEWARDEN_ADMIN_API_KEY are required")
	}

	resp, body := c.post(t, "/token", map[string]string{
		"subject": subject,
		"api_key": apiKey,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "token exchange failed: %v", body)

	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	c.bearer = token
}

func TestHealthEndpoint(t *testing.T) {
	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDecisionFlow(t *testing.T) {
	client := newTestClient()
	client.authenticate(t)

	suffix := time.Now().UnixNano()
	permID := fmt.Sprintf("e2e.perm.%d", suffix)
	roleID := fmt.Sprintf("e2e.role.%d", suffix)
	userID := fmt.Sprintf("e2e.user.%d", suffix)

	resp, _ := client.post(t, "/permissions", map[string]any{
		"id":       permID,
		"resource": fmt.Sprintf("e2e.%d.*", suffix),
		"action":   "read",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = client.post(t, "/roles", map[string]any{
		"id":          roleID,
		"name":        "E2E Role",
		"permissions": []string{permID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = client.post(t, "/users", map[string]any{
		"id":    userID,
		"name":  "E2E User",
		"email": "e2e@example.com",
		"roles": []string{roleID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := client.post(t, "/check", map[string]any{
		"user_id":  userID,
		"resource": fmt.Sprintf("e2e.%d.documents", suffix),
		"action":   "read",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["granted"])

	resp, body = client.post(t, "/check", map[string]any{
		"user_id":  userID,
		"resource": fmt.Sprintf("e2e.%d.documents", suffix),
		"action":   "delete",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["granted"])
}

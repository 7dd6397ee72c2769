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

package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// TypeMultipleDenials is raised when a user accumulates repeated
// permission denials inside the escalation window.
const TypeMultipleDenials = "multiple_permission_denials"

// Alert is the escalation payload delivered to the host's ops channel.
type Alert struct {
	Type      string        `json:"type"`
	UserID    string        `json:"user_id"`
	Count     int           `json:"count"`
	Window    time.Duration `json:"window"`
	Timestamp time.Time     `json:"timestamp"`
}

// Notifier delivers alerts. Implementations must be safe for concurrent
// use and must not block decision checks for long.
type Notifier interface {
	Notify(ctx context.Context, a Alert)
}

// SlogNotifier writes alerts to the application log at WARN.
type SlogNotifier struct{}

// NewSlogNotifier creates a log-backed notifier.
func NewSlogNotifier() *SlogNotifier {
	return &SlogNotifier{}
}

// Notify logs the alert.
func (n *SlogNotifier) Notify(ctx context.Context, a Alert) {
	slog.WarnContext(ctx, "SECURITY_ALERT",
		slog.String("alert_type", a.Type),
		slog.String("user_id", a.UserID),
		slog.Int("count", a.Count),
		slog.Duration("window", a.Window),
		slog.String("component", "alert"),
	)
}

// WebhookNotifier POSTs alerts as JSON to a host-configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier. A nil client selects a
// default with a 5s timeout.
func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookNotifier{url: url, client: client}
}

// Notify delivers the alert. Delivery failures are logged, never
// propagated: alerting must not break access checks.
func (n *WebhookNotifier) Notify(ctx context.Context, a Alert) {
	body, err := json.Marshal(a)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode alert", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		slog.ErrorContext(ctx, "failed to build alert request", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver alert", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.ErrorContext(ctx, "alert endpoint rejected delivery",
			slog.String("status", fmt.Sprintf("%d", resp.StatusCode)))
	}
}

// MultiNotifier fans alerts out to several notifiers.
type MultiNotifier []Notifier

// Notify delivers the alert to every notifier in order.
func (m MultiNotifier) Notify(ctx context.Context, a Alert) {
	for _, n := range m {
		n.Notify(ctx, a)
	}
}

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
	"context"
	"sync"
	"time"
)

// Escalation policy defaults. Hosts tune these through configuration.
const (
	DefaultDenialThreshold = 5
	DefaultDenialWindow    = 5 * time.Minute
)

// Escalator turns repeated permission denials into alerts. It fires at
// most once per user per window: once an alert has gone out, further
// denials inside the same window do not re-trigger it.
type Escalator struct {
	threshold int
	window    time.Duration
	notifier  Notifier

	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewEscalator creates an escalator. threshold <= 0 or window <= 0 select
// the defaults.
func NewEscalator(threshold int, window time.Duration, notifier Notifier) *Escalator {
	if threshold <= 0 {
		threshold = DefaultDenialThreshold
	}
	if window <= 0 {
		window = DefaultDenialWindow
	}
	return &Escalator{
		threshold: threshold,
		window:    window,
		notifier:  notifier,
		lastFired: make(map[string]time.Time),
	}
}

// Window returns the trailing window denials are counted over.
func (e *Escalator) Window() time.Duration {
	return e.window
}

// Threshold returns the denial count that triggers an alert.
func (e *Escalator) Threshold() int {
	return e.threshold
}

// DenialObserved reports a fresh denial together with the number of
// denials the caller counted for that user inside the trailing window.
// Returns true when an alert was sent.
func (e *Escalator) DenialObserved(ctx context.Context, userID string, countInWindow int, now time.Time) bool {
	if countInWindow < e.threshold {
		return false
	}

	e.mu.Lock()
	if last, ok := e.lastFired[userID]; ok && now.Sub(last) < e.window {
		e.mu.Unlock()
		return false
	}
	e.lastFired[userID] = now
	e.mu.Unlock()

	e.notifier.Notify(ctx, Alert{
		Type:      TypeMultipleDenials,
		UserID:    userID,
		Count:     countInWindow,
		Window:    e.window,
		Timestamp: now,
	})
	return true
}

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

package audit

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-memory log so it cannot grow without
// limit; durable retention belongs to an external recorder.
const DefaultMaxEntries = 10000

// Log is a bounded, in-memory, append-only event store. It keeps the most
// recent entries and supports the trailing-window queries escalation
// needs. Appends are serialized; snapshots are copies.
type Log struct {
	mu      sync.RWMutex
	entries []Event
	max     int
}

// NewLog creates a bounded in-memory log. maxEntries <= 0 selects
// DefaultMaxEntries.
func NewLog(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{max: maxEntries}
}

// Record appends the event, evicting the oldest entry when full.
func (l *Log) Record(_ context.Context, event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= l.max {
		// Shift rather than reslice so the backing array does not pin
		// evicted entries.
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, event)
}

// Snapshot returns a copy of the current entries, oldest first.
func (l *Log) Snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.entries))
	copy(out, l.entries)
	return out
}

// CountSince counts entries of the given type for a user with timestamps
// at or after the cutoff.
func (l *Log) CountSince(userID, eventType string, cutoff time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	// Entries are appended in time order; walk from the tail and stop at
	// the first entry older than the cutoff.
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.Timestamp.Before(cutoff) {
			break
		}
		if e.UserID == userID && e.Type == eventType {
			count++
		}
	}
	return count
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

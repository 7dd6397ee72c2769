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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendAndSnapshot(t *testing.T) {
	l := NewLog(0)
	ctx := context.Background()

	l.Record(ctx, Event{ID: "1", Type: TypePermissionGranted, UserID: "u1", Timestamp: time.Now()})
	l.Record(ctx, Event{ID: "2", Type: TypePermissionDenied, UserID: "u1", Timestamp: time.Now()})

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "1", snap[0].ID)
	assert.Equal(t, "2", snap[1].ID)

	snap[0].ID = "mutated"
	assert.Equal(t, "1", l.Snapshot()[0].ID, "snapshot must be a copy")
}

func TestLog_BoundedEviction(t *testing.T) {
	l := NewLog(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Record(ctx, Event{ID: fmt.Sprintf("%d", i), Timestamp: time.Now()})
	}

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "2", snap[0].ID, "oldest entries are evicted first")
	assert.Equal(t, "4", snap[2].ID)
}

func TestLog_CountSince(t *testing.T) {
	l := NewLog(0)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		l.Record(ctx, Event{
			Type:      TypePermissionDenied,
			UserID:    "u1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	// Interleaved noise: other users and other event types.
	l.Record(ctx, Event{Type: TypePermissionDenied, UserID: "u2", Timestamp: base.Add(5 * time.Minute)})
	l.Record(ctx, Event{Type: TypePermissionGranted, UserID: "u1", Timestamp: base.Add(5 * time.Minute)})

	cutoff := base.Add(2 * time.Minute)
	assert.Equal(t, 4, l.CountSince("u1", TypePermissionDenied, cutoff),
		"counts entries at or after the cutoff only")
	assert.Equal(t, 1, l.CountSince("u2", TypePermissionDenied, cutoff))
	assert.Equal(t, 0, l.CountSince("u3", TypePermissionDenied, cutoff))
}

func TestLog_CountSinceInclusiveAtCutoff(t *testing.T) {
	l := NewLog(0)
	cutoff := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	l.Record(context.Background(), Event{Type: TypePermissionDenied, UserID: "u1", Timestamp: cutoff})

	assert.Equal(t, 1, l.CountSince("u1", TypePermissionDenied, cutoff))
}

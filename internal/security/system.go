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

package security

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/internal/alert"
	"github.com/gatewarden/gatewarden/internal/audit"
)

// System holds the permission, role, and user catalogs and answers access
// checks against them. It is an explicit, constructible object: hosts own
// an instance and inject it where needed, so tests get fresh state per
// case and there is no hidden global.
//
// The registries are read-mostly maps guarded by a reader-writer lock;
// registration is an idempotent upsert by id (last write wins, no merge).
// There is no remove: retiring an entitlement means re-registering the
// record with restricted grants.
type System struct {
	mu          sync.RWMutex
	permissions map[string]*Permission
	roles       map[string]*Role
	users       map[string]*User
	predicates  map[string]Predicate

	log       *audit.Log
	recorder  audit.Recorder
	escalator *alert.Escalator

	now func() time.Time
}

// NewSystem creates a permission system. recorder may be nil when no
// external audit sink is wired; the bounded in-memory log is always kept.
// notifier nil selects the slog notifier. threshold and window tune
// denial escalation; zero values select the defaults.
func NewSystem(recorder audit.Recorder, notifier alert.Notifier, threshold int, window time.Duration) *System {
	if notifier == nil {
		notifier = alert.NewSlogNotifier()
	}
	return &System{
		permissions: make(map[string]*Permission),
		roles:       make(map[string]*Role),
		users:       make(map[string]*User),
		predicates:  make(map[string]Predicate),
		log:         audit.NewLog(0),
		recorder:    recorder,
		escalator:   alert.NewEscalator(threshold, window, notifier),
		now:         time.Now,
	}
}

// SetAuditCapacity replaces the in-memory audit log with an empty one
// bounded to n entries. Call during setup, before checks run.
func (s *System) SetAuditCapacity(n int) {
	s.log = audit.NewLog(n)
}

// AddPermission registers or replaces a permission.
func (s *System) AddPermission(p *Permission) error {
	if p == nil || p.ID == "" {
		return ErrInvalidPermission
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[p.ID] = p
	return nil
}

// AddRole registers or replaces a role.
func (s *System) AddRole(r *Role) error {
	if r == nil || r.ID == "" {
		return ErrInvalidRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
	return nil
}

// AddUser registers or replaces a user.
func (s *System) AddUser(u *User) error {
	if u == nil || u.ID == "" {
		return ErrUserNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// GetUser looks up a registered user by id.
func (s *System) GetUser(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// GetRole looks up a registered role by id.
func (s *System) GetRole(id string) (*Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	return r, ok
}

// GetPermission looks up a registered permission by id.
func (s *System) GetPermission(id string) (*Permission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[id]
	return p, ok
}

// RegisterPredicate installs a host hook for "custom" conditions whose
// field names it.
func (s *System) RegisterPredicate(name string, p Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predicates[name] = p
}

// Check decides whether the context's user may perform action on
// resource. Matching permissions are OR'd: the first one whose conditions
// all hold grants access. Every decision path emits an audit event, and
// any panic during evaluation converts to a deny; there is no code path
// where an internal error grants access.
func (s *System) Check(ctx context.Context, sc *Context, resource, action string) (granted bool) {
	start := s.now()

	defer func() {
		if r := recover(); r != nil {
			granted = false
			s.record(ctx, audit.Event{
				Type:     audit.TypePermissionCheckError,
				UserID:   sc.User.ID,
				Resource: resource,
				Action:   action,
				Context: map[string]any{
					"error": fmt.Sprint(r),
					"ip":    sc.Session.IP,
				},
			})
		}
	}()

	effective := s.EffectivePermissions(sc.User)

	var matching []*Permission
	for _, p := range effective {
		if p.Matches(resource, action) {
			matching = append(matching, p)
		}
	}

	if len(matching) == 0 {
		s.record(ctx, audit.Event{
			Type:     audit.TypePermissionDenied,
			UserID:   sc.User.ID,
			Resource: resource,
			Action:   action,
			Context: map[string]any{
				"reason": "no matching permission",
				"ip":     sc.Session.IP,
			},
		})
		return false
	}

	for _, p := range matching {
		if s.evalConditions(p.Conditions, sc) {
			s.record(ctx, audit.Event{
				Type:     audit.TypePermissionGranted,
				UserID:   sc.User.ID,
				Resource: resource,
				Action:   action,
				Context: map[string]any{
					"permission_id": p.ID,
					"ip":            sc.Session.IP,
					"latency_ms":    s.now().Sub(start).Milliseconds(),
				},
			})
			return true
		}
		s.record(ctx, audit.Event{
			Type:     audit.TypePermissionConditionFailed,
			UserID:   sc.User.ID,
			Resource: resource,
			Action:   action,
			Context: map[string]any{
				"permission_id": p.ID,
				"ip":            sc.Session.IP,
			},
		})
	}

	// Permissions matched but none qualified. A closing denial event is
	// emitted so denial counting treats this path the same as a miss.
	s.record(ctx, audit.Event{
		Type:     audit.TypePermissionDenied,
		UserID:   sc.User.ID,
		Resource: resource,
		Action:   action,
		Context: map[string]any{
			"reason": "conditions not satisfied",
			"ip":     sc.Session.IP,
		},
	})
	return false
}

// HasPermission is a convenience wrapper: it looks the user up by id,
// builds a default session context when none is supplied, and delegates
// to Check. An unknown user is denied.
func (s *System) HasPermission(ctx context.Context, userID, resource, action string, session *Session) bool {
	user, ok := s.GetUser(userID)
	if !ok {
		slog.DebugContext(ctx, "permission check for unknown user", slog.String("user_id", userID))
		return false
	}

	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		IP:        "127.0.0.1",
		UserAgent: "Unknown",
		StartTime: now,
	}
	if session != nil {
		sess = *session
	}

	return s.Check(ctx, &Context{
		User:    user,
		Session: sess,
		Request: Request{
			Resource:  resource,
			Action:    action,
			Timestamp: now,
		},
	}, resource, action)
}

// AuditLog returns a copy of the retained audit entries, oldest first.
func (s *System) AuditLog() []audit.Event {
	return s.log.Snapshot()
}

// record stamps and persists a decision event, then feeds denial
// escalation.
func (s *System) record(ctx context.Context, event audit.Event) {
	event.ID = uuid.NewString()
	event.Timestamp = s.now()

	s.log.Record(ctx, event)
	if s.recorder != nil {
		s.recorder.Record(ctx, event)
	}

	if event.Type == audit.TypePermissionDenied {
		cutoff := event.Timestamp.Add(-s.escalator.Window())
		count := s.log.CountSince(event.UserID, audit.TypePermissionDenied, cutoff)
		s.escalator.DenialObserved(ctx, event.UserID, count, event.Timestamp)
	}
}

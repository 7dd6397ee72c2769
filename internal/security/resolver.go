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

// EffectivePermissions computes the full set of permissions reachable for
// a user at this moment: direct grants plus everything granted through the
// transitive closure of the user's roles under inheritance, where every
// role on the path satisfies its own activation conditions.
//
// Resolution is request-independent; resource/action matching and
// permission conditions are applied later, per check.
func (s *System) EffectivePermissions(user *User) []*Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effectivePermissionsLocked(user)
}

func (s *System) effectivePermissionsLocked(user *User) []*Permission {
	seen := make(map[string]struct{})
	var result []*Permission

	add := func(permID string) {
		if _, dup := seen[permID]; dup {
			return
		}
		// Stale permission references are skipped, not errors.
		perm, ok := s.permissions[permID]
		if !ok {
			return
		}
		seen[permID] = struct{}{}
		result = append(result, perm)
	}

	for _, permID := range user.Permissions {
		add(permID)
	}

	// Breadth-first walk over the role graph. The visited set guarantees
	// termination even when the inheritance graph contains cycles.
	queue := make([]string, 0, len(user.Roles))
	queue = append(queue, user.Roles...)
	visited := make(map[string]struct{}, len(queue))

	for len(queue) > 0 {
		roleID := queue[0]
		queue = queue[1:]

		if _, done := visited[roleID]; done {
			continue
		}
		visited[roleID] = struct{}{}

		role, ok := s.roles[roleID]
		if !ok {
			continue
		}

		// A failed activation condition prunes this role entirely:
		// neither its permissions nor its inherited branch apply.
		if !evalRoleConditions(role.Conditions, user) {
			continue
		}

		for _, permID := range role.Permissions {
			add(permID)
		}
		queue = append(queue, role.Inherits...)
	}

	return result
}

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
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"
	"strings"

	"github.com/antonmedv/expr"
)

// Predicate is a host-registered hook for "custom" conditions. It receives
// the full evaluation context and decides whether the condition holds.
type Predicate func(ctx *Context) bool

// evalConditions applies a permission's condition list conjunctively.
// An empty list is vacuously true.
func (s *System) evalConditions(conds []Condition, ctx *Context) bool {
	for _, c := range conds {
		if !s.evalCondition(c, ctx) {
			return false
		}
	}
	return true
}

// evalCondition evaluates a single condition. Unrecognized types and
// operators are denied, never granted.
func (s *System) evalCondition(c Condition, ctx *Context) bool {
	switch c.Type {
	case ConditionTime:
		return s.evalTimeCondition(c)
	case ConditionIP:
		return evalIPCondition(c, ctx.Session.IP)
	case ConditionLocation:
		// No geolocation source is wired; hosts that need location
		// restrictions register a custom predicate instead.
		return true
	case ConditionDevice:
		return evalDeviceCondition(c, ctx.Session.UserAgent)
	case ConditionCustom:
		return s.evalCustomCondition(c, ctx)
	default:
		slog.Warn("unknown condition type", slog.String("type", string(c.Type)))
		return false
	}
}

// evalTimeCondition handles time-of-day windows. Only the "between"
// operator is supported: value is a ["HH:MM", "HH:MM"] pair compared
// inclusively against the current wall clock. Overnight windows where
// start > end are not supported.
func (s *System) evalTimeCondition(c Condition) bool {
	if c.Operator != OpBetween {
		slog.Warn("unsupported time condition operator", slog.String("operator", string(c.Operator)))
		return false
	}
	bounds := toStringSlice(c.Value)
	if len(bounds) != 2 {
		return false
	}
	start, err := parseClock(bounds[0])
	if err != nil {
		return false
	}
	end, err := parseClock(bounds[1])
	if err != nil {
		return false
	}
	now := s.now()
	minutes := now.Hour()*60 + now.Minute()
	return start <= minutes && minutes <= end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(v string) (int, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("clock value %q out of range", v)
	}
	return hours*60 + mins, nil
}

func evalIPCondition(c Condition, clientIP string) bool {
	switch c.Operator {
	case OpEquals:
		v, ok := c.Value.(string)
		return ok && v == clientIP
	case OpIn:
		addr, err := netip.ParseAddr(clientIP)
		if err != nil {
			return false
		}
		for _, entry := range toStringSlice(c.Value) {
			if strings.Contains(entry, "/") {
				prefix, err := netip.ParsePrefix(entry)
				if err != nil {
					slog.Warn("invalid CIDR in ip condition", slog.String("cidr", entry))
					continue
				}
				if prefix.Contains(addr) {
					return true
				}
			} else if entry == clientIP {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func evalDeviceCondition(c Condition, userAgent string) bool {
	if c.Operator != OpContains {
		return false
	}
	v, ok := c.Value.(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(userAgent), strings.ToLower(v))
}

// evalCustomCondition dispatches to a predicate registered under the
// condition's field name. When no predicate is registered and the value is
// a string, it is compiled and run as a boolean expression over the
// context. A custom condition with neither passes: the hook exists for
// hosts to tighten, not to lock everyone out by default.
func (s *System) evalCustomCondition(c Condition, ctx *Context) bool {
	s.mu.RLock()
	pred, ok := s.predicates[c.Field]
	s.mu.RUnlock()
	if ok {
		return pred(ctx)
	}

	if src, isExpr := c.Value.(string); isExpr && src != "" {
		return evalExpression(src, ctx)
	}
	return true
}

// evalExpression runs a condition expression against the evaluation
// context. Compile or runtime errors deny.
func evalExpression(src string, ctx *Context) bool {
	env := map[string]any{
		"user": map[string]any{
			"id":         ctx.User.ID,
			"department": ctx.User.Department,
			"level":      ctx.User.Level,
			"roles":      ctx.User.Roles,
		},
		"session": map[string]any{
			"ip":         ctx.Session.IP,
			"user_agent": ctx.Session.UserAgent,
			"device":     ctx.Session.Device,
		},
		"request": map[string]any{
			"resource": ctx.Request.Resource,
			"action":   ctx.Request.Action,
			"data":     ctx.Request.Data,
		},
	}

	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		slog.Warn("failed to compile condition expression", slog.String("error", err.Error()))
		return false
	}
	out, err := expr.Run(program, env)
	if err != nil {
		slog.Warn("failed to run condition expression", slog.String("error", err.Error()))
		return false
	}
	result, ok := out.(bool)
	return ok && result
}

// evalRoleConditions applies a role's activation conditions against the
// user record. All must hold for the role (and its inherited roles) to
// contribute permissions.
func evalRoleConditions(conds []RoleCondition, user *User) bool {
	for _, c := range conds {
		if !evalRoleCondition(c, user) {
			return false
		}
	}
	return true
}

func evalRoleCondition(c RoleCondition, user *User) bool {
	switch c.Field {
	case "department":
		return compareString(user.Department, c)
	case "email":
		return compareString(user.Email, c)
	case "level":
		return compareInt(user.Level, c)
	default:
		return false
	}
}

func compareString(have string, c RoleCondition) bool {
	switch c.Operator {
	case OpEquals:
		want, ok := c.Value.(string)
		return ok && have == want
	case OpContains:
		want, ok := c.Value.(string)
		return ok && strings.Contains(have, want)
	case OpIn:
		for _, want := range toStringSlice(c.Value) {
			if have == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareInt(have int, c RoleCondition) bool {
	want, ok := toInt(c.Value)
	if !ok {
		return false
	}
	switch c.Operator {
	case OpEquals:
		return have == want
	case OpGreater:
		return have > want
	case OpLess:
		return have < want
	default:
		return false
	}
}

// toStringSlice normalizes condition values that arrive either as typed
// slices or as []any decoded from JSON.
func toStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

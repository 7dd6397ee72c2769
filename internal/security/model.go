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
	"errors"
	"time"
)

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrInvalidPermission  = errors.New("invalid permission")
	ErrInvalidRole        = errors.New("invalid role")
)

// ConditionType identifies the kind of predicate attached to a permission.
type ConditionType string

const (
	ConditionTime     ConditionType = "time"
	ConditionIP       ConditionType = "ip"
	ConditionLocation ConditionType = "location"
	ConditionDevice   ConditionType = "device"
	ConditionCustom   ConditionType = "custom"
)

// Operator defines the comparison semantics of a condition.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
	OpBetween  Operator = "between"
	OpGreater  Operator = "greater"
	OpLess     Operator = "less"
)

// Condition is a single predicate attached to a permission. All conditions
// on a permission are conjunctive: every one must hold for the permission
// to apply to a request.
type Condition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator"`
	Value    any           `json:"value"`
	// Field names the registered custom predicate or expression to run
	// when Type is "custom". Unused by the built-in condition types.
	Field string `json:"field,omitempty"`
}

// Permission grants a (resource, action) pair, optionally guarded by
// conditions. Resource is a dot-segmented identifier and may be the bare
// wildcard "*" or contain "*"/"?" glob wildcards. Action is a literal
// or "*".
type Permission struct {
	ID         string      `json:"id"`
	Resource   string      `json:"resource"`
	Action     string      `json:"action"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// RoleCondition is a predicate over the user record (not the request),
// e.g. department equals "sales" or level greater 3.
type RoleCondition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Role bundles permissions with optional inheritance and activation
// conditions. A role's permissions are granted to a user only when every
// RoleCondition holds for that user; a failed condition prunes the role
// and everything it inherits.
type Role struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Permissions []string        `json:"permissions"`
	Inherits    []string        `json:"inherits,omitempty"`
	IsSystem    bool            `json:"is_system,omitempty"`
	Conditions  []RoleCondition `json:"conditions,omitempty"`
}

// User is an identity with direct and role-derived entitlements.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Department  string   `json:"department,omitempty"`
	Level       int      `json:"level,omitempty"`
}

// Session carries the request-scoped client attributes conditions
// evaluate against.
type Session struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Device    string    `json:"device,omitempty"`
	StartTime time.Time `json:"start_time"`
}

// Request describes the access being attempted.
type Request struct {
	Resource  string         `json:"resource"`
	Action    string         `json:"action"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Context is the ephemeral evaluation context for a single access check.
// It is constructed per call and never persisted.
type Context struct {
	User    *User   `json:"user"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

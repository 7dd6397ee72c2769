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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermission_Matches_Resources(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		resource string
		want     bool
	}{
		{"exact match", "customer", "customer", true},
		{"exact mismatch", "customer", "task", false},
		{"bare wildcard matches anything", "*", "finance.invoice", true},
		{"bare wildcard matches empty", "*", "", true},
		{"segment wildcard matches read", "customer.*", "customer.read", true},
		{"segment wildcard matches export", "customer.*", "customer.export", true},
		{"segment wildcard rejects other domain", "customer.*", "task.read", false},
		{"segment wildcard rejects bare prefix", "customer.*", "customer", false},
		{"wildcard spans segments", "finance.*", "finance.invoice.read", true},
		{"question mark matches one char", "report.v?", "report.v1", true},
		{"question mark rejects two chars", "report.v?", "report.v12", false},
		{"question mark rejects zero chars", "report.v?", "report.v", false},
		{"dot is literal not regex", "a.b", "axb", false},
		{"mid-pattern wildcard", "customer.*.export", "customer.eu.export", true},
		{"mid-pattern wildcard mismatch", "customer.*.export", "customer.eu.read", false},
		{"empty request only matches empty-capable patterns", "customer.*", "", false},
		{"empty pattern matches empty request", "", "", true},
		{"empty pattern rejects non-empty", "", "customer", false},
		{"star suffix matches empty run", "customer*", "customer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Permission{ID: "p", Resource: tt.pattern, Action: "*"}
			assert.Equal(t, tt.want, p.Matches(tt.resource, "read"))
		})
	}
}

func TestPermission_Matches_Actions(t *testing.T) {
	tests := []struct {
		name   string
		perm   string
		action string
		want   bool
	}{
		{"exact", "read", "read", true},
		{"mismatch", "read", "write", false},
		{"wildcard", "*", "delete", true},
		{"wildcard matches empty", "*", "", true},
		{"empty action only matches empty or wildcard", "read", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Permission{ID: "p", Resource: "*", Action: tt.perm}
			assert.Equal(t, tt.want, p.Matches("customer", tt.action))
		})
	}
}

func TestPermission_Matches_BothMustMatch(t *testing.T) {
	p := &Permission{ID: "p", Resource: "customer.*", Action: "read"}

	assert.True(t, p.Matches("customer.read", "read"))
	assert.False(t, p.Matches("customer.read", "write"), "action mismatch must deny")
	assert.False(t, p.Matches("task.read", "read"), "resource mismatch must deny")
}

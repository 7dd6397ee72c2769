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

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gatewarden/gatewarden/internal/observability/logger"
	"github.com/gatewarden/gatewarden/internal/security"
	"github.com/gatewarden/gatewarden/internal/token"
)

// TokenRequest exchanges an API key for a bearer token.
type TokenRequest struct {
	Subject string `json:"subject"`
	APIKey  string `json:"api_key"`
}

// IssueToken authenticates an API key and returns a short-lived JWT.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject == "" || req.APIKey == "" {
		respondError(w, http.StatusBadRequest, "subject and api_key are required")
		return
	}

	key, err := h.keys.GetBySubject(r.Context(), req.Subject)
	if err != nil {
		if !errors.Is(err, token.ErrAPIKeyNotFound) {
			slog.ErrorContext(r.Context(), "failed to load api key", logger.Error(err))
		}
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	match, err := h.hasher.Verify(req.APIKey, key.KeyHash)
	if err != nil || !match {
		slog.WarnContext(r.Context(), "rejected api key",
			logger.String("subject", req.Subject))
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	signed, err := h.tokens.Issue(key.Subject, key.Scope)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": signed,
		"token_type":   "Bearer",
	})
}

// CreatePermission registers a permission and persists it.
func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var p security.Permission
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.system.AddPermission(&p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.directory.Permissions != nil {
		if err := h.directory.Permissions.Upsert(r.Context(), &p); err != nil {
			slog.ErrorContext(r.Context(), "failed to persist permission",
				logger.Error(err),
				logger.PermissionID(p.ID))
			respondError(w, http.StatusInternalServerError, "failed to persist permission")
			return
		}
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": p.ID})
}

// CreateRole registers a role and persists it.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var role security.Role
	if err := json.NewDecoder(r.Body).Decode(&role); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.system.AddRole(&role); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.directory.Roles != nil {
		if err := h.directory.Roles.Upsert(r.Context(), &role); err != nil {
			slog.ErrorContext(r.Context(), "failed to persist role",
				logger.Error(err),
				logger.RoleID(role.ID))
			respondError(w, http.StatusInternalServerError, "failed to persist role")
			return
		}
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": role.ID})
}

// CreateUser registers a user and persists them.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var u security.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.system.AddUser(&u); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.directory.Users != nil {
		if err := h.directory.Users.Upsert(r.Context(), &u); err != nil {
			slog.ErrorContext(r.Context(), "failed to persist user",
				logger.Error(err),
				logger.UserID(u.ID))
			respondError(w, http.StatusInternalServerError, "failed to persist user")
			return
		}
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": u.ID})
}

// ListAuditEvents returns the newest retained audit entries, most
// recent first. The optional limit parameter caps the result.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events := h.system.AuditLog()
	if len(events) > limit {
		events = events[len(events)-limit:]
	}

	// Newest first.
	out := make([]map[string]any, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		out = append(out, map[string]any{
			"id":        e.ID,
			"type":      e.Type,
			"user_id":   e.UserID,
			"resource":  e.Resource,
			"action":    e.Action,
			"timestamp": e.Timestamp,
			"context":   e.Context,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"events": out,
		"count":  len(out),
	})
}

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
	"log/slog"
	"net/http"
	"time"

	"github.com/gatewarden/gatewarden/internal/observability/logger"
	"github.com/gatewarden/gatewarden/internal/security"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CheckRequest asks whether a user may perform an action on a resource.
// Session is optional; when absent, the caller's transport details are
// used as the session context.
type CheckRequest struct {
	UserID   string          `json:"user_id"`
	Resource string          `json:"resource"`
	Action   string          `json:"action"`
	Session  *SessionPayload `json:"session,omitempty"`
	Data     map[string]any  `json:"data,omitempty"`
}

// SessionPayload carries the environment the decision is evaluated in.
type SessionPayload struct {
	ID        string `json:"id,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Device    string `json:"device,omitempty"`
}

// CheckResponse is the decision outcome.
type CheckResponse struct {
	Granted  bool   `json:"granted"`
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// CheckPermission evaluates an access decision.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Resource == "" || req.Action == "" {
		respondError(w, http.StatusBadRequest, "user_id, resource and action are required")
		return
	}

	start := time.Now()
	granted := h.evaluate(r, &req)
	latency := float64(time.Since(start).Microseconds()) / 1000.0

	h.decisions.RecordDecision(r.Context(), granted, latency)

	slog.InfoContext(r.Context(), "access decision",
		logger.UserID(req.UserID),
		logger.Resource(req.Resource),
		logger.Action(req.Action),
		logger.Granted(granted),
	)

	respondJSON(w, http.StatusOK, CheckResponse{
		Granted:  granted,
		UserID:   req.UserID,
		Resource: req.Resource,
		Action:   req.Action,
	})
}

// evaluate builds the decision context and runs it through the engine.
// An unknown user yields a denial, never an error.
func (h *Handler) evaluate(r *http.Request, req *CheckRequest) bool {
	user, ok := h.system.GetUser(req.UserID)
	if !ok {
		slog.DebugContext(r.Context(), "decision requested for unknown user",
			logger.UserID(req.UserID))
		return false
	}

	sess := security.Session{
		ID:        uuid.NewString(),
		IP:        getIPAddress(r),
		UserAgent: r.UserAgent(),
		StartTime: time.Now(),
	}
	if req.Session != nil {
		if req.Session.ID != "" {
			sess.ID = req.Session.ID
		}
		if req.Session.IP != "" {
			sess.IP = req.Session.IP
		}
		if req.Session.UserAgent != "" {
			sess.UserAgent = req.Session.UserAgent
		}
		sess.Device = req.Session.Device
	}

	return h.system.Check(r.Context(), &security.Context{
		User:    user,
		Session: sess,
		Request: security.Request{
			Resource:  req.Resource,
			Action:    req.Action,
			Data:      req.Data,
			Timestamp: time.Now(),
		},
	}, req.Resource, req.Action)
}

// EffectivePermissions lists the flattened permission set a user holds
// after role resolution, before condition evaluation.
func (h *Handler) EffectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, ok := h.system.GetUser(userID)
	if !ok {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	perms := h.system.EffectivePermissions(user)
	out := make([]map[string]any, 0, len(perms))
	for _, p := range perms {
		out = append(out, map[string]any{
			"id":       p.ID,
			"resource": p.Resource,
			"action":   p.Action,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":     userID,
		"permissions": out,
	})
}

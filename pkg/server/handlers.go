// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/abcd1927/AI-coding-demo/pkg/core"
	cerrors "github.com/abcd1927/AI-coding-demo/pkg/errors"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 50

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
}

type statusResponse struct {
	SessionID      string            `json:"session_id"`
	Status         session.Status    `json:"status"`
	Actions        *[]session.Action `json:"actions,omitempty"`
	NewActions     *[]session.Action `json:"new_actions,omitempty"`
	UnreadChannels []session.Channel `json:"unread_channels"`
	FinalReply     *string           `json:"final_reply"`
}

type skillSummary struct {
	ID          string `json:"skill_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type healthResponse struct {
	Status     core.HealthStatus   `json:"status"`
	Components []core.HealthResult `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthComponents(w http.ResponseWriter, r *http.Request) {
	results, overall := s.deps.Health.CheckAll(r.Context())
	code := http.StatusOK
	if overall == core.HealthUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{Status: overall, Components: results})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeValidationError(w, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeValidationError(w, "message must not be empty")
		return
	}

	snap := s.deps.Store.Create()
	if err := s.deps.Runner.Submit(r.Context(), snap.ID, req.Message); err != nil {
		_ = s.deps.Store.Delete(snap.ID)
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: snap.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	snap, err := s.deps.Store.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := statusResponse{
		SessionID:      snap.ID,
		Status:         snap.Status,
		UnreadChannels: snap.UnreadChannels,
		FinalReply:     snap.FinalReply,
	}
	if resp.UnreadChannels == nil {
		resp.UnreadChannels = []session.Channel{}
	}

	if raw := r.URL.Query().Get("after_index"); raw != "" {
		after, err := strconv.Atoi(raw)
		if err != nil {
			writeValidationError(w, "after_index must be an integer")
			return
		}
		actions, err := s.deps.Store.Actions(id, after)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.NewActions = &actions
	} else {
		actions := snap.Actions
		if actions == nil {
			actions = []session.Action{}
		}
		resp.Actions = &actions
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMessages returns a channel's messages and clears its unread flag.
// Without session_id the most recent session is used.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	channel, err := session.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	id := r.URL.Query().Get("session_id")
	if id == "" {
		latest, err := s.deps.Store.Latest()
		if cerrors.Is(err, cerrors.CodeSessionNotFound) {
			writeJSON(w, http.StatusOK, []session.Message{})
			return
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		id = latest.ID
	}

	msgs, err := s.deps.Store.Messages(id, channel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.deps.Store.ClearUnread(id, channel); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleClearSessions(w http.ResponseWriter, _ *http.Request) {
	s.deps.Store.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"message": "sessions cleared"})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Delete(chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session cleared"})
}

func (s *Server) handleOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Orders.List())
}

func (s *Server) handleResetOrders(w http.ResponseWriter, _ *http.Request) {
	s.deps.Orders.Reset()
	s.logger.Info("orders.reset")
	writeJSON(w, http.StatusOK, s.deps.Orders.List())
}

func (s *Server) handleSkills(w http.ResponseWriter, _ *http.Request) {
	list := s.deps.Skills.List()
	out := make([]skillSummary, len(list))
	for i, skill := range list {
		out[i] = skillSummary{ID: skill.ID, Name: skill.Name, Description: skill.Description}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "skillID")
	skill, ok := s.deps.Skills.Get(id)
	if !ok {
		s.writeError(w, cerrors.Newf(cerrors.CodeSkillNotFound, "skill %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Tools.List())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeValidationError(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.deps.Store.History().List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []session.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Store.History().Get(r.Context(), chi.URLParam(r, "executionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type errorBody struct {
	Error     bool   `json:"error"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := cerrors.CodeOf(err)
	status := cerrors.StatusCode(err)
	msg := cerrors.Message(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http.error", slog.String("code", string(code)), slog.String("error", err.Error()))
		if code == cerrors.CodeInternal {
			msg = "internal server error"
		}
	}
	writeJSON(w, status, errorBody{Error: true, ErrorType: string(code), Message: msg})
}

func writeValidationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: true, ErrorType: "VALIDATION_ERROR", Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

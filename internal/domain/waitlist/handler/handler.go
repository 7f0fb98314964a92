// Package handler exposes waitlist signup and activation over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
	"github.com/FACorreiaa/income-tracker/internal/domain/waitlist/service"
)

// WaitlistHandler serves the waitlist endpoints.
type WaitlistHandler struct {
	svc    *service.WaitlistService
	logger *slog.Logger
}

// NewWaitlistHandler creates a new waitlist handler.
func NewWaitlistHandler(svc *service.WaitlistService, logger *slog.Logger) *WaitlistHandler {
	return &WaitlistHandler{svc: svc, logger: logger}
}

type joinRequest struct {
	Email string `json:"email"`
}

type joinResponse struct {
	Position      int  `json:"position"`
	AlreadyJoined bool `json:"alreadyJoined"`
}

// Join handles public waitlist signups from the landing page.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		api.WriteError(w, http.StatusBadRequest, "email is required")
		return
	}

	_, position, already, err := h.svc.Join(r.Context(), req.Email)
	if errors.Is(err, service.ErrInvalidEmail) {
		api.WriteError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err != nil {
		h.logger.Error("waitlist signup failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "signup failed, please try again")
		return
	}

	message := "You're on the waitlist!"
	switch {
	case already:
		message = "You're already on the waitlist!"
	case position > 0:
		message = fmt.Sprintf("You're #%d on the waitlist!", position)
	}

	api.WriteJSON(w, http.StatusOK, api.Envelope{
		Success: true,
		Data:    joinResponse{Position: position, AlreadyJoined: already},
		Message: message,
	})
}

// Invite generates and emails an invite code for a waitlist entry. Requires
// authentication.
func (h *WaitlistHandler) Invite(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid waitlist entry id")
		return
	}

	code, err := h.svc.Invite(r.Context(), id)
	if errors.Is(err, service.ErrEntryNotFound) {
		api.WriteError(w, http.StatusNotFound, "waitlist entry not found")
		return
	}
	if err != nil {
		h.logger.Error("invite failed", slog.String("id", id.String()), slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "invite failed")
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{"inviteCode": code})
}

type activateRequest struct {
	Code string `json:"code"`
}

// Activate redeems an invite code.
func (h *WaitlistHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		api.WriteError(w, http.StatusBadRequest, "activation code is required")
		return
	}

	entry, err := h.svc.Activate(r.Context(), req.Code)
	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		api.WriteError(w, http.StatusNotFound, "invalid activation code")
		return
	case errors.Is(err, service.ErrCodeAlreadyUsed):
		api.WriteError(w, http.StatusConflict, "activation code already used")
		return
	case err != nil:
		h.logger.Error("activation failed", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "activation failed")
		return
	}

	api.WriteSuccess(w, http.StatusOK, entry)
}

// Stats returns aggregate waitlist metrics. Requires authentication.
func (h *WaitlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		api.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to get waitlist stats", slog.Any("error", err))
		api.WriteError(w, http.StatusInternalServerError, "failed to get waitlist stats")
		return
	}

	api.WriteSuccess(w, http.StatusOK, stats)
}

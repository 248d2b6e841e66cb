package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	mw "fitdiary/internal/middleware"
	"fitdiary/internal/realtime"
	"fitdiary/internal/settings"
)

// SettingsService is what the settings endpoints need from settings.Service.
type SettingsService interface {
	Get(ctx context.Context, userID int) (settings.Settings, error)
	Update(ctx context.Context, userID int, p settings.Patch) (settings.Settings, error)
	Subscribe(userID int) (<-chan settings.Settings, func())
}

type SettingsHandler struct {
	settings SettingsService
	hub      *realtime.Hub
	logger   *zap.Logger
}

func NewSettingsHandler(svc SettingsService, hub *realtime.Hub, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: svc, hub: hub, logger: logger}
}

// SettingsEvent is pushed to websocket clients after a settings change.
type SettingsEvent struct {
	Kind     string            `json:"kind"`
	Settings settings.Settings `json:"settings"`
}

const kindSettingsUpdated = "settings.updated"

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	st, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("get settings failed", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not fetch settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Patch changes only the keys present in the body.
func (h *SettingsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	var p settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	st, err := h.settings.Update(r.Context(), userID, p)
	var inv *settings.InvalidError
	if errors.As(err, &inv) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"field": inv.Key, "message": inv.Error()})
		return
	}
	if err != nil {
		h.logger.Error("update settings failed", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not save settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Stream upgrades to a websocket. The connection receives reminders from the
// scheduler and a settings.updated event whenever the user's settings
// change, starting with the current settings.
func (h *SettingsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, _ := mw.UserIDFrom(r.Context())

	updates, cancel := h.settings.Subscribe(userID)
	defer cancel()

	client, err := h.hub.Serve(w, r, userID)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", zap.Int("user_id", userID), zap.Error(err))
		return
	}

	if st, err := h.settings.Get(r.Context(), userID); err == nil {
		h.hub.Send(client, SettingsEvent{Kind: kindSettingsUpdated, Settings: st})
	}

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			h.hub.Send(client, SettingsEvent{Kind: kindSettingsUpdated, Settings: st})
		case <-client.Done():
			return
		}
	}
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/identity"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/pkg/api"
)

// SettingsHandler обрабатывает настройки сайта
type SettingsHandler struct {
	responder
	settingsStorage storage.SettingsStorage
	opts            Options
}

// NewSettingsHandler создает handler настроек
func NewSettingsHandler(logger *slog.Logger, settingsStorage storage.SettingsStorage, opts Options) *SettingsHandler {
	return &SettingsHandler{
		responder:       responder{logger: logger},
		settingsStorage: settingsStorage,
		opts:            opts.withDefaults(),
	}
}

// GetSettings обрабатывает GET /api/v1/settings
// При первом чтении создает настройки по умолчанию
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request, _ identity.Identity) {
	st, err := h.current(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load settings", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.SettingsResponse{Settings: st}, http.StatusOK)
}

// UpdateSettings обрабатывает PUT /api/v1/settings (только admin)
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	ctx := r.Context()

	var patch models.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.logger.WarnContext(ctx, "failed to decode settings request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if patch.IsEmpty() {
		h.sendError(w, "no fields to update", http.StatusBadRequest)
		return
	}

	st, err := h.current(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load settings", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	patch.Apply(st)
	st.UpdatedAt = h.opts.Now().UTC()

	if err := h.settingsStorage.SaveSettings(ctx, st); err != nil {
		h.logger.ErrorContext(ctx, "failed to save settings", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "settings updated", slog.String("user_id", id.ID))
	h.sendJSON(w, api.SettingsResponse{Settings: st}, http.StatusOK)
}

func (h *SettingsHandler) current(ctx context.Context) (*models.Settings, error) {
	st, err := h.settingsStorage.GetSettings(ctx)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, storage.ErrSettingsNotFound) {
		return nil, err
	}

	defaults := models.DefaultSettings()
	defaults.UpdatedAt = h.opts.Now().UTC()
	if err := h.settingsStorage.SaveSettings(ctx, &defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

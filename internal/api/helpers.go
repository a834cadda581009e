// Package api implements the HTTP REST API of the power-control daemon.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/micro-nova/powctl-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is the interface the handlers use to reach the charger.
type Controller interface {
	Charger(ctx context.Context) (models.ChargerState, *models.AppError)
	UpdateCharger(ctx context.Context, upd models.ChargerUpdate) (models.ChargerState, *models.AppError)
	ResetWatchdog(ctx context.Context) *models.AppError
	SetInterruptEnabled(enabled bool) *models.AppError
	Devices() []models.DeviceInfo
}

// EventBus is the interface for subscribing to charger notifications.
type EventBus interface {
	Subscribe(id string) <-chan models.Notification
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v interface{}) *models.AppError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

package api

import (
	"net/http"

	"github.com/micro-nova/powctl-go/internal/models"
)

func (h *Handlers) getCharger(w http.ResponseWriter, r *http.Request) {
	st, appErr := h.ctrl.Charger(r.Context())
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) setCharger(w http.ResponseWriter, r *http.Request) {
	var upd models.ChargerUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	st, appErr := h.ctrl.UpdateCharger(r.Context(), upd)
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) resetWatchdog(w http.ResponseWriter, r *http.Request) {
	if appErr := h.ctrl.ResetWatchdog(r.Context()); appErr != nil {
		writeError(w, appErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setInterrupt(w http.ResponseWriter, r *http.Request) {
	var upd models.InterruptUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	if appErr := h.ctrl.SetInterruptEnabled(upd.Enabled); appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, upd)
}

func (h *Handlers) getDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": h.ctrl.Devices()})
}

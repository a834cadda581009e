package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/micro-nova/powctl-go/internal/models"
)

// sseEvents handles the SSE (Server-Sent Events) endpoint.
// Clients receive the current charger status immediately, then one
// notification per charger interrupt or update.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	// Verify the client supports streaming
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	id := uuid.New().String()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	if st, appErr := h.ctrl.Charger(r.Context()); appErr == nil {
		sendSSE(w, flusher, models.Notification{
			Code:               st.Code,
			Status:             st.Status,
			ChargeCurrentState: st.ChargeCurrentState,
			Time:               time.Now(),
		})
	} else {
		sendSSE(w, flusher, models.Notification{Error: appErr.Message, Time: time.Now()})
	}

	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return
			}
			sendSSE(w, flusher, n)
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

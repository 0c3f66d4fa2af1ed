package timeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/schedule"
)

const defaultPixelsPerHour = 60.0

// InstantSource tells the handler where to place the current-time marker,
// typically a simulator Clock.
type InstantSource interface {
	Instant() schedule.Instant
}

// Handler serves the weekly timeline as JSON: one block per rendered shift
// segment plus a marker at the current instant. The vertical scale is set
// with the pixelsPerHour query parameter.
type Handler struct {
	poller.Poller
	clock  InstantSource
	logger *slog.Logger

	lock    sync.RWMutex
	shifts  schedule.Shifts
	updated bool
}

func NewHandler(p poller.Poller, clock InstantSource, logger *slog.Logger) *Handler {
	return &Handler{
		Poller: p,
		clock:  clock,
		logger: logger,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Debug("started")
	defer h.logger.Debug("stopped")

	ch := h.Poller.Subscribe()
	defer h.Poller.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			h.lock.Lock()
			h.shifts = update.Shifts
			h.updated = true
			h.lock.Unlock()
		}
	}
}

type timelineResponse struct {
	Blocks []Block `json:"blocks"`
	Marker Marker  `json:"marker"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.lock.RLock()
	shifts := h.shifts
	updated := h.updated
	h.lock.RUnlock()

	if !updated {
		http.Error(w, "no update yet", http.StatusServiceUnavailable)
		h.Poller.Refresh()
		return
	}

	pixelsPerHour := defaultPixelsPerHour
	if value := r.URL.Query().Get("pixelsPerHour"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid pixelsPerHour", http.StatusBadRequest)
			return
		}
		pixelsPerHour = parsed
	}

	response := timelineResponse{
		Blocks: Layout(shifts, pixelsPerHour),
		Marker: NowMarker(h.clock.Instant(), pixelsPerHour),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

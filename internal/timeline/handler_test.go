package timeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clambin/go-common/set"
	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ poller.Poller = &fakePoller{}

type fakePoller struct {
	ch chan poller.Update
}

func (f *fakePoller) Subscribe() chan poller.Update    { return f.ch }
func (f *fakePoller) Unsubscribe(_ chan poller.Update) {}
func (f *fakePoller) Refresh()                         {}

type fixedClock struct{ instant schedule.Instant }

func (c fixedClock) Instant() schedule.Instant { return c.instant }

func TestHandler_ServeHTTP(t *testing.T) {
	p := fakePoller{ch: make(chan poller.Update)}
	clock := fixedClock{instant: schedule.Instant{Weekday: time.Wednesday, Time: schedule.MakeTimeOfDay(6, 30)}}
	h := NewHandler(&p, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/timeline", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	p.ch <- poller.Update{Shifts: schedule.Shifts{{
		ID:        "s1",
		VehicleID: "v1",
		Name:      "night run",
		Start:     schedule.MakeTimeOfDay(20, 0),
		End:       schedule.MakeTimeOfDay(6, 0),
		Weekdays:  set.New(time.Friday),
		Enabled:   true,
	}}}

	assert.Eventually(t, func() bool {
		resp = httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/timeline", nil))
		return resp.Code == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	var response timelineResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	require.Len(t, response.Blocks, 2)
	assert.Equal(t, 1200.0, response.Blocks[0].Top)
	assert.True(t, response.Blocks[1].Continuation)
	assert.Equal(t, time.Wednesday, response.Marker.Weekday)
	assert.Equal(t, 390.0, response.Marker.Y)

	// scaled down
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/timeline?pixelsPerHour=30", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, 600.0, response.Blocks[0].Top)

	// invalid scale
	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/timeline?pixelsPerHour=-1", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

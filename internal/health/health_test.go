package health

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clambin/go-common/set"
	"github.com/fleetyard/shift-monitor/internal/poller"
	"github.com/fleetyard/shift-monitor/internal/schedule"
	"github.com/stretchr/testify/assert"
)

var _ poller.Poller = &fakePoller{}

type fakePoller struct {
	ch        chan poller.Update
	refreshes atomic.Int32
}

func (f *fakePoller) Subscribe() chan poller.Update     { return f.ch }
func (f *fakePoller) Unsubscribe(_ chan poller.Update) {}
func (f *fakePoller) Refresh()                          { f.refreshes.Add(1) }

func TestHealth_ServeHTTP(t *testing.T) {
	p := fakePoller{ch: make(chan poller.Update)}
	h := New(&p, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, &http.Request{})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, int32(1), p.refreshes.Load())

	p.ch <- poller.Update{Shifts: schedule.Shifts{{
		ID:        "s1",
		VehicleID: "v1",
		Name:      "day run",
		Start:     schedule.MakeTimeOfDay(8, 0),
		End:       schedule.MakeTimeOfDay(18, 0),
		Weekdays:  set.New(time.Monday),
		Enabled:   true,
	}}}

	assert.Eventually(t, func() bool {
		resp = httptest.NewRecorder()
		h.ServeHTTP(resp, &http.Request{})
		return resp.Code == http.StatusOK
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(resp.Body.String(), `"s1"`))
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/providers"
)

type stubEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.MatchEvent
}

func newStubEventBus() *stubEventBus {
	return &stubEventBus{subscribers: make(map[string][]chan *entities.MatchEvent)}
}

func (b *stubEventBus) Publish(_ context.Context, channel string, event *entities.MatchEvent) error {
	b.mu.Lock()
	targets := append([]chan *entities.MatchEvent(nil), b.subscribers[channel]...)
	b.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *stubEventBus) Subscribe(_ context.Context, channel string) (<-chan *entities.MatchEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *entities.MatchEvent, 10)
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	return ch, nil
}

func (b *stubEventBus) Close() error { return nil }

func (b *stubEventBus) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[channel])
}

func streamRequest(ctx context.Context, patientID, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/patients/"+patientID+"/matches/stream", nil)
	req.SetPathValue("id", patientID)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req.WithContext(ctx)
}

func TestStreamMatchUpdates_MissingIdentity(t *testing.T) {
	h := NewStreamHandler(newStubEventBus(), stubPatientRepo{})

	rec := httptest.NewRecorder()
	h.StreamMatchUpdates(rec, streamRequest(context.Background(), "p1", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamMatchUpdates_WrongOwner(t *testing.T) {
	h := NewStreamHandler(newStubEventBus(), stubPatientRepo{})

	rec := httptest.NewRecorder()
	h.StreamMatchUpdates(rec, streamRequest(context.Background(), "p1", "intruder"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStreamMatchUpdates_PatientNotFound(t *testing.T) {
	h := NewStreamHandler(newStubEventBus(), stubPatientRepo{})

	rec := httptest.NewRecorder()
	h.StreamMatchUpdates(rec, streamRequest(context.Background(), "ghost", "u1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamMatchUpdates_ForwardsMatchEvents(t *testing.T) {
	bus := newStubEventBus()
	h := NewStreamHandler(bus, stubPatientRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		h.StreamMatchUpdates(rec, streamRequest(ctx, "p1", "u1"))
		close(done)
	}()

	// Wait for the handler to register its subscription before publishing.
	channel := providers.GetPatientChannel("p1")
	require.Eventually(t, func() bool {
		return bus.subscriberCount(channel) == 1
	}, time.Second, 5*time.Millisecond)

	err := bus.Publish(context.Background(), channel, &entities.MatchEvent{
		ID:        "e1",
		Type:      entities.MatchEventCreated,
		MatchID:   "m1",
		PatientID: "p1",
		AgencyID:  "a1",
		Score:     68.0,
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	// Give the handler a moment to forward the event before disconnecting.
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after client disconnect")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: match.created")
	assert.Contains(t, body, `"match_id":"m1"`)
}

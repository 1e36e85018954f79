package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carematch/pkg/config"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

func newTestAdapter(baseURL string) *ChannelAdapter {
	return NewChannelAdapter(&config.MessagingConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		TimeoutSeconds: 2,
	}).(*ChannelAdapter)
}

func TestEnsureChannel_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/channels/ensure", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body ensureChannelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "m1", body.MatchID)
		assert.Equal(t, "Ada Lee", body.FamilyName)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ensureChannelResponse{ChannelID: "ch-1", Created: true})
	}))
	defer srv.Close()

	channelID, err := newTestAdapter(srv.URL).EnsureChannel(context.Background(), "m1", "a1", "u1", "Ada Lee")

	require.NoError(t, err)
	assert.Equal(t, "ch-1", channelID)
}

func TestEnsureChannel_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(ensureChannelResponse{ChannelID: "ch-1"})
	}))
	defer srv.Close()

	channelID, err := newTestAdapter(srv.URL).EnsureChannel(context.Background(), "m1", "a1", "u1", "Ada Lee")

	require.NoError(t, err)
	assert.Equal(t, "ch-1", channelID)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestEnsureChannel_ExhaustedRetriesReturnExternalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL).EnsureChannel(context.Background(), "m1", "a1", "u1", "Ada Lee")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestEnsureChannel_EmptyChannelIDRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ensureChannelResponse{})
	}))
	defer srv.Close()

	_, err := newTestAdapter(srv.URL).EnsureChannel(context.Background(), "m1", "a1", "u1", "Ada Lee")

	assert.Error(t, err)
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "free games", zap.NewNop(), WithBackoff(time.Millisecond))
	require.NoError(t, w.Send(context.Background(), "steam (alice):<br>..."))

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "free games", got.Title)
	assert.Equal(t, "html", got.Format)
	assert.Equal(t, "steam (alice):<br>...", got.Body)
}

func TestWebhookGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "", zap.NewNop(), WithRetries(1), WithBackoff(time.Millisecond))
	err := w.Send(context.Background(), "x")
	assert.ErrorContains(t, err, "giving up after 2 attempts")
}

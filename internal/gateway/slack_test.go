package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSlackNotifier_Notify(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		expectError bool
	}{
		{name: "happy path", status: http.StatusOK},
		{name: "error case - webhook rejects payload", status: http.StatusBadRequest, expectError: true},
		{name: "error case - webhook is down", status: http.StatusServiceUnavailable, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var payload slackPayload
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "digest-test", r.Header.Get("User-Agent"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("invalid_payload"))
			}))
			defer server.Close()

			notifier := NewSlackNotifier(server.URL, NewHTTPClient(time.Second, "digest-test"), zap.NewNop().Sugar())
			err := notifier.Notify(context.Background(), "hello *world*")

			assert.Equal(t, "hello *world*", payload.Text)
			if tc.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnexpectedStatus))
				assert.Contains(t, err.Error(), "invalid_payload")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlackNotifier_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewSlackNotifier(url, nil, zap.NewNop().Sugar()).Notify(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reaching webhook")
}

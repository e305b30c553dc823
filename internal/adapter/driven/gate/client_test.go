package gate_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noisebridge/baron/internal/adapter/driven/gate"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *gate.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return gate.NewClientWithHTTPClient(server.Client(), server.URL+"/gate/")
}

func TestClient_OpenSuccess(t *testing.T) {
	var gotMethod, gotBody, gotType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"open": true}`)
	})

	err := client.Open(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "open=1", gotBody)
}

func TestClient_OpenFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not opened", status: http.StatusOK, body: `{"open": false}`, wantErr: driven.ErrGateNotOpened},
		{name: "missing field", status: http.StatusOK, body: `{}`, wantErr: driven.ErrGateNotOpened},
		{name: "undecodable", status: http.StatusOK, body: `<html>gate</html>`, wantErr: driven.ErrGateUndecodable},
		{name: "server error", status: http.StatusInternalServerError, body: `relay stuck`, wantErr: driven.ErrGateStatus},
		{name: "forbidden", status: http.StatusForbidden, body: `{"open": true}`, wantErr: driven.ErrGateStatus},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			err := client.Open(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client := gate.NewClient(endpoint, time.Second)

	err := client.Open(context.Background())
	assert.ErrorIs(t, err, driven.ErrGateUnreachable)
}

func TestClient_TimeoutBoundsHungEndpoint(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := gate.NewClient(server.URL, 100*time.Millisecond)

	start := time.Now()
	err := client.Open(context.Background())

	assert.ErrorIs(t, err, driven.ErrGateUnreachable)
	assert.Less(t, time.Since(start), 5*time.Second)
}

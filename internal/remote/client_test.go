package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/sift/internal/credential"
)

func newServer(t *testing.T, router *mux.Router) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DoSendsJSONAndToken(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "json", r.URL.Query().Get("analyzer"))

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}).Methods(http.MethodPost)
	srv := newServer(t, router)

	c := New(srv.URL+"/", WithCredential(credential.NewStore("secret-token")))
	assert.Equal(t, srv.URL, c.BaseURL())

	var out map[string]string
	err := c.Do(context.Background(), "echo", http.MethodPost, "/api/echo", map[string][]string{"analyzer": {"json"}}, map[string]string{"msg": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := newServer(t, router)

	c := New(srv.URL, WithCredential(credential.NewStore("")))
	require.NoError(t, c.Do(context.Background(), "ping", http.MethodGet, "/api/ping", nil, nil, nil))
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantAuth bool
		wantMsg  string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid token"}`, wantAuth: true},
		{name: "json error body", status: http.StatusBadRequest, body: `{"error":"bad analyzer"}`, wantMsg: "bad analyzer"},
		{name: "plain error body", status: http.StatusBadGateway, body: "upstream down\n", wantMsg: "upstream down"},
		{name: "empty error body", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := mux.NewRouter()
			router.HandleFunc("/api/x", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			srv := newServer(t, router)

			var raw json.RawMessage
			err := New(srv.URL).Do(context.Background(), "x", http.MethodGet, "/api/x", nil, nil, &raw)
			require.Error(t, err)
			assert.Equal(t, tt.status, StatusOf(err))

			if tt.wantAuth {
				assert.True(t, IsAuth(err))
				assert.False(t, IsRequest(err))
				assert.Contains(t, err.Error(), "invalid token")
				return
			}
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.wantMsg, reqErr.Message)
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/bad", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"issues": [`))
	})
	srv := newServer(t, router)
	c := New(srv.URL)

	var raw json.RawMessage
	err := c.Do(context.Background(), "raw", http.MethodGet, "/api/bad", nil, nil, &raw)
	assert.True(t, IsRequest(err))
	assert.Equal(t, http.StatusOK, StatusOf(err))

	var typed struct{ Issues []string }
	err = c.Do(context.Background(), "typed", http.MethodGet, "/api/bad", nil, nil, &typed)
	assert.True(t, IsRequest(err))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, WithTimeout(time.Second)).Do(context.Background(), "down", http.MethodGet, "/", nil, nil, nil)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.Status)
	assert.Error(t, reqErr.Unwrap())
}

func TestClient_ContextCanceled(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	srv := newServer(t, router)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(srv.URL).Do(ctx, "slow", http.MethodGet, "/api/slow", nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsRequest(err))
}

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/analyzer"
	"github.com/billie-coop/sift/internal/config"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/guard"
	"github.com/billie-coop/sift/internal/session"
)

func TestMain(m *testing.M) {
	logx.Disable()
	os.Exit(m.Run())
}

type backend struct {
	router   *mux.Router
	srv      *httptest.Server
	analyzed atomic.Int32
	lastAuth atomic.Value
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{router: mux.NewRouter()}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "username": "ada"}).SignedString([]byte("k"))
	require.NoError(t, err)

	b.router.HandleFunc("/api/users/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}).Methods(http.MethodPost)
	b.router.HandleFunc("/api/projects", func(w http.ResponseWriter, r *http.Request) {
		b.lastAuth.Store(r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1, "name": "demo"}]`))
	}).Methods(http.MethodGet)
	b.router.HandleFunc("/api/analyzer/{kind}", func(w http.ResponseWriter, r *http.Request) {
		b.analyzed.Add(1)
		_, _ = w.Write([]byte(`{"issues": []}`))
	}).Methods(http.MethodPost)

	b.srv = httptest.NewServer(b.router)
	t.Cleanup(b.srv.Close)
	return b
}

func newApp(t *testing.T, b *backend, opts ...Option) *App {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sift")
	cfg := config.NewManager(dir, filepath.Join(dir, "none.env"))
	require.NoError(t, cfg.Load())
	require.NoError(t, cfg.Set("api_url", b.srv.URL))

	a, err := New(cfg, events.NewBroker(), opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestApp_LoginPersistsAndAuthorizes(t *testing.T) {
	b := newBackend(t)
	a := newApp(t, b)
	changed := a.EventBroker.Subscribe(events.AuthChangedEvent)
	ctx := context.Background()

	assert.False(t, a.AuthService.LoggedIn())
	require.NoError(t, a.AuthService.Login(ctx, "ada", "pw"))
	assert.True(t, a.AuthService.LoggedIn())
	assert.Equal(t, "ada", a.AuthService.Username())

	select {
	case ev := <-changed:
		assert.Equal(t, events.AuthChangedPayload{LoggedIn: true, Username: "ada"}, ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("no auth.changed event")
	}

	projects, err := a.ProjectService.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.NotEmpty(t, b.lastAuth.Load())

	reloaded := config.NewManager(a.Config.Dir(), filepath.Join(a.Config.Dir(), "none.env"))
	require.NoError(t, reloaded.Load())
	stored, _ := a.Credential.Token()
	assert.Equal(t, stored, reloaded.Get().Token)

	a.AuthService.Logout()
	require.NoError(t, reloaded.Load())
	assert.Empty(t, reloaded.Get().Token)
}

func TestApp_ProjectServiceReportsAuthRequired(t *testing.T) {
	b := newBackend(t)
	a := newApp(t, b)
	required := a.EventBroker.Subscribe(events.AuthRequiredEvent)

	_, err := a.ProjectService.List(context.Background())
	require.Error(t, err)

	select {
	case ev := <-required:
		assert.Equal(t, session.AuthMessage, ev.Payload.(events.AuthRequiredPayload).Reason)
	case <-time.After(time.Second):
		t.Fatal("no auth.required event")
	}
}

func TestApp_SandboxSessionEndToEnd(t *testing.T) {
	b := newBackend(t)
	clock := clockwork.NewFakeClock()
	a := newApp(t, b, WithClock(clock))

	s, err := a.Sessions.OpenSandbox()
	require.NoError(t, err)
	assert.Equal(t, 1, a.Sessions.Len())

	require.NoError(t, s.OnEdit("print('hi')"))
	clock.Advance(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ResultShown, snap.State)
	assert.Equal(t, int32(1), b.analyzed.Load())

	assert.True(t, a.Sessions.Close(s.ID()))
	assert.False(t, a.Sessions.Close(s.ID()))
	assert.True(t, s.Snapshot().Closed)
}

func TestApp_ExpiredTokenIsNotLoggedIn(t *testing.T) {
	b := newBackend(t)
	clock := clockwork.NewFakeClock()
	a := newApp(t, b, WithClock(clock))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "ada",
		"exp":      clock.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	a.Credential.Set(token)

	assert.True(t, a.AuthService.LoggedIn())
	assert.False(t, a.AuthService.Expired())

	clock.Advance(2 * time.Hour)
	assert.True(t, a.AuthService.Expired())
	assert.False(t, a.AuthService.LoggedIn())
}

// explodingAnalyzer panics on every call, like a client tripping over a
// malformed response.
type explodingAnalyzer struct{}

func (explodingAnalyzer) Analyze(context.Context, analyzer.Kind, []analyzer.CodeUnit) (*analyzer.Result, error) {
	panic("malformed response")
}

func (explodingAnalyzer) AnalyzeFile(context.Context, int, int, analyzer.Kind) (*analyzer.Result, error) {
	panic("malformed response")
}

func TestApp_PanickingAnalyzerFailsSession(t *testing.T) {
	b := newBackend(t)
	a := newApp(t, b, WithAnalyzer(explodingAnalyzer{}))

	s, err := a.Sessions.OpenSandbox()
	require.NoError(t, err)
	require.NoError(t, s.OnEdit("x = 1"))
	require.NoError(t, s.Analyze())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Failed, snap.State)
	assert.ErrorIs(t, snap.Err, guard.ErrPanicked)
}

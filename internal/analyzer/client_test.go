package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/sift/internal/credential"
	"github.com/billie-coop/sift/internal/remote"
)

func newTestClient(t *testing.T, router *mux.Router) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewHTTPClient(remote.New(srv.URL, remote.WithCredential(credential.NewStore("tok"))))
}

func TestHTTPClient_Analyze(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/analyzer/{kind}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "javascript", mux.Vars(r)["kind"])
		assert.Equal(t, "tok", r.Header.Get("Authorization"))

		var body struct {
			Files []CodeUnit `json:"files"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []CodeUnit{{Path: "sandbox.js", Content: "let x"}}, body.Files)

		_, _ = w.Write([]byte(`{"files":[{"path":"sandbox.js","line_comments":[{"line":1,"comment":"unused"}]}]}`))
	}).Methods(http.MethodPost)
	c := newTestClient(t, router)

	res, err := c.Analyze(context.Background(), JavaScript, []CodeUnit{SandboxUnit(JavaScript, "let x")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.IssueCount())
}

func TestHTTPClient_AnalyzeFile(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/projects/{project}/files/{file}/analyze", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", mux.Vars(r)["project"])
		assert.Equal(t, "12", mux.Vars(r)["file"])
		assert.Equal(t, "java", r.URL.Query().Get("analyzer"))
		_, _ = w.Write([]byte(`{"issues": []}`))
	}).Methods(http.MethodPost)
	c := newTestClient(t, router)

	res, err := c.AnalyzeFile(context.Background(), 5, 12, Java)
	require.NoError(t, err)
	assert.JSONEq(t, `{"issues": []}`, string(res.Raw))
}

func TestHTTPClient_Errors(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/analyzer/{kind}", func(w http.ResponseWriter, r *http.Request) {
		switch mux.Vars(r)["kind"] {
		case "python":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"analyzer crashed"}`))
		case "json":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	c := newTestClient(t, router)
	units := []CodeUnit{{Path: "x", Content: "y"}}

	_, err := c.Analyze(context.Background(), Python, units)
	assert.True(t, remote.IsRequest(err))
	assert.Equal(t, http.StatusInternalServerError, remote.StatusOf(err))
	assert.Contains(t, err.Error(), "analyzer crashed")

	_, err = c.Analyze(context.Background(), JSON, units)
	assert.True(t, remote.IsRequest(err), "malformed body is a request error")

	_, err = c.Analyze(context.Background(), Java, units)
	assert.True(t, remote.IsAuth(err))

	_, err = c.Analyze(context.Background(), "ruby", units)
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = c.Analyze(context.Background(), Python, nil)
	assert.ErrorIs(t, err, ErrNoUnits)

	_, err = c.AnalyzeFile(context.Background(), 1, 1, "ruby")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

// Package analyzer talks to the remote analyzer backends.
//
// One call, one response: there is no retry and no cache here. Failures come
// back as *remote.RequestError or *remote.AuthError and the caller decides
// what the user sees.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/billie-coop/sift/internal/remote"
)

// ErrNoUnits is returned when Analyze is called without code.
var ErrNoUnits = errors.New("no code units to analyze")

// Client runs analyses.
type Client interface {
	// Analyze sends free-standing code units to the analyzer for kind.
	Analyze(ctx context.Context, kind Kind, units []CodeUnit) (*Result, error)
	// AnalyzeFile asks the project store to analyze a persisted file.
	AnalyzeFile(ctx context.Context, projectID, fileID int, kind Kind) (*Result, error)
}

// HTTPClient implements Client over the analyzer and project HTTP APIs.
type HTTPClient struct {
	remote *remote.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates an analyzer client sharing rc's base URL and credential.
func NewHTTPClient(rc *remote.Client) *HTTPClient {
	return &HTTPClient{remote: rc}
}

type analyzeRequest struct {
	Files []CodeUnit `json:"files"`
}

// Analyze posts to /api/analyzer/{kind}.
func (c *HTTPClient) Analyze(ctx context.Context, kind Kind, units []CodeUnit) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if len(units) == 0 {
		return nil, ErrNoUnits
	}

	var raw json.RawMessage
	path := "/api/analyzer/" + url.PathEscape(string(kind))
	if err := c.remote.Do(ctx, "analyze "+string(kind), http.MethodPost, path, nil, analyzeRequest{Files: units}, &raw); err != nil {
		return nil, err
	}
	return NewResult(raw), nil
}

// AnalyzeFile posts to /api/projects/{projectID}/files/{fileID}/analyze?analyzer={kind}.
func (c *HTTPClient) AnalyzeFile(ctx context.Context, projectID, fileID int, kind Kind) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var raw json.RawMessage
	path := fmt.Sprintf("/api/projects/%d/files/%d/analyze", projectID, fileID)
	query := url.Values{"analyzer": {string(kind)}}
	if err := c.remote.Do(ctx, "analyze file", http.MethodPost, path, query, struct{}{}, &raw); err != nil {
		return nil, err
	}
	return NewResult(raw), nil
}

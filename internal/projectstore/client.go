// Package projectstore is the client for the remote project store.
// sift only reads projects during an analysis session; the create/delete
// calls back the projects screen and the CLI.
package projectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/billie-coop/sift/internal/remote"
)

// ErrInvalidName is returned for blank project names.
var ErrInvalidName = errors.New("project name is required")

// Store is the subset of the project store sift uses.
type Store interface {
	GetProject(ctx context.Context, id int) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, name string) (*Project, error)
	DeleteProject(ctx context.Context, id int) error
}

// Client implements Store over HTTP.
type Client struct {
	remote *remote.Client
}

var _ Store = (*Client)(nil)

// NewClient creates a project store client.
func NewClient(rc *remote.Client) *Client {
	return &Client{remote: rc}
}

// GetProject fetches a project with its files.
func (c *Client) GetProject(ctx context.Context, id int) (*Project, error) {
	var project Project
	if err := c.remote.Do(ctx, "get project", http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects lists the caller's projects (without files).
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.remote.Do(ctx, "list projects", http.MethodGet, "/api/projects", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates an empty project.
func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	var project Project
	in := map[string]string{"name": name}
	if err := c.remote.Do(ctx, "create project", http.MethodPost, "/api/projects", nil, in, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project and its files.
func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.remote.Do(ctx, "delete project", http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), nil, nil, nil)
}

// CreateFile adds a file to a project.
func (c *Client) CreateFile(ctx context.Context, projectID int, path, content string) (*File, error) {
	var file File
	in := map[string]string{"path": path, "content": content}
	if err := c.remote.Do(ctx, "create file", http.MethodPost, fmt.Sprintf("/api/projects/%d/files", projectID), nil, in, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// UploadZip unpacks a zip archive into a project on the server.
func (c *Client) UploadZip(ctx context.Context, projectID int, archive io.Reader) error {
	return c.remote.DoRaw(ctx, "upload zip", http.MethodPost, fmt.Sprintf("/api/projects/%d/upload", projectID), archive, "application/zip", nil)
}

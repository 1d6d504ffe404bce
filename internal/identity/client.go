// Package identity exchanges a username and password for a token.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/billie-coop/sift/internal/remote"
)

// ErrMissingCredentials is returned when username or password is blank.
var ErrMissingCredentials = errors.New("username and password are required")

// ErrNoToken is returned when the service answered 2xx without a token.
var ErrNoToken = errors.New("identity service returned no token")

// Client calls /api/users.
type Client struct {
	remote *remote.Client
}

// NewClient creates an identity client.
func NewClient(rc *remote.Client) *Client {
	return &Client{remote: rc}
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.exchange(ctx, "register", "/api/users/register", username, password)
}

// Login returns a token for an existing account.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	return c.exchange(ctx, "login", "/api/users/login", username, password)
}

func (c *Client) exchange(ctx context.Context, op, path, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}

	var resp authResponse
	if err := c.remote.Do(ctx, op, http.MethodPost, path, nil, authRequest{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrNoToken
	}
	return resp.Token, nil
}

package api

import (
	"context"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

type userEnvelope struct {
	User models.User `json:"user"`
}

// Profile returns the user behind the current session cookie
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var out userEnvelope
	if err := c.getJSON(ctx, "/auth/profile", nil, &out); err != nil {
		return models.User{}, err
	}
	return out.User, nil
}

// Login authenticates and stores the session cookie
func (c *Client) Login(ctx context.Context, username, password string) (models.User, error) {
	var out userEnvelope
	creds := models.Credentials{Username: username, Password: password}
	if err := c.postJSON(ctx, "/auth/login", creds, &out); err != nil {
		return models.User{}, err
	}
	return out.User, nil
}

// Register creates an account; the server logs the new user in
func (c *Client) Register(ctx context.Context, creds models.Credentials) (models.User, error) {
	var out userEnvelope
	if err := c.postJSON(ctx, "/auth/register", creds, &out); err != nil {
		return models.User{}, err
	}
	return out.User, nil
}

// Logout ends the server session
func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/auth/logout", nil, nil)
}

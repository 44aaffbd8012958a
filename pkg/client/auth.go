package client

import "context"

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates an account and keeps its token for later requests
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	var resp Registration
	if err := c.doRequest(ctx, "POST", "/auth/register", req, &resp); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		c.SetToken(resp.Token)
	}

	return &resp, nil
}

// LoginRequest asks for a new token for an existing account
type LoginRequest struct {
	Email     string `json:"email"`
	SessionID string `json:"sessionId,omitempty"`
}

// Login fetches a fresh token for a registered email and keeps it
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Registration, error) {
	var resp Registration
	if err := c.doRequest(ctx, "POST", "/auth/login", req, &resp); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		c.SetToken(resp.Token)
	}

	return &resp, nil
}

// Status returns the caller's account and usage
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.doRequest(ctx, "GET", "/auth/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Analytics returns usage against limits with percentages
func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := c.doRequest(ctx, "GET", "/analytics", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

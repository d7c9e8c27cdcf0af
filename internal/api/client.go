// Package api is the REST client for the chat backend: login,
// conversation listing, message history and read receipts.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrocha/chatterm/pkg/wire"
)

const requestTimeout = 10 * time.Second

// Client talks to the backend's REST surface. Zero-value is not
// usable; construct with New and attach a token after login.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New creates a client for the backend at base (e.g.
// "http://localhost:8080").
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}
}

// SetToken attaches the bearer token used by authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// loginRequest and loginResponse mirror the backend's login contract.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// errorResponse is the backend's optional error body.
type errorResponse struct {
	Message string `json:"message"`
}

// AuthError is a rejected-credentials failure, as opposed to a
// connectivity one. The UI words the two differently.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Login authenticates and returns the issued token. The token is also
// retained on the client for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/users/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "invalid email or password"
		var errBody errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Message != "" {
			msg = errBody.Message
		}
		return "", &AuthError{Message: msg}
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}

	c.token = out.Token
	return out.Token, nil
}

// Conversations fetches the user's conversation summaries.
func (c *Client) Conversations(ctx context.Context) ([]wire.Conversation, error) {
	var out []wire.Conversation
	if err := c.getJSON(ctx, "/chats", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	return out, nil
}

// History fetches the full message history between two users, in the
// chronological order the backend returns it.
func (c *Client) History(ctx context.Context, user1, user2 string) ([]wire.Message, error) {
	q := url.Values{}
	q.Set("user1", user1)
	q.Set("user2", user2)

	var out []wire.Message
	if err := c.getJSON(ctx, "/messages/history", q, &out); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return out, nil
}

// MarkRead tells the backend that messageID has been seen by its
// receiver.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	path := "/messages/" + url.PathEscape(messageID) + "/read"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("read receipt request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("read receipt for %s rejected: status %d", messageID, resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
}

// Package client is a typed HTTP client for the chatsync API. It is
// used by the polling client and by tooling that talks to a running
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chatsync/pkg/models"
)

// Client talks to a chatsync server over HTTP.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a client for the server at base (e.g. "http://localhost:8080").
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithHTTPClient returns a client using the given http.Client. Tests
// inject httptest servers through this.
func NewWithHTTPClient(base string, hc *http.Client) *Client {
	return &Client{base: strings.TrimRight(base, "/"), hc: hc}
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, ae.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// ListUsers returns all registered users.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversations returns the summaries for every conversation the user
// participates in, annotated with unread counts from their viewpoint.
func (c *Client) Conversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	q := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	var out []models.ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/conversations", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages returns the messages of a conversation annotated for the
// viewer. beforeID of 0 means no upper bound.
func (c *Client) Messages(ctx context.Context, conversationID, userID, beforeID int64) ([]models.AnnotatedMessage, error) {
	q := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	if beforeID > 0 {
		q.Set("beforeId", strconv.FormatInt(beforeID, 10))
	}
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	var out []models.AnnotatedMessage
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type sendRequest struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Content        string `json:"content"`
}

// sendResponse mirrors the send endpoint's camelCase payload, which
// differs from the snake_case message listing shape.
type sendResponse struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// Send appends a message to a conversation and returns the stored copy.
func (c *Client) Send(ctx context.Context, conversationID, senderID int64, content string) (models.Message, error) {
	body := sendRequest{ConversationID: conversationID, SenderID: senderID, Content: content}
	var out sendResponse
	if err := c.do(ctx, http.MethodPost, "/messages", nil, body, &out); err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:             out.ID,
		ConversationID: out.ConversationID,
		SenderID:       out.SenderID,
		Content:        out.Content,
		CreatedAt:      out.CreatedAt,
	}, nil
}

type markReadRequest struct {
	UserID int64 `json:"userId"`
}

type markReadResponse struct {
	Success           bool  `json:"success"`
	LastReadMessageID int64 `json:"lastReadMessageId"`
}

// MarkRead acknowledges everything currently in the conversation for
// the user and returns the resulting marker position.
func (c *Client) MarkRead(ctx context.Context, conversationID, userID int64) (int64, error) {
	path := fmt.Sprintf("/conversations/%d/read", conversationID)
	var out markReadResponse
	if err := c.do(ctx, http.MethodPost, path, nil, markReadRequest{UserID: userID}, &out); err != nil {
		return 0, err
	}
	return out.LastReadMessageID, nil
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Chat types
const (
	ChatTypeFree    = "free"
	ChatTypePremium = "premium"
)

// ChatService sends chat turns
type ChatService struct {
	client *Client
}

// SendRequest is one user turn. An empty SessionID starts a new session.
type SendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	ChatType  string `json:"chatType"`
}

// SendResponse is the assistant reply
type SendResponse struct {
	Message    string     `json:"message"`
	SessionID  string     `json:"sessionId"`
	TokensUsed int        `json:"tokensUsed"`
	PlanStatus PlanStatus `json:"planStatus"`
}

// Send runs one chat turn. A CHAT_ERROR failure can be retried with the same
// message and session; the server does not store or charge it twice.
func (s *ChatService) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	if req.ChatType == "" {
		req.ChatType = ChatTypeFree
	}
	var resp SendResponse
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionService manages chat sessions
type SessionService struct {
	client *Client
}

// List retrieves the caller's sessions, newest first
func (s *SessionService) List(ctx context.Context, opts *ListOptions) (*Page[Session], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	path := "/api/v1/chat/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Page[Session]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a session with its messages
func (s *SessionService) Get(ctx context.Context, id string) (*SessionDetail, error) {
	var detail SessionDetail
	if err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/chat/sessions/%s", url.PathEscape(id)), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Delete removes a session and its messages
func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/chat/sessions/%s", url.PathEscape(id)), nil, nil)
}

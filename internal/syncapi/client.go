// Package syncapi talks to the remote sync endpoint. One Push carries all
// local dirty records (tombstones included) and returns the server-side
// changes plus the timestamp to persist as the new sync cursor.
package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/core"
)

const syncPath = "/api/sync/transactions"

type (
	// PushRequest is the sync round payload. Deletions travel as regular
	// updates carrying a deletedAt tombstone.
	PushRequest struct {
		LastSyncTimestamp *string     `json:"lastSyncTimestamp"`
		Changes           PushChanges `json:"changes"`
		UserID            string      `json:"userId"`
	}

	PushChanges struct {
		Updated    []core.Transaction `json:"updated"`
		Categories struct {
			Updated []core.Category `json:"updated"`
		} `json:"categories"`
	}

	PushResponse struct {
		Changes struct {
			Transactions *struct {
				Updated []core.Transaction `json:"updated"`
			} `json:"transactions,omitempty"`
			Categories *struct {
				Updated []core.Category `json:"updated"`
			} `json:"categories,omitempty"`
		} `json:"changes"`
		Timestamp string `json:"timestamp"`
	}
)

// ServerTransactions returns the transactions the server pushed back, nil
// when the response carried none.
func (r *PushResponse) ServerTransactions() []core.Transaction {
	if r.Changes.Transactions == nil {
		return nil
	}
	return r.Changes.Transactions.Updated
}

func (r *PushResponse) ServerCategories() []core.Category {
	if r.Changes.Categories == nil {
		return nil
	}
	return r.Changes.Categories.Updated
}

// TransportError is any network or server failure during a sync round. The
// round that hit it committed nothing and is safe to retry from scratch.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sync transport: %s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("sync transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TokenProvider supplies the bearer token for the sync endpoint. Token
// issuance itself belongs to the host's identity provider.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed-token provider for tests and service accounts.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
}

func NewClient(baseURL string, httpClient *http.Client, tokens TokenProvider) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, tokens: tokens}
}

// Push sends one sync round and decodes the server's changes.
func (c *Client) Push(ctx context.Context, req PushRequest) (*PushResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal sync payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+syncPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, &TransportError{Op: "acquire token", Err: err}
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "push", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Op: "push", StatusCode: resp.StatusCode}
	}

	var pushResp PushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}

	return &pushResp, nil
}

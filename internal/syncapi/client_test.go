package syncapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestClientPush(t *testing.T) {
	var gotAuth string
	var gotBody PushRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != syncPath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{
			"changes": {
				"transactions": {"updated": [{"id": "t1", "amount": 55}]},
				"categories": {"updated": []}
			},
			"timestamp": "2024-05-01T10:30:00Z"
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), StaticToken("secret"))

	cursor := "2024-04-01T00:00:00Z"
	req := PushRequest{
		LastSyncTimestamp: &cursor,
		UserID:            "user-123",
	}
	req.Changes.Updated = []core.Transaction{{ID: "t1", Amount: 50, UpdatedAt: time.Now()}}

	resp, err := client.Push(context.Background(), req)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotBody.UserID != "user-123" || len(gotBody.Changes.Updated) != 1 {
		t.Errorf("request body not faithfully transmitted: %+v", gotBody)
	}
	if gotBody.LastSyncTimestamp == nil || *gotBody.LastSyncTimestamp != cursor {
		t.Error("lastSyncTimestamp not transmitted")
	}

	txs := resp.ServerTransactions()
	if len(txs) != 1 || txs[0].ID != "t1" || txs[0].Amount != 55 {
		t.Errorf("server transactions = %+v", txs)
	}
	if len(resp.ServerCategories()) != 0 {
		t.Errorf("server categories = %+v", resp.ServerCategories())
	}
	if resp.Timestamp != "2024-05-01T10:30:00Z" {
		t.Errorf("timestamp = %q", resp.Timestamp)
	}
}

func TestClientPushNullCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// First sync must send an explicit null, not omit the field.
		if string(raw["lastSyncTimestamp"]) != "null" {
			t.Errorf("lastSyncTimestamp = %s, want null", raw["lastSyncTimestamp"])
		}
		w.Write([]byte(`{"changes": {}, "timestamp": "2024-05-01T10:30:00Z"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	if _, err := client.Push(context.Background(), PushRequest{UserID: "user-123"}); err != nil {
		t.Fatalf("Push: %v", err)
	}
}

func TestClientPushServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil)
	_, err := client.Push(context.Background(), PushRequest{UserID: "user-123"})

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if terr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", terr.StatusCode)
	}
}

package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/syncapi"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fakePusher records every push and replies with a canned response. When
// blockCh is set, Push signals entered and then waits for blockCh to close.
type fakePusher struct {
	mu        sync.Mutex
	reqs      []syncapi.PushRequest
	resp      *syncapi.PushResponse
	err       error
	blockCh   chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
}

func (f *fakePusher) Push(ctx context.Context, req syncapi.PushRequest) (*syncapi.PushResponse, error) {
	if f.blockCh != nil {
		f.enterOnce.Do(func() {
			if f.entered != nil {
				close(f.entered)
			}
		})
		<-f.blockCh
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakePusher) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakePusher) lastRequest(t *testing.T) syncapi.PushRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		t.Fatal("no push requests recorded")
	}
	return f.reqs[len(f.reqs)-1]
}

func pushResponse(ts string, txs []core.Transaction, cats []core.Category) *syncapi.PushResponse {
	resp := &syncapi.PushResponse{Timestamp: ts}
	if len(txs) > 0 {
		resp.Changes.Transactions = &struct {
			Updated []core.Transaction `json:"updated"`
		}{Updated: txs}
	}
	if len(cats) > 0 {
		resp.Changes.Categories = &struct {
			Updated []core.Category `json:"updated"`
		}{Updated: cats}
	}
	return resp
}

func mustTransaction(t *testing.T, amount float64) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction("u1", core.Expense, "groceries", amount, "cat-food", time.Now(), core.ARS)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return tx
}

func TestSyncRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	local := mustTransaction(t, 50)
	if err := store.AddTransaction(ctx, local); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// Server accepts the push and replies with the same record edited on
	// another device after the local write.
	serverCopy := local
	serverCopy.Amount = 55
	serverCopy.UpdatedAt = local.UpdatedAt.Add(time.Minute)
	serverTime := time.Now().UTC().Truncate(time.Millisecond)
	remote := &fakePusher{resp: pushResponse(serverTime.Format(time.RFC3339Nano), []core.Transaction{serverCopy}, nil)}

	engine := NewSyncEngine(store, store, store, remote)
	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	req := remote.lastRequest(t)
	if req.LastSyncTimestamp != nil {
		t.Errorf("first sync sent cursor %q, want null", *req.LastSyncTimestamp)
	}
	if len(req.Changes.Updated) != 1 || req.Changes.Updated[0].ID != local.ID {
		t.Fatalf("pushed transactions = %+v, want the one dirty record", req.Changes.Updated)
	}

	got, err := store.Transaction(ctx, local.ID)
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if got.Amount != 55 {
		t.Errorf("amount after sync = %v, want the server's 55", got.Amount)
	}

	dirty, err := store.DirtyTransactions(ctx)
	if err != nil {
		t.Fatalf("DirtyTransactions: %v", err)
	}
	if len(dirty) != 0 {
		t.Errorf("dirty set after sync has %d records, want 0", len(dirty))
	}

	cursor, err := store.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if cursor == nil || !cursor.Equal(serverTime) {
		t.Errorf("cursor = %v, want server timestamp %v", cursor, serverTime)
	}
}

func TestSyncSendsCursorOnSecondRound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	remote := &fakePusher{resp: pushResponse(first.Format(time.RFC3339Nano), nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)

	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	remote.resp = pushResponse(second.Format(time.RFC3339Nano), nil, nil)
	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	req := remote.lastRequest(t)
	if req.LastSyncTimestamp == nil {
		t.Fatal("second sync sent null cursor, want the first round's timestamp")
	}
	if *req.LastSyncTimestamp != first.Format(time.RFC3339Nano) {
		t.Errorf("cursor sent = %q, want %q", *req.LastSyncTimestamp, first.Format(time.RFC3339Nano))
	}

	cursor, err := store.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if cursor == nil || !cursor.Equal(second) {
		t.Errorf("cursor = %v, want %v", cursor, second)
	}
}

func TestSyncPushFailureCommitsNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx := mustTransaction(t, 75)
	if err := store.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	remote := &fakePusher{err: &syncapi.TransportError{Op: "push", StatusCode: 500}}
	engine := NewSyncEngine(store, store, store, remote)

	err := engine.Sync(ctx, "u1")
	if err == nil {
		t.Fatal("Sync succeeded, want transport failure")
	}
	var te *syncapi.TransportError
	if !errors.As(err, &te) {
		t.Errorf("error = %v, want a TransportError in the chain", err)
	}

	dirty, err := store.DirtyTransactions(ctx)
	if err != nil {
		t.Fatalf("DirtyTransactions: %v", err)
	}
	if len(dirty) != 1 {
		t.Errorf("dirty set after failed round has %d records, want the record kept for retry", len(dirty))
	}
	cursor, err := store.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if cursor != nil {
		t.Errorf("cursor advanced to %v after failed round, want unset", cursor)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx := mustTransaction(t, 30)
	if err := store.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	ts := time.Now().UTC().Format(time.RFC3339Nano)
	remote := &fakePusher{resp: pushResponse(ts, nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)

	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	second := remote.lastRequest(t)
	if len(second.Changes.Updated) != 0 {
		t.Errorf("second round pushed %d transactions, want 0", len(second.Changes.Updated))
	}
}

func TestSyncRejectsOverlappingRounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	remote := &fakePusher{
		resp:    pushResponse(time.Now().UTC().Format(time.RFC3339Nano), nil, nil),
		blockCh: make(chan struct{}),
		entered: make(chan struct{}),
	}
	engine := NewSyncEngine(store, store, store, remote)

	firstDone := make(chan error, 1)
	go func() { firstDone <- engine.Sync(ctx, "u1") }()

	// Wait for the first round to reach Push while holding the round lock.
	select {
	case <-remote.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first round never reached Push")
	}

	if err := engine.Sync(ctx, "u1"); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("overlapping Sync returned %v, want ErrSyncInProgress", err)
	}

	close(remote.blockCh)
	if err := <-firstDone; err != nil {
		t.Fatalf("blocked round failed: %v", err)
	}
}

func TestClearSyncDataResetsCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	remote := &fakePusher{resp: pushResponse(ts.Format(time.RFC3339Nano), nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)

	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := engine.ClearSyncData(ctx); err != nil {
		t.Fatalf("ClearSyncData: %v", err)
	}

	cursor, err := store.LastSync(ctx)
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if cursor != nil {
		t.Errorf("cursor = %v after clear, want unset", cursor)
	}

	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("Sync after clear: %v", err)
	}
	if req := remote.lastRequest(t); req.LastSyncTimestamp != nil {
		t.Errorf("sync after clear sent cursor %q, want null", *req.LastSyncTimestamp)
	}
}

func TestSyncAppliesServerCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cat, err := core.NewCategory("Pets", "paw-outline", core.Expense, "#8B5CF6", false)
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	remote := &fakePusher{resp: pushResponse(ts, nil, []core.Category{cat})}
	engine := NewSyncEngine(store, store, store, remote)

	if err := engine.Sync(ctx, "u1"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, err := store.Category(ctx, cat.ID)
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if got.Name != "Pets" {
		t.Errorf("category name = %q, want %q", got.Name, "Pets")
	}
	dirty, err := store.DirtyCategories(ctx)
	if err != nil {
		t.Fatalf("DirtyCategories: %v", err)
	}
	if len(dirty) != 0 {
		t.Errorf("server-applied category left %d dirty records, want 0", len(dirty))
	}
}

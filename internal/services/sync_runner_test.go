package services

import (
	"context"
	"testing"
	"time"
)

func waitForPushes(t *testing.T, remote *fakePusher, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for remote.pushCount() < want {
		select {
		case <-deadline:
			t.Fatalf("saw %d pushes, want %d", remote.pushCount(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSyncRunnerSyncsImmediatelyOnStart(t *testing.T) {
	store := newTestStore(t)
	remote := &fakePusher{resp: pushResponse(time.Now().UTC().Format(time.RFC3339Nano), nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)
	runner := NewSyncRunner(engine, SyncRunnerConfig{Interval: time.Hour, UserID: "u1"})
	ctx := context.Background()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer runner.Stop(ctx)

	// The first round fires on startup, not after the first tick.
	waitForPushes(t, remote, 1)
	if !runner.IsRunning() {
		t.Error("runner not reported as running")
	}
}

func TestSyncRunnerTicks(t *testing.T) {
	store := newTestStore(t)
	remote := &fakePusher{resp: pushResponse(time.Now().UTC().Format(time.RFC3339Nano), nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)
	runner := NewSyncRunner(engine, SyncRunnerConfig{Interval: 10 * time.Millisecond, UserID: "u1"})
	ctx := context.Background()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForPushes(t, remote, 3)

	if err := runner.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if runner.IsRunning() {
		t.Error("runner still reported running after Stop")
	}
}

func TestSyncRunnerRejectsDoubleStart(t *testing.T) {
	store := newTestStore(t)
	remote := &fakePusher{resp: pushResponse(time.Now().UTC().Format(time.RFC3339Nano), nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)
	runner := NewSyncRunner(engine, DefaultSyncRunnerConfig("u1"))
	ctx := context.Background()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer runner.Stop(ctx)

	if err := runner.Start(ctx); err == nil {
		t.Error("second Start succeeded, want error while running")
	}
}

func TestSyncRunnerRestartsAfterStop(t *testing.T) {
	store := newTestStore(t)
	remote := &fakePusher{resp: pushResponse(time.Now().UTC().Format(time.RFC3339Nano), nil, nil)}
	engine := NewSyncEngine(store, store, store, remote)
	runner := NewSyncRunner(engine, SyncRunnerConfig{Interval: time.Hour, UserID: "u1"})
	ctx := context.Background()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForPushes(t, remote, 1)
	if err := runner.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer runner.Stop(ctx)
	waitForPushes(t, remote, 2)
}

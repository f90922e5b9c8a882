package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	entries map[string]string
	setTTL  time.Duration
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.entries[key] = fmt.Sprint(value)
	f.setTTL = ttl
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.entries[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string {
	return "session:access:" + accessID
}

func newTestManager(store *fakeStore) *Manager {
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}
}

func TestOpenThenHasSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	if err := manager.Open(ctx, accessID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.setTTL != time.Hour {
		t.Fatalf("expected ttl to flow through, got %s", store.setTTL)
	}

	live, err := manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if !live {
		t.Fatal("expected live session after open")
	}
}

func TestHasSessionMissingKeyIsNotLive(t *testing.T) {
	t.Parallel()

	manager := newTestManager(newFakeStore())

	live, err := manager.HasSession(context.Background(), "never-opened")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if live {
		t.Fatal("missing key should read as no session")
	}
}

func TestHasSessionBlankIDShortCircuits(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.getErr = fmt.Errorf("store should not be hit")
	manager := newTestManager(store)

	live, err := manager.HasSession(context.Background(), "   ")
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if live {
		t.Fatal("blank id should never be live")
	}
}

func TestHasSessionPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.getErr = fmt.Errorf("redis down")
	manager := newTestManager(store)

	if _, err := manager.HasSession(context.Background(), "abc"); err == nil {
		t.Fatal("expected store error to surface")
	}
}

func TestRevokeKillsSession(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	if err := manager.Open(ctx, accessID); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	live, err := manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if live {
		t.Fatal("session should be gone after revoke")
	}
}

func TestOpenAndRevokeRequireAccessID(t *testing.T) {
	t.Parallel()

	manager := newTestManager(newFakeStore())

	if err := manager.Open(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id on open")
	}
	if err := manager.Revoke(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank id on revoke")
	}
}

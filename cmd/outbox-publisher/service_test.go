package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
	"github.com/labstock/labstock-backend/pkg/logger"
)

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakePubSub struct {
	pingErr error
}

func (f *fakePubSub) Ping(context.Context) error           { return f.pingErr }
func (f *fakePubSub) LedgerPublisher() *gcppubsub.Publisher { return nil }

type fakeRepo struct {
	pending   []models.OutboxEvent
	published []uuid.UUID
	failed    map[uuid.UUID]string
	fetchErr  error
}

func newFakeRepo(pending ...models.OutboxEvent) *fakeRepo {
	return &fakeRepo{pending: pending, failed: map[uuid.UUID]string{}}
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []models.OutboxEvent
	for _, event := range f.pending {
		if event.AttemptCount >= maxAttempts {
			continue
		}
		out = append(out, event)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, err error) error {
	f.failed[id] = err.Error()
	return nil
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	errByIdx map[int]error
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	idx := len(p.messages)
	p.messages = append(p.messages, msg)
	if err, ok := p.errByIdx[idx]; ok {
		return fakeResult{err: err}
	}
	return fakeResult{}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func testService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()

	service, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     testLogger(),
		DB:         &fakeDB{},
		PubSub:     &fakePubSub{},
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func pendingEvent(created time.Time) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventUnitReserved,
		AggregateType: enums.AggregateLedgerEntry,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		CreatedAt:     created,
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	t.Parallel()

	first := pendingEvent(time.Now().Add(-2 * time.Minute))
	second := pendingEvent(time.Now().Add(-time.Minute))
	repo := newFakeRepo(first, second)
	pub := &fakePublisher{}
	service := testService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.published) != 2 || repo.published[0] != first.ID || repo.published[1] != second.ID {
		t.Fatalf("unexpected published set: %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("unexpected failures: %v", repo.failed)
	}

	msg := pub.messages[0]
	if string(msg.Data) != `{"version":1}` {
		t.Fatalf("payload not forwarded: %s", msg.Data)
	}
	if msg.Attributes["event_type"] != string(enums.EventUnitReserved) {
		t.Fatalf("event_type attribute missing: %v", msg.Attributes)
	}
	if msg.Attributes["aggregate_id"] != first.AggregateID.String() {
		t.Fatalf("aggregate_id attribute missing: %v", msg.Attributes)
	}
}

func TestProcessBatchMarksFailedAndContinues(t *testing.T) {
	t.Parallel()

	first := pendingEvent(time.Now().Add(-2 * time.Minute))
	second := pendingEvent(time.Now().Add(-time.Minute))
	repo := newFakeRepo(first, second)
	pub := &fakePublisher{errByIdx: map[int]error{0: fmt.Errorf("topic unavailable")}}
	service := testService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("expected only second event published: %v", repo.published)
	}
	if repo.failed[first.ID] != "topic unavailable" {
		t.Fatalf("first event should be marked failed: %v", repo.failed)
	}
}

func TestProcessBatchEmptyQueueIsIdle(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	service := testService(t, repo, &fakePublisher{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatal("empty queue should report idle")
	}
}

func TestProcessBatchSkipsExhaustedEvents(t *testing.T) {
	t.Parallel()

	exhausted := pendingEvent(time.Now())
	exhausted.AttemptCount = defaultMaxAttempts
	repo := newFakeRepo(exhausted)
	pub := &fakePublisher{}
	service := testService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatal("exhausted event should not be processed")
	}
	if len(pub.messages) != 0 {
		t.Fatalf("exhausted event must not be published: %d messages", len(pub.messages))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	service := testService(t, repo, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- service.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRunFailsWhenDependencyPingFails(t *testing.T) {
	t.Parallel()

	service, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     testLogger(),
		DB:         &fakeDB{pingErr: fmt.Errorf("connection refused")},
		PubSub:     &fakePubSub{},
		Repository: newFakeRepo(),
		Publisher:  &fakePublisher{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected readiness failure")
	}
}

func TestNextBackoffDoublesUpToCap(t *testing.T) {
	t.Parallel()

	base := 500 * time.Millisecond
	current := base
	for _, expected := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, maxBackoff, maxBackoff} {
		current = nextBackoff(current, base, maxBackoff)
		if current != expected {
			t.Fatalf("expected %s, got %s", expected, current)
		}
	}
}

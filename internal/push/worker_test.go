package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdb "assist-board-backend/internal/db"
	"assist-board-backend/internal/model"
	"assist-board-backend/internal/store"
)

// mockSender records pushes instead of hitting a push service.
type mockSender struct {
	mu    sync.Mutex
	sends []sentPush
	code  int
}

type sentPush struct {
	endpoint string
	payload  string
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentPush{endpoint: sub.Endpoint, payload: string(payload)})
	code := m.code
	if code == 0 {
		code = http.StatusCreated
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewReader(nil)),
	}, nil
}

func (m *mockSender) sent() []sentPush {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentPush(nil), m.sends...)
}

func newTestPool(t *testing.T, sender Sender) (*WorkerPool, store.Store) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, appdb.Migrate(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	s := store.NewGormStore(gormDB)
	wp := NewWorkerPool(1, s, &webpush.Options{})
	wp.sender = sender
	return wp, s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never met")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp, _ := newTestPool(t, &mockSender{})

	wp.Dispatch(123)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsToAllSubscriptions(t *testing.T) {
	sender := &mockSender{}
	wp, s := newTestPool(t, sender)
	ctx := context.Background()

	request, err := s.CreateAssistanceRequest(ctx, store.CreateAssistanceRequestInput{
		RoomID: 1, RoomName: "Room A", RoomLocation: "Floor 1",
	})
	require.NoError(t, err)
	require.NoError(t, s.PutSubscription(ctx, &model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k", Auth: "a"}))
	require.NoError(t, s.PutSubscription(ctx, &model.PushSubscription{Endpoint: "https://push.example/2", P256DH: "k", Auth: "a"}))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(runCtx)

	wp.Dispatch(request.ID)
	waitFor(t, func() bool { return len(sender.sent()) == 2 })

	for _, push := range sender.sent() {
		assert.Contains(t, push.payload, "New request from Room A (Floor 1)")
	}
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	sender := &mockSender{code: http.StatusGone}
	wp, s := newTestPool(t, sender)
	ctx := context.Background()

	request, err := s.CreateAssistanceRequest(ctx, store.CreateAssistanceRequestInput{
		RoomID: 1, RoomName: "Room B", RoomLocation: "Floor 2",
	})
	require.NoError(t, err)
	require.NoError(t, s.PutSubscription(ctx, &model.PushSubscription{Endpoint: "https://push.example/stale", P256DH: "k", Auth: "a"}))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(runCtx)

	wp.Dispatch(request.ID)
	waitFor(t, func() bool {
		subs, err := s.GetSubscriptions(ctx)
		return err == nil && len(subs) == 0
	})
}

func TestWorkerPool_UnknownRequestSendsNothing(t *testing.T) {
	sender := &mockSender{}
	wp, s := newTestPool(t, sender)
	ctx := context.Background()

	require.NoError(t, s.PutSubscription(ctx, &model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k", Auth: "a"}))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(runCtx)

	wp.Dispatch(9999)

	// Give the worker a moment; the unknown id must produce no push.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sender.sent())
}

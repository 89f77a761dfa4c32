package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"assist-board-backend/internal/model"
	"assist-board-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender implementation using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// payload is the JSON body delivered to the technician's browser.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WorkerPool pages every subscribed technician when a new assistance request
// is created. Jobs carry the request id; workers load the request and the
// full subscription list from the store.
type WorkerPool struct {
	size    int
	jobs    chan int64
	store   store.Store
	options *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, options *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		store:   s,
		options: options,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("push worker %d started", id)
	for {
		select {
		case requestID := <-wp.jobs:
			wp.sendForRequest(ctx, requestID)
		case <-ctx.Done():
			log.Printf("push worker %d shutting down", id)
			return
		}
	}
}

// Dispatch enqueues a push job for the given request.
func (wp *WorkerPool) Dispatch(requestID int64) {
	wp.jobs <- requestID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// sendForRequest loads the request and all subscriptions and pushes one
// notification per subscription.
func (wp *WorkerPool) sendForRequest(ctx context.Context, requestID int64) {
	request, err := wp.store.GetAssistanceRequest(ctx, requestID)
	if err != nil {
		log.Printf("push: failed to load request %d: %v", requestID, err)
		return
	}

	subs, err := wp.store.GetSubscriptions(ctx)
	if err != nil {
		log.Printf("push: failed to load subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload{
		Title: "Assistance requested",
		Body:  fmt.Sprintf("New request from %s (%s)", request.RoomName, request.RoomLocation),
	})
	if err != nil {
		log.Printf("push: failed to marshal payload for request %d: %v", requestID, err)
		return
	}

	log.Printf("push: sending %d notifications for request %d", len(subs), requestID)
	for _, sub := range subs {
		wp.send(ctx, sub, body)
	}
}

// send pushes one notification and drops the subscription when the push
// service reports it gone.
func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, body []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(body, wpSub, wp.options)
	if err != nil {
		log.Printf("push: failed to send to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("push: subscription %s expired, deleting", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("push: failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

package notification

import (
	"context"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"facility-monitor-backend/internal/metrics"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/store"
)

// PushSender defines the interface for sending a web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

type pushJob struct {
	userID  int64
	payload []byte
}

// PushPool manages a pool of workers delivering web push copies of bell
// notifications. Delivery is best effort and never blocks the publisher.
type PushPool struct {
	size    int
	jobs    chan pushJob
	store   store.Store
	webpush *webpush.Options
	sender  PushSender
	log     *zap.Logger
}

// NewPushPool creates a new worker pool.
func NewPushPool(size int, s store.Store, options *webpush.Options, log *zap.Logger) *PushPool {
	return &PushPool{
		size:    size,
		jobs:    make(chan pushJob, size),
		store:   s,
		webpush: options,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the worker goroutines.
func (p *PushPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

// Dispatch queues a push delivery for all of a user's subscriptions. If the
// queue is full the job is dropped; push is a convenience channel.
func (p *PushPool) Dispatch(userID int64, payload []byte) {
	select {
	case p.jobs <- pushJob{userID: userID, payload: payload}:
	default:
		p.log.Warn("push queue full, dropping notification", zap.Int64("user_id", userID))
	}
}

func (p *PushPool) worker(ctx context.Context, id int) {
	p.log.Debug("push worker started", zap.Int("worker", id))
	for {
		select {
		case job := <-p.jobs:
			p.sendToUser(ctx, job)
		case <-ctx.Done():
			p.log.Debug("push worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

func (p *PushPool) sendToUser(ctx context.Context, job pushJob) {
	subscriptions, err := p.store.SubscriptionsByUser(ctx, job.userID)
	if err != nil {
		p.log.Warn("fetching push subscriptions failed", zap.Int64("user_id", job.userID), zap.Error(err))
		return
	}
	for _, sub := range subscriptions {
		p.sendOne(ctx, sub, job.payload)
	}
}

func (p *PushPool) sendOne(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		p.log.Warn("push delivery failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	metrics.NotificationsDelivered.WithLabelValues("push").Inc()

	// Gone means the browser dropped the subscription.
	if resp.StatusCode == http.StatusGone {
		if err := p.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			p.log.Warn("deleting expired subscription failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}

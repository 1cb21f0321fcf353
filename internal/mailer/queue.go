package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"kforum/internal/observability"
)

// ErrQueueFull is returned when the delivery queue cannot accept more mail.
var ErrQueueFull = errors.New("mail queue is full")

const sendTimeout = 30 * time.Second

// Queue delivers messages asynchronously through a bounded channel so request
// handlers never block on SMTP round-trips.
type Queue struct {
	sender Sender
	ch     chan Message
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewQueue creates a queue with the given buffer size and starts the workers.
func NewQueue(sender Sender, size, workers int) *Queue {
	if size <= 0 {
		size = 64
	}
	if workers <= 0 {
		workers = 1
	}

	q := &Queue{
		sender: sender,
		ch:     make(chan Message, size),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue queues a message for delivery. It never blocks; a full queue is an
// error so callers can decide whether the mail matters enough to fail on.
func (q *Queue) Enqueue(msg Message) error {
	select {
	case q.ch <- msg:
		observability.MailQueueDepth.Inc()
		return nil
	default:
		observability.MailDeliveries.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for msg := range q.ch {
		observability.MailQueueDepth.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		observability.LogAsyncOperationStart(ctx, "mail_delivery", map[string]interface{}{
			"to": msg.To, "subject": msg.Subject,
		})

		if err := q.sender.Send(ctx, msg); err != nil {
			observability.MailDeliveries.WithLabelValues("error").Inc()
			observability.LogAsyncOperationError(ctx, "mail_delivery", err, map[string]interface{}{
				"to": msg.To,
			})
		} else {
			observability.MailDeliveries.WithLabelValues("ok").Inc()
			observability.LogAsyncOperationEnd(ctx, "mail_delivery", map[string]interface{}{
				"to": msg.To,
			})
		}
		cancel()
	}
}

// Close drains the queue and waits for in-flight deliveries.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
	q.wg.Wait()
}

package webhook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion/pkg/models"
)

// Sender delivers a figure.
type Sender interface {
	Send(ctx context.Context, fig models.Figure) error
}

// Queue delivers figures in the background so callers never wait on the
// plotting service.
type Queue struct {
	sender  Sender
	items   chan models.Figure
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

// NewQueue starts a queue holding up to size pending figures.
func NewQueue(sender Sender, size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		sender:  sender,
		items:   make(chan models.Figure, size),
		timeout: 30 * time.Second,
		logger:  logger,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for fig := range q.items {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.sender.Send(ctx, fig); err != nil {
			q.logger.Warn("webhook delivery failed", zap.String("id", fig.ID), zap.String("figure", fig.Name), zap.Error(err))
		}
		cancel()
	}
}

// Enqueue schedules fig for delivery. It reports false and drops the figure
// when the queue is full.
func (q *Queue) Enqueue(fig models.Figure) bool {
	select {
	case q.items <- fig:
		return true
	default:
		q.logger.Warn("webhook queue full, dropping figure", zap.String("id", fig.ID), zap.String("figure", fig.Name))
		return false
	}
}

// Close delivers the pending figures and stops the queue. Enqueue must not
// be called afterwards.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.items)
		q.wg.Wait()
	})
}

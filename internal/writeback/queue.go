// Package writeback persists freshly derived records to the secondary
// store off the read path. Delivery is best effort: a full or closed
// queue drops the job and the next recompute tries again.
package writeback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/metrics"
	"goflare.io/broker/internal/models"
	"goflare.io/broker/internal/utils"
)

var ErrQueueClosed = errors.New("write-back queue closed")

// Writer is the store the queue writes to.
type Writer interface {
	Upsert(ctx context.Context, kind models.Kind, records []models.Record) error
}

type job struct {
	kind     models.Kind
	records  []models.Record
	enqueued time.Time
}

// Queue is a bounded, sharded write-back queue. Jobs for the same kind
// always land on the same worker, so they are applied in dispatch order.
type Queue struct {
	writer  Writer
	timeout time.Duration
	stats   *models.Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	shards []chan job

	done chan struct{}
}

// New starts cfg.Workers workers sharing cfg.QueueSize slots.
func New(writer Writer, cfg config.WriteBackConfig, stats *models.Metrics, logger *zap.Logger) *Queue {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	perShard := (cfg.QueueSize + workers - 1) / workers
	if perShard <= 0 {
		perShard = 1
	}
	if stats == nil {
		stats = models.NewMetrics()
	}

	q := &Queue{
		writer:  writer,
		timeout: cfg.Timeout,
		stats:   stats,
		logger:  logger,
		shards:  make([]chan job, workers),
		done:    make(chan struct{}),
	}

	wg := &sync.WaitGroup{}
	for i := range q.shards {
		q.shards[i] = make(chan job, perShard)
		wg.Add(1)
		go q.runWorker(wg, i)
	}
	go func() {
		wg.Wait()
		close(q.done)
	}()

	return q
}

// Dispatch enqueues records for kind without blocking. It reports false
// when the job was dropped.
func (q *Queue) Dispatch(kind models.Kind, records []models.Record) bool {
	if len(records) == 0 {
		return true
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop(kind, ErrQueueClosed)
		return false
	}

	shard := q.shards[utils.ShardIndex(uint64(len(q.shards)), string(kind))]
	select {
	case shard <- job{kind: kind, records: records, enqueued: time.Now()}:
		metrics.QueueDepth.Inc()
		return true
	default:
		q.drop(kind, errors.New("queue full"))
		return false
	}
}

func (q *Queue) drop(kind models.Kind, reason error) {
	q.stats.WriteBackDropped.Inc()
	metrics.WriteBacks.WithLabelValues(string(kind), metrics.OutcomeDropped).Inc()
	q.logger.Warn("Dropped write-back", zap.String("kind", string(kind)), zap.Error(reason))
}

// Len returns the number of jobs waiting.
func (q *Queue) Len() int {
	n := 0
	for _, shard := range q.shards {
		n += len(shard)
	}
	return n
}

// Close stops accepting jobs and waits for queued ones to finish, or for
// ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		for _, shard := range q.shards {
			close(shard)
		}
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close write-back queue: %w", ctx.Err())
	}
}

func (q *Queue) runWorker(wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for j := range q.shards[workerID] {
		metrics.QueueDepth.Dec()
		q.handle(workerID, j)
	}
}

func (q *Queue) handle(workerID int, j job) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	err := runSafely(func() error {
		return q.writer.Upsert(ctx, j.kind, j.records)
	})
	if err != nil {
		q.stats.WriteBackFailed.Inc()
		metrics.WriteBacks.WithLabelValues(string(j.kind), metrics.OutcomeFailed).Inc()
		q.logger.Warn("Failed to write back records",
			zap.Int("worker", workerID),
			zap.String("kind", string(j.kind)),
			zap.Int("count", len(j.records)),
			zap.Error(err),
		)
		return
	}

	q.stats.WriteBackOK.Inc()
	metrics.WriteBacks.WithLabelValues(string(j.kind), metrics.OutcomeOK).Inc()
	q.logger.Debug("Wrote back records",
		zap.String("kind", string(j.kind)),
		zap.Int("count", len(j.records)),
		zap.Duration("queued", time.Since(j.enqueued)),
	)
}

func runSafely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Package outbox runs the relay worker that ships pending asset
// lifecycle events from the outbox table to the broker.
package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitrina-app/media-service/internal/infrastructure"
	"github.com/vitrina-app/media-service/internal/usecase"
	"github.com/vitrina-app/media-service/pkg/logger"
)

type OutboxRelay struct {
	outbox usecase.EventsOutboxUseCase
	es     infrastructure.EventsSender
	logger logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	processBatchTimeout time.Duration
	batchSize           int
	maxRetries          int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	outbox usecase.EventsOutboxUseCase,
	es infrastructure.EventsSender,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	processBatchTimeout time.Duration,
	batchSize int,
	maxRetries int,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:              outbox,
		es:                  es,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		processBatchTimeout: processBatchTimeout,
		batchSize:           batchSize,
		maxRetries:          maxRetries,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. ship pending events to the broker
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.processEventsBatch(batchCtx)
		batchCancel()
	})

	// 2. park events that exhausted their retries
	r.worker(r.markFailedInterval, func() {
		err := r.outbox.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.MarkMaxRetriesAsFailed")
		}
	})

	// 3. sweep old processed/failed rows
	r.worker(r.cleanupInterval, func() {
		err := r.outbox.CleanupOutbox(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.CleanupOutbox")
		}
	})

	return nil
}

func (r *OutboxRelay) processEventsBatch(ctx context.Context) {
	// 1. pending events still under the retry ceiling
	events, err := r.outbox.GetPendingEvents(ctx, r.maxRetries, r.batchSize)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.outbox.GetPendingEvents")

		return
	}
	if len(events) == 0 {
		return
	}

	// 2. claim the batch
	err = r.outbox.MarkAsProcessingBatch(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.outbox.MarkAsProcessingBatch")

		return
	}

	// 3. send; on failure the batch goes back to pending with the
	// retry count bumped
	err = r.es.SendEvents(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.es.SendEvents")

		incErr := r.outbox.IncrementRetryCountBatch(ctx, events)
		if incErr != nil {
			r.logger.Error(incErr, "OutboxRelay - processEventsBatch - r.outbox.IncrementRetryCountBatch")
		}
		return
	}

	// 4. settle the batch
	err = r.outbox.MarkAsProcessedBatch(ctx, events)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processEventsBatch - r.outbox.MarkAsProcessedBatch")

		return
	}
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		r.es.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Package batcher implements the size/time-bounded sealing ingester (C2):
// it buffers incoming Transactions and seals a Batch whenever the buffer
// reaches B transactions or T has elapsed since the last seal, whichever
// comes first. A ticker-driven loop: seal on size OR interval, whichever
// fires first, dropping under backpressure per §4.2 rather than blocking
// or overwriting in place.
package batcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/domain"
	"github.com/you/sandwich-sentinel/internal/health"
)

// Batcher seals Batches of up to Size transactions, no less often than
// every Interval. Sealed batches are delivered to a bounded-capacity-one
// downstream consumer; if the consumer has not yet drained the previous
// batch, the new one is dropped and the BatchesDropped metric is
// incremented — analysis
// latency must never grow unbounded under load.
type Batcher struct {
	size     int
	interval time.Duration
	log      *zap.Logger
	metrics  *health.Metrics
}

func New(size int, interval time.Duration, log *zap.Logger, metrics *health.Metrics) *Batcher {
	return &Batcher{size: size, interval: interval, log: log, metrics: metrics}
}

// Run consumes Transactions from in and delivers sealed Batches to out
// until ctx is canceled. On cancellation, a final Batch is sealed (even if
// below Size) and delivered before Run returns, per §4.2's cancellation
// rule. The final batch goes through the same non-blocking send as every
// other seal: if out cannot take it at that moment, it is dropped rather
// than blocking shutdown.
func (b *Batcher) Run(ctx context.Context, in <-chan domain.Transaction, out chan<- domain.Batch) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	buf := make([]domain.Transaction, 0, b.size)

	seal := func() {
		if len(buf) == 0 {
			return
		}
		batch := domain.Batch{Transactions: buf, SealedAt: time.Now()}
		buf = make([]domain.Transaction, 0, b.size)
		b.deliver(batch, out)
	}

	for {
		select {
		case <-ctx.Done():
			seal()
			return
		case tx := <-in:
			buf = append(buf, tx)
			if len(buf) >= b.size {
				seal()
				ticker.Reset(b.interval)
			}
		case <-ticker.C:
			seal()
		}
	}
}

// deliver is a non-blocking send: if the detector stage has not drained the
// previous batch yet, this one is dropped (§4.2 backpressure policy).
func (b *Batcher) deliver(batch domain.Batch, out chan<- domain.Batch) {
	select {
	case out <- batch:
		if b.metrics != nil {
			b.metrics.BatchesSealed.Inc()
		}
	default:
		if b.metrics != nil {
			b.metrics.BatchesDropped.Inc()
		}
		if b.log != nil {
			b.log.Warn("dropped batch under backpressure",
				zap.Int("size", len(batch.Transactions)))
		}
	}
}

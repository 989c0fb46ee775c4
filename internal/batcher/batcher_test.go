package batcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/sandwich-sentinel/internal/domain"
)

func TestBatcher_SealsOnSize(t *testing.T) {
	b := New(3, time.Hour, nil, nil)
	in := make(chan domain.Transaction, 10)
	out := make(chan domain.Batch, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go b.Run(ctx, in, out)

	for i := 0; i < 3; i++ {
		in <- domain.Transaction{}
	}

	select {
	case batch := <-out:
		assert.Len(t, batch.Transactions, 3)
	case <-time.After(time.Second):
		t.Fatal("expected a batch to be sealed on reaching size threshold")
	}
}

func TestBatcher_SealsOnInterval(t *testing.T) {
	b := New(100, 20*time.Millisecond, nil, nil)
	in := make(chan domain.Transaction, 10)
	out := make(chan domain.Batch, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go b.Run(ctx, in, out)

	in <- domain.Transaction{}

	select {
	case batch := <-out:
		assert.Len(t, batch.Transactions, 1)
	case <-time.After(time.Second):
		t.Fatal("expected a batch to be sealed on interval elapsing")
	}
}

func TestBatcher_FinalBatchOnShutdown(t *testing.T) {
	b := New(100, time.Hour, nil, nil)
	in := make(chan domain.Transaction, 10)
	out := make(chan domain.Batch, 10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx, in, out)
		close(done)
	}()

	in <- domain.Transaction{}
	time.Sleep(10 * time.Millisecond) // let it reach the buffer before shutdown
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	select {
	case batch := <-out:
		require.Len(t, batch.Transactions, 1)
	default:
		t.Fatal("expected a final batch to be sealed and delivered on shutdown")
	}
}

func TestBatcher_DropsUnderBackpressure(t *testing.T) {
	b := New(1, time.Hour, nil, nil)
	in := make(chan domain.Transaction, 10)
	out := make(chan domain.Batch, 1)
	out <- domain.Batch{} // downstream still holds the previous batch: every seal drops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go b.Run(ctx, in, out)

	in <- domain.Transaction{}
	in <- domain.Transaction{}
	time.Sleep(100 * time.Millisecond) // let both seals run while out is full
	<-out                              // take the placeholder back out

	select {
	case <-out:
		t.Fatal("expected batches to be dropped, not delivered, with no reader draining out")
	case <-time.After(100 * time.Millisecond):
	}
}

// Package publisher implements the outbound Publisher (C6): it serializes
// confirmed Findings to the §6 wire schema and submits them to Kafka with
// at-least-once delivery semantics, retrying transient errors with
// exponential backoff before dropping. Uses segmentio/kafka-go for the
// producer and the same cenkalti/backoff/v4 retry pattern internal/txstream
// uses for reconnects.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/apperrors"
	"github.com/you/sandwich-sentinel/internal/domain"
	"github.com/you/sandwich-sentinel/internal/health"
)

// wireAlert is the exact §6 JSON shape. domain.Alert uses go-ethereum types
// for in-process convenience; wireAlert is the lossless string encoding
// that actually goes out on the wire.
type wireAlert struct {
	VictimTxHash   string `json:"victim_tx_hash"`
	Attacker       string `json:"attacker"`
	FrontrunTxHash string `json:"frontrun_tx_hash"`
	BackrunTxHash  string `json:"backrun_tx_hash"`
	ProfitETH      string `json:"profit_eth"`
	Timestamp      int64  `json:"timestamp"`
}

func toWire(a domain.Alert) wireAlert {
	return wireAlert{
		VictimTxHash:   a.VictimTxHash.Hex(),
		Attacker:       a.Attacker.Hex(),
		FrontrunTxHash: a.FrontrunTxHash.Hex(),
		BackrunTxHash:  a.BackrunTxHash.Hex(),
		ProfitETH:      a.ProfitETH,
		Timestamp:      a.Timestamp,
	}
}

// Writer is the subset of *kafka.Writer the Publisher depends on, narrowed
// for testability.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher submits confirmed Findings to the outbound topic.
type Publisher struct {
	writer Writer
	log    *zap.Logger
	hs     *health.BaseDataSource
}

func New(broker, topic string, log *zap.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		// No partition key: consumer ordering is not a guarantee this
		// pipeline makes (§4.6).
	}
	return &Publisher{writer: w, log: log, hs: health.NewBaseDataSource("kafka")}
}

// NewWithWriter is used by tests to inject a fake Writer.
func NewWithWriter(w Writer, log *zap.Logger) *Publisher {
	return &Publisher{writer: w, log: log, hs: health.NewBaseDataSource("kafka")}
}

func (p *Publisher) HealthSource() health.DataSource { return p.hs }

func (p *Publisher) Close() error { return p.writer.Close() }

// Publish serializes alert to the wire schema and submits it, retrying on
// transient error with exponential backoff (base 100ms, cap 5s, max 3
// attempts per §4.6). On final failure it logs and drops: the pipeline must
// never block on a broken downstream.
func (p *Publisher) Publish(ctx context.Context, alert domain.Alert, metrics *health.Metrics) error {
	payload, err := json.Marshal(toWire(alert))
	if err != nil {
		return apperrors.Wrap(apperrors.KindPublish, "encode alert", err)
	}
	msg := kafka.Message{Value: payload}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	var lastErr error
attempts:
	for attempt := 0; attempt < 3; attempt++ {
		lastErr = p.writer.WriteMessages(ctx, msg)
		if lastErr == nil {
			p.hs.SetSuccess()
			return nil
		}
		if attempt == 2 {
			break
		}
		if metrics != nil {
			metrics.PublishRetries.Inc()
		}
		wait := bo.NextBackOff()
		p.log.Warn("publish failed, retrying",
			zap.Error(lastErr), zap.Int("attempt", attempt+1), zap.Duration("backoff", wait))
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break attempts
		case <-time.After(wait):
		}
	}

	p.hs.SetError(lastErr)
	if metrics != nil {
		metrics.PublishDrops.Inc()
	}
	p.log.Error("dropping alert after exhausting publish retries",
		zap.Error(lastErr), zap.String("victim_tx", alert.VictimTxHash.Hex()))
	return apperrors.Wrap(apperrors.KindPublish, "exhausted retries", lastErr)
}

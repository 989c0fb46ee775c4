package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/domain"
)

type fakeWriter struct {
	failures int // number of leading calls to fail before succeeding
	calls    int
	messages []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("broker unavailable")
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func testAlert() domain.Alert {
	return domain.Alert{ProfitETH: "1.0000", Timestamp: 1}
}

func TestPublisher_SucceedsFirstAttempt(t *testing.T) {
	w := &fakeWriter{}
	p := NewWithWriter(w, zap.NewNop())

	err := p.Publish(context.Background(), testAlert(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, w.calls)
	require.Len(t, w.messages, 1)

	var decoded wireAlert
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, "1.0000", decoded.ProfitETH)
}

func TestPublisher_RetriesThenSucceeds(t *testing.T) {
	w := &fakeWriter{failures: 2}
	p := NewWithWriter(w, zap.NewNop())

	err := p.Publish(context.Background(), testAlert(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, w.calls)
}

func TestPublisher_DropsAfterExhaustingRetries(t *testing.T) {
	w := &fakeWriter{failures: 10}
	p := NewWithWriter(w, zap.NewNop())

	err := p.Publish(context.Background(), testAlert(), nil)
	assert.Error(t, err)
	assert.Equal(t, 3, w.calls)
}

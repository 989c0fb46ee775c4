// Package txstream implements the Mempool Subscriber (C1): a long-lived
// WebSocket subscription that yields a lazy, unbounded sequence of
// domain.Transaction values, reconnecting with exponential backoff on
// connection loss. A background goroutine streaming into a channel, using
// gorilla/websocket for the wss:// transport and cenkalti/backoff/v4 for
// the reconnect schedule.
package txstream

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/apperrors"
	"github.com/you/sandwich-sentinel/internal/domain"
	"github.com/you/sandwich-sentinel/internal/health"
)

// Transaction is an alias for domain.Transaction: the subscriber's output
// type is the pipeline's canonical transaction value, not a package-local copy.
type Transaction = domain.Transaction

// Subscriber streams pending transactions from a single wss:// endpoint.
type Subscriber struct {
	url string
	log *zap.Logger
	hs  *health.BaseDataSource

	dialer *websocket.Dialer
}

func New(url string, log *zap.Logger) *Subscriber {
	return &Subscriber{
		url:    url,
		log:    log,
		hs:     health.NewBaseDataSource("mempool"),
		dialer: websocket.DefaultDialer,
	}
}

// HealthSource exposes the subscriber's liveness to the supervisor's
// health registry.
func (s *Subscriber) HealthSource() health.DataSource { return s.hs }

// rawTx is the shape of one transaction notification as delivered by
// `eth_subscribe("newPendingTransactions", true)` style full-body feeds:
// hex-encoded fields exactly as the node emits them.
type rawTx struct {
	Hash     string  `json:"hash"`
	From     string  `json:"from"`
	To       *string `json:"to"`
	Value    string  `json:"value"`
	GasPrice *string `json:"gasPrice"`
	Nonce    string  `json:"nonce"`
	Input    string  `json:"input"`
}

type subscriptionNotification struct {
	Method string `json:"method"`
	Params struct {
		Result rawTx `json:"result"`
	} `json:"params"`
}

// Stream connects and re-connects to the configured endpoint until ctx is
// canceled, sending every successfully decoded Transaction on out. Decode
// failures on individual notifications are logged and skipped, never fatal;
// only a closed ctx stops the stream for good.
func (s *Subscriber) Stream(ctx context.Context, out chan<- Transaction) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 60 * time.Second
	bo.MaxElapsedTime = 0 // retry forever; only ctx cancellation stops us
	// Full jitter is applied to each wait below.
	bo.RandomizationFactor = 0

	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.runOnce(ctx, out); err != nil {
			s.hs.SetError(err)
			// Full jitter: uniform in [0, current capped interval].
			wait := time.Duration(rand.Int63n(int64(bo.NextBackOff()) + 1))
			s.log.Warn("mempool subscription dropped, reconnecting",
				zap.Error(err), zap.Duration("backoff", wait))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		// Clean exit (ctx canceled mid-read): reset backoff for any
		// future reconnect and stop.
		bo.Reset()
		return
	}
}

// runOnce dials, subscribes, and reads notifications until the connection
// drops or ctx is canceled. Discards all in-flight subscription state on
// return, as required by §4.1: the caller always re-subscribes from
// scratch on the next call.
func (s *Subscriber) runOnce(ctx context.Context, out chan<- Transaction) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "dial mempool ws", err)
	}
	defer conn.Close()

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_subscribe",
		"params":  []any{"newPendingTransactions", true},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "send subscribe request", err)
	}

	s.hs.SetSuccess()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = conn.Close()
		close(done)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}
			return apperrors.Wrap(apperrors.KindTransport, "read mempool ws", err)
		}

		tx, ok := s.decode(raw)
		if !ok {
			continue
		}
		s.hs.SetSuccess()
		select {
		case out <- tx:
		case <-ctx.Done():
			return nil
		}
	}
}

// decode parses one WebSocket frame into a Transaction. Malformed frames
// (unparseable JSON, frames that are not eth_subscription notifications,
// a bad hash or sender) are skipped rather than treated as fatal, per §4.1's
// "discard in-flight state, never crash the subscriber" tolerance.
func (s *Subscriber) decode(raw []byte) (Transaction, bool) {
	var note subscriptionNotification
	if err := json.Unmarshal(raw, &note); err != nil {
		s.log.Debug("unparseable mempool frame", zap.Error(err))
		return Transaction{}, false
	}
	if note.Method != "eth_subscription" || note.Params.Result.Hash == "" {
		return Transaction{}, false
	}
	rt := note.Params.Result

	hash, ok := parseHash(rt.Hash)
	if !ok {
		return Transaction{}, false
	}
	from, ok := parseAddress(rt.From)
	if !ok {
		return Transaction{}, false
	}
	var to common.Address
	if rt.To != nil {
		to, _ = parseAddress(*rt.To)
	}
	value, ok := parseHexBig(rt.Value)
	if !ok {
		value = big.NewInt(0)
	}
	gasPrice := big.NewInt(0)
	if rt.GasPrice != nil {
		if gp, ok := parseHexBig(*rt.GasPrice); ok {
			gasPrice = gp
		}
	}
	nonce, ok := parseHexUint64(rt.Nonce)
	if !ok {
		nonce = 0
	}
	input, ok := parseHexBytes(rt.Input)
	if !ok {
		input = nil
	}

	return Transaction{
		Hash:       hash,
		From:       from,
		To:         to,
		InputData:  input,
		GasPrice:   gasPrice,
		Value:      value,
		Nonce:      nonce,
		ObservedAt: time.Now(),
	}, true
}

func parseHash(s string) (common.Hash, bool) {
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return common.Hash{}, false
	}
	return common.HexToHash(s), true
}

func parseAddress(s string) (common.Address, bool) {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parseHexBig(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0), true
	}
	v, ok := new(big.Int).SetString(s, 16)
	return v, ok
}

func parseHexUint64(s string) (uint64, bool) {
	v, ok := parseHexBig(s)
	if !ok || !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

func parseHexBytes(s string) ([]byte, bool) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

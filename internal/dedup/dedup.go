// Package dedup implements the TTL-based Deduplicator (C5): an atomic
// check-and-mark against Redis keyed by attacker address, fail-open on
// cache failure, with health-signal bookkeeping alongside the other
// external collaborators.
package dedup

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/apperrors"
	"github.com/you/sandwich-sentinel/internal/health"
)

// Result is the outcome of CheckAndMark.
type Result int

const (
	FirstSeen Result = iota
	RecentlySeen
)

// Deduplicator maps attacker addresses to a presence marker with TTL.
type Deduplicator struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
	hs     *health.BaseDataSource
}

func New(client *redis.Client, ttl time.Duration, log *zap.Logger) *Deduplicator {
	return &Deduplicator{client: client, ttl: ttl, log: log, hs: health.NewBaseDataSource("redis")}
}

func (d *Deduplicator) HealthSource() health.DataSource { return d.hs }

// CheckAndMark performs the atomic check-and-mark from §4.4: SET key NX EX
// ttl is a single round trip that both tests presence and marks absence,
// so there is no race window between a separate GET and SET.
//
// If the cache is unreachable, the policy is fail-open: treat as FirstSeen
// so the caller proceeds (prefer duplicate alerts over missed alerts). The
// failure is logged and surfaced as a health signal; metrics, if non-nil,
// records the fail-open.
func (d *Deduplicator) CheckAndMark(ctx context.Context, addr common.Address, metrics *health.Metrics) (Result, error) {
	key := "sandwich:dedup:" + addr.Hex()
	ok, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.hs.SetError(err)
		if d.log != nil {
			d.log.Warn("dedup cache unreachable, failing open", zap.Error(err))
		}
		if metrics != nil {
			metrics.DedupFailOpen.Inc()
		}
		return FirstSeen, apperrors.Wrap(apperrors.KindCache, "check_and_mark", err)
	}
	d.hs.SetSuccess()
	if ok {
		return FirstSeen, nil
	}
	if metrics != nil {
		metrics.DedupSuppressed.Inc()
	}
	return RecentlySeen, nil
}

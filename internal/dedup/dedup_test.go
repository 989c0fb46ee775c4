package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var addr = common.HexToAddress("0x000000000000000000000000000000000000AAAA")

func TestDeduplicator_FailsOpenOnCacheError(t *testing.T) {
	// Port 1 is reserved and never accepts TCP connections; the dial fails
	// fast, exercising the fail-open path without a real Redis instance.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	d := New(client, 300*time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := d.CheckAndMark(ctx, addr, nil)
	assert.Error(t, err)
	assert.Equal(t, FirstSeen, result)
	assert.False(t, d.HealthSource().Healthy())
}

package txstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecode_ValidNotification(t *testing.T) {
	s := New("wss://example/v2/key", zap.NewNop())
	frame := []byte(`{
		"jsonrpc": "2.0",
		"method": "eth_subscription",
		"params": {
			"subscription": "0xdeadbeef",
			"result": {
				"hash": "0x` + hashHexRepeat("a") + `",
				"from": "0x` + addrHexRepeat("1") + `",
				"to": "0x` + addrHexRepeat("2") + `",
				"value": "0xde0b6b3a7640000",
				"gasPrice": "0x3b9aca00",
				"nonce": "0x5",
				"input": "0x38ed1739"
			}
		}
	}`)

	tx, ok := s.decode(frame)
	require.True(t, ok)
	assert.Equal(t, uint64(5), tx.Nonce)
	assert.Equal(t, []byte{0x38, 0xed, 0x17, 0x39}, tx.InputData)
}

func TestDecode_IgnoresOtherMethods(t *testing.T) {
	s := New("wss://example", zap.NewNop())
	_, ok := s.decode([]byte(`{"method":"eth_unsubscribe","params":{}}`))
	assert.False(t, ok)
}

func TestDecode_MalformedFrameDoesNotPanic(t *testing.T) {
	s := New("wss://example", zap.NewNop())
	_, ok := s.decode([]byte(`not json`))
	assert.False(t, ok)
}

func hashHexRepeat(s string) string {
	out := ""
	for i := 0; i < 64; i++ {
		out += s
	}
	return out
}

func addrHexRepeat(s string) string {
	out := ""
	for i := 0; i < 40; i++ {
		out += s
	}
	return out
}

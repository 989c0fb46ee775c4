package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/domain"
)

func findingFor(addr common.Address) domain.Finding {
	return domain.Finding{AttackerAddress: addr, DetectedAt: time.Now()}
}

func TestValidator_ConfirmsAboveThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"account": map[string]any{"swapCount": 9}},
		})
	}))
	defer srv.Close()

	v := New(srv.URL, 5, zap.NewNop())
	confirmed, err := v.Confirm(context.Background(), findingFor(common.HexToAddress("0x01")), nil)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestValidator_DropsBelowThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"account": map[string]any{"swapCount": 3}},
		})
	}))
	defer srv.Close()

	v := New(srv.URL, 5, zap.NewNop())
	confirmed, err := v.Confirm(context.Background(), findingFor(common.HexToAddress("0x01")), nil)
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestValidator_FailsClosedOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(4 * time.Second) // exceeds the 3s query timeout
	}))
	defer srv.Close()

	v := New(srv.URL, 5, zap.NewNop())
	confirmed, err := v.Confirm(context.Background(), findingFor(common.HexToAddress("0x01")), nil)
	assert.Error(t, err)
	assert.False(t, confirmed)
}

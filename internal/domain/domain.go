// Package domain holds the value types that flow through the detection
// pipeline: raw Transactions observed on the wire, the Batches the ingester
// seals them into, the SwapIntents the detector decodes from them, and the
// Findings/Alerts that fall out the other end.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// weiPerEther is the fixed-point denominator for converting native-asset
// amounts (wei) to whole-unit (ETH) strings.
var weiPerEther = decimal.New(1, 18)

func weiToEthDecimalString(wei *big.Int) string {
	if wei == nil {
		wei = big.NewInt(0)
	}
	d := decimal.NewFromBigInt(wei, 0).DivRound(weiPerEther, 4)
	return d.StringFixed(4)
}

// Transaction is an immutable view of a pending transaction as observed by
// the mempool subscriber. Fields mirror the wire notification; ObservedAt is
// stamped locally and is not part of the chain's own record.
type Transaction struct {
	Hash       common.Hash
	From       common.Address
	To         common.Address
	InputData  []byte
	GasPrice   *big.Int
	Value      *big.Int
	Nonce      uint64
	ObservedAt time.Time
}

// Selector returns the 4-byte method selector from InputData, or false if
// the input is too short to contain one (plain transfers, contract
// creations with empty calldata).
func (t Transaction) Selector() ([4]byte, bool) {
	var sel [4]byte
	if len(t.InputData) < 4 {
		return sel, false
	}
	copy(sel[:], t.InputData[:4])
	return sel, true
}

// Batch is an ordered, immutable sequence of Transactions sealed by the
// Batcher. Position within the slice is arrival order and is the only
// ordering the Detector is allowed to rely on.
type Batch struct {
	Transactions []Transaction
	SealedAt     time.Time
}

// SwapIntent is the decoded view of a Transaction that called a known
// swap-method selector. PositionInBatch is copied from the Transaction's
// index in the Batch it was decoded from so the Detector can reason about
// ordering without re-deriving it.
type SwapIntent struct {
	TxHash          common.Hash
	Actor           common.Address
	Pool            common.Address
	TokenIn         common.Address
	TokenOut        common.Address
	AmountIn        *big.Int
	GasPrice        *big.Int
	PositionInBatch int
}

// Finding is a detected sandwich triple. It is transient: it flows from the
// Detector through the Deduplicator and Validator to the Publisher and is
// never persisted.
type Finding struct {
	VictimTx              common.Hash
	FrontrunTx            common.Hash
	BackrunTx             common.Hash
	AttackerAddress       common.Address
	Pool                  common.Address
	EstimatedProfitNative *big.Int
	DetectedAt            time.Time

	// FrontrunGasPrice and VictimGasPrice are carried through for the
	// supplemental gas-premium telemetry (internal/health.Metrics);
	// they play no role in the wire Alert.
	FrontrunGasPrice *big.Int
	VictimGasPrice   *big.Int
}

// Alert is the wire representation of a confirmed Finding, published to the
// outbound topic. See internal/publisher for the JSON encoding (§6 schema).
type Alert struct {
	VictimTxHash   common.Hash
	Attacker       common.Address
	FrontrunTxHash common.Hash
	BackrunTxHash  common.Hash
	ProfitETH      string // decimal, 4 fractional digits, per wire schema
	Timestamp      int64  // unix seconds
}

// AlertFromFinding converts a confirmed Finding into its wire Alert, scaling
// the native-asset profit estimate (wei) down to whole-ETH units with 4
// fractional digits as required by §6.
func AlertFromFinding(f Finding) Alert {
	return Alert{
		VictimTxHash:   f.VictimTx,
		Attacker:       f.AttackerAddress,
		FrontrunTxHash: f.FrontrunTx,
		BackrunTxHash:  f.BackrunTx,
		ProfitETH:      weiToEthDecimalString(f.EstimatedProfitNative),
		Timestamp:      f.DetectedAt.Unix(),
	}
}

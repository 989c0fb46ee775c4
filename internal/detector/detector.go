// Package detector implements the pure sandwich-pattern analyzer (C3): given
// a sealed Batch it returns the set of Findings, with no I/O and no mutable
// external state. A decode-then-scan pass over an ordered slice: decode,
// group-by-pool, scan, gas-check, tie-break, per §4.3.
package detector

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/you/sandwich-sentinel/internal/domain"
)

// Detector holds no state beyond its logger: Detect is a pure function of
// its Batch argument, callable concurrently and repeatably.
type Detector struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Detector {
	return &Detector{log: log}
}

// Detect runs the full §4.3 algorithm over one Batch and returns its
// Findings. Calling Detect twice on an equal Batch returns an equal result;
// Detect never mutates the Batch it is given and never consults wall-clock
// time, so its output is a pure function of b.
func (d *Detector) Detect(b domain.Batch) []domain.Finding {
	intents := d.decode(b)
	groups := groupByPool(intents)

	var candidates []candidate
	for _, group := range groups {
		candidates = append(candidates, scanPool(group)...)
	}
	candidates = resolveAttackerTies(candidates)

	// §5: findings are emitted in order of the frontrun transaction's
	// position within the Batch.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].frontrun.PositionInBatch < candidates[j].frontrun.PositionInBatch
	})

	out := make([]domain.Finding, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.Finding{
			VictimTx:              c.victim.TxHash,
			FrontrunTx:            c.frontrun.TxHash,
			BackrunTx:             c.backrun.TxHash,
			AttackerAddress:       c.frontrun.Actor,
			Pool:                  c.frontrun.Pool,
			EstimatedProfitNative: c.profit,
			DetectedAt:            b.SealedAt,
			FrontrunGasPrice:      c.frontrun.GasPrice,
			VictimGasPrice:        c.victim.GasPrice,
		})
	}
	return out
}

// decode is the Algorithm step 1: match each Transaction's selector against
// the known swap table, discarding non-matches. Decoding errors on one
// transaction never abort the pass; they just drop that transaction.
func (d *Detector) decode(b domain.Batch) []domain.SwapIntent {
	intents := make([]domain.SwapIntent, 0, len(b.Transactions))
	for i, tx := range b.Transactions {
		sel, ok := tx.Selector()
		if !ok {
			continue
		}
		method, ok := knownSwapSelectors[sel]
		if !ok {
			if d.log != nil {
				d.log.Debug("skipping non-swap transaction",
					zap.String("tx", tx.Hash.Hex()),
					zap.String("method", describeSelector(tx)))
			}
			continue
		}
		amountIn, tokenIn, tokenOut, ok := method.decode(tx)
		if !ok {
			if d.log != nil {
				d.log.Debug("failed to decode swap calldata",
					zap.String("tx", tx.Hash.Hex()),
					zap.String("method", method.name))
			}
			continue
		}
		intents = append(intents, domain.SwapIntent{
			TxHash:          tx.Hash,
			Actor:           tx.From,
			Pool:            pairAddress(tokenIn, tokenOut),
			TokenIn:         tokenIn,
			TokenOut:        tokenOut,
			AmountIn:        amountIn,
			GasPrice:        tx.GasPrice,
			PositionInBatch: i,
		})
	}
	return intents
}

// groupByPool partitions SwapIntents by pool, preserving each group's
// original positional ordering (step 2).
func groupByPool(intents []domain.SwapIntent) map[common.Address][]domain.SwapIntent {
	groups := make(map[common.Address][]domain.SwapIntent)
	for _, in := range intents {
		groups[in.Pool] = append(groups[in.Pool], in)
	}
	return groups
}

// candidate is a surviving (frontrun, victim, backrun) triple awaiting
// tie-breaking, steps 3-5 of the algorithm.
type candidate struct {
	frontrun, victim, backrun domain.SwapIntent
	profit                    *big.Int
}

// scanPool performs steps 3-5 and the victim tie-break of step 6 for a
// single pool's swaps: find every (frontrun, backrun) same-actor pair in
// opposite directions bracketing a different-actor victim in the frontrun's
// direction, and apply the gas-ordering check. The one-Finding-per-attacker
// rule is applied across all pools by Detect.
func scanPool(group []domain.SwapIntent) []candidate {
	var candidates []candidate

	for fi := 0; fi < len(group); fi++ {
		f := group[fi]
		for bi := fi + 1; bi < len(group); bi++ {
			b := group[bi]
			if b.Actor != f.Actor {
				continue
			}
			if !oppositeDirection(f, b) {
				continue
			}
			best, ok := bestVictim(group, f, b)
			if !ok {
				continue
			}
			if !gasOrdered(f, best, b) {
				continue
			}
			candidates = append(candidates, candidate{
				frontrun: f,
				victim:   best,
				backrun:  b,
				profit:   profit(f, b),
			})
		}
	}

	return candidates
}

// oppositeDirection reports whether b swaps in the reverse direction of f,
// i.e. f sells TokenIn for TokenOut and b sells TokenOut back for TokenIn.
func oppositeDirection(f, b domain.SwapIntent) bool {
	return f.TokenIn == b.TokenOut && f.TokenOut == b.TokenIn
}

// bestVictim scans the open interval (position(f), position(b)) for
// different-actor swaps in f's direction, applying the tie-break rule from
// step 6: largest amount_in_estimate, earliest position on ties.
func bestVictim(group []domain.SwapIntent, f, b domain.SwapIntent) (domain.SwapIntent, bool) {
	var best domain.SwapIntent
	found := false
	for _, v := range group {
		if v.PositionInBatch <= f.PositionInBatch || v.PositionInBatch >= b.PositionInBatch {
			continue
		}
		if v.Actor == f.Actor {
			continue
		}
		if v.TokenIn != f.TokenIn || v.TokenOut != f.TokenOut {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		cmp := v.AmountIn.Cmp(best.AmountIn)
		if cmp > 0 || (cmp == 0 && v.PositionInBatch < best.PositionInBatch) {
			best = v
		}
	}
	return best, found
}

// gasOrdered is step 4: gas_price(f) >= gas_price(v) >= gas_price(b).
func gasOrdered(f, v, b domain.SwapIntent) bool {
	return f.GasPrice.Cmp(v.GasPrice) >= 0 && v.GasPrice.Cmp(b.GasPrice) >= 0
}

// profit is step 5: amount_in(b) - amount_in(f), clamped to zero.
func profit(f, b domain.SwapIntent) *big.Int {
	p := new(big.Int).Sub(b.AmountIn, f.AmountIn)
	if p.Sign() < 0 {
		return big.NewInt(0)
	}
	return p
}

// resolveAttackerTies enforces "a single attacker address may appear in at
// most one Finding per Batch (first triple wins)" from §3: among candidates
// sharing an attacker, keep only the one with the earliest frontrun
// position, per step 6's second tie-break rule.
func resolveAttackerTies(candidates []candidate) []candidate {
	best := make(map[common.Address]candidate)
	for _, c := range candidates {
		actor := c.frontrun.Actor
		existing, ok := best[actor]
		if !ok || c.frontrun.PositionInBatch < existing.frontrun.PositionInBatch {
			best[actor] = c
		}
	}

	out := make([]candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	return out
}

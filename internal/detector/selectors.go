package detector

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/you/sandwich-sentinel/internal/domain"
)

// swapMethod decodes the ABI-encoded arguments of one known swap-method
// selector into a normalized (amountIn, tokenIn, tokenOut) triple. Table
// entries are restricted to the Uniswap V2-style methods §4.3 names
// (swapExactTokensForTokens, swapTokensForExactTokens, and their ETH
// variants); the fuller selector table (transfer/approve/mint/...) lives in
// classify.go and is used only to explain, at debug level, why a
// transaction was not a swap — it never contributes a SwapIntent.
type swapMethod struct {
	name   string
	decode func(tx domain.Transaction) (amountIn *big.Int, tokenIn, tokenOut common.Address, ok bool)
}

// knownSwapSelectors covers the Uniswap V2 router swap methods §4.3 names.
var knownSwapSelectors = map[[4]byte]swapMethod{
	selector("38ed1739"): {name: "swapExactTokensForTokens", decode: decodeExactInTokens},
	selector("8803dbee"): {name: "swapTokensForExactTokens", decode: decodeExactOutTokens},
	selector("7ff36ab5"): {name: "swapExactETHForTokens", decode: decodeExactInETH},
	selector("18cbafe5"): {name: "swapExactTokensForETH", decode: decodeExactInTokens},
	selector("fb3bdb41"): {name: "swapETHForExactTokens", decode: decodeExactOutETH},
	selector("791ac947"): {name: "swapExactTokensForTokensSupportingFeeOnTransferTokens", decode: decodeExactInTokens},
	selector("b6f9de95"): {name: "swapExactETHForTokensSupportingFeeOnTransferTokens", decode: decodeExactInETH},
	selector("5c11d795"): {name: "swapExactTokensForETHSupportingFeeOnTransferTokens", decode: decodeExactInTokens},
}

func selector(hex8 string) [4]byte {
	var out [4]byte
	b := mustHex(hex8)
	copy(out[:], b)
	return out
}

// decodeExactInTokens handles swapExactTokensForTokens / swapExactTokensForETH /
// the fee-on-transfer variants sharing that layout:
//
//	word0: amountIn
//	word1: amountOutMin
//	word2: offset to path[]
//	word3: to
//	word4: deadline
func decodeExactInTokens(tx domain.Transaction) (*big.Int, common.Address, common.Address, bool) {
	args := argsOf(tx.InputData)
	amountIn, ok := readUint(args, 0)
	if !ok {
		return nil, common.Address{}, common.Address{}, false
	}
	path, ok := readPath(args, 2)
	if !ok || len(path) < 2 {
		return nil, common.Address{}, common.Address{}, false
	}
	return amountIn, path[0], path[len(path)-1], true
}

// decodeExactOutTokens handles swapTokensForExactTokens:
//
//	word0: amountOut
//	word1: amountInMax
//	word2: offset to path[]
//	word3: to
//	word4: deadline
//
// The precise amountIn is not knowable until execution; amountInMax is used
// as the approximation, consistent with §9's documented profit-estimate
// approximation.
func decodeExactOutTokens(tx domain.Transaction) (*big.Int, common.Address, common.Address, bool) {
	args := argsOf(tx.InputData)
	amountInMax, ok := readUint(args, 1)
	if !ok {
		return nil, common.Address{}, common.Address{}, false
	}
	path, ok := readPath(args, 2)
	if !ok || len(path) < 2 {
		return nil, common.Address{}, common.Address{}, false
	}
	return amountInMax, path[0], path[len(path)-1], true
}

// decodeExactInETH handles swapExactETHForTokens (+ fee-on-transfer variant):
//
//	word0: amountOutMin
//	word1: offset to path[]
//	word2: to
//	word3: deadline
//
// amountIn is the transaction's msg.value, since the swap is funded by the
// attached ETH rather than an explicit argument.
func decodeExactInETH(tx domain.Transaction) (*big.Int, common.Address, common.Address, bool) {
	args := argsOf(tx.InputData)
	path, ok := readPath(args, 1)
	if !ok || len(path) < 2 {
		return nil, common.Address{}, common.Address{}, false
	}
	amountIn := tx.Value
	if amountIn == nil {
		amountIn = big.NewInt(0)
	}
	return amountIn, path[0], path[len(path)-1], true
}

// decodeExactOutETH handles swapETHForExactTokens:
//
//	word0: amountOut
//	word1: offset to path[]
//	word2: to
//	word3: deadline
//
// The attacker sends exactly tx.Value in ETH and is refunded any excess on
// execution; we use tx.Value as the amountIn approximation.
func decodeExactOutETH(tx domain.Transaction) (*big.Int, common.Address, common.Address, bool) {
	return decodeExactInETH(tx)
}

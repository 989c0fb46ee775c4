package detector

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const wordSize = 32

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// argsOf strips the 4-byte selector, leaving the ABI-encoded argument words.
func argsOf(input []byte) []byte {
	if len(input) < 4 {
		return nil
	}
	return input[4:]
}

// readUint reads the uint256 at the given word index, treating the word as
// a big-endian unsigned integer. ok is false if args is too short.
func readUint(args []byte, wordIndex int) (*big.Int, bool) {
	start := wordIndex * wordSize
	end := start + wordSize
	if start < 0 || end > len(args) {
		return nil, false
	}
	return new(big.Int).SetBytes(args[start:end]), true
}

// readAddress reads the address right-aligned in the word at wordIndex.
func readAddress(args []byte, wordIndex int) (common.Address, bool) {
	start := wordIndex * wordSize
	end := start + wordSize
	if start < 0 || end > len(args) {
		return common.Address{}, false
	}
	var addr common.Address
	copy(addr[:], args[end-20:end])
	return addr, true
}

// readPath decodes the dynamic address[] argument whose offset word sits at
// offsetWordIndex, per standard ABI dynamic-array encoding: the word holds a
// byte offset (relative to the start of args) to a length-prefixed array of
// right-aligned addresses.
func readPath(args []byte, offsetWordIndex int) ([]common.Address, bool) {
	offset, ok := readUint(args, offsetWordIndex)
	if !ok {
		return nil, false
	}
	if !offset.IsUint64() {
		return nil, false
	}
	lengthWordIndex := int(offset.Uint64()) / wordSize
	length, ok := readUint(args, lengthWordIndex)
	if !ok {
		return nil, false
	}
	if !length.IsUint64() || length.Uint64() > 64 {
		// Reject absurd lengths outright: malformed or adversarial
		// calldata, never a real router path.
		return nil, false
	}
	n := int(length.Uint64())
	if n < 2 {
		return nil, false
	}
	out := make([]common.Address, 0, n)
	for i := 0; i < n; i++ {
		addr, ok := readAddress(args, lengthWordIndex+1+i)
		if !ok {
			return nil, false
		}
		out = append(out, addr)
	}
	return out, true
}

// pairAddress derives a stable pool identifier for an unordered token pair,
// approximating Uniswap V2's CREATE2 pool derivation (factory + sorted
// token0/token1 determine the pool address) without depending on a live
// factory contract. Two swaps naming the same token pair in either order
// always group under the same synthetic pool key, which is all the
// Detector's grouping-by-pool step requires.
func pairAddress(a, b common.Address) common.Address {
	token0, token1 := a, b
	if bytesGreater(token0[:], token1[:]) {
		token0, token1 = token1, token0
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(token0[:])
	h.Write(token1[:])
	sum := h.Sum(nil)
	var out common.Address
	copy(out[:], sum[len(sum)-20:])
	return out
}

func bytesGreater(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

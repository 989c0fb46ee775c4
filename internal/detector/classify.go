package detector

// nonSwapMethodNames covers common non-swap selectors seen on the same
// router/token contracts as the swap methods in selectors.go. It never feeds a
// SwapIntent; it exists purely so Detect's debug logging can say *why* a
// transaction was skipped ("approve(address,uint256)") instead of just
// "not a swap".
var nonSwapMethodNames = map[[4]byte]string{
	selector("a9059cbb"): "transfer(address,uint256)",
	selector("23b872dd"): "transferFrom(address,address,uint256)",
	selector("095ea7b3"): "approve(address,uint256)",
	selector("d0e30db0"): "deposit()",
	selector("2e1a7d4d"): "withdraw(uint256)",
	selector("b6b55f25"): "deposit(uint256)",
	selector("3ccfd60b"): "withdraw()",
	selector("4e71d92d"): "claim()",
	selector("40c10f19"): "mint(address,uint256)",
	selector("b61d27f6"): "execute(address,uint256,bytes)",
}

// describeSelector returns a human-readable label for logging when a
// transaction's selector is not one of the known swap methods.
func describeSelector(tx selectorSource) string {
	sel, ok := tx.Selector()
	if !ok {
		return "no-calldata"
	}
	if name, ok := nonSwapMethodNames[sel]; ok {
		return name
	}
	return "unknown-method"
}

// selectorSource is satisfied by domain.Transaction; kept as a narrow
// interface here so classify.go has no import cycle back onto domain's
// concrete type beyond what Selector already exposes.
type selectorSource interface {
	Selector() ([4]byte, bool)
}

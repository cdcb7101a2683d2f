package mintcore

import "math/big"

// Human-readable helpers (ETH/gwei).
func fmtETH(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), big.NewInt(1_000_000_000_000_000_000))
	return r.FloatString(6)
}

// FmtGwei renders a wei amount in gwei.
func FmtGwei(x *big.Int) string {
	if x == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(x), big.NewInt(1_000_000_000))
	return r.FloatString(2)
}

// FmtETH renders a wei amount in ether.
func FmtETH(x *big.Int) string { return fmtETH(x) }

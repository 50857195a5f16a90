//go:build !gmp

package bigint

import "math/big"

// Backend names the library that performs modular exponentiation.
const Backend = "math/big"

// expMod computes base^exp mod m for exp >= 0 and m > 0.
func expMod(base, exp, m Int) Int {
	return fromBigOwned(new(big.Int).Exp(bigView(base), bigView(exp), bigView(m)))
}

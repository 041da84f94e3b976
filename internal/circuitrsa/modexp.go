//go:build !gmp

package circuitrsa

import "math/big"

// modExp returns x^y mod m.
func modExp(x, y, m *big.Int) *big.Int {
	return new(big.Int).Exp(x, y, m)
}

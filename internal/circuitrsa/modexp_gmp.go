//go:build gmp

// GMP-backed modular exponentiation, compiled with -tags=gmp. Requires
// libgmp (libgmp-dev on Debian/Ubuntu, brew install gmp on macOS).

package circuitrsa

import (
	"math/big"

	"github.com/ncw/gmp"
)

// modExp returns x^y mod m using GMP.
func modExp(x, y, m *big.Int) *big.Int {
	gx := new(gmp.Int).SetBytes(x.Bytes())
	gy := new(gmp.Int).SetBytes(y.Bytes())
	gm := new(gmp.Int).SetBytes(m.Bytes())
	r := new(gmp.Int).Exp(gx, gy, gm)
	return new(big.Int).SetBytes(r.Bytes())
}

package table

import (
	"math"

	"github.com/rmera/nbforce/vmath"
)

// Dispersion is -1/r^6. Multiplied by c6 in the kernels.
func Dispersion() Func {
	return Func{
		Name: "dispersion",
		V:    func(r float64) float64 { return -1 / math.Pow(r, 6) },
		D:    func(r float64) float64 { return 6 / math.Pow(r, 7) },
	}
}

// Repulsion is 1/r^12. Multiplied by c12 in the kernels.
func Repulsion() Func {
	return Func{
		Name: "repulsion",
		V:    func(r float64) float64 { return 1 / math.Pow(r, 12) },
		D:    func(r float64) float64 { return -12 / math.Pow(r, 13) },
	}
}

// Coulomb is the plain 1/r.
func Coulomb() Func {
	return Func{
		Name: "coulomb",
		V:    func(r float64) float64 { return 1 / r },
		D:    func(r float64) float64 { return -1 / (r * r) },
	}
}

// ReactionField is 1/r + krf*r^2 - crf.
func ReactionField(krf, crf float64) Func {
	return Func{
		Name: "reaction-field",
		V:    func(r float64) float64 { return 1/r + krf*r*r - crf },
		D:    func(r float64) float64 { return -1/(r*r) + 2*krf*r },
	}
}

// Ewald is the real space part of the Ewald sum, erfc(beta*r)/r.
func Ewald(beta float64) Func {
	c := 2 * beta / math.Sqrt(math.Pi)
	return Func{
		Name: "ewald",
		V:    func(r float64) float64 { return math.Erfc(beta*r) / r },
		D: func(r float64) float64 {
			return -math.Erfc(beta*r)/(r*r) - c*math.Exp(-beta*beta*r*r)/r
		},
	}
}

// GBPolarization is the Still generalized Born function in reduced units,
// 1/sqrt(x^2+exp(-x^2/4)), where x=r/sqrt(Ri*Rj).
func GBPolarization() Func {
	return Func{
		Name: "gb",
		V: func(x float64) float64 {
			return 1 / math.Sqrt(x*x+math.Exp(-x*x/4))
		},
		D: func(x float64) float64 {
			e := math.Exp(-x * x / 4)
			s := x*x + e
			return -0.5 * (2*x - 0.5*x*e) / (s * math.Sqrt(s))
		},
	}
}

// VdW returns the standard 8-wide dispersion/repulsion table.
func VdW[T vmath.Real](scale, rmax float64) *Table[T] {
	return New[T](scale, rmax, Dispersion(), Repulsion())
}

// CoulombVdW returns a 12-wide table with the given Coulomb function followed
// by dispersion and repulsion.
func CoulombVdW[T vmath.Real](coul Func, scale, rmax float64) *Table[T] {
	return New[T](scale, rmax, coul, Dispersion(), Repulsion())
}

// GB returns the 4-wide generalized Born table for reduced distances up to xmax.
func GB[T vmath.Real](scale, xmax float64) *Table[T] {
	return New[T](scale, xmax, GBPolarization())
}

// EwaldBeta returns the Ewald splitting parameter for which erfc(beta*rc)
// equals tol, by bisection, as usually done for the real space cutoff rc.
func EwaldBeta(rc, tol float64) float64 {
	lo, hi := 0.0, 5.0
	for math.Erfc(hi*rc) > tol {
		hi *= 2
	}
	for i := 0; i < 60; i++ {
		mid := 0.5 * (lo + hi)
		if math.Erfc(mid*rc) > tol {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

/*
 * ff.go, part of nbforce.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package ff turns per-atom-type force field parameters into the flat
// per-type-pair arrays read by the nonbonded kernels, and builds the per-atom
// generalized Born parameters.
package ff

import (
	"fmt"
	"math"

	"github.com/rmera/nbforce/vmath"
)

// Combination rules to build the parameters of a pair of
// different types when no explicit pair is given.
const (
	Geometric             = iota //c6 and c12 are the geometric means
	LorentzBerthelot             //arithmetic mean of sigmas, geometric of epsilons
	GeometricSigmaEpsilon        //geometric means of sigma and epsilon
)

// SigmaEpsilonToC6C12 returns the Lennard-Jones c6 and c12 for the given sigma and epsilon.
func SigmaEpsilonToC6C12(sigma, e float64) (c6 float64, c12 float64) {
	return 4 * e * math.Pow(sigma, 6), 4 * e * math.Pow(sigma, 12)
}

// C6C12ToSigmaEpsilon is the inverse of SigmaEpsilonToC6C12. Zero c6 or c12
// give zero sigma and epsilon.
func C6C12ToSigmaEpsilon(c6, c12 float64) (sigma float64, epsilon float64) {
	if c6 == 0 || c12 == 0 {
		return 0, 0
	}
	return math.Pow(c12/c6, 1.0/6.0), c6 * c6 / (4 * c12)
}

// AtomType holds the nonbonded parameters of one atom type.
type AtomType struct {
	Name   string
	C6     float64
	C12    float64
	BuckA  float64 //Buckingham a*exp(-b*r) - c6/r^6
	BuckB  float64
	Charge float64 //default charge for atoms of this type
	//Generalized Born
	GBRadius float64
	GBScale  float64 //HCT/OBC overlap scale factor
}

// LJPair overrides the combination rule for a pair of types.
type LJPair struct {
	Names [2]string
	C6    float64
	C12   float64
}

// FF is a set of atom types and explicit pair parameters.
type FF struct {
	SigmaEpsilon bool //are the LJ parameters given as sigma(C6)/epsilon(C12)?
	Rule         int
	ATypes       []*AtomType
	LJ           []*LJPair
}

// NewFF returns an empty force field. By default the parameters are
// read as c6/c12 and combined with the geometric rule.
func NewFF(SigmaEpsilon ...bool) *FF {
	ret := new(FF)
	if len(SigmaEpsilon) > 0 {
		ret.SigmaEpsilon = SigmaEpsilon[0]
	}
	ret.Rule = Geometric
	return ret
}

// AddType appends a type and returns its index.
func (F *FF) AddType(t *AtomType) int {
	F.ATypes = append(F.ATypes, t)
	return len(F.ATypes) - 1
}

// TypeIndex returns the index of the type with the given name, or -1.
func (F *FF) TypeIndex(name string) int {
	for i, v := range F.ATypes {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// Ntype returns the number of types.
func (F *FF) Ntype() int {
	return len(F.ATypes)
}

func (F *FF) c6c12(t *AtomType) (float64, float64) {
	if F.SigmaEpsilon {
		return SigmaEpsilonToC6C12(t.C6, t.C12)
	}
	return t.C6, t.C12
}

// combine returns c6 and c12 for the types a and b.
func (F *FF) combine(a, b *AtomType) (float64, float64, error) {
	for _, p := range F.LJ {
		if (p.Names[0] == a.Name && p.Names[1] == b.Name) || (p.Names[0] == b.Name && p.Names[1] == a.Name) {
			if F.SigmaEpsilon {
				c6, c12 := SigmaEpsilonToC6C12(p.C6, p.C12)
				return c6, c12, nil
			}
			return p.C6, p.C12, nil
		}
	}
	switch F.Rule {
	case Geometric:
		a6, a12 := F.c6c12(a)
		b6, b12 := F.c6c12(b)
		return math.Sqrt(a6 * b6), math.Sqrt(a12 * b12), nil
	case LorentzBerthelot, GeometricSigmaEpsilon:
		sa, ea := a.C6, a.C12
		sb, eb := b.C6, b.C12
		if !F.SigmaEpsilon {
			sa, ea = C6C12ToSigmaEpsilon(a.C6, a.C12)
			sb, eb = C6C12ToSigmaEpsilon(b.C6, b.C12)
		}
		s := 0.5 * (sa + sb)
		if F.Rule == GeometricSigmaEpsilon {
			s = math.Sqrt(sa * sb)
		}
		c6, c12 := SigmaEpsilonToC6C12(s, math.Sqrt(ea*eb))
		return c6, c12, nil
	}
	return 0, 0, fmt.Errorf("ff: unknown combination rule %d", F.Rule)
}

// LJParams returns the flat c6/c12 array used by the kernels: for the types
// ti and tj, c6 is at 2*(ntype*ti+tj) and c12 right after it.
func LJParams[T vmath.Real](F *FF) ([]T, error) {
	n := F.Ntype()
	ret := make([]T, 2*n*n)
	for i, a := range F.ATypes {
		for j, b := range F.ATypes {
			c6, c12, err := F.combine(a, b)
			if err != nil {
				return nil, err
			}
			p := 2 * (n*i + j)
			ret[p] = T(c6)
			ret[p+1] = T(c12)
		}
	}
	return ret, nil
}

// BuckinghamParams returns the flat a/b/c6 array for the Buckingham kernels:
// for the types ti and tj the 3 numbers start at 3*(ntype*ti+tj).
// a is combined geometrically, b harmonically (1/b arithmetic), c6 geometrically.
func BuckinghamParams[T vmath.Real](F *FF) []T {
	n := F.Ntype()
	ret := make([]T, 3*n*n)
	for i, a := range F.ATypes {
		for j, b := range F.ATypes {
			p := 3 * (n*i + j)
			ret[p] = T(math.Sqrt(a.BuckA * b.BuckA))
			bb := 0.0
			if a.BuckB > 0 && b.BuckB > 0 {
				bb = 2 / (1/a.BuckB + 1/b.BuckB)
			}
			ret[p+1] = T(bb)
			a6, _ := F.c6c12(a)
			b6, _ := F.c6c12(b)
			ret[p+2] = T(math.Sqrt(a6 * b6))
		}
	}
	return ret
}

// Charges returns the default per-atom charges for the given per-atom types.
func Charges[T vmath.Real](F *FF, types []int) []T {
	ret := make([]T, len(types))
	for i, t := range types {
		ret[i] = T(F.ATypes[t].Charge)
	}
	return ret
}

// GBRadii returns the per-atom generalized Born radii and overlap
// scale factors for the given per-atom types.
func GBRadii[T vmath.Real](F *FF, types []int) (radius, scale []T) {
	radius = make([]T, len(types))
	scale = make([]T, len(types))
	for i, t := range types {
		radius[i] = T(F.ATypes[t].GBRadius)
		scale[i] = T(F.ATypes[t].GBScale)
	}
	return radius, scale
}

/*
 * model.go, part of nbforce.
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

// Package gb computes generalized Born radii with the Still, HCT or OBC
// models, and distributes dE/dR onto the atomic forces with the chain rule.
//
// The radius pass and the chain-rule pass walk the same neighbor list with
// the same batch iterator (nblist.List.Batches). The radius pass stores two
// derivative coefficients per pair in Dadx, at offsets that depend only on
// the position of the pair in the list, and the chain-rule pass reads them
// back from the same offsets.
package gb

import (
	"fmt"
	"math"
	"strings"

	"github.com/rmera/nbforce/vmath"
)

// Model is a generalized Born radius model.
type Model int

const (
	Still Model = iota
	HCT         //Hawkins, Cramer and Truhlar
	OBC         //Onufriev, Bashford and Case
)

func (m Model) String() string {
	switch m {
	case Still:
		return "still"
	case HCT:
		return "hct"
	case OBC:
		return "obc"
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// ParseModel returns the model with the given name.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "still":
		return Still, nil
	case "hct":
		return HCT, nil
	case "obc":
		return OBC, nil
	}
	return Still, fmt.Errorf("gb: unknown model %q", s)
}

// Physical constants, in nm and kJ/mol.
const (
	Epsfac = 138.935485 //1/(4 pi eps0)

	StillP1 = 0.073 * 0.1
	StillP4 = 15.236 * 0.1 * 4.184
	StillP5 = 1.254

	stillP5Inv = 1 / StillP5
	stillPiP5  = math.Pi * StillP5
)

// Params are the global parameters of a model.
type Params[T vmath.Real] struct {
	DielectricOffset T
	Epsfac           T
	//OBC remapping, tanh(Alpha*s - Beta*s^2 + Gamma*s^3)
	Alpha T
	Beta  T
	Gamma T
}

// DefaultParams returns the usual parameters, with the OBC-II constants.
func DefaultParams[T vmath.Real]() Params[T] {
	return Params[T]{
		DielectricOffset: 0.009,
		Epsfac:           Epsfac,
		Alpha:            1.0,
		Beta:             0.8,
		Gamma:            4.85,
	}
}

// Atoms are the per-atom parameters. Still needs Radius, Vsolv and GPol,
// HCT and OBC need Radius and Sk.
type Atoms[T vmath.Real] struct {
	Radius []T //intrinsic radii
	Sk     []T //scaled radii for the overlap integrals
	Vsolv  []T //atomic volumes
	GPol   []T //Still self polarization, plus the bonded terms if any
}

// StillSelf returns the self polarization term of the Still model for an
// atom of the given radius.
func StillSelf[T vmath.Real](radius, offset, epsfac T) T {
	return -0.5 * epsfac / (radius - offset + StillP1)
}

// SphereVolume returns the volume of a sphere.
func SphereVolume[T vmath.Real](radius T) T {
	return 4.0 / 3.0 * math.Pi * radius * radius * radius
}

// ScaledRadius returns the radius of the sphere an atom excludes in the
// HCT/OBC overlap integrals: the offset radius times its scale factor.
func ScaledRadius[T vmath.Real](radius, offset, scale T) T {
	return (radius - offset) * scale
}

// NewStillAtoms fills Vsolv and GPol from the radii, with no bonded
// corrections.
func NewStillAtoms[T vmath.Real](radius []T, p Params[T]) *Atoms[T] {
	a := &Atoms[T]{Radius: radius, Vsolv: make([]T, len(radius)), GPol: make([]T, len(radius))}
	for i, r := range radius {
		a.Vsolv[i] = SphereVolume(r)
		a.GPol[i] = StillSelf(r, p.DielectricOffset, p.Epsfac)
	}
	return a
}

// NewOverlapAtoms fills Sk from the radii and scale factors, for HCT and OBC.
func NewOverlapAtoms[T vmath.Real](radius, scale []T, p Params[T]) *Atoms[T] {
	a := &Atoms[T]{Radius: radius, Sk: make([]T, len(radius))}
	for i, r := range radius {
		a.Sk[i] = ScaledRadius(r, p.DielectricOffset, scale[i])
	}
	return a
}

// SelfEnergy adds the Born self energy of each atom,
// -0.5*gbfacel*q^2/R, to the returned total, and its derivative with
// respect to R to dvda. gbfacel is epsfac*(1/eps_in - 1/eps_solvent).
func SelfEnergy[T vmath.Real](q, born []T, gbfacel T, dvda []T) T {
	var e T
	for i, v := range q {
		qq := 0.5 * gbfacel * v * v
		rinv := 1 / born[i]
		e -= qq * rinv
		if dvda != nil {
			dvda[i] += qq * rinv * rinv
		}
	}
	return e
}

/*
 * table.go, part of nbforce.
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

// Package table builds and evaluates the cubic spline tables used by the
// tabulated kernels.
//
// A table point n holds, for each tabulated function, 4 numbers Y, F, G, H,
// so that the function between the points n and n+1 is
// Y + eps*F + eps^2*G + eps^3*H, where eps is the fractional part of
// r*scale. Functions are stored one after another in each point, so the
// dispersion and repulsion parts of the usual VdW table live at offsets 0 and 4
// of an 8-wide point.
package table

import (
	"math"

	"github.com/rmera/nbforce/vmath"
)

// Offsets and strides of the standard layouts.
const (
	Width = 4 //numbers per function per table point

	VdwStride = 8 //dispersion, repulsion
	VdwDisp   = 0
	VdwRep    = 4

	CoulVdwStride = 12 //Coulomb, dispersion, repulsion
	CoulCoul      = 0
	CoulDisp      = 4
	CoulRep       = 8

	GBStride = 4 //generalized Born polarization
	GBPol    = 0
)

// Table is a set of functions of r tabulated on a grid of spacing 1/Scale.
type Table[T vmath.Real] struct {
	Scale  T   //points per nm
	Stride int //numbers per table point
	N      int //number of points
	Data   []T
}

// Func is a function to be tabulated, with its derivative.
type Func struct {
	Name string
	V    func(r float64) float64
	D    func(r float64) float64 //dV/dr
}

// New tabulates the functions fs from r=0 to (at least) rmax with scale points per nm.
// The coefficients of each interval are those of the cubic Hermite interpolant of
// the function values and derivatives at its ends, so the interpolated function
// and its derivative are continuous across intervals.
// Points where a function is not finite (r=0 for 1/r^n) take the values of the next point
// with a zero derivative.
func New[T vmath.Real](scale, rmax float64, fs ...Func) *Table[T] {
	n := int(rmax*scale) + 2
	t := &Table[T]{Scale: T(scale), Stride: Width * len(fs), N: n}
	t.Data = make([]T, t.Stride*n)
	h := 1 / scale
	for k, f := range fs {
		v := make([]float64, n+1)
		d := make([]float64, n+1)
		for i := n; i >= 0; i-- {
			r := float64(i) * h
			v[i], d[i] = f.V(r), f.D(r)
			if !finite(v[i]) || !finite(d[i]) {
				v[i], d[i] = v[i+1], 0
			}
		}
		for i := 0; i < n; i++ {
			//derivatives with respect to eps
			d0, d1 := d[i]*h, d[i+1]*h
			dv := v[i+1] - v[i]
			p := t.Data[i*t.Stride+k*Width:]
			p[0] = T(v[i])
			p[1] = T(d0)
			p[2] = T(3*dv - 2*d0 - d1)
			p[3] = T(-2*dv + d0 + d1)
		}
	}
	return t
}

func finite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}

// Max returns the largest distance the table can be evaluated at.
func (t *Table[T]) Max() T {
	return T(t.N-1) / t.Scale
}

// Locate splits the table coordinate rt=r*scale into the offset of its
// table point and the fractional part eps.
func (t *Table[T]) Locate(rt T) (nnn int, eps T) {
	n0 := int(rt)
	return t.Stride * n0, rt - T(n0)
}

// Spline returns the interpolated function VV and its derivative with respect
// to eps, FF, for the function stored at offset off of the table point nnn.
// The table derivative in r is FF*Scale.
// Fp = F + G*eps + H*eps^2, VV = Y + eps*Fp, FF = Fp + G*eps + 2*H*eps^2.
func Spline[T vmath.Real](data []T, nnn int, eps T) (VV, FF T) {
	Y := data[nnn]
	F := data[nnn+1]
	Geps := eps * data[nnn+2]
	Heps2 := eps * eps * data[nnn+3]
	Fp := F + Geps + Heps2
	VV = Y + eps*Fp
	FF = Fp + Geps + 2*Heps2
	return VV, FF
}

// SplineV returns only VV, for energy-only evaluations.
func SplineV[T vmath.Real](data []T, nnn int, eps T) T {
	Y := data[nnn]
	F := data[nnn+1]
	Geps := eps * data[nnn+2]
	Heps2 := eps * eps * data[nnn+3]
	return Y + eps*(F+Geps+Heps2)
}

// Eval returns the function at offset off, and its r derivative, at the distance r.
func (t *Table[T]) Eval(off int, r T) (v, dvdr T) {
	nnn, eps := t.Locate(r * t.Scale)
	VV, FF := Spline(t.Data, nnn+off, eps)
	return VV, FF * t.Scale
}

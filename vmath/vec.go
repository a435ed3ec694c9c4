/*
 * vec.go, part of nbforce.
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

package vmath

import "unsafe"

// Real is the set of floating point types the numeric code is instantiated with.
type Real interface {
	~float32 | ~float64
}

// Lanes is the width of the vector type.
const Lanes = 4

// Vec4 is a vector of 4 lanes. It is a value type, operations return new vectors.
type Vec4[T Real] [Lanes]T

// Mask4 holds one flag per lane. A set lane is "active".
type Mask4 [Lanes]bool

// double returns true if T is a 64-bit type.
func double[T Real]() bool {
	var t T
	return unsafe.Sizeof(t) == 8
}

// Sel returns a if c is true, b otherwise. It is the scalar
// version of Select, and should be preferred to an if/else
// whenever the scalar code mirrors a vector computation.
func Sel[T Real](c bool, a, b T) T {
	if c {
		return a
	}
	return b
}

// Splat returns a vector with all lanes set to v.
func Splat[T Real](v T) Vec4[T] {
	return Vec4[T]{v, v, v, v}
}

// Gather loads s[idx[l]] in each lane l.
func Gather[T Real](s []T, idx [Lanes]int) Vec4[T] {
	return Vec4[T]{s[idx[0]], s[idx[1]], s[idx[2]], s[idx[3]]}
}

// GatherStride loads s[stride*idx[l]+off] in each lane. It is used
// to pick one cartesian component from a flat coordinate array.
func GatherStride[T Real](s []T, idx [Lanes]int, stride, off int) Vec4[T] {
	return Vec4[T]{s[stride*idx[0]+off], s[stride*idx[1]+off], s[stride*idx[2]+off], s[stride*idx[3]+off]}
}

// Store writes the first n lanes of v into dst, in order.
// Lanes beyond n are not written.
func (v Vec4[T]) Store(dst []T, n int) {
	for l := 0; l < n; l++ {
		dst[l] = v[l]
	}
}

func (v Vec4[T]) Add(w Vec4[T]) Vec4[T] {
	return Vec4[T]{v[0] + w[0], v[1] + w[1], v[2] + w[2], v[3] + w[3]}
}

func (v Vec4[T]) Sub(w Vec4[T]) Vec4[T] {
	return Vec4[T]{v[0] - w[0], v[1] - w[1], v[2] - w[2], v[3] - w[3]}
}

func (v Vec4[T]) Mul(w Vec4[T]) Vec4[T] {
	return Vec4[T]{v[0] * w[0], v[1] * w[1], v[2] * w[2], v[3] * w[3]}
}

func (v Vec4[T]) Div(w Vec4[T]) Vec4[T] {
	return Vec4[T]{v[0] / w[0], v[1] / w[1], v[2] / w[2], v[3] / w[3]}
}

// Scale multiplies every lane by s.
func (v Vec4[T]) Scale(s T) Vec4[T] {
	return Vec4[T]{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// MulAdd returns v*w+a, lane-wise.
func (v Vec4[T]) MulAdd(w, a Vec4[T]) Vec4[T] {
	return Vec4[T]{v[0]*w[0] + a[0], v[1]*w[1] + a[1], v[2]*w[2] + a[2], v[3]*w[3] + a[3]}
}

func (v Vec4[T]) Neg() Vec4[T] {
	return Vec4[T]{-v[0], -v[1], -v[2], -v[3]}
}

func (v Vec4[T]) Abs() Vec4[T] {
	var r Vec4[T]
	for l, x := range v {
		r[l] = Sel(x < 0, -x, x)
	}
	return r
}

func (v Vec4[T]) Max(w Vec4[T]) Vec4[T] {
	return Select(v.Greater(w), v, w)
}

func (v Vec4[T]) Min(w Vec4[T]) Vec4[T] {
	return Select(v.Less(w), v, w)
}

// Sum returns the horizontal sum of the lanes.
func (v Vec4[T]) Sum() T {
	return (v[0] + v[1]) + (v[2] + v[3])
}

func (v Vec4[T]) Less(w Vec4[T]) Mask4 {
	return Mask4{v[0] < w[0], v[1] < w[1], v[2] < w[2], v[3] < w[3]}
}

func (v Vec4[T]) LessEq(w Vec4[T]) Mask4 {
	return Mask4{v[0] <= w[0], v[1] <= w[1], v[2] <= w[2], v[3] <= w[3]}
}

func (v Vec4[T]) Greater(w Vec4[T]) Mask4 {
	return Mask4{v[0] > w[0], v[1] > w[1], v[2] > w[2], v[3] > w[3]}
}

// Select returns, for each lane, a where m is set and b elsewhere.
// Both a and b are always computed by the caller; values in the lanes
// not picked (even NaN or Inf) do not propagate.
func Select[T Real](m Mask4, a, b Vec4[T]) Vec4[T] {
	var r Vec4[T]
	for l := range r {
		r[l] = Sel(m[l], a[l], b[l])
	}
	return r
}

// Zero clears the lanes of v that are not set in m.
func Zero[T Real](m Mask4, v Vec4[T]) Vec4[T] {
	return Select(m, v, Vec4[T]{})
}

// FirstN returns a mask with the first n lanes set.
func FirstN(n int) Mask4 {
	return Mask4{n > 0, n > 1, n > 2, n > 3}
}

func (m Mask4) And(o Mask4) Mask4 {
	return Mask4{m[0] && o[0], m[1] && o[1], m[2] && o[2], m[3] && o[3]}
}

func (m Mask4) Or(o Mask4) Mask4 {
	return Mask4{m[0] || o[0], m[1] || o[1], m[2] || o[2], m[3] || o[3]}
}

// AndNot returns m and not o.
func (m Mask4) AndNot(o Mask4) Mask4 {
	return Mask4{m[0] && !o[0], m[1] && !o[1], m[2] && !o[2], m[3] && !o[3]}
}

func (m Mask4) Not() Mask4 {
	return Mask4{!m[0], !m[1], !m[2], !m[3]}
}

// Count returns the number of set lanes.
func (m Mask4) Count() int {
	c := 0
	for _, v := range m {
		if v {
			c++
		}
	}
	return c
}

// apply evaluates the scalar function f on every lane.
func apply[T Real](v Vec4[T], f func(T) T) Vec4[T] {
	return Vec4[T]{f(v[0]), f(v[1]), f(v[2]), f(v[3])}
}

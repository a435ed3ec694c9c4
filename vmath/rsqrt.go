/*
 * rsqrt.go, part of nbforce.
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

import "math"

// EstimateBits is the number of significant bits kept by the
// reciprocal and reciprocal square root estimates. It matches the
// accuracy of the hardware estimate instructions (rsqrtps, rcpps, frsqrte).
const EstimateBits = 12

// clears all but the EstimateBits highest explicit mantissa bits of a float64.
const estimateMask uint64 = (1 << (52 - EstimateBits)) - 1

// truncate drops the low mantissa bits of x, leaving an
// EstimateBits-accurate number.
func truncate(x float64) float64 {
	return math.Float64frombits(math.Float64bits(x) &^ estimateMask)
}

// RSqrtEstimate returns 1/sqrt(x) with only EstimateBits bits of accuracy.
func RSqrtEstimate[T Real](x T) T {
	return T(truncate(1 / math.Sqrt(float64(x))))
}

// RcpEstimate returns 1/x with only EstimateBits bits of accuracy.
func RcpEstimate[T Real](x T) T {
	return T(truncate(1 / float64(x)))
}

// RSqrt returns 1/sqrt(x) as an estimate refined by one Newton-Raphson
// step, t*(3-x*t*t)/2. Double precision takes a second step.
// x must be positive, RSqrt(0) is NaN.
func RSqrt[T Real](x T) T {
	t := RSqrtEstimate(x)
	t = 0.5 * t * (3 - x*t*t)
	if double[T]() {
		t = 0.5 * t * (3 - x*t*t)
	}
	return t
}

// Rcp returns 1/x as an estimate refined by the Newton step t*(2-x*t).
// Double precision takes a second step.
func Rcp[T Real](x T) T {
	t := RcpEstimate(x)
	t = t * (2 - x*t)
	if double[T]() {
		t = t * (2 - x*t)
	}
	return t
}

// RSqrt4 is the lane-wise RSqrt.
func RSqrt4[T Real](x Vec4[T]) Vec4[T] {
	return apply(x, RSqrt[T])
}

// Rcp4 is the lane-wise Rcp.
func Rcp4[T Real](x Vec4[T]) Vec4[T] {
	return apply(x, Rcp[T])
}

// Sqrt returns x*RSqrt(x), which is 0 for x==0.
func Sqrt[T Real](x T) T {
	safe := Sel(x > 0, x, 1)
	return Sel(x > 0, x*RSqrt(safe), 0)
}

/*
 * trans.go, part of nbforce.
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

//The polynomial approximations here are the single precision ones
//from the cephes library (Stephen L. Moshier), in the form used by
//the sse_mathfun routines. They are accurate to about 1e-7 relative
//error in single precision, and keep that accuracy when instantiated
//in double precision (they do not become double-precision accurate).

package vmath

import "math"

const (
	fopi = 1.27323954473516 // 4/pi
	dp1  = -0.78515625
	dp2  = -2.4187564849853515625e-4
	dp3  = -3.77489497744594108e-8

	sqrthf = 0.707106781186547524
	logq1  = -2.12194440e-4
	logq2  = 0.693359375
	log2e  = 1.44269504088896340736

	expHi  = 88.3762626647949
	expLo  = -88.3762626647949
	log2ef = 1.44269504088896341
	expC1  = 0.693359375
	expC2  = -2.12194440e-4

	tanhSmall = 0.625
)

var (
	sincof = []float64{-1.9515295891e-4, 8.3321608736e-3, -1.6666654611e-1}
	coscof = []float64{2.443315711809948e-5, -1.388731625493765e-3, 4.166664568298827e-2}
	logp   = []float64{7.0376836292e-2, -1.1514610310e-1, 1.1676998740e-1,
		-1.2420140846e-1, 1.4249322787e-1, -1.6668057665e-1,
		2.0000714765e-1, -2.4999993993e-1, 3.3333331174e-1}
	expp = []float64{1.9875691500e-4, 1.3981999507e-3, 8.3334519073e-3,
		4.1665795894e-2, 1.6666665459e-1, 5.0000001201e-1}
	tanhp = []float64{-5.70498872745e-3, 2.06390887954e-2, -5.37397155531e-2,
		1.33314422036e-1, -3.33332819422e-1}
)

// SinCos returns sin(x) and cos(x). The argument is reduced to
// [-pi/4, pi/4] with an extended precision 3-part pi/4, so the
// accuracy degrades for |x| larger than a few thousands.
func SinCos[T Real](x T) (sin, cos T) {
	neg := x < 0
	x = Sel(neg, -x, x)
	j := int64(x * T(fopi))
	j = (j + 1) &^ 1 //map zeros to origin
	y := T(j)
	poly := j&2 != 0
	sinNeg := neg != (j&4 != 0)
	cosNeg := (j-2)&4 == 0
	x = ((x + y*T(dp1)) + y*T(dp2)) + y*T(dp3)
	z := x * x
	yc := Horner(z, coscof)*z*z - 0.5*z + 1
	ys := Horner(z, sincof)*z*x + x
	sin = Sel(poly, yc, ys)
	cos = Sel(poly, ys, yc)
	sin = Sel(sinNeg, -sin, sin)
	cos = Sel(cosNeg, -cos, cos)
	return sin, cos
}

// SinCos4 is the lane-wise SinCos.
func SinCos4[T Real](x Vec4[T]) (sin, cos Vec4[T]) {
	for l, v := range x {
		sin[l], cos[l] = SinCos(v)
	}
	return sin, cos
}

// reduce splits x>0 into a mantissa m in [sqrt(0.5)-1, sqrt(2)-1)
// (already shifted by -1) and an exponent e, so x = (1+m)*2^e.
func reduce[T Real](x T) (m, e T) {
	fm, fe := math.Frexp(float64(x))
	m = T(fm)
	e = T(fe)
	small := m < T(sqrthf)
	e = Sel(small, e-1, e)
	m = Sel(small, m+m-1, m-1)
	return m, e
}

// Log returns the natural logarithm of x. Log(0) is -Inf and
// negative arguments give NaN.
func Log[T Real](x T) T {
	valid := x > 0
	m, e := reduce(Sel(valid, x, 1))
	z := m * m
	y := Horner(m, logp) * m * z
	y += e * T(logq1)
	y -= 0.5 * z
	r := m + y
	r += e * T(logq2)
	r = Sel(valid, r, T(math.NaN()))
	return Sel(x == 0, T(math.Inf(-1)), r)
}

// Log2 returns the base 2 logarithm of x. The exponent is
// added exactly, so powers of two give exact results.
func Log2[T Real](x T) T {
	valid := x > 0
	m, e := reduce(Sel(valid, x, 1))
	z := m * m
	y := Horner(m, logp)*m*z - 0.5*z
	r := (m+y)*T(log2e) + e
	r = Sel(valid, r, T(math.NaN()))
	return Sel(x == 0, T(math.Inf(-1)), r)
}

// Exp returns e^x. The argument is clamped to +-88.376, the
// range where the result fits a float32, for both precisions.
func Exp[T Real](x T) T {
	x = Sel(x > expHi, T(expHi), x)
	x = Sel(x < expLo, T(expLo), x)
	fx := x*T(log2ef) + 0.5
	n := T(math.Floor(float64(fx)))
	x = x - n*T(expC1)
	x = x - n*T(expC2)
	z := x * x
	y := Horner(x, expp)
	y = y*z + x + 1
	return T(math.Ldexp(float64(y), int(n)))
}

// Tanh returns the hyperbolic tangent of x. Small arguments use the
// cephes odd polynomial, large ones 1-2/(e^2|x|+1).
func Tanh[T Real](x T) T {
	neg := x < 0
	a := Sel(neg, -x, x)
	z := x * x
	small := Horner(z, tanhp)*z*x + x
	large := 1 - 2/(Exp(2*a)+1)
	large = Sel(neg, -large, large)
	return Sel(a < tanhSmall, small, large)
}

// Log4 is the lane-wise Log.
func Log4[T Real](x Vec4[T]) Vec4[T] {
	return apply(x, Log[T])
}

// Log24 is the lane-wise Log2.
func Log24[T Real](x Vec4[T]) Vec4[T] {
	return apply(x, Log2[T])
}

// Exp4 is the lane-wise Exp.
func Exp4[T Real](x Vec4[T]) Vec4[T] {
	return apply(x, Exp[T])
}

// Tanh4 is the lane-wise Tanh.
func Tanh4[T Real](x Vec4[T]) Vec4[T] {
	return apply(x, Tanh[T])
}

/*
 * dispatch.go, part of nbforce.
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

import (
	"math"
	"runtime"
	"strings"

	"github.com/viterin/vek/vek32"
	"golang.org/x/sys/cpu"
)

// Level identifies which implementation of the polynomial evaluation is in use.
type Level int

const (
	// Portable evaluates polynomials with a multiplication followed by an addition.
	Portable Level = iota
	// FMA evaluates polynomials with fused multiply-adds.
	FMA
)

func (L Level) String() string {
	switch L {
	case FMA:
		return "fma"
	default:
		return "portable"
	}
}

var (
	level Level
	//the multiply-add used by Horner. Replaced at init time.
	fmadd = func(a, b, c float64) float64 { return a*b + c }
)

func init() {
	if hasFMA() {
		SetLevel(FMA)
	}
}

// hasFMA reports whether math.FMA is backed by a hardware instruction.
// All arm64 CPUs have it.
func hasFMA() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasFMA
	case "arm64":
		return true
	case "s390x", "ppc64", "ppc64le", "riscv64":
		return true
	}
	return false
}

// SetLevel forces an implementation. Asking for FMA on a CPU without
// it still works (math.FMA is emulated) but is very slow. Mostly useful for tests.
func SetLevel(l Level) {
	level = l
	if l == FMA {
		fmadd = math.FMA
		return
	}
	fmadd = func(a, b, c float64) float64 { return a*b + c }
}

// CurrentLevel returns the implementation in use.
func CurrentLevel() Level {
	return level
}

// Describe returns a one-line summary of the numerical back ends,
// meant for logs.
func Describe() string {
	info := vek32.Info()
	accel := "no float32 SIMD"
	if info.Acceleration {
		accel = "float32 SIMD: " + strings.Join(info.CPUFeatures, ",")
	}
	return runtime.GOARCH + ", polynomials: " + level.String() + ", " + accel
}

// madd returns a*b+c with the current level's rounding.
func madd[T Real](a, b, c T) T {
	return T(fmadd(float64(a), float64(b), float64(c)))
}

// Horner evaluates c[0]*x^(n-1) + c[1]*x^(n-2) + ... + c[n-1].
// The coefficients are given from the highest degree down, as
// in the cephes sources.
// The coefficients are rounded to T before use.
func Horner[T Real](x T, c []float64) T {
	if len(c) == 0 {
		return 0
	}
	y := T(c[0])
	for _, v := range c[1:] {
		y = madd(y, x, T(v))
	}
	return y
}

package vmath

import (
	"github.com/viterin/vek/vek32"
	"gonum.org/v1/gonum/floats"
)

//Element-wise operations on whole buffers, used to merge per-worker
//results and to rescale per-atom arrays. float32 goes to vek32, which has
//SIMD implementations on amd64 and arm64, float64 to gonum's floats.

// AddTo adds src to dst, element by element. Both must have the same length.
func AddTo[T Real](dst, src []T) {
	switch d := any(dst).(type) {
	case []float32:
		vek32.Add_Inplace(d, any(src).([]float32))
	case []float64:
		floats.Add(d, any(src).([]float64))
	default:
		for i, v := range src {
			dst[i] += v
		}
	}
}

// MulTo multiplies dst by src, element by element.
func MulTo[T Real](dst, src []T) {
	switch d := any(dst).(type) {
	case []float32:
		vek32.Mul_Inplace(d, any(src).([]float32))
	case []float64:
		floats.Mul(d, any(src).([]float64))
	default:
		for i, v := range src {
			dst[i] *= v
		}
	}
}

// ScaleTo multiplies every element of dst by s.
func ScaleTo[T Real](dst []T, s T) {
	switch d := any(dst).(type) {
	case []float32:
		vek32.MulNumber_Inplace(d, float32(s))
	case []float64:
		floats.Scale(float64(s), d)
	default:
		for i := range dst {
			dst[i] *= s
		}
	}
}

// SumOf returns the sum of the elements of s.
func SumOf[T Real](s []T) T {
	switch d := any(s).(type) {
	case []float32:
		return T(vek32.Sum(d))
	case []float64:
		return T(floats.Sum(d))
	}
	var r T
	for _, v := range s {
		r += v
	}
	return r
}

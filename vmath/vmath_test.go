package vmath

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSqrtRefinement(Te *testing.T) {
	fmt.Println("Reciprocal square root test!")
	worst := 0.0
	for x := 1e-6; x <= 1e6; x *= 1.0001 {
		xf := float32(x)
		r := float64(RSqrt(xf))
		d := math.Abs(r*r*float64(xf) - 1)
		if d > worst {
			worst = d
		}
		if d >= 1e-6 {
			Te.Fatalf("RSqrt(%g): |rinv^2*x-1| = %g", xf, d)
		}
	}
	fmt.Println("worst |rinv^2*x-1| in single precision:", worst)
	for x := 1e-6; x <= 1e6; x *= 1.01 {
		r := RSqrt(x)
		assert.InDelta(Te, 1.0, r*r*x, 1e-13, "x=%g", x)
	}
}

func TestEstimates(Te *testing.T) {
	for _, x := range []float32{1e-6, 0.01, 0.3, 1, 2, 3.7, 1e3, 9.99e5} {
		e := float64(RSqrtEstimate(x))
		exact := 1 / math.Sqrt(float64(x))
		assert.LessOrEqual(Te, e, exact)
		assert.Less(Te, (exact-e)/exact, math.Ldexp(1, -EstimateBits))
		c := float64(RcpEstimate(x))
		assert.Less(Te, math.Abs(c*float64(x)-1), math.Ldexp(1, -EstimateBits))
		assert.InDelta(Te, 1.0, float64(Rcp(x))*float64(x), 1e-6)
	}
	assert.Equal(Te, float32(0), Sqrt(float32(0)))
	assert.InDelta(Te, 3.0, Sqrt(9.0), 1e-12)
}

func TestSinCos(Te *testing.T) {
	fmt.Println("sincos test!")
	for x := -10.0; x <= 10.0; x += 0.0137 {
		xf := float32(x)
		s, c := SinCos(xf)
		assert.InDelta(Te, math.Sin(float64(xf)), float64(s), 1e-6, "sin(%g)", xf)
		assert.InDelta(Te, math.Cos(float64(xf)), float64(c), 1e-6, "cos(%g)", xf)
		s64, c64 := SinCos(x)
		assert.InDelta(Te, math.Sin(x), s64, 3e-7, "sin(%g)", x)
		assert.InDelta(Te, math.Cos(x), c64, 3e-7, "cos(%g)", x)
	}
	s, c := SinCos(float32(0))
	assert.Equal(Te, float32(0), s)
	assert.Equal(Te, float32(1), c)
}

func TestLogExp(Te *testing.T) {
	fmt.Println("log/exp test!")
	for x := 1e-4; x < 1e4; x *= 1.013 {
		xf := float32(x)
		want := math.Log(float64(xf))
		got := float64(Log(xf))
		assert.InDelta(Te, want, got, 1e-6*math.Max(1, math.Abs(want)), "log(%g)", xf)
		want2 := math.Log2(float64(xf))
		got2 := float64(Log2(xf))
		assert.InDelta(Te, want2, got2, 1e-6*math.Max(1, math.Abs(want2)), "log2(%g)", xf)
	}
	for _, p := range []float32{0.25, 0.5, 1, 2, 8, 1024} {
		assert.Equal(Te, float32(math.Log2(float64(p))), Log2(p))
	}
	assert.True(Te, math.IsInf(float64(Log(float32(0))), -1))
	assert.True(Te, math.IsNaN(Log(-1.0)))
	for x := -20.0; x <= 20.0; x += 0.0173 {
		xf := float32(x)
		want := math.Exp(float64(xf))
		assert.InDelta(Te, want, float64(Exp(xf)), 1e-6*want, "exp(%g)", xf)
	}
	assert.Equal(Te, float32(1), Exp(float32(0)))
	assert.False(Te, math.IsInf(float64(Exp(float32(500))), 1))
}

func TestTanh(Te *testing.T) {
	for x := -6.0; x <= 6.0; x += 0.011 {
		xf := float32(x)
		assert.InDelta(Te, math.Tanh(float64(xf)), float64(Tanh(xf)), 1e-6, "tanh(%g)", xf)
	}
	assert.Equal(Te, float32(1), Tanh(float32(100)))
	assert.Equal(Te, float32(-1), Tanh(float32(-100)))
}

// The 4-lane versions must give exactly the scalar results.
func TestLanesMatchScalar(Te *testing.T) {
	v := Vec4[float32]{0.013, 0.7, 2.5, 31.4}
	r := RSqrt4(v)
	l := Log4(v)
	l2 := Log24(v)
	e := Exp4(v.Neg())
	t := Tanh4(v)
	s, c := SinCos4(v)
	rc := Rcp4(v)
	for i, x := range v {
		assert.Equal(Te, RSqrt(x), r[i])
		assert.Equal(Te, Log(x), l[i])
		assert.Equal(Te, Log2(x), l2[i])
		assert.Equal(Te, Exp(-x), e[i])
		assert.Equal(Te, Tanh(x), t[i])
		assert.Equal(Te, Rcp(x), rc[i])
		ss, cc := SinCos(x)
		assert.Equal(Te, ss, s[i])
		assert.Equal(Te, cc, c[i])
	}
}

func TestSelectAndMasks(Te *testing.T) {
	a := Vec4[float64]{1, 2, 3, 4}
	b := Vec4[float64]{math.NaN(), -2, math.Inf(1), -4}
	m := a.Less(Splat(2.5))
	require.Equal(Te, Mask4{true, true, false, false}, m)
	sel := Select(m, a, b)
	assert.Equal(Te, 1.0, sel[0])
	assert.Equal(Te, 2.0, sel[1])
	assert.True(Te, math.IsInf(sel[2], 1))
	assert.Equal(Te, Vec4[float64]{1, 2, 0, 0}, Zero(m, a))
	assert.Equal(Te, 3, FirstN(3).Count())
	assert.Equal(Te, Mask4{}, FirstN(0))
	assert.Equal(Te, Mask4{false, false, true, true}, m.Not())
	assert.Equal(Te, Mask4{true, false, false, false}, m.AndNot(FirstN(4).AndNot(FirstN(1))))
	assert.Equal(Te, 10.0, a.Sum())
	assert.Equal(Te, Vec4[float64]{1, 2, 3, 4}, a.Max(Splat(0.5)))
	assert.Equal(Te, Vec4[float64]{2, 2, 2, 2}, a.Min(Splat(2.0)).Max(Splat(2.0)))
	assert.Equal(Te, Vec4[float64]{3, 6, 11, 18}, a.MulAdd(a, Splat(2.0)))
	idx := [Lanes]int{3, 0, 0, 1}
	assert.Equal(Te, Vec4[float64]{4, 1, 1, 2}, Gather(a[:], idx))
	flat := []float64{0, 1, 2, 10, 11, 12}
	assert.Equal(Te, Vec4[float64]{11, 1, 1, 11}, GatherStride(flat, [Lanes]int{1, 0, 0, 1}, 3, 1))
	dst := make([]float64, 4)
	a.Store(dst, 2)
	assert.Equal(Te, []float64{1, 2, 0, 0}, dst)
}

func TestLevels(Te *testing.T) {
	orig := CurrentLevel()
	defer SetLevel(orig)
	fmt.Println(Describe())
	SetLevel(Portable)
	p := Exp(1.7)
	SetLevel(FMA)
	f := Exp(1.7)
	assert.InDelta(Te, p, f, 1e-12)
	assert.Equal(Te, "fma", FMA.String())
	assert.Equal(Te, 7.0, Horner(2.0, []float64{1, 2, -1}))
}

func TestSliceOps(Te *testing.T) {
	a32 := []float32{1, 2, 3, 4, 5}
	AddTo(a32, []float32{1, 1, 1, 1, 1})
	assert.Equal(Te, []float32{2, 3, 4, 5, 6}, a32)
	MulTo(a32, []float32{2, 2, 2, 2, 0})
	assert.Equal(Te, []float32{4, 6, 8, 10, 0}, a32)
	ScaleTo(a32, 0.5)
	assert.Equal(Te, []float32{2, 3, 4, 5, 0}, a32)
	assert.Equal(Te, float32(14), SumOf(a32))

	a64 := []float64{1, 2, 3}
	AddTo(a64, []float64{0.5, 0.5, 0.5})
	MulTo(a64, []float64{2, 2, 2})
	ScaleTo(a64, 3.0)
	assert.Equal(Te, []float64{9, 15, 21}, a64)
	assert.Equal(Te, 45.0, SumOf(a64))

	type myfloat float64
	m := []myfloat{1, 2}
	AddTo(m, []myfloat{1, 1})
	ScaleTo(m, 2)
	MulTo(m, []myfloat{1, 0.5})
	assert.Equal(Te, []myfloat{4, 3}, m)
	assert.Equal(Te, myfloat(7), SumOf(m))
}

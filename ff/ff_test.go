package ff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmaEpsilon(Te *testing.T) {
	c6, c12 := SigmaEpsilonToC6C12(0.3, 0.5)
	assert.InDelta(Te, 4*0.5*math.Pow(0.3, 6), c6, 1e-15)
	assert.InDelta(Te, 4*0.5*math.Pow(0.3, 12), c12, 1e-18)
	s, e := C6C12ToSigmaEpsilon(c6, c12)
	assert.InDelta(Te, 0.3, s, 1e-12)
	assert.InDelta(Te, 0.5, e, 1e-12)
	s, e = C6C12ToSigmaEpsilon(0, c12)
	assert.Zero(Te, s)
	assert.Zero(Te, e)
}

func testFF(se bool) *FF {
	F := NewFF(se)
	F.AddType(&AtomType{Name: "OW", C6: 0.3166, C12: 0.65, Charge: -0.8, GBRadius: 0.15, GBScale: 0.85, BuckA: 1e5, BuckB: 30})
	F.AddType(&AtomType{Name: "HW", C6: 0.1, C12: 0.1, Charge: 0.4, GBRadius: 0.12, GBScale: 0.8, BuckA: 4e4, BuckB: 40})
	return F
}

func TestLJParams(Te *testing.T) {
	F := testFF(true)
	p, err := LJParams[float64](F)
	require.NoError(Te, err)
	require.Len(Te, p, 8)
	c6o, c12o := SigmaEpsilonToC6C12(0.3166, 0.65)
	c6h, c12h := SigmaEpsilonToC6C12(0.1, 0.1)
	assert.InDelta(Te, c6o, p[0], 1e-15)
	assert.InDelta(Te, c12o, p[1], 1e-18)
	assert.InDelta(Te, math.Sqrt(c6o*c6h), p[2], 1e-15)
	assert.Equal(Te, p[2], p[4], "symmetric")
	assert.Equal(Te, p[3], p[5], "symmetric")
	assert.InDelta(Te, c12h, p[7], 1e-18)

	F.Rule = LorentzBerthelot
	p, err = LJParams[float64](F)
	require.NoError(Te, err)
	c6, c12 := SigmaEpsilonToC6C12(0.5*(0.3166+0.1), math.Sqrt(0.65*0.1))
	assert.InDelta(Te, c6, p[2], 1e-15)
	assert.InDelta(Te, c12, p[3], 1e-18)

	F.LJ = append(F.LJ, &LJPair{Names: [2]string{"HW", "OW"}, C6: 0.2, C12: 0.3})
	p, err = LJParams[float64](F)
	require.NoError(Te, err)
	c6, c12 = SigmaEpsilonToC6C12(0.2, 0.3)
	assert.InDelta(Te, c6, p[2], 1e-15)
	assert.InDelta(Te, c12, p[5], 1e-18)

	F.Rule = 99
	_, err = LJParams[float32](F)
	assert.Error(Te, err)
}

func TestBuckinghamAndAtoms(Te *testing.T) {
	F := testFF(false)
	p := BuckinghamParams[float32](F)
	require.Len(Te, p, 12)
	assert.InDelta(Te, math.Sqrt(1e5*4e4), float64(p[3]), 1e-1)
	assert.InDelta(Te, 2/(1.0/30+1.0/40), float64(p[4]), 1e-4)
	assert.InDelta(Te, math.Sqrt(0.3166*0.1), float64(p[5]), 1e-7)
	assert.Equal(Te, 1, F.TypeIndex("HW"))
	assert.Equal(Te, -1, F.TypeIndex("CA"))
	types := []int{0, 1, 1}
	q := Charges[float64](F, types)
	assert.Equal(Te, []float64{-0.8, 0.4, 0.4}, q)
	r, s := GBRadii[float64](F, types)
	assert.Equal(Te, []float64{0.15, 0.12, 0.12}, r)
	assert.Equal(Te, []float64{0.85, 0.8, 0.8}, s)
}

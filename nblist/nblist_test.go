package nblist

import (
	"errors"
	"testing"

	"github.com/rmera/nbforce/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches(Te *testing.T) {
	L := &List{}
	L.Add(0, CentralShift, 0, 1, 2, 3, 4, 5, 6)
	L.Add(3, 4, 1)
	L.Add(2, CentralShift, 1, 7, 8, 9, 10)
	require.NoError(Te, L.Validate(11, NShift))
	var got []Batch
	for b := range L.All() {
		got = append(got, b)
	}
	require.Len(Te, got, 3)

	b := got[0]
	assert.Equal(Te, [4]int{1, 2, 3, 4}, b.J)
	assert.Equal(Te, 4, b.Count)
	assert.True(Te, b.First)
	assert.False(Te, b.Last)
	assert.Equal(Te, 0, b.IJ())
	assert.Equal(Te, 4, b.JI())

	b = got[1]
	assert.Equal(Te, [4]int{5, 6, 0, 0}, b.J, "inactive lanes point to the outer atom")
	assert.Equal(Te, vmath.Mask4{true, true, false, false}, b.Mask)
	assert.False(Te, b.First)
	assert.True(Te, b.Last)
	assert.Equal(Te, 8, b.IJ())
	assert.Equal(Te, 10, b.JI())

	b = got[2]
	assert.Equal(Te, 2, b.N, "the empty entry yields nothing")
	assert.Equal(Te, 2, b.I)
	assert.True(Te, b.First && b.Last)
	assert.Equal(Te, 12, b.IJ())
	assert.Equal(Te, 16, b.JI())
	assert.Equal(Te, 20, L.SlotsLen())

	//the slots of all batches tile the buffer exactly once.
	used := make([]int, L.SlotsLen())
	for b := range L.All() {
		for l := 0; l < b.Count; l++ {
			used[b.IJ()+l]++
			used[b.JI()+l]++
		}
	}
	for k, v := range used {
		assert.Equal(Te, 1, v, "slot %d", k)
	}

	//early stop, and a second walk gives the same sequence
	n := 0
	for range L.All() {
		n++
		break
	}
	assert.Equal(Te, 1, n)
	var again []Batch
	for b := range L.Batches(0, L.Nri()) {
		again = append(again, b)
	}
	assert.Equal(Te, got, again)
	var tail []Batch
	for b := range L.Batches(1, 3) {
		tail = append(tail, b)
	}
	assert.Equal(Te, got[2:], tail)
}

func TestValidate(Te *testing.T) {
	L := BuildAllPairs(4)
	assert.NoError(Te, L.Validate(4, NShift))
	assert.Equal(Te, 3, L.Nri())
	assert.Equal(Te, 6, L.Nrj())
	assert.Equal(Te, []int{2, 3}, L.Neighbors(1))
	odd := L.Select(func(n int) bool { return n%2 == 1 })
	assert.NoError(Te, odd.Validate(4, NShift))
	assert.Equal(Te, []int{1}, odd.Iinr)
	assert.Equal(Te, []int{0, 2}, odd.Jindex)
	assert.Equal(Te, []int{2, 3}, odd.Jjnr)
	bad := []*List{
		{Iinr: []int{0}, Shift: []int{0}, Gid: []int{0}, Jindex: []int{0}, Jjnr: nil},
		{Iinr: []int{0}, Shift: []int{0}, Gid: []int{0}, Jindex: []int{0, 2}, Jjnr: []int{1}},
		{Iinr: []int{0, 1}, Shift: []int{0, 0}, Gid: []int{0, 0}, Jindex: []int{0, 2, 1}, Jjnr: []int{1}},
		{Iinr: []int{0}, Shift: []int{30}, Gid: []int{0}, Jindex: []int{0, 1}, Jjnr: []int{1}},
		{Iinr: []int{0}, Shift: []int{0}, Gid: []int{0}, Jindex: []int{0, 1}, Jjnr: []int{9}},
		{Iinr: []int{5}, Shift: []int{0}, Gid: []int{0}, Jindex: []int{0, 1}, Jjnr: []int{1}},
	}
	for i, b := range bad {
		err := b.Validate(4, NShift)
		assert.True(Te, errors.Is(err, ErrInvalid), "list %d: %v", i, err)
	}
}

func TestBuilder(Te *testing.T) {
	//a line of 5 atoms 0.3 apart in a 1.5 box
	x := []float64{0.1, 0, 0, 0.4, 0, 0, 0.7, 0, 0, 1.0, 0, 0, 1.3, 0, 0}
	B := &Builder[float64]{Cutoff: 0.35, Box: [3]float64{1.5, 1.5, 1.5}}
	L, err := B.Build(x)
	require.NoError(Te, err)
	require.NoError(Te, L.Validate(5, NShift))
	pairs := map[[2]int]int{}
	for n := 0; n < L.Nri(); n++ {
		for _, j := range L.Neighbors(n) {
			pairs[[2]int{L.Iinr[n], j}] = L.Shift[n]
		}
	}
	assert.Len(Te, pairs, 5)
	assert.Equal(Te, CentralShift, pairs[[2]int{0, 1}])
	//0 and 4 are neighbors through the +x image of 0.
	assert.Equal(Te, ShiftIndex(1, 0, 0), pairs[[2]int{0, 4}])

	_, err = (&Builder[float64]{Cutoff: 1, Box: [3]float64{1.5, 1.5, 1.5}}).Build(x)
	assert.Error(Te, err)

	B = &Builder[float64]{Groups: []int{0, 0, 1, 1, 1}}
	B.Exclude(1, 0)
	L, err = B.Build(x)
	require.NoError(Te, err)
	assert.Equal(Te, 4, L.Groups())
	for n := 0; n < L.Nri(); n++ {
		for _, j := range L.Neighbors(n) {
			assert.False(Te, L.Iinr[n] == 0 && j == 1, "excluded pair in list")
			gi, gj := B.Groups[L.Iinr[n]], B.Groups[j]
			assert.Equal(Te, gi*2+gj, L.Gid[n])
		}
	}
	assert.Equal(Te, 9, L.Nrj())
}

func TestShiftVectors(Te *testing.T) {
	sv := ShiftVectors([3]float32{1, 2, 3})
	assert.Len(Te, sv, 3*NShift)
	assert.Equal(Te, []float32{0, 0, 0}, sv[3*CentralShift:3*CentralShift+3])
	s := ShiftIndex(-1, 1, 0)
	assert.Equal(Te, []float32{-1, 2, 0}, sv[3*s:3*s+3])
}

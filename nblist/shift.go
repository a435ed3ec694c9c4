package nblist

import "github.com/rmera/nbforce/vmath"

// NShift is the number of periodic shift vectors for a rectangular box.
const NShift = 27

// CentralShift is the index of the zero shift vector.
const CentralShift = 13

// ShiftIndex returns the index of the shift vector that translates by
// (sx, sy, sz) box lengths, each of them in {-1, 0, 1}.
func ShiftIndex(sx, sy, sz int) int {
	return (sx+1)*9 + (sy+1)*3 + (sz + 1)
}

// ShiftVectors returns the NShift translation vectors of a rectangular box,
// flattened (3 elements per vector). A zero box gives all-zero vectors,
// which is what a non-periodic system needs.
func ShiftVectors[T vmath.Real](box [3]T) []T {
	ret := make([]T, 3*NShift)
	for sx := -1; sx <= 1; sx++ {
		for sy := -1; sy <= 1; sy++ {
			for sz := -1; sz <= 1; sz++ {
				s := 3 * ShiftIndex(sx, sy, sz)
				ret[s] = T(sx) * box[0]
				ret[s+1] = T(sy) * box[1]
				ret[s+2] = T(sz) * box[2]
			}
		}
	}
	return ret
}

/*
 * gonum.go, part of nbforce.
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

package v3

import (
	"errors"
	"fmt"
	"math"

	"github.com/rmera/nbforce/vmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when a slice can't hold a set of 3D vectors.
var ErrShape = errors.New("v3: data length not divisible by 3")

// Matrix is a set of vectors in 3D space, one vector (atom) per row.
type Matrix struct {
	*mat.Dense
}

// NewMatrix returns a Matrix with 3 columns from data. The data is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l%cols != 0 || l == 0 {
		return nil, fmt.Errorf("%w: %d elements", ErrShape, l)
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	return &Matrix{mat.NewDense(vecs, 3, nil)}
}

// NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, _ := F.Dims()
	return r
}

// AddVec adds the vector vec to every vector of A, putting the result in the receiver.
func (F *Matrix) AddVec(A, vec *Matrix) {
	if F.NVecs() != A.NVecs() || vec.NVecs() != 1 {
		panic(mat.ErrShape)
	}
	v := vec.RawRowView(0)
	for i := 0; i < A.NVecs(); i++ {
		floats.AddTo(F.RawRowView(i), A.RawRowView(i), v)
	}
}

// Centroid returns the geometric center of the vectors in F.
func (F *Matrix) Centroid() *Matrix {
	ret := Zeros(1)
	c := ret.RawRowView(0)
	for i := 0; i < F.NVecs(); i++ {
		floats.Add(c, F.RawRowView(i))
	}
	floats.Scale(1/float64(F.NVecs()), c)
	return ret
}

// Extent returns the largest minus the smallest coordinate along each axis.
func (F *Matrix) Extent() [3]float64 {
	var ret [3]float64
	col := make([]float64, F.NVecs())
	for j := range ret {
		mat.Col(col, j, F)
		ret[j] = floats.Max(col) - floats.Min(col)
	}
	return ret
}

// Lattice returns n points on a simple cubic lattice of the given spacing,
// filled row by row, starting at the origin. The returned side is the number
// of points along each edge of the smallest cube holding all of them.
func Lattice(n int, spacing float64) (*Matrix, int) {
	side := int(math.Round(math.Cbrt(float64(n))))
	for side*side*side < n {
		side++
	}
	ret := Zeros(n)
	for i := 0; i < n; i++ {
		ret.SetRow(i, []float64{
			spacing * float64(i%side),
			spacing * float64((i/side)%side),
			spacing * float64(i/(side*side)),
		})
	}
	return ret, side
}

// Flat copies the coordinates of F to dst, 3 elements per atom, converting
// them to T. If dst doesn't have the right length, a new slice is allocated.
func Flat[T vmath.Real](F *Matrix, dst []T) []T {
	n := 3 * F.NVecs()
	if len(dst) != n {
		dst = make([]T, n)
	}
	for i := 0; i < F.NVecs(); i++ {
		for j, v := range F.RawRowView(i) {
			dst[3*i+j] = T(v)
		}
	}
	return dst
}

// FromFlat returns a new Matrix with the coordinates in x, 3 elements per atom.
func FromFlat[T vmath.Real](x []T) (*Matrix, error) {
	d := make([]float64, len(x))
	for i, v := range x {
		d[i] = float64(v)
	}
	return NewMatrix(d)
}

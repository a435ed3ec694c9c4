/*
 * build.go, part of nbforce.
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

package nblist

import (
	"fmt"

	"github.com/rmera/nbforce/vmath"
)

// Builder is a brute-force neighbor search. It is O(N^2) in the number of atoms
// (times the 27 shifts in a periodic box), which is fine for tests, small systems
// and as a reference for real grid searches, which are out of the scope of this library.
type Builder[T vmath.Real] struct {
	Cutoff     T               //0 or negative means no cutoff.
	Box        [3]T            //rectangular box, zero for non-periodic systems.
	Groups     []int           //energy group per atom, nil means everything in group 0
	Exclusions map[[2]int]bool //pairs (lower index first) left out of the list
}

// Exclude adds the pair i,j to the exclusions.
func (B *Builder[T]) Exclude(i, j int) {
	if B.Exclusions == nil {
		B.Exclusions = make(map[[2]int]bool)
	}
	if j < i {
		i, j = j, i
	}
	B.Exclusions[[2]int{i, j}] = true
}

func (B *Builder[T]) periodic() bool {
	return B.Box[0] > 0 && B.Box[1] > 0 && B.Box[2] > 0
}

// Build returns a half list (each pair appears once, with i<j) for the
// flat coordinates x. In a periodic box each pair appears with the shift
// that brings the i atom closest to j, which requires the cutoff to be less
// than half the smallest box length.
// The group of an outer entry is the i atom's group times the number of
// groups plus the j group, so group-pair energies can be told apart, in
// the same way as the usual energy group matrix.
func (B *Builder[T]) Build(x []T) (*List, error) {
	natoms := len(x) / 3
	if len(x)%3 != 0 {
		return nil, fmt.Errorf("nblist: coordinate slice length %d not divisible by 3", len(x))
	}
	if B.Groups != nil && len(B.Groups) != natoms {
		return nil, fmt.Errorf("nblist: %d group entries for %d atoms", len(B.Groups), natoms)
	}
	pbc := B.periodic()
	if pbc && B.Cutoff > 0 {
		for _, b := range B.Box {
			if 2*B.Cutoff >= b {
				return nil, fmt.Errorf("nblist: cutoff %v is too long for box side %v", B.Cutoff, b)
			}
		}
	}
	ngroups := 1
	for _, g := range B.Groups {
		if g+1 > ngroups {
			ngroups = g + 1
		}
	}
	group := func(i int) int {
		if B.Groups == nil {
			return 0
		}
		return B.Groups[i]
	}
	sv := ShiftVectors(B.Box)
	rc2 := B.Cutoff * B.Cutoff
	L := &List{Jindex: []int{0}}
	//neighbors of the current i, one slice per (shift, j group)
	type key struct{ shift, gj int }
	buckets := make(map[key][]int)
	order := make([]key, 0, 4)
	for i := 0; i < natoms; i++ {
		clear(buckets)
		order = order[:0]
		for j := i + 1; j < natoms; j++ {
			if B.Exclusions[[2]int{i, j}] {
				continue
			}
			shift := CentralShift
			var rsq T
			if pbc {
				shift, rsq = B.closestImage(x, sv, i, j)
			} else {
				rsq = dist2(x, i, j, sv, CentralShift)
			}
			if B.Cutoff > 0 && rsq >= rc2 {
				continue
			}
			k := key{shift, group(j)}
			if _, ok := buckets[k]; !ok {
				order = append(order, k)
			}
			buckets[k] = append(buckets[k], j)
		}
		for _, k := range order {
			L.Add(i, k.shift, group(i)*ngroups+k.gj, buckets[k]...)
		}
	}
	return L, nil
}

// BuildAllPairs returns a list with every i<j pair, no cutoff and no periodicity,
// all in a single outer entry per atom, group 0.
func BuildAllPairs(natoms int) *List {
	L := &List{Jindex: []int{0}}
	for i := 0; i < natoms-1; i++ {
		js := make([]int, 0, natoms-i-1)
		for j := i + 1; j < natoms; j++ {
			js = append(js, j)
		}
		L.Add(i, CentralShift, 0, js...)
	}
	return L
}

// closestImage returns the shift that minimizes the distance between the shifted
// i and j, and that squared distance.
func (B *Builder[T]) closestImage(x, sv []T, i, j int) (int, T) {
	best := CentralShift
	bestd := dist2(x, i, j, sv, CentralShift)
	for s := 0; s < NShift; s++ {
		d := dist2(x, i, j, sv, s)
		if d < bestd {
			best, bestd = s, d
		}
	}
	return best, bestd
}

func dist2[T vmath.Real](x []T, i, j int, sv []T, s int) T {
	dx := x[3*i] + sv[3*s] - x[3*j]
	dy := x[3*i+1] + sv[3*s+1] - x[3*j+1]
	dz := x[3*i+2] + sv[3*s+2] - x[3*j+2]
	return dx*dx + dy*dy + dz*dz
}

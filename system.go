/*
 * system.go, part of nbforce.
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

package nbforce

import (
	"slices"

	"github.com/rmera/nbforce/ff"
	"github.com/rmera/nbforce/nblist"
	"github.com/rmera/nbforce/vmath"
)

// System is the per-atom data of an evaluation. The coordinates in X are
// read at every step, and can be changed between steps. The rest is read
// when the Engine is created.
type System[T vmath.Real] struct {
	X          []T  //3 per atom
	Box        [3]T //rectangular box, zero for no periodicity
	Type       []int
	Charge     []T //nil takes the charges from the types
	FF         *ff.FF
	Groups     []int    //energy group of each atom, nil for a single group
	Exclusions [][2]int //pairs left out of the neighbor lists
	Owner      []int    //rank owning each atom, only for domain decomposition
}

// Natoms returns the number of atoms in the system.
func (S *System[T]) Natoms() int {
	return len(S.X) / 3
}

// NGroups returns the number of energy groups.
func (S *System[T]) NGroups() int {
	n := 1
	for _, g := range S.Groups {
		n = max(n, g+1)
	}
	return n
}

func (S *System[T]) check() error {
	n := S.Natoms()
	if n == 0 || len(S.X)%3 != 0 {
		return newError(true, nil, "%d coordinates don't make a system", len(S.X))
	}
	if S.FF == nil {
		return newError(true, nil, "no force field")
	}
	if len(S.Type) != n {
		return newError(true, nil, "%d types for %d atoms", len(S.Type), n)
	}
	for i, t := range S.Type {
		if t < 0 || t >= S.FF.Ntype() {
			return newError(true, nil, "atom %d has type %d, there are %d", i, t, S.FF.Ntype())
		}
	}
	if S.Charge != nil && len(S.Charge) != n {
		return newError(true, nil, "%d charges for %d atoms", len(S.Charge), n)
	}
	if S.Groups != nil && len(S.Groups) != n {
		return newError(true, nil, "%d groups for %d atoms", len(S.Groups), n)
	}
	if S.Owner != nil && len(S.Owner) != n {
		return newError(true, nil, "%d owners for %d atoms", len(S.Owner), n)
	}
	return nil
}

// NewBuilder returns a brute-force neighbor searcher for the system,
// with the cutoff of the configuration.
func NewBuilder[T vmath.Real](c *Config, S *System[T]) *nblist.Builder[T] {
	B := &nblist.Builder[T]{Cutoff: T(c.Nonbonded.Cutoff), Box: S.Box, Groups: S.Groups}
	for _, e := range S.Exclusions {
		B.Exclude(e[0], e[1])
	}
	return B
}

// ParticleLists splits L among size ranks, taking the outer entries in turns.
func ParticleLists(L *nblist.List, size int) []*nblist.List {
	ret := make([]*nblist.List, size)
	for r := range ret {
		ret[r] = L.Select(func(n int) bool { return n%size == r })
	}
	return ret
}

// DomainLists gives each rank the outer entries of the atoms it owns. It also returns,
// for each rank, the atoms it doesn't own but its entries reference, in ascending order.
func DomainLists(L *nblist.List, owner []int, size int) ([]*nblist.List, [][]int) {
	lists := make([]*nblist.List, size)
	halo := make([][]int, size)
	for r := range lists {
		lists[r] = L.Select(func(n int) bool { return owner[L.Iinr[n]] == r })
		seen := make(map[int]bool)
		for _, j := range lists[r].Jjnr {
			if owner[j] != r && !seen[j] {
				seen[j] = true
				halo[r] = append(halo[r], j)
			}
		}
		slices.Sort(halo[r])
	}
	return lists, halo
}

// SlabOwners assigns the atoms to size ranks by slabs along x, for a box of side boxx.
// If boxx is not positive, the slabs span the range of the coordinates.
func SlabOwners[T vmath.Real](x []T, boxx T, size int) []int {
	n := len(x) / 3
	lo, hi := T(0), boxx
	if boxx <= 0 {
		lo, hi = x[0], x[0]
		for i := 0; i < n; i++ {
			lo = min(lo, x[3*i])
			hi = max(hi, x[3*i])
		}
	}
	width := (hi - lo) / T(size)
	ret := make([]int, n)
	for i := range ret {
		r := 0
		if width > 0 {
			r = int((x[3*i] - lo) / width)
		}
		ret[i] = min(max(r, 0), size-1)
	}
	return ret
}

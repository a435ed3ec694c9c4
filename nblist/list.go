/*
 * list.go, part of nbforce.
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

// Package nblist contains the Verlet neighbor list used by all the kernels,
// the periodic shift vectors, a simple reference neighbor search, and
// the batch iterator that walks a list 4 neighbors at a time.
package nblist

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned (wrapped) by Validate.
var ErrInvalid = errors.New("invalid neighbor list")

// List is a ragged neighbor list. For the outer entry n, atom Iinr[n], shifted by
// the periodic shift Shift[n], interacts with the atoms Jjnr[Jindex[n]:Jindex[n+1]],
// and the energies go to the group Gid[n].
// A List is read-only while a kernel runs.
type List struct {
	Iinr   []int
	Shift  []int
	Gid    []int
	Jindex []int //len(Iinr)+1 elements
	Jjnr   []int
}

// Nri returns the number of outer entries.
func (L *List) Nri() int {
	return len(L.Iinr)
}

// Nrj returns the total number of neighbors.
func (L *List) Nrj() int {
	return len(L.Jjnr)
}

// Neighbors returns the j atoms of the outer entry n. The slice
// is a view of the list, it should not be modified.
func (L *List) Neighbors(n int) []int {
	return L.Jjnr[L.Jindex[n]:L.Jindex[n+1]]
}

// Groups returns the number of energy groups referenced by the list,
// i.e. the largest gid plus one.
func (L *List) Groups() int {
	g := 0
	for _, v := range L.Gid {
		if v+1 > g {
			g = v + 1
		}
	}
	return g
}

// Validate checks the structural invariants of the list against a system
// of natoms atoms and nshift shift vectors. Kernels do not validate their input,
// callers that build lists by hand may call this first.
func (L *List) Validate(natoms, nshift int) error {
	nri := len(L.Iinr)
	if len(L.Shift) != nri || len(L.Gid) != nri {
		return fmt.Errorf("%w: %d outer atoms but %d shifts and %d group ids", ErrInvalid, nri, len(L.Shift), len(L.Gid))
	}
	if len(L.Jindex) != nri+1 {
		return fmt.Errorf("%w: jindex has %d elements, expected %d", ErrInvalid, len(L.Jindex), nri+1)
	}
	if nri > 0 && L.Jindex[nri] != len(L.Jjnr) {
		return fmt.Errorf("%w: jindex[nri]=%d but there are %d neighbors", ErrInvalid, L.Jindex[nri], len(L.Jjnr))
	}
	for n := 0; n < nri; n++ {
		if L.Jindex[n] > L.Jindex[n+1] || L.Jindex[n] < 0 {
			return fmt.Errorf("%w: jindex decreases at entry %d", ErrInvalid, n)
		}
		if L.Iinr[n] < 0 || L.Iinr[n] >= natoms {
			return fmt.Errorf("%w: outer atom %d out of range at entry %d", ErrInvalid, L.Iinr[n], n)
		}
		if L.Shift[n] < 0 || L.Shift[n] >= nshift {
			return fmt.Errorf("%w: shift %d out of range at entry %d", ErrInvalid, L.Shift[n], n)
		}
		if L.Gid[n] < 0 {
			return fmt.Errorf("%w: negative group id at entry %d", ErrInvalid, n)
		}
	}
	for k, j := range L.Jjnr {
		if j < 0 || j >= natoms {
			return fmt.Errorf("%w: neighbor %d out of range at position %d", ErrInvalid, j, k)
		}
	}
	return nil
}

// Add appends an outer entry with its neighbors.
func (L *List) Add(i, shift, gid int, js ...int) {
	if len(L.Jindex) == 0 {
		L.Jindex = append(L.Jindex, len(L.Jjnr))
	}
	L.Iinr = append(L.Iinr, i)
	L.Shift = append(L.Shift, shift)
	L.Gid = append(L.Gid, gid)
	L.Jjnr = append(L.Jjnr, js...)
	L.Jindex = append(L.Jindex, len(L.Jjnr))
}

// Select returns a new list with the outer entries n of L for which keep(n) is true,
// in the same order. The neighbor slices are copied.
func (L *List) Select(keep func(n int) bool) *List {
	ret := &List{Jindex: []int{0}}
	for n := 0; n < L.Nri(); n++ {
		if keep(n) {
			ret.Add(L.Iinr[n], L.Shift[n], L.Gid[n], L.Neighbors(n)...)
		}
	}
	return ret
}

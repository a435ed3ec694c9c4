/*
 * batch.go, part of nbforce.
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
	"iter"

	"github.com/rmera/nbforce/vmath"
)

// Batch is a group of up to 4 neighbors of the same outer entry.
// Lanes beyond Count are inactive: their J is the outer atom itself,
// so they can be loaded, but they must not be written.
type Batch struct {
	N     int //outer entry
	I     int //outer atom
	Shift int
	Start int //position of lane 0 in Jjnr
	Count int //active lanes, 1 to 4
	J     [vmath.Lanes]int
	Mask  vmath.Mask4
	First bool //first batch of the outer entry
	Last  bool //last batch of the outer entry
}

// PairSlots is the number of per-pair coefficients that a batch owns
// per neighbor in a derivative buffer: one for each direction.
const PairSlots = 2

// IJ returns the offset of the i->j coefficients of the batch in a buffer
// laid out by the list: Count values, in lane order.
func (b *Batch) IJ() int {
	return PairSlots * b.Start
}

// JI returns the offset of the j->i coefficients, which follow the
// i->j ones of the same batch.
func (b *Batch) JI() int {
	return PairSlots*b.Start + b.Count
}

// SlotsLen returns the length of a per-pair buffer for this list.
func (L *List) SlotsLen() int {
	return PairSlots * len(L.Jjnr)
}

// Batches walks the outer entries [n0, n1) taking the neighbors 4 at a time, the
// last batch of each entry being masked if the entry's neighbor count is
// not a multiple of 4. Entries without neighbors yield nothing.
// The sequence is recomputed from the list every time it is ranged over,
// and two walks over the same list and range yield identical batches.
func (L *List) Batches(n0, n1 int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for n := n0; n < n1; n++ {
			i := L.Iinr[n]
			end := L.Jindex[n+1]
			for k := L.Jindex[n]; k < end; k += vmath.Lanes {
				c := min(vmath.Lanes, end-k)
				b := Batch{
					N:     n,
					I:     i,
					Shift: L.Shift[n],
					Start: k,
					Count: c,
					Mask:  vmath.FirstN(c),
					First: k == L.Jindex[n],
					Last:  k+vmath.Lanes >= end,
				}
				for l := range b.J {
					if l < c {
						b.J[l] = L.Jjnr[k+l]
					} else {
						b.J[l] = i
					}
				}
				if !yield(b) {
					return
				}
			}
		}
	}
}

// All walks the whole list.
func (L *List) All() iter.Seq[Batch] {
	return L.Batches(0, L.Nri())
}

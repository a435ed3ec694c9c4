/*
 * group.go, part of nbforce.
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

package comm

import (
	"fmt"
	"sync"

	"github.com/rmera/nbforce/vmath"
)

// hub is the meeting point of the ranks of a group.
// Each collective call is a round: ranks register their buffers, and the last
// one to arrive combines all of them while the others wait.
type hub[T vmath.Real] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	size    int
	arrived int
	gen     uint64
	closed  bool
	bufs    [][]T
	err     error
}

func newHub[T vmath.Real](size int) *hub[T] {
	h := &hub[T]{size: size, bufs: make([][]T, size)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// round registers buf for rank and blocks until every rank has done the same.
// combine runs once per round, with all the buffers, on the last arriving goroutine.
func (h *hub[T]) round(rank int, buf []T, combine func(bufs [][]T) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	gen := h.gen
	h.bufs[rank] = buf
	h.arrived++
	if h.arrived == h.size {
		h.err = combine(h.bufs)
		clear(h.bufs)
		h.arrived = 0
		h.gen++
		h.cond.Broadcast()
		return h.err
	}
	for gen == h.gen && !h.closed {
		h.cond.Wait()
	}
	if gen == h.gen {
		return ErrClosed
	}
	//no new round can end before we return, so err is still ours.
	return h.err
}

func (h *hub[T]) close() {
	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Group is one rank's handle to a set of ranks in the same process.
// Each handle must be used by one goroutine.
type Group[T vmath.Real] struct {
	h     *hub[T]
	rank  int
	mode  Decomposition
	owner []int   //owner rank of each atom (domain decomposition)
	halo  [][]int //atoms each rank holds copies of
}

// NewParticleGroup returns the handles of a particle-decomposition group of size ranks.
func NewParticleGroup[T vmath.Real](size int) []*Group[T] {
	h := newHub[T](size)
	ret := make([]*Group[T], size)
	for i := range ret {
		ret[i] = &Group[T]{h: h, rank: i, mode: Particle}
	}
	return ret
}

// NewDomainGroup returns the handles of a domain-decomposition group.
// owner gives the rank that owns each atom, halo[r] the atoms that rank r
// holds a copy of without owning them. The size of the group is len(halo).
func NewDomainGroup[T vmath.Real](owner []int, halo [][]int) ([]*Group[T], error) {
	size := len(halo)
	if size == 0 {
		return nil, fmt.Errorf("comm: empty domain group")
	}
	for a, r := range owner {
		if r < 0 || r >= size {
			return nil, fmt.Errorf("comm: atom %d owned by rank %d, group of %d", a, r, size)
		}
	}
	for r, hs := range halo {
		for _, a := range hs {
			if a < 0 || a >= len(owner) {
				return nil, fmt.Errorf("comm: rank %d holds atom %d out of %d", r, a, len(owner))
			}
			if owner[a] == r {
				return nil, fmt.Errorf("comm: rank %d holds a halo copy of its own atom %d", r, a)
			}
		}
	}
	h := newHub[T](size)
	ret := make([]*Group[T], size)
	for i := range ret {
		ret[i] = &Group[T]{h: h, rank: i, mode: Domain, owner: owner, halo: halo}
	}
	return ret, nil
}

func (g *Group[T]) Decomposition() Decomposition { return g.mode }
func (g *Group[T]) Rank() int                    { return g.rank }
func (g *Group[T]) Size() int                    { return g.h.size }

// Close releases the group: blocked and later calls, on every rank, return ErrClosed.
func (g *Group[T]) Close() {
	g.h.close()
}

func sameLen[T vmath.Real](bufs [][]T) error {
	for r, b := range bufs {
		if len(b) != len(bufs[0]) {
			return fmt.Errorf("comm: rank %d buffer has %d elements, rank 0 has %d", r, len(b), len(bufs[0]))
		}
	}
	return nil
}

// Sum is an all-reduce: the element-wise sum of the buffers of all ranks.
func (g *Group[T]) Sum(buf []T) error {
	return g.h.round(g.rank, buf, func(bufs [][]T) error {
		if err := sameLen(bufs); err != nil {
			return err
		}
		total := make([]T, len(bufs[0]))
		for _, b := range bufs {
			vmath.AddTo(total, b)
		}
		for _, b := range bufs {
			copy(b, total)
		}
		return nil
	})
}

// DomainSum adds every halo copy into the owner's element and copies
// the total back to the holders. Only for domain groups.
func (g *Group[T]) DomainSum(buf []T) error {
	if g.mode != Domain {
		return ErrMode
	}
	return g.h.round(g.rank, buf, func(bufs [][]T) error {
		if err := sameLen(bufs); err != nil {
			return err
		}
		for r, hs := range g.halo {
			for _, a := range hs {
				bufs[g.owner[a]][a] += bufs[r][a]
			}
		}
		g.spread(bufs)
		return nil
	})
}

// Spread copies the owner's element of each atom to the halo holders.
// Only for domain groups.
func (g *Group[T]) Spread(buf []T) error {
	if g.mode != Domain {
		return ErrMode
	}
	return g.h.round(g.rank, buf, func(bufs [][]T) error {
		if err := sameLen(bufs); err != nil {
			return err
		}
		g.spread(bufs)
		return nil
	})
}

func (g *Group[T]) spread(bufs [][]T) {
	for r, hs := range g.halo {
		for _, a := range hs {
			bufs[r][a] = bufs[g.owner[a]][a]
		}
	}
}

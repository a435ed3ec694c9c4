/*
 * engine.go, part of nbforce.
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

package gb

import (
	"errors"
	"fmt"

	"github.com/rmera/nbforce/comm"
	"github.com/rmera/nbforce/nblist"
	"github.com/rmera/nbforce/sched"
	v "github.com/rmera/nbforce/vmath"
)

// ErrNoRadii is returned by ChainRule if CalcRadii has not been called.
var ErrNoRadii = errors.New("gb: chain rule requested before the radii were computed")

// Engine computes Born radii for a fixed set of atoms and model, and
// distributes dE/dR onto the forces. Its buffers are reused between calls.
type Engine[T v.Real] struct {
	Model   Model
	Params  Params[T]
	Atoms   *Atoms[T]
	Threads int

	Work       []T //per atom sums of the pair integrals
	BornRadius []T
	InvSqrtA   []T //1/sqrt(BornRadius)
	Drobc      []T //dR/dwork over R^2, OBC only
	Dadx       []T //chain-rule coefficients, nblist.PairSlots per pair
	Rb         []T //chain-rule weights

	pairs pairIntegral[T]
	fin   finalizer[T]
	list  *nblist.List //the list the Dadx coefficients belong to
}

// NewEngine returns an engine for the model m. The Atoms must have
// the parameters the model needs.
func NewEngine[T v.Real](m Model, p Params[T], a *Atoms[T], threads int) (*Engine[T], error) {
	n := len(a.Radius)
	need := func(name string, s []T) error {
		if len(s) != n {
			return fmt.Errorf("gb: %s model needs %s for %d atoms, got %d", m, name, n, len(s))
		}
		return nil
	}
	E := &Engine[T]{Model: m, Params: p, Atoms: a, Threads: max(threads, 1)}
	rr := make([]T, n)
	for i, r := range a.Radius {
		rr[i] = r - p.DielectricOffset
	}
	switch m {
	case Still:
		if err := need("Vsolv", a.Vsolv); err != nil {
			return nil, err
		}
		if err := need("GPol", a.GPol); err != nil {
			return nil, err
		}
		E.pairs = &stillPairs[T]{radius: a.Radius, vsolv: a.Vsolv}
		E.fin = &stillRadius[T]{gpol: a.GPol, epsfac: p.Epsfac}
	case HCT, OBC:
		if err := need("Sk", a.Sk); err != nil {
			return nil, err
		}
		E.pairs = &overlapPairs[T]{full: a.Radius, rr: rr, sk: a.Sk}
		if m == HCT {
			E.fin = &hctRadius[T]{rr: rr, offset: p.DielectricOffset}
		} else {
			E.fin = &obcRadius[T]{full: a.Radius, rr: rr, p: p}
		}
	default:
		return nil, fmt.Errorf("gb: unknown model %d", int(m))
	}
	E.Work = make([]T, n)
	E.BornRadius = make([]T, n)
	E.InvSqrtA = make([]T, n)
	E.Drobc = make([]T, n)
	E.Rb = make([]T, n)
	return E, nil
}

// Natoms returns the number of atoms of the engine.
func (E *Engine[T]) Natoms() int {
	return len(E.Atoms.Radius)
}

// CalcRadii computes the Born radii of all atoms from the pairs in L, and
// stores the chain-rule coefficients of each pair for ChainRule. The per-atom
// sums are reduced with c (Sum under particle decomposition, DomainSum
// under domain decomposition) before the radii are computed, and under domain
// decomposition the radii are spread to the halos afterwards.
// A nil c is a single rank. The only errors are those of c.
func (E *Engine[T]) CalcRadii(L *nblist.List, x, shiftvec []T, c comm.Communicator[T]) error {
	if c == nil {
		c = comm.Single[T]{}
	}
	E.list = nil
	if n := L.SlotsLen(); cap(E.Dadx) < n {
		E.Dadx = make([]T, n)
	} else {
		E.Dadx = E.Dadx[:n]
	}
	clear(E.Work)
	nri := L.Nri()
	if E.Threads == 1 {
		E.radiusChunk(L, x, shiftvec, E.Work, 0, nri)
	} else {
		local := make([][]T, E.Threads)
		sched.Run(nri, E.Threads, func(w, n0, n1 int) {
			if local[w] == nil {
				local[w] = make([]T, len(E.Work))
			}
			E.radiusChunk(L, x, shiftvec, local[w], n0, n1)
		})
		for _, l := range local {
			if l != nil {
				v.AddTo(E.Work, l)
			}
		}
	}
	var err error
	switch c.Decomposition() {
	case comm.Particle:
		err = c.Sum(E.Work)
	case comm.Domain:
		err = c.DomainSum(E.Work)
	}
	if err != nil {
		return fmt.Errorf("gb: reducing the %s sums: %w", E.Model, err)
	}
	for i, w := range E.Work {
		E.BornRadius[i], E.Drobc[i] = E.fin.radius(i, w)
		E.InvSqrtA[i] = v.RSqrt(E.BornRadius[i])
	}
	if c.Decomposition() == comm.Domain {
		spread := [][]T{E.BornRadius, E.InvSqrtA}
		if E.fin.spreadDrobc() {
			spread = append(spread, E.Drobc)
		}
		for _, s := range spread {
			if err := c.Spread(s); err != nil {
				return fmt.Errorf("gb: spreading the %s radii: %w", E.Model, err)
			}
		}
	}
	E.list = L
	return nil
}

// displacements returns the vectors from each j of the batch to the
// shifted i, and the squared distances, 1 for inactive lanes.
func displacements[T v.Real](b *nblist.Batch, x, shiftvec []T) (dx, dy, dz, rsq v.Vec4[T]) {
	is3 := 3 * b.Shift
	i3 := 3 * b.I
	dx = v.Splat(shiftvec[is3] + x[i3]).Sub(v.GatherStride(x, b.J, 3, 0))
	dy = v.Splat(shiftvec[is3+1] + x[i3+1]).Sub(v.GatherStride(x, b.J, 3, 1))
	dz = v.Splat(shiftvec[is3+2] + x[i3+2]).Sub(v.GatherStride(x, b.J, 3, 2))
	rsq = dx.Mul(dx).Add(dy.Mul(dy)).Add(dz.Mul(dz))
	rsq = v.Select(b.Mask, rsq, v.Splat[T](1))
	return dx, dy, dz, rsq
}

// radiusChunk adds the pair integrals of the outer entries [n0,n1) to work,
// and stores their chain-rule coefficients.
func (E *Engine[T]) radiusChunk(L *nblist.List, x, shiftvec, work []T, n0, n1 int) {
	var t terms[T]
	for b := range L.Batches(n0, n1) {
		_, _, _, rsq := displacements(&b, x, shiftvec)
		rinv := v.RSqrt4(rsq)
		r := rsq.Mul(rinv)
		E.pairs.integrate(b.I, &b.J, rsq, r, rinv, &t)
		work[b.I] += v.Zero(b.Mask, t.ij).Sum()
		ij, ji := b.IJ(), b.JI()
		for l := 0; l < b.Count; l++ {
			work[b.J[l]] += t.ji[l]
			E.Dadx[ij+l] = t.dij[l]
			E.Dadx[ji+l] = t.dji[l]
		}
	}
}

// ChainRule adds to f the forces that come from the dependence of the
// Born radii on the positions, given dvda, the derivative of the energy
// with respect to each Born radius. It uses the list and coefficients of the
// last CalcRadii call, and x and shiftvec must be the same given to it.
func (E *Engine[T]) ChainRule(x, shiftvec, dvda, f []T) error {
	L := E.list
	if L == nil {
		return ErrNoRadii
	}
	copy(E.Rb, dvda)
	E.fin.weights(E.Rb, E.BornRadius, E.Drobc)
	nri := L.Nri()
	if E.Threads == 1 {
		E.forceChunk(L, x, shiftvec, f, 0, nri)
		return nil
	}
	local := make([][]T, E.Threads)
	sched.Run(nri, E.Threads, func(w, n0, n1 int) {
		if local[w] == nil {
			local[w] = make([]T, len(f))
		}
		E.forceChunk(L, x, shiftvec, local[w], n0, n1)
	})
	for _, l := range local {
		if l != nil {
			v.AddTo(f, l)
		}
	}
	return nil
}

func load[T v.Real](s []T, n int) v.Vec4[T] {
	var r v.Vec4[T]
	copy(r[:n], s)
	return r
}

// forceChunk distributes the chain-rule forces of the outer entries [n0,n1).
func (E *Engine[T]) forceChunk(L *nblist.List, x, shiftvec, f []T, n0, n1 int) {
	rb := E.Rb
	var fix, fiy, fiz T
	for b := range L.Batches(n0, n1) {
		if b.First {
			fix, fiy, fiz = 0, 0, 0
		}
		dx, dy, dz, _ := displacements(&b, x, shiftvec)
		dij := load(E.Dadx[b.IJ():], b.Count)
		dji := load(E.Dadx[b.JI():], b.Count)
		fgb := v.Splat(rb[b.I]).Mul(dij).Add(v.Gather(rb, b.J).Mul(dji))
		tx := fgb.Mul(dx)
		ty := fgb.Mul(dy)
		tz := fgb.Mul(dz)
		fix += tx.Sum()
		fiy += ty.Sum()
		fiz += tz.Sum()
		for l := 0; l < b.Count; l++ {
			j3 := 3 * b.J[l]
			f[j3] -= tx[l]
			f[j3+1] -= ty[l]
			f[j3+2] -= tz[l]
		}
		if b.Last {
			i3 := 3 * b.I
			f[i3] += fix
			f[i3+1] += fiy
			f[i3+2] += fiz
		}
	}
}

/*
 * kernel.go, part of nbforce.
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

package nonbonded

import (
	"fmt"

	"github.com/rmera/nbforce/nblist"
	"github.com/rmera/nbforce/sched"
	"github.com/rmera/nbforce/table"
	"github.com/rmera/nbforce/vmath"
)

// Input is everything a kernel reads. Nothing in it is modified.
type Input[T vmath.Real] struct {
	List     *nblist.List
	X        []T //3 per atom
	ShiftVec []T //3 per shift index
	Charge   []T
	Type     []int
	Ntype    int
	VdwParam []T //Params() numbers per type pair, see the ff package
	Facel    T   //electrostatic prefactor
	Krf      T   //reaction field
	Crf      T
	Table    *table.Table[T] //VdW (stride 8) or Coulomb+VdW (stride 12)
	GBTable  *table.Table[T]
	InvSqrtA []T //1/sqrt(Born radius), per atom
	GBFacel  T   //prefactor of the polarization term
}

// Check verifies that in carries what the kernel of kind k reads.
// The kernels themselves do not check anything.
func (in *Input[T]) Check(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("nonbonded: invalid kernel %s", k)
	}
	if in.List == nil {
		return fmt.Errorf("nonbonded: no neighbor list")
	}
	natoms := len(in.X) / 3
	if err := in.List.Validate(natoms, len(in.ShiftVec)/3); err != nil {
		return err
	}
	if k.Coulomb != CoulombNone && len(in.Charge) < natoms {
		return fmt.Errorf("nonbonded: %d charges for %d atoms", len(in.Charge), natoms)
	}
	if np := k.Vdw.Params(); np > 0 {
		if len(in.Type) < natoms {
			return fmt.Errorf("nonbonded: %d types for %d atoms", len(in.Type), natoms)
		}
		if len(in.VdwParam) < np*in.Ntype*in.Ntype {
			return fmt.Errorf("nonbonded: %d VdW parameters, need %d", len(in.VdwParam), np*in.Ntype*in.Ntype)
		}
	}
	if k.Coulomb == CoulombTab && (in.Table == nil || in.Table.Stride != table.CoulVdwStride) {
		return fmt.Errorf("nonbonded: tabulated Coulomb needs a Coulomb+VdW table")
	}
	if k.Vdw == VdwTab && (in.Table == nil || (in.Table.Stride != table.VdwStride && in.Table.Stride != table.CoulVdwStride)) {
		return fmt.Errorf("nonbonded: tabulated VdW needs a VdW table")
	}
	if k.Coulomb == CoulombGB {
		if in.GBTable == nil || in.GBTable.Stride != table.GBStride {
			return fmt.Errorf("nonbonded: generalized Born needs a GB table")
		}
		if len(in.InvSqrtA) < natoms {
			return fmt.Errorf("nonbonded: %d Born radii for %d atoms", len(in.InvSqrtA), natoms)
		}
	}
	return nil
}

// Output holds the buffers a kernel adds to. They belong to the caller,
// who zeroes them when needed. The energies are indexed by group id.
// Vgb and Dvda are only used by the generalized Born kernels.
type Output[T vmath.Real] struct {
	F      []T
	Fshift []T
	Vc     []T
	Vvdw   []T
	Vgb    []T
	Dvda   []T
}

// NewOutput allocates an Output for natoms atoms and ngroups group pairs.
func NewOutput[T vmath.Real](natoms, ngroups int, gb bool) *Output[T] {
	o := &Output[T]{
		F:      make([]T, 3*natoms),
		Fshift: make([]T, 3*nblist.NShift),
		Vc:     make([]T, ngroups),
		Vvdw:   make([]T, ngroups),
	}
	if gb {
		o.Vgb = make([]T, ngroups)
		o.Dvda = make([]T, natoms)
	}
	return o
}

// Reset zeroes all the buffers.
func (o *Output[T]) Reset() {
	clear(o.F)
	clear(o.Fshift)
	clear(o.Vc)
	clear(o.Vvdw)
	clear(o.Vgb)
	clear(o.Dvda)
}

func zeroLike[T vmath.Real](s []T, use bool) []T {
	if !use || s == nil {
		return nil
	}
	return make([]T, len(s))
}

// scratch returns a zeroed Output shaped like o, for one worker.
func (o *Output[T]) scratch(force bool) *Output[T] {
	return &Output[T]{
		F:      zeroLike(o.F, force),
		Fshift: zeroLike(o.Fshift, force),
		Vc:     zeroLike(o.Vc, true),
		Vvdw:   zeroLike(o.Vvdw, true),
		Vgb:    zeroLike(o.Vgb, true),
		Dvda:   zeroLike(o.Dvda, force),
	}
}

// merge adds the buffers of s to o.
func (o *Output[T]) merge(s *Output[T]) {
	add := func(dst, src []T) {
		if src != nil {
			vmath.AddTo(dst, src)
		}
	}
	add(o.F, s.F)
	add(o.Fshift, s.Fshift)
	add(o.Vc, s.Vc)
	add(o.Vvdw, s.Vvdw)
	add(o.Vgb, s.Vgb)
	add(o.Dvda, s.Dvda)
}

// Options control a kernel call.
type Options struct {
	Threads int
}

// Kernel evaluates one Coulomb/VdW combination over a neighbor list.
// A Kernel holds no per-call state, and can be shared.
type Kernel[T vmath.Real] struct {
	kind Kind
	disp int //offsets of the tabulated VdW functions
	rep  int
}

// Lookup returns the kernel for the given kind.
func Lookup[T vmath.Real](k Kind) (*Kernel[T], error) {
	if !k.Valid() {
		return nil, fmt.Errorf("nonbonded: no kernel %s", k)
	}
	K := &Kernel[T]{kind: k, disp: table.VdwDisp, rep: table.VdwRep}
	if k.Coulomb == CoulombTab {
		K.disp, K.rep = table.CoulDisp, table.CoulRep
	}
	return K, nil
}

// Kind returns the kind of the kernel.
func (K *Kernel[T]) Kind() Kind {
	return K.kind
}

// Force adds the forces, shift forces, energies and, for generalized
// Born, dE/dR, of the pairs in the list to out.
func (K *Kernel[T]) Force(in *Input[T], out *Output[T], o Options) sched.Counters {
	return K.run(in, out, o, true)
}

// Energy adds only the energies. F, Fshift and Dvda are not touched.
func (K *Kernel[T]) Energy(in *Input[T], out *Output[T], o Options) sched.Counters {
	return K.run(in, out, o, false)
}

func (K *Kernel[T]) run(in *Input[T], out *Output[T], o Options, force bool) sched.Counters {
	L := in.List
	nri := L.Nri()
	threads := max(o.Threads, 1)
	c := sched.Counters{Outer: nri, Inner: L.Nrj(), PerWorker: make([]int, threads)}
	if threads == 1 {
		K.outer(in, out, 0, nri, force)
		c.PerWorker[0] = c.Inner
		return c
	}
	local := make([]*Output[T], threads)
	sched.Run(nri, threads, func(w, n0, n1 int) {
		if local[w] == nil {
			local[w] = out.scratch(force)
		}
		K.outer(in, local[w], n0, n1, force)
		c.PerWorker[w] += L.Jindex[n1] - L.Jindex[n0]
	})
	for _, s := range local {
		if s != nil {
			out.merge(s)
		}
	}
	return c
}

// outer processes the outer entries [n0,n1).
func (K *Kernel[T]) outer(in *Input[T], out *Output[T], n0, n1 int, force bool) {
	L := in.List
	x := in.X
	coul := K.kind.Coulomb
	vdw := K.kind.Vdw
	np := vdw.Params()
	var tab []T
	var tabscale T
	if in.Table != nil {
		tab, tabscale = in.Table.Data, in.Table.Scale
	}
	var gbtab []T
	var gbtabscale T
	if in.GBTable != nil {
		gbtab, gbtabscale = in.GBTable.Data, in.GBTable.Scale
	}
	for n := n0; n < n1; n++ {
		is3 := 3 * L.Shift[n]
		ii := L.Iinr[n]
		ii3 := 3 * ii
		ix := in.ShiftVec[is3] + x[ii3]
		iy := in.ShiftVec[is3+1] + x[ii3+1]
		iz := in.ShiftVec[is3+2] + x[ii3+2]
		var iq, qi, isai T
		if coul != CoulombNone {
			qi = in.Charge[ii]
			iq = in.Facel * qi
		}
		if coul == CoulombGB {
			isai = in.InvSqrtA[ii]
		}
		nti := 0
		if np > 0 {
			nti = np * in.Ntype * in.Type[ii]
		}
		var vctot, vvdwtot, vgbtot, dvdasum T
		var fix, fiy, fiz T
		for k := L.Jindex[n]; k < L.Jindex[n+1]; k++ {
			jnr := L.Jjnr[k]
			j3 := 3 * jnr
			dx := ix - x[j3]
			dy := iy - x[j3+1]
			dz := iz - x[j3+2]
			rsq := dx*dx + dy*dy + dz*dz
			rinv := vmath.RSqrt(rsq)
			rinvsq := rinv * rinv
			var fscal T
			switch coul {
			case CoulombPlain:
				vcoul := iq * in.Charge[jnr] * rinv
				vctot += vcoul
				fscal = vcoul * rinvsq
			case CoulombRF:
				qq := iq * in.Charge[jnr]
				krsq := in.Krf * rsq
				vctot += qq * (rinv + krsq - in.Crf)
				fscal = qq * (rinv - 2*krsq) * rinvsq
			case CoulombTab:
				qq := iq * in.Charge[jnr]
				r := rsq * rinv
				nnn, eps := in.Table.Locate(r * tabscale)
				if force {
					VV, FF := table.Spline(tab, nnn+table.CoulCoul, eps)
					vctot += qq * VV
					fscal = -qq * FF * tabscale * rinv
				} else {
					vctot += qq * table.SplineV(tab, nnn+table.CoulCoul, eps)
				}
			case CoulombGB:
				qj := in.Charge[jnr]
				vcoul := iq * qj * rinv
				vctot += vcoul
				fscal = vcoul * rinvsq
				isaj := in.InvSqrtA[jnr]
				isaprod := isai * isaj
				qqgb := -in.GBFacel * qi * qj * isaprod
				gbscale := isaprod * gbtabscale
				r := rsq * rinv
				nnn, eps := in.GBTable.Locate(r * gbscale)
				if force {
					VV, FF := table.Spline(gbtab, nnn+table.GBPol, eps)
					vgb := qqgb * VV
					fijC := qqgb * FF * gbscale
					dvdatmp := -0.5 * (vgb + fijC*r)
					dvdasum += dvdatmp
					out.Dvda[jnr] += dvdatmp * isaj * isaj
					vgbtot += vgb
					fscal -= fijC * rinv
				} else {
					vgbtot += qqgb * table.SplineV(gbtab, nnn+table.GBPol, eps)
				}
			}
			switch vdw {
			case VdwLJ:
				tj := nti + 2*in.Type[jnr]
				c6 := in.VdwParam[tj]
				c12 := in.VdwParam[tj+1]
				rinvsix := rinvsq * rinvsq * rinvsq
				vvdw6 := c6 * rinvsix
				vvdw12 := c12 * rinvsix * rinvsix
				vvdwtot += vvdw12 - vvdw6
				fscal += (12*vvdw12 - 6*vvdw6) * rinvsq
			case VdwBuckingham:
				tj := nti + 3*in.Type[jnr]
				a := in.VdwParam[tj]
				b := in.VdwParam[tj+1]
				c6 := in.VdwParam[tj+2]
				r := rsq * rinv
				rinvsix := rinvsq * rinvsq * rinvsq
				vvdw6 := c6 * rinvsix
				vexp := a * vmath.Exp(-b*r)
				vvdwtot += vexp - vvdw6
				fscal += (b*vexp*r - 6*vvdw6) * rinvsq
			case VdwTab:
				tj := nti + 2*in.Type[jnr]
				c6 := in.VdwParam[tj]
				c12 := in.VdwParam[tj+1]
				r := rsq * rinv
				nnn, eps := in.Table.Locate(r * tabscale)
				if force {
					VVd, FFd := table.Spline(tab, nnn+K.disp, eps)
					VVr, FFr := table.Spline(tab, nnn+K.rep, eps)
					vvdwtot += c6*VVd + c12*VVr
					fscal -= (c6*FFd + c12*FFr) * tabscale * rinv
				} else {
					vvdwtot += c6*table.SplineV(tab, nnn+K.disp, eps) + c12*table.SplineV(tab, nnn+K.rep, eps)
				}
			}
			if !force {
				continue
			}
			tx := fscal * dx
			ty := fscal * dy
			tz := fscal * dz
			fix += tx
			fiy += ty
			fiz += tz
			out.F[j3] -= tx
			out.F[j3+1] -= ty
			out.F[j3+2] -= tz
		}
		if force {
			out.F[ii3] += fix
			out.F[ii3+1] += fiy
			out.F[ii3+2] += fiz
			out.Fshift[is3] += fix
			out.Fshift[is3+1] += fiy
			out.Fshift[is3+2] += fiz
		}
		gid := L.Gid[n]
		out.Vc[gid] += vctot
		out.Vvdw[gid] += vvdwtot
		if coul == CoulombGB {
			out.Vgb[gid] += vgbtot
			if force {
				out.Dvda[ii] += dvdasum * isai * isai
			}
		}
	}
}

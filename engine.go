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

package nbforce

import (
	"math"

	"github.com/rmera/nbforce/comm"
	"github.com/rmera/nbforce/ff"
	"github.com/rmera/nbforce/gb"
	"github.com/rmera/nbforce/histo"
	"github.com/rmera/nbforce/nblist"
	"github.com/rmera/nbforce/nonbonded"
	"github.com/rmera/nbforce/sched"
	"github.com/rmera/nbforce/table"
	"github.com/rmera/nbforce/v3"
	"github.com/rmera/nbforce/vmath"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const balanceBins = 8

// Energies are the energies of one step, per energy group pair
// (i group times the number of groups plus j group), reduced over all ranks.
type Energies struct {
	Coulomb      []float64
	VdW          []float64
	Polarization []float64
	Self         float64 //Born self energy
}

// Total returns the sum of all the terms.
func (e *Energies) Total() float64 {
	return floats.Sum(e.Coulomb) + floats.Sum(e.VdW) + floats.Sum(e.Polarization) + e.Self
}

// Engine evaluates the nonbonded forces and energies of a System, one step
// at a time, on one rank. An Engine is not safe for concurrent use, ranks
// running in the same process each have their own.
type Engine[T vmath.Real] struct {
	Config   *Config
	Log      *logrus.Logger
	Counters sched.Counters //accumulated over all the steps
	//Loads is the histogram of the per-thread loads over the mean, of
	//all the steps. Its ID is the rank.
	Loads *histo.Data

	sys     *System[T]
	kind    nonbonded.Kind
	kernel  *nonbonded.Kernel[T]
	in      *nonbonded.Input[T]
	out     *nonbonded.Output[T]
	gb      *gb.Engine[T]
	comm    comm.Communicator[T]
	ngroups int
	steps   int
}

// NewEngine prepares the evaluation of the system S with the configuration cfg.
// c is the communicator of this rank, nil for a single rank, and log can be nil.
func NewEngine[T vmath.Real](cfg *Config, S *System[T], c comm.Communicator[T], log *logrus.Logger) (*Engine[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errDecorate(err, "NewEngine")
	}
	if err := S.check(); err != nil {
		return nil, errDecorate(err, "NewEngine")
	}
	if c == nil {
		c = comm.Single[T]{}
	}
	if log == nil {
		log = cfg.Logger()
	}
	if c.Decomposition() == comm.Domain && S.Owner == nil {
		return nil, newError(true, nil, "domain decomposition needs the owner of each atom")
	}
	k, _ := cfg.Kind()
	kernel, err := nonbonded.Lookup[T](k)
	if err != nil {
		return nil, newError(true, err, "no kernel")
	}
	E := &Engine[T]{
		Config:  cfg,
		Log:     log,
		sys:     S,
		kind:    k,
		kernel:  kernel,
		comm:    c,
		ngroups: S.NGroups() * S.NGroups(),
		Loads:   histo.NewData(histo.LoadDividers(balanceBins), nil, c.Rank()),
	}
	krf, crf := cfg.RF()
	in := &nonbonded.Input[T]{
		X:        S.X,
		ShiftVec: nblist.ShiftVectors(S.Box),
		Charge:   S.Charge,
		Type:     S.Type,
		Ntype:    S.FF.Ntype(),
		Facel:    T(cfg.Nonbonded.Facel),
		Krf:      T(krf),
		Crf:      T(crf),
		GBFacel:  T(cfg.GBFacel()),
	}
	if in.Charge == nil {
		in.Charge = ff.Charges[T](S.FF, S.Type)
	}
	switch k.Vdw {
	case nonbonded.VdwLJ, nonbonded.VdwTab:
		if in.VdwParam, err = ff.LJParams[T](S.FF); err != nil {
			return nil, newError(true, err, "bad Lennard-Jones parameters")
		}
	case nonbonded.VdwBuckingham:
		in.VdwParam = ff.BuckinghamParams[T](S.FF)
	}
	if in.Table, err = E.pairTable(); err != nil {
		return nil, errDecorate(err, "NewEngine")
	}
	if m, on, _ := cfg.GBModel(); on {
		if err := E.setupGB(m, in); err != nil {
			return nil, errDecorate(err, "NewEngine")
		}
	}
	E.in = in
	E.out = nonbonded.NewOutput[T](S.Natoms(), E.ngroups, E.gb != nil)
	log.WithFields(logrus.Fields{
		"kernel":        k.String(),
		"gb":            cfg.GB.Model,
		"atoms":         S.Natoms(),
		"threads":       cfg.Parallel.Threads,
		"rank":          c.Rank(),
		"decomposition": c.Decomposition().String(),
		"simd":          vmath.Describe(),
	}).Info("nonbonded engine ready")
	return E, nil
}

// pairTable returns the Coulomb/VdW table the kernel needs, if any.
func (E *Engine[T]) pairTable() (*table.Table[T], error) {
	nb := E.Config.Nonbonded
	var want int
	switch {
	case E.kind.Coulomb == nonbonded.CoulombTab:
		want = table.CoulVdwStride
	case E.kind.Vdw == nonbonded.VdwTab:
		want = table.VdwStride
	default:
		return nil, nil
	}
	if nb.TableFile != "" {
		t, err := table.Read[T](nb.TableFile)
		if err != nil {
			return nil, newError(true, err, "can't read table %s", nb.TableFile)
		}
		if t.Stride != want {
			return nil, newError(true, nil, "table %s has stride %d, kernel %s needs %d", nb.TableFile, t.Stride, E.kind, want)
		}
		if float64(t.Max()) < nb.Cutoff {
			return nil, newError(true, nil, "table %s ends at %g nm, before the cutoff", nb.TableFile, t.Max())
		}
		E.Log.Infof("read table %s, stride %d, scale %g", nb.TableFile, t.Stride, t.Scale)
		return t, nil
	}
	rmax := nb.Cutoff + nb.TabExt
	if want == table.CoulVdwStride {
		beta := table.EwaldBeta(nb.Cutoff, nb.EwaldRtol)
		E.Log.Debugf("Ewald beta %g for a cutoff of %g nm", beta, nb.Cutoff)
		return table.CoulombVdW[T](table.Ewald(beta), nb.TabScale, rmax), nil
	}
	return table.VdW[T](nb.TabScale, rmax), nil
}

func (E *Engine[T]) setupGB(m gb.Model, in *nonbonded.Input[T]) error {
	g := E.Config.GB
	p := gb.DefaultParams[T]()
	p.DielectricOffset = T(g.DielectricOffset)
	p.Alpha, p.Beta, p.Gamma = T(g.Alpha), T(g.Beta), T(g.Gamma)
	radius, scale := ff.GBRadii[T](E.sys.FF, E.sys.Type)
	for i, r := range radius {
		if r <= p.DielectricOffset {
			return newError(true, nil, "atom %d has a Born radius of %g, not larger than the dielectric offset", i, r)
		}
	}
	var atoms *gb.Atoms[T]
	if m == gb.Still {
		atoms = gb.NewStillAtoms(radius, p)
	} else {
		atoms = gb.NewOverlapAtoms(radius, scale, p)
	}
	var err error
	E.gb, err = gb.NewEngine(m, p, atoms, E.Config.Parallel.Threads)
	if err != nil {
		return newError(true, err, "can't set up the generalized Born engine")
	}
	in.GBTable = table.GB[T](g.TabScale, g.TableMax)
	return nil
}

// BornRadii returns the Born radii of the last step, nil without generalized Born.
func (E *Engine[T]) BornRadii() []T {
	if E.gb == nil {
		return nil
	}
	return E.gb.BornRadius
}

// Output returns the buffers of the last step. Under a decomposition the forces
// are the contributions of this rank's pairs only.
func (E *Engine[T]) Output() *nonbonded.Output[T] {
	return E.out
}

// Step evaluates the pairs in L, this rank's part of the neighbor list, at the current
// coordinates of the system. The forces are computed only if forces is true. Every
// rank of the communicator must call Step with the same value of forces.
func (E *Engine[T]) Step(L *nblist.List, forces bool) (*Energies, error) {
	E.steps++
	E.out.Reset()
	in := E.in
	in.List = L
	in.X = E.sys.X
	c := E.comm
	if E.gb != nil {
		if err := E.gb.CalcRadii(L, in.X, in.ShiftVec, c); err != nil {
			return nil, newError(true, err, "Born radii at step %d", E.steps)
		}
		in.InvSqrtA = E.gb.InvSqrtA
		if err := E.checkGBRange(); err != nil {
			return nil, errDecorate(err, "Step")
		}
	}
	if err := in.Check(E.kind); err != nil {
		return nil, newError(true, err, "bad input at step %d", E.steps)
	}
	opts := nonbonded.Options{Threads: E.Config.Parallel.Threads}
	var cnt sched.Counters
	if forces {
		cnt = E.kernel.Force(in, E.out, opts)
	} else {
		cnt = E.kernel.Energy(in, E.out, opts)
	}
	E.Counters.Add(cnt)
	var self T
	if E.gb != nil {
		var dvda []T
		if forces {
			dvda = E.out.Dvda
		}
		self = E.selfEnergy(dvda)
		if forces {
			if err := E.chainRule(); err != nil {
				return nil, errDecorate(err, "Step")
			}
		}
	}
	en, err := E.energies(self)
	if err != nil {
		return nil, errDecorate(err, "Step")
	}
	b := histo.NewBalance(cnt.PerWorker, balanceBins)
	if b != nil {
		E.Loads.AddData(b.Relative...)
	}
	if E.Log.IsLevelEnabled(logrus.DebugLevel) {
		f := logrus.Fields{"step": E.steps, "outer": cnt.Outer, "inner": cnt.Inner, "energy": en.Total()}
		if b != nil {
			f["imbalance"] = b.Imbalance
			f["loads"] = b.Loads.View()
		}
		E.Log.WithFields(f).Debug("step done")
	}
	return en, nil
}

// selfEnergy adds the Born self terms of the atoms this rank is responsible
// for, and their dE/dR to dvda if it is not nil.
func (E *Engine[T]) selfEnergy(dvda []T) T {
	c := E.comm
	q, born := E.in.Charge, E.gb.BornRadius
	gbfacel := E.in.GBFacel
	switch c.Decomposition() {
	case comm.Domain:
		var e T
		for i, o := range E.sys.Owner {
			if o != c.Rank() {
				continue
			}
			var d []T
			if dvda != nil {
				d = dvda[i : i+1]
			}
			e += gb.SelfEnergy(q[i:i+1], born[i:i+1], gbfacel, d)
		}
		return e
	default:
		if c.Rank() != 0 {
			return 0
		}
		return gb.SelfEnergy(q, born, gbfacel, dvda)
	}
}

// chainRule reduces dE/dR over the ranks and adds the forces that come from
// the dependence of the Born radii on the coordinates.
func (E *Engine[T]) chainRule() error {
	c := E.comm
	dvda := E.out.Dvda
	var err error
	switch c.Decomposition() {
	case comm.Particle:
		err = c.Sum(dvda)
	case comm.Domain:
		err = c.DomainSum(dvda)
	}
	if err != nil {
		return newError(true, err, "reducing dE/dR")
	}
	if err := E.gb.ChainRule(E.in.X, E.in.ShiftVec, dvda, E.out.F); err != nil {
		return newError(true, err, "GB chain rule")
	}
	return nil
}

// energies reduces the energies of all ranks.
func (E *Engine[T]) energies(self T) (*Energies, error) {
	n := E.ngroups
	o := E.out
	buf := make([]T, 0, 3*n+1)
	buf = append(buf, o.Vc...)
	buf = append(buf, o.Vvdw...)
	if o.Vgb != nil {
		buf = append(buf, o.Vgb...)
	} else {
		buf = append(buf, make([]T, n)...)
	}
	buf = append(buf, self)
	if E.comm.Decomposition() != comm.None {
		if err := E.comm.Sum(buf); err != nil {
			return nil, newError(true, err, "reducing the energies")
		}
	}
	f := make([]float64, len(buf))
	for i, v := range buf {
		f[i] = float64(v)
	}
	return &Energies{
		Coulomb:      f[:n],
		VdW:          f[n : 2*n],
		Polarization: f[2*n : 3*n],
		Self:         f[3*n],
	}, nil
}

// checkGBRange verifies that the GB table covers the reduced distance
// r/sqrt(Ri*Rj) of every pair the list can hold.
func (E *Engine[T]) checkGBRange() error {
	rmax := E.Config.Nonbonded.Cutoff
	if rmax <= 0 {
		M, err := v3.FromFlat(E.sys.X)
		if err != nil {
			return newError(true, err, "bad coordinates")
		}
		ext := M.Extent()
		rmax = math.Sqrt(ext[0]*ext[0] + ext[1]*ext[1] + ext[2]*ext[2])
	}
	isa := 0.0
	for _, v := range E.gb.InvSqrtA {
		isa = max(isa, float64(v))
	}
	if x := rmax * isa * isa; x >= float64(E.in.GBTable.Max()) {
		return newError(true, nil, "the GB table ends at %g, pairs can reach %g, raise gb.table_max", E.in.GBTable.Max(), x)
	}
	return nil
}

/*
 * main.go, part of nbforce.
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

// nbrun builds a synthetic system, a cubic lattice of alternating
// charges, and evaluates its nonbonded energies and forces.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rmera/nbforce"
	"github.com/rmera/nbforce/comm"
	"github.com/rmera/nbforce/ff"
	"github.com/rmera/nbforce/histo"
	"github.com/rmera/nbforce/nblist"
	"github.com/rmera/nbforce/nonbonded"
	"github.com/rmera/nbforce/table"
	"github.com/rmera/nbforce/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

var (
	configPath string
	natoms     int
	spacing    float64
	steps      int
	threads    int
	ranks      int
	writeTable string
	balance    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "nbrun",
	Short: "Evaluates nonbonded forces and energies on a synthetic system",
	Long: `nbrun places atoms of two alternating types on a cubic lattice, builds their
neighbor list and evaluates the nonbonded energies and forces with the kernel
and generalized Born model of the configuration, as many times as steps says.
With more than one rank, the ranks run as goroutines sharing a communicator.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := cfg.Logger()
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		if writeTable != "" {
			return dumpTable(cfg, writeTable, log)
		}
		return run(cfg, log)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "TOML configuration file, defaults are used if not given")
	f.IntVar(&natoms, "atoms", 216, "Number of atoms")
	f.Float64Var(&spacing, "spacing", 0.31, "Lattice spacing, nm")
	f.IntVar(&steps, "steps", 10, "Number of evaluations")
	f.IntVar(&threads, "threads", 0, "Threads per rank (overrides config)")
	f.IntVar(&ranks, "ranks", 0, "Number of ranks (overrides config)")
	f.StringVar(&writeTable, "write-table", "", "Write the pair table of the configuration to this file (.zst, .gz or plain) and exit")
	f.StringVar(&balance, "balance", "", "Write the load balance of each rank, as JSON, to this file")
	f.BoolVar(&verbose, "verbose", false, "Debug output")
}

func loadConfig(cmd *cobra.Command) (*nbforce.Config, error) {
	cfg := nbforce.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = nbforce.ReadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("threads") {
		cfg.Parallel.Threads = threads
	}
	if cmd.Flags().Changed("ranks") {
		cfg.Parallel.Ranks = ranks
	}
	if natoms < 2 || spacing <= 0 || steps < 1 {
		return nil, fmt.Errorf("nbrun: need at least 2 atoms, a positive spacing and 1 step")
	}
	return cfg, cfg.Validate()
}

func dumpTable(cfg *nbforce.Config, name string, log *logrus.Logger) error {
	k, _ := cfg.Kind()
	nb := cfg.Nonbonded
	var t *table.Table[float64]
	rmax := nb.Cutoff + nb.TabExt
	switch {
	case k.Coulomb == nonbonded.CoulombTab:
		t = table.CoulombVdW[float64](table.Ewald(table.EwaldBeta(nb.Cutoff, nb.EwaldRtol)), nb.TabScale, rmax)
	case k.Coulomb == nonbonded.CoulombRF:
		krf, crf := cfg.RF()
		t = table.CoulombVdW[float64](table.ReactionField(krf, crf), nb.TabScale, rmax)
	case k.Coulomb == nonbonded.CoulombGB:
		t = table.GB[float64](cfg.GB.TabScale, cfg.GB.TableMax)
	default:
		t = table.CoulombVdW[float64](table.Coulomb(), nb.TabScale, rmax)
	}
	if err := table.Write(name, t); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": name, "stride": t.Stride, "points": t.N}).Info("table written")
	return nil
}

func forceField() *ff.FF {
	F := ff.NewFF()
	F.AddType(&ff.AtomType{Name: "OW", C6: 0.0026171, C12: 2.6331e-06, BuckA: 1e5, BuckB: 35, Charge: -0.5, GBRadius: 0.17, GBScale: 0.85})
	F.AddType(&ff.AtomType{Name: "NA", C6: 0.0015, C12: 1.2e-06, BuckA: 6e4, BuckB: 30, Charge: 0.5, GBRadius: 0.15, GBScale: 0.8})
	return F
}

// lattice returns the system. It is periodic if the cutoff fits in the box.
func lattice(cfg *nbforce.Config, log *logrus.Logger) *nbforce.System[float32] {
	L, side := v3.Lattice(natoms, spacing)
	b := float32(side) * float32(spacing)
	periodic := cfg.Nonbonded.Cutoff > 0 && 2*cfg.Nonbonded.Cutoff < float64(b)
	if periodic {
		//centered in the box
		shift := L.Centroid()
		shift.Scale(-1, shift)
		floats.AddConst(float64(b)/2, shift.RawRowView(0))
		L.AddVec(L, shift)
	}
	S := &nbforce.System[float32]{
		X:      v3.Flat[float32](L, nil),
		FF:     forceField(),
		Type:   make([]int, natoms),
		Groups: make([]int, natoms),
	}
	for i := range S.Type {
		//checkerboard
		x, y, z := i%side, (i/side)%side, i/(side*side)
		S.Type[i] = (x + y + z) % 2
		S.Groups[i] = S.Type[i]
	}
	if periodic {
		S.Box = [3]float32{b, b, b}
	} else {
		log.Info("the system is not periodic")
	}
	return S
}

func run(cfg *nbforce.Config, log *logrus.Logger) error {
	S := lattice(cfg, log)
	full, err := nbforce.NewBuilder(cfg, S).Build(S.X)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"outer": full.Nri(), "pairs": full.Nrj()}).Info("neighbor list built")
	size := cfg.Parallel.Ranks
	lists := []*nblist.List{full}
	comms := []comm.Communicator[float32]{nil}
	if size > 1 {
		d, _ := comm.ParseDecomposition(cfg.Parallel.Decomposition)
		comms = make([]comm.Communicator[float32], size)
		if d == comm.Domain {
			S.Owner = nbforce.SlabOwners(S.X, S.Box[0], size)
			var halo [][]int
			lists, halo = nbforce.DomainLists(full, S.Owner, size)
			g, err := comm.NewDomainGroup[float32](S.Owner, halo)
			if err != nil {
				return err
			}
			for r := range g {
				comms[r] = g[r]
				defer g[r].Close()
			}
		} else {
			lists = nbforce.ParticleLists(full, size)
			g := comm.NewParticleGroup[float32](size)
			for r := range g {
				comms[r] = g[r]
				defer g[r].Close()
			}
		}
	}
	engines := make([]*nbforce.Engine[float32], size)
	for r := range engines {
		if engines[r], err = nbforce.NewEngine(cfg, S, comms[r], log); err != nil {
			return err
		}
	}
	energies := make([]*nbforce.Energies, size)
	start := time.Now()
	for step := 0; step < steps; step++ {
		var eg errgroup.Group
		for r := range engines {
			eg.Go(func() error {
				var err error
				energies[r], err = engines[r].Step(lists[r], true)
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		e := energies[0]
		fmt.Printf("step %4d  coulomb %14.6f  vdw %14.6f  polarization %14.6f  self %14.6f  total %14.6f  max force %10.4f\n",
			step, floats.Sum(e.Coulomb), floats.Sum(e.VdW), floats.Sum(e.Polarization), e.Self, e.Total(), maxForce(engines))
	}
	elapsed := time.Since(start)
	report := make([]rankBalance, 0, size)
	for r, E := range engines {
		b := histo.NewBalance(E.Counters.PerWorker, 8)
		if b == nil {
			continue
		}
		E.Loads.Normalize()
		log.WithFields(logrus.Fields{"rank": r, "pairs": E.Counters.Inner}).Info(b.String())
		log.Debugf("per step thread loads over the mean:\n%s", E.Loads)
		report = append(report, rankBalance{Rank: E.Loads.ID(), Steps: steps, Total: b, PerStep: E.Loads})
	}
	log.Infof("%d steps in %v, %v per step", steps, elapsed, elapsed/time.Duration(steps))
	if balance != "" {
		return writeBalance(balance, report)
	}
	return nil
}

// rankBalance is the load balance of a rank over a run.
type rankBalance struct {
	Rank    int            `json:"rank"`
	Steps   int            `json:"steps"`
	Total   *histo.Balance `json:"total"`
	PerStep *histo.Data    `json:"per_step"`
}

func writeBalance(name string, report []rankBalance) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("nbrun: can't encode the balance: %w", err)
	}
	return os.WriteFile(name, b, 0o644)
}

// maxForce returns the largest force on an atom, summing the contributions of all ranks.
func maxForce(engines []*nbforce.Engine[float32]) float64 {
	f := make([]float64, len(engines[0].Output().F))
	for _, E := range engines {
		for i, v := range E.Output().F {
			f[i] += float64(v)
		}
	}
	m := 0.0
	for i := 0; i < len(f); i += 3 {
		m = max(m, math.Sqrt(f[i]*f[i]+f[i+1]*f[i+1]+f[i+2]*f[i+2]))
	}
	return m
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

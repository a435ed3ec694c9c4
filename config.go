/*
 * config.go, part of nbforce.
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
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/rmera/nbforce/comm"
	"github.com/rmera/nbforce/gb"
	"github.com/rmera/nbforce/nonbonded"
	"github.com/sirupsen/logrus"
)

// Config holds the parameters of an Engine. It is usually read from a TOML file.
type Config struct {
	Nonbonded NonbondedConfig `toml:"nonbonded"`
	GB        GBConfig        `toml:"gb"`
	Parallel  ParallelConfig  `toml:"parallel"`
	Log       LogConfig       `toml:"log"`
}

type NonbondedConfig struct {
	Coulomb   string  `toml:"coulomb"` //none, plain, rf, tab or gb
	Vdw       string  `toml:"vdw"`     //none, lj, buckingham or tab
	Facel     float64 `toml:"facel"`
	EpsilonRF float64 `toml:"epsilon_rf"`
	Cutoff    float64 `toml:"rcoulomb"` //nm, 0 for no cutoff
	EwaldRtol float64 `toml:"ewald_rtol"`
	TabScale  float64 `toml:"tabscale"`        //points per nm
	TabExt    float64 `toml:"table_extension"` //nm beyond the cutoff
	TableFile string  `toml:"table_file"`      //read instead of generated if not empty
}

type GBConfig struct {
	Model            string  `toml:"model"` //none, still, hct or obc
	DielectricOffset float64 `toml:"dielectric_offset"`
	EpsilonIn        float64 `toml:"epsilon_in"`
	EpsilonSolvent   float64 `toml:"epsilon_solvent"`
	Alpha            float64 `toml:"alpha"`
	Beta             float64 `toml:"beta"`
	Gamma            float64 `toml:"gamma"`
	TabScale         float64 `toml:"tabscale"`
	TableMax         float64 `toml:"table_max"` //largest reduced distance r/sqrt(Ri*Rj)
}

type ParallelConfig struct {
	Threads       int    `toml:"threads"`
	Ranks         int    `toml:"ranks"`
	Decomposition string `toml:"decomposition"` //particle or domain
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used for the keys a file doesn't set.
func DefaultConfig() *Config {
	p := gb.DefaultParams[float64]()
	return &Config{
		Nonbonded: NonbondedConfig{
			Coulomb:   "plain",
			Vdw:       "lj",
			Facel:     gb.Epsfac,
			EpsilonRF: 78.0,
			Cutoff:    1.0,
			EwaldRtol: 1e-5,
			TabScale:  500,
			TabExt:    1.0,
		},
		GB: GBConfig{
			Model:            "none",
			DielectricOffset: p.DielectricOffset,
			EpsilonIn:        1.0,
			EpsilonSolvent:   78.3,
			Alpha:            p.Alpha,
			Beta:             p.Beta,
			Gamma:            p.Gamma,
			TabScale:         500,
			TableMax:         40,
		},
		Parallel: ParallelConfig{
			Threads:       1,
			Ranks:         1,
			Decomposition: "particle",
		},
		Log: LogConfig{Level: "info"},
	}
}

// ReadConfig reads a TOML configuration file on top of DefaultConfig,
// and validates the result. Unknown keys are an error.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(true, err, "can't open configuration file %s", path)
	}
	defer f.Close()
	c, err := DecodeConfig(f)
	if err != nil {
		return nil, errDecorate(err, "ReadConfig "+path)
	}
	return c, nil
}

// DecodeConfig is ReadConfig for an io.Reader.
func DecodeConfig(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	if err := toml.NewDecoder(r).Strict(true).Decode(c); err != nil {
		return nil, newError(true, err, "can't decode configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, errDecorate(err, "DecodeConfig")
	}
	return c, nil
}

// Kind returns the kernel kind the configuration selects.
func (c *Config) Kind() (nonbonded.Kind, error) {
	cl, err := nonbonded.ParseCoulomb(c.Nonbonded.Coulomb)
	if err != nil {
		return nonbonded.Kind{}, err
	}
	vd, err := nonbonded.ParseVdw(c.Nonbonded.Vdw)
	if err != nil {
		return nonbonded.Kind{}, err
	}
	return nonbonded.Kind{Coulomb: cl, Vdw: vd}, nil
}

// GBModel returns the Born radius model, and false if GB is disabled.
func (c *Config) GBModel() (gb.Model, bool, error) {
	if s := strings.ToLower(strings.TrimSpace(c.GB.Model)); s == "" || s == "none" {
		return gb.Still, false, nil
	}
	m, err := gb.ParseModel(c.GB.Model)
	return m, err == nil, err
}

// GBFacel returns the prefactor of the polarization energy,
// facel*(1/eps_in - 1/eps_solvent).
func (c *Config) GBFacel() float64 {
	return c.Nonbonded.Facel * (1/c.GB.EpsilonIn - 1/c.GB.EpsilonSolvent)
}

// RF returns the reaction-field constants for the cutoff and epsilon_rf.
func (c *Config) RF() (krf, crf float64) {
	eps, rc := c.Nonbonded.EpsilonRF, c.Nonbonded.Cutoff
	if rc <= 0 {
		return 0, 0
	}
	krf = (eps - 1) / ((2*eps + 1) * rc * rc * rc)
	return krf, 1/rc + krf*rc*rc
}

// Validate checks that the configuration is consistent.
func (c *Config) Validate() error {
	k, err := c.Kind()
	if err != nil {
		return newError(true, err, "bad kernel")
	}
	_, gbon, err := c.GBModel()
	if err != nil {
		return newError(true, err, "bad generalized Born model")
	}
	if gbon != (k.Coulomb == nonbonded.CoulombGB) {
		return newError(true, nil, "coulomb=%q needs a GB model exactly when it is \"gb\", got model %q", c.Nonbonded.Coulomb, c.GB.Model)
	}
	nb := c.Nonbonded
	if nb.Facel <= 0 {
		return newError(true, nil, "facel must be positive, got %g", nb.Facel)
	}
	if nb.Cutoff < 0 {
		return newError(true, nil, "negative cutoff %g", nb.Cutoff)
	}
	tabulated := k.Coulomb == nonbonded.CoulombTab || k.Vdw == nonbonded.VdwTab
	if (tabulated || k.Coulomb == nonbonded.CoulombRF) && nb.Cutoff == 0 {
		return newError(true, nil, "kernel %s needs a cutoff", k)
	}
	if tabulated && nb.TableFile == "" && (nb.TabScale <= 0 || nb.TabExt < 0) {
		return newError(true, nil, "bad table scale %g or extension %g", nb.TabScale, nb.TabExt)
	}
	if k.Coulomb == nonbonded.CoulombTab && (nb.EwaldRtol <= 0 || nb.EwaldRtol >= 1) {
		return newError(true, nil, "ewald_rtol must be in (0,1), got %g", nb.EwaldRtol)
	}
	if gbon {
		g := c.GB
		if g.EpsilonIn <= 0 || g.EpsilonSolvent <= 0 {
			return newError(true, nil, "dielectric constants must be positive")
		}
		if g.TabScale <= 0 || g.TableMax <= 0 {
			return newError(true, nil, "bad GB table scale %g or range %g", g.TabScale, g.TableMax)
		}
		if g.DielectricOffset < 0 {
			return newError(true, nil, "negative dielectric offset %g", g.DielectricOffset)
		}
	}
	p := c.Parallel
	if p.Threads < 1 || p.Ranks < 1 {
		return newError(true, nil, "threads and ranks must be at least 1, got %d and %d", p.Threads, p.Ranks)
	}
	d, err := comm.ParseDecomposition(p.Decomposition)
	if err != nil {
		return newError(true, err, "bad decomposition")
	}
	if d == comm.None && p.Ranks > 1 {
		return newError(true, nil, "%d ranks with no decomposition", p.Ranks)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return newError(true, err, "bad log level")
	}
	return nil
}

// Logger returns a logger with the configured level.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lv, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.SetLevel(lv)
	return l
}

/*
 * kind.go, part of nbforce.
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
	"strings"
)

// Coulomb is the electrostatic model of a kernel.
type Coulomb int

const (
	CoulombNone Coulomb = iota
	CoulombPlain
	CoulombRF  //reaction field
	CoulombTab //tabulated, usually Ewald real space
	CoulombGB  //plain Coulomb plus generalized Born polarization
	nCoulomb
)

var coulombNames = [...]string{"none", "plain", "rf", "tab", "gb"}

func (c Coulomb) String() string {
	if c < 0 || c >= nCoulomb {
		return fmt.Sprintf("coulomb(%d)", int(c))
	}
	return coulombNames[c]
}

// ParseCoulomb returns the Coulomb model with the given name.
func ParseCoulomb(s string) (Coulomb, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "reaction-field", "reactionfield":
		return CoulombRF, nil
	case "ewald", "pme", "tabulated":
		return CoulombTab, nil
	case "generalized-born":
		return CoulombGB, nil
	}
	for i, v := range coulombNames {
		if v == s {
			return Coulomb(i), nil
		}
	}
	return CoulombNone, fmt.Errorf("nonbonded: unknown Coulomb model %q", s)
}

// Vdw is the van der Waals model of a kernel.
type Vdw int

const (
	VdwNone Vdw = iota
	VdwLJ
	VdwBuckingham
	VdwTab
	nVdw
)

var vdwNames = [...]string{"none", "lj", "buckingham", "tab"}

func (v Vdw) String() string {
	if v < 0 || v >= nVdw {
		return fmt.Sprintf("vdw(%d)", int(v))
	}
	return vdwNames[v]
}

// ParseVdw returns the van der Waals model with the given name.
func ParseVdw(s string) (Vdw, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "lennard-jones", "lennardjones":
		return VdwLJ, nil
	case "buck":
		return VdwBuckingham, nil
	case "tabulated":
		return VdwTab, nil
	}
	for i, v := range vdwNames {
		if v == s {
			return Vdw(i), nil
		}
	}
	return VdwNone, fmt.Errorf("nonbonded: unknown VdW model %q", s)
}

// Params returns the number of parameters per type pair the model reads.
func (v Vdw) Params() int {
	switch v {
	case VdwLJ, VdwTab:
		return 2
	case VdwBuckingham:
		return 3
	}
	return 0
}

// Kind identifies one kernel: a Coulomb model and a VdW model.
type Kind struct {
	Coulomb Coulomb
	Vdw     Vdw
}

// Code returns the classic 3-digit kernel number: Coulomb model in the
// hundreds, VdW model in the tens. Plain Coulomb with tabulated VdW is 130.
func (k Kind) Code() int {
	return 100*int(k.Coulomb) + 10*int(k.Vdw)
}

func (k Kind) String() string {
	return fmt.Sprintf("nb_kernel%03d (coulomb=%s vdw=%s)", k.Code(), k.Coulomb, k.Vdw)
}

// Valid reports whether both models are known.
func (k Kind) Valid() bool {
	return k.Coulomb >= 0 && k.Coulomb < nCoulomb && k.Vdw >= 0 && k.Vdw < nVdw
}

// Kinds returns every supported combination, ordered by Code.
func Kinds() []Kind {
	ret := make([]Kind, 0, int(nCoulomb)*int(nVdw))
	for c := CoulombNone; c < nCoulomb; c++ {
		for v := VdwNone; v < nVdw; v++ {
			ret = append(ret, Kind{c, v})
		}
	}
	return ret
}

/*
 * comm.go, part of nbforce.
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

// Package comm defines the reduction and spread operations that the
// generalized Born code needs from the parallel layer, and implements them
// for one rank and for groups of ranks running in the same process.
//
// All the per-atom buffers are indexed by global atom index, on every rank.
package comm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rmera/nbforce/vmath"
)

// Decomposition is the way the work is split among ranks.
type Decomposition int

const (
	None     Decomposition = iota //a single rank
	Particle                      //every rank holds all atoms, and a share of the pairs
	Domain                        //every rank owns the atoms of a region, plus halo copies
)

func (d Decomposition) String() string {
	switch d {
	case None:
		return "none"
	case Particle:
		return "particle"
	case Domain:
		return "domain"
	}
	return fmt.Sprintf("decomposition(%d)", int(d))
}

// ParseDecomposition returns the decomposition with the given name.
func ParseDecomposition(s string) (Decomposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, nil
	case "particle", "pd":
		return Particle, nil
	case "domain", "dd":
		return Domain, nil
	}
	return None, fmt.Errorf("comm: unknown decomposition %q", s)
}

var (
	ErrClosed = errors.New("comm: group closed")
	ErrMode   = errors.New("comm: operation not available for this decomposition")
)

// Communicator is the view one rank has of the parallel layer.
// All the operations are collective: every rank of the group must call
// them, in the same order, and they block until all ranks have.
type Communicator[T vmath.Real] interface {
	Decomposition() Decomposition
	Rank() int
	Size() int
	//Sum replaces buf, on every rank, by the element-wise sum of the bufs of all ranks.
	Sum(buf []T) error
	//DomainSum adds the halo copies of each atom into its owner's element, and
	//copies the result back to the halo holders.
	DomainSum(buf []T) error
	//Spread copies the owner's element of each atom to the halo holders.
	Spread(buf []T) error
}

// Single is the Communicator of a run with one rank. Everything is a no-op.
type Single[T vmath.Real] struct{}

func (Single[T]) Decomposition() Decomposition { return None }
func (Single[T]) Rank() int                    { return 0 }
func (Single[T]) Size() int                    { return 1 }
func (Single[T]) Sum(buf []T) error            { return nil }
func (Single[T]) DomainSum(buf []T) error      { return nil }
func (Single[T]) Spread(buf []T) error         { return nil }

/*
 * doc.go, part of nbforce.
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

/*
Package nbforce evaluates the nonbonded forces and energies of a molecular
system, once per step, as an integrator needs them.

The work is done by the sub-packages: nblist holds the neighbor lists and the
batch iterator every pair loop uses, nonbonded has the pair kernels for each
Coulomb and Van der Waals combination, gb computes generalized Born radii and
their chain-rule forces, table builds the cubic spline tables, and comm
provides the reductions between ranks. This package puts them together.

	cfg, err := nbforce.ReadConfig("run.toml")
	...
	E, err := nbforce.NewEngine(cfg, system, nil, nil)
	...
	L, err := nbforce.NewBuilder(cfg, system).Build(system.X)
	...
	energies, err := E.Step(L, true)
	forces := E.Output().F

A step with generalized Born runs, in order: the Born radii (reduced over
the ranks), the pair kernel, the Born self energies, the reduction of dE/dR,
and the chain rule.
*/
package nbforce

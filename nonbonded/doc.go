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

// Package nonbonded evaluates pairwise nonbonded interactions over a
// neighbor list.
//
// All the kernels share one template: for each outer entry the shifted
// i position is loaded, and for each of its neighbors the Coulomb term and
// the van der Waals term of the kernel's Kind are added to the energies of
// the entry's group, and fscal*d to the forces of both atoms. The i force
// is also added to the shift force of the entry's shift vector, for the
// virial.
//
// Every kernel has a force variant and an energy-only one. With more than
// one thread, the outer entries are claimed in shrinking chunks (see the
// sched package) and every worker adds to its own copy of the output
// buffers, which are summed into the caller's buffers at the end.
package nonbonded

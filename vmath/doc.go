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
Package vmath contains the numerical primitives shared by the nonbonded kernels
and the generalized Born code: a 4-lane vector type with masks and a Select
operation, reciprocal square root and reciprocal with one Newton-Raphson step
on top of a 12-bit estimate, and polynomial approximations (cephes) to
sin/cos, exp, log, log2 and tanh.

Every function exists in a scalar form and in a 4-lane (Vec4) form. The 4-lane
forms are computed lane by lane with exactly the same operations as the scalar
ones, so a scalar reference and a batched computation give identical bits.

Conditionals are never written as early exits. Both sides are computed and one
of them is picked with Select (or Sel, for scalars), so every lane executes the
same floating point operations.

All the functions are generic on Real, which allows single and double
precision instantiations of the same code. Double precision runs two Newton
steps instead of one.
*/
package vmath

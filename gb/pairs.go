/*
 * pairs.go, part of nbforce.
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
	v "github.com/rmera/nbforce/vmath"
)

// terms are the results of a pair integral for a batch: the contribution
// of each j to the sum of i (ij), of i to the sum of each j (ji), and
// the chain-rule coefficients -(dI/dr)/r for both directions.
type terms[T v.Real] struct {
	ij, ji   v.Vec4[T]
	dij, dji v.Vec4[T]
}

// pairIntegral computes the terms of the atom i and a batch of neighbors j.
// Inactive lanes have j=i and rsq=1, their results are discarded.
// rsq, r and rinv are the squared distance, the distance and its inverse.
type pairIntegral[T v.Real] interface {
	integrate(i int, j *[v.Lanes]int, rsq, r, rinv v.Vec4[T], t *terms[T])
}

// stillPairs is the Still pairwise polarization, with the smooth
// cutoff of the close contacts.
type stillPairs[T v.Real] struct {
	radius []T
	vsolv  []T
}

func (s *stillPairs[T]) integrate(i int, j *[v.Lanes]int, rsq, r, rinv v.Vec4[T], t *terms[T]) {
	one := v.Splat[T](1)
	zero := v.Splat[T](0)
	rvdw := v.Splat(s.radius[i]).Add(v.Gather(s.radius, *j))
	ratio := rsq.Div(rvdw.Mul(rvdw))
	far := ratio.Greater(v.Splat[T](stillP5Inv))
	theta := ratio.Scale(stillPiP5)
	sinq, cosq := v.SinCos4(theta)
	term := one.Sub(cosq).Scale(0.5)
	ccf := v.Select(far, one, term.Mul(term))
	dccf := v.Select(far, zero, term.Scale(2).Mul(sinq).Mul(theta))

	rinv2 := rinv.Mul(rinv)
	rinv4 := rinv2.Mul(rinv2)
	rinv6 := rinv4.Mul(rinv2)
	prodi := StillP4 * s.vsolv[i]
	prodj := v.Gather(s.vsolv, *j).Scale(StillP4)
	icf4 := ccf.Mul(rinv4)
	t.ij = icf4.Mul(prodj)
	t.ji = icf4.Scale(prodi)
	icf6 := ccf.Scale(4).Sub(dccf).Mul(rinv6)
	t.dij = icf6.Mul(prodj)
	t.dji = icf6.Scale(prodi)
}

// overlapPairs is the HCT pairwise descreening integral, shared by HCT and OBC.
type overlapPairs[T v.Real] struct {
	full []T //intrinsic radii
	rr   []T //radius minus the dielectric offset
	sk   []T
}

func (o *overlapPairs[T]) integrate(i int, j *[v.Lanes]int, rsq, r, rinv v.Vec4[T], t *terms[T]) {
	rai := v.Splat(o.rr[i])
	raj := v.Gather(o.rr, *j)
	ski := v.Splat(o.sk[i])
	skj := v.Gather(o.sk, *j)
	contact := v.Splat(o.full[i]).Add(v.Gather(o.full, *j))
	t.ij, t.dij = overlap(rai, skj, r, rinv, contact)
	t.ji, t.dji = overlap(raj, ski, r, rinv, contact)
}

// overlap returns the integral of the descreening of an atom of offset
// radius rai by a sphere of radius sk at a distance r, and its chain-rule
// coefficient -(dI/dr)/r. contact is the sum of the intrinsic radii of
// the pair. Both results are exactly zero if the sphere lies within rai,
// or if r is beyond contact+sk.
func overlap[T v.Real](rai, sk, r, rinv, contact v.Vec4[T]) (integral, chrule v.Vec4[T]) {
	one := v.Splat[T](1)
	raiInv := one.Div(rai)
	active := rai.Less(r.Add(sk)).AndNot(r.Greater(contact.Add(sk)))
	rmsk := r.Sub(sk)
	near := rai.Greater(rmsk)
	lij := v.Select(near, raiInv, one.Div(rmsk))
	dlij := v.Select(near, v.Splat[T](0), one)
	uij := one.Div(r.Add(sk))
	lij2 := lij.Mul(lij)
	lij3 := lij2.Mul(lij)
	uij2 := uij.Mul(uij)
	uij3 := uij2.Mul(uij)
	diff2 := uij2.Sub(lij2)

	sk2rinv := sk.Mul(sk).Mul(rinv)
	prod := sk2rinv.Scale(0.25)
	logterm := v.Log4(uij.Div(lij))

	tmp := lij.Sub(uij)
	tmp = tmp.Add(r.Scale(0.25).Mul(diff2))
	tmp = tmp.Add(rinv.Scale(0.5).Mul(logterm))
	tmp = tmp.Sub(diff2.Mul(prod))
	engulfed := rai.Less(sk.Sub(r))
	tmp = v.Select(engulfed, tmp.Add(raiInv.Sub(lij).Scale(2)), tmp)
	integral = v.Zero(active, tmp.Scale(0.5))

	t1 := lij2.Scale(0.5).Add(prod.Mul(lij3)).Sub(lij.Mul(rinv).Add(lij3.Mul(r)).Scale(0.25))
	t2 := uij2.Scale(-0.5).Sub(sk2rinv.Scale(0.25).Mul(uij3)).Add(uij.Mul(rinv).Add(uij3.Mul(r)).Scale(0.25))
	t3 := one.Add(sk2rinv.Mul(rinv)).Scale(0.125).Mul(diff2.Neg()).Add(logterm.Mul(rinv).Mul(rinv).Scale(0.25))
	chrule = v.Zero(active, dlij.Mul(t1).Add(t2).Add(t3).Mul(rinv))
	return integral, chrule
}

// finalizer turns the reduced work sum of an atom into its Born radius,
// and dE/dR into the weight of the chain rule.
type finalizer[T v.Real] interface {
	radius(i int, work T) (born, drobc T)
	//weights replaces rb, which holds dE/dR, by the chain-rule weights.
	weights(rb, born, drobc []T)
	spreadDrobc() bool
}

type stillRadius[T v.Real] struct {
	gpol   []T
	epsfac T
}

func (s *stillRadius[T]) radius(i int, work T) (T, T) {
	gpi := s.gpol[i] + work
	if gpi < 0 {
		gpi = -gpi
	}
	return 0.5 * s.epsfac / gpi, 0
}

func (s *stillRadius[T]) weights(rb, born, _ []T) {
	v.MulTo(rb, born)
	v.MulTo(rb, born)
	v.ScaleTo(rb, 2/s.epsfac)
}

func (s *stillRadius[T]) spreadDrobc() bool { return false }

type hctRadius[T v.Real] struct {
	rr     []T
	offset T
}

func (h *hctRadius[T]) radius(i int, work T) (T, T) {
	rr := h.rr[i]
	rad := 1 / (1/rr - work)
	return max(rad, rr+h.offset), 0
}

func (h *hctRadius[T]) weights(rb, born, _ []T) {
	v.MulTo(rb, born)
	v.MulTo(rb, born)
}

func (h *hctRadius[T]) spreadDrobc() bool { return false }

type obcRadius[T v.Real] struct {
	full []T //intrinsic radii
	rr   []T
	p    Params[T]
}

func (o *obcRadius[T]) radius(i int, work T) (T, T) {
	rad := o.full[i]
	rr := o.rr[i]
	sum := rr * work
	sum2 := sum * sum
	sum3 := sum2 * sum
	tsum := v.Tanh(o.p.Alpha*sum - o.p.Beta*sum2 + o.p.Gamma*sum3)
	born := 1 / (1/rr - tsum/rad)
	tchain := rr * (o.p.Alpha - 2*o.p.Beta*sum + 3*o.p.Gamma*sum2)
	return born, (1 - tsum*tsum) * tchain / rad
}

func (o *obcRadius[T]) weights(rb, born, drobc []T) {
	v.MulTo(rb, born)
	v.MulTo(rb, born)
	v.MulTo(rb, drobc)
}

func (o *obcRadius[T]) spreadDrobc() bool { return true }

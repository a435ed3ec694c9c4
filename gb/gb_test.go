package gb

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/rmera/nbforce/comm"
	"github.com/rmera/nbforce/nblist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func tol(v, rel float64) float64 {
	return rel * math.Max(1, math.Abs(v))
}

// spy is a particle-decomposition communicator of one rank that keeps
// a copy of what it was asked to reduce.
type spy[T float32 | float64] struct {
	comm.Single[T]
	seen []T
}

func (s *spy[T]) Decomposition() comm.Decomposition { return comm.Particle }
func (s *spy[T]) Sum(buf []T) error {
	s.seen = slices.Clone(buf)
	return nil
}

// Still ccf and the pair term prod*ccf/r^4, by hand.
func stillPair(ri, rj, vj, r float64) float64 {
	ratio := r * r / ((ri + rj) * (ri + rj))
	ccf := 1.0
	if ratio <= 1/StillP5 {
		theta := ratio * math.Pi * StillP5
		term := 0.5 * (1 - math.Cos(theta))
		ccf = term * term
	}
	return StillP4 * vj * ccf / math.Pow(r, 4)
}

// Four atoms in a line, 0.2 nm apart, with a single outer entry.
func TestStillLine(Te *testing.T) {
	fmt.Println("Still line test!")
	p := DefaultParams[float32]()
	radius := []float32{0.15, 0.15, 0.15, 0.15}
	a := NewStillAtoms(radius, p)
	E, err := NewEngine(Still, p, a, 1)
	require.NoError(Te, err)
	L := &nblist.List{Jindex: []int{0}}
	L.Add(0, nblist.CentralShift, 0, 1, 2, 3)
	x := []float32{0, 0, 0, 0.2, 0, 0, 0.4, 0, 0, 0.6, 0, 0}
	sv := nblist.ShiftVectors([3]float32{})
	s := &spy[float32]{}
	require.NoError(Te, E.CalcRadii(L, x, sv, s))

	v := float64(a.Vsolv[0])
	want := 0.0
	for j := 1; j <= 3; j++ {
		want += stillPair(0.15, 0.15, v, 0.2*float64(j))
	}
	assert.InEpsilon(Te, want, float64(s.seen[0]), 1e-5)
	for j := 1; j <= 3; j++ {
		assert.InEpsilon(Te, stillPair(0.15, 0.15, v, 0.2*float64(j)), float64(s.seen[j]), 1e-5)
	}
	//the no-op reduction leaves the sums as they were
	assert.Equal(Te, s.seen, E.Work)
	for i := range radius {
		gpi := float64(a.GPol[i]) + float64(E.Work[i])
		assert.InEpsilon(Te, 0.5*Epsfac/math.Abs(gpi), float64(E.BornRadius[i]), 1e-5)
		assert.InEpsilon(Te, 1/math.Sqrt(float64(E.BornRadius[i])), float64(E.InvSqrtA[i]), 1e-5)
	}
	//a nil communicator is a single rank.
	E2, _ := NewEngine(Still, p, a, 1)
	require.NoError(Te, E2.CalcRadii(L, x, sv, nil))
	assert.Equal(Te, E.BornRadius, E2.BornRadius)
}

func TestFarApart(Te *testing.T) {
	for _, m := range []Model{HCT, OBC} {
		p := DefaultParams[float32]()
		a := NewOverlapAtoms([]float32{0.15, 0.17, 0.2}, []float32{0.8, 0.85, 0.72}, p)
		E, err := NewEngine(m, p, a, 1)
		require.NoError(Te, err)
		L := nblist.BuildAllPairs(3)
		//atom 2 is far from the others, 0 and 1 overlap
		x := []float32{0, 0, 0, 0.3, 0, 0, 5, 5, 5}
		require.NoError(Te, E.CalcRadii(L, x, nblist.ShiftVectors([3]float32{}), nil))
		assert.Zero(Te, E.Work[2], m.String())
		assert.Greater(Te, E.Work[0], float32(0))
		assert.Greater(Te, E.Work[1], float32(0))
		//pairs 0-2 and 1-2 are in slots 1, 3 (outer 0) and 4, 5 (outer 1)
		for _, s := range []int{1, 3, 4, 5} {
			assert.Zero(Te, E.Dadx[s], "%s slot %d", m, s)
		}
		assert.NotZero(Te, E.Dadx[0])
		assert.NotZero(Te, E.Dadx[2])
		//with no descreening HCT is clamped at the intrinsic radius, OBC gives the offset one.
		want := 0.2
		if m == OBC {
			want = 0.2 - 0.009
		}
		assert.InEpsilon(Te, want, float64(E.BornRadius[2]), 1e-6)
		assert.Greater(Te, E.BornRadius[0], float32(0.15-0.009))

		//two atoms around the contact distance plus the descreening radius
		p2 := DefaultParams[float64]()
		a2 := NewOverlapAtoms([]float64{0.15, 0.15}, []float64{0.8, 0.8}, p2)
		reach := 0.3 + a2.Sk[0]
		for _, r := range []float64{reach - 0.01, reach + 0.01, 2.0} {
			E2, err := NewEngine(m, p2, a2, 1)
			require.NoError(Te, err)
			L2 := nblist.BuildAllPairs(2)
			require.NoError(Te, E2.CalcRadii(L2, []float64{0, 0, 0, r, 0, 0}, nblist.ShiftVectors([3]float64{}), nil))
			if r < reach {
				assert.Greater(Te, E2.Work[0], 0.0, "%s r=%g", m, r)
				assert.NotZero(Te, E2.Dadx[0], "%s r=%g", m, r)
				continue
			}
			assert.Equal(Te, []float64{0, 0}, E2.Work, "%s r=%g", m, r)
			assert.Equal(Te, []float64{0, 0}, E2.Dadx, "%s r=%g", m, r)
		}
	}
	_, err := ParseModel("gbsa")
	assert.Error(Te, err)
}

type sys struct {
	x      []float64
	radius []float64
	scale  []float64
	list   *nblist.List
	sv     []float64
}

func newSys(n int, seed uint64) *sys {
	r := rand.New(rand.NewPCG(seed, 17))
	s := &sys{sv: nblist.ShiftVectors([3]float64{})}
	for i := 0; i < n; i++ {
		s.x = append(s.x, 0.3*float64(i%3)+0.03*r.Float64(), 0.3*float64((i/3)%3)+0.03*r.Float64(), 0.3*float64(i/9)+0.03*r.Float64())
		s.radius = append(s.radius, 0.13+0.06*r.Float64())
		s.scale = append(s.scale, 0.7+0.2*r.Float64())
	}
	s.list = nblist.BuildAllPairs(n)
	return s
}

func engine(Te *testing.T, m Model, s *sys, p Params[float64], threads int) *Engine[float64] {
	var a *Atoms[float64]
	if m == Still {
		a = NewStillAtoms(s.radius, p)
	} else {
		a = NewOverlapAtoms(s.radius, s.scale, p)
	}
	E, err := NewEngine(m, p, a, threads)
	require.NoError(Te, err)
	return E
}

// reference returns the Still or overlap terms of one pair, without vectors.
func reference(m Model, E *Engine[float64], i, j int, r float64) (gij, gji, dij, dji float64) {
	if m == Still {
		a := E.Atoms
		ri, rj := a.Radius[i], a.Radius[j]
		ratio := r * r / ((ri + rj) * (ri + rj))
		ccf, dccf := 1.0, 0.0
		if ratio <= 1/StillP5 {
			theta := ratio * math.Pi * StillP5
			term := 0.5 * (1 - math.Cos(theta))
			ccf = term * term
			dccf = 2 * term * math.Sin(theta) * theta
		}
		pi, pj := StillP4*a.Vsolv[i], StillP4*a.Vsolv[j]
		return ccf * pj / math.Pow(r, 4), ccf * pi / math.Pow(r, 4), (4*ccf - dccf) * pj / math.Pow(r, 6), (4*ccf - dccf) * pi / math.Pow(r, 6)
	}
	off := E.Params.DielectricOffset
	ri, rj := E.Atoms.Radius[i], E.Atoms.Radius[j]
	gij, dij = overlapRef(ri-off, E.Atoms.Sk[j], r, ri+rj)
	gji, dji = overlapRef(rj-off, E.Atoms.Sk[i], r, ri+rj)
	return
}

func overlapRef(rai, sk, r, contact float64) (float64, float64) {
	if rai >= r+sk || r > contact+sk {
		return 0, 0
	}
	lij, dlij := 1/rai, 0.0
	if rai <= r-sk {
		lij, dlij = 1/(r-sk), 1
	}
	uij := 1 / (r + sk)
	diff2 := uij*uij - lij*lij
	prod := 0.25 * sk * sk / r
	lt := math.Log(uij / lij)
	tmp := lij - uij + 0.25*r*diff2 + 0.5*lt/r - diff2*prod
	if rai < sk-r {
		tmp += 2 * (1/rai - lij)
	}
	l3, u3 := lij*lij*lij, uij*uij*uij
	t1 := 0.5*lij*lij + prod*l3 - 0.25*(lij/r+l3*r)
	t2 := -0.5*uij*uij - 0.25*sk*sk/r*u3 + 0.25*(uij/r+u3*r)
	t3 := 0.125*(1+sk*sk/(r*r))*(-diff2) + 0.25*lt/(r*r)
	return 0.5 * tmp, (dlij*t1 + t2 + t3) / r
}

// The coefficients written by the radius pass must be read back, pair by pair,
// as the closed forms give them. Two atoms, and five atoms for full and partial batches.
func TestDadxRoundTrip(Te *testing.T) {
	fmt.Println("dadx round trip test!")
	for _, n := range []int{2, 5} {
		for _, m := range []Model{Still, HCT, OBC} {
			s := newSys(n, uint64(n))
			E := engine(Te, m, s, DefaultParams[float64](), 1)
			require.NoError(Te, E.CalcRadii(s.list, s.x, s.sv, nil))
			dvda := make([]float64, n)
			for i := range dvda {
				dvda[i] = 0.1 * float64(i+1)
			}
			f := make([]float64, 3*n)
			require.NoError(Te, E.ChainRule(s.x, s.sv, dvda, f))
			rb := slices.Clone(E.Rb)
			fref := make([]float64, 3*n)
			L := s.list
			for o := 0; o < L.Nri(); o++ {
				i := L.Iinr[o]
				j0, j1 := L.Jindex[o], L.Jindex[o+1]
				for k := j0; k < j1; k++ {
					j := L.Jjnr[k]
					start := j0 + 4*((k-j0)/4)
					count := min(4, j1-start)
					lane := k - start
					var d [3]float64
					for c := range d {
						d[c] = s.x[3*i+c] - s.x[3*j+c]
					}
					r := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
					_, _, dij, dji := reference(m, E, i, j, r)
					gotij := E.Dadx[2*start+lane]
					gotji := E.Dadx[2*start+count+lane]
					assert.InDelta(Te, dij, gotij, tol(dij, 1e-5), "%s n=%d pair %d-%d", m, n, i, j)
					assert.InDelta(Te, dji, gotji, tol(dji, 1e-5), "%s n=%d pair %d-%d", m, n, j, i)
					fgb := rb[i]*dij + rb[j]*dji
					for c := range d {
						fref[3*i+c] += fgb * d[c]
						fref[3*j+c] -= fgb * d[c]
					}
				}
			}
			for c, v := range fref {
				assert.InDelta(Te, v, f[c], tol(v, 1e-5), "%s n=%d force %d", m, n, c)
			}
		}
	}
}

// With dvda=c, the chain rule must give minus the gradient of sum(c_i*R_i).
func TestChainRuleFiniteDifferences(Te *testing.T) {
	fmt.Println("GB chain rule finite differences!")
	s := newSys(14, 3)
	n := len(s.radius)
	c := make([]float64, n)
	for i := range c {
		c[i] = 0.5 + 0.1*float64(i%4)
	}
	p := DefaultParams[float64]()
	p.DielectricOffset = 0 //so HCT radii are never clamped
	for _, m := range []Model{Still, HCT, OBC} {
		E := engine(Te, m, s, p, 1)
		require.NoError(Te, E.CalcRadii(s.list, s.x, s.sv, nil))
		f := make([]float64, 3*n)
		require.NoError(Te, E.ChainRule(s.x, s.sv, c, f))
		energy := func() float64 {
			require.NoError(Te, E.CalcRadii(s.list, s.x, s.sv, nil))
			e := 0.0
			for i, r := range E.BornRadius {
				e += c[i] * r
			}
			return e
		}
		const h = 1e-6
		for _, k := range []int{0, 5, 10, 19, 27, 41} {
			orig := s.x[k]
			s.x[k] = orig + h
			up := energy()
			s.x[k] = orig - h
			down := energy()
			s.x[k] = orig
			fd := -(up - down) / (2 * h)
			assert.InDelta(Te, fd, f[k], tol(fd, 1e-4), "%s coordinate %d", m, k)
		}
	}
}

func TestParallel(Te *testing.T) {
	fmt.Println("GB threads and ranks test!")
	s := newSys(27, 9)
	n := len(s.radius)
	dvda := make([]float64, n)
	for i := range dvda {
		dvda[i] = math.Sin(float64(i))
	}
	for _, m := range []Model{Still, HCT, OBC} {
		ref := engine(Te, m, s, DefaultParams[float64](), 1)
		require.NoError(Te, ref.CalcRadii(s.list, s.x, s.sv, nil))
		fref := make([]float64, 3*n)
		require.NoError(Te, ref.ChainRule(s.x, s.sv, dvda, fref))

		//threads
		E := engine(Te, m, s, DefaultParams[float64](), 4)
		require.NoError(Te, E.CalcRadii(s.list, s.x, s.sv, nil))
		assert.Equal(Te, ref.Dadx, E.Dadx)
		for i, v := range ref.BornRadius {
			assert.InDelta(Te, v, E.BornRadius[i], tol(v, 1e-12))
		}
		f := make([]float64, 3*n)
		require.NoError(Te, E.ChainRule(s.x, s.sv, dvda, f))
		for i, v := range fref {
			assert.InDelta(Te, v, f[i], tol(v, 1e-10))
		}

		//particle decomposition: ranks take alternate outer entries.
		const size = 3
		group := comm.NewParticleGroup[float64](size)
		forces := make([][]float64, size)
		engines := make([]*Engine[float64], size)
		var eg errgroup.Group
		for r := range size {
			engines[r] = engine(Te, m, s, DefaultParams[float64](), 2)
			forces[r] = make([]float64, 3*n)
			L := s.list.Select(func(o int) bool { return o%size == r })
			eg.Go(func() error {
				if err := engines[r].CalcRadii(L, s.x, s.sv, group[r]); err != nil {
					return err
				}
				return engines[r].ChainRule(s.x, s.sv, dvda, forces[r])
			})
		}
		require.NoError(Te, eg.Wait())
		total := make([]float64, 3*n)
		for r := range size {
			for i, v := range ref.BornRadius {
				assert.InDelta(Te, v, engines[r].BornRadius[i], tol(v, 1e-12), "%s rank %d", m, r)
			}
			for i, v := range forces[r] {
				total[i] += v
			}
		}
		for i, v := range fref {
			assert.InDelta(Te, v, total[i], tol(v, 1e-10))
		}

		//domain decomposition: atoms owned by parity, each rank takes the entries of its atoms.
		owner := make([]int, n)
		for i := range owner {
			owner[i] = i % 2
		}
		lists := make([]*nblist.List, 2)
		halo := make([][]int, 2)
		for r := range 2 {
			lists[r] = s.list.Select(func(o int) bool { return owner[s.list.Iinr[o]] == r })
			seen := map[int]bool{}
			for _, j := range lists[r].Jjnr {
				if owner[j] != r && !seen[j] {
					seen[j] = true
					halo[r] = append(halo[r], j)
				}
			}
		}
		dgroup, err := comm.NewDomainGroup[float64](owner, halo)
		require.NoError(Te, err)
		dengines := make([]*Engine[float64], 2)
		for r := range 2 {
			dengines[r] = engine(Te, m, s, DefaultParams[float64](), 1)
			eg.Go(func() error { return dengines[r].CalcRadii(lists[r], s.x, s.sv, dgroup[r]) })
		}
		require.NoError(Te, eg.Wait())
		for r := range 2 {
			local := append([]int{}, halo[r]...)
			for i := range owner {
				if owner[i] == r {
					local = append(local, i)
				}
			}
			for _, i := range local {
				v := ref.BornRadius[i]
				assert.InDelta(Te, v, dengines[r].BornRadius[i], tol(v, 1e-12), "%s domain rank %d atom %d", m, r, i)
				if m == OBC {
					assert.InDelta(Te, ref.Drobc[i], dengines[r].Drobc[i], tol(ref.Drobc[i], 1e-12))
				}
			}
		}
	}
}

func TestEngineErrors(Te *testing.T) {
	p := DefaultParams[float32]()
	_, err := NewEngine(Still, p, &Atoms[float32]{Radius: []float32{0.1, 0.2}}, 1)
	assert.Error(Te, err)
	_, err = NewEngine(HCT, p, &Atoms[float32]{Radius: []float32{0.1}, Sk: []float32{}}, 1)
	assert.Error(Te, err)
	_, err = NewEngine(Model(7), p, &Atoms[float32]{}, 1)
	assert.Error(Te, err)
	E, err := NewEngine(HCT, p, NewOverlapAtoms([]float32{0.1}, []float32{0.8}, p), 1)
	require.NoError(Te, err)
	assert.ErrorIs(Te, E.ChainRule(nil, nil, nil, nil), ErrNoRadii)
}

func TestSelfEnergy(Te *testing.T) {
	dvda := make([]float64, 2)
	e := SelfEnergy([]float64{1, -0.5}, []float64{0.2, 0.25}, 100, dvda)
	assert.InDelta(Te, -0.5*100*(1/0.2+0.25/0.25), e, 1e-12)
	assert.InDelta(Te, 0.5*100/0.04, dvda[0], 1e-12)
	assert.InDelta(Te, 0.5*100*0.25/0.0625, dvda[1], 1e-12)
	assert.InDelta(Te, 4.0/3.0*math.Pi*0.001, SphereVolume(0.1), 1e-15)
	assert.InDelta(Te, (0.2-0.009)*0.8, ScaledRadius(0.2, 0.009, 0.8), 1e-15)
}

package softbody

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/mesh"
)

func TestTopologyRestState(t *testing.T) {
	m := mesh.FacePair()
	topo, _, err := newTopology(m, 1000)
	if err != nil {
		t.Fatalf("newTopology: %v", err)
	}

	for e := 0; e < topo.numElements(); e++ {
		ids := topo.tetIds[4*e : 4*e+4]
		p0 := m.Vertex(ids[0])
		edges := [3]r3.Vec{
			r3.Sub(m.Vertex(ids[1]), p0),
			r3.Sub(m.Vertex(ids[2]), p0),
			r3.Sub(m.Vertex(ids[3]), p0),
		}

		// Inverse rest pose rows must invert the rest edge matrix.
		for k := 0; k < 3; k++ {
			for j := 0; j < 3; j++ {
				got := r3.Dot(topo.invRestPose[e][k], edges[j])
				want := 0.0
				if k == j {
					want = 1
				}
				if math.Abs(got-want) > 1e-12 {
					t.Errorf("element %d: row %d . edge %d = %v, want %v", e, k, j, got, want)
				}
			}
		}

		vol := mesh.TetVolume(m.Vertex(ids[0]), m.Vertex(ids[1]), m.Vertex(ids[2]), m.Vertex(ids[3]))
		if math.Abs(topo.restVol[e]-vol) > 1e-15 {
			t.Errorf("element %d: restVol = %v, want %v", e, topo.restVol[e], vol)
		}
		if math.Abs(topo.invRestVol[e]*vol-1) > 1e-12 {
			t.Errorf("element %d: invRestVol*vol = %v, want 1", e, topo.invRestVol[e]*vol)
		}

		// Centered rest shape sums to zero.
		sum := r3.Add(r3.Add(topo.restShape[e][0], topo.restShape[e][1]),
			r3.Add(topo.restShape[e][2], topo.restShape[e][3]))
		if r3.Norm(sum) > 1e-12 {
			t.Errorf("element %d: centered rest shape sums to %v", e, sum)
		}

		// At rest the deformation gradient is the identity.
		f0, f1, f2 := topo.deformation(restPositions(m), e)
		if r3.Norm(r3.Sub(f0, r3.Vec{X: 1})) > 1e-12 ||
			r3.Norm(r3.Sub(f1, r3.Vec{Y: 1})) > 1e-12 ||
			r3.Norm(r3.Sub(f2, r3.Vec{Z: 1})) > 1e-12 {
			t.Errorf("element %d: rest deformation gradient not identity: %v %v %v", e, f0, f1, f2)
		}
	}
}

func TestTopologyMassAccumulation(t *testing.T) {
	const density = 1000.0
	m := mesh.FacePair()
	topo, invMass, err := newTopology(m, density)
	if err != nil {
		t.Fatalf("newTopology: %v", err)
	}

	want := make([]float64, m.NumVertices())
	for e := 0; e < topo.numElements(); e++ {
		ids := topo.tetIds[4*e : 4*e+4]
		vol := mesh.TetVolume(m.Vertex(ids[0]), m.Vertex(ids[1]), m.Vertex(ids[2]), m.Vertex(ids[3]))
		share := vol * density / 4
		for _, id := range ids {
			want[id] += share
		}
	}
	for i, mass := range want {
		if mass == 0 {
			t.Fatalf("particle %d: test mesh leaves zero mass", i)
		}
		if got := invMass[i]; math.Abs(got*mass-1) > 1e-12 {
			t.Errorf("particle %d: invMass = %v, want 1/%v", i, got, mass)
		}
	}

	// Shared face corners carry two shares, apexes one.
	if invMass[0] >= invMass[3] {
		t.Errorf("shared particle should be heavier: invMass[0]=%v invMass[3]=%v", invMass[0], invMass[3])
	}
}

func TestTopologyUnreferencedParticlePinned(t *testing.T) {
	m := mesh.RegularTet(1)
	m.Vertices = append(m.Vertices, 5, 5, 5)
	_, invMass, err := newTopology(m, 1000)
	if err != nil {
		t.Fatalf("newTopology: %v", err)
	}
	if invMass[4] != 0 {
		t.Errorf("unreferenced particle invMass = %v, want 0", invMass[4])
	}
	for i := 0; i < 4; i++ {
		if invMass[i] == 0 {
			t.Errorf("referenced particle %d has zero invMass", i)
		}
	}
}

func TestTopologyDegenerateElement(t *testing.T) {
	cases := []struct {
		name     string
		vertices []float64
		tetIds   []int32
	}{
		{
			name:     "coplanar",
			vertices: []float64{0, 0, 0, 1, 0, 0, 0, 0, 1, 1, 0, 1},
			tetIds:   []int32{0, 1, 2, 3},
		},
		{
			name:     "negative winding",
			vertices: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
			tetIds:   []int32{0, 2, 1, 3},
		},
		{
			name:     "duplicate corner",
			vertices: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
			tetIds:   []int32{0, 1, 1, 3},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := mesh.TetMesh{Vertices: tc.vertices, TetIds: tc.tetIds}
			_, _, err := newTopology(m, 1000)
			if !errors.Is(err, ErrDegenerateElement) {
				t.Fatalf("err = %v, want ErrDegenerateElement", err)
			}
		})
	}
}

func TestTopologyRejectsBadDensity(t *testing.T) {
	for _, density := range []float64{0, -1} {
		if _, _, err := newTopology(mesh.RegularTet(1), density); err == nil {
			t.Errorf("density %v: expected error", density)
		}
	}
}

func restPositions(m mesh.TetMesh) []r3.Vec {
	pos := make([]r3.Vec, m.NumVertices())
	for i := range pos {
		pos[i] = m.Vertex(int32(i))
	}
	return pos
}

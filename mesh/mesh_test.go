package mesh

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       TetMesh
		wantErr bool
	}{
		{
			name:    "valid single tet",
			m:       RegularTet(1),
			wantErr: false,
		},
		{
			name:    "ragged vertex array",
			m:       TetMesh{Vertices: []float64{0, 0}},
			wantErr: true,
		},
		{
			name:    "ragged tet array",
			m:       TetMesh{Vertices: []float64{0, 0, 0}, TetIds: []int32{0, 0, 0}},
			wantErr: true,
		},
		{
			name:    "tet index out of range",
			m:       TetMesh{Vertices: []float64{0, 0, 0}, TetIds: []int32{0, 0, 0, 5}},
			wantErr: true,
		},
		{
			name:    "negative tet index",
			m:       TetMesh{Vertices: []float64{0, 0, 0}, TetIds: []int32{0, 0, 0, -1}},
			wantErr: true,
		},
		{
			name:    "edge index out of range",
			m:       TetMesh{Vertices: []float64{0, 0, 0}, EdgeIds: []int32{0, 3}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadTopology) {
				t.Errorf("Validate() error = %v, want ErrBadTopology", err)
			}
		})
	}
}

func TestTetVolume(t *testing.T) {
	a := r3.Vec{}
	b := r3.Vec{X: 1}
	c := r3.Vec{Y: 1}
	d := r3.Vec{Z: 1}

	got := TetVolume(a, b, c, d)
	if math.Abs(got-1.0/6.0) > 1e-12 {
		t.Errorf("TetVolume(unit corner tet) = %v, want %v", got, 1.0/6.0)
	}

	// Swapping two corners flips the sign.
	if got := TetVolume(a, c, b, d); math.Abs(got+1.0/6.0) > 1e-12 {
		t.Errorf("TetVolume(swapped) = %v, want %v", got, -1.0/6.0)
	}
}

func TestEdgesFromTets(t *testing.T) {
	tests := []struct {
		name      string
		tetIds    []int32
		wantEdges int
	}{
		{"single tet", []int32{0, 1, 2, 3}, 6},
		{"face pair shares three edges", FacePair().TetIds, 9},
		{"duplicate tets collapse", []int32{0, 1, 2, 3, 0, 1, 2, 3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := EdgesFromTets(tt.tetIds)
			if len(edges)%2 != 0 {
				t.Fatalf("edge array length %d is odd", len(edges))
			}
			if got := len(edges) / 2; got != tt.wantEdges {
				t.Errorf("got %d edges, want %d", got, tt.wantEdges)
			}
			seen := make(map[[2]int32]bool)
			for i := 0; i < len(edges); i += 2 {
				a, b := edges[i], edges[i+1]
				if a > b {
					a, b = b, a
				}
				if seen[[2]int32{a, b}] {
					t.Errorf("duplicate edge (%d,%d)", a, b)
				}
				seen[[2]int32{a, b}] = true
			}
		})
	}
}

func TestSurfaceTriangles(t *testing.T) {
	tests := []struct {
		name     string
		m        TetMesh
		wantTris int
	}{
		{"single tet", RegularTet(1), 4},
		{"face pair hides shared face", FacePair(), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := SurfaceTriangles(tt.m.TetIds)
			if got := len(tris) / 3; got != tt.wantTris {
				t.Fatalf("got %d surface triangles, want %d", got, tt.wantTris)
			}

			// Every boundary normal must point away from the mesh centroid.
			center := tt.m.Center()
			for i := 0; i < len(tris); i += 3 {
				a := tt.m.Vertex(tris[i])
				b := tt.m.Vertex(tris[i+1])
				c := tt.m.Vertex(tris[i+2])
				n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
				mid := r3.Scale(1.0/3.0, r3.Add(a, r3.Add(b, c)))
				if r3.Dot(n, r3.Sub(mid, center)) <= 0 {
					t.Errorf("triangle %d normal points inward", i/3)
				}
			}
		})
	}
}

func TestTranslated(t *testing.T) {
	m := RegularTet(1)
	d := r3.Vec{X: 1, Y: 2, Z: 3}
	moved := m.Translated(d)

	for i := int32(0); i < int32(m.NumVertices()); i++ {
		want := r3.Add(m.Vertex(i), d)
		got := moved.Vertex(i)
		if r3.Norm(r3.Sub(got, want)) > 1e-12 {
			t.Errorf("vertex %d = %v, want %v", i, got, want)
		}
	}
	if &moved.Vertices[0] == &m.Vertices[0] {
		t.Error("Translated() must copy the vertex array")
	}
}

func TestRegularTet(t *testing.T) {
	m := RegularTet(2)
	if m.NumVertices() != 4 || m.NumTets() != 1 {
		t.Fatalf("got %d vertices, %d tets", m.NumVertices(), m.NumTets())
	}

	vol := TetVolume(m.Vertex(0), m.Vertex(1), m.Vertex(2), m.Vertex(3))
	if vol <= 0 {
		t.Errorf("volume = %v, want positive", vol)
	}

	for i := 0; i < len(m.EdgeIds); i += 2 {
		l := r3.Norm(r3.Sub(m.Vertex(m.EdgeIds[i]), m.Vertex(m.EdgeIds[i+1])))
		if math.Abs(l-2) > 1e-12 {
			t.Errorf("edge %d length = %v, want 2", i/2, l)
		}
	}
}

func TestFacePair(t *testing.T) {
	m := FacePair()
	if m.NumVertices() != 5 || m.NumTets() != 2 {
		t.Fatalf("got %d vertices, %d tets, want 5 and 2", m.NumVertices(), m.NumTets())
	}
	for e := 0; e < m.NumTets(); e++ {
		ids := m.TetIds[4*e : 4*e+4]
		vol := TetVolume(m.Vertex(ids[0]), m.Vertex(ids[1]), m.Vertex(ids[2]), m.Vertex(ids[3]))
		if vol <= 0 {
			t.Errorf("tet %d volume = %v, want positive", e, vol)
		}
	}
}

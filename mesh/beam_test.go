package mesh

import (
	"math"
	"testing"
)

func TestBeamCounts(t *testing.T) {
	tests := []struct {
		name       string
		nx, ny, nz int
		wantVerts  int
		wantTets   int
	}{
		{"single cell", 1, 1, 1, 8, 6},
		{"bar", 4, 1, 1, 20, 24},
		{"slab", 2, 2, 1, 18, 24},
		{"block", 3, 2, 2, 36, 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Beam(tt.nx, tt.ny, tt.nz, 0.25)
			if m.NumVertices() != tt.wantVerts {
				t.Errorf("got %d vertices, want %d", m.NumVertices(), tt.wantVerts)
			}
			if m.NumTets() != tt.wantTets {
				t.Errorf("got %d tets, want %d", m.NumTets(), tt.wantTets)
			}
			if err := m.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestBeamPositiveVolumes(t *testing.T) {
	const cell = 0.5
	m := Beam(3, 2, 2, cell)

	wantVol := cell * cell * cell / 6
	var total float64
	for e := 0; e < m.NumTets(); e++ {
		ids := m.TetIds[4*e : 4*e+4]
		vol := TetVolume(m.Vertex(ids[0]), m.Vertex(ids[1]), m.Vertex(ids[2]), m.Vertex(ids[3]))
		if vol <= 0 {
			t.Fatalf("tet %d volume = %v, want positive", e, vol)
		}
		if math.Abs(vol-wantVol) > 1e-12 {
			t.Errorf("tet %d volume = %v, want %v", e, vol, wantVol)
		}
		total += vol
	}

	// Six tets tile each cell exactly.
	wantTotal := 3 * 2 * 2 * cell * cell * cell
	if math.Abs(total-wantTotal) > 1e-9 {
		t.Errorf("total volume = %v, want %v", total, wantTotal)
	}
}

func TestBeamEdgesAndSurface(t *testing.T) {
	m := Beam(1, 1, 1, 1)

	// A single Kuhn cell has 12 cube edges, 6 face diagonals and the
	// main diagonal.
	if got := len(m.EdgeIds) / 2; got != 19 {
		t.Errorf("got %d edges, want 19", got)
	}

	// Every cube face splits into two boundary triangles.
	tris := SurfaceTriangles(m.TetIds)
	if got := len(tris) / 3; got != 12 {
		t.Errorf("got %d surface triangles, want 12", got)
	}
}

func TestBeamSharedFacesInterior(t *testing.T) {
	// Two cells side by side: the wall at x=1 is interior and must not leak
	// onto the surface.
	m := Beam(2, 1, 1, 1)
	tris := SurfaceTriangles(m.TetIds)

	if got := len(tris) / 3; got != 20 {
		t.Errorf("got %d surface triangles, want 20", got)
	}
	for i := 0; i < len(tris); i += 3 {
		a := m.Vertex(tris[i])
		b := m.Vertex(tris[i+1])
		c := m.Vertex(tris[i+2])
		if a.X == 1 && b.X == 1 && c.X == 1 {
			t.Fatalf("triangle %d lies in the shared wall", i/3)
		}
	}
}

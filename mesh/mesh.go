// Package mesh defines the tetrahedral mesh data consumed by the softbody
// solver and provides procedural generators for demo and test geometry.
// Meshes produced by external tetrahedralization tools can be fed in through
// the same TetMesh struct.
package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrBadTopology reports a structurally invalid mesh (ragged arrays or
// out-of-range indices). Degenerate element geometry is diagnosed later,
// at body construction.
var ErrBadTopology = errors.New("mesh: malformed topology")

// TetMesh is the input topology for a soft body.
// Vertices holds xyz triples, TetIds corner quadruples with consistent
// positive winding, EdgeIds vertex pairs used only for wireframe rendering.
type TetMesh struct {
	Vertices []float64
	TetIds   []int32
	EdgeIds  []int32
}

// NumVertices returns the particle count.
func (m TetMesh) NumVertices() int { return len(m.Vertices) / 3 }

// NumTets returns the element count.
func (m TetMesh) NumTets() int { return len(m.TetIds) / 4 }

// Vertex returns vertex i as a vector.
func (m TetMesh) Vertex(i int32) r3.Vec {
	return r3.Vec{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

// Validate checks array shapes and index ranges.
func (m TetMesh) Validate() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("%w: vertex array length %d is not a multiple of 3", ErrBadTopology, len(m.Vertices))
	}
	if len(m.TetIds)%4 != 0 {
		return fmt.Errorf("%w: tet index array length %d is not a multiple of 4", ErrBadTopology, len(m.TetIds))
	}
	if len(m.EdgeIds)%2 != 0 {
		return fmt.Errorf("%w: edge index array length %d is not a multiple of 2", ErrBadTopology, len(m.EdgeIds))
	}
	n := int32(m.NumVertices())
	for i, id := range m.TetIds {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: tet %d corner %d references vertex %d of %d", ErrBadTopology, i/4, i%4, id, n)
		}
	}
	for i, id := range m.EdgeIds {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: edge %d references vertex %d of %d", ErrBadTopology, i/2, id, n)
		}
	}
	return nil
}

// Translated returns a copy of the mesh with every vertex offset by d.
func (m TetMesh) Translated(d r3.Vec) TetMesh {
	out := TetMesh{
		Vertices: make([]float64, len(m.Vertices)),
		TetIds:   append([]int32(nil), m.TetIds...),
		EdgeIds:  append([]int32(nil), m.EdgeIds...),
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		out.Vertices[i] = m.Vertices[i] + d.X
		out.Vertices[i+1] = m.Vertices[i+1] + d.Y
		out.Vertices[i+2] = m.Vertices[i+2] + d.Z
	}
	return out
}

// TetVolume returns the signed volume of the tetrahedron with corners
// a, b, c, d. Positive for consistently wound tetrahedra.
func TetVolume(a, b, c, d r3.Vec) float64 {
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	e3 := r3.Sub(d, a)
	return r3.Dot(e1, r3.Cross(e2, e3)) / 6.0
}

// tetEdgePairs lists the six corner pairs forming the edges of one tet.
var tetEdgePairs = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// EdgesFromTets extracts the unique undirected edges of a tet soup,
// in first-seen order.
func EdgesFromTets(tetIds []int32) []int32 {
	type edge struct{ a, b int32 }
	seen := make(map[edge]struct{}, len(tetIds))
	out := make([]int32, 0, 2*len(tetIds))
	for t := 0; t < len(tetIds)/4; t++ {
		for _, p := range tetEdgePairs {
			a, b := tetIds[4*t+p[0]], tetIds[4*t+p[1]]
			if a > b {
				a, b = b, a
			}
			if _, ok := seen[edge{a, b}]; ok {
				continue
			}
			seen[edge{a, b}] = struct{}{}
			out = append(out, a, b)
		}
	}
	return out
}

// tetFaces lists the four faces of a positively wound tet, each ordered so
// its normal points out of the element.
var tetFaces = [4][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}

// SurfaceTriangles extracts the boundary faces of a tet soup: faces that
// belong to exactly one element, oriented outward, in first-seen order.
func SurfaceTriangles(tetIds []int32) []int32 {
	type key [3]int32
	sortKey := func(t [3]int32) key {
		if t[0] > t[1] {
			t[0], t[1] = t[1], t[0]
		}
		if t[1] > t[2] {
			t[1], t[2] = t[2], t[1]
		}
		if t[0] > t[1] {
			t[0], t[1] = t[1], t[0]
		}
		return key(t)
	}

	count := make(map[key]int, len(tetIds))
	for t := 0; t < len(tetIds)/4; t++ {
		for _, f := range tetFaces {
			tri := [3]int32{tetIds[4*t+f[0]], tetIds[4*t+f[1]], tetIds[4*t+f[2]]}
			count[sortKey(tri)]++
		}
	}

	out := make([]int32, 0, 3*len(count))
	for t := 0; t < len(tetIds)/4; t++ {
		for _, f := range tetFaces {
			tri := [3]int32{tetIds[4*t+f[0]], tetIds[4*t+f[1]], tetIds[4*t+f[2]]}
			if count[sortKey(tri)] == 1 {
				out = append(out, tri[0], tri[1], tri[2])
			}
		}
	}
	return out
}

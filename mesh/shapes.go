package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RegularTet returns a single regular tetrahedron with the given edge length,
// centered on the origin.
func RegularTet(edge float64) TetMesh {
	s := edge / (2 * math.Sqrt2)
	m := TetMesh{
		Vertices: []float64{
			s, s, s,
			s, -s, -s,
			-s, -s, s,
			-s, s, -s,
		},
		TetIds: []int32{0, 1, 2, 3},
	}
	m.EdgeIds = EdgesFromTets(m.TetIds)
	return m
}

// FacePair returns two regular tetrahedra of unit edge sharing one face:
// five particles, the shared-face corners each referenced twice.
func FacePair() TetMesh {
	h := math.Sqrt(2.0 / 3.0)
	cz := math.Sqrt(3) / 6
	m := TetMesh{
		Vertices: []float64{
			0, 0, 0,
			1, 0, 0,
			0.5, 0, math.Sqrt(3) / 2,
			0.5, h, cz,
			0.5, -h, cz,
		},
		TetIds: []int32{
			0, 2, 1, 3,
			0, 1, 2, 4,
		},
	}
	m.EdgeIds = EdgesFromTets(m.TetIds)
	return m
}

// Beam returns an nx by ny by nz lattice of cubic cells of the given size,
// each cell split into six tetrahedra around its main diagonal. All elements
// are positively wound and neighboring cells share face diagonals, so the
// lattice is watertight. The beam spans [0, n*cell] on each axis.
func Beam(nx, ny, nz int, cell float64) TetMesh {
	vid := func(x, y, z int) int32 {
		return int32((x*(ny+1)+y)*(nz+1) + z)
	}

	verts := make([]float64, 0, 3*(nx+1)*(ny+1)*(nz+1))
	for x := 0; x <= nx; x++ {
		for y := 0; y <= ny; y++ {
			for z := 0; z <= nz; z++ {
				verts = append(verts, float64(x)*cell, float64(y)*cell, float64(z)*cell)
			}
		}
	}

	// Each axis permutation (a,b,c) yields the tet walking the cell from its
	// min corner along a, then b, then c. Odd permutations invert orientation,
	// so their middle corners are swapped to keep the winding positive.
	perms := [6][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	odd := [6]bool{false, true, true, false, false, true}

	tets := make([]int32, 0, 4*6*nx*ny*nz)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				for p, perm := range perms {
					var c [4][3]int
					c[0] = [3]int{x, y, z}
					for step := 0; step < 3; step++ {
						c[step+1] = c[step]
						c[step+1][perm[step]]++
					}
					i0 := vid(c[0][0], c[0][1], c[0][2])
					i1 := vid(c[1][0], c[1][1], c[1][2])
					i2 := vid(c[2][0], c[2][1], c[2][2])
					i3 := vid(c[3][0], c[3][1], c[3][2])
					if odd[p] {
						i1, i2 = i2, i1
					}
					tets = append(tets, i0, i1, i2, i3)
				}
			}
		}
	}

	m := TetMesh{Vertices: verts, TetIds: tets}
	m.EdgeIds = EdgesFromTets(tets)
	return m
}

// Center returns the centroid of the mesh vertices.
func (m TetMesh) Center() r3.Vec {
	var c r3.Vec
	n := m.NumVertices()
	if n == 0 {
		return c
	}
	for i := int32(0); i < int32(n); i++ {
		c = r3.Add(c, m.Vertex(i))
	}
	return r3.Scale(1/float64(n), c)
}

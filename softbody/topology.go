package softbody

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/mesh"
)

// ErrDegenerateElement reports an element whose rest volume is zero or
// negative, which would make the inverse rest pose undefined.
var ErrDegenerateElement = errors.New("softbody: degenerate element")

// topology is the immutable per-body data derived from the rest
// configuration. Everything the solvers index per element lives here.
type topology struct {
	numParticles int
	tetIds       []int32 // 4 corner ids per element
	edgeIds      []int32 // 2 ids per unique edge, wireframe rendering only

	// invRestPose holds the rows of the inverted rest edge matrix. Row k
	// dotted with a current edge matrix column yields one entry of the
	// deformation gradient.
	invRestPose [][3]r3.Vec
	invRestVol  []float64
	restVol     []float64
	// restShape holds each element's rest corners relative to its rest
	// centroid, consumed by the shape-matching solver.
	restShape [][4]r3.Vec
}

// newTopology derives rest volumes, inverse rest poses and particle masses
// from the mesh. Mass follows the corner rule: every corner of an element
// collects a quarter of restVolume*density, and the accumulated masses are
// inverted afterward. A particle referenced by no element keeps inverse
// mass zero and is immovable.
func newTopology(m mesh.TetMesh, density float64) (*topology, []float64, error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if density <= 0 {
		return nil, nil, fmt.Errorf("softbody: density must be positive, got %v", density)
	}

	n := m.NumVertices()
	numElems := m.NumTets()
	t := &topology{
		numParticles: n,
		tetIds:       append([]int32(nil), m.TetIds...),
		edgeIds:      append([]int32(nil), m.EdgeIds...),
		invRestPose:  make([][3]r3.Vec, numElems),
		invRestVol:   make([]float64, numElems),
		restVol:      make([]float64, numElems),
		restShape:    make([][4]r3.Vec, numElems),
	}

	mass := make([]float64, n)
	for e := 0; e < numElems; e++ {
		ids := t.tetIds[4*e : 4*e+4]
		p0 := m.Vertex(ids[0])
		p1 := m.Vertex(ids[1])
		p2 := m.Vertex(ids[2])
		p3 := m.Vertex(ids[3])

		e1 := r3.Sub(p1, p0)
		e2 := r3.Sub(p2, p0)
		e3 := r3.Sub(p3, p0)
		det := r3.Dot(e1, r3.Cross(e2, e3))
		vol := det / 6
		if vol <= 0 {
			return nil, nil, fmt.Errorf("%w: element %d has rest volume %v", ErrDegenerateElement, e, vol)
		}

		// Rows of the inverse rest pose are the reciprocal edge vectors:
		// row_k . e_j = delta_kj.
		inv := 1 / det
		t.invRestPose[e] = [3]r3.Vec{
			r3.Scale(inv, r3.Cross(e2, e3)),
			r3.Scale(inv, r3.Cross(e3, e1)),
			r3.Scale(inv, r3.Cross(e1, e2)),
		}
		t.invRestVol[e] = 1 / vol
		t.restVol[e] = vol

		centroid := r3.Scale(0.25, r3.Add(r3.Add(p0, p1), r3.Add(p2, p3)))
		t.restShape[e] = [4]r3.Vec{
			r3.Sub(p0, centroid),
			r3.Sub(p1, centroid),
			r3.Sub(p2, centroid),
			r3.Sub(p3, centroid),
		}

		share := vol * density / 4
		for _, id := range ids {
			mass[id] += share
		}
	}

	invMass := mass
	for i := range invMass {
		if invMass[i] > 0 {
			invMass[i] = 1 / invMass[i]
		}
	}
	return t, invMass, nil
}

func (t *topology) numElements() int { return len(t.invRestVol) }

// deformation computes the deformation gradient of element e from the given
// positions, returned as its three columns. F maps rest edge vectors onto
// current edge vectors.
func (t *topology) deformation(pos []r3.Vec, e int) (f0, f1, f2 r3.Vec) {
	ids := t.tetIds[4*e : 4*e+4]
	p0 := pos[ids[0]]
	e1 := r3.Sub(pos[ids[1]], p0)
	e2 := r3.Sub(pos[ids[2]], p0)
	e3 := r3.Sub(pos[ids[3]], p0)

	q := &t.invRestPose[e]
	f0 = r3.Add(r3.Scale(q[0].X, e1), r3.Add(r3.Scale(q[1].X, e2), r3.Scale(q[2].X, e3)))
	f1 = r3.Add(r3.Scale(q[0].Y, e1), r3.Add(r3.Scale(q[1].Y, e2), r3.Scale(q[2].Y, e3)))
	f2 = r3.Add(r3.Scale(q[0].Z, e1), r3.Add(r3.Scale(q[1].Z, e2), r3.Scale(q[2].Z, e3)))
	return f0, f1, f2
}

// mulRow folds three matrix columns against one inverse rest pose row,
// producing the gradient of a per-column scalar with respect to one corner.
func mulRow(a0, a1, a2, row r3.Vec) r3.Vec {
	return r3.Add(r3.Scale(row.X, a0), r3.Add(r3.Scale(row.Y, a1), r3.Scale(row.Z, a2)))
}

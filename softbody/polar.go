package softbody

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxPolarIterations bounds the rotation refinement loop. Well-conditioned
// elements converge in a few steps; collapsed ones stop improving and the
// last iterate is accepted.
const maxPolarIterations = 9

// identityQuat is the warm-start rotation for a freshly built element.
var identityQuat = quat.Number{Real: 1}

// extractRotation refines q toward the rotational part of the column matrix
// a, following Mueller et al., "A Robust Method to Extract the Rotational
// Part of Deformations". Warm-starting with the previous substep's rotation
// makes one or two iterations enough in steady motion.
func extractRotation(a *[3]r3.Vec, q quat.Number) quat.Number {
	for iter := 0; iter < maxPolarIterations; iter++ {
		rot := r3.Rotation(q)
		r0 := rot.Rotate(r3.Vec{X: 1})
		r1 := rot.Rotate(r3.Vec{Y: 1})
		r2 := rot.Rotate(r3.Vec{Z: 1})

		num := r3.Add(r3.Cross(r0, a[0]), r3.Add(r3.Cross(r1, a[1]), r3.Cross(r2, a[2])))
		den := math.Abs(r3.Dot(r0, a[0])+r3.Dot(r1, a[1])+r3.Dot(r2, a[2])) + 1e-9
		omega := r3.Scale(1/den, num)

		w := r3.Norm(omega)
		if w < 1e-9 {
			break
		}
		step := quat.Number(r3.NewRotation(w, r3.Scale(1/w, omega)))
		q = quat.Mul(step, q)
		q = quat.Scale(1/quat.Abs(q), q)
	}
	return q
}

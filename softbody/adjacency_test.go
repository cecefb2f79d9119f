package softbody

import (
	"math"
	"testing"

	"github.com/pthm-cable/squish/mesh"
)

func TestAdjacencySlotAccounting(t *testing.T) {
	// Two elements sharing a face: slots 0..3 belong to the first element,
	// 4..7 to the second. The three shared particles appear in both.
	m := mesh.FacePair()
	adj := buildAdjacency(m.NumVertices(), m.TetIds)

	if got := len(adj.slots); got != 4*m.NumTets() {
		t.Fatalf("total slots = %d, want %d", got, 4*m.NumTets())
	}

	want := map[int][]int32{}
	for s, id := range m.TetIds {
		want[int(id)] = append(want[int(id)], int32(s))
	}
	for i := 0; i < m.NumVertices(); i++ {
		got := adj.particleSlots(i)
		if len(got) != len(want[i]) {
			t.Fatalf("particle %d: %d slots, want %d", i, len(got), len(want[i]))
		}
		for k := range got {
			if got[k] != want[i][k] {
				t.Errorf("particle %d slot %d = %d, want %d", i, k, got[k], want[i][k])
			}
		}
	}

	// Shared face corners are referenced twice, apexes once.
	for i, wantLen := range []int{2, 2, 2, 1, 1} {
		if got := len(adj.particleSlots(i)); got != wantLen {
			t.Errorf("particle %d: %d slots, want %d", i, got, wantLen)
		}
	}
}

func TestAdjacencyGatherWeights(t *testing.T) {
	m := mesh.FacePair()
	topo, _, err := newTopology(m, 1000)
	if err != nil {
		t.Fatalf("newTopology: %v", err)
	}
	adj := buildAdjacency(topo.numParticles, topo.tetIds)

	for i := 0; i < topo.numParticles; i++ {
		var got, want float64
		for _, slot := range adj.particleSlots(i) {
			got += topo.invRestVol[slot/4]
		}
		for e := 0; e < topo.numElements(); e++ {
			for _, id := range topo.tetIds[4*e : 4*e+4] {
				if int(id) == i {
					want += topo.invRestVol[e]
				}
			}
		}
		if math.Abs(got-want) > 1e-15 {
			t.Errorf("particle %d: gather weight %v, want %v", i, got, want)
		}
	}
}

func TestAdjacencyBeamBruteForce(t *testing.T) {
	m := mesh.Beam(2, 2, 2, 0.5)
	adj := buildAdjacency(m.NumVertices(), m.TetIds)

	total := 0
	for i := 0; i < m.NumVertices(); i++ {
		slots := adj.particleSlots(i)
		total += len(slots)
		for _, s := range slots {
			if m.TetIds[s] != int32(i) {
				t.Fatalf("particle %d: slot %d points at particle %d", i, s, m.TetIds[s])
			}
		}
		for k := 1; k < len(slots); k++ {
			if slots[k] <= slots[k-1] {
				t.Fatalf("particle %d: slots out of order: %v", i, slots)
			}
		}
	}
	if total != len(m.TetIds) {
		t.Errorf("slot total = %d, want %d", total, len(m.TetIds))
	}
}

func TestAdjacencyEmpty(t *testing.T) {
	adj := buildAdjacency(3, nil)
	for i := 0; i < 3; i++ {
		if got := adj.particleSlots(i); len(got) != 0 {
			t.Errorf("particle %d: %d slots, want 0", i, len(got))
		}
	}
}

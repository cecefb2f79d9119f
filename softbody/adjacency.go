package softbody

// adjacency maps every particle to the element corner slots referencing it,
// as an offset table over one packed slot array. Slot s encodes element s/4,
// corner s%4. Only the parallel strategy needs it, for the gather pass.
type adjacency struct {
	offsets []int32 // len numParticles+1, offsets[i]..offsets[i+1] index slots
	slots   []int32 // packed corner slots, len(tetIds)
}

func buildAdjacency(numParticles int, tetIds []int32) adjacency {
	offsets := make([]int32, numParticles+1)
	for _, id := range tetIds {
		offsets[id+1]++
	}
	for i := 1; i <= numParticles; i++ {
		offsets[i] += offsets[i-1]
	}

	slots := make([]int32, len(tetIds))
	cursor := make([]int32, numParticles)
	for s, id := range tetIds {
		slots[offsets[id]+cursor[id]] = int32(s)
		cursor[id]++
	}
	return adjacency{offsets: offsets, slots: slots}
}

// particleSlots returns the corner slots referencing particle i, in element
// order. The fixed order keeps the gather sum deterministic.
func (a adjacency) particleSlots(i int) []int32 {
	return a.slots[a.offsets[i]:a.offsets[i+1]]
}

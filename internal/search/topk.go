package search

import (
	"container/heap"
	"sort"

	"github.com/runeforge/optimizer/internal/runes"
)

// betterBuild implements the tie-break rule of spec.md §5: builds rank by
// (score, cd_total, rune-id sequence) so that repeated runs over the same
// inputs produce identical output regardless of map iteration order
// upstream.
func betterBuild(a, b runes.Build) bool {
	if a.Stats.Score != b.Stats.Score {
		return a.Stats.Score > b.Stats.Score
	}
	if a.Stats.CDTotal != b.Stats.CDTotal {
		return a.Stats.CDTotal > b.Stats.CDTotal
	}
	aIDs, bIDs := a.RuneIDs(), b.RuneIDs()
	for i := range aIDs {
		if aIDs[i] != bIDs[i] {
			return aIDs[i] < bIDs[i]
		}
	}
	return false
}

// topKHeap is a container/heap.Interface over candidate builds, ordered so
// the worst-ranked (by betterBuild) candidate sits at the root — the
// natural eviction target when a bounded TopK is full.
type topKHeap struct {
	builds []runes.Build
}

func (h *topKHeap) Len() int { return len(h.builds) }
func (h *topKHeap) Less(i, j int) bool {
	// Root must be the worst build, so i sorts first when j is better.
	return betterBuild(h.builds[j], h.builds[i])
}
func (h *topKHeap) Swap(i, j int) { h.builds[i], h.builds[j] = h.builds[j], h.builds[i] }
func (h *topKHeap) Push(x interface{}) {
	h.builds = append(h.builds, x.(runes.Build))
}
func (h *topKHeap) Pop() interface{} {
	old := h.builds
	n := len(old)
	item := old[n-1]
	h.builds = old[:n-1]
	return item
}

// TopK is the bounded max-structure of spec.md §4.7: it retains at most k
// builds, always the k highest-ranked seen so far by betterBuild.
type TopK struct {
	heap *topKHeap
	k    int
}

// NewTopK returns an empty TopK with capacity k. k must be >= 1.
func NewTopK(k int) *TopK {
	h := &topKHeap{}
	heap.Init(h)
	return &TopK{heap: h, k: k}
}

// Offer proposes a build for inclusion. It is kept if the structure has
// room, or if it outranks the current worst-kept build.
func (t *TopK) Offer(b runes.Build) {
	if t.k <= 0 {
		return
	}
	if t.heap.Len() < t.k {
		heap.Push(t.heap, b)
		return
	}
	worst := t.heap.builds[0]
	if betterBuild(b, worst) {
		heap.Pop(t.heap)
		heap.Push(t.heap, b)
	}
}

// Full reports whether the structure is at capacity.
func (t *TopK) Full() bool {
	return t.heap.Len() >= t.k
}

// Len reports the number of builds currently retained.
func (t *TopK) Len() int {
	return t.heap.Len()
}

// MinScore returns the score of the current worst-kept build, or a very
// large negative sentinel (-1<<62) when empty — callers use this as the pruning
// threshold in spec.md §4.7 ("topK.full() and upper_bound <= topK.min()").
func (t *TopK) MinScore() float64 {
	if t.heap.Len() == 0 {
		return negInf
	}
	return t.heap.builds[0].Stats.Score
}

const negInf = -1 << 62

// SortedDescending returns every retained build ordered best-first.
func (t *TopK) SortedDescending() []runes.Build {
	out := make([]runes.Build, len(t.heap.builds))
	copy(out, t.heap.builds)
	sort.Slice(out, func(i, j int) bool { return betterBuild(out[i], out[j]) })
	return out
}

// MergeTopK combines several workers' private TopK structures (spec.md
// §5 per-worker-heap concurrency model) into a single bounded TopK of the
// same capacity k.
func MergeTopK(k int, parts ...*TopK) *TopK {
	merged := NewTopK(k)
	for _, part := range parts {
		if part == nil {
			continue
		}
		for _, b := range part.heap.builds {
			merged.Offer(b)
		}
	}
	return merged
}

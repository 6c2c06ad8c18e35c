package search

import (
	"testing"

	"github.com/runeforge/optimizer/internal/runes"
)

func buildWithScore(id uint64, score float64, cd int) runes.Build {
	return runes.Build{
		Runes: map[runes.Slot]runes.Rune{runes.Slot1: {ID: id, Slot: runes.Slot1}},
		Stats: runes.Stats{Score: score, CDTotal: cd},
	}
}

func TestTopKRetainsOnlyHighestScores(t *testing.T) {
	tk := NewTopK(2)
	tk.Offer(buildWithScore(1, 10, 0))
	tk.Offer(buildWithScore(2, 30, 0))
	tk.Offer(buildWithScore(3, 20, 0))

	got := tk.SortedDescending()
	if len(got) != 2 {
		t.Fatalf("expected 2 retained builds, got %d", len(got))
	}
	if got[0].Stats.Score != 30 || got[1].Stats.Score != 20 {
		t.Errorf("expected [30, 20], got [%v, %v]", got[0].Stats.Score, got[1].Stats.Score)
	}
}

func TestTopKTieBreakByCDThenRuneSequence(t *testing.T) {
	tk := NewTopK(3)
	tk.Offer(buildWithScore(5, 10, 20))
	tk.Offer(buildWithScore(3, 10, 20))
	tk.Offer(buildWithScore(4, 10, 30))

	got := tk.SortedDescending()
	// Same score throughout: cd_total 30 ranks first, then among the two
	// cd_total=20 entries the lower rune id (3) ranks ahead of 5.
	ids := []uint64{got[0].RuneIDs()[0], got[1].RuneIDs()[0], got[2].RuneIDs()[0]}
	want := []uint64{4, 3, 5}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: got rune id %d, want %d (full order %v)", i, ids[i], want[i], ids)
		}
	}
}

func TestMergeTopKCombinesWorkersRespectingCapacity(t *testing.T) {
	a := NewTopK(2)
	a.Offer(buildWithScore(1, 10, 0))
	a.Offer(buildWithScore(2, 40, 0))

	b := NewTopK(2)
	b.Offer(buildWithScore(3, 30, 0))
	b.Offer(buildWithScore(4, 20, 0))

	merged := MergeTopK(2, a, b)
	got := merged.SortedDescending()
	if len(got) != 2 {
		t.Fatalf("expected merged capacity of 2, got %d", len(got))
	}
	if got[0].Stats.Score != 40 || got[1].Stats.Score != 30 {
		t.Errorf("expected [40, 30] after merge, got [%v, %v]", got[0].Stats.Score, got[1].Stats.Score)
	}
}

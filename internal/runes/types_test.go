package runes

import "testing"

// TestStatIDCanonicalAssignments pins the wire-stable stat ids of spec.md §6.
func TestStatIDCanonicalAssignments(t *testing.T) {
	cases := map[StatID]int{
		HP: 1, HPPct: 2, ATK: 3, ATKPct: 4, DEF: 5, DEFPct: 6,
		SPD: 8, CR: 9, CD: 10, RES: 11, ACC: 12,
	}
	for stat, want := range cases {
		if int(stat) != want {
			t.Errorf("stat %v: got id %d, want %d", stat, int(stat), want)
		}
	}
}

func TestStatID7IsUnused(t *testing.T) {
	for _, id := range StatIDs {
		if int(id) == 7 {
			t.Fatalf("id 7 must never be assigned to a stat, found %v", id)
		}
	}
}

// TestSetIDCanonicalAssignments pins the canonical set-id table that
// resolves the Blade/Rage/Fatal disagreement called out in spec.md §9.
func TestSetIDCanonicalAssignments(t *testing.T) {
	cases := map[SetID]int{
		Energy: 1, Guard: 2, Swift: 3, Blade: 4, Rage: 5, Focus: 6, Endure: 7,
		Fatal: 8, Despair: 9, Vampire: 10, Violent: 11, Nemesis: 12, Will: 13,
		Shield: 14, Revenge: 15, Destroy: 16, Fight: 17, Determination: 18,
		Enhance: 19, Accuracy: 20, Tolerance: 21, Intangible: 25,
	}
	for set, want := range cases {
		if int(set) != want {
			t.Errorf("set %v: got id %d, want %d", set, int(set), want)
		}
	}
}

func TestStatByNameRoundTrip(t *testing.T) {
	for _, id := range StatIDs {
		got, ok := StatByName(id.String())
		if !ok || got != id {
			t.Errorf("StatByName(%q) = %v, %v; want %v, true", id.String(), got, ok, id)
		}
	}
	if _, ok := StatByName("NOT_A_STAT"); ok {
		t.Error("expected unknown stat name to resolve false")
	}
}

func TestSetByNameRoundTrip(t *testing.T) {
	for _, id := range SetIDs {
		got, ok := SetByName(id.String())
		if !ok || got != id {
			t.Errorf("SetByName(%q) = %v, %v; want %v, true", id.String(), got, ok, id)
		}
	}
	if _, ok := SetByName("NotASet"); ok {
		t.Error("expected unknown set name to resolve false")
	}
}

func TestIsPercent(t *testing.T) {
	pct := map[StatID]bool{
		HP: false, HPPct: true, ATK: false, ATKPct: true,
		DEF: false, DEFPct: true, SPD: false, CR: false, CD: false,
		RES: false, ACC: false,
	}
	for stat, want := range pct {
		if got := stat.IsPercent(); got != want {
			t.Errorf("%v.IsPercent() = %v, want %v", stat, got, want)
		}
	}
}

func TestRuneHasSubAndPrefixStat(t *testing.T) {
	r := Rune{
		ID: 1, Slot: Slot2, Set: Rage,
		Main:   StatRoll{Stat: ATKPct, Value: 10},
		Prefix: &StatRoll{Stat: DEF, Value: 20},
		Subs: []SubStat{
			{Stat: SPD, Value: 5},
			{Stat: CR, Value: 6},
		},
	}
	if !r.HasPrefixStat(DEF) {
		t.Error("expected prefix DEF to be detected")
	}
	if r.HasPrefixStat(ATK) {
		t.Error("did not expect prefix ATK")
	}
	if !r.HasSubStat(SPD) || !r.HasSubStat(CR) {
		t.Error("expected substats SPD and CR to be detected")
	}
	if r.HasSubStat(HP) {
		t.Error("did not expect substat HP")
	}
}

package engine

import (
	"testing"

	"github.com/runeforge/optimizer/internal/runes"
)

func flatRune(id uint64, slot runes.Slot, set runes.SetID, mainStat runes.StatID, mainValue int) runes.Rune {
	return runes.Rune{ID: id, Slot: slot, Set: set, Main: runes.StatRoll{Stat: mainStat, Value: mainValue}}
}

// TestFloorDivisionRounding implements spec.md scenario S5.
func TestFloorDivisionRounding(t *testing.T) {
	base := runes.MonsterBaseStats{ATK: 1000}
	build := [6]runes.Rune{
		flatRune(1, runes.Slot1, runes.Fatal, runes.ATK, 0),
		{ID: 2, Slot: runes.Slot2, Set: runes.Fatal, Main: runes.StatRoll{Stat: runes.ATKPct, Value: 0},
			Subs: []runes.SubStat{{Stat: runes.ATK, Value: 7}}},
		flatRune(3, runes.Slot3, runes.Fatal, runes.DEF, 0),
		flatRune(4, runes.Slot4, runes.Fatal, runes.CD, 0),
		flatRune(5, runes.Slot5, runes.Guard, runes.HP, 0),
		flatRune(6, runes.Slot6, runes.Guard, runes.ACC, 0),
	}
	stats := ComputeStats(build, base, nil, runes.DefaultSetBonusTable())

	if stats.ATKPctTotal != 35 {
		t.Fatalf("expected Fatal 4-set to contribute ATK_PCT 35, got %d", stats.ATKPctTotal)
	}
	if stats.ATKFlatTotal != 7 {
		t.Fatalf("expected flat ATK total 7, got %d", stats.ATKFlatTotal)
	}
	if stats.ATKBonus != 357 {
		t.Errorf("atk_bonus = %d, want 357 (floor(1000*35/100)+7)", stats.ATKBonus)
	}
	if stats.ATKTotal != 1357 {
		t.Errorf("atk_total = %d, want 1357", stats.ATKTotal)
	}
}

// TestSwiftBaseSpdOnly implements spec.md scenario S4.
func TestSwiftBaseSpdOnly(t *testing.T) {
	base := runes.MonsterBaseStats{SPD: 100}
	mkSwift := func(id uint64, slot runes.Slot, spdSub int) runes.Rune {
		r := flatRune(id, slot, runes.Swift, runes.HP, 0)
		if slot == runes.Slot1 {
			r.Main.Stat = runes.ATK
		}
		if spdSub > 0 {
			r.Subs = []runes.SubStat{{Stat: runes.SPD, Value: spdSub}}
		}
		return r
	}
	build := [6]runes.Rune{
		mkSwift(1, runes.Slot1, 4),
		mkSwift(2, runes.Slot2, 3),
		flatRune(3, runes.Slot3, runes.Rage, runes.DEF, 0),
		flatRune(4, runes.Slot4, runes.Rage, runes.CD, 0),
		flatRune(5, runes.Slot5, runes.Rage, runes.HP, 0),
		flatRune(6, runes.Slot6, runes.Rage, runes.ACC, 0),
	}
	build[0].Set = runes.Swift
	build[1].Set = runes.Swift

	stats := ComputeStats(build, base, nil, runes.DefaultSetBonusTable())

	if stats.SPDPctFromSwift != 25 {
		t.Fatalf("expected spd_pct_from_swift 25, got %d", stats.SPDPctFromSwift)
	}
	wantSPD := 100 + 25 + 7 // base + 25% of base + flat subs (4+3)
	if stats.SPDTotal != wantSPD {
		t.Errorf("spd_total = %d, want %d", stats.SPDTotal, wantSPD)
	}
}

func TestCRCDSeededFromBase(t *testing.T) {
	base := runes.MonsterBaseStats{CR: 15, CD: 50}
	build := [6]runes.Rune{
		flatRune(1, runes.Slot1, runes.Guard, runes.ATK, 0),
		flatRune(2, runes.Slot2, runes.Guard, runes.HPPct, 0),
		flatRune(3, runes.Slot3, runes.Guard, runes.DEF, 0),
		flatRune(4, runes.Slot4, runes.Guard, runes.CD, 0),
		flatRune(5, runes.Slot5, runes.Guard, runes.HP, 0),
		flatRune(6, runes.Slot6, runes.Guard, runes.ACC, 0),
	}
	stats := ComputeStats(build, base, nil, runes.DefaultSetBonusTable())
	if stats.CRTotal != 15 {
		t.Errorf("cr_total = %d, want base 15 with no CR contributions", stats.CRTotal)
	}
	if stats.CDTotal != 50 {
		t.Errorf("cd_total = %d, want base 50 with no CD contributions", stats.CDTotal)
	}
}

func TestSetCountsIncludesIntangibleAssignment(t *testing.T) {
	build := [6]runes.Rune{
		flatRune(1, runes.Slot1, runes.Rage, runes.ATK, 0),
		flatRune(2, runes.Slot2, runes.Rage, runes.ATKPct, 0),
		flatRune(3, runes.Slot3, runes.Rage, runes.DEF, 0),
		flatRune(4, runes.Slot4, runes.Blade, runes.CD, 0),
		flatRune(5, runes.Slot5, runes.Blade, runes.HP, 0),
		flatRune(6, runes.Slot6, runes.Intangible, runes.ACC, 0),
	}
	counts := SetCounts(build, map[uint64]runes.SetID{6: runes.Rage})
	if counts[runes.Rage] != 4 {
		t.Errorf("expected Rage count 4 including intangible, got %d", counts[runes.Rage])
	}
	if counts[runes.Blade] != 2 {
		t.Errorf("expected Blade count 2, got %d", counts[runes.Blade])
	}

	unassigned := SetCounts(build, nil)
	if unassigned[runes.Rage] != 3 {
		t.Errorf("unassigned intangible must not count toward Rage, got %d", unassigned[runes.Rage])
	}
}

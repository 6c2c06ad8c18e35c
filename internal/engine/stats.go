// Package engine implements the scoring engine (spec.md §4.3), the
// objective registry (§4.4), and the intangible-wildcard resolver (§4.5).
// It is purely functional: compute_stats is a pure function of its
// arguments and never touches the set-bonus table or base stats it is
// handed except to read them.
package engine

import (
	"github.com/runeforge/optimizer/internal/runes"
)

// accumulator holds the eleven additive stat buckets before set bonuses and
// derived totals are computed. It exists so a single leaf evaluation
// allocates one accumulator, not one per rune (spec.md §9 design note on
// avoiding per-node allocation).
type accumulator struct {
	buckets map[runes.StatID]int
}

func newAccumulator(baseCR, baseCD int) *accumulator {
	a := &accumulator{buckets: make(map[runes.StatID]int, len(runes.StatIDs))}
	for _, id := range runes.StatIDs {
		a.buckets[id] = 0
	}
	a.buckets[runes.CR] = baseCR
	a.buckets[runes.CD] = baseCD
	return a
}

func (a *accumulator) add(stat runes.StatID, value int) {
	a.buckets[stat] += value
}

// addRune folds a single rune's main, prefix, and substat contributions
// into the accumulator (spec.md §4.3 Step A).
func (a *accumulator) addRune(r runes.Rune) {
	a.add(r.Main.Stat, r.Main.Value)
	if r.Prefix != nil {
		a.add(r.Prefix.Stat, r.Prefix.Value)
	}
	for _, sub := range r.Subs {
		a.add(sub.Stat, sub.Value)
	}
}

// SetCounts builds the per-set rune count used by both the scoring engine
// and the pruning oracle (spec.md §4.3 Step B). Intangible runes absent
// from the assignment contribute to no set; a real-set rune's own set
// always counts regardless of the assignment map's contents (invariant I4
// guarantees the assignment never maps a real-set rune).
func SetCounts(build [6]runes.Rune, intangibleAssignment map[uint64]runes.SetID) map[runes.SetID]int {
	counts := make(map[runes.SetID]int)
	for _, r := range build {
		if r.Set == runes.Intangible {
			if target, ok := intangibleAssignment[r.ID]; ok {
				counts[target]++
			}
			continue
		}
		counts[r.Set]++
	}
	return counts
}

// ComputeStats is the pure function compute_stats(runes, base,
// intangible_assignment, bonus_table) -> Stats of spec.md §4.3. build must
// contain exactly six runes; callers (the search driver and the intangible
// resolver) are responsible for that invariant.
func ComputeStats(
	build [6]runes.Rune,
	base runes.MonsterBaseStats,
	intangibleAssignment map[uint64]runes.SetID,
	bonusTable map[runes.SetID]runes.SetBonusDefinition,
) runes.Stats {
	acc := newAccumulator(base.CR, base.CD)
	for _, r := range build {
		acc.addRune(r)
	}

	counts := SetCounts(build, intangibleAssignment)

	spdPctFromSwift := 0
	for set, count := range counts {
		def, ok := bonusTable[set]
		if !ok || def.IsProc {
			continue
		}
		if def.IsSwift {
			if count >= def.SetRequirement {
				spdPctFromSwift += def.SwiftSPDPct
			}
			continue
		}
		if count >= 2 {
			for stat, value := range def.Bonus2 {
				acc.add(stat, value)
			}
		}
		if count >= 4 {
			for stat, value := range def.Bonus4 {
				acc.add(stat, value)
			}
		}
	}

	return deriveStats(acc, base, spdPctFromSwift)
}

// deriveStats applies the floor-division derivation rule of spec.md §4.3
// Step D. Integer floor (truncation toward zero) is used throughout for
// determinism across languages and because it matches in-game display.
func deriveStats(acc *accumulator, base runes.MonsterBaseStats, spdPctFromSwift int) runes.Stats {
	atkPct := acc.buckets[runes.ATKPct]
	atkFlat := acc.buckets[runes.ATK]
	atkBonus := (base.ATK*atkPct)/100 + atkFlat
	atkTotal := base.ATK + atkBonus

	hpPct := acc.buckets[runes.HPPct]
	hpFlat := acc.buckets[runes.HP]
	hpBonus := (base.HP*hpPct)/100 + hpFlat
	hpTotal := base.HP + hpBonus

	defPct := acc.buckets[runes.DEFPct]
	defFlat := acc.buckets[runes.DEF]
	defBonus := (base.DEF*defPct)/100 + defFlat
	defTotal := base.DEF + defBonus

	spdFlat := acc.buckets[runes.SPD]
	spdBonus := (base.SPD*spdPctFromSwift)/100 + spdFlat
	spdTotal := base.SPD + spdBonus

	return runes.Stats{
		CRTotal:         acc.buckets[runes.CR],
		CDTotal:         acc.buckets[runes.CD],
		ATKPctTotal:     atkPct,
		ATKFlatTotal:    atkFlat,
		ATKBonus:        atkBonus,
		ATKTotal:        atkTotal,
		HPPctTotal:      hpPct,
		HPFlatTotal:     hpFlat,
		HPBonus:         hpBonus,
		HPTotal:         hpTotal,
		DEFPctTotal:     defPct,
		DEFFlatTotal:    defFlat,
		DEFBonus:        defBonus,
		DEFTotal:        defTotal,
		SPDPctFromSwift: spdPctFromSwift,
		SPDFlatTotal:    spdFlat,
		SPDTotal:        spdTotal,
		RESTotal:        acc.buckets[runes.RES],
		ACCTotal:        acc.buckets[runes.ACC],
	}
}

package search

import (
	"github.com/runeforge/optimizer/internal/engine"
	"github.com/runeforge/optimizer/internal/runes"
)

// Oracle answers the two questions of spec.md §4.6 against a partial DFS
// state: can any completion satisfy the constraints (feasible), and what is
// an admissible scalar upper bound on a SCORE-family objective
// (upperBound). Its per-slot tables are precomputed once per search call so
// both questions are O(1) amortized per node, per the implementation note
// in spec.md §4.6.
type Oracle struct {
	order          []runes.Slot
	maxStatPerSlot map[runes.Slot]map[runes.StatID]int
	slotHasSet     map[runes.Slot]map[runes.SetID]bool
	bonusTable     map[runes.SetID]runes.SetBonusDefinition
	base           runes.MonsterBaseStats
	scoreFamily    bool
}

// NewOracle precomputes the per-slot max-stat and max-set tables described
// in spec.md §4.6 from the grouped, already-filtered legal candidates.
// scoreFamily must be engine.IsScoreFamily(req.ObjectiveName): bestCase's
// Score field is always the legacy SCORE formula (spec.md §4.6 only
// defines the scalar bound over that family), so MIN_SCORE is only an
// admissible mid-search filter when the caller's actual objective is SCORE
// itself — otherwise it is evaluated against a quantity the leaf never
// computes and is left to the leaf's own post-hoc check instead.
func NewOracle(
	order []runes.Slot,
	candidatesPerSlot map[runes.Slot][]runes.Rune,
	bonusTable map[runes.SetID]runes.SetBonusDefinition,
	base runes.MonsterBaseStats,
	scoreFamily bool,
) *Oracle {
	maxStat := make(map[runes.Slot]map[runes.StatID]int, len(order))
	hasSet := make(map[runes.Slot]map[runes.SetID]bool, len(order))

	for slot, candidates := range candidatesPerSlot {
		statMax := make(map[runes.StatID]int, len(runes.StatIDs))
		for _, stat := range runes.StatIDs {
			best := 0
			for _, r := range candidates {
				if v := runeContribution(r, stat); v > best {
					best = v
				}
			}
			statMax[stat] = best
		}
		maxStat[slot] = statMax

		sets := make(map[runes.SetID]bool)
		for _, r := range candidates {
			sets[r.Set] = true
		}
		hasSet[slot] = sets
	}

	return &Oracle{
		order:          order,
		maxStatPerSlot: maxStat,
		slotHasSet:     hasSet,
		bonusTable:     bonusTable,
		base:           base,
		scoreFamily:    scoreFamily,
	}
}

// runeContribution sums a single rune's main, prefix, and substat values
// toward one stat.
func runeContribution(r runes.Rune, stat runes.StatID) int {
	total := 0
	if r.Main.Stat == stat {
		total += r.Main.Value
	}
	if r.Prefix != nil && r.Prefix.Stat == stat {
		total += r.Prefix.Value
	}
	for _, s := range r.Subs {
		if s.Stat == stat {
			total += s.Value
		}
	}
	return total
}

// remaining returns the slots not yet assigned after depth runes have been
// chosen, in the DFS visiting order.
func (o *Oracle) remaining(depth int) []runes.Slot {
	if depth >= len(o.order) {
		return nil
	}
	return o.order[depth:]
}

// setMaxPossible is the max_possible formula of spec.md §4.6: the current
// count of a set (real matches plus any already-chosen, not-yet-resolved
// intangible rune, counted optimistically) plus one per remaining slot that
// holds a candidate of that set or an intangible rune.
func (o *Oracle) setMaxPossible(set runes.SetID, realCounts map[runes.SetID]int, intangibleChosen int, depth int) int {
	max := realCounts[set] + intangibleChosen
	for _, slot := range o.remaining(depth) {
		if o.slotHasSet[slot][set] || o.slotHasSet[slot][runes.Intangible] {
			max++
		}
	}
	return max
}

// bestCase computes an optimistic Stats record: every raw stat bucket is
// the current contribution plus the maximum any remaining slot could add,
// and every non-proc set bonus is applied if the set could still reach its
// threshold. Every component is individually an upper bound on the true
// final value, so the whole record is an admissible upper bound — it is
// never less than any true completion's stats (spec.md §4.6).
func (o *Oracle) bestCase(chosen []runes.Rune, depth int) runes.Stats {
	realCounts := make(map[runes.SetID]int)
	intangibleChosen := 0
	for _, r := range chosen {
		if r.Set == runes.Intangible {
			intangibleChosen++
		} else {
			realCounts[r.Set]++
		}
	}
	remaining := o.remaining(depth)

	achievable := func(set runes.SetID, threshold int) bool {
		return o.setMaxPossible(set, realCounts, intangibleChosen, depth) >= threshold
	}

	bestStat := func(stat runes.StatID) int {
		val := 0
		for _, r := range chosen {
			val += runeContribution(r, stat)
		}
		if stat == runes.CR {
			val += o.base.CR
		}
		if stat == runes.CD {
			val += o.base.CD
		}
		for _, slot := range remaining {
			val += o.maxStatPerSlot[slot][stat]
		}
		for set, def := range o.bonusTable {
			if def.IsProc || def.IsSwift {
				continue
			}
			if v, ok := def.Bonus2[stat]; ok && achievable(set, 2) {
				val += v
			}
			if v, ok := def.Bonus4[stat]; ok && achievable(set, 4) {
				val += v
			}
		}
		return val
	}

	atkPct := bestStat(runes.ATKPct)
	atkFlat := bestStat(runes.ATK)
	atkBonus := (o.base.ATK*atkPct)/100 + atkFlat
	atkTotal := o.base.ATK + atkBonus

	hpPct := bestStat(runes.HPPct)
	hpFlat := bestStat(runes.HP)
	hpBonus := (o.base.HP*hpPct)/100 + hpFlat
	hpTotal := o.base.HP + hpBonus

	defPct := bestStat(runes.DEFPct)
	defFlat := bestStat(runes.DEF)
	defBonus := (o.base.DEF*defPct)/100 + defFlat
	defTotal := o.base.DEF + defBonus

	spdFlat := bestStat(runes.SPD)
	spdPctFromSwift := 0
	if swift, ok := o.bonusTable[runes.Swift]; ok && swift.IsSwift && achievable(runes.Swift, swift.SetRequirement) {
		spdPctFromSwift = swift.SwiftSPDPct
	}
	spdBonus := (o.base.SPD*spdPctFromSwift)/100 + spdFlat
	spdTotal := o.base.SPD + spdBonus

	stats := runes.Stats{
		CRTotal:         bestStat(runes.CR),
		CDTotal:         bestStat(runes.CD),
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
		RESTotal:        bestStat(runes.RES),
		ACCTotal:        bestStat(runes.ACC),
	}
	stats.Score = engine.Score(stats)
	return stats
}

// Feasible answers spec.md §4.6's feasible(S, remaining_slots): can any
// completion of chosen (length depth) satisfy every set constraint and
// every stat floor.
func (o *Oracle) Feasible(chosen []runes.Rune, depth int, constraints engine.NamedConstraints, setConstraints engine.SetConstraints) bool {
	realCounts := make(map[runes.SetID]int)
	intangibleChosen := 0
	for _, r := range chosen {
		if r.Set == runes.Intangible {
			intangibleChosen++
		} else {
			realCounts[r.Set]++
		}
	}
	for set, required := range setConstraints {
		if o.setMaxPossible(set, realCounts, intangibleChosen, depth) < required {
			return false
		}
	}

	best := o.bestCase(chosen, depth)
	return engine.PassesNamedConstraints(best, o.prunableConstraints(constraints))
}

// prunableConstraints strips MIN_SCORE out of constraints unless the
// search's objective is the legacy SCORE family: bestCase's Score field is
// always engine.Score regardless of the caller's chosen objective, so
// checking MIN_SCORE against it for a non-SCORE objective would prune
// branches using a quantity the leaf never actually evaluates. The leaf's
// own PassesNamedConstraints call (engine.evaluate) always sees the real
// objective's value and remains the sole place MIN_SCORE is enforced in
// that case (ground truth: the original implementation never treats
// MIN_SCORE as a mid-search admissible bound at all, only a leaf filter).
func (o *Oracle) prunableConstraints(constraints engine.NamedConstraints) engine.NamedConstraints {
	if o.scoreFamily {
		return constraints
	}
	if _, ok := constraints["MIN_SCORE"]; !ok {
		return constraints
	}
	filtered := make(engine.NamedConstraints, len(constraints))
	for name, floor := range constraints {
		if name == "MIN_SCORE" {
			continue
		}
		filtered[name] = floor
	}
	return filtered
}

// UpperBound answers spec.md §4.6's upper_bound(S, remaining_slots): an
// admissible scalar bound on the SCORE objective, valid only for
// SCORE-family objectives (callers must check IsScoreFamily before relying
// on it for pruning).
func (o *Oracle) UpperBound(chosen []runes.Rune, depth int) float64 {
	return o.bestCase(chosen, depth).Score
}

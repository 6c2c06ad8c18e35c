package engine

import "github.com/runeforge/optimizer/internal/runes"

// SetConstraints is a required count per set id, keyed the same way as
// set_constraints in spec.md §6. The count an effective build provides
// includes intangible assignments (spec.md §4.1 Step B, P6).
type SetConstraints map[runes.SetID]int

// Named composite constraint keys that do not map onto a single StatID
// (ATK_TOTAL, ATK_BONUS, HP_TOTAL, DEF_TOTAL, MIN_SCORE) are resolved by
// name rather than StatID; see PassesNamedConstraints.
type NamedConstraints map[string]int

// PassesNamedConstraints checks the full constraints mapping of spec.md §6,
// covering both the plain stat floors (CR, CD, SPD, ATK_PCT, ATK_FLAT) and
// the composite names (ATK_TOTAL, ATK_BONUS, HP_TOTAL, DEF_TOTAL,
// MIN_SCORE) against a computed stats record and its score.
func PassesNamedConstraints(s runes.Stats, constraints NamedConstraints) bool {
	for name, floor := range constraints {
		var value int
		switch name {
		case "CR":
			value = s.CRTotal
		case "CD":
			value = s.CDTotal
		case "SPD":
			value = s.SPDTotal
		case "ATK_TOTAL":
			value = s.ATKTotal
		case "ATK_BONUS":
			value = s.ATKBonus
		case "ATK_PCT":
			value = s.ATKPctTotal
		case "ATK_FLAT":
			value = s.ATKFlatTotal
		case "HP_TOTAL":
			value = s.HPTotal
		case "DEF_TOTAL":
			value = s.DEFTotal
		case "MIN_SCORE":
			if s.Score < float64(floor) {
				return false
			}
			continue
		default:
			// optimizer.Resolve drops unrecognized names before a search
			// runs; ignore any other name defensively rather than reject
			// the build.
			continue
		}
		if value < floor {
			return false
		}
	}
	return true
}

// PassesSetConstraints checks that every required set in setConstraints is
// met by the effective per-set counts, including intangible assignments
// (spec.md P6).
func PassesSetConstraints(counts map[runes.SetID]int, setConstraints SetConstraints) bool {
	for set, required := range setConstraints {
		if counts[set] < required {
			return false
		}
	}
	return true
}

package runes

// SetBonusDefinition declares a set's completion requirement and its stat
// payload. Proc sets (Violent, Despair, Will, Nemesis, Shield, Revenge,
// Destroy, Vampire) carry no stat payload; the engine skips them entirely
// rather than modeling the proc itself (spec.md §1 Non-goals). Swift's
// 2-piece SPD bonus is a percentage of the monster's *base* SPD, not of the
// additive SPD total, and is therefore never expressed through Bonus2/4 —
// the stats engine special-cases it via IsSwift.
type SetBonusDefinition struct {
	Set            SetID
	SetRequirement int // 2 or 4
	Bonus2         map[StatID]int
	Bonus4         map[StatID]int
	IsProc         bool

	// IsSwift marks the one set whose completion bonus is a percentage of
	// the monster's base SPD rather than an additive stat bucket.
	// SwiftSPDPct holds that percentage; it is only consulted when
	// IsSwift is true and count >= SetRequirement.
	IsSwift     bool
	SwiftSPDPct int
}

// DefaultSetBonusTable is the static map from SetID to its bonus
// definition. Stat-affecting numbers below are the commonly cited values
// for each set; proc sets carry none. Callers may supply an overlay map
// instead (see WithOverlay); the default table is never mutated in place.
func DefaultSetBonusTable() map[SetID]SetBonusDefinition {
	return map[SetID]SetBonusDefinition{
		Energy: {Set: Energy, SetRequirement: 2, Bonus2: map[StatID]int{HPPct: 15}},
		Guard:  {Set: Guard, SetRequirement: 2, Bonus2: map[StatID]int{DEFPct: 15}},
		Swift:  {Set: Swift, SetRequirement: 2, IsSwift: true, SwiftSPDPct: 25},
		Blade:  {Set: Blade, SetRequirement: 2, Bonus2: map[StatID]int{CR: 12}},
		Rage:   {Set: Rage, SetRequirement: 4, Bonus4: map[StatID]int{CD: 40}},
		Focus:  {Set: Focus, SetRequirement: 2, Bonus2: map[StatID]int{ACC: 20}},
		Endure: {Set: Endure, SetRequirement: 2, Bonus2: map[StatID]int{RES: 20}},
		Fatal:  {Set: Fatal, SetRequirement: 4, Bonus4: map[StatID]int{ATKPct: 35}},

		Despair: {Set: Despair, SetRequirement: 4, IsProc: true},
		Vampire: {Set: Vampire, SetRequirement: 2, IsProc: true},
		Violent: {Set: Violent, SetRequirement: 4, IsProc: true},
		Nemesis: {Set: Nemesis, SetRequirement: 2, IsProc: true},
		Will:    {Set: Will, SetRequirement: 2, IsProc: true},
		Shield:  {Set: Shield, SetRequirement: 2, IsProc: true},
		Revenge: {Set: Revenge, SetRequirement: 4, IsProc: true},
		Destroy: {Set: Destroy, SetRequirement: 4, IsProc: true},

		Fight:         {Set: Fight, SetRequirement: 2, Bonus2: map[StatID]int{ATKPct: 8}},
		Determination: {Set: Determination, SetRequirement: 2, Bonus2: map[StatID]int{DEFPct: 8}},
		Enhance:       {Set: Enhance, SetRequirement: 2, Bonus2: map[StatID]int{HPPct: 8}},
		Accuracy:      {Set: Accuracy, SetRequirement: 2, Bonus2: map[StatID]int{ACC: 30}},
		Tolerance:     {Set: Tolerance, SetRequirement: 2, Bonus2: map[StatID]int{RES: 30}},

		// Intangible is the wildcard; it grants no bonus of its own and is
		// never completed directly — it is only ever the *target* of an
		// intangible assignment onto one of the sets above.
		Intangible: {Set: Intangible, SetRequirement: 2},
	}
}

// StatAffectingSets returns the sets whose table entry carries a stat
// payload (including Swift), in SetIDs order. These are the candidate
// target sets considered by the intangible resolver alongside any set that
// appears in a caller's set_constraints (spec.md §4.5).
func StatAffectingSets(table map[SetID]SetBonusDefinition) []SetID {
	var out []SetID
	for _, id := range SetIDs {
		if id == Intangible {
			continue
		}
		def, ok := table[id]
		if !ok || def.IsProc {
			continue
		}
		if len(def.Bonus2) > 0 || len(def.Bonus4) > 0 || def.IsSwift {
			out = append(out, id)
		}
	}
	return out
}

// WithOverlay returns a new table that is the default table with entries in
// overlay replacing the corresponding default entry. The default table and
// overlay are never mutated; a fresh map is always returned.
func WithOverlay(overlay map[SetID]SetBonusDefinition) map[SetID]SetBonusDefinition {
	merged := DefaultSetBonusTable()
	for id, def := range overlay {
		merged[id] = def
	}
	return merged
}

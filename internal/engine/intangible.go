package engine

import "github.com/runeforge/optimizer/internal/runes"

// candidateTargets returns the wildcard assignment targets considered by
// the resolver: every stat-affecting set plus any set named in
// setConstraints, deduplicated. Proc sets are excluded because the engine
// does not model procs (spec.md §4.5).
func candidateTargets(bonusTable map[runes.SetID]runes.SetBonusDefinition, setConstraints SetConstraints) []runes.SetID {
	seen := make(map[runes.SetID]bool)
	var out []runes.SetID

	add := func(id runes.SetID) {
		if id == runes.Intangible || seen[id] {
			return
		}
		if def, ok := bonusTable[id]; ok && def.IsProc {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, id := range runes.StatAffectingSets(bonusTable) {
		add(id)
	}
	for id := range setConstraints {
		add(id)
	}
	return out
}

// Resolution is the outcome of resolving intangible-wildcard assignments
// for a fixed six-rune build.
type Resolution struct {
	Assignment map[uint64]runes.SetID
	Stats      runes.Stats
	Score      float64
	Feasible   bool
}

// ResolveIntangible finds the assignment of wildcard runes to real sets
// that maximizes objective while satisfying constraints and
// setConstraints (spec.md §4.5). With the domain-rule cap of at most one
// intangible rune per build (I2) this is a single linear scan over
// candidates plus "unassigned"; the implementation enumerates the full
// |candidates+1|^n cross product so it generalizes unchanged if a caller
// ever relaxes I2.
func ResolveIntangible(
	build [6]runes.Rune,
	base runes.MonsterBaseStats,
	bonusTable map[runes.SetID]runes.SetBonusDefinition,
	objective ObjectiveFunc,
	constraints NamedConstraints,
	setConstraints SetConstraints,
) Resolution {
	var intangibleIdx []int
	for i, r := range build {
		if r.Set == runes.Intangible {
			intangibleIdx = append(intangibleIdx, i)
		}
	}

	if len(intangibleIdx) == 0 {
		return evaluate(build, base, bonusTable, objective, constraints, setConstraints, nil)
	}

	targets := candidateTargets(bonusTable, setConstraints)
	// Each intangible rune may be assigned to one of targets, or left
	// unassigned (represented by the zero SetID, which never equals a
	// real target since 0 is not in runes.SetIDs).
	options := append([]runes.SetID{0}, targets...)

	best := Resolution{Feasible: false}
	assignment := make(map[uint64]runes.SetID, len(intangibleIdx))

	var recurse func(pos int)
	recurse = func(pos int) {
		if pos == len(intangibleIdx) {
			candidate := evaluate(build, base, bonusTable, objective, constraints, setConstraints, assignment)
			if candidate.Feasible && (!best.Feasible || candidate.Score > best.Score) {
				best = candidate
			}
			return
		}
		runeID := build[intangibleIdx[pos]].ID
		for _, target := range options {
			if target != 0 {
				assignment[runeID] = target
			} else {
				delete(assignment, runeID)
			}
			recurse(pos + 1)
		}
		delete(assignment, runeID)
	}
	recurse(0)

	return best
}

// evaluate computes stats for a fixed assignment and tests it against both
// constraint families, copying the assignment map so the caller's mutable
// working map cannot alias into the returned Resolution.
func evaluate(
	build [6]runes.Rune,
	base runes.MonsterBaseStats,
	bonusTable map[runes.SetID]runes.SetBonusDefinition,
	objective ObjectiveFunc,
	constraints NamedConstraints,
	setConstraints SetConstraints,
	assignment map[uint64]runes.SetID,
) Resolution {
	stats := ComputeStats(build, base, assignment, bonusTable)
	score := objective(stats)
	stats.Score = score

	counts := SetCounts(build, assignment)

	feasible := PassesNamedConstraints(stats, constraints) && PassesSetConstraints(counts, setConstraints)

	var assignmentCopy map[uint64]runes.SetID
	if len(assignment) > 0 {
		assignmentCopy = make(map[uint64]runes.SetID, len(assignment))
		for k, v := range assignment {
			assignmentCopy[k] = v
		}
	}

	return Resolution{
		Assignment: assignmentCopy,
		Stats:      stats,
		Score:      score,
		Feasible:   feasible,
	}
}

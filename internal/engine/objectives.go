package engine

import "github.com/runeforge/optimizer/internal/runes"

// ObjectiveFunc is a named scalar function of a stats record (spec.md
// §4.4). The driver is generic over objectives: it never inspects a
// function's body, only calls it and compares the returned float64s.
type ObjectiveFunc func(runes.Stats) float64

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Score is the legacy default objective: SCORE := cd_total*10 + atk_bonus + 200.
func Score(s runes.Stats) float64 {
	return float64(s.CDTotal*10+s.ATKBonus) + 200
}

func atkTotalObjective(s runes.Stats) float64 { return float64(s.ATKTotal) }
func atkBonusObjective(s runes.Stats) float64 { return float64(s.ATKBonus) }
func hpTotalObjective(s runes.Stats) float64  { return float64(s.HPTotal) }
func defTotalObjective(s runes.Stats) float64 { return float64(s.DEFTotal) }
func crObjective(s runes.Stats) float64       { return float64(s.CRTotal) }
func cdObjective(s runes.Stats) float64       { return float64(s.CDTotal) }
func spdObjective(s runes.Stats) float64      { return float64(s.SPDTotal) }

// EHP approximates effective HP: hp_total * (1 + def_total/1000).
func EHP(s runes.Stats) float64 {
	return float64(s.HPTotal) * (1 + float64(s.DEFTotal)/1000)
}

// DamageProxy approximates expected hit damage:
// atk_total * (1 + cd_total/100) * (1 + min(cr_total,100)/100).
func DamageProxy(s runes.Stats) float64 {
	cappedCR := float64(minInt(s.CRTotal, 100))
	return float64(s.ATKTotal) * (1 + float64(s.CDTotal)/100) * (1 + cappedCR/100)
}

// ScoreObjectiveName is the name the driver falls back to when a caller's
// requested objective name is unregistered (spec.md §6, §7 UnknownObjective).
const ScoreObjectiveName = "SCORE"

func defaultObjectives() map[string]ObjectiveFunc {
	return map[string]ObjectiveFunc{
		ScoreObjectiveName: Score,
		"ATK_TOTAL":        atkTotalObjective,
		"ATK_BONUS":        atkBonusObjective,
		"HP_TOTAL":         hpTotalObjective,
		"DEF_TOTAL":        defTotalObjective,
		"CR":               crObjective,
		"CD":               cdObjective,
		"SPD":              spdObjective,
		"EHP":              EHP,
		"DAMAGE_PROXY":     DamageProxy,
	}
}

// ObjectiveRegistry holds the built-in objectives plus any a caller has
// registered. It is constructed fresh per SearchContext (spec.md §9: no
// process-wide mutable registry).
type ObjectiveRegistry struct {
	objectives map[string]ObjectiveFunc
}

// NewObjectiveRegistry returns a registry seeded with the required built-ins.
func NewObjectiveRegistry() *ObjectiveRegistry {
	return &ObjectiveRegistry{objectives: defaultObjectives()}
}

// Register adds or replaces a named objective. The driver is oblivious to
// the function body.
func (r *ObjectiveRegistry) Register(name string, fn ObjectiveFunc) {
	r.objectives[name] = fn
}

// Resolve looks up a named objective, falling back to SCORE on an unknown
// name and reporting that fallback via the second return value.
func (r *ObjectiveRegistry) Resolve(name string) (fn ObjectiveFunc, fellBack bool) {
	if fn, ok := r.objectives[name]; ok {
		return fn, false
	}
	return r.objectives[ScoreObjectiveName], true
}

// IsScoreFamily reports whether name denotes the legacy SCORE objective,
// the only family the pruning oracle's scalar upper bound is defined over
// (spec.md §4.6).
func IsScoreFamily(name string) bool {
	return name == ScoreObjectiveName
}

// Names returns every registered objective name, for API discovery
// (SPEC_FULL.md §4.11 GET /api/objectives).
func (r *ObjectiveRegistry) Names() []string {
	names := make([]string, 0, len(r.objectives))
	for name := range r.objectives {
		names = append(names, name)
	}
	return names
}

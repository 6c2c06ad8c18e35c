package optimizer

import (
	"github.com/runeforge/optimizer/internal/engine"
	"github.com/runeforge/optimizer/internal/runes"
	"github.com/runeforge/optimizer/internal/search"
)

// SubWire is the wire shape of a single substat roll.
type SubWire struct {
	Stat  string `json:"stat"`
	Value int    `json:"value"`
}

// RuneWire is the wire shape of a single inventory rune (spec.md §6 request
// runes list). Unresolvable set/stat names are dropped silently during
// decoding rather than aborting the whole request — the core treats any
// rune it cannot place as simply absent from its slot's candidate pool.
type RuneWire struct {
	RuneID      uint64    `json:"rune_id"`
	Slot        int       `json:"slot"`
	Set         string    `json:"set"`
	MainStat    string    `json:"main_stat"`
	MainValue   int       `json:"main_value"`
	PrefixStat  string    `json:"prefix_stat,omitempty"`
	PrefixValue int       `json:"prefix_value,omitempty"`
	Subs        []SubWire `json:"subs,omitempty"`
}

// Request is the wire envelope of spec.md §6's search_builds, decoded
// straight off the JSON body of POST /api/optimize (SPEC_FULL.md §6).
type Request struct {
	Runes          []RuneWire     `json:"runes"`
	BaseATK        int            `json:"base_atk"`
	BaseSPD        int            `json:"base_spd"`
	BaseHP         int            `json:"base_hp"`
	BaseDEF        int            `json:"base_def"`
	BaseCR         int            `json:"base_cr"`
	BaseCD         int            `json:"base_cd"`
	Constraints    map[string]int `json:"constraints"`
	SetConstraints map[string]int `json:"set_constraints"`
	Objective      string         `json:"objective"`
	TopN           int            `json:"top_n"`
	ReturnPolicy   string         `json:"return_policy"`
	ReturnAll      bool           `json:"return_all"`
	Mode           string         `json:"mode"`
	CacheBust      bool           `json:"cache_bust"`
}

const (
	defaultBaseCR = 15
	defaultBaseCD = 50
	defaultTopN   = 10
	maxTopN       = 200
)

// recognizedConstraintNames is the closed set of stat-floor names
// search_builds accepts (spec.md §6); anything else is UnknownStatName.
var recognizedConstraintNames = map[string]bool{
	"CR": true, "CD": true, "SPD": true,
	"ATK_TOTAL": true, "ATK_BONUS": true, "ATK_PCT": true, "ATK_FLAT": true,
	"HP_TOTAL": true, "DEF_TOTAL": true, "MIN_SCORE": true,
}

// ResolveStatConstraint maps the subset of recognized constraint names that
// correspond to a single raw stat bucket to its StatID. The composite names
// (ATK_TOTAL, ATK_BONUS, HP_TOTAL, DEF_TOTAL, MIN_SCORE) have no single
// StatID and resolve to (0, false) even though they are recognized.
func ResolveStatConstraint(name string) (runes.StatID, bool) {
	switch name {
	case "CR":
		return runes.CR, true
	case "CD":
		return runes.CD, true
	case "SPD":
		return runes.SPD, true
	case "ATK_PCT":
		return runes.ATKPct, true
	case "ATK_FLAT":
		return runes.ATK, true
	default:
		return 0, false
	}
}

// ResolveSetConstraint maps a wire set name to its SetID (spec.md §7
// UnknownSetName).
func ResolveSetConstraint(name string) (runes.SetID, bool) {
	return runes.SetByName(name)
}

// ResolveObjective resolves a wire objective name against registry,
// falling back to SCORE and reporting UnknownObjective (spec.md §7).
func ResolveObjective(registry *engine.ObjectiveRegistry, name string) (engine.ObjectiveFunc, string, bool) {
	fn, fellBack := registry.Resolve(name)
	resolvedName := name
	if fellBack {
		resolvedName = engine.ScoreObjectiveName
	}
	return fn, resolvedName, fellBack
}

func decodeRune(w RuneWire) (runes.Rune, bool) {
	set, ok := runes.SetByName(w.Set)
	if !ok {
		return runes.Rune{}, false
	}
	mainStat, ok := runes.StatByName(w.MainStat)
	if !ok {
		return runes.Rune{}, false
	}
	r := runes.Rune{
		ID:   w.RuneID,
		Slot: runes.Slot(w.Slot),
		Set:  set,
		Main: runes.StatRoll{Stat: mainStat, Value: w.MainValue},
	}
	if w.PrefixStat != "" {
		if prefixStat, ok := runes.StatByName(w.PrefixStat); ok {
			r.Prefix = &runes.StatRoll{Stat: prefixStat, Value: w.PrefixValue}
		}
	}
	for _, sub := range w.Subs {
		if stat, ok := runes.StatByName(sub.Stat); ok {
			r.Subs = append(r.Subs, runes.SubStat{Stat: stat, Value: sub.Value})
		}
	}
	return r, true
}

// Resolve turns a wire Request into a fully name-resolved search.Request,
// collecting every UnknownStatName / UnknownSetName / UnknownObjective /
// invalid-shape diagnostic along the way (spec.md §7, §4.8). It never
// returns an error: a request that resolves to nothing useful simply
// produces a search.Request that search.Search will report as
// empty_inventory_for_slot or infeasible_constraints.
func Resolve(req Request, registry *engine.ObjectiveRegistry) (search.Request, []Diagnostic) {
	var diagnostics []Diagnostic

	decoded := make([]runes.Rune, 0, len(req.Runes))
	for _, w := range req.Runes {
		if r, ok := decodeRune(w); ok {
			decoded = append(decoded, r)
		}
	}

	base := runes.MonsterBaseStats{
		ATK: req.BaseATK,
		SPD: req.BaseSPD,
		HP:  req.BaseHP,
		DEF: req.BaseDEF,
		CR:  req.BaseCR,
		CD:  req.BaseCD,
	}
	if base.CR == 0 {
		base.CR = defaultBaseCR
	}
	if base.CD == 0 {
		base.CD = defaultBaseCD
	}

	namedConstraints := make(engine.NamedConstraints, len(req.Constraints))
	for name, floor := range req.Constraints {
		if !recognizedConstraintNames[name] {
			diagnostics = append(diagnostics, newDiagnostic(TagUnknownStatName, name))
			continue
		}
		namedConstraints[name] = floor
	}

	setConstraints := make(engine.SetConstraints, len(req.SetConstraints))
	for name, count := range req.SetConstraints {
		id, ok := ResolveSetConstraint(name)
		if !ok {
			diagnostics = append(diagnostics, newDiagnostic(TagUnknownSetName, name))
			continue
		}
		setConstraints[id] = count
	}

	objectiveFn, objectiveName, fellBack := ResolveObjective(registry, req.Objective)
	if fellBack && req.Objective != "" {
		diagnostics = append(diagnostics, newDiagnostic(TagUnknownObjective, req.Objective))
	}

	topN := req.TopN
	if topN < 1 {
		diagnostics = append(diagnostics, newDiagnostic(TagInvalidRequest, "top_n must be >= 1, defaulting"))
		topN = defaultTopN
	}
	if topN > maxTopN {
		topN = maxTopN
	}

	mode := search.Mode(req.Mode)
	if mode != search.ModeExhaustive && mode != search.ModeFast {
		if req.Mode != "" {
			diagnostics = append(diagnostics, newDiagnostic(TagInvalidRequest, "unknown mode "+req.Mode+", defaulting to exhaustive"))
		}
		mode = search.ModeExhaustive
	}

	returnPolicy := search.ReturnPolicy(req.ReturnPolicy)
	if returnPolicy != search.ReturnTopN && returnPolicy != search.ReturnAllAtBest {
		if req.ReturnPolicy != "" {
			diagnostics = append(diagnostics, newDiagnostic(TagInvalidRequest, "unknown return_policy "+req.ReturnPolicy+", defaulting to top_n"))
		}
		returnPolicy = search.ReturnTopN
	}

	return search.Request{
		Runes:          decoded,
		Base:           base,
		Constraints:    namedConstraints,
		SetConstraints: setConstraints,
		ObjectiveName:  objectiveName,
		Objective:      objectiveFn,
		TopN:           topN,
		ReturnPolicy:   returnPolicy,
		ReturnAll:      req.ReturnAll,
		Mode:           mode,
	}, diagnostics
}

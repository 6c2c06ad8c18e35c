package optimizer

import (
	"fmt"

	"github.com/runeforge/optimizer/internal/runes"
)

// SlotWire is the wire shape of one occupied slot in a build record
// (spec.md §6 build record shape).
type SlotWire struct {
	RuneID uint64   `json:"rune_id"`
	Set    string   `json:"set_name"`
	Main   string   `json:"main"`
	Prefix *string  `json:"prefix"`
	Subs   []string `json:"subs"`
}

// BuildWire is the wire shape of a single returned build.
type BuildWire struct {
	Score       float64 `json:"score"`
	CRTotal     int     `json:"cr_total"`
	CDTotal     int     `json:"cd_total"`
	ATKPctTotal int     `json:"atk_pct_total"`
	ATKFlat     int     `json:"atk_flat_total"`
	ATKBonus    int     `json:"atk_bonus"`
	ATKTotal    int     `json:"atk_total"`
	HPPctTotal  int     `json:"hp_pct_total"`
	HPTotal     int     `json:"hp_total"`
	DEFPctTotal int     `json:"def_pct_total"`
	DEFTotal    int     `json:"def_total"`
	SPDTotal    int     `json:"spd_total"`

	IntangibleAssignment string           `json:"intangible_assignment"`
	Slots                map[int]SlotWire `json:"slots"`
}

// Response is the full JSON envelope of POST /api/optimize
// (SPEC_FULL.md §6).
type Response struct {
	Builds      []BuildWire  `json:"builds"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Cache       CacheInfo    `json:"cache"`
	TookMs      int64        `json:"took_ms"`
}

// CacheInfo reports whether a response came from the result cache.
type CacheInfo struct {
	Hit bool   `json:"hit"`
	Key string `json:"key"`
}

// EncodeBuild renders a runes.Build into its wire record.
func EncodeBuild(b runes.Build) BuildWire {
	wire := BuildWire{
		Score:                b.Stats.Score,
		CRTotal:              b.Stats.CRTotal,
		CDTotal:              b.Stats.CDTotal,
		ATKPctTotal:          b.Stats.ATKPctTotal,
		ATKFlat:              b.Stats.ATKFlatTotal,
		ATKBonus:             b.Stats.ATKBonus,
		ATKTotal:             b.Stats.ATKTotal,
		HPPctTotal:           b.Stats.HPPctTotal,
		HPTotal:              b.Stats.HPTotal,
		DEFPctTotal:          b.Stats.DEFPctTotal,
		DEFTotal:             b.Stats.DEFTotal,
		SPDTotal:             b.Stats.SPDTotal,
		IntangibleAssignment: "none",
		Slots:                make(map[int]SlotWire, 6),
	}
	for _, set := range b.IntangibleAssignment {
		wire.IntangibleAssignment = set.String()
		break
	}

	for _, slot := range runes.Slots {
		r := b.Runes[slot]
		sw := SlotWire{
			RuneID: r.ID,
			Set:    r.Set.String(),
			Main:   fmt.Sprintf("%s %d", r.Main.Stat.String(), r.Main.Value),
		}
		if r.Prefix != nil {
			prefix := fmt.Sprintf("%s %d", r.Prefix.Stat.String(), r.Prefix.Value)
			sw.Prefix = &prefix
		}
		for _, sub := range r.Subs {
			sw.Subs = append(sw.Subs, fmt.Sprintf("%s %d", sub.Stat.String(), sub.Value))
		}
		wire.Slots[int(slot)] = sw
	}
	return wire
}

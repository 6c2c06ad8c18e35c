// cmd/bench runs search_builds against a synthetic rune inventory and
// prints timing and result-count diagnostics. It exists for development
// use only; it is not part of the public API (SPEC_FULL.md §4.12).
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/runeforge/optimizer/internal/engine"
	"github.com/runeforge/optimizer/internal/log"
	"github.com/runeforge/optimizer/internal/runes"
	"github.com/runeforge/optimizer/internal/search"
)

const defaultRunesPerSlot = 20

func main() {
	log.Initialize()

	perSlot := defaultRunesPerSlot
	if v := os.Getenv("BENCH_RUNES_PER_SLOT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			perSlot = parsed
		}
	}

	seed := int64(42)
	if v := os.Getenv("BENCH_SEED"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = parsed
		}
	}

	inventory := syntheticInventory(perSlot, seed)
	base := runes.MonsterBaseStats{HP: 10000, ATK: 1200, DEF: 800, SPD: 101, CR: 15, CD: 50}
	registry := engine.NewObjectiveRegistry()
	objective, _ := registry.Resolve(engine.ScoreObjectiveName)

	log.Info("bench starting", "runes_per_slot", perSlot, "total_runes", len(inventory), "seed", seed)

	runMode(inventory, base, objective, search.ModeExhaustive, 10)
	runMode(inventory, base, objective, search.ModeFast, 10)
}

func runMode(inventory []runes.Rune, base runes.MonsterBaseStats, objective engine.ObjectiveFunc, mode search.Mode, topN int) {
	req := search.Request{
		Runes:         inventory,
		Base:          base,
		ObjectiveName: engine.ScoreObjectiveName,
		Objective:     objective,
		TopN:          topN,
		ReturnPolicy:  search.ReturnTopN,
		Mode:          mode,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	started := time.Now()
	result := search.Search(ctx, req)
	elapsed := time.Since(started)

	var best float64
	if len(result.Builds) > 0 {
		best = result.Builds[0].Stats.Score
	}

	log.Info("bench run complete",
		"mode", string(mode),
		"elapsed", elapsed.String(),
		"builds_returned", len(result.Builds),
		"best_score", best,
		"diagnostics", result.Diagnostics)

	fmt.Printf("%-10s  elapsed=%-12s  builds=%-4d  best_score=%.2f\n", mode, elapsed, len(result.Builds), best)
}

// syntheticInventory builds a deterministic-per-seed inventory of perSlot
// runes in each of the six slots, spread across a handful of set families
// so set-bonus pruning has something to chew on.
func syntheticInventory(perSlot int, seed int64) []runes.Rune {
	rng := rand.New(rand.NewSource(seed))
	sets := []runes.SetID{runes.Rage, runes.Blade, runes.Fatal, runes.Swift, runes.Focus, runes.Violent}
	mainStatsBySlot := map[runes.Slot][]runes.StatID{
		runes.Slot1: {runes.ATK},
		runes.Slot2: {runes.ATK, runes.ATKPct, runes.HP, runes.HPPct, runes.DEF, runes.DEFPct},
		runes.Slot3: {runes.DEF},
		runes.Slot4: {runes.ATK, runes.ATKPct, runes.HP, runes.HPPct, runes.DEF, runes.DEFPct, runes.SPD},
		runes.Slot5: {runes.HP},
		runes.Slot6: {runes.ATK, runes.ATKPct, runes.HP, runes.HPPct, runes.DEF, runes.DEFPct},
	}
	subCandidates := []runes.StatID{runes.HP, runes.ATK, runes.DEF, runes.SPD, runes.CR, runes.CD, runes.RES, runes.ACC}

	var id uint64
	var inventory []runes.Rune
	for _, slot := range runes.Slots {
		mains := mainStatsBySlot[slot]
		for i := 0; i < perSlot; i++ {
			id++
			main := mains[rng.Intn(len(mains))]
			r := runes.Rune{
				ID:   id,
				Slot: slot,
				Set:  sets[rng.Intn(len(sets))],
				Main: runes.StatRoll{Stat: main, Value: 40 + rng.Intn(60)},
			}
			subCount := 2 + rng.Intn(3)
			used := map[runes.StatID]bool{main: true}
			for len(r.Subs) < subCount {
				stat := subCandidates[rng.Intn(len(subCandidates))]
				if used[stat] {
					continue
				}
				used[stat] = true
				r.Subs = append(r.Subs, runes.SubStat{Stat: stat, Value: 5 + rng.Intn(20)})
			}
			inventory = append(inventory, r)
		}
	}
	return inventory
}

// Package search implements the pruning oracle (spec.md §4.6) and the
// branch-and-bound search driver (§4.7) that together assemble the
// highest-scoring six-rune loadouts out of a candidate inventory.
package search

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/runeforge/optimizer/internal/engine"
	"github.com/runeforge/optimizer/internal/runes"
)

// Mode selects between the sound, untruncated exhaustive search and the
// optionally-truncated fast search of spec.md §4.7.
type Mode string

const (
	ModeExhaustive Mode = "exhaustive"
	ModeFast       Mode = "fast"
)

// ReturnPolicy selects which of the top-K results are surfaced.
type ReturnPolicy string

const (
	ReturnTopN      ReturnPolicy = "top_n"
	ReturnAllAtBest ReturnPolicy = "all_at_best"
)

// Diagnostic tags for the driver-level failure kinds of spec.md §7. The
// name-resolution failure kinds (UnknownObjective, UnknownSetName,
// UnknownStatName) are resolved one layer up, in internal/optimizer, before
// a Request ever reaches Search.
const (
	TagEmptyInventoryForSlot = "empty_inventory_for_slot"
	TagInfeasibleConstraints = "infeasible_constraints"
	TagCancelled             = "cancelled"
)

// defaultFastTruncate is the per-slot candidate cap applied in fast mode
// when a caller does not specify one.
const defaultFastTruncate = 24

// Request is the fully name-resolved input to Search: constraint and
// objective names have already been mapped to ids/functions by
// internal/optimizer (spec.md §4.8) by the time a Request is built.
type Request struct {
	Runes            []runes.Rune
	Base             runes.MonsterBaseStats
	Constraints      engine.NamedConstraints
	SetConstraints   engine.SetConstraints
	ObjectiveName    string
	Objective        engine.ObjectiveFunc
	TopN             int
	ReturnPolicy     ReturnPolicy
	ReturnAll        bool
	Mode             Mode
	BonusTable       map[runes.SetID]runes.SetBonusDefinition // nil => runes.DefaultSetBonusTable()
	FastModeTruncate int                                      // 0 => defaultFastTruncate
}

// Result is the outcome of a single Search call.
type Result struct {
	Builds      []runes.Build
	Diagnostics []string
}

// Search is the public callable of spec.md §6, search_builds, already
// name-resolved. It groups legal candidates per slot, precomputes the
// pruning oracle, and runs a branch-and-bound DFS fanned out across
// goroutines on the outermost slot's candidates (spec.md §4.10, §5),
// merging each worker's private top-K once every worker has finished, so
// no lock is taken.
func Search(ctx context.Context, req Request) Result {
	bonusTable := req.BonusTable
	if bonusTable == nil {
		bonusTable = runes.DefaultSetBonusTable()
	}
	objective := req.Objective
	if objective == nil {
		objective = engine.Score
	}

	candidatesPerSlot := make(map[runes.Slot][]runes.Rune, len(runes.Slots))
	for _, slot := range runes.Slots {
		candidatesPerSlot[slot] = nil
	}
	for _, r := range req.Runes {
		if runes.ValidateRune(r) {
			candidatesPerSlot[r.Slot] = append(candidatesPerSlot[r.Slot], r)
		}
	}

	for _, slot := range runes.Slots {
		if len(candidatesPerSlot[slot]) == 0 {
			return Result{Diagnostics: []string{TagEmptyInventoryForSlot}}
		}
		sort.Slice(candidatesPerSlot[slot], func(i, j int) bool {
			return candidatesPerSlot[slot][i].ID < candidatesPerSlot[slot][j].ID
		})
	}

	if req.Mode == ModeFast {
		truncate := req.FastModeTruncate
		if truncate <= 0 {
			truncate = defaultFastTruncate
		}
		for _, slot := range runes.Slots {
			candidatesPerSlot[slot] = truncateByHeuristic(candidatesPerSlot[slot], truncate)
		}
	}

	order := append([]runes.Slot{}, runes.Slots...)
	sort.SliceStable(order, func(i, j int) bool {
		return len(candidatesPerSlot[order[i]]) < len(candidatesPerSlot[order[j]])
	})

	scoreFamily := engine.IsScoreFamily(req.ObjectiveName)
	oracle := NewOracle(order, candidatesPerSlot, bonusTable, req.Base, scoreFamily)

	capacity := req.TopN
	if capacity <= 0 {
		capacity = 1
	}

	outerSlot := order[0]
	outerCandidates := candidatesPerSlot[outerSlot]

	workerCount := runtime.GOMAXPROCS(0)
	if workerCount > len(outerCandidates) {
		workerCount = len(outerCandidates)
	}
	if workerCount < 1 {
		workerCount = 1
	}
	chunks := partitionRoundRobin(outerCandidates, workerCount)

	topKs := make([]*TopK, workerCount)
	lists := make([]*[]runes.Build, workerCount)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workerCount; w++ {
		w := w
		chunk := chunks[w]
		var list []runes.Build
		lists[w] = &list
		if !req.ReturnAll {
			topKs[w] = NewTopK(capacity)
		}

		g.Go(func() error {
			worker := &worker{
				req:               req,
				candidatesPerSlot: candidatesPerSlot,
				order:             order,
				oracle:            oracle,
				bonusTable:        bonusTable,
				objective:         objective,
				scoreFamily:       scoreFamily,
				topK:              topKs[w],
				list:              lists[w],
				ctx:               gctx,
			}
			for _, r := range chunk {
				if gctx.Err() != nil {
					return nil
				}
				worker.run(r)
			}
			return nil
		})
	}
	_ = g.Wait()
	cancelled := ctx.Err() != nil

	var builds []runes.Build
	if req.ReturnAll {
		var total int
		for _, l := range lists {
			total += len(*l)
		}
		builds = make([]runes.Build, 0, total)
		for _, l := range lists {
			builds = append(builds, *l...)
		}
		sort.Slice(builds, func(i, j int) bool { return betterBuild(builds[i], builds[j]) })
	} else {
		merged := MergeTopK(capacity, topKs...)
		builds = merged.SortedDescending()
	}

	var diagnostics []string
	if len(builds) == 0 {
		diagnostics = append(diagnostics, TagInfeasibleConstraints)
	}
	if cancelled {
		diagnostics = append(diagnostics, TagCancelled)
	}

	if req.ReturnPolicy == ReturnAllAtBest && len(builds) > 0 {
		best := builds[0].Stats.Score
		filtered := make([]runes.Build, 0, len(builds))
		for _, b := range builds {
			if b.Stats.Score == best {
				filtered = append(filtered, b)
			}
		}
		builds = filtered
	}

	return Result{Builds: builds, Diagnostics: diagnostics}
}

// worker runs one independent subtree of the DFS (everything below a single
// choice for the outermost slot) and owns its own private sink — either a
// bounded TopK or, under ReturnAll, a plain growable slice — so no locking
// is needed on the hot recursive path (spec.md §5).
type worker struct {
	req               Request
	candidatesPerSlot map[runes.Slot][]runes.Rune
	order             []runes.Slot
	oracle            *Oracle
	bonusTable        map[runes.SetID]runes.SetBonusDefinition
	objective         engine.ObjectiveFunc
	scoreFamily       bool
	topK              *TopK
	list              *[]runes.Build
	ctx               context.Context
}

func (w *worker) offer(b runes.Build) {
	if w.topK != nil {
		w.topK.Offer(b)
		return
	}
	*w.list = append(*w.list, b)
}

// run drives the DFS for a single fixed choice of the outermost slot's
// rune, following the pseudocode of spec.md §4.7 exactly.
func (w *worker) run(first runes.Rune) {
	var arr [6]runes.Rune
	arr[0] = first
	w.recurse(1, &arr)
}

func (w *worker) recurse(depth int, arr *[6]runes.Rune) {
	if w.ctx.Err() != nil {
		return
	}
	chosen := arr[:depth]

	if depth == 6 {
		var build [6]runes.Rune
		copy(build[:], chosen)
		runeMap := runeMapBySlot(build)
		if !runes.ValidateBuild(runeMap) {
			return
		}
		res := engine.ResolveIntangible(build, w.req.Base, w.bonusTable, w.objective, w.req.Constraints, w.req.SetConstraints)
		if res.Feasible && res.Score > 0 {
			w.offer(runes.Build{
				Runes:                runeMap,
				IntangibleAssignment: res.Assignment,
				Stats:                res.Stats,
			})
		}
		return
	}

	if !w.oracle.Feasible(chosen, depth, w.req.Constraints, w.req.SetConstraints) {
		return
	}
	if !w.req.ReturnAll && w.scoreFamily && w.topK.Full() {
		if w.oracle.UpperBound(chosen, depth) <= w.topK.MinScore() {
			return
		}
	}

	slot := w.order[depth]
	for _, r := range w.candidatesPerSlot[slot] {
		arr[depth] = r
		w.recurse(depth+1, arr)
	}
}

func runeMapBySlot(build [6]runes.Rune) map[runes.Slot]runes.Rune {
	m := make(map[runes.Slot]runes.Rune, 6)
	for _, r := range build {
		m[r.Slot] = r
	}
	return m
}

// heuristicWeight is the cheap per-rune score fast mode uses to truncate a
// slot's candidate list: the raw sum of every stat value the rune rolls,
// ignoring set bonuses entirely (spec.md §4.7 "cheap per-rune heuristic").
func heuristicWeight(r runes.Rune) int {
	total := r.Main.Value
	if r.Prefix != nil {
		total += r.Prefix.Value
	}
	for _, s := range r.Subs {
		total += s.Value
	}
	return total
}

func truncateByHeuristic(candidates []runes.Rune, limit int) []runes.Rune {
	if len(candidates) <= limit {
		return candidates
	}
	ranked := append([]runes.Rune{}, candidates...)
	sort.Slice(ranked, func(i, j int) bool {
		wi, wj := heuristicWeight(ranked[i]), heuristicWeight(ranked[j])
		if wi != wj {
			return wi > wj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked[:limit]
}

// partitionRoundRobin splits candidates into workerCount roughly-even
// chunks so no single worker is starved when the outer slot's runes have
// very different subtree sizes.
func partitionRoundRobin(candidates []runes.Rune, workerCount int) [][]runes.Rune {
	chunks := make([][]runes.Rune, workerCount)
	for i, r := range candidates {
		w := i % workerCount
		chunks[w] = append(chunks[w], r)
	}
	return chunks
}

package optimizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/runeforge/optimizer/internal/runes"
	"github.com/runeforge/optimizer/internal/search"
)

// CacheKey computes the canonical hash of a resolved search.Request used by
// internal/cache to memoize search_builds calls (SPEC_FULL.md §4.9). Two
// structurally identical requests hash identically regardless of rune list
// order or map iteration order: rune ids, constraint names, and set
// constraint names are all sorted before hashing.
func CacheKey(req search.Request) string {
	var b strings.Builder

	ids := make([]uint64, len(req.Runes))
	for i, r := range req.Runes {
		ids[i] = r.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprintf(&b, "r%d;", id)
	}

	fmt.Fprintf(&b, "base:%d,%d,%d,%d,%d,%d;", req.Base.ATK, req.Base.SPD, req.Base.HP, req.Base.DEF, req.Base.CR, req.Base.CD)

	constraintNames := make([]string, 0, len(req.Constraints))
	for name := range req.Constraints {
		constraintNames = append(constraintNames, name)
	}
	sort.Strings(constraintNames)
	for _, name := range constraintNames {
		fmt.Fprintf(&b, "c:%s=%d;", name, req.Constraints[name])
	}

	setNames := make([]string, 0, len(req.SetConstraints))
	for set := range req.SetConstraints {
		setNames = append(setNames, runes.SetID(set).String())
	}
	sort.Strings(setNames)
	for _, name := range setNames {
		id, _ := runes.SetByName(name)
		fmt.Fprintf(&b, "sc:%s=%d;", name, req.SetConstraints[id])
	}

	fmt.Fprintf(&b, "obj:%s;topn:%d;policy:%s;all:%t;mode:%s;",
		req.ObjectiveName, req.TopN, req.ReturnPolicy, req.ReturnAll, req.Mode)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

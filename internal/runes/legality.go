package runes

// slotMainStat reports the main stat every rune in a slot is forced to
// carry (Slots 1, 3, 5), or (0, false) where multiple main stats are legal.
func slotMainStat(slot Slot) (StatID, bool) {
	switch slot {
	case Slot1:
		return ATK, true
	case Slot3:
		return DEF, true
	case Slot5:
		return HP, true
	default:
		return 0, false
	}
}

// slotForbiddenMainStats lists main stats that slot legality rules out even
// though the slot otherwise allows more than one main stat (spec.md §4.1).
func slotForbiddenMainStats(slot Slot) []StatID {
	switch slot {
	case Slot2:
		return []StatID{CD, CR, RES, ACC}
	case Slot4:
		return []StatID{SPD, RES, ACC}
	case Slot6:
		return []StatID{SPD, CD, CR}
	default:
		return nil
	}
}

// slotForbiddenSubOrPrefixStats lists stats that may never appear as a
// substat or prefix on a rune in the given slot, beyond the rune's own main
// stat (which is always forbidden as a dup).
func slotForbiddenSubOrPrefixStats(slot Slot) []StatID {
	switch slot {
	case Slot1:
		return []StatID{DEF, DEFPct}
	case Slot3:
		return []StatID{ATK, ATKPct}
	default:
		return nil
	}
}

// ValidateRune applies the slot-main restriction table and the
// substat/prefix restrictions of spec.md §4.1. It does not check anything
// about a rune's relationship to other runes in a build.
func ValidateRune(r Rune) bool {
	if r.Slot < Slot1 || r.Slot > Slot6 {
		return false
	}
	if !r.Main.Stat.Valid() {
		return false
	}
	if fixed, ok := slotMainStat(r.Slot); ok && r.Main.Stat != fixed {
		return false
	}
	for _, forbidden := range slotForbiddenMainStats(r.Slot) {
		if r.Main.Stat == forbidden {
			return false
		}
	}

	forbiddenDup := slotForbiddenSubOrPrefixStats(r.Slot)

	if r.Prefix != nil {
		if !r.Prefix.Stat.Valid() {
			return false
		}
		if r.Prefix.Stat == r.Main.Stat {
			return false
		}
		for _, f := range forbiddenDup {
			if r.Prefix.Stat == f {
				return false
			}
		}
	}

	if len(r.Subs) > 4 {
		return false
	}
	for _, sub := range r.Subs {
		if !sub.Stat.Valid() {
			return false
		}
		if sub.Stat == r.Main.Stat {
			return false
		}
		for _, f := range forbiddenDup {
			if sub.Stat == f {
				return false
			}
		}
	}

	return true
}

// ValidateBuild checks invariant I1 (one rune per slot, six distinct ids),
// the at-most-one-intangible domain rule I2, and that every rune is
// individually legal (I3). The search driver may assume its candidate pool
// is already per-rune legal, in which case this reduces to slot uniqueness
// and the intangible count (spec.md §4.1).
func ValidateBuild(build map[Slot]Rune) bool {
	if len(build) != 6 {
		return false
	}

	seenIDs := make(map[uint64]bool, 6)
	intangibleCount := 0

	for _, slot := range Slots {
		r, ok := build[slot]
		if !ok || r.Slot != slot {
			return false
		}
		if seenIDs[r.ID] {
			return false
		}
		seenIDs[r.ID] = true

		if !ValidateRune(r) {
			return false
		}
		if r.Set == Intangible {
			intangibleCount++
		}
	}

	return intangibleCount <= 1
}

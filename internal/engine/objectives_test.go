package engine

import (
	"testing"

	"github.com/runeforge/optimizer/internal/runes"
)

func sampleStats() runes.Stats {
	return runes.Stats{
		CRTotal: 75, CDTotal: 90, ATKTotal: 2000, ATKBonus: 1000,
		HPTotal: 20000, DEFTotal: 1200,
	}
}

func TestBuiltinObjectiveFormulas(t *testing.T) {
	s := sampleStats()
	cases := []struct {
		name string
		want float64
	}{
		{"SCORE", float64(90*10+1000) + 200},
		{"ATK_TOTAL", 2000},
		{"ATK_BONUS", 1000},
		{"HP_TOTAL", 20000},
		{"DEF_TOTAL", 1200},
		{"CR", 75},
		{"CD", 90},
	}
	reg := NewObjectiveRegistry()
	for _, tt := range cases {
		fn, fellBack := reg.Resolve(tt.name)
		if fellBack {
			t.Errorf("%s: unexpectedly fell back to SCORE", tt.name)
		}
		if got := fn(s); got != tt.want {
			t.Errorf("%s(%+v) = %v, want %v", tt.name, s, got, tt.want)
		}
	}
}

func TestEHPAndDamageProxy(t *testing.T) {
	s := runes.Stats{HPTotal: 10000, DEFTotal: 1000, ATKTotal: 2000, CDTotal: 100, CRTotal: 150}
	if got, want := EHP(s), 10000*(1+1000.0/1000); got != want {
		t.Errorf("EHP = %v, want %v", got, want)
	}
	// CR is capped at 100 inside DamageProxy even though the raw total is 150.
	want := 2000.0 * (1 + 100.0/100) * (1 + 100.0/100)
	if got := DamageProxy(s); got != want {
		t.Errorf("DamageProxy = %v, want %v (CR capped at 100)", got, want)
	}
}

func TestResolveUnknownObjectiveFallsBackToScore(t *testing.T) {
	reg := NewObjectiveRegistry()
	fn, fellBack := reg.Resolve("NOT_A_REAL_OBJECTIVE")
	if !fellBack {
		t.Fatal("expected fallback flag for unknown objective name")
	}
	s := sampleStats()
	if fn(s) != Score(s) {
		t.Error("fallback objective must behave exactly like SCORE")
	}
}

func TestRegisterCustomObjective(t *testing.T) {
	reg := NewObjectiveRegistry()
	reg.Register("DOUBLE_ATK", func(s runes.Stats) float64 { return float64(s.ATKTotal) * 2 })

	fn, fellBack := reg.Resolve("DOUBLE_ATK")
	if fellBack {
		t.Fatal("registered objective must resolve without falling back")
	}
	if got, want := fn(sampleStats()), 4000.0; got != want {
		t.Errorf("DOUBLE_ATK = %v, want %v", got, want)
	}
}

func TestIsScoreFamily(t *testing.T) {
	if !IsScoreFamily("SCORE") {
		t.Error("SCORE must be in the score family")
	}
	if IsScoreFamily("EHP") {
		t.Error("EHP must not be in the score family")
	}
}

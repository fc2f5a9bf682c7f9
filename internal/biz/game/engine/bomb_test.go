package engine

import (
	"testing"

	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestMultiplierArithmetic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		baseWin := decimal.New(rapid.Int64Range(0, 10_000_000).Draw(t, "cents"), -2)
		total := rapid.IntRange(0, 5000).Draw(t, "total")
		newWin := ApplyMultiplier(baseWin, total)
		if total > 0 && baseWin.IsPositive() {
			if err := CheckMultiplier(baseWin, total, newWin); err != nil {
				t.Fatal(err)
			}
		} else if !newWin.Equal(baseWin) {
			t.Fatalf("no multiplier must leave the win unchanged: %s -> %s", baseWin, newWin)
		}
	})
}

func TestCheckMultiplierDetectsDrift(t *testing.T) {
	err := CheckMultiplier(d("1.25"), 4, d("5.2"))
	if err == nil || !base.IsInvariant(err) {
		t.Fatalf("5.2 != 1.25x4 must be flagged, got %v", err)
	}
	if err := CheckMultiplier(d("1.25"), 4, d("5.04")); err != nil {
		t.Errorf("5.04 rounds to 5.0: %v", err)
	}
}

func fullBoard(rows []int, name string) *base.Board {
	b := base.NewBoard(rows, false)
	b.Each(func(_ base.Pos, s *base.Symbol) { s.Name = name })
	return b
}

func TestInjectBombsRespectsConsumed(t *testing.T) {
	st := &mathcfg.BombSettings{
		Appearance: 1,
		Counts:     base.NewWeighted(map[int]int{4: 1}),
		Mults:      base.NewWeighted(map[int]int{2: 1, 10: 1}),
	}
	sym := mathcfg.Symbols{Scatter: "S", SuperScatter: "BS", Bomb: "M"}
	rng := base.NewRNG(5)

	for i := 0; i < 500; i++ {
		b := fullBoard([]int{5, 5, 5, 5, 5, 5}, "L1")
		// 只留 2 个可用格子
		b.Each(func(p base.Pos, s *base.Symbol) { s.Consumed = true })
		b.At(base.Pos{Reel: 1, Row: 1}).Consumed = false
		b.At(base.Pos{Reel: 4, Row: 3}).Consumed = false

		placed := InjectBombs(rng, b, st, sym, true)
		if len(placed) != 2 {
			t.Fatalf("want all 2 free cells used, got %d", len(placed))
		}
		for _, p := range placed {
			s := b.At(p)
			if s.Name != "M" || (s.Multiplier != 2 && s.Multiplier != 10) {
				t.Fatalf("bad bomb %+v", *s)
			}
		}
		if _, total := BoardBombs(b, "M"); total < 4 || total > 20 {
			t.Fatalf("board multiplier %d", total)
		}
	}
}

func TestInjectBombsAppearance(t *testing.T) {
	st := &mathcfg.BombSettings{
		Appearance:      1,
		NoWinAppearance: 0,
		Counts:          base.NewWeighted(map[int]int{0: 1}),
		Mults:           base.NewWeighted(map[int]int{5: 1}),
	}
	sym := mathcfg.Symbols{Scatter: "S", SuperScatter: "BS", Bomb: "M"}
	rng := base.NewRNG(11)

	b := fullBoard([]int{5, 5, 5}, "L2")
	b.At(base.Pos{Reel: 0, Row: 0}).Name = "S"
	if got := InjectBombs(rng, b, st, sym, false); got != nil {
		t.Fatalf("no-win chance 0 must not inject, got %v", got)
	}
	placed := InjectBombs(rng, b, st, sym, true)
	if len(placed) != 1 {
		t.Fatalf("count floor is 1, got %d", len(placed))
	}
	if placed[0] == (base.Pos{Reel: 0, Row: 0}) {
		t.Error("scatter cell must not host a bomb")
	}
}

package engine

import (
	"testing"

	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"
)

func TestBuyEntryExact(t *testing.T) {
	cfg := fixtureConfig(t)
	s := NewSampler(cfg)
	cond := mustCondition(t, cfg, "regular_buy", "regular_fs")

	for _, p := range []mathcfg.BuyPattern{{Scatter: 4}, {Scatter: 3, SuperScatter: 1}} {
		for seed := uint64(1); seed <= 500; seed++ {
			b, err := s.Buy(base.NewRNG(seed), cond, mathcfg.BaseGame, p)
			if err != nil {
				t.Fatalf("pattern %+v seed %d: %v", p, seed, err)
			}
			if got := b.Count("S"); got != p.Scatter {
				t.Fatalf("pattern %+v: %d scatters", p, got)
			}
			if got := b.Count("BS"); got != p.SuperScatter {
				t.Fatalf("pattern %+v: %d super scatters", p, got)
			}
			reels := map[int]bool{}
			for _, name := range []string{"S", "BS"} {
				for _, pos := range b.Positions(name) {
					if reels[pos.Reel] {
						t.Fatalf("pattern %+v: reel %d carries two specials", p, pos.Reel)
					}
					reels[pos.Reel] = true
				}
			}
			if len(reels) != p.Scatter+p.SuperScatter {
				t.Fatalf("pattern %+v: specials on %d reels", p, len(reels))
			}
			if ev := NewScatterPays(cfg.Paytable).Evaluate(b); ev.TotalWin.IsPositive() {
				t.Fatalf("filler board should not pay, got %s", ev.TotalWin)
			}
		}
	}
}

func TestBuyEntryInfeasible(t *testing.T) {
	cfg := fixtureConfig(t)
	s := NewSampler(cfg)
	cond := mustCondition(t, cfg, "regular_buy", "regular_fs")

	_, err := s.Buy(base.NewRNG(7), cond, mathcfg.BaseGame, mathcfg.BuyPattern{Scatter: 6, SuperScatter: 1})
	if err == nil {
		t.Fatal("7 specials on 6 reels must fail")
	}
	if !base.IsRetryExhausted(err) {
		t.Errorf("应为重试耗尽: %v", err)
	}
}

func TestNaturalBoardValidity(t *testing.T) {
	cfg := fixtureConfig(t)
	s := NewSampler(cfg)
	cond := mustCondition(t, cfg, "base", "basegame")
	rng := base.NewRNG(42)

	for i := 0; i < 3000; i++ {
		b, err := s.Natural(rng, cond, mathcfg.BaseGame, true)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if b.Count("BS") > 1 {
			t.Fatalf("draw %d: %d super scatters", i, b.Count("BS"))
		}
		for c := range b.Reels {
			if n := b.CountOnReel(c, "S") + b.CountOnReel(c, "BS"); n > 1 {
				t.Fatalf("draw %d: reel %d carries %d specials", i, c, n)
			}
		}
		if len(b.Top) != cfg.NumReels || len(b.Bottom) != cfg.NumReels {
			t.Fatalf("padding rows missing")
		}
	}
}

func TestNaturalBoardExhausted(t *testing.T) {
	cfg := fixtureConfig(t, func(c *mathcfg.GameConfig) {
		col := c.Reels["BR0"][0]
		for i := range col {
			col[i] = "S"
		}
		c.Attempts.Board = 20
	})
	s := NewSampler(cfg)
	cond := mustCondition(t, cfg, "base", "basegame")

	_, err := s.Natural(base.NewRNG(1), cond, mathcfg.BaseGame, true)
	if !base.IsRetryExhausted(err) {
		t.Fatalf("每列全是散布的卷轴应耗尽重试，实际 %v", err)
	}
	// 不校验时照常出盘
	if _, err := s.Natural(base.NewRNG(1), cond, mathcfg.BaseGame, false); err != nil {
		t.Fatalf("unvalidated draw: %v", err)
	}
}

func TestForcedEntry(t *testing.T) {
	cfg := fixtureConfig(t)
	s := NewSampler(cfg)
	for _, criteria := range []string{"regular_fs", "super_fs"} {
		cond := mustCondition(t, cfg, "base", criteria)
		rng := base.NewRNG(9)
		for i := 0; i < 200; i++ {
			b, err := s.Forced(rng, cond, mathcfg.BaseGame)
			if err != nil {
				t.Fatalf("%s draw %d: %v", criteria, i, err)
			}
			tr := ResolveTrigger(b, cfg)
			if tr.Feature != cond.FeatureType {
				t.Fatalf("%s draw %d: resolved %q (%d+%d)", criteria, i, tr.Feature, tr.Scatters, tr.Supers)
			}
			if !ValidNatural(b, cfg.Symbols) {
				t.Fatalf("%s draw %d: forced board breaks placement rules", criteria, i)
			}
		}
	}
}

func TestRefill(t *testing.T) {
	cfg := fixtureConfig(t)
	s := NewSampler(cfg)
	cond := mustCondition(t, cfg, "base", "basegame")
	rng := base.NewRNG(3)

	b, err := s.Natural(rng, cond, mathcfg.BaseGame, true)
	if err != nil {
		t.Fatal(err)
	}
	survivor := *b.At(base.Pos{Reel: 2, Row: 0})
	b.At(base.Pos{Reel: 2, Row: 3}).Consumed = true
	b.At(base.Pos{Reel: 2, Row: 4}).Consumed = true
	b.At(base.Pos{Reel: 5, Row: 0}).Consumed = true
	stop := b.Stops[2]

	s.Refill(rng, cond, mathcfg.BaseGame, b)

	b.Each(func(p base.Pos, sym *base.Symbol) {
		if sym.Consumed {
			t.Errorf("%v still consumed after refill", p)
		}
		if sym.Name == "" {
			t.Errorf("%v empty after refill", p)
		}
	})
	if len(b.Reels[2]) != cfg.NumRows[2] {
		t.Fatalf("reel 2 has %d rows", len(b.Reels[2]))
	}
	if got := *b.At(base.Pos{Reel: 2, Row: 2}); got != survivor {
		t.Errorf("survivor should fall two rows: got %+v want %+v", got, survivor)
	}
	n := len(cfg.Reels["BR0"][2])
	if want := (stop - 2 + n) % n; b.Stops[2] != want {
		t.Errorf("stop %d, want %d", b.Stops[2], want)
	}
	strip := cfg.Reels["BR0"][2]
	if b.Reels[2][0].Name != strip[b.Stops[2]] || b.Reels[2][1].Name != strip[(b.Stops[2]+1)%n] {
		t.Errorf("new cells should come from the strip above the old stop")
	}
}

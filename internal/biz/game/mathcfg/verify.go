package mathcfg

import (
	"mather/internal/biz/game/base"

	"github.com/shopspring/decimal"
)

// Verify 加载期校验，任何问题都返回 MALFORMED_CONFIG
func Verify(c *GameConfig) error {
	if c.ID == "" {
		return base.Malformedf("game id is empty")
	}
	if c.NumReels <= 0 || len(c.NumRows) != c.NumReels {
		return base.Malformedf("game %s: num_reels %d does not match num_rows %v", c.ID, c.NumReels, c.NumRows)
	}
	for i, n := range c.NumRows {
		if n <= 0 {
			return base.Malformedf("game %s: reel %d has %d rows", c.ID, i, n)
		}
	}
	if !c.WinCap.IsPositive() {
		return base.Malformedf("game %s: wincap must be positive", c.ID)
	}
	if c.Symbols.Scatter == "" || c.Symbols.SuperScatter == "" || c.Symbols.Bomb == "" {
		return base.Malformedf("game %s: scatter, super_scatter and bomb symbols are required", c.ID)
	}
	if len(c.Paytable) == 0 {
		return base.Malformedf("game %s: empty paytable", c.ID)
	}
	if c.OverflowFirst != FreeGame && c.OverflowFirst != BaseGame {
		return base.Malformedf("game %s: wincap_overflow_first must be basegame or freegame, got %q", c.ID, c.OverflowFirst)
	}
	if err := verifyFreeSpins(c); err != nil {
		return err
	}
	if err := verifyReels(c); err != nil {
		return err
	}
	for _, tiers := range []struct {
		name string
		t    BombTiers
	}{{"bomb_settings", c.Bombs}, {"buy_bomb_settings", c.BuyBombs}} {
		if err := verifyBomb(c.ID, tiers.name+"."+FeatureRegular, tiers.t.Regular); err != nil {
			return err
		}
		if err := verifyBomb(c.ID, tiers.name+"."+FeatureSuper, tiers.t.Super); err != nil {
			return err
		}
	}
	if len(c.Modes) == 0 {
		return base.Malformedf("game %s: no bet modes", c.ID)
	}
	seen := make(map[string]struct{}, len(c.Modes))
	for _, m := range c.Modes {
		if _, dup := seen[m.Name]; dup {
			return base.Malformedf("game %s: duplicate bet mode %q", c.ID, m.Name)
		}
		seen[m.Name] = struct{}{}
		if err := verifyMode(c, m); err != nil {
			return err
		}
	}
	return VerifyFences(c)
}

func verifyFreeSpins(c *GameConfig) error {
	fs := c.FreeSpins
	if fs.Initial <= 0 {
		return base.Malformedf("game %s: free_spins.initial must be positive", c.ID)
	}
	if fs.Max < fs.Initial {
		return base.Malformedf("game %s: free_spins.max %d below initial %d", c.ID, fs.Max, fs.Initial)
	}
	if fs.SuperRequirement <= 0 {
		return base.Malformedf("game %s: super scatter requirement must be positive", c.ID)
	}
	return VerifyRetrigger(fs.RetriggerCapsTable)
}

// VerifyRetrigger 累计概率严格递增且以 1.0 结束
func VerifyRetrigger(t RetriggerTable) error {
	if len(t) == 0 {
		return base.Malformedf("retrigger table is empty")
	}
	prev := 0.0
	for i, e := range t {
		if e.Cap < 0 {
			return base.Malformedf("retrigger entry %d: negative cap %d", i, e.Cap)
		}
		if e.Cum <= prev {
			return base.Malformedf("retrigger entry %d: cumulative %v not increasing", i, e.Cum)
		}
		if e.Cum > 1 {
			return base.Malformedf("retrigger entry %d: cumulative %v above 1", i, e.Cum)
		}
		prev = e.Cum
	}
	if last := t[len(t)-1].Cum; last != 1.0 {
		return base.Malformedf("retrigger table ends at %v, want 1.0", last)
	}
	return nil
}

func verifyReels(c *GameConfig) error {
	if len(c.Reels) == 0 {
		return base.Malformedf("game %s: no reel strips", c.ID)
	}
	for id, strip := range c.Reels {
		if len(strip) != c.NumReels {
			return base.Malformedf("game %s: reel %s has %d columns, want %d", c.ID, id, len(strip), c.NumReels)
		}
		for col, reel := range strip {
			if len(reel) < c.NumRows[col]+2 {
				return base.Malformedf("game %s: reel %s column %d too short (%d)", c.ID, id, col, len(reel))
			}
		}
	}
	return nil
}

func verifyBomb(game, name string, b BombSettings) error {
	if b.Appearance < 0 || b.Appearance > 1 || b.NoWinAppearance < 0 || b.NoWinAppearance > 1 {
		return base.Malformedf("game %s: %s appearance chance out of [0,1]", game, name)
	}
	if b.Appearance == 0 && b.NoWinAppearance == 0 {
		return nil
	}
	if b.Counts.Empty() || b.Mults.Empty() {
		return base.Malformedf("game %s: %s needs count_weights and mult_weights", game, name)
	}
	for _, v := range b.Mults.Items {
		if v <= 0 {
			return base.Malformedf("game %s: %s multiplier %d must be positive", game, name, v)
		}
	}
	return nil
}

func verifyMode(c *GameConfig, m *BetMode) error {
	if m.Name == "" {
		return base.Malformedf("game %s: bet mode without name", c.ID)
	}
	if !m.Cost.IsPositive() {
		return base.Malformedf("game %s: mode %s cost must be positive", c.ID, m.Name)
	}
	if len(m.Distributions) == 0 {
		return base.Malformedf("game %s: mode %s has no distributions", c.ID, m.Name)
	}
	quota := 0.0
	criteria := make(map[string]struct{}, len(m.Distributions))
	for _, d := range m.Distributions {
		if _, dup := criteria[d.Criteria]; dup {
			return base.Malformedf("game %s: mode %s duplicate criteria %q", c.ID, m.Name, d.Criteria)
		}
		criteria[d.Criteria] = struct{}{}
		if d.Quota < 0 {
			return base.Malformedf("game %s: mode %s criteria %s negative quota", c.ID, m.Name, d.Criteria)
		}
		quota += d.Quota
		if err := verifyCondition(c, m, d); err != nil {
			return err
		}
	}
	if quota <= 0 {
		return base.Malformedf("game %s: mode %s quotas sum to zero", c.ID, m.Name)
	}
	return nil
}

func verifyCondition(c *GameConfig, m *BetMode, d *Distribution) error {
	cond := d.Conditions
	where := func(format string, a ...any) error {
		return base.Malformedf("game %s: mode %s criteria %s: "+format, append([]any{c.ID, m.Name, d.Criteria}, a...)...)
	}
	for _, gt := range []GameType{BaseGame, FreeGame} {
		rw, ok := cond.ReelWeights[gt]
		if !ok || rw.Empty() {
			return where("missing reel_weights for %s", gt)
		}
		for _, id := range rw.Items {
			if _, ok := c.Reels[id]; !ok {
				return where("unknown reel id %q", id)
			}
		}
		if mv, ok := cond.MultValues[gt]; !ok || mv.Empty() {
			return where("missing mult_values for %s", gt)
		}
	}
	if d.WinCriteria != nil && d.WinCriteria.IsNegative() {
		return where("negative win_criteria")
	}
	if m.BuyBonus && cond.BuyEntry == nil {
		return where("buy mode needs buy_entry_pattern")
	}
	if cond.BuyEntry != nil {
		p := cond.BuyEntry
		if p.Scatter < 0 || p.SuperScatter < 0 || p.Scatter+p.SuperScatter == 0 {
			return where("invalid buy_entry_pattern %+v", *p)
		}
		if !cond.ForceFreegame {
			return where("buy_entry_pattern requires force_freegame")
		}
		if got := Resolve(p.Scatter, p.SuperScatter, c.FreeSpins.SuperRequirement); got != cond.FeatureType {
			return where("buy_entry_pattern %+v resolves to %q, want %q", *p, got, cond.FeatureType)
		}
	}
	if cond.ForceFreegame {
		if cond.FeatureType != FeatureRegular && cond.FeatureType != FeatureSuper {
			return where("force_freegame needs feature_type regular or super, got %q", cond.FeatureType)
		}
		if cond.BuyEntry == nil {
			if cond.ScatterTriggers.Empty() {
				return where("force_freegame needs scatter_triggers or buy_entry_pattern")
			}
			for _, n := range cond.ScatterTriggers.Items {
				s, b := n, 0
				if cond.FeatureType == FeatureSuper {
					s, b = n-1, 1
				}
				if got := Resolve(s, b, c.FreeSpins.SuperRequirement); got != cond.FeatureType {
					return where("scatter trigger %d resolves to %q", n, got)
				}
			}
		}
	}
	return nil
}

// Resolve 特色判定表：先判超级，再回落普通
func Resolve(scatters, supers, superRequirement int) string {
	switch {
	case supers == 1 && scatters >= superRequirement:
		return FeatureSuper
	case supers == 1 && scatters >= 3:
		return FeatureRegular
	case supers == 0 && scatters >= 4 && scatters <= 6:
		return FeatureRegular
	}
	return ""
}

// FenceSum 除 wincap 外的档位合计
func FenceSum(m *BetMode) decimal.Decimal {
	sum := decimal.Zero
	for name, v := range m.Fences {
		if name == WincapFence {
			continue
		}
		sum = sum.Add(v)
	}
	return sum
}

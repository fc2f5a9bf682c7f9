package engine

import (
	"fmt"
	"testing"

	"mather/internal/biz/game/mathcfg"
)

const fixtureYAML = `
id: fixture
name: Fixture
wincap: 25000
rtp: 0.962
num_reels: 6
num_rows: [5, 5, 5, 5, 5, 5]
include_padding: true
symbols: {scatter: S, super_scatter: BS, bomb: M}
super_scatter_upgrade_requirement: 3
free_spins: {initial: 10, retrigger_spins: 5, retrigger_scatter_requirement: 3, max: 50}
retrigger_caps: [[0, 0.69], [1, 0.89], [2, 0.99], [3, 0.9999], [4, 1.0]]
scatter_payouts: {5: 5, 6: 100}
paytable:
  - {min: 8, max: 9, pays: {H1: 10, H2: 2.5, L1: 1, L2: 0.8, L3: 0.5, L4: 0.4, L5: 0.25}}
  - {min: 10, max: 11, pays: {H1: 25, H2: 10, L1: 1.5, L2: 1.2, L3: 1, L4: 0.9, L5: 0.75}}
  - {min: 12, max: 36, pays: {H1: 50, H2: 25, L1: 10, L2: 8, L3: 5, L4: 4, L5: 2}}
reels: {BR0: BR0.csv, FR0: FR0.csv}
bomb_settings:
  regular: {appearance_chance: 0.55, count_weights: {1: 55, 2: 30, 3: 12, 4: 3}, mult_weights: {2: 160, 3: 150, 5: 100, 10: 50, 100: 2}}
  super: {appearance_chance: 0.45, no_win_appearance_chance: 0.15, count_weights: {1: 60, 2: 25, 3: 10, 4: 4, 5: 1}, mult_weights: {20: 260, 25: 220, 50: 30, 100: 5}}
buy_bomb_settings:
  regular: {appearance_chance: 0.65, count_weights: {1: 45, 2: 30, 3: 20, 4: 5}, mult_weights: {2: 90, 3: 85, 5: 70, 10: 45, 100: 4}}
  super: {appearance_chance: 0.5, no_win_appearance_chance: 0.2, count_weights: {1: 50, 2: 30, 3: 12, 4: 6, 5: 2}, mult_weights: {20: 150, 25: 130, 50: 25, 100: 6}}
win_levels: [[0, 2], [2, 5], [5, 10], [10, .inf]]
modes:
  - name: base
    cost: 1
    fences: {basegame: 0.5, regular_fs: 0.4, super_fs: 0.062, zero: 0}
    distributions:
      - criteria: super_fs
        quota: 0.05
        force_freegame: true
        feature_type: super
        scatter_triggers: {4: 10, 5: 5}
        reel_weights: {basegame: {BR0: 1}, freegame: {FR0: 1}}
        mult_values: {basegame: {2: 1}, freegame: {20: 3, 50: 1}}
      - criteria: regular_fs
        quota: 0.25
        force_freegame: true
        feature_type: regular
        scatter_triggers: {4: 5, 5: 1}
        reel_weights: {basegame: {BR0: 1}, freegame: {FR0: 1}}
        mult_values: {basegame: {2: 1}, freegame: {2: 5, 3: 3, 5: 1}}
      - criteria: zero
        quota: 0.2
        win_criteria: 0
        reel_weights: {basegame: {BR0: 1}, freegame: {FR0: 1}}
        mult_values: {basegame: {2: 1}, freegame: {2: 1}}
      - criteria: basegame
        quota: 0.5
        reel_weights: {basegame: {BR0: 1}, freegame: {FR0: 1}}
        mult_values: {basegame: {2: 1}, freegame: {2: 1}}
  - name: regular_buy
    cost: 100
    buy_bonus: true
    fences: {regular_fs: 0.962}
    distributions:
      - criteria: regular_fs
        quota: 1
        force_freegame: true
        feature_type: regular
        buy_entry_pattern: {scatter: 4, super_scatter: 0}
        reel_weights: {basegame: {BR0: 1}, freegame: {FR0: 1}}
        mult_values: {basegame: {2: 1}, freegame: {2: 5, 3: 3, 5: 1}}
  - name: super_buy
    cost: 500
    buy_bonus: true
    fences: {super_fs: 0.962}
    distributions:
      - criteria: super_fs
        quota: 1
        force_freegame: true
        feature_type: super
        buy_entry_pattern: {scatter: 3, super_scatter: 1}
        reel_weights: {basegame: {BR0: 1}, freegame: {FR0: 1}}
        mult_values: {basegame: {2: 1}, freegame: {20: 3, 50: 1}}
`

var cycle = []string{"L1", "L2", "L3", "L1", "L4", "L5", "H2", "L1", "L2", "L3", "L4", "H1"}

// fixtureStrip 6 列卷轴：每列 60 格，散布间隔 13，每列一个 BS（可选），FR 中带 M
func fixtureStrip(withBS, withBomb bool) mathcfg.ReelStrip {
	strip := make(mathcfg.ReelStrip, 6)
	for c := range strip {
		col := make([]string, 60)
		for i := range col {
			col[i] = cycle[(i+c*5)%len(cycle)]
		}
		for i := (c * 3) % 13; i < len(col); i += 13 {
			col[i] = "S"
		}
		if withBS {
			col[(c*7+33)%60] = "BS"
		}
		if withBomb {
			col[(c*11+20)%60] = "M"
			col[(c*11+50)%60] = "M"
		}
		strip[c] = col
	}
	return strip
}

func fixtureConfig(t testing.TB, mutate ...func(*mathcfg.GameConfig)) *mathcfg.GameConfig {
	t.Helper()
	reels := map[string]mathcfg.ReelStrip{
		"BR0.csv": fixtureStrip(true, false),
		"FR0.csv": fixtureStrip(false, true),
	}
	cfg, err := mathcfg.Parse([]byte(fixtureYAML), func(name string) (mathcfg.ReelStrip, error) {
		r, ok := reels[name]
		if !ok {
			return nil, fmt.Errorf("no reel %s", name)
		}
		return r, nil
	})
	if err != nil {
		t.Fatalf("解析测试配置失败: %v", err)
	}
	if err := mathcfg.Verify(cfg); err != nil {
		t.Fatalf("测试配置校验失败: %v", err)
	}
	for _, m := range mutate {
		m(cfg)
	}
	return cfg
}

func mustCondition(t testing.TB, cfg *mathcfg.GameConfig, mode, criteria string) *mathcfg.Condition {
	t.Helper()
	m, err := cfg.Mode(mode)
	if err != nil {
		t.Fatalf("模式不存在: %v", err)
	}
	d, err := m.Distribution(criteria)
	if err != nil {
		t.Fatalf("分布不存在: %v", err)
	}
	return &d.Conditions
}

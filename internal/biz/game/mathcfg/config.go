package mathcfg

import (
	"slices"

	"mather/internal/biz/game/base"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
)

// GameType 游戏阶段
type GameType string

const (
	BaseGame GameType = "basegame"
	FreeGame GameType = "freegame"
)

// 特色类型
const (
	FeatureRegular = "regular"
	FeatureSuper   = "super"
)

// WincapFence 不计入 RTP 合计的封顶档位
const WincapFence = "wincap"

// ReelStrip 卷轴表：[列][位置]
type ReelStrip [][]string

// PayRange 按数量区间的赔付
type PayRange struct {
	Min int
	Max int
	Pay decimal.Decimal
}

// Paytable 符号 -> 数量区间赔付
type Paytable map[string][]PayRange

// Pay 查询符号在给定数量下的赔付倍数
func (p Paytable) Pay(symbol string, count int) (decimal.Decimal, bool) {
	for _, r := range p[symbol] {
		if count >= r.Min && count <= r.Max {
			return r.Pay, true
		}
	}
	return decimal.Zero, false
}

// Symbols 赔付符号（升序）
func (p Paytable) Symbols() []string {
	syms := maps.Keys(p)
	slices.Sort(syms)
	return syms
}

// MinCount 最小中奖数量
func (p Paytable) MinCount() int {
	m := 0
	for _, ranges := range p {
		for _, r := range ranges {
			if m == 0 || r.Min < m {
				m = r.Min
			}
		}
	}
	return m
}

// BuyPattern 购买入口需强制放置的特殊符号数
type BuyPattern struct {
	Scatter      int `yaml:"scatter" json:"scatter"`
	SuperScatter int `yaml:"super_scatter" json:"super_scatter"`
}

// Condition 分布条件（只读）
type Condition struct {
	ReelWeights     map[GameType]base.Weighted[string]
	ForceFreegame   bool
	FeatureType     string
	ScatterTriggers base.Weighted[int]
	MultValues      map[GameType]base.Weighted[int]
	BuyEntry        *BuyPattern
}

// Distribution 配额分布
type Distribution struct {
	Criteria    string
	Quota       float64
	WinCriteria *decimal.Decimal
	Conditions  Condition
}

// BetMode 下注模式
type BetMode struct {
	Name          string
	Cost          decimal.Decimal
	BuyBonus      bool
	Distributions []*Distribution
	Fences        map[string]decimal.Decimal
}

// Distribution 按 criteria 查找
func (m *BetMode) Distribution(criteria string) (*Distribution, error) {
	for _, d := range m.Distributions {
		if d.Criteria == criteria {
			return d, nil
		}
	}
	return nil, base.Malformedf("mode %s: unknown criteria %q", m.Name, criteria)
}

// Criteria 全部 criteria（配置顺序）
func (m *BetMode) Criteria() []string {
	out := make([]string, len(m.Distributions))
	for i, d := range m.Distributions {
		out[i] = d.Criteria
	}
	return out
}

// BombSettings 单档炸弹配置
type BombSettings struct {
	Appearance      float64
	NoWinAppearance float64
	Counts          base.Weighted[int]
	Mults           base.Weighted[int]
}

// BombTiers 普通/超级两档
type BombTiers struct {
	Regular BombSettings
	Super   BombSettings
}

// Tier 按特色类型取档位
func (t *BombTiers) Tier(feature string) *BombSettings {
	if feature == FeatureSuper {
		return &t.Super
	}
	return &t.Regular
}

// RetriggerEntry (上限, 累计概率)
type RetriggerEntry struct {
	Cap int
	Cum float64
}

// RetriggerTable 有序累计概率表
type RetriggerTable []RetriggerEntry

// Sample 返回累计概率 >= u 的第一个上限；无匹配返回 0
func (t RetriggerTable) Sample(u float64) int {
	for _, e := range t {
		if u <= e.Cum {
			return e.Cap
		}
	}
	return 0
}

// Attempts 各类重试上限
type Attempts struct {
	Board    int
	BuyEntry int
	Repeat   int
	Tumble   int
}

// WinLevel 赢分档位 [Min, Max)
type WinLevel struct {
	Index int
	Min   float64
	Max   float64
}

// Symbols 特殊符号名
type Symbols struct {
	Scatter      string
	SuperScatter string
	Bomb         string
}

// FreeSpins 免费游戏参数
type FreeSpins struct {
	Initial            int
	RetriggerSpins     int
	RetriggerScatters  int
	Max                int
	SuperRequirement   int
	RetriggerCapsTable RetriggerTable
}

// GameConfig 游戏数学配置，加载后只读
type GameConfig struct {
	ID             string
	Name           string
	WinCap         decimal.Decimal
	RTP            decimal.Decimal
	NumReels       int
	NumRows        []int
	IncludePadding bool
	Symbols        Symbols
	FreeSpins      FreeSpins
	ScatterPayouts map[int]decimal.Decimal
	Paytable       Paytable
	Reels          map[string]ReelStrip
	Bombs          BombTiers
	BuyBombs       BombTiers
	OverflowFirst  GameType
	FenceTolerance decimal.Decimal
	Attempts       Attempts
	WinLevels      []WinLevel
	Modes          []*BetMode
}

// Mode 按名称查找下注模式
func (c *GameConfig) Mode(name string) (*BetMode, error) {
	for _, m := range c.Modes {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, base.Malformedf("game %s: unknown bet mode %q", c.ID, name)
}

// ModeNames 全部模式名（配置顺序）
func (c *GameConfig) ModeNames() []string {
	out := make([]string, len(c.Modes))
	for i, m := range c.Modes {
		out[i] = m.Name
	}
	return out
}

// IsSpecial 是否为散布/超级散布
func (c *GameConfig) IsSpecial(name string) bool {
	return name == c.Symbols.Scatter || name == c.Symbols.SuperScatter
}

// BombTable 按入口类型选择炸弹表
func (c *GameConfig) BombTable(buy bool) *BombTiers {
	if buy {
		return &c.BuyBombs
	}
	return &c.Bombs
}

// WinLevel 返回赢分所在档位
func (c *GameConfig) WinLevel(win float64) int {
	for _, l := range c.WinLevels {
		if win >= l.Min && win < l.Max {
			return l.Index
		}
	}
	if n := len(c.WinLevels); n > 0 {
		return c.WinLevels[n-1].Index
	}
	return 0
}

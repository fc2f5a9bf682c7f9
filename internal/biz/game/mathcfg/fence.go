package mathcfg

import (
	"slices"

	"mather/internal/biz/game/base"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
)

// FenceLine 单个档位
type FenceLine struct {
	Name     string          `json:"name"`
	RTP      decimal.Decimal `json:"rtp"`
	Excluded bool            `json:"excluded"`
}

// FenceReport 单个模式的档位核对结果
type FenceReport struct {
	Mode   string          `json:"mode"`
	Target decimal.Decimal `json:"target"`
	Sum    decimal.Decimal `json:"sum"`
	Diff   decimal.Decimal `json:"diff"`
	OK     bool            `json:"ok"`
	Lines  []FenceLine     `json:"lines"`
}

// Fences 逐模式核对档位之和与目标 RTP
func Fences(c *GameConfig) []FenceReport {
	out := make([]FenceReport, 0, len(c.Modes))
	for _, m := range c.Modes {
		sum := FenceSum(m)
		diff := sum.Sub(c.RTP).Abs()
		r := FenceReport{
			Mode:   m.Name,
			Target: c.RTP,
			Sum:    sum,
			Diff:   diff,
			OK:     len(m.Fences) > 0 && diff.LessThanOrEqual(c.FenceTolerance),
		}
		names := maps.Keys(m.Fences)
		slices.Sort(names)
		for _, name := range names {
			r.Lines = append(r.Lines, FenceLine{Name: name, RTP: m.Fences[name], Excluded: name == WincapFence})
		}
		out = append(out, r)
	}
	return out
}

// VerifyFences 任一模式超出容差即为配置错误
func VerifyFences(c *GameConfig) error {
	for _, r := range Fences(c) {
		if len(r.Lines) == 0 {
			return base.Malformedf("game %s: mode %s has no fences", c.ID, r.Mode)
		}
		if !r.OK {
			return base.Malformedf("game %s: mode %s fences sum to %s, target %s (tolerance %s)",
				c.ID, r.Mode, r.Sum, r.Target, c.FenceTolerance)
		}
	}
	return nil
}

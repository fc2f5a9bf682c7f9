package engine

import (
	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"
)

// Trigger 结算后棋盘上的特色判定
type Trigger struct {
	Feature  string // 空表示未触发
	Scatters int
	Supers   int
}

// Total 散布类符号总数
func (t Trigger) Total() int {
	return t.Scatters + t.Supers
}

// ResolveTrigger 统计散布并按判定表决定特色类型
func ResolveTrigger(b *base.Board, cfg *mathcfg.GameConfig) Trigger {
	t := Trigger{
		Scatters: b.Count(cfg.Symbols.Scatter),
		Supers:   b.Count(cfg.Symbols.SuperScatter),
	}
	t.Feature = mathcfg.Resolve(t.Scatters, t.Supers, cfg.FreeSpins.SuperRequirement)
	return t
}

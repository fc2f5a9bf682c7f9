package engine

import (
	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"

	"github.com/shopspring/decimal"
)

// InjectBombs 按档位出现概率在未消除的普通格子上放置倍数炸弹。
// 可用格子不足时全部使用。返回新放置的坐标。
func InjectBombs(rng *base.RNG, b *base.Board, st *mathcfg.BombSettings, sym mathcfg.Symbols, won bool) []base.Pos {
	p := st.Appearance
	if !won {
		p = st.NoWinAppearance
	}
	if !rng.Chance(p) {
		return nil
	}
	count := max(1, st.Counts.Draw(rng))

	var cand []base.Pos
	b.Each(func(pos base.Pos, s *base.Symbol) {
		if s.Consumed || s.Name == sym.Bomb || s.Name == sym.Scatter || s.Name == sym.SuperScatter {
			return
		}
		cand = append(cand, pos)
	})
	if count > len(cand) {
		count = len(cand)
	}
	// 部分洗牌取前 count 个
	for i := 0; i < count; i++ {
		j := i + rng.IntN(len(cand)-i)
		cand[i], cand[j] = cand[j], cand[i]
	}
	placed := cand[:count]
	for _, pos := range placed {
		*b.At(pos) = base.Symbol{Name: sym.Bomb, Multiplier: st.Mults.Draw(rng)}
	}
	return placed
}

// BoardBombs 棋盘上未引爆的炸弹及倍数之和
func BoardBombs(b *base.Board, bomb string) ([]base.Pos, int) {
	var (
		cells []base.Pos
		total int
	)
	b.Each(func(pos base.Pos, s *base.Symbol) {
		if s.Name == bomb && !s.Consumed && s.Multiplier > 0 {
			cells = append(cells, pos)
			total += s.Multiplier
		}
	})
	return cells, total
}

// ApplyMultiplier new = base × total；base 为 0 或无倍数时原样返回
func ApplyMultiplier(baseWin decimal.Decimal, total int) decimal.Decimal {
	if total <= 0 || !baseWin.IsPositive() {
		return baseWin
	}
	return baseWin.Mul(decimal.NewFromInt(int64(total)))
}

// CheckMultiplier 一位小数精度下 round(new) == round(base×total)
func CheckMultiplier(baseWin decimal.Decimal, total int, newWin decimal.Decimal) error {
	want := baseWin.Mul(decimal.NewFromInt(int64(total))).Round(1)
	if !newWin.Round(1).Equal(want) {
		return base.Invariantf("multiplied win %s != %s x %d", newWin, baseWin, total)
	}
	return nil
}

package engine

import (
	"mather/internal/biz/game/mathcfg"

	"github.com/shopspring/decimal"
)

// Ledger 单局账本。Running 为整局累计，Base/Free 为分段小计，
// 入账时同步记入当前分段，因此封顶前 Base+Free == Running。
type Ledger struct {
	Cap           decimal.Decimal
	OverflowFirst mathcfg.GameType
	Segment       mathcfg.GameType

	Step    decimal.Decimal // 当前消除步
	Spin    decimal.Decimal // 当前单次旋转（免费游戏按局重置）
	Running decimal.Decimal
	Base    decimal.Decimal
	Free    decimal.Decimal
	Capped  bool
}

func NewLedger(wincap decimal.Decimal, overflowFirst mathcfg.GameType) *Ledger {
	if overflowFirst == "" {
		overflowFirst = mathcfg.FreeGame
	}
	return &Ledger{
		Cap:           wincap,
		OverflowFirst: overflowFirst,
		Segment:       mathcfg.BaseGame,
	}
}

// SetSegment 切换当前分段
func (l *Ledger) SetSegment(gt mathcfg.GameType) {
	l.Segment = gt
}

// StartSpin 新的一次旋转
func (l *Ledger) StartSpin() {
	l.Spin = decimal.Zero
	l.Step = decimal.Zero
}

// Credit 入账；已封顶后不再入账
func (l *Ledger) Credit(amount decimal.Decimal) {
	if l.Capped || !amount.IsPositive() {
		l.Step = decimal.Zero
		return
	}
	l.Step = amount
	l.Spin = l.Spin.Add(amount)
	l.Running = l.Running.Add(amount)
	*l.active() = l.active().Add(amount)
}

func (l *Ledger) active() *decimal.Decimal {
	if l.Segment == mathcfg.FreeGame {
		return &l.Free
	}
	return &l.Base
}

func (l *Ledger) other(gt mathcfg.GameType) *decimal.Decimal {
	if gt == mathcfg.FreeGame {
		return &l.Base
	}
	return &l.Free
}

func (l *Ledger) segment(gt mathcfg.GameType) *decimal.Decimal {
	if gt == mathcfg.FreeGame {
		return &l.Free
	}
	return &l.Base
}

// CheckCap 累计达到封顶时执行一次截断，返回本次是否触发
func (l *Ledger) CheckCap() bool {
	if l.Capped || l.Running.LessThan(l.Cap) {
		return false
	}
	l.clamp()
	return true
}

// clamp 截断超出部分并在分段间重新分配，使 Base+Free == min(Running, Cap)
func (l *Ledger) clamp() {
	l.Capped = true
	excess := l.Running.Sub(l.Cap)
	if !excess.IsPositive() {
		l.Running = l.Cap
		return
	}
	l.Running = l.Cap
	l.Step = decimal.Max(decimal.Zero, l.Step.Sub(excess))
	l.Spin = decimal.Max(decimal.Zero, l.Spin.Sub(excess))

	act := l.active()
	*act = act.Sub(decimal.Min(excess, *act))

	target := decimal.Min(l.Running, l.Cap)
	sum := l.Base.Add(l.Free)
	switch {
	case sum.GreaterThan(target):
		overflow := sum.Sub(target)
		first, second := l.segment(l.OverflowFirst), l.other(l.OverflowFirst)
		take := decimal.Min(overflow, *first)
		*first = first.Sub(take)
		overflow = overflow.Sub(take)
		*second = decimal.Max(decimal.Zero, second.Sub(overflow))
	case sum.LessThan(target):
		*act = act.Add(target.Sub(sum))
	}
}

// Total 结算总赢分
func (l *Ledger) Total() decimal.Decimal {
	return decimal.Min(l.Running, l.Cap)
}

// Cents 金额 ×100 取整，先按封顶截断
func Cents(amount, wincap decimal.Decimal) int64 {
	return decimal.Min(amount, wincap).Shift(2).Round(0).IntPart()
}

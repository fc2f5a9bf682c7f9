package engine

import (
	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"

	"github.com/shopspring/decimal"
)

// Win 单个中奖簇
type Win struct {
	Symbol    string
	Count     int
	Positions []base.Pos
	Amount    decimal.Decimal
}

// Evaluation 一次消除评估结果
type Evaluation struct {
	TotalWin decimal.Decimal
	Wins     []Win
}

// Evaluator 棋盘 -> 中奖结果，纯函数
type Evaluator interface {
	Evaluate(b *base.Board) Evaluation
}

// ScatterPays 全盘计数赔付：同一符号出现次数落在赔付区间即中奖
type ScatterPays struct {
	paytable mathcfg.Paytable
	symbols  []string
}

func NewScatterPays(pt mathcfg.Paytable) *ScatterPays {
	return &ScatterPays{paytable: pt, symbols: pt.Symbols()}
}

func (e *ScatterPays) Evaluate(b *base.Board) Evaluation {
	out := Evaluation{TotalWin: decimal.Zero}
	for _, sym := range e.symbols {
		positions := b.Positions(sym)
		if len(positions) == 0 {
			continue
		}
		pay, ok := e.paytable.Pay(sym, len(positions))
		if !ok || !pay.IsPositive() {
			continue
		}
		out.Wins = append(out.Wins, Win{
			Symbol:    sym,
			Count:     len(positions),
			Positions: positions,
			Amount:    pay,
		})
		out.TotalWin = out.TotalWin.Add(pay)
	}
	return out
}

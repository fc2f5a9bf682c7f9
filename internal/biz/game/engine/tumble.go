package engine

import (
	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"

	"github.com/shopspring/decimal"
)

// tumble 评估 -> 标记消除 -> 炸弹 -> 入账 -> 补位，直到无赢分或封顶
func (sp *spin) tumble() error {
	for step := 1; ; step++ {
		if step > sp.cfg.Attempts.Tumble {
			return base.Exhaustedf("tumble: board still paying after %d steps", sp.cfg.Attempts.Tumble)
		}
		ev := sp.eng.eval.Evaluate(sp.board)
		won := ev.TotalWin.IsPositive()
		for _, w := range ev.Wins {
			for _, p := range w.Positions {
				sp.board.At(p).Consumed = true
			}
		}

		stepWin, mult, err := sp.applyBombs(ev, won)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		sp.ledger.Credit(stepWin)
		sp.winEvent(ev, stepWin, mult)
		sp.book.add(Event{
			Type:     EventUpdateTumbleWin,
			GameType: string(sp.gt),
			Amount:   sp.book.amount(sp.ledger.Spin),
		})
		if sp.ledger.CheckCap() {
			sp.wincapEvent()
			return nil
		}

		sp.eng.sampler.Refill(sp.rng, sp.cond, sp.gt, sp.board)
		sp.book.boardEvent(EventTumbleBoard, string(sp.gt), sp.board)
	}
}

// applyBombs 免费游戏中注入炸弹并按棋盘倍数之和放大本步赢分
func (sp *spin) applyBombs(ev Evaluation, won bool) (decimal.Decimal, int, error) {
	if sp.gt != mathcfg.FreeGame || sp.bombs == nil {
		return ev.TotalWin, 0, nil
	}
	placed := InjectBombs(sp.rng, sp.board, sp.bombs, sp.cfg.Symbols, won)
	if !won {
		if len(placed) > 0 {
			cells := make([]CellInfo, len(placed))
			for i, p := range placed {
				cells[i] = sp.book.cell(p, *sp.board.At(p))
			}
			sp.book.add(Event{Type: EventBoardMultiplier, GameType: string(sp.gt), Cells: cells})
		}
		return ev.TotalWin, 0, nil
	}

	positions, total := BoardBombs(sp.board, sp.cfg.Symbols.Bomb)
	if total == 0 {
		return ev.TotalWin, 0, nil
	}
	newWin := ApplyMultiplier(ev.TotalWin, total)
	if err := CheckMultiplier(ev.TotalWin, total, newWin); err != nil {
		return decimal.Zero, 0, err
	}
	cells := make([]CellInfo, len(positions))
	for i, p := range positions {
		cells[i] = sp.book.cell(p, *sp.board.At(p))
		sp.board.At(p).Consumed = true
	}
	sp.book.add(Event{
		Type:     EventBoardMultiplier,
		GameType: string(sp.gt),
		Cells:    cells,
		Win: &WinInfo{
			TumbleWin: sp.book.cents(ev.TotalWin),
			BoardMult: total,
			TotalWin:  sp.book.cents(newWin),
		},
	})
	return newWin, total, nil
}

func (sp *spin) winEvent(ev Evaluation, stepWin decimal.Decimal, mult int) {
	info := &WinInfo{
		TumbleWin: sp.book.cents(ev.TotalWin),
		BoardMult: mult,
		TotalWin:  sp.book.cents(stepWin),
		Wins:      make([]WinLine, 0, len(ev.Wins)),
	}
	for _, w := range ev.Wins {
		line := WinLine{
			Symbol:    w.Symbol,
			Count:     w.Count,
			Amount:    sp.book.cents(w.Amount),
			Total:     sp.book.cents(ApplyMultiplier(w.Amount, mult)),
			Positions: make([]CellInfo, len(w.Positions)),
		}
		for i, p := range w.Positions {
			line.Positions[i] = sp.book.cell(p, base.Symbol{Name: w.Symbol})
		}
		info.Wins = append(info.Wins, line)
	}
	sp.book.add(Event{Type: EventWinInfo, GameType: string(sp.gt), Win: info})
}

// endTumble 消除结束：本次旋转赢分与整局累计
func (sp *spin) endTumble() {
	if sp.ledger.Spin.IsPositive() {
		sp.book.add(Event{Type: EventSetWin, GameType: string(sp.gt), Amount: sp.book.amount(sp.ledger.Spin)})
	}
	sp.book.add(Event{Type: EventSetTotalWin, GameType: string(sp.gt), Amount: sp.book.amount(sp.ledger.Running)})
}

func (sp *spin) wincapEvent() {
	sp.book.add(Event{Type: EventWincap, GameType: string(sp.gt), Amount: sp.book.amount(sp.ledger.Running)})
}

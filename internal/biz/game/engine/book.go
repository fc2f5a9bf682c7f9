package engine

import (
	"mather/internal/biz/game/base"

	"github.com/shopspring/decimal"
)

// 事件类型
const (
	EventReveal          = "reveal"
	EventWinInfo         = "winInfo"
	EventTumbleBoard     = "tumbleBoard"
	EventBoardMultiplier = "boardMultiplierInfo"
	EventUpdateTumbleWin = "updateTumbleWin"
	EventSetWin          = "setWin"
	EventSetTotalWin     = "setTotalWin"
	EventScatterPay      = "scatterPay"
	EventEnterBonus      = "enterBonus"
	EventFreeSpinTrigger = "freeSpinTrigger"
	EventUpdateFreeSpin  = "updateFreeSpin"
	EventRetrigger       = "freeSpinRetrigger"
	EventFreeSpinEnd     = "freeSpinEnd"
	EventWincap          = "wincap"
	EventFinalWin        = "finalWin"
)

// CellInfo 事件中的坐标（含填充行时行号 +1）
type CellInfo struct {
	Reel       int    `json:"reel"`
	Row        int    `json:"row"`
	Name       string `json:"name,omitempty"`
	Multiplier int    `json:"multiplier,omitempty"`
}

// WinLine 单个中奖簇，Amount 为乘倍前，Total 为乘倍后
type WinLine struct {
	Symbol    string     `json:"symbol"`
	Count     int        `json:"count"`
	Amount    int64      `json:"amount"`
	Total     int64      `json:"total"`
	Positions []CellInfo `json:"positions"`
}

// WinInfo 步赢分
type WinInfo struct {
	TumbleWin int64     `json:"tumbleWin"`
	BoardMult int       `json:"boardMult,omitempty"`
	TotalWin  int64     `json:"totalWin"`
	Wins      []WinLine `json:"wins,omitempty"`
}

// FreeSpinInfo 免费游戏进度
type FreeSpinInfo struct {
	Feature      string `json:"feature,omitempty"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	RetriggerCap int    `json:"retriggerCap,omitempty"`
	Retriggers   int    `json:"retriggers,omitempty"`
}

// Event 书中的单条记录，金额单位为分
type Event struct {
	Index      int           `json:"index"`
	Type       string        `json:"type"`
	GameType   string        `json:"gameType,omitempty"`
	Board      [][]string    `json:"board,omitempty"`
	PaddingTop []string      `json:"paddingTop,omitempty"`
	PaddingBot []string      `json:"paddingBottom,omitempty"`
	Win        *WinInfo      `json:"winInfo,omitempty"`
	Cells      []CellInfo    `json:"cells,omitempty"`
	FreeSpins  *FreeSpinInfo `json:"freeSpins,omitempty"`
	Amount     *int64        `json:"amount,omitempty"`
	Scatters   int           `json:"scatters,omitempty"`
}

// Book 单局完整记录
type Book struct {
	ID               int     `json:"id"`
	Seed             uint64  `json:"seed"`
	Mode             string  `json:"mode"`
	Criteria         string  `json:"criteria"`
	Feature          string  `json:"feature,omitempty"`
	PayoutMultiplier int64   `json:"payoutMultiplier"`
	BaseGameWins     int64   `json:"baseGameWins"`
	FreeGameWins     int64   `json:"freeGameWins"`
	Events           []Event `json:"events"`

	wincap  decimal.Decimal
	padding bool
}

func newBook(id int, seed uint64, mode, criteria string, wincap decimal.Decimal, padding bool) *Book {
	return &Book{
		ID:       id,
		Seed:     seed,
		Mode:     mode,
		Criteria: criteria,
		Events:   make([]Event, 0, 16),
		wincap:   wincap,
		padding:  padding,
	}
}

func (b *Book) add(e Event) {
	e.Index = len(b.Events)
	b.Events = append(b.Events, e)
}

func (b *Book) cents(d decimal.Decimal) int64 {
	return Cents(d, b.wincap)
}

func (b *Book) amount(d decimal.Decimal) *int64 {
	v := b.cents(d)
	return &v
}

func (b *Book) cell(p base.Pos, s base.Symbol) CellInfo {
	row := p.Row
	if b.padding {
		row++
	}
	return CellInfo{Reel: p.Reel, Row: row, Name: s.Name, Multiplier: s.Multiplier}
}

func (b *Book) boardEvent(typ string, gt string, board *base.Board) {
	top, bottom := board.PaddingNames()
	b.add(Event{
		Type:       typ,
		GameType:   gt,
		Board:      board.Names(),
		PaddingTop: top,
		PaddingBot: bottom,
	})
}

// Types 事件类型序列
func (b *Book) Types() []string {
	out := make([]string, len(b.Events))
	for i, e := range b.Events {
		out[i] = e.Type
	}
	return out
}

// Find 返回指定类型的全部事件
func (b *Book) Find(typ string) []Event {
	var out []Event
	for _, e := range b.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

package base

// Pos 棋盘坐标（列, 行）
type Pos struct {
	Reel int `json:"reel"`
	Row  int `json:"row"`
}

// Symbol 单元格符号，Multiplier 为 0 表示无倍数
type Symbol struct {
	Name       string
	Multiplier int
	Consumed   bool
}

// Board 棋盘，按列存储；Top/Bottom 为可选的上下填充行
type Board struct {
	Reels  [][]Symbol
	Top    []Symbol
	Bottom []Symbol
	ReelID string
	Stops  []int
}

// NewBoard 按每列行数创建空棋盘
func NewBoard(rows []int, padding bool) *Board {
	b := &Board{
		Reels: make([][]Symbol, len(rows)),
		Stops: make([]int, len(rows)),
	}
	for i, n := range rows {
		b.Reels[i] = make([]Symbol, n)
	}
	if padding {
		b.Top = make([]Symbol, len(rows))
		b.Bottom = make([]Symbol, len(rows))
	}
	return b
}

func (b *Board) NumReels() int {
	return len(b.Reels)
}

func (b *Board) Padded() bool {
	return b.Top != nil
}

// At 返回坐标处的符号指针
func (b *Board) At(p Pos) *Symbol {
	return &b.Reels[p.Reel][p.Row]
}

// Each 按列优先遍历可见单元格
func (b *Board) Each(fn func(p Pos, s *Symbol)) {
	for r := range b.Reels {
		for row := range b.Reels[r] {
			fn(Pos{Reel: r, Row: row}, &b.Reels[r][row])
		}
	}
}

// Count 统计可见区域内某符号数量
func (b *Board) Count(name string) int {
	n := 0
	for r := range b.Reels {
		for _, s := range b.Reels[r] {
			if s.Name == name {
				n++
			}
		}
	}
	return n
}

// Positions 返回某符号的全部坐标
func (b *Board) Positions(name string) []Pos {
	var out []Pos
	b.Each(func(p Pos, s *Symbol) {
		if s.Name == name {
			out = append(out, p)
		}
	})
	return out
}

// CountOnReel 统计某列内符号数量
func (b *Board) CountOnReel(reel int, name string) int {
	n := 0
	for _, s := range b.Reels[reel] {
		if s.Name == name {
			n++
		}
	}
	return n
}

// Names 导出符号名矩阵（事件用）
func (b *Board) Names() [][]string {
	out := make([][]string, len(b.Reels))
	for r, reel := range b.Reels {
		out[r] = make([]string, len(reel))
		for row, s := range reel {
			out[r][row] = s.Name
		}
	}
	return out
}

// PaddingNames 导出上下填充行
func (b *Board) PaddingNames() (top, bottom []string) {
	if !b.Padded() {
		return nil, nil
	}
	top, bottom = make([]string, len(b.Top)), make([]string, len(b.Bottom))
	for i := range b.Top {
		top[i], bottom[i] = b.Top[i].Name, b.Bottom[i].Name
	}
	return top, bottom
}

// Clone 深拷贝
func (b *Board) Clone() *Board {
	c := &Board{ReelID: b.ReelID, Stops: append([]int(nil), b.Stops...)}
	c.Reels = make([][]Symbol, len(b.Reels))
	for i := range b.Reels {
		c.Reels[i] = append([]Symbol(nil), b.Reels[i]...)
	}
	if b.Top != nil {
		c.Top = append([]Symbol(nil), b.Top...)
		c.Bottom = append([]Symbol(nil), b.Bottom...)
	}
	return c
}

package stats

import (
	"slices"
	"sync"
	"sync/atomic"

	v1 "mather/api/sim/v1"
	"mather/pkg/xgo"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
)

// Row 单局结果（金额单位为分）
type Row struct {
	Sim       int64
	Criteria  string
	Feature   string
	Win       int64
	BaseWin   int64
	FreeWin   int64
	Capped    bool
	Repeats   int
	FreeSpins int
	WinLevel  int
}

type criteriaAgg struct {
	count int64
	win   int64
}

// Accumulator 并发安全的结果汇总
type Accumulator struct {
	costCents int64
	superName string

	spins    atomic.Int64
	failed   atomic.Int64
	win      atomic.Int64
	baseWin  atomic.Int64
	freeWin  atomic.Int64
	hits     atomic.Int64
	features atomic.Int64
	supers   atomic.Int64
	capped   atomic.Int64
	repeats  atomic.Int64
	maxWin   atomic.Int64

	mu       sync.Mutex
	criteria map[string]*criteriaAgg
	levels   []int64
	errors   map[string]int64
}

// NewAccumulator costCents 为单局下注额（分），levels 为赢分档位数
func NewAccumulator(costCents int64, levels int, superFeature string) *Accumulator {
	return &Accumulator{
		costCents: costCents,
		superName: superFeature,
		criteria:  make(map[string]*criteriaAgg),
		levels:    make([]int64, levels),
		errors:    make(map[string]int64),
	}
}

func (a *Accumulator) Add(r Row) {
	a.spins.Add(1)
	a.win.Add(r.Win)
	a.baseWin.Add(r.BaseWin)
	a.freeWin.Add(r.FreeWin)
	a.repeats.Add(int64(r.Repeats))
	if r.Win > 0 {
		a.hits.Add(1)
	}
	if r.Feature != "" {
		a.features.Add(1)
		if r.Feature == a.superName {
			a.supers.Add(1)
		}
	}
	if r.Capped {
		a.capped.Add(1)
	}
	for {
		cur := a.maxWin.Load()
		if r.Win <= cur || a.maxWin.CompareAndSwap(cur, r.Win) {
			break
		}
	}

	a.mu.Lock()
	c := a.criteria[r.Criteria]
	if c == nil {
		c = &criteriaAgg{}
		a.criteria[r.Criteria] = c
	}
	c.count++
	c.win += r.Win
	if r.WinLevel >= 0 && r.WinLevel < len(a.levels) {
		a.levels[r.WinLevel]++
	}
	a.mu.Unlock()
}

// AddError 记录失败的局，按错误原因计数
func (a *Accumulator) AddError(reason string) {
	a.failed.Add(1)
	a.mu.Lock()
	a.errors[reason]++
	a.mu.Unlock()
}

func (a *Accumulator) Spins() int64 {
	return a.spins.Load()
}

// Attempted 已跑过的局数，含失败跳过的局
func (a *Accumulator) Attempted() int64 {
	return a.spins.Load() + a.failed.Load()
}

// Totals 当前总下注与总赢分（分）
func (a *Accumulator) Totals() (bet, win int64) {
	return a.spins.Load() * a.costCents, a.win.Load()
}

// Summary 汇总快照
type Summary struct {
	Spins     int64
	Failed    int64
	TotalBet  int64
	TotalWin  int64
	BaseWin   int64
	FreeWin   int64
	Hits      int64
	Features  int64
	Supers    int64
	Capped    int64
	Repeats   int64
	MaxWin    int64
	Criteria  []*v1.CriteriaCount
	WinLevels []int64
	Errors    map[string]int64
}

func (a *Accumulator) Summary() Summary {
	s := Summary{
		Spins:    a.spins.Load(),
		Failed:   a.failed.Load(),
		TotalWin: a.win.Load(),
		BaseWin:  a.baseWin.Load(),
		FreeWin:  a.freeWin.Load(),
		Hits:     a.hits.Load(),
		Features: a.features.Load(),
		Supers:   a.supers.Load(),
		Capped:   a.capped.Load(),
		Repeats:  a.repeats.Load(),
		MaxWin:   a.maxWin.Load(),
	}
	s.TotalBet = s.Spins * a.costCents

	a.mu.Lock()
	names := maps.Keys(a.criteria)
	slices.Sort(names)
	for _, k := range names {
		c := a.criteria[k]
		s.Criteria = append(s.Criteria, &v1.CriteriaCount{Criteria: k, Count: c.count, WinCents: c.win})
	}
	s.WinLevels = slices.Clone(a.levels)
	s.Errors = make(map[string]int64, len(a.errors))
	for k, v := range a.errors {
		s.Errors[k] = v
	}
	a.mu.Unlock()
	return s
}

// RTP 以 decimal 计算 win/bet，保留 6 位
func RTP(win, bet int64) decimal.Decimal {
	if bet <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(win).DivRound(decimal.NewFromInt(bet), 6)
}

func pct(win, bet int64) float64 {
	return RTP(win, bet).Shift(2).InexactFloat64()
}

// Fill 把汇总写入报告
func (s Summary) Fill(r *v1.TaskCompletionReport) {
	r.Processed = s.Spins
	r.Failed = s.Failed
	r.TotalBet = s.TotalBet
	r.TotalWin = s.TotalWin
	r.BaseWin = s.BaseWin
	r.FreeWin = s.FreeWin
	r.RtpPct = pct(s.TotalWin, s.TotalBet)
	r.BaseRtpPct = pct(s.BaseWin, s.TotalBet)
	r.FreeRtpPct = pct(s.FreeWin, s.TotalBet)
	r.HitRatePct = xgo.Pct(s.Hits, s.Spins)
	r.FeatureCount = s.Features
	r.SuperCount = s.Supers
	r.CappedCount = s.Capped
	r.Repeats = s.Repeats
	r.MaxWin = s.MaxWin
	r.Criteria = s.Criteria
	r.WinLevels = s.WinLevels
	if len(s.Errors) > 0 {
		r.Errors = s.Errors
	}
}

package engine

import (
	"fmt"

	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// 重复次数达到该倍数时告警一次
const repeatWarnEvery = 10000

// Engine 单个游戏的模拟引擎，配置只读，可被多个 goroutine 共享
type Engine struct {
	cfg     *mathcfg.GameConfig
	sampler *Sampler
	eval    Evaluator
	log     *log.Helper
}

type Option func(*Engine)

// WithEvaluator 替换默认的全盘计数评估器
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.log = log.NewHelper(log.With(logger, "module", "engine")) }
}

func New(cfg *mathcfg.GameConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		sampler: NewSampler(cfg),
		eval:    NewScatterPays(cfg.Paytable),
		log:     log.NewHelper(log.With(log.GetLogger(), "module", "engine")),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Config() *mathcfg.GameConfig {
	return e.cfg
}

func (e *Engine) Sampler() *Sampler {
	return e.sampler
}

// SpinRequest 单局参数；Criteria 为空时按配额权重随机选择
type SpinRequest struct {
	Mode     string
	Criteria string
	Sim      int
	Seed     uint64
}

// Outcome 满足条件的单局结果
type Outcome struct {
	Sim        int
	Mode       string
	Criteria   string
	Feature    string
	Win        decimal.Decimal
	BaseWin    decimal.Decimal
	FreeWin    decimal.Decimal
	Capped     bool
	Repeats    int
	FreeSpins  int
	Retriggers int
	Book       *Book
}

// spin 单次尝试的上下文
type spin struct {
	eng    *Engine
	cfg    *mathcfg.GameConfig
	rng    *base.RNG
	req    SpinRequest
	mode   *mathcfg.BetMode
	dist   *mathcfg.Distribution
	cond   *mathcfg.Condition
	ledger *Ledger
	book   *Book
	board  *base.Board

	gt      mathcfg.GameType
	buy     bool
	feature string
	bombs   *mathcfg.BombSettings
	fsTotal int
	fsCount int
	retrig  retriggerState
}

// Spin 运行一局。不满足分布条件的尝试被静默丢弃并重来，
// 随机流在重复之间连续；致命错误直接返回，不产生部分结果。
func (e *Engine) Spin(req SpinRequest) (*Outcome, error) {
	mode, err := e.cfg.Mode(req.Mode)
	if err != nil {
		return nil, err
	}
	rng := base.NewRNG(base.SeedFor(req.Seed, req.Sim))
	if req.Criteria == "" {
		req.Criteria = PickCriteria(mode, rng)
	}
	dist, err := mode.Distribution(req.Criteria)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	what := fmt.Sprintf("spin %s/%s sim %d", mode.Name, dist.Criteria, req.Sim)
	err = base.Retry(e.cfg.Attempts.Repeat, what, func(attempt int) (bool, error) {
		sp := e.newSpin(rng, req, mode, dist)
		ok, err := sp.run()
		if err != nil {
			return false, err
		}
		if !ok {
			if attempt%repeatWarnEvery == 0 {
				e.log.Warnf("%s: %d repeats without a matching result", what, attempt)
			}
			return false, nil
		}
		out = sp.outcome(attempt - 1)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) newSpin(rng *base.RNG, req SpinRequest, mode *mathcfg.BetMode, dist *mathcfg.Distribution) *spin {
	return &spin{
		eng:    e,
		cfg:    e.cfg,
		rng:    rng,
		req:    req,
		mode:   mode,
		dist:   dist,
		cond:   &dist.Conditions,
		ledger: NewLedger(e.cfg.WinCap, e.cfg.OverflowFirst),
		book:   newBook(req.Sim, req.Seed, mode.Name, dist.Criteria, e.cfg.WinCap, e.cfg.IncludePadding),
		gt:     mathcfg.BaseGame,
	}
}

// run 一次完整尝试；返回 false 表示需要重复
func (sp *spin) run() (bool, error) {
	if err := sp.initialBoard(); err != nil {
		return false, err
	}
	sp.book.boardEvent(EventReveal, string(sp.gt), sp.board)
	sp.ledger.StartSpin()
	if err := sp.tumble(); err != nil {
		return false, err
	}
	sp.endTumble()

	if !sp.ledger.Capped {
		t := ResolveTrigger(sp.board, sp.cfg)
		switch {
		case t.Feature != "":
			if sp.cond.ForceFreegame && sp.cond.FeatureType != "" && t.Feature != sp.cond.FeatureType {
				return false, nil
			}
			if !sp.buy {
				sp.scatterPay(t)
			}
			if !sp.ledger.Capped {
				if err := sp.freeSpins(t); err != nil {
					return false, err
				}
			}
		case sp.cond.ForceFreegame:
			return false, nil
		}
	}
	return sp.finalize()
}

func (sp *spin) initialBoard() error {
	var err error
	switch {
	case sp.cond.BuyEntry != nil:
		sp.buy = true
		sp.board, err = sp.eng.sampler.Buy(sp.rng, sp.cond, sp.gt, *sp.cond.BuyEntry)
	case sp.cond.ForceFreegame:
		sp.board, err = sp.eng.sampler.Forced(sp.rng, sp.cond, sp.gt)
	default:
		sp.board, err = sp.eng.sampler.Natural(sp.rng, sp.cond, sp.gt, true)
	}
	return err
}

// scatterPay 自然触发时按散布总数赔付
func (sp *spin) scatterPay(t Trigger) {
	pay, ok := sp.cfg.ScatterPayouts[t.Total()]
	if !ok || !pay.IsPositive() {
		return
	}
	sp.ledger.Credit(pay)
	sp.book.add(Event{
		Type:     EventScatterPay,
		GameType: string(sp.gt),
		Scatters: t.Total(),
		Amount:   sp.book.amount(pay),
	})
	sp.book.add(Event{Type: EventSetTotalWin, GameType: string(sp.gt), Amount: sp.book.amount(sp.ledger.Running)})
	if sp.ledger.CheckCap() {
		sp.wincapEvent()
	}
}

// freeSpins 特色局：初始局数，入口抽取一次再触发上限，封顶即停
func (sp *spin) freeSpins(t Trigger) error {
	fs := sp.cfg.FreeSpins
	sp.feature = t.Feature
	sp.gt = mathcfg.FreeGame
	sp.ledger.SetSegment(mathcfg.FreeGame)
	sp.bombs = sp.cfg.BombTable(sp.buy).Tier(t.Feature)
	sp.retrig = retriggerState{cap: SampleRetriggerCap(sp.rng, fs.RetriggerCapsTable)}
	sp.fsTotal = fs.Initial

	sp.book.add(Event{
		Type:      EventEnterBonus,
		GameType:  string(mathcfg.BaseGame),
		Scatters:  t.Total(),
		FreeSpins: &FreeSpinInfo{Feature: t.Feature, Total: sp.fsTotal},
	})
	sp.book.add(Event{
		Type:      EventFreeSpinTrigger,
		GameType:  string(sp.gt),
		FreeSpins: &FreeSpinInfo{Feature: t.Feature, Total: sp.fsTotal, RetriggerCap: sp.retrig.cap},
	})

	for sp.fsCount < sp.fsTotal && !sp.ledger.Capped {
		sp.fsCount++
		sp.book.add(Event{
			Type:      EventUpdateFreeSpin,
			GameType:  string(sp.gt),
			FreeSpins: &FreeSpinInfo{Current: sp.fsCount, Total: sp.fsTotal},
		})
		board, err := sp.eng.sampler.Natural(sp.rng, sp.cond, sp.gt, false)
		if err != nil {
			return err
		}
		sp.board = board
		sp.book.boardEvent(EventReveal, string(sp.gt), sp.board)
		sp.ledger.StartSpin()
		if err := sp.tumble(); err != nil {
			return err
		}
		sp.endTumble()
		if sp.ledger.Capped {
			break
		}
		if sp.board.Count(sp.cfg.Symbols.Scatter) >= fs.RetriggerScatters {
			if total, ok := sp.retrig.grant(sp.fsTotal, fs.RetriggerSpins, fs.Max); ok {
				sp.fsTotal = total
				sp.book.add(Event{
					Type:      EventRetrigger,
					GameType:  string(sp.gt),
					FreeSpins: &FreeSpinInfo{Current: sp.fsCount, Total: sp.fsTotal, Retriggers: sp.retrig.granted},
				})
			}
		}
	}
	if sp.fsTotal > fs.Max {
		return base.Invariantf("free spin total %d above max %d", sp.fsTotal, fs.Max)
	}

	sp.book.add(Event{
		Type:      EventFreeSpinEnd,
		GameType:  string(sp.gt),
		Amount:    sp.book.amount(sp.ledger.Free),
		FreeSpins: &FreeSpinInfo{Feature: sp.feature, Current: sp.fsCount, Total: sp.fsTotal, Retriggers: sp.retrig.granted},
	})
	return nil
}

// finalize 校验封顶不变量与赢分条件，写入结算
func (sp *spin) finalize() (bool, error) {
	l := sp.ledger
	win := l.Total()
	if sp.dist.WinCriteria != nil && !win.Equal(*sp.dist.WinCriteria) {
		return false, nil
	}
	if l.Running.GreaterThan(l.Cap) {
		return false, base.Invariantf("running total %s above cap %s", l.Running, l.Cap)
	}
	if !l.Base.Add(l.Free).Equal(win) {
		return false, base.Invariantf("segments %s + %s != total %s", l.Base, l.Free, win)
	}

	sp.book.Feature = sp.feature
	sp.book.PayoutMultiplier = sp.book.cents(win)
	sp.book.BaseGameWins = sp.book.cents(l.Base)
	sp.book.FreeGameWins = sp.book.cents(l.Free)
	sp.book.add(Event{Type: EventFinalWin, Amount: sp.book.amount(win)})
	return true, nil
}

func (sp *spin) outcome(repeats int) *Outcome {
	return &Outcome{
		Sim:        sp.req.Sim,
		Mode:       sp.mode.Name,
		Criteria:   sp.dist.Criteria,
		Feature:    sp.feature,
		Win:        sp.ledger.Total(),
		BaseWin:    sp.ledger.Base,
		FreeWin:    sp.ledger.Free,
		Capped:     sp.ledger.Capped,
		Repeats:    repeats,
		FreeSpins:  sp.fsCount,
		Retriggers: sp.retrig.granted,
		Book:       sp.book,
	}
}

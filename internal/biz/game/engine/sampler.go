package engine

import (
	"strings"

	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"
)

// Sampler 按卷轴表生成棋盘
type Sampler struct {
	cfg    *mathcfg.GameConfig
	filler []string
}

func NewSampler(cfg *mathcfg.GameConfig) *Sampler {
	return &Sampler{cfg: cfg, filler: fillerCycle(cfg)}
}

// fillerCycle 低分符号循环（升序），用于购买入口的中性盘面
func fillerCycle(cfg *mathcfg.GameConfig) []string {
	var low, paying []string
	for _, s := range cfg.Paytable.Symbols() {
		if cfg.IsSpecial(s) {
			continue
		}
		paying = append(paying, s)
		if strings.HasPrefix(s, "L") {
			low = append(low, s)
		}
	}
	if len(low) > 0 {
		return low
	}
	if len(paying) > 0 {
		return paying
	}
	return []string{"L1"}
}

// Filler 返回低分填充循环
func (s *Sampler) Filler() []string {
	return s.filler
}

func (s *Sampler) symbol(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType, name string) base.Symbol {
	sym := base.Symbol{Name: name}
	if name == s.cfg.Symbols.Bomb {
		sym.Multiplier = cond.MultValues[gt].Draw(rng)
	}
	return sym
}

func (s *Sampler) reelID(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType) (string, error) {
	w, ok := cond.ReelWeights[gt]
	if !ok || w.Empty() {
		return "", base.Malformedf("no reel_weights for %s", gt)
	}
	id := w.Draw(rng)
	if _, ok := s.cfg.Reels[id]; !ok {
		return "", base.Malformedf("unknown reel id %q", id)
	}
	return id, nil
}

// spinReels 选卷轴后每列随机停止位
func (s *Sampler) spinReels(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType) (*base.Board, error) {
	id, err := s.reelID(rng, cond, gt)
	if err != nil {
		return nil, err
	}
	strip := s.cfg.Reels[id]
	b := base.NewBoard(s.cfg.NumRows, s.cfg.IncludePadding)
	b.ReelID = id
	for c := range b.Reels {
		s.fillColumn(rng, cond, gt, b, strip[c], c, rng.IntN(len(strip[c])))
	}
	return b, nil
}

func (s *Sampler) fillColumn(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType, b *base.Board, reel []string, c, stop int) {
	n := len(reel)
	b.Stops[c] = stop
	for row := range b.Reels[c] {
		b.Reels[c][row] = s.symbol(rng, cond, gt, reel[(stop+row)%n])
	}
	if b.Padded() {
		b.Top[c] = s.symbol(rng, cond, gt, reel[(stop-1+n)%n])
		b.Bottom[c] = s.symbol(rng, cond, gt, reel[(stop+len(b.Reels[c]))%n])
	}
}

// Natural 自然盘面；validate 为真时不合规的盘面会被丢弃重抽
func (s *Sampler) Natural(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType, validate bool) (*base.Board, error) {
	var board *base.Board
	err := base.Retry(s.cfg.Attempts.Board, "natural board", func(int) (bool, error) {
		b, err := s.spinReels(rng, cond, gt)
		if err != nil {
			return false, err
		}
		if validate && !ValidNatural(b, s.cfg.Symbols) {
			return false, nil
		}
		board = b
		return true, nil
	})
	return board, err
}

// ValidNatural 每列至多一个散布类符号，超级散布至多一个
func ValidNatural(b *base.Board, sym mathcfg.Symbols) bool {
	supers := 0
	for c := range b.Reels {
		bs := b.CountOnReel(c, sym.SuperScatter)
		if b.CountOnReel(c, sym.Scatter)+bs > 1 {
			return false
		}
		supers += bs
	}
	return supers <= 1
}

// MatchesPattern 散布数量与图案完全一致且分布在不同列
func MatchesPattern(b *base.Board, sym mathcfg.Symbols, p mathcfg.BuyPattern) bool {
	if b.Count(sym.Scatter) != p.Scatter || b.Count(sym.SuperScatter) != p.SuperScatter {
		return false
	}
	for c := range b.Reels {
		if b.CountOnReel(c, sym.Scatter)+b.CountOnReel(c, sym.SuperScatter) > 1 {
			return false
		}
	}
	return true
}

// Buy 购买入口：整盘低分填充后在随机的不同列上放置散布
func (s *Sampler) Buy(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType, p mathcfg.BuyPattern) (*base.Board, error) {
	var (
		board   *base.Board
		lastErr error
	)
	err := base.Retry(s.cfg.Attempts.BuyEntry, "buy entry board", func(int) (bool, error) {
		b, err := s.spinReels(rng, cond, gt)
		if err != nil {
			return false, err
		}
		s.resetToFiller(b)
		if err := s.place(rng, b, p); err != nil {
			if base.IsInfeasible(err) {
				lastErr = err
				return false, nil
			}
			return false, err
		}
		if !MatchesPattern(b, s.cfg.Symbols, p) {
			return false, nil
		}
		board = b
		return true, nil
	})
	if err != nil && lastErr != nil && base.IsRetryExhausted(err) {
		return nil, base.Exhaustedf("buy entry %+v: %v", p, lastErr)
	}
	return board, err
}

func (s *Sampler) resetToFiller(b *base.Board) {
	i := 0
	b.Each(func(_ base.Pos, sym *base.Symbol) {
		*sym = base.Symbol{Name: s.filler[i%len(s.filler)]}
		i++
	})
}

func (s *Sampler) place(rng *base.RNG, b *base.Board, p mathcfg.BuyPattern) error {
	need := p.Scatter + p.SuperScatter
	if need > b.NumReels() {
		return base.Infeasiblef("pattern %+v needs %d distinct reels, board has %d", p, need, b.NumReels())
	}
	reels := rng.Perm(b.NumReels())
	for i, reel := range reels[:need] {
		name := s.cfg.Symbols.Scatter
		if i >= p.Scatter {
			name = s.cfg.Symbols.SuperScatter
		}
		row := rng.IntN(len(b.Reels[reel]))
		b.Reels[reel][row] = base.Symbol{Name: name}
	}
	return nil
}

// EntryPattern 强制入口的散布组合：普通 {N,0}，超级 {N-1,1}
func EntryPattern(feature string, n int) mathcfg.BuyPattern {
	if feature == mathcfg.FeatureSuper {
		return mathcfg.BuyPattern{Scatter: n - 1, SuperScatter: 1}
	}
	return mathcfg.BuyPattern{Scatter: n}
}

// Forced 自然卷轴上的强制入口：抽取散布数后，把选中列的停止位对准散布
func (s *Sampler) Forced(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType) (*base.Board, error) {
	if cond.ScatterTriggers.Empty() {
		return nil, base.Malformedf("forced entry without scatter_triggers")
	}
	p := EntryPattern(cond.FeatureType, cond.ScatterTriggers.Draw(rng))
	var (
		board   *base.Board
		lastErr error
	)
	err := base.Retry(s.cfg.Attempts.Board, "forced entry board", func(int) (bool, error) {
		b, err := s.spinReels(rng, cond, gt)
		if err != nil {
			return false, err
		}
		if err := s.alignStops(rng, cond, gt, b, p); err != nil {
			if base.IsInfeasible(err) {
				lastErr = err
				return false, nil
			}
			return false, err
		}
		if !MatchesPattern(b, s.cfg.Symbols, p) {
			return false, nil
		}
		board = b
		return true, nil
	})
	if err != nil && lastErr != nil && base.IsRetryExhausted(err) {
		return nil, base.Exhaustedf("forced entry %+v: %v", p, lastErr)
	}
	return board, err
}

func (s *Sampler) alignStops(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType, b *base.Board, p mathcfg.BuyPattern) error {
	need := p.Scatter + p.SuperScatter
	if need > b.NumReels() {
		return base.Infeasiblef("pattern %+v needs %d distinct reels, board has %d", p, need, b.NumReels())
	}
	strip := s.cfg.Reels[b.ReelID]
	reels := rng.Perm(b.NumReels())
	for i, c := range reels[:need] {
		name := s.cfg.Symbols.Scatter
		if i >= p.Scatter {
			name = s.cfg.Symbols.SuperScatter
		}
		var idx []int
		for pos, sym := range strip[c] {
			if sym == name {
				idx = append(idx, pos)
			}
		}
		if len(idx) == 0 {
			return base.Infeasiblef("reel %s column %d carries no %s", b.ReelID, c, name)
		}
		n := len(strip[c])
		row := rng.IntN(len(b.Reels[c]))
		stop := (idx[rng.IntN(len(idx))] - row + n) % n
		s.fillColumn(rng, cond, gt, b, strip[c], c, stop)
	}
	return nil
}

// Refill 移除已消除格子，幸存符号下落，新符号取自停止位上方的卷轴
func (s *Sampler) Refill(rng *base.RNG, cond *mathcfg.Condition, gt mathcfg.GameType, b *base.Board) {
	strip := s.cfg.Reels[b.ReelID]
	for c := range b.Reels {
		reel := strip[c]
		n := len(reel)
		kept := make([]base.Symbol, 0, len(b.Reels[c]))
		for _, sym := range b.Reels[c] {
			if !sym.Consumed {
				kept = append(kept, sym)
			}
		}
		removed := len(b.Reels[c]) - len(kept)
		if removed == 0 {
			continue
		}
		stop := ((b.Stops[c]-removed)%n + n) % n
		fresh := make([]base.Symbol, removed, len(b.Reels[c]))
		for i := range fresh {
			fresh[i] = s.symbol(rng, cond, gt, reel[(stop+i)%n])
		}
		b.Reels[c] = append(fresh, kept...)
		b.Stops[c] = stop
		if b.Padded() {
			b.Top[c] = s.symbol(rng, cond, gt, reel[(stop-1+n)%n])
		}
	}
}

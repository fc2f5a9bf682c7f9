package game

import (
	"fmt"
	"sort"
	"sync"

	"mather/internal/biz/game/mathcfg"

	"github.com/go-kratos/kratos/v2/log"
)

// Pool 游戏池。任一游戏配置校验失败时整体加载失败，不会带着坏配置启动
type Pool struct {
	mu   sync.RWMutex
	byID map[string]*Game
	list []*Game
}

// NewPool 从 root 目录加载全部游戏
func NewPool(root string, logger log.Logger) (*Pool, error) {
	dirs, err := Discover(root)
	if err != nil {
		return nil, fmt.Errorf("discover games in %s: %w", root, err)
	}
	p := &Pool{
		byID: make(map[string]*Game, len(dirs)),
		list: make([]*Game, 0, len(dirs)),
	}
	helper := log.NewHelper(logger)
	for _, dir := range dirs {
		cfg, err := mathcfg.Load(dir)
		if err != nil {
			return nil, err
		}
		if err := p.add(newGame(dir, cfg, logger)); err != nil {
			return nil, err
		}
		helper.Infof("game %s loaded: modes=%v wincap=%s", cfg.ID, cfg.ModeNames(), cfg.WinCap)
	}
	return p, nil
}

// NewPoolFromGames 直接由配置构建（测试与命令行工具）
func NewPoolFromGames(logger log.Logger, cfgs ...*mathcfg.GameConfig) (*Pool, error) {
	p := &Pool{byID: make(map[string]*Game, len(cfgs))}
	for _, cfg := range cfgs {
		if err := p.add(newGame("", cfg, logger)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pool) add(g *Game) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byID[g.GameID()]; ok {
		return fmt.Errorf("duplicate game id %s", g.GameID())
	}
	p.byID[g.GameID()] = g
	p.list = append(p.list, g)
	sort.Slice(p.list, func(i, j int) bool {
		return p.list[i].GameID() < p.list[j].GameID()
	})
	return nil
}

func (p *Pool) Get(gameID string) (*Game, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.byID[gameID]
	return g, ok
}

func (p *Pool) List() []*Game {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cpy := append([]*Game{}, p.list...)
	return cpy
}

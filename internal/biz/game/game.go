package game

import (
	"mather/internal/biz/game/engine"
	"mather/internal/biz/game/mathcfg"

	"github.com/go-kratos/kratos/v2/log"
)

// Game 已加载并校验的游戏：数学配置 + 共享引擎
type Game struct {
	dir    string
	cfg    *mathcfg.GameConfig
	engine *engine.Engine
}

func newGame(dir string, cfg *mathcfg.GameConfig, logger log.Logger) *Game {
	return &Game{
		dir:    dir,
		cfg:    cfg,
		engine: engine.New(cfg, engine.WithLogger(logger)),
	}
}

func (g *Game) GameID() string {
	return g.cfg.ID
}

func (g *Game) Name() string {
	if g.cfg.Name != "" {
		return g.cfg.Name
	}
	return g.cfg.ID
}

func (g *Game) Dir() string {
	return g.dir
}

func (g *Game) Config() *mathcfg.GameConfig {
	return g.cfg
}

func (g *Game) Engine() *engine.Engine {
	return g.engine
}

// HasMode 是否存在该下注模式
func (g *Game) HasMode(mode string) bool {
	_, err := g.cfg.Mode(mode)
	return err == nil
}

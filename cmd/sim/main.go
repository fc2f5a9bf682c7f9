package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/game"
	"mather/internal/biz/game/engine"
	"mather/internal/biz/game/mathcfg"
	"mather/internal/biz/stats"
	"mather/pkg/xgo"
	"mather/pkg/zap"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	_ "go.uber.org/automaxprocs"
)

var (
	flagGames   string
	flagGame    string
	flagModes   string
	flagCount   int
	flagSeed    uint64
	flagWorkers int
	flagOut     string
	flagBooks   bool
	flagVerify  bool
)

func init() {
	flag.StringVar(&flagGames, "games", "../../configs/games", "games root directory")
	flag.StringVar(&flagGame, "game", "", "game id, empty = all")
	flag.StringVar(&flagModes, "modes", "", "comma separated bet modes, empty = all")
	flag.IntVar(&flagCount, "count", 10000, "spins per bet mode")
	flag.Uint64Var(&flagSeed, "seed", 0, "batch seed")
	flag.IntVar(&flagWorkers, "workers", 8, "goroutines per bet mode")
	flag.StringVar(&flagOut, "out", "./library", "output directory")
	flag.BoolVar(&flagBooks, "books", true, "write books as JSON lines")
	flag.BoolVar(&flagVerify, "verify", false, "only check fences and exit")
}

// gameSummary summary.json 内容：各模式报告与失败局合计
type gameSummary struct {
	GameID    string                     `json:"game_id"`
	Seed      uint64                     `json:"seed"`
	Processed int64                      `json:"processed"`
	Failed    int64                      `json:"failed"`
	Errors    map[string]int64           `json:"errors,omitempty"`
	Modes     []*v1.TaskCompletionReport `json:"modes"`
}

// modeRun 单个下注模式的运行结果
type modeRun struct {
	game    *game.Game
	mode    *mathcfg.BetMode
	acc     *stats.Accumulator
	elapsed time.Duration
}

func main() {
	flag.Parse()
	logger := zap.NewLoggerWithConfig(&zap.Config{Mode: zap.Dev, Level: "info", App: "sim"})
	defer logger.Sync()
	log.SetLogger(logger)
	l := log.NewHelper(logger)

	pool, err := game.NewPool(flagGames, logger)
	if err != nil {
		l.Errorf("load games: %v", err)
		os.Exit(1)
	}
	var games []*game.Game
	for _, g := range pool.List() {
		if flagGame == "" || g.GameID() == flagGame {
			games = append(games, g)
		}
	}
	if len(games) == 0 {
		l.Errorf("no game matches %q", flagGame)
		os.Exit(1)
	}

	if flagVerify {
		ok := true
		for _, g := range games {
			ok = verify(g) && ok
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	var modes map[string]bool
	if flagModes != "" {
		modes = map[string]bool{}
		for _, m := range strings.Split(flagModes, ",") {
			modes[strings.TrimSpace(m)] = true
		}
	}

	ctx := context.Background()
	for _, g := range games {
		if err := runGame(ctx, l, g, modes); err != nil {
			l.Errorf("game %s: %v", g.GameID(), err)
			os.Exit(1)
		}
	}
}

// verify 打印档位核对结果
func verify(g *game.Game) bool {
	for _, r := range mathcfg.Fences(g.Config()) {
		fmt.Printf("%s/%s target=%s sum=%s diff=%s ok=%v\n", g.GameID(), r.Mode, r.Target, r.Sum, r.Diff, r.OK)
		for _, line := range r.Lines {
			mark := ""
			if line.Excluded {
				mark = " (excluded)"
			}
			fmt.Printf("    %-12s %s%s\n", line.Name, line.RTP, mark)
		}
	}
	if err := mathcfg.VerifyFences(g.Config()); err != nil {
		fmt.Printf("%s: %s\n", g.GameID(), errors.FromError(err).GetMessage())
		return false
	}
	return true
}

// runGame 各下注模式并发运行，写出 books 与汇总
func runGame(ctx context.Context, l *log.Helper, g *game.Game, modes map[string]bool) error {
	dir := filepath.Join(flagOut, g.GameID())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		runs []*modeRun
	)
	eg, ctx := errgroup.WithContext(ctx)
	for _, m := range g.Config().Modes {
		if modes != nil && !modes[m.Name] {
			continue
		}
		m := m
		eg.Go(func() error {
			run, err := runMode(ctx, l, g, m, dir)
			if err != nil {
				return fmt.Errorf("mode %s: %w", m.Name, err)
			}
			mu.Lock()
			runs = append(runs, run)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	slices.SortFunc(runs, func(a, b *modeRun) int { return strings.Compare(a.mode.Name, b.mode.Name) })
	summary := gameSummary{
		GameID: g.GameID(),
		Seed:   flagSeed,
		Errors: map[string]int64{},
		Modes:  make([]*v1.TaskCompletionReport, 0, len(runs)),
	}
	for _, run := range runs {
		r := &v1.TaskCompletionReport{
			GameId:    g.GameID(),
			GameName:  g.Name(),
			Mode:      run.mode.Name,
			Status:    v1.TaskStatus_TASK_COMPLETED,
			Seed:      flagSeed,
			Target:    int64(flagCount),
			ElapsedMs: run.elapsed.Milliseconds(),
		}
		sum := run.acc.Summary()
		sum.Fill(r)
		if s := run.elapsed.Seconds(); s > 0 {
			r.SpinsPerSec = float64(r.Processed) / s
		}
		l.Infof("%s/%s: 局数:%d, 失败:%d, RTP:%s, 命中率:%.2f%%, 触顶:%d, 耗时:%v",
			g.GameID(), run.mode.Name, r.Processed, r.Failed,
			stats.RTP(r.TotalWin, r.TotalBet).StringFixed(4), r.HitRatePct, r.CappedCount, run.elapsed)
		summary.Processed += r.Processed
		summary.Failed += r.Failed
		for reason, n := range r.Errors {
			summary.Errors[reason] += n
		}
		summary.Modes = append(summary.Modes, r)
	}
	if summary.Failed > 0 {
		l.Warnf("%s: %d 局失败已跳过 %s", g.GameID(), summary.Failed, xgo.ToJSON(summary.Errors))
	}
	return xgo.WriteJSONFile(filepath.Join(dir, "summary.json"), summary)
}

// runMode 把 [0, count) 切成 workers 段并发模拟
func runMode(ctx context.Context, l *log.Helper, g *game.Game, m *mathcfg.BetMode, dir string) (*modeRun, error) {
	cfg := g.Config()
	acc := stats.NewAccumulator(m.Cost.Shift(2).IntPart(), len(cfg.WinLevels), mathcfg.FeatureSuper)
	criteria := engine.AssignCriteria(m, flagCount, engine.ShardSeed(flagSeed, 0))
	start := time.Now()

	workers := max(1, min(flagWorkers, flagCount))
	chunk := (flagCount + workers - 1) / workers
	books := make([][]byte, workers)

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		from, to := w*chunk, min((w+1)*chunk, flagCount)
		if from >= to {
			continue
		}
		eg.Go(func() error {
			var buf strings.Builder
			enc := jsoniter.ConfigFastest.NewEncoder(&buf)
			for sim := from; sim < to; sim++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := g.Engine().Spin(engine.SpinRequest{Mode: m.Name, Criteria: criteria[sim], Sim: sim, Seed: flagSeed})
				if err != nil {
					// 失败局只计数并跳过，不产生 book
					reason := errors.Reason(err)
					if reason == "" {
						reason = "UNKNOWN"
					}
					acc.AddError(reason)
					l.Errorf("%s/%s sim %d: %v", g.GameID(), m.Name, sim, err)
					continue
				}
				acc.Add(stats.Row{
					Sim:       int64(sim),
					Criteria:  out.Criteria,
					Feature:   out.Feature,
					Win:       out.Book.PayoutMultiplier,
					BaseWin:   out.Book.BaseGameWins,
					FreeWin:   out.Book.FreeGameWins,
					Capped:    out.Capped,
					Repeats:   out.Repeats,
					FreeSpins: out.FreeSpins,
					WinLevel:  cfg.WinLevel(out.Win.InexactFloat64()),
				})
				if flagBooks {
					if err := enc.Encode(out.Book); err != nil {
						return err
					}
				}
			}
			books[w] = []byte(buf.String())
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if flagBooks {
		if err := writeBooks(filepath.Join(dir, "books_"+m.Name+".jsonl"), books); err != nil {
			return nil, err
		}
	}
	return &modeRun{game: g, mode: m, acc: acc, elapsed: time.Since(start)}, nil
}

// writeBooks 按局序号顺序拼接各段
func writeBooks(path string, parts [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriterSize(f, 1<<20)
	for _, p := range parts {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return w.Flush()
}

package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/chart"
	"mather/internal/biz/game/mathcfg"
	"mather/internal/biz/stats"
	"mather/pkg/xgo"

	"github.com/go-kratos/kratos/v2/log"
)

const pointTimeLayout = "2006-01-02 15:04:05"

// StatsSnapshot 完整快照（元数据+统计），一次性返回
type StatsSnapshot struct {
	ID          string
	Description string
	Status      v1.TaskStatus
	Config      *v1.TaskConfig
	Target      int64
	Shards      int64
	ShardsDone  int64
	Summary     stats.Summary
	CreatedAt   time.Time
	StartAt     time.Time
	FinishedAt  time.Time
	RecordUrl   string
	BooksUrl    string
	Failure     error
}

// TaskStats 任务统计
type TaskStats struct {
	meta *taskMeta // 与 Task 共享
	acc  *stats.Accumulator

	target     atomic.Int64
	shards     atomic.Int64
	shardsDone atomic.Int64

	pointEvery int64
	pointMu    sync.Mutex
	points     []chart.Point
}

func NewTaskStats(target, costCents int64, cfg *mathcfg.GameConfig, meta *taskMeta) *TaskStats {
	s := &TaskStats{
		meta:       meta,
		acc:        stats.NewAccumulator(costCents, len(cfg.WinLevels), mathcfg.FeatureSuper),
		pointEvery: 10000,
	}
	s.target.Store(target)
	return s
}

// SetPointEvery 每完成 n 局记录一个 RTP 点
func (s *TaskStats) SetPointEvery(n int64) {
	if n > 0 {
		s.pointEvery = n
	}
}

func (s *TaskStats) setShards(n int64) {
	s.shards.Store(n)
}

func (s *TaskStats) markShardDone() {
	s.shardsDone.Add(1)
}

// Record 记录一局结果，按 pointEvery 采集 RTP 收敛点
func (s *TaskStats) Record(r stats.Row) {
	s.acc.Add(r)
	if n := s.acc.Spins(); n%s.pointEvery == 0 {
		bet, win := s.acc.Totals()
		s.pointMu.Lock()
		s.points = append(s.points, chart.Point{
			X:    float64(n) / 1e4,
			Y:    stats.RTP(win, bet).InexactFloat64(),
			Time: time.Now().Format(pointTimeLayout),
		})
		s.pointMu.Unlock()
	}
}

func (s *TaskStats) AddError(reason string) {
	s.acc.AddError(reason)
}

func (s *TaskStats) Processed() int64 {
	return s.acc.Spins()
}

// DrainPoints 取走尚未持久化的 RTP 点
func (s *TaskStats) DrainPoints() []chart.Point {
	s.pointMu.Lock()
	defer s.pointMu.Unlock()
	out := s.points
	s.points = nil
	return out
}

// FinalPoint 当前累计 RTP（任务结束时补齐曲线终点）
func (s *TaskStats) FinalPoint() chart.Point {
	bet, win := s.acc.Totals()
	return chart.Point{
		X:    float64(s.acc.Spins()) / 1e4,
		Y:    stats.RTP(win, bet).InexactFloat64(),
		Time: time.Now().Format(pointTimeLayout),
	}
}

// StatsSnapshot 一次性返回完整快照（元数据+统计）
func (s *TaskStats) StatsSnapshot() StatsSnapshot {
	s.meta.mu.RLock()
	snap := StatsSnapshot{
		ID:          s.meta.id,
		Description: s.meta.description,
		Status:      s.meta.status,
		Config:      s.meta.config,
		CreatedAt:   s.meta.createdAt,
		StartAt:     s.meta.startAt,
		FinishedAt:  s.meta.finishedAt,
		RecordUrl:   s.meta.recordUrl,
		BooksUrl:    s.meta.booksUrl,
		Failure:     s.meta.failure,
	}
	s.meta.mu.RUnlock()

	snap.Target = s.target.Load()
	snap.Shards = s.shards.Load()
	snap.ShardsDone = s.shardsDone.Load()
	snap.Summary = s.acc.Summary()
	return snap
}

// Elapsed 运行时长，未开始为 0
func (s *StatsSnapshot) Elapsed() time.Duration {
	if s.StartAt.IsZero() {
		return 0
	}
	end := time.Now()
	if !s.FinishedAt.IsZero() {
		end = s.FinishedAt
	}
	return end.Sub(s.StartAt)
}

// SpinsPerSec 每秒完成局数
func (s *StatsSnapshot) SpinsPerSec() float64 {
	d := s.Elapsed().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(s.Summary.Spins) / d
}

// Progress 完成百分比，失败跳过的局同样计入
func (s *StatsSnapshot) Progress() float64 {
	return xgo.ProgressPct(s.Summary.Spins+s.Summary.Failed, s.Target)
}

// Report 转换为任务报告
func (s *StatsSnapshot) Report(gameName string) *v1.TaskCompletionReport {
	r := &v1.TaskCompletionReport{
		TaskId:      s.ID,
		GameId:      s.Config.GetGameId(),
		GameName:    gameName,
		Mode:        s.Config.GetMode(),
		Status:      s.Status,
		Target:      s.Target,
		Progress:    s.Progress(),
		ElapsedMs:   s.Elapsed().Milliseconds(),
		SpinsPerSec: s.SpinsPerSec(),
		Url:         s.RecordUrl,
		BooksUrl:    s.BooksUrl,
	}
	if s.Config != nil {
		r.Seed = s.Config.Seed
	}
	s.Summary.Fill(r)
	return r
}

// Monitor 启动进度监控
func (s *TaskStats) Monitor(ctx context.Context) {
	start := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.printFinalStats(start)
			return
		case <-ticker.C:
			s.printProgress(start)
		}
	}
}

func (s *TaskStats) printProgress(start time.Time) {
	s.meta.mu.RLock()
	id := s.meta.id
	s.meta.mu.RUnlock()
	process, target := s.acc.Spins(), s.target.Load()
	bet, win := s.acc.Totals()
	elapsed := time.Since(start)
	pct := xgo.Pct(s.acc.Attempted(), target)
	remaining := time.Duration(0)
	if pct > 0 {
		remaining = time.Duration(int64(float64(elapsed)/pct*100)) - elapsed
	}
	log.Infof("[%s]: 进度:%d/%d(%.2f%%), 用时:%s, 剩余:%s, 局/秒:%.2f, RTP:%s, 分片:%d/%d    ",
		id, process, target, pct,
		xgo.ShortDuration(elapsed), xgo.ShortDuration(remaining),
		float64(process)/elapsed.Seconds(), stats.RTP(win, bet).StringFixed(4),
		s.shardsDone.Load(), s.shards.Load(),
	)
}

func (s *TaskStats) printFinalStats(start time.Time) {
	s.meta.mu.RLock()
	id := s.meta.id
	s.meta.mu.RUnlock()
	sum := s.acc.Summary()
	elapsed := time.Since(start)
	log.Infof("[%s] 任务结束: 进度:%d/%d, 失败:%d, 耗时:%v, 局/秒:%.2f, 单局:%s, RTP:%s (基础 %s, 免费 %s), 触顶:%d, 重复:%d",
		id, sum.Spins, s.target.Load(), sum.Failed, elapsed,
		float64(sum.Spins)/elapsed.Seconds(), xgo.AvgDuration(elapsed, sum.Spins+sum.Failed),
		stats.RTP(sum.TotalWin, sum.TotalBet).StringFixed(4),
		stats.RTP(sum.BaseWin, sum.TotalBet).StringFixed(4),
		stats.RTP(sum.FreeWin, sum.TotalBet).StringFixed(4),
		sum.Capped, sum.Repeats,
	)
}

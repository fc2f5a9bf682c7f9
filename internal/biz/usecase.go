package biz

import (
	"context"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/chart"
	"mather/internal/biz/game"
	"mather/internal/biz/metrics"
	"mather/internal/biz/stats"
	"mather/internal/biz/task"
	"mather/internal/biz/worker"
	"mather/internal/conf"
	"mather/internal/notify"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewUseCase)

const cleanupTimeout = 10 * time.Minute

// DataRepo 数据层接口：任务ID计数/结果落库/RTP 曲线/进度/对象存储
type DataRepo interface {
	NextTaskID(ctx context.Context, gameID string) (string, error)
	SaveResults(ctx context.Context, taskID string, rows []stats.Row) error
	SumResults(ctx context.Context, taskID string) (count, win int64, err error)
	SavePoints(ctx context.Context, taskID string, pts []chart.Point) error
	QueryPoints(ctx context.Context, taskID string) ([]chart.Point, error)
	SaveProgress(ctx context.Context, r *v1.TaskCompletionReport) error
	GetProgress(ctx context.Context, taskID string) (*v1.TaskCompletionReport, error)
	DeleteTaskData(ctx context.Context, taskIDs ...string) error
	CleanStaleProgress(ctx context.Context) error
	UploadEnabled() bool
	UploadBytes(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
}

// UseCase 编排层：通过 DataRepo + 领域池（Game/Task/Worker）编排业务
type UseCase struct {
	ctx        context.Context
	cancel     context.CancelFunc
	scheduleCh chan struct{}

	repo       DataRepo
	log        *log.Helper
	conf       *conf.Sim
	gamePool   *game.Pool
	taskPool   *task.Pool
	workerPool *worker.Pool

	notify notify.Notifier
	chart  chart.IGenerator
}

// NewUseCase 加载游戏目录并启动调度与清理
func NewUseCase(repo DataRepo, logger log.Logger, c *conf.Sim, n notify.Notifier, g chart.IGenerator) (*UseCase, func(), error) {
	c = c.Defaults()
	games, err := game.NewPool(c.GamesDir, logger)
	if err != nil {
		return nil, nil, err
	}
	uc := newUseCase(repo, logger, c, games, n, g)
	return uc, uc.Close, nil
}

func newUseCase(repo DataRepo, logger log.Logger, c *conf.Sim, games *game.Pool, n notify.Notifier, g chart.IGenerator) *UseCase {
	ctx, cancel := context.WithCancel(context.Background())
	uc := &UseCase{
		ctx:        ctx,
		cancel:     cancel,
		scheduleCh: make(chan struct{}, 1),
		repo:       repo,
		log:        log.NewHelper(log.With(logger, "module", "biz")),
		conf:       c,
		gamePool:   games,
		taskPool:   task.NewTaskPool(),
		workerPool: worker.NewPool(int(c.MaxWorkers)),
		notify:     n,
		chart:      g,
	}

	// 启动时清理上次遗留的进度键
	uc.cleanOnStartup()

	go uc.scheduleLoop()
	go uc.taskPool.StartAutoCleanup(ctx, logger, c.Retention.AsDuration(), c.CleanupInterval.AsDuration(), uc.onTasksExpired)
	go uc.reportWorkers()
	return uc
}

// Close 停止调度并取消所有运行中的任务
func (uc *UseCase) Close() {
	uc.cancel()
	for _, t := range uc.taskPool.List() {
		_ = t.Cancel()
	}
}

// GetGame 按 gameID 获取游戏
func (uc *UseCase) GetGame(gameID string) (*game.Game, bool) {
	return uc.gamePool.Get(gameID)
}

// ListGames 返回游戏列表（按 GameID 升序）
func (uc *UseCase) ListGames() []*game.Game {
	return uc.gamePool.List()
}

// GetTask 按 ID 获取任务
func (uc *UseCase) GetTask(id string) (*task.Task, bool) {
	return uc.taskPool.Get(id)
}

// ListTasks 返回所有任务（已按创建时间倒序）
func (uc *UseCase) ListTasks() []*task.Task {
	return uc.taskPool.List()
}

// GetWorkerStats 工作槽位统计
func (uc *UseCase) GetWorkerStats() (idle, allocated, total int) {
	return uc.workerPool.Stats()
}

// cleanOnStartup 启动时清理 Redis 中无过期时间的进度键
func (uc *UseCase) cleanOnStartup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := uc.repo.CleanStaleProgress(ctx); err != nil {
		uc.log.Warnf("startup clean progress: %v", err)
	}
}

// onTasksExpired 过期任务从内存移除后清理其持久化数据
func (uc *UseCase) onTasksExpired(ids []string) {
	ctx, cancel := context.WithTimeout(uc.ctx, cleanupTimeout)
	defer cancel()
	if err := uc.repo.DeleteTaskData(ctx, ids...); err != nil {
		uc.log.Warnf("delete expired task data: %v", err)
	}
}

// reportWorkers 周期上报槽位使用情况
func (uc *UseCase) reportWorkers() {
	ticker := time.NewTicker(metrics.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-uc.ctx.Done():
			return
		case <-ticker.C:
			idle, allocated, _ := uc.workerPool.Stats()
			metrics.ReportWorkers(idle, allocated)
		}
	}
}

// GetStoredReport 内存中已清理的任务从 Redis 读取最近一次报告
func (uc *UseCase) GetStoredReport(ctx context.Context, taskID string) (*v1.TaskCompletionReport, error) {
	return uc.repo.GetProgress(ctx, taskID)
}

package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/game"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/panjf2000/ants/v2"
)

var maxWorkerPerTask = 256

// taskMeta 任务元数据，Task 与 TaskStats 共享
type taskMeta struct {
	mu          sync.RWMutex
	id          string
	description string
	status      v1.TaskStatus
	config      *v1.TaskConfig
	createdAt   time.Time
	startAt     time.Time
	finishedAt  time.Time
	recordUrl   string
	booksUrl    string
	failure     error
}

// Task 模拟任务
type Task struct {
	meta *taskMeta

	mu       sync.RWMutex
	game     *game.Game
	pool     *ants.Pool
	bookUrls map[int]string
	ctx      context.Context
	cancel   context.CancelFunc
	log      *log.Helper

	stats *TaskStats
}

// NewTask 创建新任务，workers 为 0 时取 maxWorkerPerTask
func NewTask(id, description string, g *game.Game, config *v1.TaskConfig, logger log.Logger) (*Task, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	mode, err := g.Config().Mode(config.Mode)
	if err != nil {
		return nil, err
	}
	capacity := maxWorkerPerTask
	if config.Workers > 0 {
		capacity = int(config.Workers)
	}
	pool, err := ants.NewPool(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = log.GetLogger()
	}

	meta := &taskMeta{
		id: id, description: description, status: v1.TaskStatus_TASK_PENDING,
		config: config, createdAt: time.Now(),
	}
	cost := mode.Cost.Shift(2).IntPart()
	return &Task{
		meta:   meta,
		game:   g,
		pool:   pool,
		ctx:    ctx,
		cancel: cancel,
		log:    log.NewHelper(log.With(logger, "task", id)),
		stats:  NewTaskStats(config.Count, cost, g.Config(), meta),
	}, nil
}

func (t *Task) GetID() string {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.id
}

func (t *Task) GetDescription() string {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.description
}

func (t *Task) GetConfig() *v1.TaskConfig {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.config
}

func (t *Task) GetCreatedAt() time.Time {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.createdAt
}

func (t *Task) GetStartAt() time.Time {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.startAt
}

func (t *Task) SetStartAt() {
	t.meta.mu.Lock()
	t.meta.startAt = time.Now()
	t.meta.mu.Unlock()
}

func (t *Task) GetFinishedAt() time.Time {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.finishedAt
}

// SetFinishAt 记录结束时间（只写一次）
func (t *Task) SetFinishAt() {
	t.meta.mu.Lock()
	if t.meta.finishedAt.IsZero() {
		t.meta.finishedAt = time.Now()
	}
	t.meta.mu.Unlock()
}

func (t *Task) GetRecordUrl() string {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.recordUrl
}

func (t *Task) SetRecordUrl(url string) {
	t.meta.mu.Lock()
	t.meta.recordUrl = url
	t.meta.mu.Unlock()
}

func (t *Task) SetBooksUrl(url string) {
	t.meta.mu.Lock()
	t.meta.booksUrl = url
	t.meta.mu.Unlock()
}

// Failure 导致任务失败的致命错误
func (t *Task) Failure() error {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.failure
}

// Fail 记录首个致命错误并停止派发新的分片
func (t *Task) Fail(err error) {
	t.meta.mu.Lock()
	first := t.meta.failure == nil
	if first {
		t.meta.failure = err
	}
	t.meta.mu.Unlock()
	if first {
		t.log.Errorf("task failed: %v", err)
		t.cancel()
	}
}

func (t *Task) GetStatus() v1.TaskStatus {
	t.meta.mu.RLock()
	defer t.meta.mu.RUnlock()
	return t.meta.status
}

func (t *Task) Game() *game.Game {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.game
}

func (t *Task) Context() context.Context {
	return t.ctx
}

// isTerminalStatus 判断是否为终态（完成/失败/取消）
func isTerminalStatus(status v1.TaskStatus) bool {
	switch status {
	case v1.TaskStatus_TASK_COMPLETED, v1.TaskStatus_TASK_FAILED, v1.TaskStatus_TASK_CANCELLED:
		return true
	default:
		return false
	}
}

func (t *Task) SetStatus(status v1.TaskStatus) {
	t.meta.mu.Lock()
	defer t.meta.mu.Unlock()
	if t.meta.status == status {
		return
	}
	if isTerminalStatus(status) && t.meta.finishedAt.IsZero() {
		t.meta.finishedAt = time.Now()
	}
	t.meta.status = status
}

// CompareAndSetStatus 状态为 from 时切换到 to
func (t *Task) CompareAndSetStatus(from, to v1.TaskStatus) bool {
	t.meta.mu.Lock()
	defer t.meta.mu.Unlock()
	if t.meta.status != from {
		return false
	}
	if isTerminalStatus(to) && t.meta.finishedAt.IsZero() {
		t.meta.finishedAt = time.Now()
	}
	t.meta.status = to
	return true
}

func (t *Task) Cancel() error {
	t.meta.mu.Lock()
	if isTerminalStatus(t.meta.status) {
		t.meta.mu.Unlock()
		return fmt.Errorf("task already finished")
	}
	t.meta.status = v1.TaskStatus_TASK_CANCELLED
	if t.meta.finishedAt.IsZero() {
		t.meta.finishedAt = time.Now()
	}
	t.meta.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	t.log.Info("cancelled")
	return nil
}

// Start 启动任务进入运行状态
func (t *Task) Start() error {
	t.meta.mu.Lock()
	defer t.meta.mu.Unlock()
	if t.meta.status != v1.TaskStatus_TASK_PENDING {
		return fmt.Errorf("task status %v cannot be started", t.meta.status)
	}
	t.meta.status = v1.TaskStatus_TASK_RUNNING
	t.log.Infof("started, created at %s", t.meta.createdAt.Format("15:04:05"))
	return nil
}

// Stop 取消 context 并释放协程池
func (t *Task) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	p := t.pool
	t.pool = nil
	t.mu.Unlock()
	if p != nil {
		p.Release()
	}
	t.log.Info("task stopped")
}

// Tune 按分配到的槽位数调整协程池容量
func (t *Task) Tune(size int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.pool != nil && size > 0 {
		t.pool.Tune(size)
	}
}

func (t *Task) Submit(fn func()) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.pool == nil {
		return fmt.Errorf("task pool already released")
	}
	return t.pool.Submit(fn)
}

// GetStats 返回任务统计信息
func (t *Task) GetStats() *TaskStats {
	return t.stats
}

// StatsSnapshot 统计快照
func (t *Task) StatsSnapshot() StatsSnapshot {
	return t.stats.StatsSnapshot()
}

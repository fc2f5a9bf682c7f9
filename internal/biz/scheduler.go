package biz

import (
	"context"
	"fmt"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/game"
	"mather/internal/biz/game/engine"
	"mather/internal/biz/game/mathcfg"
	"mather/internal/biz/metrics"
	"mather/internal/biz/task"

	"github.com/go-kratos/kratos/v2/errors"
)

// scheduleLoop 调度器主循环，阻塞等待任务变更信号
func (uc *UseCase) scheduleLoop() {
	for {
		select {
		case <-uc.ctx.Done():
			return
		case <-uc.scheduleCh:
			uc.doSchedule()
		}
	}
}

// slotsFor 任务申请的槽位数，未指定时取全部槽位
func (uc *UseCase) slotsFor(config *v1.TaskConfig) int {
	if config.Workers > 0 {
		return int(min(config.Workers, uc.conf.MaxWorkers))
	}
	return int(uc.conf.MaxWorkers)
}

// doSchedule 执行实际调度逻辑
func (uc *UseCase) doSchedule() {
	for {
		select {
		case <-uc.ctx.Done():
			return
		default:
		}

		// 控制同时运行的任务数，避免宿主机 CPU 被多个任务瓜分
		if uc.taskPool.IsRateLimited(int(uc.conf.MaxRunning)) {
			break
		}

		taskID, t, ok := uc.taskPool.PeekPending()
		if !ok {
			break
		}
		if t == nil || t.GetStatus() != v1.TaskStatus_TASK_PENDING || t.GetConfig() == nil {
			uc.taskPool.DropPendingHead()
			continue
		}
		slots := uc.slotsFor(t.GetConfig())
		if !uc.workerPool.CanAllocate(slots) {
			break
		}
		if !uc.taskPool.DequeuePending(taskID) {
			continue
		}
		allocated := uc.workerPool.Allocate(taskID, slots)
		if allocated == nil {
			uc.taskPool.RequeueAtHead(taskID)
			break
		}
		if !t.CompareAndSetStatus(v1.TaskStatus_TASK_PENDING, v1.TaskStatus_TASK_RUNNING) {
			uc.workerPool.Release(taskID)
			continue
		}
		go uc.runTask(t, len(allocated))
	}
}

// WakeScheduler 唤醒调度器（非阻塞）
func (uc *UseCase) WakeScheduler() {
	select {
	case uc.scheduleCh <- struct{}{}:
	default: // channel 已满，已有待处理信号
	}
}

// runTask 执行任务，cleanup 后通过回调唤醒调度
func (uc *UseCase) runTask(t *task.Task, slots int) {
	deps := &task.ExecDeps{
		SaveResults:  uc.repo.SaveResults,
		SavePoints:   uc.repo.SavePoints,
		QueryPoints:  uc.repo.QueryPoints,
		SumResults:   uc.repo.SumResults,
		SaveProgress: uc.repo.SaveProgress,
		ReleaseSlots: uc.workerPool.Release,
		Conf:         uc.conf,
		Notify:       uc.notify,
		Chart:        uc.chart,
		OnComplete:   uc.WakeScheduler,
	}
	if uc.repo.UploadEnabled() {
		deps.UploadBytes = uc.repo.UploadBytes
	}
	t.Execute(slots, deps)
}

// CreateTask 创建并排队等待调度
func (uc *UseCase) CreateTask(ctx context.Context, description string, config *v1.TaskConfig) (*task.Task, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.BadRequest("INVALID_CONFIG", err.Error())
	}
	g, ok := uc.gamePool.Get(config.GameId)
	if !ok {
		return nil, errors.NotFound("GAME_NOT_FOUND", fmt.Sprintf("game %s not found", config.GameId))
	}
	if !g.HasMode(config.Mode) {
		return nil, errors.BadRequest("MODE_NOT_FOUND", fmt.Sprintf("game %s has no mode %q", config.GameId, config.Mode))
	}
	if config.Count > uc.conf.MaxCount {
		return nil, errors.BadRequest("COUNT_EXCEEDED", fmt.Sprintf("count %d exceeds limit %d", config.Count, uc.conf.MaxCount))
	}
	if config.Workers > uc.conf.MaxWorkers {
		return nil, errors.BadRequest("WORKERS_EXCEEDED", fmt.Sprintf("workers %d exceeds limit %d", config.Workers, uc.conf.MaxWorkers))
	}

	taskID, err := uc.repo.NextTaskID(ctx, config.GameId)
	if err != nil {
		return nil, fmt.Errorf("generate task id failed: %w", err)
	}

	t, err := task.NewTask(taskID, description, g, config, uc.log.Logger())
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	uc.taskPool.Add(t)
	uc.WakeScheduler()
	return t, nil
}

// DeleteTask 删除任务及其持久化数据（异步，不等待 Execute 退出）
func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	t, ok := uc.taskPool.Remove(id)
	if !ok {
		return errors.NotFound("TASK_NOT_FOUND", fmt.Sprintf("task %s not found", id))
	}

	// 停止任务上下文，触发 Execute 退出；槽位由 Execute.cleanup 归还
	_ = t.Cancel()
	metrics.DeleteTask(t.Report())
	if err := uc.repo.DeleteTaskData(ctx, id); err != nil {
		uc.log.Warnf("delete task %s data: %v", id, err)
	}
	return nil
}

// CancelTask 取消任务（异步，不等待 Execute 退出）
func (uc *UseCase) CancelTask(id string) error {
	t, ok := uc.taskPool.Get(id)
	if !ok {
		return errors.NotFound("TASK_NOT_FOUND", fmt.Sprintf("task %s not found", id))
	}
	if err := t.Cancel(); err != nil {
		return errors.Conflict("TASK_FINISHED", err.Error())
	}
	uc.taskPool.DropPending(id) // 如果有
	uc.WakeScheduler()
	return nil
}

// Spin 运行单局，用于按种子复现或调试
func (uc *UseCase) Spin(gameID string, req engine.SpinRequest) (*engine.Outcome, error) {
	g, ok := uc.gamePool.Get(gameID)
	if !ok {
		return nil, errors.NotFound("GAME_NOT_FOUND", fmt.Sprintf("game %s not found", gameID))
	}
	if req.Criteria != "" {
		mode, err := g.Config().Mode(req.Mode)
		if err != nil {
			return nil, err
		}
		if _, err := mode.Distribution(req.Criteria); err != nil {
			return nil, err
		}
	}
	return g.Engine().Spin(req)
}

// VerifyGame 核对各模式档位之和与目标 RTP
func (uc *UseCase) VerifyGame(gameID string) (*game.Game, []mathcfg.FenceReport, error) {
	g, ok := uc.gamePool.Get(gameID)
	if !ok {
		return nil, nil, errors.NotFound("GAME_NOT_FOUND", fmt.Sprintf("game %s not found", gameID))
	}
	return g, mathcfg.Fences(g.Config()), mathcfg.VerifyFences(g.Config())
}

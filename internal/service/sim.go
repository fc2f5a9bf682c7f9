package service

import (
	"context"
	"fmt"
	"strings"

	v1 "mather/api/sim/v1"
	"mather/internal/biz"
	"mather/internal/biz/game"
	"mather/internal/biz/game/engine"
	"mather/internal/biz/task"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewSimService)

const (
	errCodeCreateTask = 1
	errCodeGetTask    = 2
	errCodeCancelTask = 3
)

// SimService 模拟服务
type SimService struct {
	uc  *biz.UseCase
	log *log.Helper
}

var _ v1.SimServiceHTTPServer = (*SimService)(nil)

func NewSimService(uc *biz.UseCase, logger log.Logger) *SimService {
	return &SimService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service")),
	}
}

// ListGames 获取游戏列表
func (s *SimService) ListGames(ctx context.Context, in *v1.ListGamesRequest) (*v1.ListGamesResponse, error) {
	all := s.uc.ListGames()
	games := make([]*v1.GameInfo, len(all))
	for i, g := range all {
		games[i] = buildGame(g)
	}
	return &v1.ListGamesResponse{Games: games, Total: int32(len(games))}, nil
}

// VerifyGame 档位核对
func (s *SimService) VerifyGame(ctx context.Context, in *v1.VerifyGameRequest) (*v1.VerifyGameResponse, error) {
	g, reports, err := s.uc.VerifyGame(in.GameId)
	if g == nil {
		return nil, err
	}
	out := &v1.VerifyGameResponse{GameId: g.GameID(), Ok: err == nil}
	if err != nil {
		out.Error = errors.FromError(err).GetMessage()
	}
	for _, r := range reports {
		fr := &v1.FenceReport{
			Mode:   r.Mode,
			Target: r.Target.String(),
			Sum:    r.Sum.String(),
			Diff:   r.Diff.String(),
			Ok:     r.OK,
		}
		for _, l := range r.Lines {
			fr.Lines = append(fr.Lines, &v1.FenceLine{Name: l.Name, Rtp: l.RTP.String(), Excluded: l.Excluded})
		}
		out.Modes = append(out.Modes, fr)
	}
	return out, nil
}

// Spin 运行单局
func (s *SimService) Spin(ctx context.Context, in *v1.SpinRequest) (*v1.SpinReply, error) {
	out, err := s.uc.Spin(in.GameId, engine.SpinRequest{
		Mode:     in.Mode,
		Criteria: in.Criteria,
		Sim:      int(in.Sim),
		Seed:     in.Seed,
	})
	if err != nil {
		s.log.Warnf("Spin %s/%s sim %d: %v", in.GameId, in.Mode, in.Sim, err)
		return nil, err
	}
	book, err := jsoniter.Marshal(out.Book)
	if err != nil {
		return nil, err
	}
	return &v1.SpinReply{
		GameId:    in.GameId,
		Mode:      out.Mode,
		Criteria:  out.Criteria,
		Feature:   out.Feature,
		Win:       out.Win.String(),
		BaseWin:   out.BaseWin.String(),
		FreeWin:   out.FreeWin.String(),
		Capped:    out.Capped,
		Repeats:   int32(out.Repeats),
		FreeSpins: int32(out.FreeSpins),
		Book:      book,
	}, nil
}

// ListTasks 获取任务列表
func (s *SimService) ListTasks(ctx context.Context, in *v1.ListTasksRequest) (*v1.ListTasksResponse, error) {
	all := s.uc.ListTasks()
	tasks := make([]*v1.Task, 0, len(all))

	status := v1.TaskStatus_TASK_UNSPECIFIED
	if in != nil {
		status = in.Status
	}
	for _, t := range all {
		if status != v1.TaskStatus_TASK_UNSPECIFIED && t.GetStatus() != status {
			continue
		}
		tasks = append(tasks, buildTask(t, false))
	}
	return &v1.ListTasksResponse{Tasks: tasks, Total: int32(len(tasks))}, nil
}

// CreateTask 创建模拟任务
func (s *SimService) CreateTask(ctx context.Context, in *v1.CreateTaskRequest) (*v1.CreateTaskResponse, error) {
	t, err := s.uc.CreateTask(ctx, in.Description, in.Config)
	if err != nil {
		s.log.Errorf("CreateTask failed: %v", err)
		return &v1.CreateTaskResponse{Code: errCodeCreateTask, Message: errors.FromError(err).GetMessage()}, nil
	}
	return &v1.CreateTaskResponse{Code: 0, Message: "success", Task: buildTask(t, false)}, nil
}

// TaskInfo 获取任务详情，已清理的任务回退到持久化报告
func (s *SimService) TaskInfo(ctx context.Context, in *v1.TaskInfoRequest) (*v1.TaskInfoResponse, error) {
	t, err := s.getTask(in.TaskId)
	if err == nil {
		return &v1.TaskInfoResponse{Code: 0, Message: "success", Task: buildTask(t, true)}, nil
	}
	rpt, serr := s.uc.GetStoredReport(ctx, strings.TrimSpace(in.TaskId))
	if serr != nil {
		s.log.Warnf("TaskInfo stored report: %v", serr)
	}
	if rpt == nil {
		return &v1.TaskInfoResponse{Code: errCodeGetTask, Message: err.Error()}, nil
	}
	return &v1.TaskInfoResponse{Code: 0, Message: "success", Task: &v1.Task{
		TaskId:    rpt.TaskId,
		Status:    rpt.Status,
		Config:    &v1.TaskConfig{GameId: rpt.GameId, Mode: rpt.Mode, Count: rpt.Target, Seed: rpt.Seed},
		Report:    rpt,
		RecordUrl: rpt.Url,
	}}, nil
}

// CancelTask 取消任务
func (s *SimService) CancelTask(ctx context.Context, in *v1.CancelTaskRequest) (*v1.CancelTaskResponse, error) {
	t, err := s.getTask(in.TaskId)
	if err != nil {
		return &v1.CancelTaskResponse{Code: errCodeCancelTask, Message: err.Error()}, nil
	}
	if err = s.uc.CancelTask(t.GetID()); err != nil {
		return &v1.CancelTaskResponse{Code: errCodeCancelTask, Message: errors.FromError(err).GetMessage()}, nil
	}
	return &v1.CancelTaskResponse{Code: 0, Message: "success"}, nil
}

// DeleteTask 删除任务
func (s *SimService) DeleteTask(ctx context.Context, in *v1.DeleteTaskRequest) (*emptypb.Empty, error) {
	if err := s.uc.DeleteTask(ctx, strings.TrimSpace(in.TaskId)); err != nil {
		s.log.Errorf("DeleteTask failed: %v", err)
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (s *SimService) getTask(taskID string) (*task.Task, error) {
	if taskID = strings.TrimSpace(taskID); taskID == "" {
		return nil, fmt.Errorf("TASK_ID_EMPTY")
	}
	if t, ok := s.uc.GetTask(taskID); ok {
		return t, nil
	}
	return nil, fmt.Errorf("TASK_NOT_FOUND")
}

func buildTask(t *task.Task, withReport bool) *v1.Task {
	snap := t.StatsSnapshot()
	out := &v1.Task{
		TaskId:    snap.ID,
		Status:    snap.Status,
		Config:    snap.Config,
		RecordUrl: snap.RecordUrl,
		CreatedAt: snap.CreatedAt,
	}
	if !snap.FinishedAt.IsZero() {
		at := snap.FinishedAt
		out.FinishedAt = &at
	}
	if withReport {
		out.Report = t.Report()
	}
	return out
}

func buildGame(g *game.Game) *v1.GameInfo {
	c := g.Config()
	info := &v1.GameInfo{
		GameId: g.GameID(),
		Name:   g.Name(),
		WinCap: c.WinCap.String(),
		Rtp:    c.RTP.String(),
		Reels:  int32(c.NumReels),
	}
	for _, n := range c.NumRows {
		info.Rows = append(info.Rows, int32(n))
	}
	for _, m := range c.Modes {
		info.Modes = append(info.Modes, &v1.ModeInfo{
			Name:     m.Name,
			Cost:     m.Cost.String(),
			Buy:      m.BuyBonus,
			Criteria: m.Criteria(),
		})
	}
	return info
}

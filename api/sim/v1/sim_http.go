package v1

import (
	context "context"

	http "github.com/go-kratos/kratos/v2/transport/http"
	binding "github.com/go-kratos/kratos/v2/transport/http/binding"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
)

// This is a compile-time assertion to ensure that this file
// is compatible with the kratos package it is being compiled against.
var _ = new(context.Context)
var _ = binding.EncodeURL

const _ = http.SupportPackageIsVersion1

const OperationSimServiceCancelTask = "/sim.v1.SimService/CancelTask"
const OperationSimServiceCreateTask = "/sim.v1.SimService/CreateTask"
const OperationSimServiceDeleteTask = "/sim.v1.SimService/DeleteTask"
const OperationSimServiceListGames = "/sim.v1.SimService/ListGames"
const OperationSimServiceListTasks = "/sim.v1.SimService/ListTasks"
const OperationSimServiceSpin = "/sim.v1.SimService/Spin"
const OperationSimServiceTaskInfo = "/sim.v1.SimService/TaskInfo"
const OperationSimServiceVerifyGame = "/sim.v1.SimService/VerifyGame"

type SimServiceHTTPServer interface {
	// CancelTask 取消任务
	CancelTask(context.Context, *CancelTaskRequest) (*CancelTaskResponse, error)
	// CreateTask 创建模拟任务
	CreateTask(context.Context, *CreateTaskRequest) (*CreateTaskResponse, error)
	// DeleteTask 删除任务
	DeleteTask(context.Context, *DeleteTaskRequest) (*emptypb.Empty, error)
	// ListGames 游戏与下注模式列表
	ListGames(context.Context, *ListGamesRequest) (*ListGamesResponse, error)
	// ListTasks 任务列表
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
	// Spin 运行单局并返回完整记录
	Spin(context.Context, *SpinRequest) (*SpinReply, error)
	// TaskInfo 任务详情
	TaskInfo(context.Context, *TaskInfoRequest) (*TaskInfoResponse, error)
	// VerifyGame 档位核对
	VerifyGame(context.Context, *VerifyGameRequest) (*VerifyGameResponse, error)
}

func RegisterSimServiceHTTPServer(s *http.Server, srv SimServiceHTTPServer) {
	r := s.Route("/")
	r.GET("/v1/games", _SimService_ListGames0_HTTP_Handler(srv))
	r.GET("/v1/games/{game_id}/verify", _SimService_VerifyGame0_HTTP_Handler(srv))
	r.POST("/v1/spin", _SimService_Spin0_HTTP_Handler(srv))
	r.POST("/v1/tasks", _SimService_CreateTask0_HTTP_Handler(srv))
	r.GET("/v1/tasks", _SimService_ListTasks0_HTTP_Handler(srv))
	r.GET("/v1/tasks/{task_id}", _SimService_TaskInfo0_HTTP_Handler(srv))
	r.POST("/v1/tasks/{task_id}/cancel", _SimService_CancelTask0_HTTP_Handler(srv))
	r.DELETE("/v1/tasks/{task_id}", _SimService_DeleteTask0_HTTP_Handler(srv))
}

func _SimService_ListGames0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListGamesRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceListGames)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListGames(ctx, req.(*ListGamesRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*ListGamesResponse)
		return ctx.Result(200, reply)
	}
}

func _SimService_VerifyGame0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in VerifyGameRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceVerifyGame)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.VerifyGame(ctx, req.(*VerifyGameRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*VerifyGameResponse)
		return ctx.Result(200, reply)
	}
}

func _SimService_Spin0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in SpinRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceSpin)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Spin(ctx, req.(*SpinRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*SpinReply)
		return ctx.Result(200, reply)
	}
}

func _SimService_CreateTask0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CreateTaskRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceCreateTask)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.CreateTask(ctx, req.(*CreateTaskRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*CreateTaskResponse)
		return ctx.Result(200, reply)
	}
}

func _SimService_ListTasks0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListTasksRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceListTasks)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListTasks(ctx, req.(*ListTasksRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*ListTasksResponse)
		return ctx.Result(200, reply)
	}
}

func _SimService_TaskInfo0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in TaskInfoRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceTaskInfo)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.TaskInfo(ctx, req.(*TaskInfoRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*TaskInfoResponse)
		return ctx.Result(200, reply)
	}
}

func _SimService_CancelTask0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CancelTaskRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceCancelTask)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.CancelTask(ctx, req.(*CancelTaskRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*CancelTaskResponse)
		return ctx.Result(200, reply)
	}
}

func _SimService_DeleteTask0_HTTP_Handler(srv SimServiceHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in DeleteTaskRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSimServiceDeleteTask)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.DeleteTask(ctx, req.(*DeleteTaskRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*emptypb.Empty)
		return ctx.Result(200, reply)
	}
}

package notify

import (
	"context"

	v1 "mather/api/sim/v1"
)

// Level 通知级别，决定卡片标题颜色
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// LevelOf 按任务终态与失败局数给出级别：正常完成为 info，
// 有失败局或被取消为 warn，任务失败为 error
func LevelOf(r *v1.TaskCompletionReport) Level {
	switch {
	case r == nil:
		return LevelInfo
	case r.Status == v1.TaskStatus_TASK_FAILED:
		return LevelError
	case r.Status == v1.TaskStatus_TASK_CANCELLED || r.Failed > 0:
		return LevelWarn
	}
	return LevelInfo
}

func (l Level) template() string {
	switch l {
	case LevelWarn:
		return "orange"
	case LevelError:
		return "red"
	}
	return "blue"
}

// Message 一条模拟任务通知
type Message struct {
	TaskID  string
	Title   string
	Content string
	Level   Level
}

type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}

// Noop 未配置 webhook 时丢弃消息
type Noop struct{}

func (Noop) Send(context.Context, *Message) error { return nil }

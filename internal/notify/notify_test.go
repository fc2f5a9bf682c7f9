package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	v1 "mather/api/sim/v1"
	"mather/internal/conf"

	jsoniter "github.com/json-iterator/go"
)

func TestNewFeishuDisabled(t *testing.T) {
	if _, ok := NewFeishu(nil).(Noop); !ok {
		t.Error("nil 配置应返回 Noop")
	}
	if _, ok := NewFeishu(&conf.Notify{Enabled: true}).(Noop); !ok {
		t.Error("缺少 webhook 应返回 Noop")
	}
}

func TestFeishuSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = jsoniter.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok"}`))
	}))
	defer srv.Close()

	n := NewFeishu(&conf.Notify{Enabled: true, WebhookUrl: srv.URL, SigningSecret: "s", Prefix: "[dev]"})
	msg := BuildTaskCompletionMessage(&v1.TaskCompletionReport{
		TaskId: "t-1", GameId: "candy", Status: v1.TaskStatus_TASK_COMPLETED,
		Processed: 10, Target: 10, TotalBet: 1000, TotalWin: 962, RtpPct: 96.2,
	})
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if got["sign"] == nil || got["timestamp"] == nil {
		t.Error("启用签名时应带 sign/timestamp")
	}
	card, _ := jsoniter.MarshalToString(got["card"])
	if !strings.Contains(card, "[dev] 模拟任务结束") || !strings.Contains(card, "96.2000%") {
		t.Errorf("card = %s", card)
	}
}

func TestFeishuSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":19021,"msg":"sign match fail"}`))
	}))
	defer srv.Close()
	n := NewFeishu(&conf.Notify{Enabled: true, WebhookUrl: srv.URL})
	if err := n.Send(context.Background(), &Message{Title: "x"}); err == nil {
		t.Error("非 0 code 应返回错误")
	}
}

func TestBuildMessageStatus(t *testing.T) {
	msg := BuildTaskCompletionMessage(&v1.TaskCompletionReport{Status: v1.TaskStatus_TASK_FAILED, Errors: map[string]int64{"INVARIANT_VIOLATED": 1}})
	if !strings.Contains(msg.Title, "TASK_FAILED") || !strings.Contains(msg.Content, "INVARIANT_VIOLATED") {
		t.Errorf("msg = %+v", msg)
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		name string
		r    *v1.TaskCompletionReport
		want Level
		tpl  string
	}{
		{"空报告", nil, LevelInfo, "blue"},
		{"正常完成", &v1.TaskCompletionReport{Status: v1.TaskStatus_TASK_COMPLETED}, LevelInfo, "blue"},
		{"有失败局", &v1.TaskCompletionReport{Status: v1.TaskStatus_TASK_COMPLETED, Failed: 3}, LevelWarn, "orange"},
		{"已取消", &v1.TaskCompletionReport{Status: v1.TaskStatus_TASK_CANCELLED}, LevelWarn, "orange"},
		{"任务失败", &v1.TaskCompletionReport{Status: v1.TaskStatus_TASK_FAILED}, LevelError, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelOf(tt.r); got != tt.want || got.template() != tt.tpl {
				t.Errorf("LevelOf = %d(%s), want %d(%s)", got, got.template(), tt.want, tt.tpl)
			}
		})
	}
}

func TestBuildMessageFailedSpins(t *testing.T) {
	msg := BuildTaskCompletionMessage(&v1.TaskCompletionReport{
		TaskId: "t-2", Status: v1.TaskStatus_TASK_COMPLETED,
		Processed: 190, Failed: 10, Target: 200, ElapsedMs: 725_000,
		Errors: map[string]int64{"RETRY_EXHAUSTED": 9, "INFEASIBLE_PATTERN": 1},
	})
	if msg.TaskID != "t-2" || msg.Level != LevelWarn {
		t.Errorf("消息元数据不符: %+v", msg)
	}
	for _, want := range []string{"**失败局数**：10", "**耗时**：12m05s"} {
		if !strings.Contains(msg.Content, want) {
			t.Errorf("缺少 %q: %s", want, msg.Content)
		}
	}
	i, j := strings.Index(msg.Content, "INFEASIBLE_PATTERN"), strings.Index(msg.Content, "RETRY_EXHAUSTED")
	if i < 0 || j < 0 || i > j {
		t.Errorf("错误原因应按名称排序: %s", msg.Content)
	}
}

func TestFeishuCardTemplate(t *testing.T) {
	var got struct {
		Card struct {
			Header struct {
				Template string `json:"template"`
			} `json:"header"`
		} `json:"card"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = jsoniter.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	n := NewFeishu(&conf.Notify{Enabled: true, WebhookUrl: srv.URL})
	if err := n.Send(context.Background(), &Message{Title: "x", Level: LevelError}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if got.Card.Header.Template != "red" {
		t.Errorf("标题颜色 %q, want red", got.Card.Header.Template)
	}
}

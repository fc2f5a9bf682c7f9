package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/conf"
	"mather/pkg/xgo"

	"github.com/google/wire"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/exp/maps"
)

var ProviderSet = wire.NewSet(NewFeishu)

type Feishu struct {
	WebhookURL    string
	SigningSecret string
	Prefix        string
	Client        *http.Client
}

func NewFeishu(c *conf.Notify) Notifier {
	if c == nil || !c.Enabled || strings.TrimSpace(c.GetWebhookUrl()) == "" {
		return Noop{}
	}
	return &Feishu{
		WebhookURL:    strings.TrimSpace(c.GetWebhookUrl()),
		SigningSecret: strings.TrimSpace(c.GetSigningSecret()),
		Prefix:        strings.TrimSpace(c.GetPrefix()),
		Client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *Feishu) Send(ctx context.Context, msg *Message) error {
	if f.WebhookURL == "" || msg == nil {
		return nil
	}

	content := msg.Content
	if content == "" {
		content = msg.Title
	}
	title := msg.Title
	if title == "" {
		title = "通知"
	}
	if p := strings.TrimSpace(f.Prefix); p != "" {
		title = p + " " + title
	}

	payload := map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"config":   map[string]bool{"wide_screen_mode": true},
			"header":   map[string]any{"title": map[string]string{"tag": "plain_text", "content": title}, "template": msg.Level.template()},
			"elements": []map[string]any{{"tag": "div", "text": map[string]string{"tag": "lark_md", "content": content}}},
		},
	}
	if f.SigningSecret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		payload["timestamp"] = ts
		payload["sign"] = f.sign(ts)
	}

	body, _ := jsoniter.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, f.WebhookURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feishu: status %d", resp.StatusCode)
	}
	var r struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	_ = jsoniter.NewDecoder(resp.Body).Decode(&r)
	if r.Code != 0 {
		return fmt.Errorf("feishu: code=%d msg=%s", r.Code, r.Msg)
	}
	return nil
}

// sign 飞书加签，与 scripts/feishu-test.sh 一致：HMAC-SHA256(key=timestamp+\n+secret, message="")
func (f *Feishu) sign(ts string) string {
	key := ts + "\n" + f.SigningSecret
	h := hmac.New(sha256.New, []byte(key))
	h.Write(nil)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// BuildTaskCompletionMessage 根据任务报告构建结束消息（Markdown），金额按分换算为元
func BuildTaskCompletionMessage(r *v1.TaskCompletionReport) *Message {
	if r == nil {
		return &Message{Title: "模拟任务结束"}
	}
	title := "模拟任务结束"
	if r.Status != v1.TaskStatus_TASK_COMPLETED {
		title = fmt.Sprintf("模拟任务结束(%s)", r.Status)
	}
	lines := []string{
		fmt.Sprintf("**任务ID**：%s", r.TaskId),
		fmt.Sprintf("**游戏**：%s (%s)", r.GameName, r.GameId),
		fmt.Sprintf("**模式**：%s, seed=%d", r.Mode, r.Seed),
		fmt.Sprintf("**进度**：%d / %d (%.1f%%)", r.Processed, r.Target, r.Progress),
		fmt.Sprintf("**耗时**：%s", xgo.FormatDuration(time.Duration(r.ElapsedMs)*time.Millisecond)),
		fmt.Sprintf("**局/秒**：%.2f", r.SpinsPerSec),
		fmt.Sprintf("**总下注**：%.2f", float64(r.TotalBet)/100),
		fmt.Sprintf("**总赢**：%.2f", float64(r.TotalWin)/100),
		fmt.Sprintf("**RTP**：%.4f%% (基础 %.4f%% / 免费 %.4f%%)", r.RtpPct, r.BaseRtpPct, r.FreeRtpPct),
		fmt.Sprintf("**中奖率**：%.2f%%", r.HitRatePct),
		fmt.Sprintf("**免费游戏**：%d (超级 %d)", r.FeatureCount, r.SuperCount),
		fmt.Sprintf("**触顶**：%d", r.CappedCount),
		fmt.Sprintf("**最大赢**：%.2f", float64(r.MaxWin)/100),
		fmt.Sprintf("**失败局数**：%d", r.Failed),
	}
	reasons := maps.Keys(r.Errors)
	slices.Sort(reasons)
	for _, reason := range reasons {
		lines = append(lines, fmt.Sprintf("**错误 %s**：%d", reason, r.Errors[reason]))
	}
	if r.Url != "" {
		lines = append(lines, fmt.Sprintf("[RTP 曲线](%s)", r.Url))
	}
	if r.BooksUrl != "" {
		lines = append(lines, fmt.Sprintf("[Books](%s)", r.BooksUrl))
	}
	return &Message{TaskID: r.TaskId, Title: title, Content: strings.Join(lines, "\n"), Level: LevelOf(r)}
}

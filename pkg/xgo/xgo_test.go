package xgo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

func TestShortDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0"},
		{-time.Second, "0"},
		{150 * time.Hour, "6.25d"},
		{2*time.Hour + 30*time.Minute, "2.50h"},
		{150 * time.Second, "2.50m"},
		{12340 * time.Microsecond, "12.3ms"},
		{250 * time.Nanosecond, "250ns"},
	}
	for _, tt := range tests {
		if got := ShortDuration(tt.in); got != tt.want {
			t.Errorf("ShortDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45200 * time.Millisecond, "45.2s"},
		{12*time.Minute + 5*time.Second, "12m05s"},
		{3*time.Hour + 7*time.Minute + 59*time.Second, "3h07m"},
		{26 * time.Hour, "26h00m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAvgDuration(t *testing.T) {
	tests := []struct {
		d     time.Duration
		spins int64
		want  string
	}{
		{10 * time.Second, 4, "2.50s"},
		{time.Second, 1000, "1.00ms"},
		{time.Second, 0, "0"},
	}
	for _, tt := range tests {
		if got := AvgDuration(tt.d, tt.spins); got != tt.want {
			t.Errorf("AvgDuration(%v, %d) = %q, want %q", tt.d, tt.spins, got, tt.want)
		}
	}
}

func TestPct(t *testing.T) {
	tests := []struct {
		num, denom int64
		pct, prog  float64
	}{
		{3, 4, 75, 75},
		{250, 200, 125, 100},
		{1, 0, 0, 0},
		{-5, 10, -50, 0},
	}
	for _, tt := range tests {
		if got := Pct(tt.num, tt.denom); got != tt.pct {
			t.Errorf("Pct(%d, %d) = %v, want %v", tt.num, tt.denom, got, tt.pct)
		}
		if got := ProgressPct(tt.num, tt.denom); got != tt.prog {
			t.Errorf("ProgressPct(%d, %d) = %v, want %v", tt.num, tt.denom, got, tt.prog)
		}
	}
}

func TestWriteJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.json")
	if err := WriteJSONFile(path, map[string]any{"failed": 2, "game_id": "candy"}); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Failed int    `json:"failed"`
		GameID string `json:"game_id"`
	}
	if err := json.Unmarshal(b, &got); err != nil || got.Failed != 2 || got.GameID != "candy" {
		t.Errorf("内容无法还原: %s %v", b, err)
	}
	if !strings.HasSuffix(string(b), "}\n") || !strings.Contains(string(b), "\n  \"") {
		t.Errorf("应为两空格缩进且以换行结尾: %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("残留临时文件: %d 个条目", len(entries))
	}
	if err := WriteJSONFile(path, func() {}); err == nil {
		t.Error("不可编码的值应报错")
	}
	if again, _ := os.ReadFile(path); string(again) != string(b) {
		t.Error("编码失败不应覆盖原文件")
	}
	if ToJSON(map[string]int{"b": 1, "a": 2}) != `{"a":2,"b":1}` {
		t.Errorf("ToJSON 键未排序")
	}
}

func TestRecover(t *testing.T) {
	sentinel := errors.New("board overflow")
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"字符串", "boom", "panic: boom"},
		{"错误值", sentinel, "panic: board overflow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got error
			func() {
				defer Recover(log.NewHelper(log.DefaultLogger), func(err error) { got = err })
				panic(tt.value)
			}()
			if got == nil || got.Error() != tt.want {
				t.Fatalf("回调错误 %v, want %q", got, tt.want)
			}
			if e, ok := tt.value.(error); ok && !errors.Is(got, e) {
				t.Errorf("应保留原始错误链: %v", got)
			}
		})
	}

	called := false
	func() {
		defer Recover(nil, func(error) { called = true })
	}()
	if called {
		t.Error("无 panic 时不应回调")
	}
	if strings.Contains(ToJSON(1), "error") {
		t.Error("ToJSON(1) 不应失败")
	}
}

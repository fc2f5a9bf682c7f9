package task

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/chart"
	"mather/internal/biz/game"
	"mather/internal/biz/game/base"
	"mather/internal/biz/game/engine"
	"mather/internal/biz/stats"
	"mather/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

const gamesRoot = "../../../configs/games"

func loadGame(t *testing.T) *game.Game {
	t.Helper()
	p, err := game.NewPool(gamesRoot, log.DefaultLogger)
	if err != nil {
		t.Fatalf("加载游戏池失败: %v", err)
	}
	g, ok := p.Get("candy_carnage_1000")
	if !ok {
		t.Fatal("candy_carnage_1000 未加载")
	}
	return g
}

type recorder struct {
	mu       sync.Mutex
	rows     int64
	win      int64
	points   int
	progress []*v1.TaskCompletionReport
	released []string
	uploads  map[string][]byte
}

func (r *recorder) deps(c *conf.Sim) *ExecDeps {
	return &ExecDeps{
		SaveResults: func(_ context.Context, _ string, rows []stats.Row) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, row := range rows {
				r.rows++
				r.win += row.Win
			}
			return nil
		},
		SavePoints: func(_ context.Context, _ string, pts []chart.Point) error {
			r.mu.Lock()
			r.points += len(pts)
			r.mu.Unlock()
			return nil
		},
		SumResults: func(context.Context, string) (int64, int64, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.rows, r.win, nil
		},
		SaveProgress: func(_ context.Context, rpt *v1.TaskCompletionReport) error {
			r.mu.Lock()
			r.progress = append(r.progress, rpt)
			r.mu.Unlock()
			return nil
		},
		ReleaseSlots: func(id string) {
			r.mu.Lock()
			r.released = append(r.released, id)
			r.mu.Unlock()
		},
		Conf: c,
	}
}

func testConf() *conf.Sim {
	return (&conf.Sim{ShardSize: 50, PointEvery: 40, ResultBatch: 30}).Defaults()
}

func TestBuildSessions(t *testing.T) {
	tests := []struct {
		count, size int64
		want        int
		last        [2]int64
	}{
		{count: 100, size: 30, want: 4, last: [2]int64{90, 100}},
		{count: 100, size: 50, want: 2, last: [2]int64{50, 100}},
		{count: 7, size: 0, want: 1, last: [2]int64{0, 7}},
		{count: 1, size: 1000, want: 1, last: [2]int64{0, 1}},
	}
	for _, tt := range tests {
		ss := buildSessions(tt.count, tt.size)
		if len(ss) != tt.want {
			t.Errorf("count=%d size=%d: 分片数 %d, want %d", tt.count, tt.size, len(ss), tt.want)
			continue
		}
		l := ss[len(ss)-1]
		if l.From != tt.last[0] || l.To != tt.last[1] {
			t.Errorf("count=%d size=%d: 末分片 [%d,%d), want %v", tt.count, tt.size, l.From, l.To, tt.last)
		}
		var next int64
		for i, s := range ss {
			if s.Shard != i || s.From != next {
				t.Errorf("分片 %d 不连续: %+v", i, s)
			}
			next = s.To
		}
	}
}

func TestNewTaskRejectsBadConfig(t *testing.T) {
	g := loadGame(t)
	if _, err := NewTask("x", "", g, &v1.TaskConfig{GameId: g.GameID(), Mode: "base"}, nil); err == nil {
		t.Error("count=0 应报错")
	}
	if _, err := NewTask("x", "", g, &v1.TaskConfig{GameId: g.GameID(), Mode: "nope", Count: 1}, nil); err == nil {
		t.Error("未知模式应报错")
	}
}

func TestExecuteCompletes(t *testing.T) {
	g := loadGame(t)
	cfg := &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 200, Seed: 7, Workers: 4}
	tk, err := NewTask("20261015-candy-1", "unit", g, cfg, log.DefaultLogger)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	rec := &recorder{}
	tk.Execute(4, rec.deps(testConf()))

	if s := tk.GetStatus(); s != v1.TaskStatus_TASK_COMPLETED {
		t.Fatalf("状态 %s, want COMPLETED", s)
	}
	rpt := tk.Report()
	if rpt.Processed != 200 || rec.rows != 200 {
		t.Errorf("处理局数 report=%d stored=%d, want 200", rpt.Processed, rec.rows)
	}
	if rec.win != rpt.TotalWin {
		t.Errorf("落库赢分 %d 与报告 %d 不一致", rec.win, rpt.TotalWin)
	}
	if rpt.TotalBet != 200*100 {
		t.Errorf("总下注 %d, want %d", rpt.TotalBet, 200*100)
	}
	if snap := tk.StatsSnapshot(); snap.Shards != 4 || snap.ShardsDone != 4 {
		t.Errorf("分片 %d/%d, want 4/4", snap.ShardsDone, snap.Shards)
	}
	if rec.points < 5 {
		t.Errorf("RTP 点数 %d, want >= 5", rec.points)
	}
	if len(rec.released) != 1 || rec.released[0] != tk.GetID() {
		t.Errorf("槽位未归还: %v", rec.released)
	}
	last := rec.progress[len(rec.progress)-1]
	if last.Status != v1.TaskStatus_TASK_COMPLETED {
		t.Errorf("最终进度状态 %s", last.Status)
	}
	if tk.GetFinishedAt().IsZero() {
		t.Error("结束时间未记录")
	}
}

func TestExecuteSkipsFailedSpins(t *testing.T) {
	tests := []struct {
		name     string
		criteria string
	}{
		{"基础局赢分不可达", "basegame"},
		{"免费局赢分不可达", "regular_fs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := loadGame(t)
			g.Config().Attempts.Repeat = 1
			mode, err := g.Config().Mode("base")
			if err != nil {
				t.Fatal(err)
			}
			dist, err := mode.Distribution(tt.criteria)
			if err != nil {
				t.Fatal(err)
			}
			never := decimal.NewFromInt(-1)
			dist.WinCriteria = &never

			c := testConf()
			want := int64(0)
			for _, s := range buildSessions(200, int64(c.ShardSize)) {
				want += int64(engine.Quotas(mode, int(s.To-s.From))[tt.criteria])
			}

			cfg := &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 200, Seed: 9, Workers: 1}
			tk, err := NewTask("skip-1", "", g, cfg, log.DefaultLogger)
			if err != nil {
				t.Fatalf("创建任务失败: %v", err)
			}
			rec := &recorder{}
			tk.Execute(1, rec.deps(c))

			if s := tk.GetStatus(); s != v1.TaskStatus_TASK_COMPLETED {
				t.Fatalf("状态 %s, want COMPLETED (failure=%v)", s, tk.Failure())
			}
			rpt := tk.Report()
			if got := rpt.Errors[base.ReasonRetryExhausted]; got < want || want == 0 {
				t.Errorf("RETRY_EXHAUSTED %d, want >= %d", got, want)
			}
			if rpt.Processed+rpt.Failed != 200 {
				t.Errorf("成功 %d + 失败 %d != 200", rpt.Processed, rpt.Failed)
			}
			if rec.rows != rpt.Processed {
				t.Errorf("失败局不应落库: stored=%d processed=%d", rec.rows, rpt.Processed)
			}
			for _, cc := range rpt.Criteria {
				if cc.Criteria == tt.criteria {
					t.Errorf("%s 不应有成功局: %+v", tt.criteria, cc)
				}
			}
			if rpt.Progress != 100 {
				t.Errorf("进度 %.2f, want 100", rpt.Progress)
			}
		})
	}
}

func TestExecuteDeterministic(t *testing.T) {
	g := loadGame(t)
	run := func(workers int32) (int64, []*v1.CriteriaCount) {
		cfg := &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 150, Seed: 42, Workers: workers}
		tk, err := NewTask("det", "", g, cfg, log.DefaultLogger)
		if err != nil {
			t.Fatalf("创建任务失败: %v", err)
		}
		tk.Execute(int(workers), (&recorder{}).deps(testConf()))
		rpt := tk.Report()
		return rpt.TotalWin, rpt.Criteria
	}
	w1, c1 := run(1)
	w2, c2 := run(3)
	if w1 != w2 {
		t.Errorf("相同种子不同并发结果不同: %d vs %d", w1, w2)
	}
	if len(c1) != len(c2) {
		t.Fatalf("criteria 数不同: %d vs %d", len(c1), len(c2))
	}
	for i := range c1 {
		if *c1[i] != *c2[i] {
			t.Errorf("criteria %s 统计不同: %+v vs %+v", c1[i].Criteria, c1[i], c2[i])
		}
	}
}

func TestExecuteWritesBooks(t *testing.T) {
	g := loadGame(t)
	dir := t.TempDir()
	c := testConf()
	c.BookDir = dir
	cfg := &v1.TaskConfig{GameId: g.GameID(), Mode: "regular_buy", Count: 60, Seed: 3, Workers: 2, SaveBooks: true}
	tk, err := NewTask("books-1", "", g, cfg, log.DefaultLogger)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	tk.Execute(2, (&recorder{}).deps(c))

	for _, name := range []string{"books_00000.jsonl", "books_00001.jsonl", "index.json"} {
		if _, err := os.Stat(filepath.Join(dir, "books-1", name)); err != nil {
			t.Errorf("%s 未生成: %v", name, err)
		}
	}
	if got := tk.StatsSnapshot().BooksUrl; got != filepath.Join(dir, "books-1", "index.json") {
		t.Errorf("BooksUrl = %q", got)
	}
}

func TestExecuteUploadsBooks(t *testing.T) {
	g := loadGame(t)
	rec := &recorder{uploads: map[string][]byte{}}
	deps := rec.deps(testConf())
	deps.UploadBytes = func(_ context.Context, _, key, _ string, data []byte) (string, error) {
		rec.mu.Lock()
		rec.uploads[key] = data
		rec.mu.Unlock()
		return "https://bucket/" + key, nil
	}
	cfg := &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 20, Seed: 1, Workers: 1, SaveBooks: true}
	tk, err := NewTask("up-1", "", g, cfg, log.DefaultLogger)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	tk.Execute(1, deps)

	if _, ok := rec.uploads["books/up-1/books_00000.jsonl"]; !ok {
		t.Errorf("books 未上传: %v", len(rec.uploads))
	}
	if _, ok := rec.uploads["books/up-1/index.json"]; !ok {
		t.Error("books 索引未上传")
	}
	if got := tk.StatsSnapshot().BooksUrl; got != "https://bucket/books/up-1/index.json" {
		t.Errorf("BooksUrl = %q", got)
	}
}

func TestExecuteSkipsCancelled(t *testing.T) {
	g := loadGame(t)
	cfg := &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 10}
	tk, err := NewTask("c-1", "", g, cfg, log.DefaultLogger)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	if err := tk.Cancel(); err != nil {
		t.Fatalf("取消失败: %v", err)
	}
	if err := tk.Cancel(); err == nil {
		t.Error("重复取消应报错")
	}
	rec := &recorder{}
	tk.Execute(1, rec.deps(testConf()))
	if tk.GetStatus() != v1.TaskStatus_TASK_CANCELLED || rec.rows != 0 {
		t.Errorf("已取消任务不应运行: status=%s rows=%d", tk.GetStatus(), rec.rows)
	}
}

func TestStatusTransitions(t *testing.T) {
	g := loadGame(t)
	tk, err := NewTask("s-1", "", g, &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 1}, nil)
	if err != nil {
		t.Fatalf("创建任务失败: %v", err)
	}
	if tk.CompareAndSetStatus(v1.TaskStatus_TASK_RUNNING, v1.TaskStatus_TASK_COMPLETED) {
		t.Error("PENDING 状态下 CAS(RUNNING->COMPLETED) 不应成功")
	}
	if err := tk.Start(); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	if err := tk.Start(); err == nil {
		t.Error("重复启动应报错")
	}
	if !tk.CompareAndSetStatus(v1.TaskStatus_TASK_RUNNING, v1.TaskStatus_TASK_PROCESSING) {
		t.Fatal("RUNNING->PROCESSING 失败")
	}
	if !tk.GetFinishedAt().IsZero() {
		t.Error("非终态不应记录结束时间")
	}
	tk.Fail(context.DeadlineExceeded)
	tk.Fail(context.Canceled)
	if tk.Failure() != context.DeadlineExceeded {
		t.Errorf("应保留首个错误: %v", tk.Failure())
	}
	if tk.Context().Err() == nil {
		t.Error("Fail 后 context 应被取消")
	}
}

func TestPoolPendingOrder(t *testing.T) {
	g := loadGame(t)
	p := NewTaskPool()
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		tk, err := NewTask(id, "", g, &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 1}, nil)
		if err != nil {
			t.Fatalf("创建任务失败: %v", err)
		}
		p.Add(tk)
		time.Sleep(time.Millisecond)
	}
	if p.PendingLen() != 3 {
		t.Fatalf("pending=%d", p.PendingLen())
	}
	if list := p.List(); list[0].GetID() != "c" {
		t.Errorf("List 应按创建时间倒序, 首个 %s", list[0].GetID())
	}

	id, _, ok := p.PeekPending()
	if !ok || id != "a" {
		t.Fatalf("队首 %q, want a", id)
	}
	if p.DequeuePending("b") {
		t.Error("非队首不应出队")
	}
	if !p.DequeuePending("a") {
		t.Fatal("队首出队失败")
	}
	p.RequeueAtHead("a")
	p.DropPending("b")
	if id, _, _ := p.PeekPending(); id != "a" || p.PendingLen() != 2 {
		t.Errorf("队首 %q len %d", id, p.PendingLen())
	}

	p.Remove("a")
	if id, _, _ := p.PeekPending(); id != "c" {
		t.Errorf("移除后队首 %q, want c", id)
	}
}

func TestPoolCleanupAndRateLimit(t *testing.T) {
	g := loadGame(t)
	p := NewTaskPool()
	mk := func(id string) *Task {
		tk, err := NewTask(id, "", g, &v1.TaskConfig{GameId: g.GameID(), Mode: "base", Count: 1}, nil)
		if err != nil {
			t.Fatalf("创建任务失败: %v", err)
		}
		p.Add(tk)
		return tk
	}
	done, running := mk("done"), mk("running")
	_ = mk("pending")

	done.SetStatus(v1.TaskStatus_TASK_COMPLETED)
	running.SetStatus(v1.TaskStatus_TASK_RUNNING)

	if p.RunningCount() != 1 || !p.IsRateLimited(1) || p.IsRateLimited(2) || p.IsRateLimited(0) {
		t.Errorf("限流判断错误: running=%d", p.RunningCount())
	}
	if ids := p.CleanupExpiredTasks(time.Hour); len(ids) != 0 {
		t.Errorf("未过期任务被清理: %v", ids)
	}
	ids := p.CleanupExpiredTasks(-time.Second)
	if len(ids) != 1 || ids[0] != "done" {
		t.Errorf("清理结果 %v, want [done]", ids)
	}
	if _, ok := p.Get("done"); ok {
		t.Error("过期任务仍在池中")
	}
}

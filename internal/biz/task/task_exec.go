package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	v1 "mather/api/sim/v1"
	"mather/internal/biz/chart"
	"mather/internal/biz/metrics"
	"mather/internal/biz/stats"
	"mather/internal/conf"
	"mather/internal/notify"
	"mather/pkg/xgo"
)

const (
	reportInterval = 5 * time.Second
	persistTimeout = 30 * time.Second
)

// 依赖函数定义
type (
	SaveResultsFunc  func(ctx context.Context, taskID string, rows []stats.Row) error
	SavePointsFunc   func(ctx context.Context, taskID string, pts []chart.Point) error
	QueryPointsFunc  func(ctx context.Context, taskID string) ([]chart.Point, error)
	SumResultsFunc   func(ctx context.Context, taskID string) (count, win int64, err error)
	UploadBytesFunc  func(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	SaveProgressFunc func(ctx context.Context, r *v1.TaskCompletionReport) error
	ReleaseSlotsFunc func(taskID string)
)

// ExecDeps 任务执行依赖，函数为 nil 时跳过对应步骤
type ExecDeps struct {
	SaveResults  SaveResultsFunc
	SavePoints   SavePointsFunc
	QueryPoints  QueryPointsFunc
	SumResults   SumResultsFunc
	UploadBytes  UploadBytesFunc
	SaveProgress SaveProgressFunc
	ReleaseSlots ReleaseSlotsFunc
	Conf         *conf.Sim
	Notify       notify.Notifier
	Chart        chart.IGenerator
	OnComplete   func()
}

// Execute 运行任务直至完成、取消或失败；slots 为分配到的并发数
func (t *Task) Execute(slots int, deps *ExecDeps) {
	if t.GetStatus() != v1.TaskStatus_TASK_RUNNING {
		if !t.CompareAndSetStatus(v1.TaskStatus_TASK_PENDING, v1.TaskStatus_TASK_RUNNING) {
			t.log.Warn("task status changed, skip execution")
			return
		}
	}
	if deps.Conf == nil {
		deps.Conf = (&conf.Sim{}).Defaults()
	}

	t.SetStartAt()
	t.Tune(slots)
	t.stats.SetPointEvery(deps.Conf.PointEvery)
	sessions := buildSessions(t.GetConfig().Count, int64(deps.Conf.ShardSize))
	t.stats.setShards(int64(len(sessions)))

	// 启动日志
	t.Monitor()

	// 启动周期 reporter
	stopReporter, wg := t.startReporter(deps)

	// 执行分片
	t.runSessions(sessions, deps)

	// 停止 session 阶段
	t.Stop()

	// 停止 reporter 并等待最终报告
	stopReporter()
	wg.Wait()

	t.cleanup(deps)
}

// runSessions 把分片提交到协程池并等待全部结束
func (t *Task) runSessions(sessions []*Session, deps *ExecDeps) {
	var wg sync.WaitGroup
	submitErrCount := 0

	for _, sess := range sessions {
		sess := sess
		wg.Add(1)
		if err := t.Submit(func() {
			defer wg.Done()
			defer t.stats.markShardDone()
			defer xgo.Recover(t.log, func(err error) {
				t.Fail(fmt.Errorf("shard %d: %w", sess.Shard, err))
			})
			if err := sess.Execute(t.ctx, t, deps); err != nil && t.ctx.Err() == nil {
				t.Fail(err)
			}
		}); err != nil {
			wg.Done()
			submitErrCount++
		}
	}

	if submitErrCount > 0 {
		t.log.Infof("failed to submit %d sessions to ants pool", submitErrCount)
	}

	wg.Wait()
}

// Monitor 运行监控：1s 日志输出，task context 取消后退出
func (t *Task) Monitor() {
	go t.stats.Monitor(t.ctx)
}

func (t *Task) startReporter(deps *ExecDeps) (context.CancelFunc, *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.SetFinishAt()
				t.report(deps, true)
				return
			case <-ticker.C:
				t.report(deps, false)
			}
		}
	}()

	return cancel, &wg
}

// Report 当前快照生成的报告
func (t *Task) Report() *v1.TaskCompletionReport {
	snap := t.StatsSnapshot()
	name := ""
	if g := t.Game(); g != nil {
		name = g.Name()
	}
	return snap.Report(name)
}

// report 上报任务指标；completed 时完成收尾流程
func (t *Task) report(deps *ExecDeps, completed bool) {
	ctx := context.Background()

	pts := t.stats.DrainPoints()
	if completed {
		pts = append(pts, t.stats.FinalPoint())
	}
	t.savePoints(ctx, deps, pts)

	if !completed {
		rpt := t.Report()
		metrics.ReportTask(rpt)
		t.saveProgress(ctx, deps, rpt)
		return
	}

	if err := t.Failure(); err != nil {
		t.CompareAndSetStatus(v1.TaskStatus_TASK_RUNNING, v1.TaskStatus_TASK_FAILED)
	} else {
		t.CompareAndSetStatus(v1.TaskStatus_TASK_RUNNING, v1.TaskStatus_TASK_PROCESSING)
	}

	rpt := t.Report()
	t.verifyStored(ctx, deps, rpt)
	t.uploadBooksIndex(ctx, deps, rpt)
	t.uploadChart(ctx, deps, rpt)

	if t.CompareAndSetStatus(v1.TaskStatus_TASK_PROCESSING, v1.TaskStatus_TASK_COMPLETED) {
		rpt.Status = v1.TaskStatus_TASK_COMPLETED
	} else {
		rpt.Status = t.GetStatus()
	}
	metrics.ReportTask(rpt)
	t.saveProgress(ctx, deps, rpt)
	t.sendNotification(ctx, deps, rpt)

	t.log.Infof("task finished: status=%s rtp=%.4f%% use=%v", rpt.Status, rpt.RtpPct, time.Since(t.GetStartAt()))
}

func (t *Task) saveResults(ctx context.Context, deps *ExecDeps, rows []stats.Row) {
	if deps == nil || deps.SaveResults == nil || len(rows) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := deps.SaveResults(ctx, t.GetID(), rows); err != nil {
		t.log.Errorf("save %d results: %v", len(rows), err)
	}
}

func (t *Task) savePoints(ctx context.Context, deps *ExecDeps, pts []chart.Point) {
	if deps.SavePoints == nil || len(pts) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := deps.SavePoints(ctx, t.GetID(), pts); err != nil {
		t.log.Warnf("save %d rtp points: %v", len(pts), err)
	}
}

func (t *Task) saveProgress(ctx context.Context, deps *ExecDeps, rpt *v1.TaskCompletionReport) {
	if deps.SaveProgress == nil {
		return
	}
	if err := deps.SaveProgress(ctx, rpt); err != nil {
		t.log.Warnf("save progress: %v", err)
	}
}

// verifyStored 核对落库的局数与总赢分
func (t *Task) verifyStored(ctx context.Context, deps *ExecDeps, rpt *v1.TaskCompletionReport) {
	if deps.SumResults == nil || deps.SaveResults == nil {
		return
	}
	count, win, err := deps.SumResults(ctx, t.GetID())
	if err != nil {
		t.log.Warnf("sum stored results: %v", err)
		return
	}
	if count != rpt.Processed || win != rpt.TotalWin {
		t.log.Warnf("stored results mismatch: count %d/%d win %d/%d", count, rpt.Processed, win, rpt.TotalWin)
	}
}

// saveBooks 上传或落盘单个分片的 books（JSON lines）
func (t *Task) saveBooks(ctx context.Context, deps *ExecDeps, shard int, data []byte) {
	if deps == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	name := fmt.Sprintf("books_%05d.jsonl", shard)
	if deps.UploadBytes != nil {
		key := fmt.Sprintf("books/%s/%s", t.GetID(), name)
		url, err := deps.UploadBytes(ctx, "", key, "application/x-ndjson", data)
		if err == nil {
			t.addBookUrl(shard, url)
			return
		}
		t.log.Warnf("upload books shard %d: %v", shard, err)
	}
	if deps.Conf == nil || deps.Conf.BookDir == "" {
		return
	}
	dir := filepath.Join(deps.Conf.BookDir, t.GetID())
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.log.Errorf("create book dir: %v", err)
		return
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.log.Errorf("write books shard %d: %v", shard, err)
		return
	}
	t.addBookUrl(shard, path)
}

func (t *Task) addBookUrl(shard int, url string) {
	t.mu.Lock()
	if t.bookUrls == nil {
		t.bookUrls = make(map[int]string)
	}
	t.bookUrls[shard] = url
	t.mu.Unlock()
}

// uploadBooksIndex 写出各分片 books 位置的索引
func (t *Task) uploadBooksIndex(ctx context.Context, deps *ExecDeps, rpt *v1.TaskCompletionReport) {
	t.mu.RLock()
	shards := make([]int, 0, len(t.bookUrls))
	for s := range t.bookUrls {
		shards = append(shards, s)
	}
	slices.Sort(shards)
	urls := make([]string, len(shards))
	for i, s := range shards {
		urls[i] = t.bookUrls[s]
	}
	t.mu.RUnlock()
	if len(urls) == 0 {
		return
	}

	index, err := xgo.MarshalPretty(map[string]any{"task_id": t.GetID(), "books": urls})
	if err != nil {
		t.log.Errorf("encode books index: %v", err)
		return
	}
	if deps.UploadBytes != nil {
		if url, err := deps.UploadBytes(ctx, "", fmt.Sprintf("books/%s/index.json", t.GetID()), "application/json", index); err == nil {
			t.SetBooksUrl(url)
			rpt.BooksUrl = url
			return
		}
	}
	if deps.Conf != nil && deps.Conf.BookDir != "" {
		path := filepath.Join(deps.Conf.BookDir, t.GetID(), "index.json")
		if err := os.WriteFile(path, index, 0644); err == nil {
			t.SetBooksUrl(path)
			rpt.BooksUrl = path
		}
	}
}

// uploadChart 生成 RTP 曲线并上传到 S3
func (t *Task) uploadChart(ctx context.Context, deps *ExecDeps, rpt *v1.TaskCompletionReport) {
	cc := deps.Conf.Chart
	if deps.Chart == nil || cc == nil || (!cc.GenerateLocal && !cc.UploadToS3) || deps.QueryPoints == nil {
		return
	}

	pts, err := deps.QueryPoints(ctx, t.GetID())
	if err != nil {
		t.log.Errorf("failed to query rtp points: %v", err)
		return
	}

	target := 0.0
	if g := t.Game(); g != nil {
		target = g.Config().RTP.InexactFloat64()
	}
	result, err := deps.Chart.Generate(chart.Input{
		Points:   pts,
		TaskID:   rpt.TaskId,
		GameName: rpt.GameName,
		Mode:     rpt.Mode,
		Target:   target,
	}, cc.GenerateLocal)
	if err != nil {
		t.log.Errorf("failed to generate chart: %v", err)
		return
	}
	if result.FilePath != "" {
		t.SetRecordUrl(result.FilePath)
		rpt.Url = result.FilePath
	}

	if !cc.UploadToS3 || deps.UploadBytes == nil {
		return
	}

	htmlKey := "charts/" + rpt.TaskId + ".html"
	htmlUrl, err := deps.UploadBytes(ctx, "", htmlKey, "text/html; charset=utf-8", []byte(result.HTMLContent))
	if err != nil {
		t.log.Errorf("failed to upload HTML to S3: %v", err)
		return
	}
	t.SetRecordUrl(htmlUrl)
	rpt.Url = htmlUrl

	// 立即清除大HTML字符串，释放内存
	result.HTMLContent = ""
	runtime.GC()
}

// sendNotification 发送通知
func (t *Task) sendNotification(ctx context.Context, deps *ExecDeps, report *v1.TaskCompletionReport) {
	if deps.Notify == nil || deps.Conf.Notify == nil || !deps.Conf.Notify.Enabled {
		return
	}
	msg := notify.BuildTaskCompletionMessage(report)
	go func() {
		if err := deps.Notify.Send(ctx, msg); err != nil {
			t.log.Warnf("notify task %s completion: %v", msg.TaskID, err)
		}
	}()
}

// cleanup 清理任务资源
func (t *Task) cleanup(deps *ExecDeps) {
	t.cancel()

	// 归还工作槽位
	if deps.ReleaseSlots != nil {
		deps.ReleaseSlots(t.GetID())
	}

	// 触发完成回调，通知 UseCase 唤醒调度
	if deps.OnComplete != nil {
		deps.OnComplete()
	}
}

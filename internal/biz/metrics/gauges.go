package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelTaskID    = "task_id"
	labelGameID    = "game_id"
	labelMode      = "mode"
	ReportInterval = 5 * time.Second
)

// 指标名规范：mather_task_<name>，标签 task_id、game_id、mode

var (
	progressPct = newGauge("mather_task_progress_pct", "任务进度 (0-100)")
	processed   = newGauge("mather_task_processed", "已完成局数")
	spinsPerSec = newGauge("mather_task_spins_per_sec", "每秒完成局数")
	failed      = newGauge("mather_task_failed", "失败局数")

	totalBet   = newGauge("mather_task_total_bet", "总下注(分)")
	totalWin   = newGauge("mather_task_total_win", "总赢(分)")
	rtpPct     = newGauge("mather_task_rtp_pct", "RTP %")
	baseRtpPct = newGauge("mather_task_base_rtp_pct", "基础游戏 RTP %")
	freeRtpPct = newGauge("mather_task_free_rtp_pct", "免费游戏 RTP %")
	hitRatePct = newGauge("mather_task_hit_rate_pct", "中奖率 %")
	capped     = newGauge("mather_task_capped", "触顶局数")
	repeats    = newGauge("mather_task_repeats", "累计重复次数")

	workersIdle = promauto.NewGauge(prometheus.GaugeOpts{Name: "mather_workers_idle", Help: "空闲工作槽位"})
	workersUsed = promauto.NewGauge(prometheus.GaugeOpts{Name: "mather_workers_allocated", Help: "已分配工作槽位"})
)

func newGauge(name, help string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{labelTaskID, labelGameID, labelMode})
}

func set(g *prometheus.GaugeVec, labels prometheus.Labels, v float64) {
	g.With(labels).Set(v)
}

package metrics

import (
	v1 "mather/api/sim/v1"

	"github.com/prometheus/client_golang/prometheus"
)

func labelsOf(r *v1.TaskCompletionReport) prometheus.Labels {
	gameID := "unknown"
	if r.GameId != "" {
		gameID = r.GameId
	}
	return prometheus.Labels{labelTaskID: r.TaskId, labelGameID: gameID, labelMode: r.Mode}
}

// ReportTask 上报一次任务快照
func ReportTask(r *v1.TaskCompletionReport) {
	if r == nil {
		return
	}
	labels := labelsOf(r)
	set(progressPct, labels, r.Progress)
	set(processed, labels, float64(r.Processed))
	set(spinsPerSec, labels, r.SpinsPerSec)
	set(failed, labels, float64(r.Failed))
	set(totalBet, labels, float64(r.TotalBet))
	set(totalWin, labels, float64(r.TotalWin))
	set(rtpPct, labels, r.RtpPct)
	set(baseRtpPct, labels, r.BaseRtpPct)
	set(freeRtpPct, labels, r.FreeRtpPct)
	set(hitRatePct, labels, r.HitRatePct)
	set(capped, labels, float64(r.CappedCount))
	set(repeats, labels, float64(r.Repeats))
}

// DeleteTask 任务删除后移除其序列
func DeleteTask(r *v1.TaskCompletionReport) {
	if r == nil {
		return
	}
	labels := labelsOf(r)
	for _, g := range []*prometheus.GaugeVec{
		progressPct, processed, spinsPerSec, failed, totalBet, totalWin,
		rtpPct, baseRtpPct, freeRtpPct, hitRatePct, capped, repeats,
	} {
		g.Delete(labels)
	}
}

// ReportWorkers 上报工作槽位使用情况
func ReportWorkers(idle, allocated int) {
	workersIdle.Set(float64(idle))
	workersUsed.Set(float64(allocated))
}

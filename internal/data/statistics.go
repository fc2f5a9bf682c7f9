package data

import (
	"context"
	"fmt"
	"time"

	"mather/internal/biz/chart"
)

const pageSize = 50000

// RtpPoint RTP 收敛曲线上的一个点
type RtpPoint struct {
	ID     int64   `xorm:"pk autoincr 'id'"`
	TaskID string  `xorm:"varchar(64) index 'task_id'"`
	X      float64 `xorm:"'x'"`
	Y      float64 `xorm:"'y'"`
	Time   string  `xorm:"varchar(32) 'time'"`
}

func (m *RtpPoint) TableName() string {
	return "rtp_point"
}

// SavePoints 追加曲线点
func (r *dataRepo) SavePoints(ctx context.Context, taskID string, pts []chart.Point) error {
	if len(pts) == 0 {
		return nil
	}
	list := make([]*RtpPoint, len(pts))
	for i, p := range pts {
		list[i] = &RtpPoint{TaskID: taskID, X: p.X, Y: p.Y, Time: p.Time}
	}
	for i := 0; i < len(list); i += insertBatchSize {
		end := min(i+insertBatchSize, len(list))
		if _, err := r.data.db.Context(ctx).Insert(list[i:end]); err != nil {
			return fmt.Errorf("insert rtp_point: %w", err)
		}
	}
	return nil
}

// QueryPoints 按局数顺序分页读取曲线点并采样
func (r *dataRepo) QueryPoints(ctx context.Context, taskID string) ([]chart.Point, error) {
	start := time.Now()
	var (
		out    []chart.Point
		lastID int64
		pages  int
	)
	for {
		pages++
		var batch []RtpPoint
		err := r.data.db.Context(ctx).
			Where("task_id = ? AND id > ?", taskID, lastID).
			OrderBy("id").
			Limit(pageSize).
			Find(&batch)
		if err != nil {
			return nil, fmt.Errorf("query rtp_point: %w", err)
		}
		for _, p := range batch {
			out = append(out, chart.Point{X: p.X, Y: p.Y, Time: p.Time})
			lastID = p.ID
		}
		if len(batch) < pageSize {
			break
		}
	}
	sampled := chart.Sample(out, chart.SampleMax)
	r.log.Infof("查询曲线点完成: task=%s, 原始点数=%d, 页数=%d, 采样点数=%d, 耗时=%v",
		taskID, len(out), pages, len(sampled), time.Since(start))
	return sampled, nil
}

package data

import (
	"context"
	"fmt"
	"time"

	"mather/internal/biz/stats"
)

const insertBatchSize = 500 // 插入批次大小

// SimResult 单局结果，金额单位为分
type SimResult struct {
	ID        int64  `xorm:"pk autoincr 'id'"`
	TaskID    string `xorm:"varchar(64) index 'task_id'"`
	Sim       int64  `xorm:"'sim'"`
	Criteria  string `xorm:"varchar(32) 'criteria'"`
	Feature   string `xorm:"varchar(16) 'feature'"`
	Win       int64  `xorm:"'win'"`
	BaseWin   int64  `xorm:"'base_win'"`
	FreeWin   int64  `xorm:"'free_win'"`
	Capped    bool   `xorm:"'capped'"`
	Repeats   int32  `xorm:"'repeats'"`
	FreeSpins int32  `xorm:"'free_spins'"`
	WinLevel  int32  `xorm:"'win_level'"`
	CreatedAt int64  `xorm:"'created_at'"`
}

func (m *SimResult) TableName() string {
	return "sim_result"
}

// SaveResults 批量写入单局结果（同一事务内分批 insert）
func (r *dataRepo) SaveResults(ctx context.Context, taskID string, rows []stats.Row) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().Unix()
	list := make([]*SimResult, len(rows))
	for i, row := range rows {
		list[i] = &SimResult{
			TaskID:    taskID,
			Sim:       row.Sim,
			Criteria:  row.Criteria,
			Feature:   row.Feature,
			Win:       row.Win,
			BaseWin:   row.BaseWin,
			FreeWin:   row.FreeWin,
			Capped:    row.Capped,
			Repeats:   int32(row.Repeats),
			FreeSpins: int32(row.FreeSpins),
			WinLevel:  int32(row.WinLevel),
			CreatedAt: now,
		}
	}

	session := r.data.db.NewSession().Context(ctx)
	defer session.Close()

	if err := session.Begin(); err != nil {
		return err
	}
	for i := 0; i < len(list); i += insertBatchSize {
		end := min(i+insertBatchSize, len(list))
		if _, err := session.Insert(list[i:end]); err != nil {
			_ = session.Rollback()
			return fmt.Errorf("insert sim_result [%d:%d]: %w", i, end, err)
		}
	}
	return session.Commit()
}

// SumResults 已落库的局数与总赢分
func (r *dataRepo) SumResults(ctx context.Context, taskID string) (count, win int64, err error) {
	var result struct {
		Count int64 `xorm:"cnt"`
		Win   int64 `xorm:"total_win"`
	}
	_, err = r.data.db.Context(ctx).SQL(`
		SELECT
			COUNT(*) as cnt,
			COALESCE(SUM(win), 0) as total_win
		FROM sim_result
		WHERE task_id = ?
	`, taskID).Get(&result)
	if err != nil {
		return 0, 0, fmt.Errorf("sum sim_result: %w", err)
	}
	return result.Count, result.Win, nil
}

// deleteResults 删除任务的单局结果与曲线点
func (r *dataRepo) deleteResults(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	n, err := r.data.db.Context(ctx).In("task_id", taskIDs).Delete(new(SimResult))
	if err != nil {
		return 0, fmt.Errorf("delete sim_result: %w", err)
	}
	if _, err := r.data.db.Context(ctx).In("task_id", taskIDs).Delete(new(RtpPoint)); err != nil {
		return n, fmt.Errorf("delete rtp_point: %w", err)
	}
	return n, nil
}

package data

import (
	"context"
	"fmt"
	"time"

	v1 "mather/api/sim/v1"

	"github.com/go-kratos/kratos/v2/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

const (
	progressKey    = "mather:task:progress:%s"
	progressPrefix = "mather:task:progress:"
	progressTTL    = 24 * time.Hour
	progressField  = "report"
)

// SaveProgress 写入任务最新报告，任务结束后键随 TTL 过期
func (r *dataRepo) SaveProgress(ctx context.Context, rpt *v1.TaskCompletionReport) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, err := jsoniter.Marshal(rpt)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(progressKey, rpt.TaskId)
	pipe := r.data.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		progressField, b,
		"status", rpt.Status.String(),
		"processed", rpt.Processed,
		"updated_at", time.Now().Unix(),
	)
	pipe.Expire(ctx, key, progressTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Newf(500, "REDIS_PROGRESS_FAILED", "save progress: %v", err)
	}
	return nil
}

// GetProgress 读取任务最新报告；不存在时返回 nil
func (r *dataRepo) GetProgress(ctx context.Context, taskID string) (*v1.TaskCompletionReport, error) {
	b, err := r.data.rdb.HGet(ctx, fmt.Sprintf(progressKey, taskID), progressField).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rpt v1.TaskCompletionReport
	if err := jsoniter.Unmarshal(b, &rpt); err != nil {
		return nil, err
	}
	return &rpt, nil
}

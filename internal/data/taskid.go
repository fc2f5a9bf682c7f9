package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
)

const taskCountKey = "mather:task:count:%s"

// NextTaskID Redis Hash mather:task:count:YYYYMMDD，field=gameID，过期为次日 0 点
func (r *dataRepo) NextTaskID(ctx context.Context, gameID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	date := now.Format("20060102")
	key := fmt.Sprintf(taskCountKey, date)

	count, err := r.data.rdb.HIncrBy(ctx, key, gameID, 1).Result()
	if err != nil {
		return "", errors.Newf(500, "REDIS_COUNTER_FAILED", "redis counter: %v", err)
	}

	if count == 1 {
		tomorrow := now.AddDate(0, 0, 1)
		midnight := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
		_ = r.data.rdb.ExpireAt(ctx, key, midnight).Err()
	}

	return fmt.Sprintf("%s-%s-%d", date, gameID, count), nil
}

package data

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	scanCount = 1000 // 每轮 SCAN 建议返回数量（Redis 可能多返回）
	pipeBatch = 500  // 每批 Pipeline 命令数量
)

// pipeliner 用于 SCAN + Pipeline（同一节点上批量处理，减少 RTT）
type pipeliner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Pipeline() redis.Pipeliner
}

// keyFilter 对一批键排队命令，返回处理的键数
type keyFilter func(ctx context.Context, pipe redis.Pipeliner, keys []string) int

// scanKeys 在单个 client 上 SCAN，按批交给 fn 用 Pipeline 处理
func scanKeys(ctx context.Context, client pipeliner, pattern string, fn keyFilter) (int, error) {
	var cursor uint64
	total := 0

	for {
		// 检查上下文取消
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		keys, next, err := client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return total, fmt.Errorf("scan failed: %w", err)
		}
		cursor = next

		for i := 0; i < len(keys); i += pipeBatch {
			batch := keys[i:min(i+pipeBatch, len(keys))]
			pipe := client.Pipeline()
			n := fn(ctx, pipe, batch)
			if n == 0 {
				continue
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return total, fmt.Errorf("pipeline exec: %w", err)
			}
			total += n
		}

		if cursor == 0 {
			break
		}
	}

	return total, nil
}

// forEachNode 集群模式对每个 master 执行，单机/哨兵直接执行
func (r *dataRepo) forEachNode(ctx context.Context, fn func(ctx context.Context, client pipeliner) (int, error)) (int, error) {
	total := 0
	switch client := r.data.rdb.(type) {
	case *redis.ClusterClient:
		var n atomic.Int64
		err := client.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			c, err := fn(ctx, node)
			n.Add(int64(c))
			return err
		})
		return int(n.Load()), err
	case pipeliner:
		return fn(ctx, client)
	default:
		return total, fmt.Errorf("unsupported redis client type: %T", r.data.rdb)
	}
}

// CleanStaleProgress 给没有 TTL 的进度键补上过期时间
func (r *dataRepo) CleanStaleProgress(ctx context.Context) error {
	n, err := r.forEachNode(ctx, func(ctx context.Context, client pipeliner) (int, error) {
		return scanKeys(ctx, client, progressPrefix+"*", func(ctx context.Context, pipe redis.Pipeliner, keys []string) int {
			ttls := make([]*redis.DurationCmd, len(keys))
			check := client.Pipeline()
			for i, k := range keys {
				ttls[i] = check.TTL(ctx, k)
			}
			if _, err := check.Exec(ctx); err != nil {
				return 0
			}
			n := 0
			for i, cmd := range ttls {
				if cmd.Val() == -1 {
					pipe.Expire(ctx, keys[i], progressTTL)
					n++
				}
			}
			return n
		})
	})
	if err != nil {
		return fmt.Errorf("clean progress keys: %w", err)
	}
	if n > 0 {
		r.log.Infof("Set expiry on %d stale progress keys", n)
	}
	return nil
}

// DeleteTaskData 删除任务的进度键与落库结果
func (r *dataRepo) DeleteTaskData(ctx context.Context, taskIDs ...string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		keys := make([]string, len(taskIDs))
		for i, id := range taskIDs {
			keys[i] = fmt.Sprintf(progressKey, id)
		}
		pipe := r.data.rdb.Pipeline()
		for _, k := range keys {
			pipe.Del(gctx, k)
		}
		_, err := pipe.Exec(gctx)
		return err
	})
	var rows int64
	g.Go(func() error {
		n, err := r.deleteResults(gctx, taskIDs)
		rows = n
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	r.log.Infof("Deleted data for %d tasks: %d result rows, use=%v", len(taskIDs), rows, time.Since(start))
	return nil
}

package engine

import (
	"math"
	"slices"

	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"
)

// Quotas 按配额把 n 局分配给各 criteria（最大余数法），总数恰为 n
func Quotas(mode *mathcfg.BetMode, n int) map[string]int {
	type share struct {
		idx   int
		count int
		rem   float64
	}
	total := 0.0
	for _, d := range mode.Distributions {
		total += d.Quota
	}
	out := make(map[string]int, len(mode.Distributions))
	if total <= 0 || n <= 0 {
		return out
	}

	shares := make([]share, len(mode.Distributions))
	assigned := 0
	for i, d := range mode.Distributions {
		exact := d.Quota / total * float64(n)
		floor := math.Floor(exact)
		shares[i] = share{idx: i, count: int(floor), rem: exact - floor}
		assigned += int(floor)
	}
	order := slices.Clone(shares)
	slices.SortStableFunc(order, func(a, b share) int {
		switch {
		case a.rem > b.rem:
			return -1
		case a.rem < b.rem:
			return 1
		}
		return a.idx - b.idx
	})
	for i := 0; assigned < n; i = (i + 1) % len(order) {
		if mode.Distributions[order[i].idx].Quota <= 0 {
			continue
		}
		shares[order[i].idx].count++
		assigned++
	}
	for i, d := range mode.Distributions {
		out[d.Criteria] = shares[i].count
	}
	return out
}

// 分片 criteria 打乱用的种子扰动，与单局种子错开
const criteriaSalt uint64 = 0x5bd1e995

// ShardSeed 第 shard 个分片打乱 criteria 的种子
func ShardSeed(seed uint64, shard int) uint64 {
	return base.SeedFor(seed^criteriaSalt, shard)
}

// AssignCriteria 每局的 criteria 列表，按种子打乱，可复现
func AssignCriteria(mode *mathcfg.BetMode, n int, seed uint64) []string {
	counts := Quotas(mode, n)
	out := make([]string, 0, n)
	for _, d := range mode.Distributions {
		for i := 0; i < counts[d.Criteria]; i++ {
			out = append(out, d.Criteria)
		}
	}
	rng := base.NewRNG(seed)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// PickCriteria 按配额权重随机选择一个 criteria
func PickCriteria(mode *mathcfg.BetMode, rng *base.RNG) string {
	total := 0.0
	for _, d := range mode.Distributions {
		total += d.Quota
	}
	u := rng.Float64() * total
	for _, d := range mode.Distributions {
		if d.Quota <= 0 {
			continue
		}
		if u < d.Quota {
			return d.Criteria
		}
		u -= d.Quota
	}
	for i := len(mode.Distributions) - 1; i >= 0; i-- {
		if mode.Distributions[i].Quota > 0 {
			return mode.Distributions[i].Criteria
		}
	}
	return ""
}

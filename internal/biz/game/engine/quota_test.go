package engine

import (
	"slices"
	"testing"

	"mather/internal/biz/game/base"
)

func TestQuotas(t *testing.T) {
	cfg := fixtureConfig(t)
	m, _ := cfg.Mode("base")
	for _, n := range []int{1, 7, 100, 1001} {
		q := Quotas(m, n)
		sum := 0
		for _, c := range q {
			sum += c
		}
		if sum != n {
			t.Errorf("n=%d: assigned %d", n, sum)
		}
	}
	q := Quotas(m, 1000)
	want := map[string]int{"super_fs": 50, "regular_fs": 250, "zero": 200, "basegame": 500}
	for k, v := range want {
		if q[k] != v {
			t.Errorf("%s: %d want %d", k, q[k], v)
		}
	}
}

func TestAssignCriteria(t *testing.T) {
	cfg := fixtureConfig(t)
	m, _ := cfg.Mode("base")
	a := AssignCriteria(m, 500, 3)
	b := AssignCriteria(m, 500, 3)
	if !slices.Equal(a, b) {
		t.Fatal("同种子分配应一致")
	}
	if len(a) != 500 {
		t.Fatalf("len %d", len(a))
	}
	counts := map[string]int{}
	for _, c := range a {
		counts[c]++
	}
	for k, v := range Quotas(m, 500) {
		if counts[k] != v {
			t.Errorf("%s: %d want %d", k, counts[k], v)
		}
	}
}

func TestPickCriteria(t *testing.T) {
	cfg := fixtureConfig(t)
	m, _ := cfg.Mode("regular_buy")
	rng := base.NewRNG(1)
	for i := 0; i < 100; i++ {
		if got := PickCriteria(m, rng); got != "regular_fs" {
			t.Fatalf("single distribution picked %q", got)
		}
	}
}

func TestShardSeed(t *testing.T) {
	if ShardSeed(9, 2) != ShardSeed(9, 2) {
		t.Fatal("分片种子应可复现")
	}
	seen := map[uint64]int{}
	for shard := 0; shard < 64; shard++ {
		s := ShardSeed(9, shard)
		if prev, ok := seen[s]; ok {
			t.Fatalf("分片 %d 与 %d 种子相同", shard, prev)
		}
		seen[s] = shard
		if s == base.SeedFor(9, shard) {
			t.Errorf("分片 %d 种子与单局种子重合", shard)
		}
	}
}

package base

import (
	"cmp"
	"slices"

	"golang.org/x/exp/maps"
)

// Weighted 离散权重表，条目按键升序固定，保证同种子下抽样可复现
type Weighted[T cmp.Ordered] struct {
	Items   []T
	Weights []int
	total   int
}

// NewWeighted 由 map 构建，忽略非正权重
func NewWeighted[T cmp.Ordered](m map[T]int) Weighted[T] {
	keys := maps.Keys(m)
	slices.Sort(keys)
	w := Weighted[T]{
		Items:   make([]T, 0, len(keys)),
		Weights: make([]int, 0, len(keys)),
	}
	for _, k := range keys {
		if m[k] <= 0 {
			continue
		}
		w.Items = append(w.Items, k)
		w.Weights = append(w.Weights, m[k])
		w.total += m[k]
	}
	return w
}

func (w Weighted[T]) Total() int {
	return w.total
}

func (w Weighted[T]) Empty() bool {
	return w.total <= 0
}

func (w Weighted[T]) Len() int {
	return len(w.Items)
}

// Draw 累积权重抽样；空表返回零值
func (w Weighted[T]) Draw(rng *RNG) T {
	var zero T
	if w.total <= 0 {
		return zero
	}
	r := rng.IntN(w.total)
	for i, wt := range w.Weights {
		if r < wt {
			return w.Items[i]
		}
		r -= wt
	}
	return w.Items[len(w.Items)-1]
}

// Map 还原为 map
func (w Weighted[T]) Map() map[T]int {
	m := make(map[T]int, len(w.Items))
	for i, k := range w.Items {
		m[k] = w.Weights[i]
	}
	return m
}

package engine

import (
	"mather/internal/biz/game/base"
	"mather/internal/biz/game/mathcfg"
)

// SampleRetriggerCap 特色开始时抽取一次再触发上限
func SampleRetriggerCap(rng *base.RNG, t mathcfg.RetriggerTable) int {
	return t.Sample(rng.Float64())
}

// retriggerState 单次特色内的再触发计数
type retriggerState struct {
	cap     int
	granted int
}

// grant 未达上限时计一次再触发并增加局数，总局数不超过 limit；
// 已到 limit 不加局时不占用再触发次数
func (r *retriggerState) grant(total, add, limit int) (int, bool) {
	if r.granted >= r.cap || add <= 0 || total >= limit {
		return total, false
	}
	r.granted++
	return min(total+add, limit), true
}

package xgo

// Pct num/denom 的百分数，denom<=0 返回 0
func Pct(num, denom int64) float64 {
	if denom <= 0 {
		return 0
	}
	return float64(num) * 100 / float64(denom)
}

// ProgressPct 完成度百分比，截断在 [0, 100]
func ProgressPct(done, target int64) float64 {
	return min(max(Pct(done, target), 0), 100)
}

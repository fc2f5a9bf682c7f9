package xgo

import (
	"fmt"
	"time"
)

var shortUnits = []struct {
	size time.Duration
	sym  string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "µs"},
	{time.Nanosecond, "ns"},
}

// ShortDuration 进度日志用：取不超过 d 的最大单位，保留三位有效数字，如 2.50h、12.3ms
func ShortDuration(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	for _, u := range shortUnits {
		if d < u.size {
			continue
		}
		v := float64(d) / float64(u.size)
		switch {
		case v >= 100:
			return fmt.Sprintf("%.0f%s", v, u.sym)
		case v >= 10:
			return fmt.Sprintf("%.1f%s", v, u.sym)
		}
		return fmt.Sprintf("%.2f%s", v, u.sym)
	}
	return "0"
}

// AvgDuration 平均每局耗时，spins<=0 返回 "0"
func AvgDuration(d time.Duration, spins int64) string {
	if spins <= 0 {
		return "0"
	}
	return ShortDuration(d / time.Duration(spins))
}

// FormatDuration 通知卡片用，按量级收敛精度：45.2s、12m05s、3h07m
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int64(d/time.Minute), int64(d%time.Minute/time.Second))
	}
	return fmt.Sprintf("%dh%02dm", int64(d/time.Hour), int64(d%time.Hour/time.Minute))
}

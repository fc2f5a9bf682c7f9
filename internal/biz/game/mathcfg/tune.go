package mathcfg

// TuneOptions 卷轴调整参数
type TuneOptions struct {
	Blocker       string            // 插入的低分符号
	Interval      int               // 每隔多少行插入一次；0 不插入
	Offset        int               // 起始行
	Protected     map[string]bool   // 不可覆盖的符号（散布）
	Premiums      map[string]bool   // 高分符号
	PremiumRun    int               // 高分连续长度达到该值即替换；0 不处理
	Replacements  []string          // 高分替换候选，按 (行+列) 轮换
	Substitutions map[string]string // 整体符号替换
}

// TuneStats 调整统计
type TuneStats struct {
	Blockers    int `json:"blockers"`
	Thinned     int `json:"thinned"`
	Substituted int `json:"substituted"`
}

// Tune 对卷轴副本执行调整，原卷轴不变
func Tune(strip ReelStrip, opt TuneOptions) (ReelStrip, TuneStats) {
	out := make(ReelStrip, len(strip))
	for c := range strip {
		out[c] = append([]string(nil), strip[c]...)
	}
	var st TuneStats
	st.Blockers = InsertBlockers(out, opt.Blocker, opt.Interval, opt.Offset, opt.Protected)
	st.Thinned = ThinPremiumRuns(out, opt.Premiums, opt.PremiumRun, opt.Replacements)
	st.Substituted = Substitute(out, opt.Substitutions)
	return out, st
}

// InsertBlockers 从 offset 起每 interval 行写入 blocker，跳过受保护符号
func InsertBlockers(strip ReelStrip, blocker string, interval, offset int, protected map[string]bool) int {
	if blocker == "" || interval <= 0 {
		return 0
	}
	n := 0
	for c := range strip {
		for r := offset; r < len(strip[c]); r += interval {
			if protected[strip[c][r]] || strip[c][r] == blocker {
				continue
			}
			strip[c][r] = blocker
			n++
		}
	}
	return n
}

// ThinPremiumRuns 高分符号连续出现 run 次时替换最后一个并重新计数
func ThinPremiumRuns(strip ReelStrip, premiums map[string]bool, run int, replacements []string) int {
	if run <= 0 || len(replacements) == 0 || len(premiums) == 0 {
		return 0
	}
	n := 0
	for c := range strip {
		streak := 0
		for r, sym := range strip[c] {
			if !premiums[sym] {
				streak = 0
				continue
			}
			streak++
			if streak >= run {
				strip[c][r] = replacements[(r+c)%len(replacements)]
				streak = 0
				n++
			}
		}
	}
	return n
}

// Substitute 按映射替换符号
func Substitute(strip ReelStrip, subs map[string]string) int {
	if len(subs) == 0 {
		return 0
	}
	n := 0
	for c := range strip {
		for r, sym := range strip[c] {
			if to, ok := subs[sym]; ok && to != sym {
				strip[c][r] = to
				n++
			}
		}
	}
	return n
}

// SymbolCounts 各列符号计数
func SymbolCounts(strip ReelStrip) []map[string]int {
	out := make([]map[string]int, len(strip))
	for c, reel := range strip {
		out[c] = make(map[string]int)
		for _, sym := range reel {
			out[c][sym]++
		}
	}
	return out
}

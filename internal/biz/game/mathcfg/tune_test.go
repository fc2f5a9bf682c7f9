package mathcfg

import (
	"testing"
)

func TestTune(t *testing.T) {
	strip := ReelStrip{
		{"H1", "H1", "H1", "S", "H2", "H2", "H2", "L1"},
		{"L1", "S", "L2", "H3", "L3", "L4", "BS", "L5"},
	}
	opt := TuneOptions{
		Blocker:       "L5",
		Interval:      3,
		Offset:        1,
		Protected:     map[string]bool{"S": true, "BS": true},
		Premiums:      map[string]bool{"H1": true, "H2": true},
		PremiumRun:    3,
		Replacements:  []string{"L1", "L2"},
		Substitutions: map[string]string{"H3": "H4"},
	}
	out, st := Tune(strip, opt)

	if strip[0][0] != "H1" || strip[1][3] != "H3" {
		t.Fatal("原卷轴不应被修改")
	}
	// 第 0 列: 行 1、4 写入 L5，行 7 是 L1 -> L5
	// 第 1 列: 行 1 是 S 跳过，行 4、7 写入（7 已是 L5）
	if st.Blockers != 4 {
		t.Errorf("blockers %d", st.Blockers)
	}
	if out[1][1] != "S" {
		t.Error("scatter must survive")
	}
	if out[1][3] != "H4" || st.Substituted != 1 {
		t.Errorf("substitution: %v %d", out[1], st.Substituted)
	}
	// 插入后第 0 列为 H1 L5 H1 S L5 H2 H2 L5，无连续 3 个高分
	if st.Thinned != 0 {
		t.Errorf("thinned %d: %v", st.Thinned, out[0])
	}
}

func TestThinPremiumRuns(t *testing.T) {
	strip := ReelStrip{{"H1", "H2", "H1", "H1", "L1", "H2"}}
	n := ThinPremiumRuns(strip, map[string]bool{"H1": true, "H2": true}, 3, []string{"L3"})
	if n != 1 || strip[0][2] != "L3" {
		t.Fatalf("n=%d strip=%v", n, strip[0])
	}
	if strip[0][3] != "H1" {
		t.Error("streak should restart after the replacement")
	}
}

func TestSymbolCounts(t *testing.T) {
	counts := SymbolCounts(ReelStrip{{"S", "L1", "L1"}, {"M"}})
	if counts[0]["L1"] != 2 || counts[0]["S"] != 1 || counts[1]["M"] != 1 {
		t.Errorf("counts %v", counts)
	}
}

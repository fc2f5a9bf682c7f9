package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"mather/internal/biz/game/mathcfg"
	"mather/pkg/xgo"
	"mather/pkg/zap"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/exp/maps"
)

// 读取卷轴 CSV，插入阻挡符号、拆散高分连段、整体替换后写出
func main() {
	in := flag.String("in", "", "input reel csv")
	out := flag.String("out", "", "output reel csv, empty = overwrite input")
	blocker := flag.String("blocker", "", "symbol inserted every -interval rows")
	interval := flag.Int("interval", 0, "")
	offset := flag.Int("offset", 0, "")
	protected := flag.String("protected", "S,BS", "symbols never overwritten")
	premiums := flag.String("premiums", "", "premium symbols, eg: H1,H2")
	run := flag.Int("run", 0, "max premium run length, 0 = keep")
	replacements := flag.String("replacements", "", "symbols replacing premium runs")
	subs := flag.String("sub", "", "symbol substitutions, eg: L5=L4,H4=H3")
	dry := flag.Bool("dry-run", false, "print stats only")
	flag.Parse()

	logger := zap.NewLoggerWithConfig(&zap.Config{Mode: zap.Dev, Level: "info", App: "reeltune"})
	defer logger.Sync()
	l := log.NewHelper(logger)

	if *in == "" {
		l.Error("-in is required")
		os.Exit(2)
	}
	strip, err := mathcfg.LoadReelFile(*in)
	if err != nil {
		l.Errorf("load %s: %v", *in, err)
		os.Exit(1)
	}

	tuned, st := mathcfg.Tune(strip, mathcfg.TuneOptions{
		Blocker:       *blocker,
		Interval:      *interval,
		Offset:        *offset,
		Protected:     set(*protected),
		Premiums:      set(*premiums),
		PremiumRun:    *run,
		Replacements:  list(*replacements),
		Substitutions: pairs(*subs),
	})
	l.Infof("tune %s: %s", *in, xgo.ToJSON(st))
	for c, counts := range mathcfg.SymbolCounts(tuned) {
		var sb strings.Builder
		syms := maps.Keys(counts)
		slices.Sort(syms)
		for _, sym := range syms {
			fmt.Fprintf(&sb, "%s:%d ", sym, counts[sym])
		}
		l.Infof("reel %d: %s", c, sb.String())
	}
	if *dry {
		return
	}

	var buf bytes.Buffer
	if err := mathcfg.WriteReels(&buf, tuned); err != nil {
		l.Errorf("encode reels: %v", err)
		os.Exit(1)
	}
	dst := *out
	if dst == "" {
		dst = *in
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0644); err != nil {
		l.Errorf("write %s: %v", dst, err)
		os.Exit(1)
	}
	l.Infof("written %s", dst)
}

func list(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func set(s string) map[string]bool {
	out := map[string]bool{}
	for _, v := range list(s) {
		out[v] = true
	}
	return out
}

func pairs(s string) map[string]string {
	out := map[string]string{}
	for _, kv := range list(s) {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return out
}

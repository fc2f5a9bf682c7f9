package stats

import (
	"sync"
	"testing"

	v1 "mather/api/sim/v1"
)

func TestAccumulator(t *testing.T) {
	a := NewAccumulator(100, 3, "super")
	rows := []Row{
		{Criteria: "zero", WinLevel: 0},
		{Criteria: "basegame", Win: 250, BaseWin: 250, WinLevel: 1},
		{Criteria: "regular_fs", Feature: "regular", Win: 5000, BaseWin: 500, FreeWin: 4500, Repeats: 3, WinLevel: 2},
		{Criteria: "super_fs", Feature: "super", Win: 2500000, FreeWin: 2500000, Capped: true, WinLevel: 2},
	}
	for _, r := range rows {
		a.Add(r)
	}
	a.AddError("RETRY_EXHAUSTED")

	s := a.Summary()
	if s.Spins != 4 || s.Failed != 1 || s.TotalBet != 400 {
		t.Fatalf("spins=%d failed=%d bet=%d", s.Spins, s.Failed, s.TotalBet)
	}
	if s.TotalWin != 2505250 || s.BaseWin+s.FreeWin != s.TotalWin {
		t.Errorf("win=%d base=%d free=%d", s.TotalWin, s.BaseWin, s.FreeWin)
	}
	if s.Hits != 3 || s.Features != 2 || s.Supers != 1 || s.Capped != 1 || s.Repeats != 3 {
		t.Errorf("counters %+v", s)
	}
	if s.MaxWin != 2500000 {
		t.Errorf("max win %d", s.MaxWin)
	}
	if len(s.Criteria) != 4 || s.Criteria[0].Criteria != "basegame" {
		t.Errorf("criteria 应按名称排序: %+v", s.Criteria)
	}
	if s.WinLevels[0] != 1 || s.WinLevels[1] != 1 || s.WinLevels[2] != 2 {
		t.Errorf("levels %v", s.WinLevels)
	}

	var r v1.TaskCompletionReport
	s.Fill(&r)
	if r.HitRatePct != 75 || r.Errors["RETRY_EXHAUSTED"] != 1 {
		t.Errorf("report %+v", r)
	}
}

func TestRTP(t *testing.T) {
	cases := []struct {
		win, bet int64
		want     string
	}{
		{962, 1000, "0.962"},
		{1, 3, "0.333333"},
		{5, 0, "0"},
	}
	for _, c := range cases {
		if got := RTP(c.win, c.bet).String(); got != c.want {
			t.Errorf("RTP(%d,%d)=%s want %s", c.win, c.bet, got, c.want)
		}
	}
}

func TestAccumulatorConcurrent(t *testing.T) {
	a := NewAccumulator(100, 1, "super")
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				a.Add(Row{Criteria: "basegame", Win: int64(g*1000 + i)})
			}
		}(g)
	}
	wg.Wait()
	s := a.Summary()
	if s.Spins != 8000 || s.MaxWin != 7999 {
		t.Errorf("spins=%d max=%d", s.Spins, s.MaxWin)
	}
	if s.Criteria[0].Count != 8000 {
		t.Errorf("criteria count %d", s.Criteria[0].Count)
	}
}

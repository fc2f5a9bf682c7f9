package engine

import (
	"testing"

	"mather/internal/biz/game/mathcfg"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClampBaseGame(t *testing.T) {
	l := NewLedger(d("100"), mathcfg.FreeGame)
	l.Credit(d("60"))
	if l.CheckCap() {
		t.Fatal("below cap must not clamp")
	}
	l.Credit(d("70"))
	if !l.CheckCap() {
		t.Fatal("130 >= 100 must clamp")
	}
	if !l.Running.Equal(d("100")) || !l.Base.Equal(d("100")) || !l.Free.IsZero() {
		t.Errorf("running=%s base=%s free=%s", l.Running, l.Base, l.Free)
	}
	if !l.Step.Equal(d("40")) {
		t.Errorf("step should lose the excess: %s", l.Step)
	}
}

func TestClampActiveSegment(t *testing.T) {
	l := NewLedger(d("100"), mathcfg.FreeGame)
	l.Credit(d("90"))
	l.SetSegment(mathcfg.FreeGame)
	l.Credit(d("5"))
	l.Credit(d("25"))
	l.CheckCap()

	sum := l.Base.Add(l.Free)
	if !sum.Equal(d("100")) || !l.Running.Equal(d("100")) {
		t.Fatalf("base=%s free=%s running=%s", l.Base, l.Free, l.Running)
	}
	if !l.Base.Equal(d("90")) || !l.Free.Equal(d("10")) {
		t.Errorf("excess 20 should come out of the active free segment: base=%s free=%s", l.Base, l.Free)
	}
}

// 分段小计与累计不同步时的重新分配
func TestClampReconcile(t *testing.T) {
	cases := []struct {
		name               string
		first, segment     mathcfg.GameType
		running, base, fre string
		wantBase, wantFree string
	}{
		{"deficit back to active", mathcfg.FreeGame, mathcfg.FreeGame, "120", "90", "5", "90", "10"},
		{"overflow from free first", mathcfg.FreeGame, mathcfg.BaseGame, "110", "80", "40", "70", "30"},
		{"overflow from base first", mathcfg.BaseGame, mathcfg.BaseGame, "110", "80", "40", "60", "40"},
		{"overflow spills into base", mathcfg.FreeGame, mathcfg.BaseGame, "102", "120", "3", "100", "0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := NewLedger(d("100"), c.first)
			l.SetSegment(c.segment)
			l.Running, l.Base, l.Free = d(c.running), d(c.base), d(c.fre)
			if !l.CheckCap() {
				t.Fatal("must clamp")
			}
			if !l.Base.Equal(d(c.wantBase)) || !l.Free.Equal(d(c.wantFree)) {
				t.Errorf("base=%s free=%s, want %s/%s", l.Base, l.Free, c.wantBase, c.wantFree)
			}
			if !l.Base.Add(l.Free).Equal(l.Cap) {
				t.Errorf("sum %s != cap", l.Base.Add(l.Free))
			}
		})
	}
}

func TestClampExactCap(t *testing.T) {
	l := NewLedger(d("50"), mathcfg.FreeGame)
	l.Credit(d("50"))
	if !l.CheckCap() || !l.Capped {
		t.Fatal("reaching the cap exactly must trigger")
	}
	if !l.Running.Equal(d("50")) || !l.Base.Equal(d("50")) {
		t.Errorf("running=%s base=%s", l.Running, l.Base)
	}
}

func TestClampIdempotent(t *testing.T) {
	l := NewLedger(d("100"), mathcfg.FreeGame)
	l.Credit(d("30"))
	l.SetSegment(mathcfg.FreeGame)
	l.Credit(d("250"))
	if !l.CheckCap() {
		t.Fatal("first check must clamp")
	}
	running, b, f, step := l.Running, l.Base, l.Free, l.Step
	if l.CheckCap() {
		t.Fatal("second check must be a no-op")
	}
	l.Credit(d("10"))
	if !l.Running.Equal(running) || !l.Base.Equal(b) || !l.Free.Equal(f) {
		t.Errorf("ledger changed after clamp: %s %s %s", l.Running, l.Base, l.Free)
	}
	if !step.Equal(d("70")) {
		t.Errorf("step = %s", step)
	}
}

func TestClampInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wincap := decimal.NewFromInt(int64(rapid.IntRange(1, 50000).Draw(t, "cap")))
		first := mathcfg.FreeGame
		if rapid.Bool().Draw(t, "baseFirst") {
			first = mathcfg.BaseGame
		}
		l := NewLedger(wincap, first)
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		switchAt := rapid.IntRange(0, steps).Draw(t, "switchAt")
		for i := 0; i < steps; i++ {
			if i == switchAt {
				l.SetSegment(mathcfg.FreeGame)
			}
			cents := rapid.Int64Range(0, 2_000_000).Draw(t, "amount")
			l.Credit(decimal.New(cents, -2))
			l.CheckCap()
			if l.Running.GreaterThan(l.Cap) {
				t.Fatalf("running %s above cap %s", l.Running, l.Cap)
			}
			if !l.Base.Add(l.Free).Equal(decimal.Min(l.Running, l.Cap)) {
				t.Fatalf("base %s + free %s != min(running %s, cap)", l.Base, l.Free, l.Running)
			}
			if l.Base.IsNegative() || l.Free.IsNegative() || l.Step.IsNegative() {
				t.Fatalf("negative ledger value: %+v", l)
			}
		}
	})
}

func TestCents(t *testing.T) {
	cases := []struct {
		amount, cap string
		want        int64
	}{
		{"1.25", "100", 125},
		{"0.005", "100", 1},
		{"250", "100", 10000},
		{"0", "100", 0},
	}
	for _, c := range cases {
		if got := Cents(d(c.amount), d(c.cap)); got != c.want {
			t.Errorf("Cents(%s, %s) = %d, want %d", c.amount, c.cap, got, c.want)
		}
	}
}

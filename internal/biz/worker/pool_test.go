package worker

import (
	"sync"
	"testing"
)

func TestAllocateRelease(t *testing.T) {
	p := NewPool(8)
	if !p.CanAllocate(8) || p.CanAllocate(9) || p.CanAllocate(0) {
		t.Fatal("CanAllocate 判断错误")
	}
	a := p.Allocate("t1", 5)
	if len(a) != 5 {
		t.Fatalf("allocated %d", len(a))
	}
	if p.Allocate("t1", 1) != nil {
		t.Error("同一任务不应重复分配")
	}
	if p.Allocate("t2", 4) != nil {
		t.Error("槽位不足时应返回 nil")
	}
	idle, used, total := p.Stats()
	if idle != 3 || used != 5 || total != 8 {
		t.Errorf("stats idle=%d used=%d total=%d", idle, used, total)
	}
	p.Release("t1")
	p.Release("t1")
	idle, used, _ = p.Stats()
	if idle != 8 || used != 0 {
		t.Errorf("after release idle=%d used=%d", idle, used)
	}
}

func TestConcurrentAllocate(t *testing.T) {
	p := NewPool(10)
	var wg sync.WaitGroup
	var mu sync.Mutex
	got := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if s := p.Allocate(string(rune('a'+i)), 1); s != nil {
				mu.Lock()
				got++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if got != 10 {
		t.Errorf("分配成功 %d 次, want 10", got)
	}
	seen := map[int]bool{}
	for id := range p.allocated {
		for _, s := range p.allocated[id] {
			if seen[s.ID] {
				t.Fatalf("slot %d 被重复分配", s.ID)
			}
			seen[s.ID] = true
		}
	}
}

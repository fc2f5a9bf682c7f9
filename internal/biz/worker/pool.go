package worker

import "sync"

// Slot 单个工作槽位，对应任务内一个 ants worker
type Slot struct {
	ID int
}

// Pool 工作槽位池，所有任务共享同一份并发预算
type Pool struct {
	mu         sync.RWMutex
	idle       []Slot
	allocated  map[string][]Slot // taskID -> 该任务占用的槽位
	totalCount int
}

// NewPool 创建容量为 capacity 的槽位池
func NewPool(capacity int) *Pool {
	p := &Pool{
		idle:      make([]Slot, 0, capacity),
		allocated: make(map[string][]Slot),
	}
	p.Grow(capacity)
	return p
}

// Grow 追加空闲槽位
func (p *Pool) Grow(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		p.idle = append(p.idle, Slot{ID: p.totalCount})
		p.totalCount++
	}
}

// CanAllocate 是否有足够空闲槽位
func (p *Pool) CanAllocate(count int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return count > 0 && len(p.idle) >= count
}

// Allocate 为任务分配槽位；不足或已分配时返回 nil
func (p *Pool) Allocate(taskID string, count int) []Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if count <= 0 || len(p.idle) < count {
		return nil
	}
	if _, ok := p.allocated[taskID]; ok {
		return nil
	}
	allocated := append([]Slot{}, p.idle[:count]...)
	p.idle = p.idle[count:]
	p.allocated[taskID] = allocated
	return allocated
}

// Allocated 任务当前占用的槽位数
func (p *Pool) Allocated(taskID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.allocated[taskID])
}

// Release 归还任务占用的槽位
func (p *Pool) Release(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.allocated[taskID]; ok {
		p.idle = append(p.idle, s...)
		delete(p.allocated, taskID)
	}
}

// Stats 返回空闲数、已分配数、总数
func (p *Pool) Stats() (idle, allocated, total int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	allocatedCount := 0
	for _, s := range p.allocated {
		allocatedCount += len(s)
	}
	return len(p.idle), allocatedCount, p.totalCount
}

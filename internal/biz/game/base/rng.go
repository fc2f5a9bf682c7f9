package base

import (
	"math/rand/v2"
)

const golden = 0x9e3779b97f4a7c15

// RNG 每局独立的随机源，按 (批次种子, 局序号) 派生，保证可复现
type RNG struct {
	r    *rand.Rand
	seed uint64
}

func NewRNG(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed, seed^golden)), seed: seed}
}

// SeedFor splitmix64(batch + sim*golden)，相邻局序号的种子互不相关
func SeedFor(batch uint64, sim int) uint64 {
	z := batch + uint64(sim)*golden
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (g *RNG) Seed() uint64 {
	return g.seed
}

// IntN [0,n)
func (g *RNG) IntN(n int) int {
	return g.r.IntN(n)
}

// Float64 [0,1)
func (g *RNG) Float64() float64 {
	return g.r.Float64()
}

// Chance 以概率 p 返回 true
func (g *RNG) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return g.r.Float64() < p
}

func (g *RNG) Perm(n int) []int {
	return g.r.Perm(n)
}

func (g *RNG) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

package simulate

import (
	"math/rand/v2"
	"time"
)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func timeSeededSource() Source {
	return NewSource(uint64(time.Now().UnixNano()))
}

func uniform(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}

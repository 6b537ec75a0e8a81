package simulate

import (
	"fmt"
	"sort"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
)

// TotalRange is a band of Num competitor total prices drawn uniformly from [Min, Max].
type TotalRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
	Num int     `yaml:"num" json:"num"`
}

// TotalResult holds every drawn price sorted ascending, their mean, and the
// recommended control prices.
type TotalResult struct {
	Samples     []float64 `json:"samples"`
	Mean        float64   `json:"mean"`
	Recommended []float64 `json:"recommended"`
}

// SimulateTotal draws Num prices per range and recommends m control prices
// evenly spaced over [mean*(1-spread), mean*(1+spread)]. With m = 1 the
// single recommendation is the lower bound.
func (s *Simulator) SimulateTotal(ranges []TotalRange, m int) (*TotalResult, error) {
	if err := validateTotal(ranges, m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	var samples []float64
	for _, r := range ranges {
		for i := 0; i < r.Num; i++ {
			samples = append(samples, uniform(s.src, r.Min, r.Max))
		}
	}
	s.mu.Unlock()

	sort.Float64s(samples)
	mean := computeStats(samples).Mean
	lower, upper := mean*(1-s.spread), mean*(1+s.spread)

	steps := m - 1
	if steps == 0 {
		steps = 1
	}
	step := (upper - lower) / float64(steps)
	recommended := make([]float64, m)
	for i := range recommended {
		recommended[i] = lower + float64(i)*step
	}

	return &TotalResult{Samples: samples, Mean: mean, Recommended: recommended}, nil
}

func validateTotal(ranges []TotalRange, m int) error {
	if len(ranges) == 0 {
		return apperrors.Invalid("ranges", "at least one range is required")
	}
	for i, r := range ranges {
		field := fmt.Sprintf("ranges[%d]", i)
		if r.Num <= 0 {
			return apperrors.Invalid(field+".num", "must be positive, got %d", r.Num)
		}
		if err := checkNonNegative(field+".min", r.Min); err != nil {
			return err
		}
		if err := checkNonNegative(field+".max", r.Max); err != nil {
			return err
		}
		if r.Min > r.Max {
			return apperrors.Invalid(field+".min", "min %v is greater than max %v", r.Min, r.Max)
		}
	}
	if m < 1 {
		return apperrors.Invalid("m", "must be at least 1, got %d", m)
	}
	return nil
}

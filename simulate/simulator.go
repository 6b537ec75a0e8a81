package simulate

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultRecommendationSpread is the +/- fraction around the mean that
// recommended control prices are spread over.
const DefaultRecommendationSpread = 0.01

// Simulator runs price simulations against one random source. It is safe
// for concurrent use; calls are serialised on the source.
type Simulator struct {
	mu     sync.Mutex
	src    Source
	spread float64
	logger zerolog.Logger
}

type Option func(*Simulator)

// WithSource injects the random source, e.g. NewSource(seed) in tests.
func WithSource(src Source) Option {
	return func(s *Simulator) {
		s.src = src
	}
}

func WithRecommendationSpread(spread float64) Option {
	return func(s *Simulator) {
		s.spread = spread
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

func New(options ...Option) *Simulator {
	s := &Simulator{
		spread: DefaultRecommendationSpread,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.src == nil {
		s.src = timeSeededSource()
	}
	return s
}

// Simulate draws, for every price group, ParticipantCount competitor bids
// spread across the group's ranges by Allocate. Each bid draws one factor
// uniformly from its range; every item's simulated price is
// baseline * BaseReduction * factor and the bid's total is their sum.
// Input is validated before anything is drawn.
func (s *Simulator) Simulate(items []LineItem, groups []PriceGroup) (*Result, error) {
	if err := Validate(items, groups); err != nil {
		return nil, err
	}

	baselines := make([]float64, len(items))
	var baselineTotal float64
	for i, item := range items {
		baselines[i] = item.Baseline()
		baselineTotal += baselines[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := &Result{
		Items:         append([]LineItem(nil), items...),
		BaselineTotal: baselineTotal,
		Groups:        make([]GroupResult, len(groups)),
	}
	for gi, g := range groups {
		gr := GroupResult{Allocation: Allocate(g.ParticipantCount, g.Ranges)}
		for ri, r := range g.Ranges {
			for k := 0; k < gr.Allocation[ri]; k++ {
				gr.Samples = append(gr.Samples, s.drawSample(ri, r, g.BaseReduction, baselines))
			}
		}
		gr.Totals = sortedTotals(gr.Samples)
		gr.Stats = computeStats(gr.Totals)
		res.Groups[gi] = gr
		res.Totals = append(res.Totals, gr.Totals...)
	}
	sort.Float64s(res.Totals)
	res.Stats = computeStats(res.Totals)

	s.logger.Debug().
		Int("items", len(items)).
		Int("groups", len(groups)).
		Int("samples", res.Stats.Count).
		Float64("mean", res.Stats.Mean).
		Msg("list price simulation")
	return res, nil
}

func (s *Simulator) drawSample(rangeIndex int, r PriceRange, reduction float64, baselines []float64) Sample {
	factor := uniform(s.src, r.Min, r.Max)
	sample := Sample{Range: rangeIndex, Factor: factor, Prices: make([]float64, len(baselines))}
	for i, b := range baselines {
		sample.Prices[i] = b * reduction * factor
		sample.Total += sample.Prices[i]
	}
	return sample
}

func sortedTotals(samples []Sample) []float64 {
	totals := make([]float64, len(samples))
	for i, s := range samples {
		totals[i] = s.Total
	}
	sort.Float64s(totals)
	return totals
}

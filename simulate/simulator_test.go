package simulate_test

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/simulate"
)

const eps = 1e-9

type countingSource struct {
	calls int
	src   simulate.Source
}

func (c *countingSource) Float64() float64 {
	c.calls++
	return c.src.Float64()
}

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func baselineThousand() []simulate.LineItem {
	return []simulate.LineItem{
		{Name: "Cement", UnitPrice: 60, Quantity: 10},
		{Name: "Rebar", UnitPrice: 100, Quantity: 4},
	}
}

func TestSimulate_ConcreteScenario(t *testing.T) {
	sim := simulate.New(simulate.WithSource(simulate.NewSource(42)))
	groups := []simulate.PriceGroup{{
		ParticipantCount: 4,
		BaseReduction:    0.95,
		Ranges:           []simulate.PriceRange{{Start: 1, End: 100, Min: 0.8, Max: 1.2}},
	}}

	res, err := sim.Simulate(baselineThousand(), groups)
	require.NoError(t, err)
	require.InDelta(t, 1000, res.BaselineTotal, eps)
	require.Len(t, res.Groups, 1)
	require.Len(t, res.Groups[0].Samples, 4)
	require.Equal(t, 4, res.Stats.Count)

	for _, s := range res.Groups[0].Samples {
		require.GreaterOrEqual(t, s.Total, 760-eps)
		require.LessOrEqual(t, s.Total, 1140+eps)
	}
}

func TestSimulate_Properties(t *testing.T) {
	items := baselineThousand()
	groups := []simulate.PriceGroup{
		{
			ParticipantCount: 7,
			BaseReduction:    0.9,
			Ranges: []simulate.PriceRange{
				{Start: 1, End: 30, Min: 0.85, Max: 0.95},
				{Start: 30, End: 70, Min: 0.95, Max: 1.0},
				{Start: 70, End: 100, Min: 1.0, Max: 1.1},
			},
		},
		{
			ParticipantCount: 3,
			BaseReduction:    1,
			Ranges:           []simulate.PriceRange{{Start: 1, End: 100, Min: 0.5, Max: 0.5}},
		},
	}

	for seed := uint64(0); seed < 50; seed++ {
		sim := simulate.New(simulate.WithSource(simulate.NewSource(seed)))
		res, err := sim.Simulate(items, groups)
		require.NoError(t, err)

		combined := 0
		for gi, g := range groups {
			gr := res.Groups[gi]
			require.Len(t, gr.Samples, g.ParticipantCount)
			require.True(t, sort.Float64sAreSorted(gr.Totals))
			combined += len(gr.Samples)

			for _, s := range gr.Samples {
				r := g.Ranges[s.Range]
				require.GreaterOrEqual(t, s.Factor, r.Min)
				require.LessOrEqual(t, s.Factor, r.Max)

				var sum float64
				for i, p := range s.Prices {
					require.InDelta(t, items[i].Baseline()*g.BaseReduction*s.Factor, p, eps)
					sum += p
				}
				require.InDelta(t, sum, s.Total, eps)
			}
			require.InDelta(t, gr.Totals[0], gr.Stats.Min, eps)
			require.InDelta(t, gr.Totals[len(gr.Totals)-1], gr.Stats.Max, eps)
		}
		require.Equal(t, combined, res.Stats.Count)
		require.Len(t, res.Totals, combined)
		require.True(t, sort.Float64sAreSorted(res.Totals))
	}
}

func TestSimulate_ConstantSourceStats(t *testing.T) {
	sim := simulate.New(simulate.WithSource(constSource(0.5)))
	res, err := sim.Simulate(baselineThousand(), []simulate.PriceGroup{{
		ParticipantCount: 2,
		BaseReduction:    0.95,
		Ranges:           []simulate.PriceRange{{Start: 1, End: 100, Min: 0.8, Max: 1.2}},
	}})
	require.NoError(t, err)

	// factor 1.0 for every draw
	require.InDelta(t, 950, res.Stats.Mean, eps)
	require.InDelta(t, 950, res.Stats.Min, eps)
	require.InDelta(t, 950, res.Stats.Max, eps)

	means := res.ItemMeans()
	require.InDelta(t, 570, means[0], eps)
	require.InDelta(t, 380, means[1], eps)
}

func TestSimulate_ValidationBeforeSampling(t *testing.T) {
	valid := func() ([]simulate.LineItem, []simulate.PriceGroup) {
		return baselineThousand(), []simulate.PriceGroup{{
			ParticipantCount: 4,
			BaseReduction:    0.95,
			Ranges: []simulate.PriceRange{
				{Start: 1, End: 50, Min: 0.8, Max: 1.0},
				{Start: 50, End: 100, Min: 1.0, Max: 1.2},
			},
		}}
	}

	tests := []struct {
		name  string
		mut   func([]simulate.LineItem, []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup)
		field string
	}{
		{"zero participants", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].ParticipantCount = 0
			return i, g
		}, "groups[0].participant_count"},
		{"min above max", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].Ranges[1].Min = 1.5
			return i, g
		}, "groups[0].ranges[1].min"},
		{"start after end", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].Ranges[0].Start = 60
			return i, g
		}, "groups[0].ranges[0].start"},
		{"no items", func(_ []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			return nil, g
		}, "items"},
		{"no groups", func(i []simulate.LineItem, _ []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			return i, nil
		}, "groups"},
		{"overlapping ranges", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].Ranges[1].Start = 40
			return i, g
		}, "groups[0].ranges[1]"},
		{"nested range", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].Ranges = append(g[0].Ranges, simulate.PriceRange{Start: 10, End: 20, Min: 1, Max: 1})
			return i, g
		}, "groups[0].ranges[2]"},
		{"percentile out of bounds", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].Ranges[1].End = 101
			return i, g
		}, "groups[0].ranges[1].end"},
		{"non-positive factor", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].Ranges[0].Min = 0
			return i, g
		}, "groups[0].ranges[0].min"},
		{"zero reduction", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			g[0].BaseReduction = 0
			return i, g
		}, "groups[0].base_reduction"},
		{"negative price", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			i[1].UnitPrice = -1
			return i, g
		}, "items[1].unit_price"},
		{"NaN quantity", func(i []simulate.LineItem, g []simulate.PriceGroup) ([]simulate.LineItem, []simulate.PriceGroup) {
			i[0].Quantity = math.NaN()
			return i, g
		}, "items[0].quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{src: simulate.NewSource(1)}
			sim := simulate.New(simulate.WithSource(src))

			items, groups := tt.mut(valid())
			_, err := sim.Simulate(items, groups)
			require.ErrorIs(t, err, apperrors.ErrValidation)

			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, tt.field, vErr.Field)
			require.Zero(t, src.calls, "nothing is drawn for invalid input")
		})
	}
}

func TestSimulate_SharedBoundariesAllowed(t *testing.T) {
	sim := simulate.New(simulate.WithSource(simulate.NewSource(3)))
	_, err := sim.Simulate(baselineThousand(), []simulate.PriceGroup{{
		ParticipantCount: 3,
		BaseReduction:    1,
		Ranges: []simulate.PriceRange{
			{Start: 50, End: 100, Min: 1, Max: 1.1},
			{Start: 1, End: 50, Min: 0.9, Max: 1},
			{Start: 50, End: 50, Min: 1, Max: 1},
		},
	}})
	require.NoError(t, err)
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		ranges []simulate.PriceRange
		want   []int
	}{
		{"single range", 4, []simulate.PriceRange{{Start: 1, End: 100}}, []int{4}},
		{"largest remainder wins", 3, []simulate.PriceRange{{Start: 1, End: 50}, {Start: 50, End: 100}}, []int{1, 2}},
		{"tie goes to lower index", 3, []simulate.PriceRange{{Start: 1, End: 41}, {Start: 41, End: 81}}, []int{2, 1}},
		{"proportional", 10, []simulate.PriceRange{{Start: 1, End: 21}, {Start: 21, End: 81}, {Start: 81, End: 101}}, []int{2, 6, 2}},
		{"all zero width splits evenly", 5, []simulate.PriceRange{{Start: 10, End: 10}, {Start: 20, End: 20}, {Start: 30, End: 30}}, []int{2, 2, 1}},
		{"zero width gets nothing beside a wide range", 3, []simulate.PriceRange{{Start: 10, End: 10}, {Start: 20, End: 60}}, []int{0, 3}},
		{"no participants", 0, []simulate.PriceRange{{Start: 1, End: 100}}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := simulate.Allocate(tt.n, tt.ranges)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAllocate_SumsToN(t *testing.T) {
	ranges := []simulate.PriceRange{{Start: 1, End: 7}, {Start: 7, End: 38}, {Start: 38, End: 39}, {Start: 39, End: 100}}
	for n := 1; n <= 200; n++ {
		sum := 0
		for _, c := range simulate.Allocate(n, ranges) {
			require.GreaterOrEqual(t, c, 0)
			sum += c
		}
		require.Equal(t, n, sum)
	}
}

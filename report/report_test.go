package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-tender-client/report"
	"github.com/jrsteele09/go-tender-client/simulate"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "1.2346", report.Format(1.23456, 4))
	require.Equal(t, "760.0000", report.Format(760, 4))
	require.Equal(t, "3", report.Format(2.5, 0))
	require.Equal(t, "-1.5000", report.Format(-1.5, 4))
	require.Equal(t, 2.72, report.Round(2.71828, 2))
	require.Equal(t, "¥95.50", report.FormatAmount(95.5))
	require.Equal(t, "—", report.FormatAmount(0))
	require.Equal(t, "5.0000%", report.FormatPercent(5, 4))
}

func simulated(t *testing.T) *simulate.Result {
	t.Helper()
	sim := simulate.New(simulate.WithSource(simulate.NewSource(11)))
	res, err := sim.Simulate(
		[]simulate.LineItem{{Name: "Cement", UnitPrice: 60, Quantity: 10}, {Name: "Rebar", UnitPrice: 100, Quantity: 4}},
		[]simulate.PriceGroup{{
			ParticipantCount: 3,
			BaseReduction:    0.95,
			Ranges:           []simulate.PriceRange{{Start: 1, End: 100, Min: 0.8, Max: 1.2}},
		}},
	)
	require.NoError(t, err)
	return res
}

func TestListPriceTable(t *testing.T) {
	res := simulated(t)
	out := report.ListPrice(res, 4)

	require.Contains(t, out, "Baseline total 1000.0000")
	require.Contains(t, out, "Group 1")
	require.Contains(t, out, report.Format(res.Stats.Mean, 4))
	for _, total := range res.Totals {
		require.Contains(t, out, report.Format(total, 4))
	}

	items := report.ItemBreakdown(res, 2)
	require.Contains(t, items, "Cement")
	require.Contains(t, items, "600.00")
}

func TestTotalPriceTable(t *testing.T) {
	out := report.TotalPrice(&simulate.TotalResult{
		Samples:     []float64{0.9, 1.1},
		Mean:        1,
		Recommended: []float64{0.99},
	}, 4)
	require.Contains(t, out, "Mean 1.0000")
	require.Contains(t, out, "0.9900")
	require.Contains(t, out, "Recommended control price")
}

func TestPDFReports(t *testing.T) {
	generated := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	var list bytes.Buffer
	require.NoError(t, report.ListPricePDF(&list, simulated(t), generated, 4))
	require.True(t, bytes.HasPrefix(list.Bytes(), []byte("%PDF-")))

	var total bytes.Buffer
	require.NoError(t, report.TotalPricePDF(&total, &simulate.TotalResult{
		Samples:     []float64{100, 200},
		Mean:        150,
		Recommended: []float64{148.5, 151.5},
	}, generated, 4))
	require.True(t, bytes.HasPrefix(total.Bytes(), []byte("%PDF-")))
}

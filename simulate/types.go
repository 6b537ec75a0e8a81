package simulate

// LineItem is one priced line of a bill of quantities.
type LineItem struct {
	Name      string  `yaml:"name" json:"name"`
	UnitPrice float64 `yaml:"unit_price" json:"unit_price"`
	Quantity  float64 `yaml:"quantity" json:"quantity"`
}

// Baseline is the item's undiscounted price.
func (li LineItem) Baseline() float64 {
	return li.UnitPrice * li.Quantity
}

// PriceRange is a percentile-rank interval of competitor bids (1-100) with
// the multiplicative factor interval bids in that band are drawn from.
type PriceRange struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
}

// Width is the range's share of the percentile span.
func (r PriceRange) Width() float64 {
	return r.End - r.Start
}

// PriceGroup is a cohort of simulated competitors sharing a base reduction.
type PriceGroup struct {
	ParticipantCount int          `yaml:"participant_count" json:"numValue"`
	BaseReduction    float64      `yaml:"base_reduction" json:"reduc"`
	Ranges           []PriceRange `yaml:"ranges" json:"ranges"`
}

// Sample is one simulated competitor bid. Prices holds the per-item
// simulated prices, in item order; Total is their sum.
type Sample struct {
	Range  int       `json:"range"`
	Factor float64   `json:"factor"`
	Prices []float64 `json:"prices"`
	Total  float64   `json:"total"`
}

type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// GroupResult is the outcome for one price group. Samples are in generation
// order (by range); Totals is the same totals sorted ascending.
type GroupResult struct {
	Allocation []int     `json:"allocation"`
	Samples    []Sample  `json:"samples"`
	Totals     []float64 `json:"totals"`
	Stats      Stats     `json:"stats"`
}

type Result struct {
	Items         []LineItem    `json:"items"`
	BaselineTotal float64       `json:"baseline_total"`
	Groups        []GroupResult `json:"groups"`
	Totals        []float64     `json:"totals"`
	Stats         Stats         `json:"stats"`
}

// Samples returns every sample across groups, group by group.
func (r *Result) Samples() []Sample {
	var all []Sample
	for _, g := range r.Groups {
		all = append(all, g.Samples...)
	}
	return all
}

// ItemMeans is the mean simulated price of each line item over all samples.
func (r *Result) ItemMeans() []float64 {
	means := make([]float64, len(r.Items))
	samples := r.Samples()
	if len(samples) == 0 {
		return means
	}
	for _, s := range samples {
		for i, p := range s.Prices {
			means[i] += p
		}
	}
	for i := range means {
		means[i] /= float64(len(samples))
	}
	return means
}

func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	st := Stats{Count: len(values), Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Mean = sum / float64(len(values))
	return st
}

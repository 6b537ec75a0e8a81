package config

import "time"

type SimulatorConfig interface {
	GetDisplayDecimals() int
	GetRecommendationSpread() float64
	GetUpdateCountCacheTTL() time.Duration
	GetPageStateMaxAge() time.Duration
	GetPageStateSweepInterval() time.Duration
}

type Simulator struct{}

var _ SimulatorConfig = Simulator{}

func (Simulator) GetDisplayDecimals() int {
	return 4
}

// GetRecommendationSpread is the +/- fraction around the mean used for
// recommended control prices in the total-price simulator.
func (Simulator) GetRecommendationSpread() float64 {
	return 0.01
}

func (Simulator) GetUpdateCountCacheTTL() time.Duration {
	return 24 * time.Hour
}

func (Simulator) GetPageStateMaxAge() time.Duration {
	return 30 * time.Minute
}

func (Simulator) GetPageStateSweepInterval() time.Duration {
	return 15 * time.Minute
}

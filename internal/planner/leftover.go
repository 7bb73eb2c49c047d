package planner

import "github.com/coldchain/loadplan/internal/domain"

// leftoverKey builds the best-fit leftover tuple (residual - demand) per
// dimension in scheme order (spec §4.4 step 2, §4.5 "choose_best_open_dry").
// Smaller is better: tightest fit wins.
func leftoverKey(t *domain.Truck, d Demand, scheme []LeftoverDim) []float64 {
	key := make([]float64, len(scheme))
	for i, dim := range scheme {
		switch dim {
		case LeftoverCold:
			key[i] = t.ResidualCold() - d.QCold
		case LeftoverVolume:
			key[i] = t.ResidualVolume() - d.VEff
		case LeftoverWeight:
			key[i] = t.ResidualWeight() - d.Weight
		}
	}
	return key
}

// lessKey compares two leftover keys lexicographically.
func lessKey(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

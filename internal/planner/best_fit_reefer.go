package planner

import "github.com/coldchain/loadplan/internal/domain"

// chooseBestOpenReefer enumerates open reefers passing Fits and returns
// the one minimizing the lexicographic leftover key, breaking ties on
// truck id ascending (spec §4.4 steps 1-3).
func chooseBestOpenReefer(state StateView, feas FeasibilityService, d Demand, scheme []LeftoverDim, allowColdInDry bool) *domain.Truck {
	var best *domain.Truck
	var bestKey []float64
	for _, t := range state.OpenTrucks(domain.Reefer) {
		if !feas.Fits(d, t, allowColdInDry) {
			continue
		}
		key := leftoverKey(t, d, scheme)
		if best == nil || lessKey(key, bestKey) || (!lessKey(bestKey, key) && t.TruckID < best.TruckID) {
			best, bestKey = t, key
		}
	}
	return best
}

// chooseNewReefer scans available-but-not-open reefers in ascending id
// order and returns the first that fits (Open Question 3: first-feasible,
// never tightest-fit, per spec §9 and original_source's maybe_open_new_reefer).
func chooseNewReefer(state StateView, feas FeasibilityService, d Demand, allowColdInDry bool) *domain.Truck {
	for _, t := range state.AvailableNotOpen(domain.Reefer) {
		if feas.Fits(d, t, allowColdInDry) {
			return t
		}
	}
	return nil
}

// placeBucketA routes a cold-mandatory order to an existing or newly
// opened reefer (spec §4.4).
func placeBucketA(state StateView, feas FeasibilityService, packing PackingPolicy, isHazardous map[string]bool, pol Policy, orderID string) Decision {
	d, err := state.Demand(orderID)
	if err != nil {
		return Decision{Reason: "internal_error_demand"}
	}

	if t := chooseBestOpenReefer(state, feas, d, pol.ReeferSchemeA, pol.AllowColdInDryB); t != nil {
		return buildDecision(state, packing, isHazardous, orderID, t, false, BucketA, "best_fit_open_reefer")
	}

	if pol.AllowOpenNewReeferA {
		if t := chooseNewReefer(state, feas, d, pol.AllowColdInDryB); t != nil {
			return buildDecision(state, packing, isHazardous, orderID, t, true, BucketA, "open_new_reefer")
		}
	}

	return Decision{Reason: "infeasible_in_bucket_A"}
}

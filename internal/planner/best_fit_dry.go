package planner

import "github.com/coldchain/loadplan/internal/domain"

// chooseBestOpenDry enumerates open DRY trucks passing Fits and returns
// the one minimizing the lexicographic leftover key, tie-broken on
// truck id ascending (spec §4.5 "choose_best_open_dry"). Fits already
// enforces cooler feasibility for orders carrying cold volume.
func chooseBestOpenDry(state StateView, feas FeasibilityService, d Demand, scheme []LeftoverDim, allowColdInDry bool) *domain.Truck {
	var best *domain.Truck
	var bestKey []float64
	for _, t := range state.OpenTrucks(domain.Dry) {
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

// chooseNewDry scans available-but-not-open DRY trucks in ascending id
// order, requiring Fits (and, for cold volume, cooler feasibility is
// already folded into Fits), returning the first match (spec §4.5
// "maybe_open_new_dry").
func chooseNewDry(state StateView, feas FeasibilityService, d Demand, allowColdInDry bool) *domain.Truck {
	for _, t := range state.AvailableNotOpen(domain.Dry) {
		if feas.Fits(d, t, allowColdInDry) {
			return t
		}
	}
	return nil
}

// placeBucketB routes a mixed-flexible order: prefer an existing reefer
// (never opening a new one), then an open DRY truck (implicitly using
// its cooler if the order has cold volume), then a newly opened DRY
// truck (spec §4.5 "Bucket B").
func placeBucketB(state StateView, feas FeasibilityService, packing PackingPolicy, isHazardous map[string]bool, pol Policy, orderID string) Decision {
	d, err := state.Demand(orderID)
	if err != nil {
		return Decision{Reason: "internal_error_demand"}
	}

	if t := chooseBestOpenReefer(state, feas, d, pol.ReeferSchemeB, pol.AllowColdInDryB); t != nil {
		return buildDecision(state, packing, isHazardous, orderID, t, false, BucketB, "existing_reefer")
	}

	if t := chooseBestOpenDry(state, feas, d, pol.DrySchemeB, pol.AllowColdInDryB); t != nil {
		return buildDecision(state, packing, isHazardous, orderID, t, false, BucketB, "best_fit_open_dry")
	}

	if pol.AllowOpenNewDryC {
		if t := chooseNewDry(state, feas, d, pol.AllowColdInDryB); t != nil {
			return buildDecision(state, packing, isHazardous, orderID, t, true, BucketB, "open_new_dry")
		}
	}

	return Decision{Reason: "infeasible_in_bucket_B"}
}

// placeBucketC routes a dry-only order: an open DRY truck, else a newly
// opened one (spec §4.5 "Bucket C").
func placeBucketC(state StateView, feas FeasibilityService, packing PackingPolicy, isHazardous map[string]bool, pol Policy, orderID string) Decision {
	d, err := state.Demand(orderID)
	if err != nil {
		return Decision{Reason: "internal_error_demand"}
	}

	if t := chooseBestOpenDry(state, feas, d, pol.DrySchemeC, pol.AllowColdInDryB); t != nil {
		return buildDecision(state, packing, isHazardous, orderID, t, false, BucketC, "best_fit_open_dry")
	}

	if pol.AllowOpenNewDryC {
		if t := chooseNewDry(state, feas, d, pol.AllowColdInDryB); t != nil {
			return buildDecision(state, packing, isHazardous, orderID, t, true, BucketC, "open_new_dry")
		}
	}

	return Decision{Reason: "infeasible_in_bucket_C"}
}

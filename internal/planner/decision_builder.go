package planner

import (
	"fmt"

	"github.com/coldchain/loadplan/internal/domain"
)

// buildDecision invokes the packing policy for (orderID, truck) and
// assembles the successful Decision, or "infeasible" if packing
// refuses (spec §4.4 step 6). It never mutates the truck: apply_decision
// in the placer orchestrator is the only path that commits ledger state
// (spec §4.8).
func buildDecision(state StateView, packing PackingPolicy, isHazardous map[string]bool, orderID string, t *domain.Truck, openedNew bool, bucket Bucket, step string) Decision {
	items, err := state.RankedItems(orderID)
	if err != nil {
		return Decision{Reason: "internal_error_ranking"}
	}
	d, err := state.Demand(orderID)
	if err != nil {
		return Decision{Reason: "internal_error_demand"}
	}
	plan, ok := packing.Plan(t.TruckID, items, isHazardous)
	if !ok {
		return Decision{Reason: fmt.Sprintf("infeasible_in_bucket_%s", bucket)}
	}
	rationale := fmt.Sprintf(
		"step=%s truck=%s demand(q=%.6f,q_cold=%.6f,w=%.6f,v_eff=%.6f) residuals_before(r_vol=%.6f,r_cold=%.6f,r_w=%.6f) opened_new=%t",
		step, t.TruckID, d.QVol, d.QCold, d.Weight, d.VEff,
		t.ResidualVolume(), t.ResidualCold(), t.ResidualWeight(), openedNew,
	)
	return Decision{Assign: &AssignOrder{
		OrderID:        orderID,
		TruckID:        t.TruckID,
		Plan:           plan,
		OpenedNewTruck: openedNew,
		Bucket:         bucket,
		Rationale:      rationale,
	}}
}

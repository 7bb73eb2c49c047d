package planner

import (
	"github.com/coldchain/loadplan/internal/domain"
	"github.com/coldchain/loadplan/internal/tracker"
)

// PlacerOrchestrator drives Phase 2: per-order bucket dispatch, decision
// application, optional departure sweep, and day finalisation (spec §4.8).
type PlacerOrchestrator struct {
	Depot       *domain.Depot
	State       StateView
	Feas        FeasibilityService
	Packing     PackingPolicy
	Policy      Policy
	Tracker     *tracker.DayTracker
	IsHazardous map[string]bool
}

// NewPlacerOrchestrator wires the capability set used by the bucket placers.
func NewPlacerOrchestrator(depot *domain.Depot, state StateView, feas FeasibilityService, packing PackingPolicy, pol Policy, tr *tracker.DayTracker, isHazardous map[string]bool) *PlacerOrchestrator {
	return &PlacerOrchestrator{Depot: depot, State: state, Feas: feas, Packing: packing, Policy: pol, Tracker: tr, IsHazardous: isHazardous}
}

// SetAlphaThreshold late-binds the A/B/C split without rebuilding the
// orchestrator, mirroring original_source's set_alpha_threshold.
func (po *PlacerOrchestrator) SetAlphaThreshold(v float64) {
	po.Policy.AlphaThreshold = v
}

func orderAlpha(d Demand) float64 {
	if d.QVol <= domain.EPSDenominator {
		return 0
	}
	return d.QCold / d.QVol
}

// RunOne buckets and places a single order, committing on success.
func (po *PlacerOrchestrator) RunOne(orderID string, vip bool) (Decision, error) {
	d, err := po.State.Demand(orderID)
	if err != nil {
		return Decision{}, err
	}
	bucket := DetermineBucket(orderAlpha(d), po.Policy.AlphaThreshold)

	var dec Decision
	switch bucket {
	case BucketA:
		dec = placeBucketA(po.State, po.Feas, po.Packing, po.IsHazardous, po.Policy, orderID)
	case BucketB:
		dec = placeBucketB(po.State, po.Feas, po.Packing, po.IsHazardous, po.Policy, orderID)
	default:
		dec = placeBucketC(po.State, po.Feas, po.Packing, po.IsHazardous, po.Policy, orderID)
	}

	if dec.Ok() {
		if err := po.ApplyDecision(dec, d, vip); err != nil {
			return dec, err
		}
	} else {
		po.Tracker.OnFailure(orderID, vip, dec.Reason)
	}
	return dec, nil
}

// RunMany places every order id in sequence, in the given (already
// ranked) order. vipOf supplies the VIP flag per order id.
func (po *PlacerOrchestrator) RunMany(orderIDs []string, vipOf func(orderID string) bool) ([]Decision, error) {
	decisions := make([]Decision, 0, len(orderIDs))
	for _, id := range orderIDs {
		dec, err := po.RunOne(id, vipOf(id))
		if err != nil {
			return decisions, err
		}
		decisions = append(decisions, dec)
	}
	return decisions, nil
}

// ApplyDecision is the only path that mutates state (spec §4.8): it
// opens the truck in the tracker if needed, commits the truck's runtime
// ledger, registers the order as assigned, and persists placement rows.
func (po *PlacerOrchestrator) ApplyDecision(dec Decision, d Demand, vip bool) error {
	a := dec.Assign
	t, err := po.State.Truck(a.TruckID)
	if err != nil {
		return err
	}
	if t.State == domain.TruckDeparted {
		return invariantErrorf(t.TruckID, a.OrderID, "assignment to departed truck")
	}

	if err := po.Tracker.OpenTruck(t); err != nil {
		return &InvariantError{TruckID: t.TruckID, OrderID: a.OrderID, Err: err}
	}

	t.UsedEffectiveVol += d.VEff
	t.UsedWeight += d.Weight
	t.UsedVolume += d.QVol
	t.UsedColdVolume += d.QCold
	coldOnDry := t.Type == domain.Dry && d.QCold > 0
	if coldOnDry {
		t.UsedCoolerM3 += d.QCold
	}
	t.AssignedOrderIDs = append(t.AssignedOrderIDs, a.OrderID)

	if err := t.CheckInvariants(); err != nil {
		return &InvariantError{TruckID: t.TruckID, OrderID: a.OrderID, Err: err}
	}

	po.Tracker.OnAssign(a.OrderID, d.QVol, d.QCold, d.Weight, d.VEff, vip, t.TruckID, coldOnDry)

	if a.Plan != nil && len(a.Plan.Placements) > 0 {
		rows := make([]tracker.AssignmentRow, len(a.Plan.Placements))
		for i, p := range a.Plan.Placements {
			rows[i] = tracker.AssignmentRow{
				OrderID: a.OrderID, TruckID: t.TruckID,
				ItemID: p.ItemID, Qty: p.Qty,
				Zone: p.Zone, Lane: p.Lane, Layer: p.Layer, Pos: p.Pos,
			}
		}
		po.Tracker.RecordPlacement(rows)
	}
	return nil
}

// MaybeDepartTrucks sweeps opened, not-yet-departed trucks under the
// given strategy (spec §4.8 "Departure policy").
func (po *PlacerOrchestrator) MaybeDepartTrucks(strategy string, minUtilSlack float64, departTime string) {
	switch strategy {
	case "min_util":
		for _, t := range po.Tracker.OpenedTrucks() {
			if po.Tracker.IsDeparted(t.TruckID) {
				continue
			}
			if t.TotalCapacityM3 <= 0 {
				continue
			}
			if t.UsedEffectiveVol/t.TotalCapacityM3 >= t.MinUtilization+minUtilSlack {
				po.departTruck(t, departTime)
			}
		}
	case "time":
		for _, t := range po.Tracker.OpenedTrucks() {
			if po.Tracker.IsDeparted(t.TruckID) {
				continue
			}
			po.departTruck(t, departTime)
		}
	case "none", "":
		// no effect
	}
}

func (po *PlacerOrchestrator) departTruck(t *domain.Truck, departTime string) {
	t.State = domain.TruckDeparted
	t.DepartureTime = departTime
	po.Tracker.OnDeparture(t.TruckID)
}

// FinalizeDay produces the day KPI snapshot via the day tracker.
func (po *PlacerOrchestrator) FinalizeDay() ([]tracker.PerTruckRow, tracker.FleetRow) {
	return po.Tracker.SummarizeDay()
}

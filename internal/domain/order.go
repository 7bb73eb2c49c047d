package domain

import (
	"fmt"
	"time"
)

// OrderLine is one (item_id, qty) pair inside an order's item_list.
type OrderLine struct {
	ItemID string
	Qty    int
}

// CustomerOrder is one customer's order for the planning day. item_list
// keys are unique by construction (built from a map at load time);
// aggregates are computed once from the catalogue and then invariant.
type CustomerOrder struct {
	OrderID     string
	CustomerID  string
	ItemList    []OrderLine
	DueTimeStr  string
	DueDt       time.Time

	// Derived aggregates, computed once via ComputeAggregates.
	QTotalVolume   float64 // q_i
	QColdVolume    float64 // q_i_cold (possibly clamped)
	WeightKg       float64 // w_i
	EffectiveVol   float64 // v_i_eff
	AlphaCold      float64 // alpha_i in [0,1]

	Status OrderStatus
	VIP    bool
}

// ComputeAggregates walks item_list against the catalogue and fills in
// QTotalVolume, QColdVolume, WeightKg, EffectiveVol and AlphaCold.
//
// Open Question 2 (spec.md §9): alphaMax <= 0 means "no clamp". When a
// clamp applies, the clamped alpha_i is authoritative and q_i_cold is
// recomputed as alphaMax * q_i so the identity alpha_i = q_i_cold/q_i
// continues to hold post-clamp, per the spec's stated preference.
func (o *CustomerOrder) ComputeAggregates(cat Catalogue, alphaMax float64) error {
	var q, qCold, w, vEff float64
	seen := make(map[string]bool, len(o.ItemList))
	for _, line := range o.ItemList {
		if line.Qty <= 0 {
			return fmt.Errorf("order %s: item %s has non-positive quantity %d", o.OrderID, line.ItemID, line.Qty)
		}
		if seen[line.ItemID] {
			return fmt.Errorf("order %s: duplicate item_id %s in item_list", o.OrderID, line.ItemID)
		}
		seen[line.ItemID] = true

		item, ok := cat[line.ItemID]
		if !ok {
			return fmt.Errorf("order %s: unknown item id %s", o.OrderID, line.ItemID)
		}
		qty := float64(line.Qty)
		lineVol := qty * item.UnitVolumeM3
		q += lineVol
		w += qty * item.UnitWeightKg
		vEff += qty * item.EffectiveUnitVolume()
		if item.CategoryCold {
			qCold += lineVol
		}
	}

	o.QTotalVolume = q
	o.WeightKg = w
	o.EffectiveVol = vEff

	alpha := 0.0
	if q > EPSDenominator {
		alpha = qCold / q
	}
	if alphaMax > 0 && alpha > alphaMax {
		alpha = alphaMax
		qCold = alphaMax * q
	}
	if alpha < 0 || alpha > 1 {
		return fmt.Errorf("order %s: computed alpha_i=%v out of [0,1]", o.OrderID, alpha)
	}
	o.QColdVolume = qCold
	o.AlphaCold = alpha
	return nil
}

// BindDueTime parses HH:MM and binds it to day's date, producing due_dt.
func (o *CustomerOrder) BindDueTime(day time.Time) error {
	t, err := time.Parse("15:04", o.DueTimeStr)
	if err != nil {
		return fmt.Errorf("order %s: malformed due_time_str %q: %w", o.OrderID, o.DueTimeStr, err)
	}
	o.DueDt = time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
	return nil
}

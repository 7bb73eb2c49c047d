// Package ranking builds the global order priority queue (Phase 1, C2)
// and the within-order item loading sequence (Phase 1, C3).
package ranking

import (
	"fmt"
	"sort"
)

// OrderDim is a ranking dimension name for the order scheme.
type OrderDim string

const (
	DimVIP    OrderDim = "vip"
	DimDue    OrderDim = "due"
	DimAlpha  OrderDim = "alpha"
	DimVEff   OrderDim = "v_eff"
	DimWeight OrderDim = "weight"
	DimOrder  OrderDim = "order_id"
)

// OrderFeatures is the read-only feature view of one order the ranker
// consumes; DueUnix is a monotone encoding of due_dt (seconds since an
// arbitrary day epoch is fine — ranking only needs relative order).
type OrderFeatures struct {
	OrderID    string
	VIP        bool
	DueUnix    int64
	AlphaCold  float64
	VEff       float64
	WeightKg   float64
}

// OrderRankRow is one audited row of the ranked order queue: the order
// id, its rank position, and the literal lexicographic key used, so the
// decision is reproducible and loggable (spec §4.1, §4.7).
type OrderRankRow struct {
	Rank  int
	Order OrderFeatures
	Key   []float64 // signed scalars in scheme order, order_id excluded (string tie-break)
}

// ValidateOrderScheme rejects unknown or duplicate dimensions (spec §4.1).
func ValidateOrderScheme(scheme []OrderDim) error {
	seen := make(map[OrderDim]bool, len(scheme))
	for _, d := range scheme {
		switch d {
		case DimVIP, DimDue, DimAlpha, DimVEff, DimWeight, DimOrder:
		default:
			return fmt.Errorf("order scheme: unknown dimension %q", d)
		}
		if seen[d] {
			return fmt.Errorf("order scheme: duplicate dimension %q", d)
		}
		seen[d] = true
	}
	return nil
}

// orderDimValue returns the signed scalar for one dimension such that
// smaller is always "comes first" in the final lexicographic order,
// encoding each dimension's fixed direction (spec §4.1):
//   vip descending, due ascending, alpha descending, v_eff descending,
//   weight descending, order_id ascending (handled separately as the
//   trailing string tie-break, never part of the numeric key).
func orderDimValue(f OrderFeatures, d OrderDim) float64 {
	switch d {
	case DimVIP:
		if f.VIP {
			return 0
		}
		return 1
	case DimDue:
		return float64(f.DueUnix)
	case DimAlpha:
		return -f.AlphaCold
	case DimVEff:
		return -f.VEff
	case DimWeight:
		return -f.WeightKg
	case DimOrder:
		return 0 // order_id is the terminal string tie-break, not numeric
	default:
		return 0
	}
}

// RankOrders builds the total order over orders per the configured
// scheme, returning rank rows in final order with the audited key.
func RankOrders(orders []OrderFeatures, scheme []OrderDim) ([]OrderRankRow, error) {
	if err := ValidateOrderScheme(scheme); err != nil {
		return nil, err
	}
	rows := make([]OrderRankRow, len(orders))
	for i, o := range orders {
		key := make([]float64, 0, len(scheme))
		for _, d := range scheme {
			if d == DimOrder {
				continue
			}
			key = append(key, orderDimValue(o, d))
		}
		rows[i] = OrderRankRow{Order: o, Key: key}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Key, rows[j].Key
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return rows[i].Order.OrderID < rows[j].Order.OrderID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

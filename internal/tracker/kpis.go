// Package tracker implements the day tracker (C11) — the per-truck and
// per-order ledger — and the pure KPI formulas (C12) computed over it.
package tracker

import (
	"math"

	"github.com/coldchain/loadplan/internal/domain"
)

const eps = domain.EPSDenominator

// UVol returns U_vol_k = used_v_eff / Q, clamped to [0,1]; 0 if Q<=0.
func UVol(t *domain.Truck) float64 {
	if t.TotalCapacityM3 <= 0 {
		return 0
	}
	v := t.UsedEffectiveVol / t.TotalCapacityM3
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UW returns U_w_k = used_w / W; 0 if W<=0. Not clamped to [0,1] per
// spec.md (only floored at 0), since an over-capacity truck is a
// separate cap_violation signal, not something UW should hide.
func UW(t *domain.Truck) float64 {
	if t.WeightLimitKg <= 0 {
		return 0
	}
	v := t.UsedWeight / t.WeightLimitKg
	if v < 0 {
		return 0
	}
	return v
}

// UCold returns U_cold_k = used_q_cold / Q_cold, clamped to [0,1]; 0 on DRY.
func UCold(t *domain.Truck) float64 {
	if t.Type == domain.Dry || t.ColdCapacityM3 <= 0 {
		return 0
	}
	v := t.UsedColdVolume / t.ColdCapacityM3
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UBn returns U_bn_k = min(U_vol_k, U_w_k).
func UBn(t *domain.Truck) float64 {
	uv, uw := UVol(t), UW(t)
	if uv < uw {
		return uv
	}
	return uw
}

// UnderMin returns 1 iff U_vol_k + EPS < tau_min.
func UnderMin(t *domain.Truck) int {
	if UVol(t)+domain.EPSCapacity < t.MinUtilization {
		return 1
	}
	return 0
}

// CapViolation returns 1 iff any residual is strictly negative past the
// capacity EPS tolerance. Each comparison is gated on the corresponding
// capacity being itself above EPS, so a truck with a zero capacity field
// (e.g. Q_cold on a DRY truck) never flags on that dimension.
func CapViolation(t *domain.Truck) int {
	if t.TotalCapacityM3 > domain.EPSCapacity && t.UsedEffectiveVol-t.TotalCapacityM3 > domain.EPSCapacity {
		return 1
	}
	if t.WeightLimitKg > domain.EPSCapacity && t.UsedWeight-t.WeightLimitKg > domain.EPSCapacity {
		return 1
	}
	if t.ColdCapacityM3 > domain.EPSCapacity && t.UsedColdVolume-t.ColdCapacityM3 > domain.EPSCapacity {
		return 1
	}
	return 0
}

// EPack returns sum(q) / sum(v_eff); 0 if the denominator is near zero.
func EPack(sumQ, sumVEff float64) float64 {
	if sumVEff <= eps {
		return 0
	}
	return sumQ / sumVEff
}

// NTrucks returns the count of opened trucks.
func NTrucks(opened []*domain.Truck) int { return len(opened) }

// CTotal returns the sum of fixed_cost over opened trucks.
func CTotal(opened []*domain.Truck) float64 {
	var sum float64
	for _, t := range opened {
		sum += t.FixedCost
	}
	return sum
}

// CPerVol returns C_total / sum(q); 0 if denominator near zero.
func CPerVol(cTotal, sumQ float64) float64 {
	if sumQ <= eps {
		return 0
	}
	return cTotal / sumQ
}

// CPerW returns C_total / sum(w); 0 if denominator near zero.
func CPerW(cTotal, sumW float64) float64 {
	if sumW <= eps {
		return 0
	}
	return cTotal / sumW
}

// CVUVol returns the coefficient of variation (population stddev / mean)
// of U_vol_k across opened trucks; 0 if the mean is near zero.
func CVUVol(opened []*domain.Truck) float64 {
	if len(opened) == 0 {
		return 0
	}
	var sum float64
	vals := make([]float64, len(opened))
	for i, t := range opened {
		vals[i] = UVol(t)
		sum += vals[i]
	}
	mean := sum / float64(len(opened))
	if mean <= eps {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	variance := sq / float64(len(opened))
	return math.Sqrt(variance) / mean
}

// UnderMinCount returns the count of opened trucks with under_min_k = 1.
func UnderMinCount(opened []*domain.Truck) int {
	n := 0
	for _, t := range opened {
		n += UnderMin(t)
	}
	return n
}

// CapViolsCount returns the count of opened trucks with cap_violation_k = 1.
func CapViolsCount(opened []*domain.Truck) int {
	n := 0
	for _, t := range opened {
		n += CapViolation(t)
	}
	return n
}

// MissVIP returns the count of failed-or-late VIP orders.
func MissVIP(orders []*OrderRecord) int {
	n := 0
	for _, o := range orders {
		if !o.IsVIP {
			continue
		}
		if !o.Placed || !o.DueMet {
			n++
		}
	}
	return n
}

// MissDue returns the count of orders with due_met = false.
func MissDue(orders []*OrderRecord) int {
	n := 0
	for _, o := range orders {
		if !o.DueMet {
			n++
		}
	}
	return n
}

// AvgDelay returns the mean of recorded (non-nil) delay_min values; 0 if none.
func AvgDelay(orders []*OrderRecord) float64 {
	var sum float64
	var n int
	for _, o := range orders {
		if o.DelayMin != nil {
			sum += *o.DelayMin
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// VipOnTime returns 1 - MISS_VIP/#VIP orders; convention 1.0 if no VIP orders.
func VipOnTime(orders []*OrderRecord) float64 {
	var nVIP int
	for _, o := range orders {
		if o.IsVIP {
			nVIP++
		}
	}
	if nVIP == 0 {
		return 1.0
	}
	return 1.0 - float64(MissVIP(orders))/float64(nVIP)
}

// ColdOnDry returns the size of the cold-on-dry pair set.
func ColdOnDry(pairs map[[2]string]bool) int { return len(pairs) }

// Splits returns the count of orders whose assigned-truck-count != 1.
func Splits(orders []*OrderRecord) int {
	n := 0
	for _, o := range orders {
		if o.AssignedTruckCount != 1 {
			n++
		}
	}
	return n
}

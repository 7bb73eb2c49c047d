package planner

import "github.com/coldchain/loadplan/internal/domain"

// FeasibilityService is stateless and pure: capacity and cooler gates
// (spec §4.3).
type FeasibilityService interface {
	Fits(d Demand, t *domain.Truck, allowColdInDry bool) bool
	CoolerFeasible(d Demand, t *domain.Truck, allowColdInDry bool) bool
}

// SimpleFeasibility is the reference feasibility checker.
type SimpleFeasibility struct{}

// CoolerFeasible is true iff the cold-in-dry policy flag is set, the
// truck is DRY, the order carries cold volume, and that cold volume
// fits within the truck's remaining cooler capacity, within EPS slack.
func (SimpleFeasibility) CoolerFeasible(d Demand, t *domain.Truck, allowColdInDry bool) bool {
	if !allowColdInDry || t.Type != domain.Dry || d.QCold <= 0 {
		return false
	}
	return d.QCold <= t.ResidualCooler()+domain.EPSCapacity
}

// Fits returns true iff the order's demand triple fits within the
// truck's current residuals (spec §4.3).
func (f SimpleFeasibility) Fits(d Demand, t *domain.Truck, allowColdInDry bool) bool {
	if d.VEff > t.ResidualVolume()+domain.EPSCapacity {
		return false
	}
	if d.Weight > t.ResidualWeight()+domain.EPSCapacity {
		return false
	}
	if d.QCold > 0 {
		switch t.Type {
		case domain.Reefer:
			if d.QCold > t.ResidualCold()+domain.EPSCapacity {
				return false
			}
		case domain.Dry:
			if !f.CoolerFeasible(d, t, allowColdInDry) {
				return false
			}
		}
	}
	return true
}

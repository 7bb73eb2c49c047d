package planner

import "github.com/coldchain/loadplan/internal/ranking"
import "github.com/coldchain/loadplan/internal/domain"

// Placement is one line's slot assignment inside a truck's load plan
// (spec §4.6).
type Placement struct {
	ItemID string
	Qty    int
	Zone   domain.Zone
	Lane   domain.Lane
	Layer  int
	Pos    int
}

// LoadingPlan is the packing policy's output for one order on one truck.
type LoadingPlan struct {
	TruckID    string
	Placements []Placement
}

// PackingPolicy maps a pre-ranked item sequence to zone/lane/layer slots,
// or refuses (spec §4.6). Implementations must be deterministic given
// their inputs.
type PackingPolicy interface {
	Plan(truckID string, items []ranking.ItemRank, isHazardous map[string]bool) (*LoadingPlan, bool)
}

// zoneLaneState tracks the running per-zone, per-lane weight balance and
// the next "top" layer to hand out to a fragile/upright-only line.
type zoneLaneState struct {
	laneWeight map[domain.Lane]float64
	topLayer   int
}

func newZoneLaneState() *zoneLaneState {
	return &zoneLaneState{laneWeight: map[domain.Lane]float64{domain.LaneLeft: 0, domain.LaneRight: 0}, topLayer: 2}
}

// SimplePackingPolicy is the reference packing policy from spec §4.6.
type SimplePackingPolicy struct{}

// Plan implements the reference zone/lane/layer assignment. isHazardous
// maps item id to whether that item's separation_tag is HAZARDOUS; the
// caller supplies it since the policy itself holds no catalogue.
func (SimplePackingPolicy) Plan(truckID string, items []ranking.ItemRank, isHazardous map[string]bool) (*LoadingPlan, bool) {
	zones := map[domain.Zone]*zoneLaneState{
		domain.ZoneCold:    newZoneLaneState(),
		domain.ZoneAmbient: newZoneLaneState(),
		domain.ZoneHaz:     newZoneLaneState(),
	}

	plan := &LoadingPlan{TruckID: truckID}
	for pos, line := range items {
		zone := domain.ZoneAmbient
		switch {
		case isHazardous[line.ItemID]:
			zone = domain.ZoneHaz
		case line.Cold01 == 1:
			zone = domain.ZoneCold
		}

		zs := zones[zone]
		lane := domain.LaneLeft
		if zs.laneWeight[domain.LaneRight] < zs.laneWeight[domain.LaneLeft] {
			lane = domain.LaneRight
		}
		zs.laneWeight[lane] += line.WeightKg

		layer := 1
		if line.FragileScore >= 1 || line.Upright01 == 1 {
			layer = zs.topLayer
			zs.topLayer++
		}

		plan.Placements = append(plan.Placements, Placement{
			ItemID: line.ItemID,
			Qty:    line.Qty,
			Zone:   zone,
			Lane:   lane,
			Layer:  layer,
			Pos:    pos,
		})
	}
	return plan, true
}

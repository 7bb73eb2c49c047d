package planner

import (
	"fmt"
	"sort"

	"github.com/coldchain/loadplan/internal/domain"
	"github.com/coldchain/loadplan/internal/ranking"
)

// Demand is an order's feasibility-relevant demand triple (spec §4.3).
type Demand struct {
	QVol   float64
	QCold  float64
	Weight float64
	VEff   float64
}

// StateView is the read-only projection of depot/orders/residuals
// handed to placers (spec §9 "capability-based interfaces"). Only the
// placer orchestrator mutates the underlying depot; everything else,
// including placers, only reads through this capability.
type StateView interface {
	OpenTrucks(t domain.TruckType) []*domain.Truck
	AvailableNotOpen(t domain.TruckType) []*domain.Truck
	Demand(orderID string) (Demand, error)
	RankedItems(orderID string) ([]ranking.ItemRank, error)
	Truck(id string) (*domain.Truck, error)
}

// DepotState is the concrete StateView backed by one depot and the
// day's orders/catalogue.
type DepotState struct {
	Depot     *domain.Depot
	Orders    map[string]*domain.CustomerOrder
	Catalogue domain.Catalogue
	ItemScheme []ranking.ItemDim

	itemCache map[string][]ranking.ItemRank
}

// NewDepotState builds a DepotState; panics are never used — callers
// must supply a non-nil depot and order map.
func NewDepotState(depot *domain.Depot, orders map[string]*domain.CustomerOrder, cat domain.Catalogue, itemScheme []ranking.ItemDim) *DepotState {
	return &DepotState{
		Depot:      depot,
		Orders:     orders,
		Catalogue:  cat,
		ItemScheme: itemScheme,
		itemCache:  make(map[string][]ranking.ItemRank),
	}
}

func (s *DepotState) trucksOfType(t domain.TruckType, state domain.TruckState) []*domain.Truck {
	var out []*domain.Truck
	for _, id := range s.Depot.TruckIDs() {
		tr := s.Depot.AvailableTrucks[id]
		if tr.Type != t {
			continue
		}
		if tr.State != state {
			continue
		}
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TruckID < out[j].TruckID })
	return out
}

// OpenTrucks returns opened, not-departed trucks of the given type in
// ascending id order.
func (s *DepotState) OpenTrucks(t domain.TruckType) []*domain.Truck {
	return s.trucksOfType(t, domain.TruckOpened)
}

// AvailableNotOpen returns trucks of the given type that have never been
// opened, in ascending id order (spec §9 determinism requirement).
func (s *DepotState) AvailableNotOpen(t domain.TruckType) []*domain.Truck {
	return s.trucksOfType(t, domain.TruckAvailable)
}

// Truck looks up a truck by id.
func (s *DepotState) Truck(id string) (*domain.Truck, error) {
	return s.Depot.GetTruck(id)
}

// Demand returns the order's feasibility-relevant demand triple.
func (s *DepotState) Demand(orderID string) (Demand, error) {
	o, ok := s.Orders[orderID]
	if !ok {
		return Demand{}, fmt.Errorf("state: unknown order id %s", orderID)
	}
	return Demand{QVol: o.QTotalVolume, QCold: o.QColdVolume, Weight: o.WeightKg, VEff: o.EffectiveVol}, nil
}

// RankedItems returns (and caches) the within-order item ranking for an
// order, computed via the configured item scheme.
func (s *DepotState) RankedItems(orderID string) ([]ranking.ItemRank, error) {
	if cached, ok := s.itemCache[orderID]; ok {
		return cached, nil
	}
	o, ok := s.Orders[orderID]
	if !ok {
		return nil, fmt.Errorf("state: unknown order id %s", orderID)
	}
	rows, err := ranking.RankItems(o.ItemList, s.Catalogue, s.ItemScheme)
	if err != nil {
		return nil, fmt.Errorf("state: ranking items for order %s: %w", orderID, err)
	}
	s.itemCache[orderID] = rows
	return rows, nil
}

package planner

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/coldchain/loadplan/internal/domain"
	"github.com/coldchain/loadplan/internal/ranking"
	"github.com/coldchain/loadplan/internal/tracker"
)

// SelectionResult is Phase 1's output: the ranked order-id sequence and,
// for each order, its ranked item sequence, ready for Phase 2 (spec §4.7).
type SelectionResult struct {
	RunID       string
	OrderedIDs  []string
	RankedItems map[string][]ranking.ItemRank
}

// SelectionOrchestrator drives Phase 1: it ranks the full set of pending
// orders, ranks items within each order, and records both rankings into
// the day tracker with a run_id tag (spec §4.7).
type SelectionOrchestrator struct {
	Orders    map[string]*domain.CustomerOrder
	Customers map[string]domain.Customer
	Catalogue domain.Catalogue
	Policy    Policy
	Tracker   *tracker.DayTracker
}

// NewSelectionOrchestrator builds a Phase 1 driver over the given orders.
func NewSelectionOrchestrator(orders map[string]*domain.CustomerOrder, customers map[string]domain.Customer, cat domain.Catalogue, pol Policy, tr *tracker.DayTracker) *SelectionOrchestrator {
	return &SelectionOrchestrator{Orders: orders, Customers: customers, Catalogue: cat, Policy: pol, Tracker: tr}
}

// Run executes Phase 1 for every pending order id supplied, recording
// the ranked queues under a fresh run_id. resetLogs clears any queue
// logs from a prior run on this tracker (spec §4.7 idempotence).
func (so *SelectionOrchestrator) Run(pendingOrderIDs []string, resetLogs bool) (SelectionResult, error) {
	runID := uuid.NewString()

	features := make([]ranking.OrderFeatures, 0, len(pendingOrderIDs))
	for _, id := range pendingOrderIDs {
		o, ok := so.Orders[id]
		if !ok {
			return SelectionResult{}, fmt.Errorf("selection: unknown order id %s", id)
		}
		vip := so.Customers[o.CustomerID].VIP
		features = append(features, ranking.OrderFeatures{
			OrderID:   o.OrderID,
			VIP:       vip,
			DueUnix:   o.DueDt.Unix(),
			AlphaCold: o.AlphaCold,
			VEff:      o.EffectiveVol,
			WeightKg:  o.WeightKg,
		})
	}

	rankedOrders, err := ranking.RankOrders(features, so.Policy.OrderScheme)
	if err != nil {
		return SelectionResult{}, fmt.Errorf("selection: ranking orders: %w", err)
	}

	orderedIDs := make([]string, len(rankedOrders))
	orderQueueRows := make([]tracker.OrderQueueRow, len(rankedOrders))
	for i, row := range rankedOrders {
		orderedIDs[i] = row.Order.OrderID
		orderQueueRows[i] = tracker.OrderQueueRow{
			RunID: runID, Rank: row.Rank, OrderID: row.Order.OrderID,
			VIP: row.Order.VIP, Due: row.Order.DueUnix, Alpha: row.Order.AlphaCold,
			VEff: row.Order.VEff, Weight: row.Order.WeightKg,
			SortKey: formatKey(row.Key),
		}
	}
	so.Tracker.RecordOrderQueue(orderQueueRows, runID, resetLogs)

	rankedItems := make(map[string][]ranking.ItemRank, len(orderedIDs))
	var itemQueueRows []tracker.ItemQueueRow
	for _, id := range orderedIDs {
		o := so.Orders[id]
		items, err := ranking.RankItems(o.ItemList, so.Catalogue, so.Policy.ItemScheme)
		if err != nil {
			return SelectionResult{}, fmt.Errorf("selection: ranking items for order %s: %w", id, err)
		}
		rankedItems[id] = items
		for _, it := range items {
			itemQueueRows = append(itemQueueRows, tracker.ItemQueueRow{
				OrderID: id, Rank: it.Rank, ItemID: it.ItemID, Qty: it.Qty,
				Cold01: it.Cold01, WIJ: it.WeightKg, VIJEff: it.VEff,
				Liquid01: it.Liquid01, StackLimit: it.StackLimit,
				FragileScore: it.FragileScore, Upright01: it.Upright01,
				SortKey: formatKey(it.Key),
			})
		}
	}
	so.Tracker.RecordItemQueue(itemQueueRows, runID, resetLogs)

	return SelectionResult{RunID: runID, OrderedIDs: orderedIDs, RankedItems: rankedItems}, nil
}

func formatKey(key []float64) string {
	s := "("
	for i, v := range key {
		if i > 0 {
			s += ","
		}
		s += strconv.FormatFloat(v, 'g', -1, 64)
	}
	return s + ")"
}

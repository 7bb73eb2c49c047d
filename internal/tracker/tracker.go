package tracker

import (
	"fmt"
	"sort"

	"github.com/coldchain/loadplan/internal/domain"
)

// OrderRecord is the per-order ledger entry (spec §4.9).
type OrderRecord struct {
	OrderID            string
	Placed             bool
	AssignedTruckCount int
	Reason             string
	IsVIP              bool
	DueMet             bool
	DelayMin           *float64
}

// AssignmentRow is one flat placement row for assignments.csv (spec §6).
type AssignmentRow struct {
	Time    string
	OrderID string
	TruckID string
	ItemID  string
	Qty     int
	Zone    domain.Zone
	Lane    domain.Lane
	Layer   int
	Pos     int
}

// OrderQueueRow is one audited row for order_queue.csv (spec §6, §4.7).
type OrderQueueRow struct {
	RunID   string
	Rank    int
	OrderID string
	VIP     bool
	Due     int64
	Alpha   float64
	VEff    float64
	Weight  float64
	SortKey string
}

// ItemQueueRow is one audited row for item_rankings.csv (spec §6, §4.7).
type ItemQueueRow struct {
	OrderID      string
	Rank         int
	ItemID       string
	Qty          int
	Cold01       int
	WIJ          float64
	VIJEff       float64
	Liquid01     int
	StackLimit   float64
	FragileScore int
	Upright01    int
	SortKey      string
}

// DayTracker is the per-depot, per-day ledger: which trucks are opened,
// each order's final status, day-level sums, and the cold-on-dry set
// (spec §4.9). A DayTracker is never shared across days (spec §5).
type DayTracker struct {
	Depot *domain.Depot

	openedIDs    []string
	openedSet    map[string]bool
	specSnapshot map[string]truckSpec // static specs captured at first open
	departedSet  map[string]bool

	orders map[string]*OrderRecord

	coldOnDryPairs map[[2]string]bool

	sumQ, sumVEff, sumW float64

	assignmentRows []AssignmentRow
	orderQueueLog  []OrderQueueRow
	itemQueueLog   []ItemQueueRow
	orderQueueMeta map[string]string
	itemQueueMeta  map[string]string
}

// NewDayTracker builds an empty tracker bound to one depot.
func NewDayTracker(depot *domain.Depot) *DayTracker {
	return &DayTracker{
		Depot:          depot,
		openedSet:      make(map[string]bool),
		specSnapshot:   make(map[string]truckSpec),
		departedSet:    make(map[string]bool),
		orders:         make(map[string]*OrderRecord),
		coldOnDryPairs: make(map[[2]string]bool),
		orderQueueMeta: make(map[string]string),
		itemQueueMeta:  make(map[string]string),
	}
}

// truckSpec holds only the scalar fields of domain.Truck that must never
// change once opened. domain.Truck itself carries an AssignedOrderIDs
// slice and is therefore not comparable with ==; truckSpec is, so it can
// be diffed directly to detect a reopen-with-differing-specs violation.
type truckSpec struct {
	TruckID          string
	Type             domain.TruckType
	TotalCapacityM3  float64
	ColdCapacityM3   float64
	WeightLimitKg    float64
	FixedCost        float64
	MinUtilization   float64
	ReserveFraction  float64
	CoolerCapacityM3 float64
}

// staticSpecs returns the subset of a truck's fields that must never
// change once opened, used to detect a duplicate-open-with-differing-specs
// invariant violation (spec §7 "duplicate open of a truck with differing specs").
func staticSpecs(t *domain.Truck) truckSpec {
	return truckSpec{
		TruckID: t.TruckID, Type: t.Type,
		TotalCapacityM3: t.TotalCapacityM3, ColdCapacityM3: t.ColdCapacityM3,
		WeightLimitKg: t.WeightLimitKg, FixedCost: t.FixedCost,
		MinUtilization: t.MinUtilization, ReserveFraction: t.ReserveFraction,
		CoolerCapacityM3: t.CoolerCapacityM3,
	}
}

// OpenTruck registers a truck as opened, capturing its static specs on
// first use and charging fixed_cost exactly once. Idempotent per id;
// raises (returns an error) if reopened with differing specs.
func (dt *DayTracker) OpenTruck(t *domain.Truck) error {
	spec := staticSpecs(t)
	if dt.openedSet[t.TruckID] {
		if dt.specSnapshot[t.TruckID] != spec {
			return fmt.Errorf("tracker: truck %s reopened with differing specs", t.TruckID)
		}
		return nil
	}
	dt.openedSet[t.TruckID] = true
	dt.specSnapshot[t.TruckID] = spec
	dt.openedIDs = append(dt.openedIDs, t.TruckID)
	t.State = domain.TruckOpened
	return nil
}

// OnAssign registers a successful placement in the order ledger and
// day-level sums. Monotone: totals only grow here (spec §4.9).
func (dt *DayTracker) OnAssign(orderID string, q, qCold, w, vEff float64, vip bool, truckID string, coldOnDry bool) {
	rec, ok := dt.orders[orderID]
	if !ok {
		rec = &OrderRecord{OrderID: orderID}
		dt.orders[orderID] = rec
	}
	rec.Placed = true
	rec.AssignedTruckCount++
	rec.IsVIP = rec.IsVIP || vip
	rec.DueMet = true

	dt.sumQ += q
	dt.sumVEff += vEff
	dt.sumW += w
	_ = qCold

	if coldOnDry {
		dt.coldOnDryPairs[[2]string{orderID, truckID}] = true
	}
}

// OnFailure registers a failed placement, preserving (OR-ing) the VIP
// flag if the order was seen before (spec §4.9, §7).
func (dt *DayTracker) OnFailure(orderID string, vip bool, reason string) {
	rec, ok := dt.orders[orderID]
	if !ok {
		rec = &OrderRecord{OrderID: orderID}
		dt.orders[orderID] = rec
	}
	rec.Placed = false
	rec.Reason = reason
	rec.IsVIP = rec.IsVIP || vip
	rec.DueMet = false
}

// OnDeparture marks a truck departed; idempotent, only freezes the
// utilization snapshot implicitly by disallowing future assignments
// (enforced by the placer orchestrator's state view).
func (dt *DayTracker) OnDeparture(truckID string) {
	dt.departedSet[truckID] = true
}

// IsDeparted reports whether a truck has departed.
func (dt *DayTracker) IsDeparted(truckID string) bool { return dt.departedSet[truckID] }

// RecordPlacement appends the flat placement rows for one decision.
func (dt *DayTracker) RecordPlacement(rows []AssignmentRow) {
	dt.assignmentRows = append(dt.assignmentRows, rows...)
}

// RecordOrderQueue logs the Phase 1 order ranking. reset clears any
// prior log first (spec §4.7 idempotence under reset_logs=true).
func (dt *DayTracker) RecordOrderQueue(rows []OrderQueueRow, runID string, reset bool) {
	if reset {
		dt.orderQueueLog = nil
	}
	dt.orderQueueLog = append(dt.orderQueueLog, rows...)
	dt.orderQueueMeta["run_id"] = runID
}

// RecordItemQueue logs the Phase 1 item rankings (the rows of every
// ranked order in one call). reset clears any prior log first.
func (dt *DayTracker) RecordItemQueue(rows []ItemQueueRow, runID string, reset bool) {
	if reset {
		dt.itemQueueLog = nil
	}
	dt.itemQueueLog = append(dt.itemQueueLog, rows...)
	dt.itemQueueMeta["run_id"] = runID
}

// OrderQueueLog, ItemQueueLog, AssignmentRows and Orders expose the
// tracker's logs/ledger for report export.
func (dt *DayTracker) OrderQueueLog() []OrderQueueRow  { return dt.orderQueueLog }
func (dt *DayTracker) ItemQueueLog() []ItemQueueRow    { return dt.itemQueueLog }
func (dt *DayTracker) AssignmentRows() []AssignmentRow { return dt.assignmentRows }
func (dt *DayTracker) OrderQueueMeta() map[string]string { return dt.orderQueueMeta }
func (dt *DayTracker) ItemQueueMeta() map[string]string  { return dt.itemQueueMeta }

// Orders returns every order record, sorted by order id for deterministic export.
func (dt *DayTracker) Orders() []*OrderRecord {
	out := make([]*OrderRecord, 0, len(dt.orders))
	for _, r := range dt.orders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// OpenedTrucks returns every opened truck's live domain.Truck, in the
// order they were first opened.
func (dt *DayTracker) OpenedTrucks() []*domain.Truck {
	out := make([]*domain.Truck, 0, len(dt.openedIDs))
	for _, id := range dt.openedIDs {
		out = append(out, dt.Depot.AvailableTrucks[id])
	}
	return out
}

// PerTruckRow is one row of per_truck.csv (spec §6).
type PerTruckRow struct {
	TruckID       string
	Type          domain.TruckType
	UVol          float64
	UW            float64
	UCold         float64
	UBn           float64
	UnderMin      int
	CapViolation  int
	FixedCost     float64
	AssignedCount int
}

// FleetRow is the single day-level KPI row for fleet.csv (spec §6, §4.9).
type FleetRow struct {
	EPack       float64
	NTrucks     int
	CTotal      float64
	CPerVol     float64
	CPerW       float64
	CVUVol      float64
	MissVIP     int
	MissDue     int
	AvgDelay    float64
	VipOnTime   float64
	ColdOnDry   int
	UnderMin    int
	CapViols    int
	Splits      int
	SumQ        float64
	SumVEff     float64
	SumW        float64
}

// SummarizeDay computes the per-truck and fleet KPI snapshot (C12) from
// the tracker's current ledger.
func (dt *DayTracker) SummarizeDay() ([]PerTruckRow, FleetRow) {
	opened := dt.OpenedTrucks()
	perTruck := make([]PerTruckRow, 0, len(opened))
	for _, t := range opened {
		perTruck = append(perTruck, PerTruckRow{
			TruckID:       t.TruckID,
			Type:          t.Type,
			UVol:          UVol(t),
			UW:            UW(t),
			UCold:         UCold(t),
			UBn:           UBn(t),
			UnderMin:      UnderMin(t),
			CapViolation:  CapViolation(t),
			FixedCost:     t.FixedCost,
			AssignedCount: len(t.AssignedOrderIDs),
		})
	}

	orders := dt.Orders()
	cTotal := CTotal(opened)
	fleet := FleetRow{
		EPack:     EPack(dt.sumQ, dt.sumVEff),
		NTrucks:   NTrucks(opened),
		CTotal:    cTotal,
		CPerVol:   CPerVol(cTotal, dt.sumQ),
		CPerW:     CPerW(cTotal, dt.sumW),
		CVUVol:    CVUVol(opened),
		MissVIP:   MissVIP(orders),
		MissDue:   MissDue(orders),
		AvgDelay:  AvgDelay(orders),
		VipOnTime: VipOnTime(orders),
		ColdOnDry: ColdOnDry(dt.coldOnDryPairs),
		UnderMin:  UnderMinCount(opened),
		CapViols:  CapViolsCount(opened),
		Splits:    Splits(orders),
		SumQ:      dt.sumQ,
		SumVEff:   dt.sumVEff,
		SumW:      dt.sumW,
	}
	return perTruck, fleet
}

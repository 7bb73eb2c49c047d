package planner

import (
	"testing"

	"github.com/coldchain/loadplan/internal/domain"
	"github.com/coldchain/loadplan/internal/tracker"
)

func milkCatalogue() domain.Catalogue {
	return domain.Catalogue{
		"MILK": {
			ItemID: "MILK", CategoryCold: true,
			UnitWeightKg: 1.05, UnitVolumeM3: 0.0021, PaddingFactor: 0.05,
			Fragility: domain.FragilityRegular, SeparationTag: domain.SeparationFood,
		},
		"WATER": {
			ItemID: "WATER", CategoryCold: false,
			UnitWeightKg: 1.0, UnitVolumeM3: 0.002, PaddingFactor: 0.0,
			Fragility: domain.FragilityRegular, SeparationTag: domain.SeparationFood,
		},
	}
}

func newHarness(t *testing.T, depot *domain.Depot, orders map[string]*domain.CustomerOrder, pol Policy) (*PlacerOrchestrator, *tracker.DayTracker) {
	return newHarnessWithCatalogue(t, depot, orders, pol, milkCatalogue())
}

func newHarnessWithCatalogue(t *testing.T, depot *domain.Depot, orders map[string]*domain.CustomerOrder, pol Policy, cat domain.Catalogue) (*PlacerOrchestrator, *tracker.DayTracker) {
	t.Helper()
	for _, o := range orders {
		if err := o.ComputeAggregates(cat, 0); err != nil {
			t.Fatalf("ComputeAggregates: %v", err)
		}
	}
	tr := tracker.NewDayTracker(depot)
	state := NewDepotState(depot, orders, cat, pol.ItemScheme)
	po := NewPlacerOrchestrator(depot, state, SimpleFeasibility{}, SimplePackingPolicy{}, pol, tr, BuildIsHazardous(cat))
	return po, tr
}

// Scenario S1: best-fit among open reefers (default scheme): order goes
// to R1 (tighter cold leftover) over R2.
func TestScenarioS1_BestFitAmongOpenReefers(t *testing.T) {
	r1 := &domain.Truck{TruckID: "R1", Type: domain.Reefer, TotalCapacityM3: 24, ColdCapacityM3: 12, WeightLimitKg: 9500, ReserveFraction: 0.06, State: domain.TruckOpened, UsedEffectiveVol: 2, UsedColdVolume: 11.7, UsedWeight: 1000}
	r2 := &domain.Truck{TruckID: "R2", Type: domain.Reefer, TotalCapacityM3: 28, ColdCapacityM3: 14, WeightLimitKg: 10500, ReserveFraction: 0.06, State: domain.TruckOpened, UsedEffectiveVol: 23.9, UsedColdVolume: 11.5, UsedWeight: 1000}
	depot := &domain.Depot{DepotID: "D", AvailableTrucks: map[string]*domain.Truck{"R1": r1, "R2": r2}}

	order := &domain.CustomerOrder{OrderID: "O_COLD", ItemList: []domain.OrderLine{{ItemID: "MILK", Qty: 100}}}
	orders := map[string]*domain.CustomerOrder{"O_COLD": order}

	pol := DefaultPolicy()
	po, _ := newHarness(t, depot, orders, pol)

	dec, err := po.RunOne("O_COLD", false)
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if !dec.Ok() {
		t.Fatalf("expected success, got failure reason %q", dec.Reason)
	}
	if dec.Assign.TruckID != "R1" {
		t.Errorf("expected R1 (tighter cold leftover), got %s", dec.Assign.TruckID)
	}
}

// Scenario S2: scheme override [volume, cold, weight] still picks R1.
func TestScenarioS2_SchemeOverride(t *testing.T) {
	r1 := &domain.Truck{TruckID: "R1", Type: domain.Reefer, TotalCapacityM3: 24, ColdCapacityM3: 12, WeightLimitKg: 9500, ReserveFraction: 0.06, State: domain.TruckOpened, UsedEffectiveVol: 2, UsedColdVolume: 11.7, UsedWeight: 1000}
	r2 := &domain.Truck{TruckID: "R2", Type: domain.Reefer, TotalCapacityM3: 28, ColdCapacityM3: 14, WeightLimitKg: 10500, ReserveFraction: 0.06, State: domain.TruckOpened, UsedEffectiveVol: 23.9, UsedColdVolume: 11.5, UsedWeight: 1000}
	depot := &domain.Depot{DepotID: "D", AvailableTrucks: map[string]*domain.Truck{"R1": r1, "R2": r2}}

	order := &domain.CustomerOrder{OrderID: "O_COLD", ItemList: []domain.OrderLine{{ItemID: "MILK", Qty: 100}}}
	orders := map[string]*domain.CustomerOrder{"O_COLD": order}

	pol := DefaultPolicy()
	pol.ReeferSchemeA = []LeftoverDim{LeftoverVolume, LeftoverCold, LeftoverWeight}
	po, _ := newHarness(t, depot, orders, pol)

	dec, err := po.RunOne("O_COLD", false)
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if !dec.Ok() || dec.Assign.TruckID != "R1" {
		t.Errorf("expected R1 under scheme override, got ok=%v truck=%v reason=%v", dec.Ok(), dec.Assign, dec.Reason)
	}
}

// Scenario S3: open a new reefer when needed, gated by the policy flag.
func TestScenarioS3_OpenNewReefer(t *testing.T) {
	run := func(allow bool) Decision {
		r1 := &domain.Truck{TruckID: "R1", Type: domain.Reefer, TotalCapacityM3: 24, ColdCapacityM3: 12, WeightLimitKg: 9500, State: domain.TruckOpened, UsedColdVolume: 12}
		r2 := &domain.Truck{TruckID: "R2", Type: domain.Reefer, TotalCapacityM3: 24, ColdCapacityM3: 12, WeightLimitKg: 9500, State: domain.TruckAvailable}
		depot := &domain.Depot{DepotID: "D", AvailableTrucks: map[string]*domain.Truck{"R1": r1, "R2": r2}}

		order := &domain.CustomerOrder{OrderID: "O_MIX", ItemList: []domain.OrderLine{{ItemID: "MILK", Qty: 50}, {ItemID: "WATER", Qty: 5}}}
		orders := map[string]*domain.CustomerOrder{"O_MIX": order}

		pol := DefaultPolicy()
		pol.AllowOpenNewReeferA = allow
		po, _ := newHarness(t, depot, orders, pol)
		dec, err := po.RunOne("O_MIX", false)
		if err != nil {
			t.Fatalf("RunOne: %v", err)
		}
		return dec
	}

	decAllowed := run(true)
	if !decAllowed.Ok() || decAllowed.Assign.TruckID != "R2" || !decAllowed.Assign.OpenedNewTruck {
		t.Errorf("expected R2 opened_new_truck=true, got ok=%v assign=%+v reason=%v", decAllowed.Ok(), decAllowed.Assign, decAllowed.Reason)
	}

	decDisallowed := run(false)
	if decDisallowed.Ok() || decDisallowed.Reason != "infeasible_in_bucket_A" {
		t.Errorf("expected infeasible_in_bucket_A, got ok=%v reason=%v", decDisallowed.Ok(), decDisallowed.Reason)
	}
}

// Scenario S4: bucket B cold-in-dry assigns to D1 and increments used_cooler_m3.
func TestScenarioS4_BucketBColdInDry(t *testing.T) {
	r1 := &domain.Truck{TruckID: "R1", Type: domain.Reefer, TotalCapacityM3: 24, ColdCapacityM3: 12, WeightLimitKg: 9500, State: domain.TruckOpened, UsedColdVolume: 12}
	d1 := &domain.Truck{TruckID: "D1", Type: domain.Dry, TotalCapacityM3: 30, WeightLimitKg: 9500, CoolerCapacityM3: 0.40, State: domain.TruckOpened}
	depot := &domain.Depot{DepotID: "D", AvailableTrucks: map[string]*domain.Truck{"R1": r1, "D1": d1}}

	// A small cold portion (COLDBIT) against a dominant dry portion
	// (DRYBULK) so alpha_i lands below the 0.1 threshold -> bucket B,
	// matching spec S4's "Milk's cold portion yields alpha_i < 0.1".
	cat := domain.Catalogue{
		"COLDBIT": {ItemID: "COLDBIT", CategoryCold: true, UnitVolumeM3: 0.001, UnitWeightKg: 0.1, Fragility: domain.FragilityRegular, SeparationTag: domain.SeparationFood},
		"DRYBULK": {ItemID: "DRYBULK", CategoryCold: false, UnitVolumeM3: 1.0, UnitWeightKg: 5, Fragility: domain.FragilityRegular, SeparationTag: domain.SeparationFood},
	}
	order := &domain.CustomerOrder{OrderID: "O_B", ItemList: []domain.OrderLine{{ItemID: "COLDBIT", Qty: 1}, {ItemID: "DRYBULK", Qty: 1}}}
	orders := map[string]*domain.CustomerOrder{"O_B": order}

	pol := DefaultPolicy()
	pol.AlphaThreshold = 0.1
	po, _ := newHarnessWithCatalogue(t, depot, orders, pol, cat)

	if order.AlphaCold >= pol.AlphaThreshold {
		t.Fatalf("test fixture invalid: alpha_i=%v should be < alpha_threshold for bucket B", order.AlphaCold)
	}

	dec, err := po.RunOne("O_B", false)
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if !dec.Ok() || dec.Assign.TruckID != "D1" {
		t.Fatalf("expected D1, got ok=%v assign=%+v reason=%v", dec.Ok(), dec.Assign, dec.Reason)
	}
	if d1.UsedCoolerM3 != order.QColdVolume {
		t.Errorf("used_cooler_m3 = %v, want %v", d1.UsedCoolerM3, order.QColdVolume)
	}
}

// Scenario S5: open new dry when allowed, fail otherwise.
func TestScenarioS5_OpenNewDry(t *testing.T) {
	run := func(allow bool) Decision {
		d1 := &domain.Truck{TruckID: "D1", Type: domain.Dry, TotalCapacityM3: 1, WeightLimitKg: 9500, State: domain.TruckOpened, UsedEffectiveVol: 1}
		d2 := &domain.Truck{TruckID: "D2", Type: domain.Dry, TotalCapacityM3: 30, WeightLimitKg: 9500, State: domain.TruckAvailable}
		depot := &domain.Depot{DepotID: "D", AvailableTrucks: map[string]*domain.Truck{"D1": d1, "D2": d2}}

		order := &domain.CustomerOrder{OrderID: "O_C", ItemList: []domain.OrderLine{{ItemID: "WATER", Qty: 5}}}
		orders := map[string]*domain.CustomerOrder{"O_C": order}

		pol := DefaultPolicy()
		pol.AllowOpenNewDryC = allow
		po, _ := newHarness(t, depot, orders, pol)
		dec, err := po.RunOne("O_C", false)
		if err != nil {
			t.Fatalf("RunOne: %v", err)
		}
		return dec
	}

	decAllowed := run(true)
	if !decAllowed.Ok() || decAllowed.Assign.TruckID != "D2" {
		t.Errorf("expected D2, got ok=%v assign=%+v reason=%v", decAllowed.Ok(), decAllowed.Assign, decAllowed.Reason)
	}

	decDisallowed := run(false)
	if decDisallowed.Ok() {
		t.Errorf("expected failure when allow_open_new_dry_C=false, got assign=%+v", decDisallowed.Assign)
	}
}

// Scenario S6: KPI roundtrip for a single reefer, single order.
func TestScenarioS6_KPIRoundtrip(t *testing.T) {
	r1 := &domain.Truck{
		TruckID: "R1", Type: domain.Reefer, TotalCapacityM3: 10, ColdCapacityM3: 5,
		WeightLimitKg: 1000, FixedCost: 500, MinUtilization: 0.6, ReserveFraction: 0,
		State: domain.TruckAvailable,
	}
	depot := &domain.Depot{DepotID: "D", AvailableTrucks: map[string]*domain.Truck{"R1": r1}}

	order := &domain.CustomerOrder{OrderID: "O1", ItemList: []domain.OrderLine{{ItemID: "MILK", Qty: 1}}}
	orders := map[string]*domain.CustomerOrder{"O1": order}
	// Override computed aggregates directly to match the scenario's exact figures.
	order.EffectiveVol, order.QTotalVolume, order.QColdVolume, order.WeightKg = 6.0, 5.5, 3.0, 400

	pol := DefaultPolicy()
	tr := tracker.NewDayTracker(depot)
	state := NewDepotState(depot, orders, milkCatalogue(), pol.ItemScheme)
	po := NewPlacerOrchestrator(depot, state, SimpleFeasibility{}, SimplePackingPolicy{}, pol, tr, BuildIsHazardous(milkCatalogue()))

	dec, err := po.RunOne("O1", false)
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if !dec.Ok() {
		t.Fatalf("expected success, got reason %q", dec.Reason)
	}

	perTruck, fleet := po.FinalizeDay()
	if len(perTruck) != 1 {
		t.Fatalf("expected 1 per-truck row, got %d", len(perTruck))
	}
	row := perTruck[0]
	checkApprox(t, "U_vol", row.UVol, 0.6)
	checkApprox(t, "U_w", row.UW, 0.4)
	checkApprox(t, "U_cold", row.UCold, 0.6)
	checkApprox(t, "U_bn", row.UBn, 0.4)
	if row.UnderMin != 0 {
		t.Errorf("under_min = %d, want 0", row.UnderMin)
	}
	if row.CapViolation != 0 {
		t.Errorf("cap_violation = %d, want 0", row.CapViolation)
	}
	checkApprox(t, "E_pack", fleet.EPack, 5.5/6.0)
	if fleet.CTotal != 500 {
		t.Errorf("C_total = %v, want 500", fleet.CTotal)
	}
	checkApprox(t, "C_per_vol", fleet.CPerVol, 500.0/5.5)
	if fleet.NTrucks != 1 {
		t.Errorf("N_trucks = %d, want 1", fleet.NTrucks)
	}
	if fleet.Splits != 0 {
		t.Errorf("SPLITS = %d, want 0", fleet.Splits)
	}
}

func checkApprox(t *testing.T, name string, got, want float64) {
	t.Helper()
	const tol = 1e-6
	if got-want > tol || want-got > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

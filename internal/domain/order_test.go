package domain

import "testing"

func milkCatalogue() Catalogue {
	return Catalogue{
		"MILK": {
			ItemID: "MILK", CategoryCold: true,
			UnitWeightKg: 1.05, UnitVolumeM3: 0.0021, PaddingFactor: 0.05,
			Fragility: FragilityRegular, SeparationTag: SeparationFood,
		},
		"WATER": {
			ItemID: "WATER", CategoryCold: false,
			UnitWeightKg: 1.0, UnitVolumeM3: 0.002, PaddingFactor: 0.0,
			Fragility: FragilityRegular, SeparationTag: SeparationFood,
		},
	}
}

func TestComputeAggregates_NoClamp(t *testing.T) {
	o := &CustomerOrder{
		OrderID: "O1",
		ItemList: []OrderLine{
			{ItemID: "MILK", Qty: 100},
		},
	}
	if err := o.ComputeAggregates(milkCatalogue(), 0); err != nil {
		t.Fatalf("ComputeAggregates: %v", err)
	}
	if o.AlphaCold != 1.0 {
		t.Errorf("all-cold order should have alpha_i=1, got %v", o.AlphaCold)
	}
	wantQCold := 100 * 0.0021
	if diff := o.QColdVolume - wantQCold; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("q_i_cold = %v, want %v", o.QColdVolume, wantQCold)
	}
}

func TestComputeAggregates_AlphaMaxClamp(t *testing.T) {
	o := &CustomerOrder{
		OrderID: "O2",
		ItemList: []OrderLine{
			{ItemID: "MILK", Qty: 40},
			{ItemID: "WATER", Qty: 3},
		},
	}
	const alphaMax = 0.1
	if err := o.ComputeAggregates(milkCatalogue(), alphaMax); err != nil {
		t.Fatalf("ComputeAggregates: %v", err)
	}
	if o.AlphaCold != alphaMax {
		t.Errorf("clamped alpha_i = %v, want %v", o.AlphaCold, alphaMax)
	}
	wantQCold := alphaMax * o.QTotalVolume
	if diff := o.QColdVolume - wantQCold; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("clamped q_i_cold = %v, want %v (alpha_i*q_i, recomputed per Open Question 2)", o.QColdVolume, wantQCold)
	}
}

func TestComputeAggregates_UnknownItem(t *testing.T) {
	o := &CustomerOrder{OrderID: "O3", ItemList: []OrderLine{{ItemID: "NOPE", Qty: 1}}}
	if err := o.ComputeAggregates(milkCatalogue(), 0); err == nil {
		t.Fatal("expected error for unknown item id")
	}
}

func TestComputeAggregates_NonPositiveQty(t *testing.T) {
	o := &CustomerOrder{OrderID: "O4", ItemList: []OrderLine{{ItemID: "MILK", Qty: 0}}}
	if err := o.ComputeAggregates(milkCatalogue(), 0); err == nil {
		t.Fatal("expected error for non-positive quantity")
	}
}

func TestTruck_Residuals(t *testing.T) {
	tr := &Truck{
		TruckID: "R1", Type: Reefer,
		TotalCapacityM3: 24, ColdCapacityM3: 12, WeightLimitKg: 9500,
		ReserveFraction: 0.06,
		UsedEffectiveVol: 2, UsedColdVolume: 11.7, UsedWeight: 1000,
	}
	wantUsable := 24 * 0.94
	if diff := tr.UsableVolume() - wantUsable; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("UsableVolume = %v, want %v", tr.UsableVolume(), wantUsable)
	}
	if diff := tr.ResidualCold() - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ResidualCold = %v, want 0.3", tr.ResidualCold())
	}
}

package instance

import (
	"testing"
	"time"
)

const itemsJSON = `[
  {"item_id":"MILK","name":"Milk","category_cold":true,"unit_weight_kg":1.05,"unit_volume_m3":0.0021,"padding_factor":0.05,"fragility":"Regular","separation_tag":"Food","max_stack_load_kg":10,"is_liquid":true,"upright_only":false}
]`

const customersJSON = `[{"customer_id":"C1","name":"Alice","email":"a@example.com","vip":true,"address":"1 Main St"}]`

func TestLoadOrders_ItemListWinsOverItems(t *testing.T) {
	cat, err := LoadItems([]byte(itemsJSON))
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	raw := []byte(`[{"order_id":"O1","customer_id":"C1","item_list":{"MILK":5},"items":{"MILK":999},"due_time_str":"10:00"}]`)
	orders, err := LoadOrders(raw, cat, LoadOptions{PlanningDay: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("LoadOrders: %v", err)
	}
	o := orders["O1"]
	if len(o.ItemList) != 1 || o.ItemList[0].Qty != 5 {
		t.Errorf("item_list should win over items, got %+v", o.ItemList)
	}
}

func TestLoadOrders_ItemsAliasFallback(t *testing.T) {
	cat, err := LoadItems([]byte(itemsJSON))
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	raw := []byte(`[{"order_id":"O1","customer_id":"C1","items":{"MILK":3},"due":"11:30"}]`)
	orders, err := LoadOrders(raw, cat, LoadOptions{PlanningDay: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("LoadOrders: %v", err)
	}
	o := orders["O1"]
	if len(o.ItemList) != 1 || o.ItemList[0].Qty != 3 {
		t.Errorf("items alias should be used when item_list is absent, got %+v", o.ItemList)
	}
	if o.DueDt.Hour() != 11 || o.DueDt.Minute() != 30 {
		t.Errorf("due alias should bind due_dt, got %v", o.DueDt)
	}
}

func TestLoadOrders_UnknownItemFails(t *testing.T) {
	cat, _ := LoadItems([]byte(itemsJSON))
	raw := []byte(`[{"order_id":"O1","customer_id":"C1","item_list":{"NOPE":1},"due_time_str":"10:00"}]`)
	if _, err := LoadOrders(raw, cat, LoadOptions{}); err == nil {
		t.Fatal("expected error for unknown item id")
	}
}

func TestLoadTrucks_DryWithColdCapacityFails(t *testing.T) {
	raw := []byte(`[{"truck_id":"D1","type":"Dry","total_capacity_m3":10,"cold_capacity_m3":5,"weight_limit_kg":100,"reserve_fraction":0}]`)
	if _, err := LoadTrucks(raw, LoadOptions{}); err == nil {
		t.Fatal("expected error for DRY truck with non-zero cold_capacity")
	}
}

func TestLoadTrucks_DefaultCoolerCapacity(t *testing.T) {
	raw := []byte(`[{"truck_id":"D1","type":"Dry","total_capacity_m3":10,"weight_limit_kg":100,"reserve_fraction":0}]`)
	trucks, err := LoadTrucks(raw, LoadOptions{DefaultCoolerM3: 0.5})
	if err != nil {
		t.Fatalf("LoadTrucks: %v", err)
	}
	if trucks["D1"].CoolerCapacityM3 != 0.5 {
		t.Errorf("expected default cooler capacity 0.5, got %v", trucks["D1"].CoolerCapacityM3)
	}
}

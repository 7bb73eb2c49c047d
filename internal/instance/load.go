// Package instance loads the five JSON artefacts spec.md §6 names
// (items, customers, orders, trucks, depots) into the domain model,
// enforcing the input/config and catalogue/order error taxonomy (§7).
package instance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coldchain/loadplan/internal/domain"
)

type itemJSON struct {
	ItemID         string  `json:"item_id"`
	Name           string  `json:"name"`
	CategoryCold   bool    `json:"category_cold"`
	UnitWeightKg   float64 `json:"unit_weight_kg"`
	UnitVolumeM3   float64 `json:"unit_volume_m3"`
	Dims           struct {
		L float64 `json:"L"`
		W float64 `json:"W"`
		H float64 `json:"H"`
	} `json:"dims_m"`
	Fragility      string  `json:"fragility"`
	MaxStackLoadKg float64 `json:"max_stack_load_kg"`
	IsLiquid       bool    `json:"is_liquid"`
	UprightOnly    bool    `json:"upright_only"`
	SeparationTag  string  `json:"separation_tag"`
	PaddingFactor  float64 `json:"padding_factor"`
}

type customerJSON struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	VIP        bool   `json:"vip"`
	Address    string `json:"address"`
}

type orderJSON struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	ItemList   map[string]int  `json:"item_list"`
	Items      map[string]int  `json:"items"`
	DueTimeStr string          `json:"due_time_str"`
	Due        string          `json:"due"`
}

type truckJSON struct {
	TruckID          string  `json:"truck_id"`
	Type             string  `json:"type"`
	TotalCapacityM3  float64 `json:"total_capacity_m3"`
	ColdCapacityM3   float64 `json:"cold_capacity_m3"`
	WeightLimitKg    float64 `json:"weight_limit_kg"`
	FixedCost        float64 `json:"fixed_cost"`
	MinUtilization   float64 `json:"min_utilization"`
	ReserveFraction  float64 `json:"reserve_fraction"`
	CoolerCapacityM3 *float64 `json:"cooler_capacity_m3"`
}

type depotJSON struct {
	DepotID         string   `json:"depot_id"`
	Location        string   `json:"location"`
	AvailableTrucks []string `json:"available_trucks"`
}

// Instance is the fully-loaded, validated input for one planning day.
type Instance struct {
	Catalogue domain.Catalogue
	Customers map[string]domain.Customer
	Orders    map[string]*domain.CustomerOrder
	Depot     *domain.Depot
}

// LoadOptions carries the knobs instance loading needs but that are not
// part of the on-disk records: the clamp on alpha_i (Open Question 2)
// and the default cooler capacity applied when a truck record omits it
// (spec §6 "per_truck_cooler_m3").
type LoadOptions struct {
	AlphaMax           float64
	DefaultCoolerM3    float64
	PlanningDay        time.Time
}

// LoadItems decodes the items artefact into a Catalogue.
func LoadItems(raw []byte) (domain.Catalogue, error) {
	var rows []itemJSON
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("items: invalid JSON: %w", err)
	}
	cat := make(domain.Catalogue, len(rows))
	for _, r := range rows {
		item := domain.Item{
			ItemID: r.ItemID, Name: r.Name, CategoryCold: r.CategoryCold,
			UnitWeightKg: r.UnitWeightKg, UnitVolumeM3: r.UnitVolumeM3,
			Dims:           domain.Dimensions{L: r.Dims.L, W: r.Dims.W, H: r.Dims.H},
			Fragility:      domain.Fragility(r.Fragility),
			MaxStackLoadKg: r.MaxStackLoadKg, IsLiquid: r.IsLiquid,
			UprightOnly: r.UprightOnly, SeparationTag: domain.SeparationTag(r.SeparationTag),
			PaddingFactor: r.PaddingFactor,
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		if _, dup := cat[item.ItemID]; dup {
			return nil, fmt.Errorf("items: duplicate item_id %s", item.ItemID)
		}
		cat[item.ItemID] = item
	}
	return cat, nil
}

// LoadCustomers decodes the customers artefact.
func LoadCustomers(raw []byte) (map[string]domain.Customer, error) {
	var rows []customerJSON
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("customers: invalid JSON: %w", err)
	}
	out := make(map[string]domain.Customer, len(rows))
	for _, r := range rows {
		if r.CustomerID == "" {
			return nil, fmt.Errorf("customers: customer_id must not be empty")
		}
		out[r.CustomerID] = domain.Customer{CustomerID: r.CustomerID, Name: r.Name, Email: r.Email, VIP: r.VIP, Address: r.Address}
	}
	return out, nil
}

// LoadOrders decodes the orders artefact, computes aggregates against
// the catalogue, and binds due_dt. Open Question 1 (spec §9): item_list
// wins over items when both are present.
func LoadOrders(raw []byte, cat domain.Catalogue, opt LoadOptions) (map[string]*domain.CustomerOrder, error) {
	var rows []orderJSON
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("orders: invalid JSON: %w", err)
	}
	out := make(map[string]*domain.CustomerOrder, len(rows))
	for _, r := range rows {
		items := r.ItemList
		if items == nil {
			items = r.Items
		}
		if items == nil {
			return nil, fmt.Errorf("order %s: missing item_list/items", r.OrderID)
		}
		due := r.DueTimeStr
		if due == "" {
			due = r.Due
		}
		if due == "" {
			due = "23:59"
		}

		lines := make([]domain.OrderLine, 0, len(items))
		for itemID, qty := range items {
			lines = append(lines, domain.OrderLine{ItemID: itemID, Qty: qty})
		}
		sortOrderLines(lines)

		o := &domain.CustomerOrder{
			OrderID: r.OrderID, CustomerID: r.CustomerID,
			ItemList: lines, DueTimeStr: due, Status: domain.StatusPending,
		}
		if err := o.ComputeAggregates(cat, opt.AlphaMax); err != nil {
			return nil, fmt.Errorf("order %s: %w", r.OrderID, err)
		}
		day := opt.PlanningDay
		if day.IsZero() {
			day = time.Now()
		}
		if err := o.BindDueTime(day); err != nil {
			return nil, err
		}
		if _, dup := out[o.OrderID]; dup {
			return nil, fmt.Errorf("orders: duplicate order_id %s", o.OrderID)
		}
		out[o.OrderID] = o
	}
	return out, nil
}

func sortOrderLines(lines []domain.OrderLine) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j].ItemID < lines[j-1].ItemID; j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}

// LoadTrucks decodes the trucks artefact, applying per_truck_cooler_m3
// as the default when a truck record omits cooler_capacity_m3.
func LoadTrucks(raw []byte, opt LoadOptions) (map[string]*domain.Truck, error) {
	var rows []truckJSON
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("trucks: invalid JSON: %w", err)
	}
	out := make(map[string]*domain.Truck, len(rows))
	for _, r := range rows {
		cooler := opt.DefaultCoolerM3
		if r.CoolerCapacityM3 != nil {
			cooler = *r.CoolerCapacityM3
		}
		t := &domain.Truck{
			TruckID: r.TruckID, Type: domain.TruckType(r.Type),
			TotalCapacityM3: r.TotalCapacityM3, ColdCapacityM3: r.ColdCapacityM3,
			WeightLimitKg: r.WeightLimitKg, FixedCost: r.FixedCost,
			MinUtilization: r.MinUtilization, ReserveFraction: r.ReserveFraction,
			CoolerCapacityM3: cooler, State: domain.TruckAvailable,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("trucks: %w", err)
		}
		if _, dup := out[t.TruckID]; dup {
			return nil, fmt.Errorf("trucks: duplicate truck_id %s", t.TruckID)
		}
		out[t.TruckID] = t
	}
	return out, nil
}

// LoadDepot decodes the depots artefact and builds the depot from its
// first record (spec §3 "Depot... Exclusively owns its trucks for the day").
// An empty list is an error; records after the first are ignored.
func LoadDepot(raw []byte, trucks map[string]*domain.Truck) (*domain.Depot, error) {
	var rows []depotJSON
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("depots: invalid JSON: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("depots: at least one depot is required")
	}
	r := rows[0]
	avail := make(map[string]*domain.Truck, len(r.AvailableTrucks))
	for _, id := range r.AvailableTrucks {
		t, ok := trucks[id]
		if !ok {
			return nil, fmt.Errorf("depot %s: unknown truck id %s in available_trucks", r.DepotID, id)
		}
		avail[id] = t
	}
	return &domain.Depot{DepotID: r.DepotID, Location: r.Location, AvailableTrucks: avail}, nil
}

// Load decodes all five artefacts into a validated Instance.
func Load(itemsRaw, customersRaw, ordersRaw, trucksRaw, depotsRaw []byte, opt LoadOptions) (*Instance, error) {
	cat, err := LoadItems(itemsRaw)
	if err != nil {
		return nil, err
	}
	customers, err := LoadCustomers(customersRaw)
	if err != nil {
		return nil, err
	}
	orders, err := LoadOrders(ordersRaw, cat, opt)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if _, ok := customers[o.CustomerID]; !ok {
			return nil, fmt.Errorf("order %s: unknown customer_id %s", o.OrderID, o.CustomerID)
		}
	}
	trucks, err := LoadTrucks(trucksRaw, opt)
	if err != nil {
		return nil, err
	}
	depot, err := LoadDepot(depotsRaw, trucks)
	if err != nil {
		return nil, err
	}
	return &Instance{Catalogue: cat, Customers: customers, Orders: orders, Depot: depot}, nil
}

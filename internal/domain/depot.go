package domain

import (
	"fmt"
	"sort"
)

// Depot exclusively owns its trucks for the planning day.
type Depot struct {
	DepotID         string
	Location        string
	AvailableTrucks map[string]*Truck
}

// TruckIDs returns the depot's truck ids in ascending order. Spec §9
// requires deterministic traversal of available/open truck sets since
// open-new-truck tie-breaks depend on it.
func (d *Depot) TruckIDs() []string {
	ids := make([]string, 0, len(d.AvailableTrucks))
	for id := range d.AvailableTrucks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetTruck returns the truck with the given id, or an error if absent.
func (d *Depot) GetTruck(id string) (*Truck, error) {
	t, ok := d.AvailableTrucks[id]
	if !ok {
		return nil, fmt.Errorf("depot %s: unknown truck id %s", d.DepotID, id)
	}
	return t, nil
}

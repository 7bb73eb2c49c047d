package planner

import "github.com/coldchain/loadplan/internal/domain"

// BuildIsHazardous derives the item-id -> hazardous map the packing
// policy needs from the catalogue's separation_tag field.
func BuildIsHazardous(cat domain.Catalogue) map[string]bool {
	out := make(map[string]bool, len(cat))
	for id, item := range cat {
		out[id] = item.SeparationTag == domain.SeparationHazardous
	}
	return out
}

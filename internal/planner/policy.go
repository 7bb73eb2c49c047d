// Package planner drives Phase 1 (selection) and Phase 2 (bucket
// routing, best-fit placement, packing, commit) of the daily load plan.
package planner

import "github.com/coldchain/loadplan/internal/ranking"

// Bucket classifies an order by its cold fraction against alpha_threshold
// (spec §4.8): A cold-mandatory, B mixed-flexible, C dry-only.
type Bucket string

const (
	BucketA Bucket = "A"
	BucketB Bucket = "B"
	BucketC Bucket = "C"
)

// DetermineBucket classifies alpha_i against alpha_threshold using the
// fixed epsilon from spec §4.8 (1e-12).
func DetermineBucket(alpha, alphaThreshold float64) Bucket {
	const eps = 1e-12
	switch {
	case alpha <= eps:
		return BucketC
	case alpha >= alphaThreshold:
		return BucketA
	default:
		return BucketB
	}
}

// LeftoverDim names a dimension usable in a best-fit leftover-key scheme.
type LeftoverDim string

const (
	LeftoverCold   LeftoverDim = "cold"
	LeftoverVolume LeftoverDim = "volume"
	LeftoverWeight LeftoverDim = "weight"
)

// Policy bundles every planning knob from spec.md §6 that governs bucket
// routing and best-fit tie-breaking.
type Policy struct {
	AlphaThreshold float64

	AllowOpenNewReeferA bool
	AllowColdInDryB     bool
	AllowOpenNewDryC    bool

	PerTruckCoolerM3 float64 // default applied when a truck record omits cooler_capacity_m3

	ReeferSchemeA []LeftoverDim
	ReeferSchemeB []LeftoverDim
	DrySchemeB    []LeftoverDim
	DrySchemeC    []LeftoverDim

	OrderScheme []ranking.OrderDim
	ItemScheme  []ranking.ItemDim

	DepartureStrategy string // "none" | "min_util" | "time"
	MinUtilSlack      float64
	DepartTime        string
}

// DefaultPolicy matches the reference schemes named in spec.md §4.4/§4.5.
func DefaultPolicy() Policy {
	return Policy{
		AlphaThreshold:      0.1,
		AllowOpenNewReeferA: true,
		AllowColdInDryB:     true,
		AllowOpenNewDryC:    true,
		ReeferSchemeA:       []LeftoverDim{LeftoverCold, LeftoverVolume, LeftoverWeight},
		ReeferSchemeB:       []LeftoverDim{LeftoverCold, LeftoverVolume, LeftoverWeight},
		DrySchemeB:          []LeftoverDim{LeftoverVolume, LeftoverWeight},
		DrySchemeC:          []LeftoverDim{LeftoverVolume, LeftoverWeight},
		OrderScheme:         ranking.DefaultOrderScheme(),
		ItemScheme:          ranking.DefaultItemScheme(),
		DepartureStrategy:   "none",
	}
}

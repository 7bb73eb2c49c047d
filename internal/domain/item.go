package domain

import "fmt"

// Item is a catalogue entry. Immutable after load.
type Item struct {
	ItemID         string
	Name           string
	CategoryCold   bool
	UnitWeightKg   float64
	UnitVolumeM3   float64
	Dims           Dimensions
	Fragility      Fragility
	MaxStackLoadKg float64
	IsLiquid       bool
	UprightOnly    bool
	SeparationTag  SeparationTag
	PaddingFactor  float64
}

// EffectiveUnitVolume returns v_eff = v_unit * (1 + padding_factor).
func (it Item) EffectiveUnitVolume() float64 {
	return it.UnitVolumeM3 * (1 + it.PaddingFactor)
}

// Validate enforces catalogue/order error taxonomy fields that belong to
// the item itself (spec §7 "Catalogue/order errors").
func (it Item) Validate() error {
	if it.ItemID == "" {
		return fmt.Errorf("item: item_id must not be empty")
	}
	if it.UnitWeightKg < 0 {
		return fmt.Errorf("item %s: unit_weight_kg must be non-negative", it.ItemID)
	}
	if it.UnitVolumeM3 < 0 {
		return fmt.Errorf("item %s: unit_volume_m3 must be non-negative", it.ItemID)
	}
	if it.PaddingFactor < 0 || it.PaddingFactor > 1 {
		return fmt.Errorf("item %s: padding_factor must be in [0,1]", it.ItemID)
	}
	switch it.Fragility {
	case FragilityRegular, FragilityDelicate, FragilityFragile:
	default:
		return fmt.Errorf("item %s: unknown fragility %q", it.ItemID, it.Fragility)
	}
	switch it.SeparationTag {
	case SeparationFood, SeparationNonFood, SeparationAllergen, SeparationHazardous:
	default:
		return fmt.Errorf("item %s: unknown separation_tag %q", it.ItemID, it.SeparationTag)
	}
	return nil
}

// Catalogue maps item ids to their catalogue entry.
type Catalogue map[string]Item

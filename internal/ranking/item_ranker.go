package ranking

import (
	"fmt"
	"sort"

	"github.com/coldchain/loadplan/internal/domain"
)

// ItemDim is a ranking dimension name for the item scheme.
type ItemDim string

const (
	ItemDimCold       ItemDim = "cold"
	ItemDimWeight     ItemDim = "weight"
	ItemDimVEff       ItemDim = "v_eff"
	ItemDimLiquid     ItemDim = "liquid"
	ItemDimStackLimit ItemDim = "stack_limit"
	ItemDimFragile    ItemDim = "fragile"
	ItemDimUpright    ItemDim = "upright"
	ItemDimItemID     ItemDim = "item_id"
)

// ItemRank is one ranked line within an order (spec §4.2).
type ItemRank struct {
	Rank       int
	ItemID     string
	Qty        int
	Cold01     int
	WeightKg   float64 // w_ij = qty * w_unit
	VEff       float64 // v_ij_eff = qty * v_eff_unit
	Liquid01   int
	StackLimit float64
	FragileScore int
	Upright01  int
	Key        []float64
}

// ValidateItemScheme rejects unknown or duplicate dimensions (spec §4.2).
func ValidateItemScheme(scheme []ItemDim) error {
	seen := make(map[ItemDim]bool, len(scheme))
	for _, d := range scheme {
		switch d {
		case ItemDimCold, ItemDimWeight, ItemDimVEff, ItemDimLiquid, ItemDimStackLimit, ItemDimFragile, ItemDimUpright, ItemDimItemID:
		default:
			return fmt.Errorf("item scheme: unknown dimension %q", d)
		}
		if seen[d] {
			return fmt.Errorf("item scheme: duplicate dimension %q", d)
		}
		seen[d] = true
	}
	return nil
}

func itemDimValue(r ItemRank, d ItemDim) float64 {
	switch d {
	case ItemDimCold:
		return -float64(r.Cold01)
	case ItemDimWeight:
		return -r.WeightKg
	case ItemDimVEff:
		return -r.VEff
	case ItemDimLiquid:
		return -float64(r.Liquid01)
	case ItemDimStackLimit:
		return -r.StackLimit
	case ItemDimFragile:
		return float64(r.FragileScore)
	case ItemDimUpright:
		return float64(r.Upright01)
	case ItemDimItemID:
		return 0 // terminal string tie-break, handled outside the numeric key
	default:
		return 0
	}
}

// RankItems builds the within-order loading sequence for one order's
// (item_id, qty) lines, per spec §4.2.
func RankItems(lines []domain.OrderLine, cat domain.Catalogue, scheme []ItemDim) ([]ItemRank, error) {
	if err := ValidateItemScheme(scheme); err != nil {
		return nil, err
	}
	rows := make([]ItemRank, len(lines))
	for i, line := range lines {
		item, ok := cat[line.ItemID]
		if !ok {
			return nil, fmt.Errorf("item ranker: unknown item id %s", line.ItemID)
		}
		qty := float64(line.Qty)
		r := ItemRank{
			ItemID:       line.ItemID,
			Qty:          line.Qty,
			WeightKg:     qty * item.UnitWeightKg,
			VEff:         qty * item.EffectiveUnitVolume(),
			StackLimit:   item.MaxStackLoadKg,
			FragileScore: item.Fragility.Score(),
		}
		if item.CategoryCold {
			r.Cold01 = 1
		}
		if item.IsLiquid {
			r.Liquid01 = 1
		}
		if item.UprightOnly {
			r.Upright01 = 1
		}
		rows[i] = r
	}

	for i := range rows {
		key := make([]float64, 0, len(scheme))
		for _, d := range scheme {
			if d == ItemDimItemID {
				continue
			}
			key = append(key, itemDimValue(rows[i], d))
		}
		rows[i].Key = key
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Key, rows[j].Key
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return rows[i].ItemID < rows[j].ItemID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// DefaultOrderScheme and DefaultItemScheme match the reference schemes
// implied by spec.md's rationale paragraphs (§4.1, §4.2).
func DefaultOrderScheme() []OrderDim {
	return []OrderDim{DimVIP, DimDue, DimAlpha, DimVEff, DimWeight, DimOrder}
}

func DefaultItemScheme() []ItemDim {
	return []ItemDim{ItemDimCold, ItemDimWeight, ItemDimVEff, ItemDimLiquid, ItemDimStackLimit, ItemDimFragile, ItemDimUpright, ItemDimItemID}
}

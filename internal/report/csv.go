// Package report writes the six CSV artefacts spec.md §6 names, plus
// the JSON selection-log sidecars from SPEC_FULL's supplemented features.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/coldchain/loadplan/internal/tracker"
)

func writeRow(w *csv.Writer, fields ...string) error {
	return w.Write(fields)
}

func f(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
func i(v int) string     { return strconv.Itoa(v) }
func b(v bool) string    { return strconv.FormatBool(v) }

// WriteOrderQueue writes order_queue.csv (spec §6).
func WriteOrderQueue(dst io.Writer, rows []tracker.OrderQueueRow) error {
	w := csv.NewWriter(dst)
	defer w.Flush()
	if err := writeRow(w, "run_id", "rank", "order_id", "vip", "due", "alpha", "v_eff", "weight", "sort_key"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeRow(w, r.RunID, i(r.Rank), r.OrderID, b(r.VIP), strconv.FormatInt(r.Due, 10), f(r.Alpha), f(r.VEff), f(r.Weight), r.SortKey); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteItemRankings writes item_rankings.csv (spec §6).
func WriteItemRankings(dst io.Writer, rows []tracker.ItemQueueRow) error {
	w := csv.NewWriter(dst)
	defer w.Flush()
	if err := writeRow(w, "order_id", "rank", "item_id", "qty", "cold01", "w_ij", "v_ij_eff", "liquid01", "stack_limit", "fragile_score", "upright01", "sort_key"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeRow(w, r.OrderID, i(r.Rank), r.ItemID, i(r.Qty), i(r.Cold01), f(r.WIJ), f(r.VIJEff), i(r.Liquid01), f(r.StackLimit), i(r.FragileScore), i(r.Upright01), r.SortKey); err != nil {
			return err
		}
	}
	return w.Error()
}

// WritePerTruck writes per_truck.csv (spec §6).
func WritePerTruck(dst io.Writer, rows []tracker.PerTruckRow) error {
	w := csv.NewWriter(dst)
	defer w.Flush()
	if err := writeRow(w, "truck_id", "type", "u_vol", "u_w", "u_cold", "u_bn", "under_min", "cap_violation", "fixed_cost", "assigned_count"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeRow(w, r.TruckID, string(r.Type), f(r.UVol), f(r.UW), f(r.UCold), f(r.UBn), i(r.UnderMin), i(r.CapViolation), f(r.FixedCost), i(r.AssignedCount)); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteFleet writes fleet.csv: the single day KPI row (spec §6).
func WriteFleet(dst io.Writer, row tracker.FleetRow) error {
	w := csv.NewWriter(dst)
	defer w.Flush()
	header := []string{"e_pack", "n_trucks", "c_total", "c_per_vol", "c_per_w", "cv_u_vol", "miss_vip", "miss_due", "avg_delay", "vip_ontime", "cold_on_dry", "under_min", "cap_viols", "splits"}
	if err := writeRow(w, header...); err != nil {
		return err
	}
	if err := writeRow(w,
		f(row.EPack), i(row.NTrucks), f(row.CTotal), f(row.CPerVol), f(row.CPerW), f(row.CVUVol),
		i(row.MissVIP), i(row.MissDue), f(row.AvgDelay), f(row.VipOnTime), i(row.ColdOnDry),
		i(row.UnderMin), i(row.CapViols), i(row.Splits),
	); err != nil {
		return err
	}
	return w.Error()
}

// WriteAssignments writes assignments.csv (spec §6).
func WriteAssignments(dst io.Writer, rows []tracker.AssignmentRow) error {
	w := csv.NewWriter(dst)
	defer w.Flush()
	if err := writeRow(w, "time", "order_id", "truck_id", "item_id", "qty", "zone", "lane", "layer", "pos"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeRow(w, r.Time, r.OrderID, r.TruckID, r.ItemID, i(r.Qty), string(r.Zone), string(r.Lane), i(r.Layer), i(r.Pos)); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteOrderStatus writes order_status.csv (spec §6).
func WriteOrderStatus(dst io.Writer, rows []*tracker.OrderRecord) error {
	w := csv.NewWriter(dst)
	defer w.Flush()
	if err := writeRow(w, "order_id", "placed", "assigned_truck_count", "reason", "is_vip", "due_met", "delay_min"); err != nil {
		return err
	}
	for _, r := range rows {
		delay := ""
		if r.DelayMin != nil {
			delay = f(*r.DelayMin)
		}
		if err := writeRow(w, r.OrderID, b(r.Placed), i(r.AssignedTruckCount), r.Reason, b(r.IsVIP), b(r.DueMet), delay); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteSelectionMeta writes a selection-log metadata sidecar (SPEC_FULL
// supplemented feature 3, grounded on export_selection_meta_json).
func WriteSelectionMeta(dst io.Writer, meta map[string]string) error {
	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("report: encoding selection meta: %w", err)
	}
	return nil
}

// Command planner is the one-shot CLI driver for a single day's load
// plan: load the five instance artefacts, run Phase 1 and Phase 2, and
// write the report CSVs (spec §1 names this out of scope as a
// collaborator; this is the minimal shape that exercises the engine).
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/coldchain/loadplan/internal/instance"
	"github.com/coldchain/loadplan/internal/planner"
	"github.com/coldchain/loadplan/internal/report"
	"github.com/coldchain/loadplan/internal/tracker"
)

func main() {
	instanceDir := flag.String("instance-dir", "", "directory containing items.json, customers.json, orders.json, trucks.json, depots.json")
	outDir := flag.String("out-dir", "reports", "directory to write report CSVs into")
	alphaThreshold := flag.Float64("alpha-threshold", 0.1, "cold-fraction threshold splitting bucket A from B")
	alphaMax := flag.Float64("alpha-max", 0, "clamp ceiling on an order's alpha_i (0 disables the clamp)")
	flag.Parse()

	if *instanceDir == "" {
		log.Fatalf("planner: -instance-dir is required")
	}

	read := func(name string) []byte {
		raw, err := os.ReadFile(filepath.Join(*instanceDir, name))
		if err != nil {
			log.Fatalf("planner: reading %s: %v", name, err)
		}
		return raw
	}

	inst, err := instance.Load(
		read("items.json"), read("customers.json"), read("orders.json"), read("trucks.json"), read("depots.json"),
		instance.LoadOptions{AlphaMax: *alphaMax},
	)
	if err != nil {
		log.Printf("planner: input validation failed: %v", err)
		os.Exit(2)
	}

	pol := planner.DefaultPolicy()
	pol.AlphaThreshold = *alphaThreshold

	tr := tracker.NewDayTracker(inst.Depot)
	selector := planner.NewSelectionOrchestrator(inst.Orders, inst.Customers, inst.Catalogue, pol, tr)

	pendingIDs := make([]string, 0, len(inst.Orders))
	for id := range inst.Orders {
		pendingIDs = append(pendingIDs, id)
	}
	sel, err := selector.Run(pendingIDs, true)
	if err != nil {
		log.Fatalf("planner: selection phase failed: %v", err)
	}

	state := planner.NewDepotState(inst.Depot, inst.Orders, inst.Catalogue, pol.ItemScheme)
	placer := planner.NewPlacerOrchestrator(inst.Depot, state, planner.SimpleFeasibility{}, planner.SimplePackingPolicy{}, pol, tr, planner.BuildIsHazardous(inst.Catalogue))

	vipOf := func(orderID string) bool {
		return inst.Customers[inst.Orders[orderID].CustomerID].VIP
	}
	if _, err := placer.RunMany(sel.OrderedIDs, vipOf); err != nil {
		var inv *planner.InvariantError
		if errors.As(err, &inv) {
			log.Printf("planner: invariant violation (truck=%s order=%s): %v", inv.TruckID, inv.OrderID, inv.Err)
		} else {
			log.Printf("planner: internal error: %v", err)
		}
		os.Exit(3)
	}

	placer.MaybeDepartTrucks(pol.DepartureStrategy, pol.MinUtilSlack, pol.DepartTime)
	perTruck, fleet := placer.FinalizeDay()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("planner: creating output directory: %v", err)
	}
	writeReports(*outDir, tr, perTruck, fleet)

	log.Printf("planner: run %s complete: %d orders processed, %d trucks opened", sel.RunID, len(tr.Orders()), fleet.NTrucks)
}

func writeReports(outDir string, tr *tracker.DayTracker, perTruck []tracker.PerTruckRow, fleet tracker.FleetRow) {
	create := func(name string) *os.File {
		f, err := os.Create(filepath.Join(outDir, name))
		if err != nil {
			log.Fatalf("planner: creating %s: %v", name, err)
		}
		return f
	}

	oq := create("order_queue.csv")
	defer oq.Close()
	if err := report.WriteOrderQueue(oq, tr.OrderQueueLog()); err != nil {
		log.Fatalf("planner: writing order_queue.csv: %v", err)
	}

	ir := create("item_rankings.csv")
	defer ir.Close()
	if err := report.WriteItemRankings(ir, tr.ItemQueueLog()); err != nil {
		log.Fatalf("planner: writing item_rankings.csv: %v", err)
	}

	pt := create("per_truck.csv")
	defer pt.Close()
	if err := report.WritePerTruck(pt, perTruck); err != nil {
		log.Fatalf("planner: writing per_truck.csv: %v", err)
	}

	fl := create("fleet.csv")
	defer fl.Close()
	if err := report.WriteFleet(fl, fleet); err != nil {
		log.Fatalf("planner: writing fleet.csv: %v", err)
	}

	as := create("assignments.csv")
	defer as.Close()
	if err := report.WriteAssignments(as, tr.AssignmentRows()); err != nil {
		log.Fatalf("planner: writing assignments.csv: %v", err)
	}

	os_ := create("order_status.csv")
	defer os_.Close()
	if err := report.WriteOrderStatus(os_, tr.Orders()); err != nil {
		log.Fatalf("planner: writing order_status.csv: %v", err)
	}

	meta := create("order_queue_meta.json")
	defer meta.Close()
	if err := report.WriteSelectionMeta(meta, tr.OrderQueueMeta()); err != nil {
		log.Fatalf("planner: writing order_queue_meta.json: %v", err)
	}

	itemMeta := create("item_queue_meta.json")
	defer itemMeta.Close()
	if err := report.WriteSelectionMeta(itemMeta, tr.ItemQueueMeta()); err != nil {
		log.Fatalf("planner: writing item_queue_meta.json: %v", err)
	}
}

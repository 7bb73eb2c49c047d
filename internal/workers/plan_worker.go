// Package workers runs the plan-request worker pool: NATS-dispatched jobs
// that execute the two-phase planner for one depot/day and report progress
// back over NATS as they go.
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/coldchain/loadplan/internal/config"
	"github.com/coldchain/loadplan/internal/db"
	"github.com/coldchain/loadplan/internal/instance"
	"github.com/coldchain/loadplan/internal/planner"
	"github.com/coldchain/loadplan/internal/queue"
	"github.com/coldchain/loadplan/internal/report"
	"github.com/coldchain/loadplan/internal/services"
	"github.com/coldchain/loadplan/internal/tracker"
)

// PlanWorker executes queued plan-run jobs: one per depot/day, run end to
// end in a single pass (no parallel sub-phases, the planner itself has
// none to distribute).
type PlanWorker struct {
	nats     *queue.Manager
	db       *db.Queries
	config   *config.Config
	settings *services.SettingsService
	source   *services.InstanceSource

	jobContexts    map[string]context.CancelFunc
	jobContextsMux sync.RWMutex
}

// NewPlanWorker creates a new plan worker.
func NewPlanWorker(nats *queue.Manager, database *db.Queries, cfg *config.Config, settings *services.SettingsService, source *services.InstanceSource) *PlanWorker {
	return &PlanWorker{
		nats:        nats,
		db:          database,
		config:      cfg,
		settings:    settings,
		source:      source,
		jobContexts: make(map[string]context.CancelFunc),
	}
}

// PlanRequestMessage requests a plan run for one depot's day.
type PlanRequestMessage struct {
	JobID       string    `json:"jobId"`
	DepotID     string    `json:"depotId"`
	PlanningDay time.Time `json:"planningDay"`
	UserID      string    `json:"userId,omitempty"`
}

// PlanProgressUpdate is published as the run advances.
type PlanProgressUpdate struct {
	JobID           string `json:"jobId"`
	Status          string `json:"status"`
	CurrentStep     string `json:"currentStep"`
	OrdersProcessed int    `json:"ordersProcessed"`
	TrucksOpened    int    `json:"trucksOpened"`
	Error           string `json:"error,omitempty"`
}

// PlanCompleteMessage is published once a run finishes and its reports
// are ready.
type PlanCompleteMessage struct {
	JobID   string            `json:"jobId"`
	RunID   string            `json:"runId"`
	Summary tracker.FleetRow  `json:"summary"`
	Reports map[string][]byte `json:"reports"`
}

// Start subscribes to plan-requested and plan-cancel subjects.
func (w *PlanWorker) Start() error {
	log.Println("Starting plan worker...")

	if _, err := w.nats.QueueSubscribe(queue.SubjectPlanRequestedAll, queue.QueueGroupPlanWorkers, w.handlePlanRequest); err != nil {
		return fmt.Errorf("failed to subscribe to plan requests: %w", err)
	}

	if _, err := w.nats.Subscribe("plan.cancel.*", w.handleCancelRequest); err != nil {
		return fmt.Errorf("failed to subscribe to cancellation requests: %w", err)
	}

	log.Println("Plan worker started and listening for plan requests and cancellations")
	return nil
}

func (w *PlanWorker) createJobContext(jobID string) context.Context {
	w.jobContextsMux.Lock()
	defer w.jobContextsMux.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	w.jobContexts[jobID] = cancel
	return ctx
}

func (w *PlanWorker) cancelJobContext(jobID string) {
	w.jobContextsMux.Lock()
	defer w.jobContextsMux.Unlock()

	if cancel, exists := w.jobContexts[jobID]; exists {
		cancel()
		delete(w.jobContexts, jobID)
	}
}

func (w *PlanWorker) clearJobContext(jobID string) {
	w.jobContextsMux.Lock()
	defer w.jobContextsMux.Unlock()
	delete(w.jobContexts, jobID)
}

// handleCancelRequest handles a cancellation request for a job (format:
// plan.cancel.{jobID}).
func (w *PlanWorker) handleCancelRequest(msg *nats.Msg) {
	parts := len("plan.cancel.")
	if len(msg.Subject) <= parts {
		log.Printf("Invalid cancel subject: %s", msg.Subject)
		return
	}
	jobID := msg.Subject[parts:]

	log.Printf("Received cancellation request for job: %s", jobID)
	w.cancelJobContext(jobID)
}

func (w *PlanWorker) handlePlanRequest(msg *nats.Msg) {
	var req PlanRequestMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("Failed to parse plan request: %v", err)
		return
	}

	if err := w.processPlanWithRetry(req); err != nil {
		log.Printf("Plan job %s failed: %v", req.JobID, err)
	}
}

func (w *PlanWorker) processPlanWithRetry(req PlanRequestMessage) error {
	ctx := context.Background()

	job, err := w.db.GetJob(ctx, req.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if job.RetryCount >= job.MaxRetries {
		msg := fmt.Sprintf("exceeded maximum retries (%d)", job.MaxRetries)
		w.db.FailJob(ctx, req.JobID, msg)
		w.publishError(req.JobID, msg)
		return fmt.Errorf(msg)
	}

	if err := w.processPlan(req); err != nil {
		// An invariant violation is a bug in the deterministic engine
		// (spec §5 determinism, §7 "never swallowed"): retrying it would
		// reproduce the same violation on the same input, so it fails
		// the job immediately instead of burning retries.
		var inv *planner.InvariantError
		if errors.As(err, &inv) {
			w.db.FailJob(ctx, req.JobID, err.Error())
			w.publishError(req.JobID, err.Error())
			return err
		}

		w.db.IncrementRetryCount(ctx, req.JobID)

		job, _ := w.db.GetJob(ctx, req.JobID)
		if job != nil && job.Status == "cancelled" {
			return err
		}
		if job != nil && job.RetryCount < job.MaxRetries {
			log.Printf("Job %s failed (attempt %d/%d), will retry: %v", req.JobID, job.RetryCount, job.MaxRetries, err)
			data, _ := json.Marshal(req)
			if perr := w.nats.Publish(queue.GetPlanRequestedSubject(req.DepotID), data); perr != nil {
				log.Printf("Failed to requeue plan job %s: %v", req.JobID, perr)
			}
			return err
		}

		w.db.FailJob(ctx, req.JobID, err.Error())
		w.publishError(req.JobID, err.Error())
		return err
	}

	return nil
}

// processPlan runs Phase 1 (selection) and Phase 2 (placement) for one
// depot/day and publishes the resulting reports.
func (w *PlanWorker) processPlan(req PlanRequestMessage) error {
	ctx := w.createJobContext(req.JobID)
	defer w.clearJobContext(req.JobID)

	if err := w.db.StartJob(ctx, req.JobID); err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("job cancelled: %w", ctx.Err())
	}

	w.publishProgress(req.JobID, "running", "Fetching instance artefacts", 0, 0)

	itemsRaw, customersRaw, ordersRaw, trucksRaw, depotsRaw, err := w.source.FetchAll(ctx, req.DepotID, req.PlanningDay)
	if err != nil {
		return fmt.Errorf("fetching instance artefacts: %w", err)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("job cancelled: %w", ctx.Err())
	}

	base := planner.DefaultPolicy()
	if w.settings != nil {
		base, err = w.settings.ResolvePolicy(ctx, req.DepotID, base)
		if err != nil {
			return fmt.Errorf("resolving depot policy: %w", err)
		}
	}

	inst, err := instance.Load(itemsRaw, customersRaw, ordersRaw, trucksRaw, depotsRaw, instance.LoadOptions{PlanningDay: req.PlanningDay})
	if err != nil {
		return fmt.Errorf("validating instance: %w", err)
	}

	w.publishProgress(req.JobID, "running", "Running selection phase", 0, 0)

	tr := tracker.NewDayTracker(inst.Depot)
	selector := planner.NewSelectionOrchestrator(inst.Orders, inst.Customers, inst.Catalogue, base, tr)

	pendingIDs := make([]string, 0, len(inst.Orders))
	for id := range inst.Orders {
		pendingIDs = append(pendingIDs, id)
	}
	sel, err := selector.Run(pendingIDs, true)
	if err != nil {
		return fmt.Errorf("selection phase: %w", err)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("job cancelled: %w", ctx.Err())
	}

	w.publishProgress(req.JobID, "running", "Running placement phase", 0, 0)

	state := planner.NewDepotState(inst.Depot, inst.Orders, inst.Catalogue, base.ItemScheme)
	placer := planner.NewPlacerOrchestrator(inst.Depot, state, planner.SimpleFeasibility{}, planner.SimplePackingPolicy{}, base, tr, planner.BuildIsHazardous(inst.Catalogue))

	vipOf := func(orderID string) bool {
		return inst.Customers[inst.Orders[orderID].CustomerID].VIP
	}
	decisions, err := placer.RunMany(sel.OrderedIDs, vipOf)
	if err != nil {
		return fmt.Errorf("placement phase: %w", err)
	}

	placer.MaybeDepartTrucks(base.DepartureStrategy, base.MinUtilSlack, base.DepartTime)
	perTruck, fleet := placer.FinalizeDay()

	w.db.UpdateJobCounts(ctx, req.JobID, len(decisions), fleet.NTrucks)

	reports, err := buildReports(tr, perTruck, fleet)
	if err != nil {
		return fmt.Errorf("building reports: %w", err)
	}

	if err := w.db.CompleteJob(ctx, req.JobID); err != nil {
		return fmt.Errorf("completing job: %w", err)
	}

	w.publishComplete(req.JobID, sel.RunID, fleet, reports)
	return nil
}

func (w *PlanWorker) publishProgress(jobID, status, step string, ordersProcessed, trucksOpened int) {
	update := PlanProgressUpdate{
		JobID:           jobID,
		Status:          status,
		CurrentStep:     step,
		OrdersProcessed: ordersProcessed,
		TrucksOpened:    trucksOpened,
	}
	data, _ := json.Marshal(update)
	if err := w.nats.Publish(queue.GetProgressSubject(jobID), data); err != nil {
		log.Printf("Failed to publish progress: %v", err)
	}
}

func (w *PlanWorker) publishComplete(jobID, runID string, fleet tracker.FleetRow, reports map[string][]byte) {
	msg := PlanCompleteMessage{JobID: jobID, RunID: runID, Summary: fleet, Reports: reports}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal completion: %v", err)
		return
	}
	if err := w.nats.Publish(queue.GetCompleteSubject(jobID), data); err != nil {
		log.Printf("Failed to publish completion: %v", err)
	}
}

func (w *PlanWorker) publishError(jobID, errorMsg string) {
	update := PlanProgressUpdate{JobID: jobID, Status: "failed", Error: errorMsg}
	data, _ := json.Marshal(update)
	if err := w.nats.Publish(queue.GetErrorSubject(jobID), data); err != nil {
		log.Printf("Failed to publish error: %v", err)
	}
}

// buildReports renders the six CSV reports cmd/planner writes to disk,
// keyed by file name, so an API handler can hand them back without a
// shared filesystem between worker and server. The two JSON selection-meta
// sidecars cmd/planner also writes are not included.
func buildReports(tr *tracker.DayTracker, perTruck []tracker.PerTruckRow, fleet tracker.FleetRow) (map[string][]byte, error) {
	out := map[string][]byte{}

	write := func(name string, fn func(w *bytes.Buffer) error) error {
		var buf bytes.Buffer
		if err := fn(&buf); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out[name] = buf.Bytes()
		return nil
	}

	if err := write("order_queue.csv", func(w *bytes.Buffer) error {
		return report.WriteOrderQueue(w, tr.OrderQueueLog())
	}); err != nil {
		return nil, err
	}
	if err := write("item_rankings.csv", func(w *bytes.Buffer) error {
		return report.WriteItemRankings(w, tr.ItemQueueLog())
	}); err != nil {
		return nil, err
	}
	if err := write("per_truck.csv", func(w *bytes.Buffer) error {
		return report.WritePerTruck(w, perTruck)
	}); err != nil {
		return nil, err
	}
	if err := write("fleet.csv", func(w *bytes.Buffer) error {
		return report.WriteFleet(w, fleet)
	}); err != nil {
		return nil, err
	}
	if err := write("assignments.csv", func(w *bytes.Buffer) error {
		return report.WriteAssignments(w, tr.AssignmentRows())
	}); err != nil {
		return nil, err
	}
	if err := write("order_status.csv", func(w *bytes.Buffer) error {
		return report.WriteOrderStatus(w, tr.Orders())
	}); err != nil {
		return nil, err
	}

	return out, nil
}

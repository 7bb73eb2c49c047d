package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"

	"github.com/coldchain/loadplan/internal/db"
	"github.com/coldchain/loadplan/internal/queue"
	"github.com/coldchain/loadplan/internal/services"
	"github.com/coldchain/loadplan/internal/workers"
)

// RequestPlanRunRequest is the body of a trigger-a-run request. A missing
// PlanningDay defaults to today.
type RequestPlanRunRequest struct {
	PlanningDay string `json:"planningDay,omitempty"`
}

// PlanRunResponse is the API view of a queued/running/finished plan-run job.
type PlanRunResponse struct {
	JobID           string `json:"jobId"`
	DepotID         string `json:"depotId"`
	PlanningDay     string `json:"planningDay"`
	Status          string `json:"status"`
	OrdersProcessed int    `json:"ordersProcessed"`
	TrucksOpened    int    `json:"trucksOpened"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

// handleRequestPlanRun enqueues a new plan-run job for one depot/day,
// rejecting the request if a job is already pending or running for that
// depot (spec §5: a day owns its tracker/state privately; two concurrent
// runs for the same depot would race on the same trucks).
func (s *Server) handleRequestPlanRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	depotID := mux.Vars(r)["depotId"]

	if allowed, err := s.rateLimiter.Allow(ctx, depotID); err != nil {
		log.Printf("ERROR: rate limiter lookup failed for depot %s: %v", depotID, err)
	} else if !allowed {
		http.Error(w, "Too many plan run requests for this depot", http.StatusTooManyRequests)
		return
	}

	var req RequestPlanRunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	planningDay := time.Now().UTC()
	if req.PlanningDay != "" {
		parsed, err := time.Parse("2006-01-02", req.PlanningDay)
		if err != nil {
			http.Error(w, "planningDay must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		planningDay = parsed
	}

	if active, err := s.db.GetActiveJob(ctx, depotID); err == nil && active != nil {
		http.Error(w, fmt.Sprintf("depot %s already has an active plan run: %s", depotID, active.ID), http.StatusConflict)
		return
	}

	userID, _ := s.getUserIDFromSession(r)

	jobID := uuid.NewString()
	if err := s.db.CreateJob(ctx, jobID, depotID, planningDay, userID); err != nil {
		log.Printf("ERROR: failed to create plan run job for depot %s: %v", depotID, err)
		http.Error(w, "Failed to create plan run", http.StatusInternalServerError)
		return
	}

	msg := workers.PlanRequestMessage{JobID: jobID, DepotID: depotID, PlanningDay: planningDay, UserID: userID}
	data, err := json.Marshal(msg)
	if err != nil {
		http.Error(w, "Failed to encode plan request", http.StatusInternalServerError)
		return
	}
	if err := s.natsManager.Publish(queue.GetPlanRequestedSubject(depotID), data); err != nil {
		log.Printf("ERROR: failed to publish plan request for job %s: %v", jobID, err)
		http.Error(w, "Failed to dispatch plan run", http.StatusInternalServerError)
		return
	}

	s.auditService.Log(ctx, auditParamsForPlanRun(depotID, jobID, "request", userID, r))

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"jobId": jobID, "status": "pending"})
}

// handleGetPlanRun returns the status of one plan-run job.
func (s *Server) handleGetPlanRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := mux.Vars(r)["jobId"]

	job, err := s.db.GetJob(ctx, jobID)
	if err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPlanRunResponse(job))
}

// handleListPlanRuns lists recent plan-run jobs for a depot.
func (s *Server) handleListPlanRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	depotID := mux.Vars(r)["depotId"]

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	jobs, err := s.db.ListJobsByDepot(ctx, depotID, limit)
	if err != nil {
		log.Printf("ERROR: failed to list plan runs for depot %s: %v", depotID, err)
		http.Error(w, "Failed to list plan runs", http.StatusInternalServerError)
		return
	}

	resp := make([]PlanRunResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, toPlanRunResponse(job))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"runs": resp})
}

// handleCancelPlanRun requests cancellation of a pending or running
// plan-run job.
func (s *Server) handleCancelPlanRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := mux.Vars(r)["jobId"]

	userID, _ := s.getUserIDFromSession(r)

	if err := s.db.CancelJob(ctx, jobID, "cancelled by user"); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	s.natsManager.Publish(queue.GetCancelSubject(jobID), []byte(jobID))

	job, err := s.db.GetJob(ctx, jobID)
	depotID := ""
	if err == nil {
		depotID = job.DepotID
	}
	s.auditService.Log(ctx, auditParamsForPlanRun(depotID, jobID, "cancel", userID, r))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"jobId": jobID, "status": "cancelled"})
}

// handlePlanRunProgressSSE streams progress events for a plan-run job
// over Server-Sent Events until the run finishes or the client
// disconnects.
func (s *Server) handlePlanRunProgressSSE(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := s.natsManager.Subscribe(queue.GetProgressSubject(jobID), func(msg *nats.Msg) {
		fmt.Fprintf(w, "data: %s\n\n", string(msg.Data))
		flusher.Flush()
	})
	if err != nil {
		log.Printf("ERROR: failed to subscribe to progress for job %s: %v", jobID, err)
		http.Error(w, "Failed to subscribe to progress updates", http.StatusInternalServerError)
		return
	}
	defer sub.Unsubscribe()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			job, err := s.db.GetJob(r.Context(), jobID)
			if err != nil {
				return
			}
			if job.Status == "completed" || job.Status == "failed" || job.Status == "cancelled" {
				return
			}
		}
	}
}

func toPlanRunResponse(job *db.Job) PlanRunResponse {
	resp := PlanRunResponse{
		JobID:           job.ID,
		DepotID:         job.DepotID,
		PlanningDay:     job.PlanningDay.Format("2006-01-02"),
		Status:          job.Status,
		OrdersProcessed: job.OrdersProcessed,
		TrucksOpened:    job.TrucksOpened,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
	}
	if job.ErrorMessage.Valid {
		resp.ErrorMessage = job.ErrorMessage.String
	}
	return resp
}

func auditParamsForPlanRun(depotID, jobID, operation, userID string, r *http.Request) services.AuditParams {
	return services.AuditParams{
		EntityType: "plan_run",
		EntityID:   jobID,
		Operation:  operation,
		DepotID:    depotID,
		UserID:     userID,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}
}

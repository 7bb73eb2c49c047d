package planner

// AssignOrder is the successful outcome of routing one order to a truck
// (spec §4.4 step 7, §9 "Assigned(truck_id, plan, opened_new)").
type AssignOrder struct {
	OrderID        string
	TruckID        string
	Plan           *LoadingPlan
	OpenedNewTruck bool
	Bucket         Bucket
	// Rationale is a machine-readable summary of the decision: scheme
	// used, the order's demand triple, and truck residuals immediately
	// before the assignment (original_source's best_fit_reefer.py /
	// best_fit_dry.py build an equivalent rationale dict per decision).
	Rationale string
}

// Decision is the tagged-union outcome of attempting to route one order
// (spec §9 "Failed(reason)"). Exactly one of Assign/Reason is set.
type Decision struct {
	Assign *AssignOrder
	Reason string
}

func (d Decision) Ok() bool { return d.Assign != nil }

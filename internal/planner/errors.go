package planner

import "fmt"

// InvariantError marks a fatal invariant violation (spec §7): negative
// residual after commit, duplicate open of a truck with differing
// specs, or assignment to a departed truck. These indicate a bug in the
// engine, never a planning failure, so callers (cmd/planner, the plan
// worker) map them to a dedicated exit code / job-failure path rather
// than recording them in the order ledger.
type InvariantError struct {
	TruckID string
	OrderID string
	Err     error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation (truck=%s order=%s): %v", e.TruckID, e.OrderID, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

func invariantErrorf(truckID, orderID string, format string, args ...interface{}) error {
	return &InvariantError{TruckID: truckID, OrderID: orderID, Err: fmt.Errorf(format, args...)}
}

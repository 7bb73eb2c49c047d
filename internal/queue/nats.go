package queue

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Manager handles NATS connection and messaging.
type Manager struct {
	conn    *nats.Conn
	url     string
	options []nats.Option
}

// NewManager creates a new NATS manager.
func NewManager(natsURL string) (*Manager, error) {
	options := []nats.Option{
		nats.Name("loadplan"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS at %s", natsURL)

	return &Manager{conn: conn, url: natsURL, options: options}, nil
}

// Close closes the NATS connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// Conn returns the NATS connection.
func (m *Manager) Conn() *nats.Conn {
	return m.conn
}

// Publish publishes a message to a subject.
func (m *Manager) Publish(subject string, data []byte) error {
	return m.conn.Publish(subject, data)
}

// Subscribe subscribes to a subject with a handler.
func (m *Manager) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	return m.conn.Subscribe(subject, handler)
}

// QueueSubscribe creates a queue subscriber (load balanced across workers).
func (m *Manager) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	return m.conn.QueueSubscribe(subject, queue, handler)
}

// Request sends a request and waits for a response.
func (m *Manager) Request(subject string, data []byte, timeout time.Duration) (*nats.Msg, error) {
	return m.conn.Request(subject, data, timeout)
}

// NATS subject patterns for plan runs.

const (
	// SubjectPlanRequestedAll is the wildcard subject plan_worker.go
	// queue-subscribes to; the concrete subject for one depot is built by
	// GetPlanRequestedSubject.
	SubjectPlanRequestedAll = "plan.requested.>"

	SubjectPlanProgress = "plan.progress.%s" // plan.progress.{jobID}
	SubjectPlanComplete = "plan.completed.%s" // plan.completed.{jobID}
	SubjectPlanError    = "plan.error.%s"     // plan.error.{jobID}
	SubjectPlanCancel   = "plan.cancel.%s"    // plan.cancel.{jobID}

	QueueGroupPlanWorkers = "plan-workers"
)

// GetPlanRequestedSubject returns the subject a depot's plan run requests
// are published to.
func GetPlanRequestedSubject(depotID string) string {
	return fmt.Sprintf("plan.requested.%s", depotID)
}

// GetProgressSubject returns the progress subject for a run.
func GetProgressSubject(runID string) string {
	return fmt.Sprintf(SubjectPlanProgress, runID)
}

// GetCompleteSubject returns the completion subject for a run.
func GetCompleteSubject(runID string) string {
	return fmt.Sprintf(SubjectPlanComplete, runID)
}

// GetErrorSubject returns the error subject for a run.
func GetErrorSubject(runID string) string {
	return fmt.Sprintf(SubjectPlanError, runID)
}

// GetCancelSubject returns the cancel subject for a run.
func GetCancelSubject(runID string) string {
	return fmt.Sprintf(SubjectPlanCancel, runID)
}

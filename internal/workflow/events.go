package workflow

import (
	"sync"
	"time"

	"github.com/vithaluntold/rai-compliance-client/internal/core/domain"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
)

// EventType identifies a workflow notification.
type EventType string

const (
	EventStepStarted    EventType = "step_started"
	EventProgress       EventType = "progress"
	EventRetryScheduled EventType = "retry_scheduled"
	EventStepCompleted  EventType = "step_completed"
	EventStepFailed     EventType = "step_failed"
	EventTerminal       EventType = "terminal"
)

// Event is one workflow notification. Fields are populated per type:
// Fraction for progress, Attempt/Delay for retries, Err for failures.
type Event struct {
	Type     EventType
	Step     domain.WorkflowStep
	Message  string
	Fraction float64
	Attempt  int
	Delay    time.Duration
	Err      *api.Error
	Success  bool
}

// Observer receives workflow events.
type Observer func(Event)

type observerEntry struct {
	id int
	fn Observer
}

// Notifier fans workflow events out to independently subscribed observers
// (UI renderer, pipeline log bridge, test harness).
type Notifier struct {
	mu        sync.Mutex
	observers []observerEntry
	nextID    int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer and returns its unsubscribe function.
func (n *Notifier) Subscribe(o Observer) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.observers = append(n.observers, observerEntry{id: id, fn: o})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, e := range n.observers {
			if e.id == id {
				n.observers = append(n.observers[:i], n.observers[i+1:]...)
				return
			}
		}
	}
}

func (n *Notifier) publish(ev Event) {
	n.mu.Lock()
	snapshot := make([]Observer, len(n.observers))
	for i, e := range n.observers {
		snapshot[i] = e.fn
	}
	n.mu.Unlock()

	for _, fn := range snapshot {
		fn(ev)
	}
}

// StepStarted announces that a stage has begun.
func (n *Notifier) StepStarted(step domain.WorkflowStep, message string) {
	n.publish(Event{Type: EventStepStarted, Step: step, Message: message})
}

// Progress reports fractional completion of a stage, 0 to 1.
func (n *Notifier) Progress(step domain.WorkflowStep, fraction float64, message string) {
	n.publish(Event{Type: EventProgress, Step: step, Fraction: fraction, Message: message})
}

// RetryScheduled reports that a failed attempt will be retried after delay.
// These should read as "retrying", non-alarming.
func (n *Notifier) RetryScheduled(step domain.WorkflowStep, attempt int, delay time.Duration, err *api.Error) {
	n.publish(Event{Type: EventRetryScheduled, Step: step, Attempt: attempt, Delay: delay, Err: err})
}

// StepCompleted announces that a stage finished successfully.
func (n *Notifier) StepCompleted(step domain.WorkflowStep, message string) {
	n.publish(Event{Type: EventStepCompleted, Step: step, Message: message})
}

// StepFailed announces a stage's terminal failure. Emitted exactly once per
// terminal outcome, never per attempt.
func (n *Notifier) StepFailed(step domain.WorkflowStep, err *api.Error) {
	n.publish(Event{Type: EventStepFailed, Step: step, Err: err, Message: err.Message})
}

// Terminal announces the saga's terminal outcome.
func (n *Notifier) Terminal(success bool, message string) {
	n.publish(Event{Type: EventTerminal, Success: success, Message: message})
}

package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the area that produced them.
type Category string

const (
	CategoryBilling Category = "billing"
	CategoryAdmin   Category = "admin"
)

// Action names what happened to the subject.
type Action string

const (
	// ActionProGranted records that a user was added to the Pro registry.
	ActionProGranted Action = "pro_granted"
	// ActionProConfirmed records a repeat grant for an already registered user.
	ActionProConfirmed Action = "pro_confirmed"
	// ActionClaimsFailed records that the pro claim could not be mirrored.
	ActionClaimsFailed Action = "claims_failed"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event is a single entitlement ledger entry.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Category    Category  `json:"category"`
	Action      Action    `json:"action"`
	Severity    Severity  `json:"severity"`
	SubjectID   string    `json:"subject_id"`          // user the event is about
	Source      string    `json:"source,omitempty"`    // webhook, payment_success, admin
	Reference   string    `json:"reference,omitempty"` // checkout session id, when known
	Description string    `json:"description,omitempty"`
}

// Validation errors
var (
	ErrMissingSubject = errors.New("audit event requires a subject")
	ErrMissingAction  = errors.New("audit event requires an action")
)

// NewEvent creates an info-level event stamped with the current time.
// PRE: subjectID and action are non-empty
// POST: Returns an Event with a fresh random ID
func NewEvent(category Category, action Action, subjectID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
		SubjectID: subjectID,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithSource records the channel that caused the event.
func (e Event) WithSource(source string) Event {
	e.Source = source
	return e
}

// WithReference records the processor object the event relates to.
func (e Event) WithReference(ref string) Event {
	e.Reference = ref
	return e
}

// WithDescription sets a free-text note.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// Validate checks the fields every stored event must carry.
func (e Event) Validate() error {
	if e.SubjectID == "" {
		return ErrMissingSubject
	}
	if e.Action == "" {
		return ErrMissingAction
	}
	return nil
}

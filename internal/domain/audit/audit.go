package audit

import (
	"errors"
	"time"
)

// Category groups audit events by the record they touch.
type Category string

const (
	CategoryBooking  Category = "booking"
	CategoryCustomer Category = "customer"
	CategorySecurity Category = "security"
)

// Action is what the admin did.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionConfirm     Action = "confirm"
	ActionFinish      Action = "finish"
	ActionDelete      Action = "delete"
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// ErrMissingAction is returned when an event names no action.
var ErrMissingAction = errors.New("audit event needs a category and an action")

// Event is one entry of the admin trail.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorEmail   string    `json:"actorEmail"`
	ResourceType string    `json:"resourceType,omitempty"`
	ResourceID   string    `json:"resourceId,omitempty"`
	Description  string    `json:"description,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
}

// NewEvent creates an info-level event.
// PRE: id is unique; category and action are set
// POST: Returns an Event stamped with at
func NewEvent(id string, at time.Time, actorEmail string, category Category, action Action) Event {
	return Event{
		ID:         id,
		Timestamp:  at,
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorEmail: actorEmail,
	}
}

// Validate checks the required fields.
func (e Event) Validate() error {
	if e.ID == "" || e.Category == "" || e.Action == "" || e.Timestamp.IsZero() {
		return ErrMissingAction
	}
	return nil
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
// PRE: resourceType and resourceID are non-empty
// POST: Event resource fields are populated
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from the HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

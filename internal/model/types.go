package model

import "time"

// ResourceKind names a routable resource family. Not-found redirects carry
// it so one terminal screen serves every resource type.
type ResourceKind string

const (
	ResourceEvent ResourceKind = "event"
)

// Event is a single catalog record. The identifier is assigned by the data
// source and stable for the lifetime of the record.
type Event struct {
	EventID     string
	Title       string
	Description string
	Location    string
	Organizer   string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Registration records one attendee signed up for an event.
type Registration struct {
	RegistrationID string
	EventID        string
	AttendeeName   string
	AttendeeEmail  string
	CreatedAt      time.Time
}

// Page is one bounded slice of the catalog plus the catalog-wide count.
type Page struct {
	Items      []Event
	TotalCount int64
}

// Error codes defined by API contract.
const (
	ErrRefInvalid         = "E_REF_INVALID"
	ErrRefInvalidEncoding = "E_REF_INVALID_ENCODING"
	ErrEventNotFound      = "E_EVENT_NOT_FOUND"
	ErrPageInvalid        = "E_PAGE_INVALID"
	ErrValidation         = "E_VALIDATION"
	ErrDuplicate          = "E_DUPLICATE"
	ErrInternal           = "E_INTERNAL"
)

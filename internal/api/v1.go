package api

import "time"

// TotalCountHeader carries the catalog-wide item count on list responses.
// The list body itself is a bare JSON array of EventItem.
const TotalCountHeader = "X-Total-Count"

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Error         APIError  `json:"error"`
}

type EventItem struct {
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Organizer   string `json:"organizer,omitempty"`
	Date        string `json:"date"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Organizer   string `json:"organizer,omitempty"`
	Date        string `json:"date"`
}

// UpdateEventRequest uses pointer fields so absent keys leave the stored
// value untouched.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Organizer   *string `json:"organizer,omitempty"`
	Date        *string `json:"date,omitempty"`
}

type RegistrationItem struct {
	RegistrationID string `json:"registration_id"`
	EventID        string `json:"event_id"`
	AttendeeName   string `json:"attendee_name"`
	AttendeeEmail  string `json:"attendee_email"`
	CreatedAt      string `json:"created_at"`
}

type CreateRegistrationRequest struct {
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
}

type RegistrationsEnvelope struct {
	SchemaVersion string             `json:"schema_version"`
	GeneratedAt   time.Time          `json:"generated_at"`
	EventID       string             `json:"event_id"`
	Registrations []RegistrationItem `json:"registrations"`
}

// Package event defines the envelope carried across the broker and the typed
// payloads that ride inside it.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jobsphere/ms-job/internal/jsoncodec"
)

// Type is the closed set of inbound event kinds. Unrecognised values map to
// TypeUnknown so new producers cannot break the consumer.
type Type string

const (
	TypeJobCreated Type = "JOB_CREATED"
	TypeJobUpdated Type = "JOB_UPDATED"
	TypeJobDeleted Type = "JOB_DELETED"
	TypeUnknown    Type = ""
)

// TypeApplicationCreated is the outbound event emitted after an application
// has been persisted.
const TypeApplicationCreated = "job-application-created"

// Source identifies this service in outbound event metadata.
const Source = "ms-job"

// ParseType maps a raw envelope type onto the closed enum.
func ParseType(raw string) Type {
	switch Type(raw) {
	case TypeJobCreated, TypeJobUpdated, TypeJobDeleted:
		return Type(raw)
	default:
		return TypeUnknown
	}
}

// Metadata carries the envelope headers. Timestamp is only set on outbound
// application events; ProcessedAt is only set by upstream scrapers.
type Metadata struct {
	Source      string     `json:"source,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Timestamp   string     `json:"timestamp,omitempty"`
}

// Envelope is the wire format on the job-events topic.
type Envelope struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
}

// EventType resolves the envelope's declared type against the closed enum.
func (e *Envelope) EventType() Type {
	return ParseType(e.Type)
}

// DecodeEnvelope parses a raw broker message body.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := jsoncodec.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	return &env, nil
}

// JobPayload is the data mapping of inbound job events. Every field is
// optional on the wire; the normalizer fills defaults.
type JobPayload struct {
	SourceJobID  string   `json:"source_job_id,omitempty"`
	Title        string   `json:"title,omitempty"`
	Company      string   `json:"company,omitempty"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	JobType      string   `json:"job_type,omitempty"`
	Level        string   `json:"level,omitempty"`
	SalaryRange  *string  `json:"salary_range,omitempty"`
	Location     string   `json:"location,omitempty"`
	IsRemote     bool     `json:"is_remote,omitempty"`
	SourceURL    *string  `json:"source_url,omitempty"`
	RawJobID     *string  `json:"raw_job_id,omitempty"`
}

// JobUpdatePayload carries the partial fields of a JOB_UPDATED event. Pointer
// fields distinguish "absent" from "set to zero value".
type JobUpdatePayload struct {
	SourceJobID  string   `json:"source_job_id"`
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Location     *string  `json:"location,omitempty"`
	SalaryRange  *string  `json:"salary_range,omitempty"`
	Active       *bool    `json:"active,omitempty"`
}

// JobDeletePayload identifies the record to soft-delete.
type JobDeletePayload struct {
	SourceJobID string `json:"source_job_id"`
}

// JobOfferSnapshot is the job offer view embedded in outbound application
// events. It is frozen at publish time.
type JobOfferSnapshot struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Location     string   `json:"location"`
	IsRemote     bool     `json:"is_remote"`
}

// ApplicationCreated is the data payload of a job-application-created event.
// Immutable once constructed.
type ApplicationCreated struct {
	ApplicationID  string           `json:"application_id"`
	JobOfferID     string           `json:"job_offer_id"`
	UserID         string           `json:"user_id"`
	ApplicantName  string           `json:"applicant_name"`
	ApplicantEmail string           `json:"applicant_email"`
	Profile        json.RawMessage  `json:"profile,omitempty"`
	JobOffer       JobOfferSnapshot `json:"job_offer"`
}

// Package job holds the canonical job record model and the pure
// normalization rules applied to inbound events.
package job

import "time"

const (
	// NotSpecified is the default for job_type and level when the source
	// event does not carry them.
	NotSpecified = "NOT_SPECIFIED"

	// DefaultCreatorID is the sentinel authoring identity for scraped jobs;
	// this pipeline never resolves a real user.
	DefaultCreatorID = "default_creator"

	// DescriptionMinLen is the storage floor for descriptions, in
	// characters. Anything shorter is replaced with DescriptionPlaceholder
	// at normalization time.
	DescriptionMinLen = 20

	// DescriptionPlaceholder matches the text used by the original system.
	DescriptionPlaceholder = "Descripción no disponible. Por favor, contáctenos para más información."

	// StatusPending is the initial state of a job application.
	StatusPending = "PENDING"
)

// Job is the canonical job record. The id is the idempotency key: re-delivery
// of an envelope describing the same id never creates a second record.
type Job struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Description  string     `json:"description"`
	Requirements []string   `json:"requirements"`
	JobType      string     `json:"job_type"`
	Level        string     `json:"level"`
	SalaryRange  *string    `json:"salary_range,omitempty"`
	Location     string     `json:"location"`
	IsRemote     bool       `json:"is_remote"`
	Active       bool       `json:"active"`
	CreatorID    string     `json:"creator_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Source       *string    `json:"source,omitempty"`
	SourceURL    *string    `json:"source_url,omitempty"`
	RawJobID     *string    `json:"raw_job_id,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// Patch carries the partial fields of a job update. Nil pointers leave the
// stored column untouched.
type Patch struct {
	Title        *string
	Description  *string
	Requirements []string
	Location     *string
	SalaryRange  *string
	Active       *bool
}

// IsZero reports whether the patch would change nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Requirements == nil &&
		p.Location == nil && p.SalaryRange == nil && p.Active == nil
}

// Application is a persisted job application.
type Application struct {
	ID             string    `json:"id"`
	JobOfferID     string    `json:"job_offer_id"`
	UserID         string    `json:"user_id"`
	ApplicantName  string    `json:"applicant_name"`
	ApplicantEmail string    `json:"applicant_email"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

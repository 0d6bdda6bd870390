package job

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jobsphere/ms-job/internal/event"
	"github.com/jobsphere/ms-job/internal/ids"
)

// Overridable in tests.
var (
	now   = time.Now
	newID = ids.New
)

// Normalize maps an inbound job payload onto a canonical record draft. It is
// a pure transformation: missing optional fields resolve to defaults, never
// to a failure.
//
// The id comes from data.source_job_id when present, otherwise a fresh one is
// generated. A description shorter than DescriptionMinLen after trimming is
// replaced with the placeholder text.
func Normalize(p event.JobPayload, md event.Metadata) Job {
	ts := now().UTC()

	id := p.SourceJobID
	if id == "" {
		id = newID()
	}

	// The floor counts characters, not bytes: accented text must not slip
	// past it just because its UTF-8 encoding is longer.
	description := strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(description) < DescriptionMinLen {
		description = DescriptionPlaceholder
	}

	jobType := p.JobType
	if jobType == "" {
		jobType = NotSpecified
	}
	level := p.Level
	if level == "" {
		level = NotSpecified
	}

	requirements := p.Requirements
	if requirements == nil {
		requirements = []string{}
	}

	var source *string
	if md.Source != "" {
		s := md.Source
		source = &s
	}

	return Job{
		ID:           id,
		Title:        p.Title,
		Company:      p.Company,
		Description:  description,
		Requirements: requirements,
		JobType:      jobType,
		Level:        level,
		SalaryRange:  p.SalaryRange,
		Location:     p.Location,
		IsRemote:     p.IsRemote,
		Active:       true,
		CreatorID:    DefaultCreatorID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
		Source:       source,
		SourceURL:    p.SourceURL,
		RawJobID:     p.RawJobID,
		ProcessedAt:  md.ProcessedAt,
	}
}

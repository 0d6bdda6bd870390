// Package app hosts the application-creation workflow that triggers the
// outbound publish path.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
	"github.com/jobsphere/ms-job/internal/job"
	"github.com/jobsphere/ms-job/internal/logging"
)

// JobReader resolves the job offer an application targets.
type JobReader interface {
	Get(ctx context.Context, id string) (*job.Job, error)
}

// ApplicationWriter persists applications. Create returns only after its
// transaction has committed.
type ApplicationWriter interface {
	Create(ctx context.Context, app job.Application) (job.Application, error)
}

// EventPublisher emits the application-created event. It never reports
// failure to the caller.
type EventPublisher interface {
	ApplicationCreated(ctx context.Context, app job.Application, offer job.Job, profile json.RawMessage)
}

// Applications is the workflow service behind the apply endpoint.
type Applications struct {
	jobs      JobReader
	store     ApplicationWriter
	publisher EventPublisher
	log       logging.ServiceLogger
}

func NewApplications(jobs JobReader, store ApplicationWriter, publisher EventPublisher, log logging.ServiceLogger) *Applications {
	if log == nil {
		log = logging.Nop()
	}
	return &Applications{jobs: jobs, store: store, publisher: publisher, log: log}
}

// CreateApplicationInput is the request of the workflow.
type CreateApplicationInput struct {
	JobOfferID     string
	UserID         string
	ApplicantName  string
	ApplicantEmail string
	Profile        json.RawMessage
}

// Create persists a new application and then publishes the corresponding
// event. The publish is fire and forget: once the application row has
// committed, the workflow succeeds regardless of the broker.
func (s *Applications) Create(ctx context.Context, in CreateApplicationInput) (job.Application, error) {
	offer, err := s.jobs.Get(ctx, in.JobOfferID)
	if err != nil {
		if errors.Is(err, errspkg.ErrRecordNotFound) {
			return job.Application{}, errspkg.ErrJobOfferNotFound
		}
		return job.Application{}, fmt.Errorf("loading job offer %s: %w", in.JobOfferID, err)
	}

	app, err := s.store.Create(ctx, job.Application{
		JobOfferID:     in.JobOfferID,
		UserID:         in.UserID,
		ApplicantName:  in.ApplicantName,
		ApplicantEmail: in.ApplicantEmail,
	})
	if err != nil {
		return job.Application{}, err
	}

	s.log.Info("Application persisted", logging.LogFields{
		"application_id": app.ID,
		"job_offer_id":   app.JobOfferID,
	})

	s.publisher.ApplicationCreated(ctx, app, *offer, in.Profile)

	return app, nil
}

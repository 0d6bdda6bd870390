// Package dispatch routes inbound envelopes to their per-type handler.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
	"github.com/jobsphere/ms-job/internal/event"
	"github.com/jobsphere/ms-job/internal/job"
	"github.com/jobsphere/ms-job/internal/jsoncodec"
	"github.com/jobsphere/ms-job/internal/logging"
	"github.com/jobsphere/ms-job/internal/metrics"
)

// JobStore is the slice of the record store the dispatcher needs.
type JobStore interface {
	Upsert(ctx context.Context, j job.Job) error
	Update(ctx context.Context, id string, p job.Patch) error
	SoftDelete(ctx context.Context, id string) (bool, error)
}

// Dispatcher applies one inbound envelope at a time. It is the synchronous
// entry point invoked by the consumer loop.
type Dispatcher struct {
	store   JobStore
	log     logging.ServiceLogger
	metrics *metrics.Pipeline
	tracer  trace.Tracer
}

func New(store JobStore, log logging.ServiceLogger, m *metrics.Pipeline) (*Dispatcher, error) {
	if store == nil {
		return nil, errspkg.ErrStoreRequired
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{
		store:   store,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("msjob/dispatch"),
	}, nil
}

// Dispatch routes the envelope by its declared type. Unrecognized types are
// logged and acknowledged without touching any state; they never block commit
// advancement. Any handler failure comes back as a ProcessingError.
func (d *Dispatcher) Dispatch(ctx context.Context, env *event.Envelope) error {
	eventType := env.EventType()

	ctx, span := d.tracer.Start(ctx, "job_event.dispatch",
		trace.WithAttributes(attribute.String("event.type", env.Type)))
	defer span.End()

	var err error
	switch eventType {
	case event.TypeJobCreated:
		err = d.handleJobCreated(ctx, env)
	case event.TypeJobUpdated:
		err = d.handleJobUpdated(ctx, env)
	case event.TypeJobDeleted:
		err = d.handleJobDeleted(ctx, env)
	case event.TypeUnknown:
		d.log.Warn("Unrecognized event type, skipping", logging.LogFields{"type": env.Type})
		d.metrics.Skipped()
		return nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "event processing failed")
		d.metrics.Failed(string(eventType))
		return errspkg.NewProcessingError(string(eventType), "", err)
	}

	d.log.Info("Event processed", logging.LogFields{"type": string(eventType)})
	d.metrics.Processed(string(eventType))
	return nil
}

// handleJobCreated normalizes the payload and upserts it. The upsert is the
// idempotency mechanism: re-delivery of the same id updates title,
// description and updated_at and leaves everything else untouched.
func (d *Dispatcher) handleJobCreated(ctx context.Context, env *event.Envelope) error {
	var payload event.JobPayload
	if err := jsoncodec.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decoding job payload: %w", err)
	}

	record := job.Normalize(payload, env.Metadata)
	if err := d.store.Upsert(ctx, record); err != nil {
		return err
	}

	d.log.Info("Job record stored", logging.LogFields{
		"id":      record.ID,
		"title":   record.Title,
		"company": record.Company,
	})
	return nil
}

// handleJobUpdated applies only the fields present in the payload. A missing
// target record is logged as a warning and dropped rather than failing the
// message: updates for jobs this instance never saw are expected during
// topic replays and are harmless to skip.
func (d *Dispatcher) handleJobUpdated(ctx context.Context, env *event.Envelope) error {
	var payload event.JobUpdatePayload
	if err := jsoncodec.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decoding job update payload: %w", err)
	}
	if payload.SourceJobID == "" {
		return errors.New("job update without source_job_id")
	}

	patch := job.Patch{
		Title:        payload.Title,
		Description:  payload.Description,
		Requirements: payload.Requirements,
		Location:     payload.Location,
		SalaryRange:  payload.SalaryRange,
		Active:       payload.Active,
	}

	err := d.store.Update(ctx, payload.SourceJobID, patch)
	if errors.Is(err, errspkg.ErrRecordNotFound) {
		d.log.Warn("Update target not found, dropping event", logging.LogFields{
			"id": payload.SourceJobID,
		})
		return nil
	}
	return err
}

// handleJobDeleted soft-deletes the record. A missing record means the job is
// already gone; that is a success.
func (d *Dispatcher) handleJobDeleted(ctx context.Context, env *event.Envelope) error {
	var payload event.JobDeletePayload
	if err := jsoncodec.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decoding job delete payload: %w", err)
	}
	if payload.SourceJobID == "" {
		return errors.New("job delete without source_job_id")
	}

	found, err := d.store.SoftDelete(ctx, payload.SourceJobID)
	if err != nil {
		return err
	}
	if !found {
		d.log.Debug("Delete target already absent", logging.LogFields{
			"id": payload.SourceJobID,
		})
	}
	return nil
}

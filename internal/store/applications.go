package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobsphere/ms-job/internal/job"
)

// Applications persists job applications.
type Applications struct {
	db *pgxpool.Pool
}

func NewApplications(db *pgxpool.Pool) *Applications { return &Applications{db: db} }

// Create inserts a new application with a generated id, PENDING status and a
// fresh created_at, and returns the persisted row. The insert commits inside
// its own transaction; the caller publishes the outbound event only after
// this has returned.
func (s *Applications) Create(ctx context.Context, app job.Application) (job.Application, error) {
	app.ID = uuid.NewString()
	app.Status = job.StatusPending
	app.CreatedAt = time.Now().UTC()

	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `insert into job_applications(
id, job_offer_id, id_user, applicant_name, applicant_email, status, created_at
) values ($1,$2,$3,$4,$5,$6,$7)`,
			app.ID, app.JobOfferID, app.UserID, app.ApplicantName, app.ApplicantEmail,
			app.Status, app.CreatedAt,
		)
		return err
	})
	if err != nil {
		return job.Application{}, fmt.Errorf("creating application for job %s: %w", app.JobOfferID, err)
	}
	return app, nil
}

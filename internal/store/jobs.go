package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	errspkg "github.com/jobsphere/ms-job/internal/errors"
	"github.com/jobsphere/ms-job/internal/job"
)

const jobColumns = `id, title, company, description, requirements, job_type, level,
salary_range, location, is_remote, active, creator_id, created_at, updated_at,
source, source_url, raw_job_id, processed_at`

// Jobs is the canonical record store for job offers.
type Jobs struct {
	db *pgxpool.Pool
}

func NewJobs(db *pgxpool.Pool) *Jobs { return &Jobs{db: db} }

// Upsert inserts the record if its id is new; on conflict it overwrites only
// title, description and updated_at, preserving company, requirements,
// created_at and the source columns from the original insert. The whole
// operation commits atomically or not at all.
func (s *Jobs) Upsert(ctx context.Context, j job.Job) error {
	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `insert into job_offers(
id, title, company, description, requirements, job_type, level,
salary_range, location, is_remote, active, creator_id, created_at, updated_at,
source, source_url, raw_job_id, processed_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
on conflict (id) do update set
title = excluded.title,
description = excluded.description,
updated_at = excluded.updated_at`,
			j.ID, j.Title, j.Company, j.Description, j.Requirements, j.JobType, j.Level,
			j.SalaryRange, j.Location, j.IsRemote, j.Active, j.CreatorID, j.CreatedAt, j.UpdatedAt,
			j.Source, j.SourceURL, j.RawJobID, j.ProcessedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upserting job %s: %w", j.ID, err)
	}
	return nil
}

// Update applies only the fields present in the patch and stamps a new
// updated_at. Returns ErrRecordNotFound when no record matches the id.
func (s *Jobs) Update(ctx context.Context, id string, p job.Patch) error {
	query, args := buildJobUpdate(id, p, time.Now().UTC())

	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errspkg.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errspkg.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	return nil
}

// buildJobUpdate assembles the dynamic SET clause for a partial update.
// updated_at is always stamped, even for an otherwise empty patch.
func buildJobUpdate(id string, p job.Patch, ts time.Time) (string, []any) {
	sets := []string{"updated_at = $1"}
	args := []any{ts}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Requirements != nil {
		add("requirements", p.Requirements)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.SalaryRange != nil {
		add("salary_range", *p.SalaryRange)
	}
	if p.Active != nil {
		add("active", *p.Active)
	}

	args = append(args, id)
	query := fmt.Sprintf("update job_offers set %s where id = $%d",
		joinSets(sets), len(args))
	return query, args
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

// SoftDelete marks the record inactive. A missing record is not an error: the
// job is treated as already deleted, and found reports false.
func (s *Jobs) SoftDelete(ctx context.Context, id string) (found bool, err error) {
	err = inTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`update job_offers set active = false, updated_at = $2 where id = $1`,
			id, time.Now().UTC())
		if err != nil {
			return err
		}
		found = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("soft-deleting job %s: %w", id, err)
	}
	return found, nil
}

// Get fetches a single record by id. Returns ErrRecordNotFound when absent.
func (s *Jobs) Get(ctx context.Context, id string) (*job.Job, error) {
	row := s.db.QueryRow(ctx,
		`select `+jobColumns+` from job_offers where id = $1`, id)

	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errspkg.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fetching job %s: %w", id, err)
	}
	return j, nil
}

// List returns a page of records, optionally restricted to active ones.
func (s *Jobs) List(ctx context.Context, offset, limit int, activeOnly bool) ([]job.Job, error) {
	query := `select ` + jobColumns + ` from job_offers`
	if activeOnly {
		query += ` where active = true`
	}
	query += ` order by created_at desc offset $1 limit $2`

	rows, err := s.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// Search filters by title and location substrings and reports the total
// matching count for pagination.
func (s *Jobs) Search(ctx context.Context, q, location string, offset, limit int) ([]job.Job, int, error) {
	where := ` where ($1 = '' or title ilike '%' || $1 || '%')
and ($2 = '' or location ilike '%' || $2 || '%')`

	var total int
	if err := s.db.QueryRow(ctx, `select count(*) from job_offers`+where, q, location).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting jobs: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`select `+jobColumns+` from job_offers`+where+` order by created_at desc offset $3 limit $4`,
		q, location, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("searching jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func collectJobs(rows pgx.Rows) ([]job.Job, error) {
	jobs := []job.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var j job.Job
	err := row.Scan(
		&j.ID, &j.Title, &j.Company, &j.Description, &j.Requirements, &j.JobType, &j.Level,
		&j.SalaryRange, &j.Location, &j.IsRemote, &j.Active, &j.CreatorID, &j.CreatedAt, &j.UpdatedAt,
		&j.Source, &j.SourceURL, &j.RawJobID, &j.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

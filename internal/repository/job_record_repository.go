package repository

import (
	"context"
	"fmt"

	"job-portal/internal/database"
	"job-portal/internal/domain/job"

	"github.com/google/uuid"
)

// JobRecordRepository persists a session's store as an ordered list.
// Position 0 is the newest record.
type JobRecordRepository interface {
	ReplaceAll(ctx context.Context, sessionID uuid.UUID, records []job.Record) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]job.Record, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type PostgresJobRecordRepository struct {
	db database.DB
}

func NewPostgresJobRecordRepository(db database.DB) *PostgresJobRecordRepository {
	return &PostgresJobRecordRepository{db: db}
}

const insertJobRecord = `INSERT INTO job_records (
	session_id, position, record_id,
	company_name, job_title, job_description, eligibility_criteria,
	salary_package, location, application_deadline, posted_at, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (r *PostgresJobRecordRepository) ReplaceAll(ctx context.Context, sessionID uuid.UUID, records []job.Record) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM job_records WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
		for i, rec := range records {
			d := rec.Draft
			_, err := tx.Exec(ctx, insertJobRecord,
				sessionID, i, rec.ID,
				d.CompanyName, d.JobTitle, d.JobDescription, d.EligibilityCriteria,
				d.SalaryPackage, d.Location, d.ApplicationDeadline, d.PostedAt, rec.CreatedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("insert record %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *PostgresJobRecordRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]job.Record, error) {
	rows, err := r.db.Query(ctx, `
SELECT record_id, company_name, job_title, job_description, eligibility_criteria,
	salary_package, location, application_deadline, posted_at, created_at
FROM job_records
WHERE session_id = $1
ORDER BY position ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Record, 0, 16)
	for rows.Next() {
		var rec job.Record
		d := &rec.Draft
		if err := rows.Scan(
			&rec.ID, &d.CompanyName, &d.JobTitle, &d.JobDescription, &d.EligibilityCriteria,
			&d.SalaryPackage, &d.Location, &d.ApplicationDeadline, &d.PostedAt, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresJobRecordRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return r.db.Exec(ctx, `DELETE FROM job_records WHERE session_id = $1`, sessionID)
}

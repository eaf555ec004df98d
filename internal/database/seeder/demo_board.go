package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"job-portal/internal/database"
	"job-portal/internal/domain/job"
	"job-portal/internal/repository"

	"github.com/google/uuid"
)

var ErrBoardNotEmpty = errors.New("session board is not empty")

// DemoBoardSeeder writes a sample board as the saved snapshot of one session.
type DemoBoardSeeder struct {
	SessionID uuid.UUID
	Now       time.Time
	// Force replaces a board that already has records.
	Force bool
}

func (DemoBoardSeeder) Name() string { return "demo_board" }

func (s DemoBoardSeeder) Run(ctx context.Context, db database.DB) error {
	if s.SessionID == uuid.Nil {
		return fmt.Errorf("nil session id")
	}
	if err := EnsureTableColumns(ctx, db, "job_records",
		"session_id",
		"position",
		"record_id",
		"company_name",
		"job_title",
		"job_description",
		"eligibility_criteria",
		"salary_package",
		"location",
		"application_deadline",
		"posted_at",
		"created_at",
	); err != nil {
		return err
	}

	repo := repository.NewPostgresJobRecordRepository(db)
	if !s.Force {
		existing, err := repo.ListBySession(ctx, s.SessionID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%s: %w", s.SessionID, ErrBoardNotEmpty)
		}
	}

	return repo.ReplaceAll(ctx, s.SessionID, DemoRecords(s.Now))
}

// DemoRecords is the sample board, newest first, stamped relative to now.
func DemoRecords(now time.Time) []job.Record {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC().Truncate(time.Minute)

	items := []job.Draft{
		{
			CompanyName:         "Northwind Analytics",
			JobTitle:            "Backend Engineer (Go)",
			JobDescription:      "Build and run Go services behind the analytics dashboard.",
			EligibilityCriteria: "B.E./B.Tech CS or IT, 2026 batch, 7.0 CGPA",
			SalaryPackage:       "14 LPA",
			Location:            "Bengaluru",
		},
		{
			CompanyName:         "Contoso Retail",
			JobTitle:            "Data Analyst",
			JobDescription:      "Own weekly sales reporting and demand forecasts.",
			EligibilityCriteria: "Any graduate with SQL coursework",
			SalaryPackage:       "8 LPA",
			Location:            "Pune",
		},
		{
			CompanyName:         "Fabrikam Systems",
			JobTitle:            "QA Automation Engineer",
			JobDescription:      "Write and maintain end to end test suites for the billing platform.",
			EligibilityCriteria: "B.Tech, no active backlogs",
			SalaryPackage:       "9.5 LPA",
			Location:            "Hyderabad",
		},
		{
			CompanyName:         "Tailspin Mobility",
			JobTitle:            "Android Developer",
			JobDescription:      "Ship features in the rider app used by two million people.",
			EligibilityCriteria: "B.Tech/MCA, Kotlin project experience",
			SalaryPackage:       "12 LPA",
			Location:            "Chennai",
		},
		{
			CompanyName:         "Woodgrove Bank",
			JobTitle:            "Graduate Engineer Trainee",
			JobDescription:      "Rotational programme across platform, security and payments teams.",
			EligibilityCriteria: "B.E./B.Tech any branch, 6.5 CGPA",
			SalaryPackage:       "7 LPA",
			Location:            "Mumbai",
		},
		{
			CompanyName:         "Litware Cloud",
			JobTitle:            "Site Reliability Intern",
			JobDescription:      "Six month internship on the on-call tooling team.",
			EligibilityCriteria: "Pre-final year students, Linux basics",
			SalaryPackage:       "40k per month stipend",
			Location:            "Remote",
		},
	}

	out := make([]job.Record, 0, len(items))
	for i, d := range items {
		posted := now.Add(-time.Duration(i) * 26 * time.Hour)
		d.PostedAt = posted.Format("2006-01-02T15:04")
		d.ApplicationDeadline = posted.AddDate(0, 0, 30).Format("2006-01-02")
		out = append(out, job.Record{
			ID:        uuid.New(),
			Draft:     d,
			CreatedAt: posted,
		})
	}
	return out
}

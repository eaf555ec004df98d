package job

import (
	"time"

	"github.com/google/uuid"
)

// Draft holds the form values of a job posting that has not been committed yet.
// All values are opaque strings, dates included.
type Draft struct {
	CompanyName         string `json:"company_name"`
	JobTitle            string `json:"job_title"`
	JobDescription      string `json:"job_description"`
	EligibilityCriteria string `json:"eligibility_criteria"`
	SalaryPackage       string `json:"salary_package"`
	Location            string `json:"location"`
	ApplicationDeadline string `json:"application_deadline"`
	PostedAt            string `json:"posted_at"`
}

// Record is a committed job posting. ID is assigned once at creation and
// survives updates; position in the store is not part of its identity.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Draft     Draft     `json:"draft"`
	CreatedAt time.Time `json:"created_at"`
}

type field struct {
	name  string
	value func(Draft) string
}

var draftFields = []field{
	{"company_name", func(d Draft) string { return d.CompanyName }},
	{"job_title", func(d Draft) string { return d.JobTitle }},
	{"job_description", func(d Draft) string { return d.JobDescription }},
	{"eligibility_criteria", func(d Draft) string { return d.EligibilityCriteria }},
	{"salary_package", func(d Draft) string { return d.SalaryPackage }},
	{"location", func(d Draft) string { return d.Location }},
	{"application_deadline", func(d Draft) string { return d.ApplicationDeadline }},
	{"posted_at", func(d Draft) string { return d.PostedAt }},
}

package seeder

import (
	"context"

	"job-portal/internal/database"
)

// Seeder writes fixture data into a migrated schema.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}

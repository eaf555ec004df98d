package seeder

import (
	"context"
	"errors"
	"testing"
	"time"

	"job-portal/internal/database"
	"job-portal/internal/domain/job"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSeeder struct {
	name string
	err  error
	ran  *[]string
}

func (s stubSeeder) Name() string { return s.name }

func (s stubSeeder) Run(ctx context.Context, db database.DB) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func TestDemoRecords(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 45, 30, 0, time.UTC)
	recs := DemoRecords(now)
	require.NotEmpty(t, recs)

	ids := map[uuid.UUID]struct{}{}
	for i, r := range recs {
		require.NoError(t, job.Validate(r.Draft), "record %d", i)
		ids[r.ID] = struct{}{}
		if i > 0 {
			assert.True(t, r.CreatedAt.Before(recs[i-1].CreatedAt), "newest first")
		}
	}
	assert.Len(t, ids, len(recs))
	assert.Equal(t, "2026-10-17T10:45", recs[0].Draft.PostedAt)
	assert.Equal(t, "2026-11-16", recs[0].Draft.ApplicationDeadline)
}

func TestRunner(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	r := Runner{Seeders: []Seeder{
		stubSeeder{name: "a", ran: &ran},
		nil,
		stubSeeder{name: "b", err: boom, ran: &ran},
		stubSeeder{name: "c", ran: &ran},
	}}

	err := r.Run(context.Background(), nil)
	require.Error(t, err)

	var db database.DB = fakeDB{}
	err = r.Run(context.Background(), db)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "seed b")
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestDemoBoardSeeder_NeedsSession(t *testing.T) {
	err := DemoBoardSeeder{}.Run(context.Background(), fakeDB{})
	assert.ErrorContains(t, err, "nil session id")
}

type fakeDB struct{ database.DB }

type columnsDB struct {
	database.DB
	cols []string
}

func (d columnsDB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return &columnRows{cols: d.cols, i: -1}, nil
}

type columnRows struct {
	cols []string
	i    int
}

func (r *columnRows) Close()     {}
func (r *columnRows) Err() error { return nil }
func (r *columnRows) Next() bool {
	r.i++
	return r.i < len(r.cols)
}
func (r *columnRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.cols[r.i]
	return nil
}

func TestEnsureTableColumns(t *testing.T) {
	db := columnsDB{cols: []string{"session_id", "position", "record_id"}}
	ctx := context.Background()

	require.NoError(t, EnsureTableColumns(ctx, db, "job_records", "session_id", "record_id"))

	err := EnsureTableColumns(ctx, db, "job_records", "session_id", "posted_at")
	assert.ErrorContains(t, err, "missing column job_records.posted_at")

	err = DemoBoardSeeder{SessionID: uuid.New()}.Run(ctx, db)
	assert.ErrorContains(t, err, "schema mismatch")
}

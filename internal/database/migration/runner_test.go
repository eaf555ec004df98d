package migration

import (
	"context"
	"testing"
	"testing/fstest"

	"job-portal/internal/database/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__later.sql":    {Data: []byte("SELECT 10;")},
		"V2__second.sql":    {Data: []byte("  SELECT 2;\n")},
		"README.md":         {Data: []byte("ignored")},
		"V1__first.sql":     {Data: []byte("SELECT 1;")},
		"notes/V3__x.sql":   {Data: []byte("SELECT 3;")},
		"v4__lowercase.sql": {Data: []byte("SELECT 4;")},
	}

	migs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int64{1, 2, 10}, []int64{migs[0].Version, migs[1].Version, migs[2].Version})
	assert.Equal(t, "second", migs[1].Name)
	assert.Equal(t, "SELECT 2;", migs[1].SQL)
	assert.Len(t, migs[0].Checksum, 64)
}

func TestLoad_RejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := Load(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version")

	_, err = Load(fstest.MapFS{"V1__a.sql": {Data: []byte("   ")}})
	assert.ErrorContains(t, err, "empty migration file")
}

func TestLoad_EmbeddedSchema(t *testing.T) {
	migs, err := Load(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, int64(1), migs[0].Version)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS job_records")
}

func TestPending(t *testing.T) {
	migs, err := Load(fstest.MapFS{
		"V1__a.sql": {Data: []byte("SELECT 1;")},
		"V2__b.sql": {Data: []byte("SELECT 2;")},
		"V3__c.sql": {Data: []byte("SELECT 3;")},
	})
	require.NoError(t, err)

	pending, err := Pending(migs, map[int64]string{1: migs[0].Checksum})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Name)
	assert.Equal(t, "c", pending[1].Name)

	pending, err = Pending(migs, map[int64]string{1: migs[0].Checksum, 2: migs[1].Checksum, 3: migs[2].Checksum})
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = Pending(migs, map[int64]string{2: "edited"})
	assert.ErrorContains(t, err, "checksum mismatch: version=2")
}

func TestRunner_RequiresInputs(t *testing.T) {
	_, err := Runner{FS: migrations.FS}.Run(context.Background(), nil)
	assert.ErrorContains(t, err, "nil db")
}

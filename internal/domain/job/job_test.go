package job

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeDraft(company, title string) Draft {
	return Draft{
		CompanyName:         company,
		JobTitle:            title,
		JobDescription:      "Build things",
		EligibilityCriteria: "B.Tech",
		SalaryPackage:       "12 LPA",
		Location:            "Pune",
		ApplicationDeadline: "2026-12-01",
		PostedAt:            "2026-10-01T09:00",
	}
}

func newRecord(company, title string) Record {
	return Record{ID: uuid.New(), Draft: completeDraft(company, title)}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(completeDraft("Acme", "SDE")))

	blanks := []func(*Draft){
		func(d *Draft) { d.CompanyName = "" },
		func(d *Draft) { d.JobTitle = "   " },
		func(d *Draft) { d.JobDescription = "\t" },
		func(d *Draft) { d.EligibilityCriteria = "" },
		func(d *Draft) { d.SalaryPackage = "" },
		func(d *Draft) { d.Location = "\n" },
		func(d *Draft) { d.ApplicationDeadline = "" },
		func(d *Draft) { d.PostedAt = " " },
	}
	for i, blank := range blanks {
		d := completeDraft("Acme", "SDE")
		blank(&d)
		err := Validate(d)
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.Is(err, ErrIncompleteDraft))
		assert.Len(t, MissingFields(d), 1)
	}

	err := Validate(Draft{})
	require.ErrorIs(t, err, ErrIncompleteDraft)
	assert.Len(t, MissingFields(Draft{}), 8)
	assert.Contains(t, err.Error(), "company_name")
}

func TestValidate_NoFormatChecks(t *testing.T) {
	d := completeDraft("Acme", "SDE")
	d.SalaryPackage = "competitive"
	d.ApplicationDeadline = "whenever"
	require.NoError(t, Validate(d))
}

func TestStore_InsertReplaceRemove(t *testing.T) {
	s := NewStore()
	a, b, c := newRecord("A", "x"), newRecord("B", "y"), newRecord("C", "z")
	s.InsertFront(a)
	s.InsertFront(b)
	s.InsertFront(c)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.IndexOf(c.ID))
	assert.Equal(t, 2, s.IndexOf(a.ID))

	repl := Record{ID: uuid.New(), Draft: completeDraft("B2", "y2")}
	require.NoError(t, s.ReplaceAt(1, repl))
	got, err := s.At(1)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID, "slot keeps its id")
	assert.Equal(t, "B2", got.Draft.CompanyName)

	require.NoError(t, s.RemoveAt(0))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, s.IndexOf(b.ID))
	assert.Equal(t, -1, s.IndexOf(c.ID))

	assert.ErrorIs(t, s.ReplaceAt(2, repl), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.ReplaceAt(-1, repl), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.RemoveAt(5), ErrIndexOutOfRange)
	_, err = s.At(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, -1, s.IndexOf(uuid.Nil))
}

func TestStore_RecordsIsACopy(t *testing.T) {
	s := NewStore()
	s.InsertFront(newRecord("A", "x"))
	out := s.Records()
	out[0].Draft.CompanyName = "mutated"
	got, _ := s.At(0)
	assert.Equal(t, "A", got.Draft.CompanyName)
}

func TestFilter_CaseInsensitiveSubstringInOrder(t *testing.T) {
	records := []Record{
		newRecord("Acme Corp", "Backend"),
		newRecord("Globex", "ACME liaison"),
		newRecord("Initech", "Frontend"),
		newRecord("acmeish", "QA"),
	}
	out := Filter(records, "aCmE")
	require.Len(t, out, 3)
	assert.Equal(t, records[0].ID, out[0].ID)
	assert.Equal(t, records[1].ID, out[1].ID)
	assert.Equal(t, records[3].ID, out[2].ID)

	assert.Len(t, Filter(records, ""), 4)
	assert.Empty(t, Filter(records, "Pune"), "location is not searched")

	for _, q := range []string{"a", "end", "x", "INI"} {
		got := Filter(records, q)
		var want []uuid.UUID
		for _, r := range records {
			if strings.Contains(strings.ToLower(r.Draft.CompanyName), strings.ToLower(q)) ||
				strings.Contains(strings.ToLower(r.Draft.JobTitle), strings.ToLower(q)) {
				want = append(want, r.ID)
			}
		}
		gotIDs := make([]uuid.UUID, 0, len(got))
		for _, r := range got {
			gotIDs = append(gotIDs, r.ID)
		}
		if len(want) == 0 {
			assert.Empty(t, gotIDs, q)
			continue
		}
		assert.Equal(t, want, gotIDs, q)
	}
}

func TestPagination_Bounds(t *testing.T) {
	for n := 0; n <= 23; n++ {
		records := make([]Record, n)
		for i := range records {
			records[i] = newRecord(fmt.Sprintf("C%d", i), "T")
		}
		total := TotalPages(n)
		want := (n + 4) / 5
		if want == 0 {
			want = 1
		}
		require.Equal(t, want, total, "n=%d", n)

		for page := 1; page <= total; page++ {
			assert.LessOrEqual(t, len(PageWindow(records, page)), PageSize)
		}
		last := PageWindow(records, total)
		switch {
		case n == 0:
			assert.Empty(t, last)
		case n%5 == 0:
			assert.Len(t, last, 5)
		default:
			assert.Len(t, last, n%5)
		}
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 12))
	assert.Equal(t, 3, ClampPage(9, 12))
	assert.Equal(t, 2, ClampPage(2, 12))
	assert.Equal(t, 1, ClampPage(4, 0))
}

func TestProject_ShowPagination(t *testing.T) {
	p := Project(nil, "acme", 1)
	assert.Empty(t, p.Visible)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.ShowPagination())

	p = Project([]Record{newRecord("Acme", "SDE")}, "", 1)
	assert.True(t, p.ShowPagination())
}

func TestCanonicalIndex_UsesIdentityNotOffset(t *testing.T) {
	s := NewStore()
	// Insert oldest first so the store reads newest-first:
	// 0: Zeta/Ops  1: Acme/SDE2  2: Beta/Ops  3: Acme/SDE1
	s.InsertFront(newRecord("Acme", "SDE1"))
	s.InsertFront(newRecord("Beta", "Ops"))
	s.InsertFront(newRecord("Acme", "SDE2"))
	s.InsertFront(newRecord("Zeta", "Ops"))

	p := Project(s.Records(), "acme", 1)
	require.Len(t, p.Visible, 2)

	idx, err := CanonicalIndex(s, p, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = CanonicalIndex(s, p, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	_, err = CanonicalIndex(s, p, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCanonicalIndex_SecondPage(t *testing.T) {
	s := NewStore()
	for i := 0; i < 12; i++ {
		company := "Other"
		if i%2 == 0 {
			company = "Acme"
		}
		s.InsertFront(newRecord(company, fmt.Sprintf("role-%d", i)))
	}
	p := Project(s.Records(), "acme", 2)
	require.Len(t, p.Visible, 1)

	idx, err := CanonicalIndex(s, p, 0)
	require.NoError(t, err)
	rec, _ := s.At(idx)
	assert.Equal(t, p.Visible[0].ID, rec.ID)
	assert.Equal(t, "role-0", rec.Draft.JobTitle)
	assert.NotEqual(t, 5, idx)
}

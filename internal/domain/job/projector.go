package job

import (
	"strings"

	"github.com/google/uuid"
)

const PageSize = 5

// Matches reports whether text occurs, case-insensitively, in the company
// name or the job title of r. Empty text matches everything.
func Matches(text string, r Record) bool {
	q := strings.ToLower(text)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Draft.CompanyName), q) ||
		strings.Contains(strings.ToLower(r.Draft.JobTitle), q)
}

// Filter keeps the records matching text, in store order.
func Filter(records []Record, text string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(text, r) {
			out = append(out, r)
		}
	}
	return out
}

// TotalPages is ceil(n/PageSize), never less than 1.
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage pulls page into [1, TotalPages(n)].
func ClampPage(page, n int) int {
	if page < 1 {
		return 1
	}
	if total := TotalPages(n); page > total {
		return total
	}
	return page
}

// PageWindow returns the slice of filtered shown on page.
func PageWindow(filtered []Record, page int) []Record {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start >= len(filtered) {
		return []Record{}
	}
	end := start + PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// Projection is the derived view of a store under a filter and a page.
type Projection struct {
	Filtered    []Record
	Visible     []Record
	CurrentPage int
	TotalPages  int
}

func (p Projection) ShowPagination() bool {
	return len(p.Filtered) > 0
}

// Project recomputes the projection from scratch; nothing is cached.
func Project(records []Record, text string, page int) Projection {
	filtered := Filter(records, text)
	return Projection{
		Filtered:    filtered,
		Visible:     PageWindow(filtered, page),
		CurrentPage: page,
		TotalPages:  TotalPages(len(filtered)),
	}
}

// Resolve maps a visible-row index to the id of the record it shows.
func (p Projection) Resolve(visibleIndex int) (uuid.UUID, error) {
	if visibleIndex < 0 || visibleIndex >= len(p.Visible) {
		return uuid.Nil, ErrIndexOutOfRange
	}
	return p.Visible[visibleIndex].ID, nil
}

// CanonicalIndex maps a visible-row index to the record's position in the
// unfiltered store, going through the record id.
func CanonicalIndex(s *Store, p Projection, visibleIndex int) (int, error) {
	id, err := p.Resolve(visibleIndex)
	if err != nil {
		return -1, err
	}
	idx := s.IndexOf(id)
	if idx < 0 {
		return -1, ErrIndexOutOfRange
	}
	return idx, nil
}

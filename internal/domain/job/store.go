package job

import (
	"errors"

	"github.com/google/uuid"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// Store is the canonical, newest-first sequence of records. It is not safe
// for concurrent use; the portal controller owns it.
type Store struct {
	records []Record
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) InsertFront(r Record) {
	s.records = append(s.records, Record{})
	copy(s.records[1:], s.records)
	s.records[0] = r
}

// ReplaceAt swaps the record at index. The slot keeps its id and creation time.
func (s *Store) ReplaceAt(index int, r Record) error {
	if index < 0 || index >= len(s.records) {
		return ErrIndexOutOfRange
	}
	old := s.records[index]
	r.ID = old.ID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = old.CreatedAt
	}
	s.records[index] = r
	return nil
}

func (s *Store) RemoveAt(index int) error {
	if index < 0 || index >= len(s.records) {
		return ErrIndexOutOfRange
	}
	s.records = append(s.records[:index], s.records[index+1:]...)
	return nil
}

func (s *Store) At(index int) (Record, error) {
	if index < 0 || index >= len(s.records) {
		return Record{}, ErrIndexOutOfRange
	}
	return s.records[index], nil
}

// IndexOf returns the canonical index of the record with id, or -1.
func (s *Store) IndexOf(id uuid.UUID) int {
	if id == uuid.Nil {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Reset(records []Record) {
	s.records = make([]Record, len(records))
	copy(s.records, records)
}

package models

import (
	"sync"

	"github.com/mmdatafocus/vehicle_sales_backend/utils"
)

const (
	minInsertChunk = 500
	maxInsertChunk = 2000
)

// Store is the process-wide in-memory record set. All state is lost on
// restart; a fresh upload supersedes everything via Clear + InsertBatch.
//
// Every operation holds the mutex for its full duration, so ids stay dense
// and mutations never interleave mid-record.
type Store struct {
	mu      sync.RWMutex
	records map[int]SalesRecord
	order   []int
	nextID  int

	optionCache *FilterOptions
}

func NewStore() *Store {
	return &Store{
		records: make(map[int]SalesRecord),
		nextID:  1,
	}
}

// Insert assigns the next sequential id and stores the record. Returns the
// stored record including its id.
func (s *Store) Insert(record SalesRecord) SalesRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(record)
}

func (s *Store) insertLocked(record SalesRecord) SalesRecord {
	record.ID = s.nextID
	s.nextID++
	s.records[record.ID] = record
	s.order = append(s.order, record.ID)
	s.optionCache = nil
	return record
}

// InsertBatch inserts records in input order, chunking internally so one very
// large upload does not hold the lock in a single uninterrupted sweep. Ids
// follow input order.
func (s *Store) InsertBatch(records []SalesRecord) []SalesRecord {
	chunk := len(records) / 10
	if chunk < minInsertChunk {
		chunk = minInsertChunk
	}
	if chunk > maxInsertChunk {
		chunk = maxInsertChunk
	}

	out := make([]SalesRecord, 0, len(records))
	for start := 0; start < len(records); start += chunk {
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		s.mu.Lock()
		for _, r := range records[start:end] {
			out = append(out, s.insertLocked(r))
		}
		s.mu.Unlock()
	}
	return out
}

// Clear removes all records, resets the id counter and drops cached derived
// data.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	s.records = make(map[int]SalesRecord)
	s.order = nil
	s.nextID = 1
	s.optionCache = nil
	return n
}

// GetAll returns a copy of all records in insertion order. Callers must not
// depend on the ordering.
func (s *Store) GetAll() []SalesRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SalesRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// UpdateCoordinates mutates only the coordinate fields of the identified
// record. Unknown ids return ErrorRecordNotFound: the enricher may race a
// Clear from a newer upload, and losing that race is tolerated by callers.
func (s *Store) UpdateCoordinates(id int, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	record.Latitude = lat
	record.Longitude = lon
	s.records[id] = record
	return nil
}

// DistinctOptions returns the distinct non-empty values per filter dimension
// across the whole store. The result is cached until the next mutation.
func (s *Store) DistinctOptions() FilterOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.optionCache != nil {
		return *s.optionCache
	}
	all := make([]SalesRecord, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.records[id])
	}
	opts := collectOptions(all)
	s.optionCache = &opts
	return opts
}

// Package ledger persists attendance records in a single spreadsheet file.
//
// The store keeps the full table in memory and rewrites the whole workbook on
// every append. That is deliberately simple: the device fleet this serves is
// one scanner in a classroom, not a high-throughput log.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrStorageInit reports that the ledger file could not be read or created.
	ErrStorageInit = errors.New("ledger: storage init failed")
	// ErrPersist reports a failed rewrite. The in-memory table may be ahead
	// of disk after this error; no rollback is performed.
	ErrPersist = errors.New("ledger: persist failed")
)

const sheet = "Sheet1"

var header = []string{"timestamp", "device_id", "token", "pin", "method"}

// Record is one row of the attendance ledger. Records are immutable once
// appended; position in the table is their only identity.
type Record struct {
	Timestamp string `json:"timestamp"`
	DeviceID  string `json:"device_id"`
	Token     string `json:"token"`
	PIN       string `json:"pin"`
	Method    string `json:"method"`
}

// Store is an append-only attendance table backed by an xlsx workbook.
// A single mutex serializes the read-modify-write cycle so concurrent
// appends cannot interleave their full-table rewrites.
type Store struct {
	mu      sync.Mutex
	path    string
	records []Record
}

// Open loads the workbook at path, or creates a new one with the header row
// when none exists yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: stat %s: %v", ErrStorageInit, path, err)
		}
		if err := s.persist(); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ErrStorageInit, path, err)
		}
		return s, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageInit, path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageInit, path, err)
	}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		s.records = append(s.records, fromRow(row))
	}
	return s, nil
}

// Append adds rec to the table and synchronously rewrites the workbook.
// On a persist failure the record stays in memory; disk is now behind.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if err := s.persist(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// ListAll returns a snapshot of every record in insertion order.
func (s *Store) ListAll() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the number of records currently in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// persist rewrites the entire table. Callers hold s.mu (or, in Open, own the
// store exclusively).
func (s *Store) persist() error {
	f := excelize.NewFile()
	defer f.Close()

	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	for i, rec := range s.records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.Timestamp, rec.DeviceID, rec.Token, rec.PIN, rec.Method}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(s.path)
}

func fromRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Timestamp: cell(0),
		DeviceID:  cell(1),
		Token:     cell(2),
		PIN:       cell(3),
		Method:    cell(4),
	}
}

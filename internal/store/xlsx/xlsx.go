// Package xlsx stores registrations in a single-sheet Excel workbook on disk.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"regform/internal/models"
	"regform/internal/store"
)

// DefaultPath is the workbook used when no location is configured.
const DefaultPath = "participants.xlsx"

type Store struct {
	mu    sync.Mutex
	path  string
	file  *excelize.File
	sheet string
}

var _ store.Store = (*Store)(nil)

// Open opens the workbook at path, or creates it with the header row when it
// does not exist yet.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f, err = create(path)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("%w: open %s: %v", store.ErrStorageUnavailable, path, err)
	default:
		if err := checkWritable(path); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	s := &Store{
		path:  path,
		file:  f,
		sheet: f.GetSheetName(f.GetActiveSheetIndex()),
	}

	rows, err := s.file.GetRows(s.sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrStorageUnavailable, path, err)
	}
	if len(rows) == 0 {
		// existing but blank workbook
		if err := s.writeRow(1, models.Header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
		}
		if err := s.file.Save(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: save %s: %v", store.ErrStorageUnavailable, path, err)
		}
	}
	return s, nil
}

func create(path string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	header := toCells(models.Header)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: write header: %v", store.ErrStorageUnavailable, err)
	}
	if err := f.SaveAs(path); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: create %s: %v", store.ErrStorageUnavailable, path, err)
	}
	return f, nil
}

func checkWritable(path string) error {
	fh, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", store.ErrStorageUnavailable, path, err)
	}
	return fh.Close()
}

// Path returns the workbook location.
func (s *Store) Path() string { return s.path }

func (s *Store) dataRows() ([][]string, error) {
	rows, err := s.file.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrStorageUnavailable, s.path, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (s *Store) LookupSets(_ context.Context) (models.LookupSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.dataRows()
	if err != nil {
		return models.LookupSet{}, err
	}
	return models.NewLookupSet(rows), nil
}

func (s *Store) TeamMemberCount(_ context.Context, team string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.dataRows()
	if err != nil {
		return 0, err
	}
	return models.CountTeamMembers(rows, team), nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.dataRows()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Append writes r after the last row and saves the workbook. If saving fails
// the row is removed again. Values a cell can't hold unchanged are refused
// before anything is written.
func (s *Store) Append(_ context.Context, r models.Registration) error {
	values := r.Row()
	for i, v := range values {
		if err := store.CheckCell(v, excelize.TotalCellChars); err != nil {
			return fmt.Errorf("%w: column %s: %v", store.ErrPersistFailure, models.Header[i], err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", store.ErrPersistFailure, s.path, err)
	}
	next := len(rows) + 1

	if err := s.writeRow(next, values); err != nil {
		_ = s.file.RemoveRow(s.sheet, next)
		return fmt.Errorf("%w: %v", store.ErrPersistFailure, err)
	}
	if err := s.file.Save(); err != nil {
		if rerr := s.file.RemoveRow(s.sheet, next); rerr != nil {
			return fmt.Errorf("%w: save %s: %v (rollback: %v)", store.ErrPersistFailure, s.path, err, rerr)
		}
		return fmt.Errorf("%w: save %s: %v", store.ErrPersistFailure, s.path, err)
	}
	return nil
}

func (s *Store) writeRow(row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := toCells(values)
	return s.file.SetSheetRow(s.sheet, cell, &cells)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

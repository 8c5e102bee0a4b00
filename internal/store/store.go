// Package store defines the append-only registration store and picks a backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"regform/internal/models"
)

var (
	// ErrStorageUnavailable is returned when a store can't be opened or read.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPersistFailure is returned when an append could not be written.
	// The store is left as it was before the append.
	ErrPersistFailure = errors.New("persist failure")
)

// Store is an append-only table of registrations.
type Store interface {
	// LookupSets scans every data row and returns the known emails, phones and teams.
	LookupSets(ctx context.Context) (models.LookupSet, error)

	// TeamMemberCount counts rows whose team name matches team, case-insensitively.
	TeamMemberCount(ctx context.Context, team string) (int, error)

	// Append adds r as a new row and persists it before returning.
	Append(ctx context.Context, r models.Registration) error

	// Count returns the number of data rows.
	Count(ctx context.Context) (int, error)

	Close() error
}

// CheckCell returns an error when v would not read back unchanged from a text
// cell that holds at most maxChars characters. Invalid UTF-8 and characters
// outside the XML 1.0 range are rewritten by spreadsheet writers, and longer
// values are cut.
func CheckCell(v string, maxChars int) error {
	if !utf8.ValidString(v) {
		return errors.New("value is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(v); n > maxChars {
		return fmt.Errorf("value has %d characters, limit is %d", n, maxChars)
	}
	for i, r := range v {
		if !xmlChar(r) {
			return fmt.Errorf("value has unsupported character %U at byte %d", r, i)
		}
	}
	return nil
}

func xmlChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

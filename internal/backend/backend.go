// Package backend opens the store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"regform/internal/config"
	"regform/internal/store"
	"regform/internal/store/sheets"
	"regform/internal/store/sqlite"
	"regform/internal/store/xlsx"
)

// Open returns the configured store. Open failures wrap store.ErrStorageUnavailable.
func Open(ctx context.Context, cfg config.Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendXLSX, "":
		var x *xlsx.Store
		if x, err = xlsx.Open(cfg.Store.Path); err == nil {
			s = x
		}
	case config.BackendSQLite:
		var q *sqlite.Store
		if q, err = sqlite.Open(ctx, cfg.Store.Path); err == nil {
			s = q
		}
	case config.BackendSheets:
		var c *sheets.Client
		if c, err = sheets.New(ctx, cfg.Sheets.GoogleServiceAccountJSON, cfg.Sheets.SpreadsheetID, cfg.Sheets.Sheet); err == nil {
			s = c
		}
	default:
		err = fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Package sheets stores registrations in one sheet of a Google spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"regform/internal/store"
)

// DefaultSheet is the sheet name used when none is configured.
const DefaultSheet = "Participants"

type Client struct {
	mu sync.Mutex

	srv           *sheetsv4.Service
	spreadsheetID string
	sheet         string
}

var _ store.Store = (*Client)(nil)

// New connects with a service account key file and makes sure the sheet
// carries the header row.
func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID, sheet string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("%w: service account json: %v", store.ErrStorageUnavailable, err)
	}
	return NewWithOptions(ctx, spreadsheetID, sheet,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
}

// NewWithOptions is New with explicit client options, e.g. a custom endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID, sheet string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", store.ErrStorageUnavailable)
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	srv, err := sheetsv4.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}
	c := &Client{srv: srv, spreadsheetID: spreadsheetID, sheet: sheet}
	if err := c.EnsureHeaders(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

func (c *Client) Close() error { return nil }

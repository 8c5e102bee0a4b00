package sheets

import (
	"context"
	"fmt"
	"strings"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"regform/internal/models"
	"regform/internal/store"
)

// maxCellChars is the Sheets limit on characters in one cell.
const maxCellChars = 50000

func (c *Client) dataRange() string {
	return c.a1("A:H")
}

// a1 prefixes cells with the quoted sheet name.
func (c *Client) a1(cells string) string {
	return "'" + strings.ReplaceAll(c.sheet, "'", "''") + "'!" + cells
}

func (c *Client) readAll(ctx context.Context) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, c.dataRange(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (c *Client) updateRange(ctx context.Context, cells string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, c.a1(cells), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// EnsureHeaders writes the header row into an empty sheet.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.readAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: read sheet %q: %v", store.ErrStorageUnavailable, c.sheet, err)
	}
	if len(values) > 0 {
		return nil
	}
	if err := c.updateRange(ctx, "A1:H1", toCells(models.Header)); err != nil {
		return fmt.Errorf("%w: write header: %v", store.ErrStorageUnavailable, err)
	}
	return nil
}

// dataRows reads every row but the header as strings.
func (c *Client) dataRows(ctx context.Context) ([][]string, error) {
	values, err := c.readAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", store.ErrStorageUnavailable, c.sheet, err)
	}
	rows := [][]string{}
	// header row at index 0
	for i := 1; i < len(values); i++ {
		row := values[i]
		out := make([]string, len(row))
		for j := range row {
			out[j] = get(row, j)
		}
		rows = append(rows, out)
	}
	return rows, nil
}

func (c *Client) LookupSets(ctx context.Context) (models.LookupSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.dataRows(ctx)
	if err != nil {
		return models.LookupSet{}, err
	}
	return models.NewLookupSet(rows), nil
}

func (c *Client) TeamMemberCount(ctx context.Context, team string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.dataRows(ctx)
	if err != nil {
		return 0, err
	}
	return models.CountTeamMembers(rows, team), nil
}

func (c *Client) Count(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.dataRows(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Append adds one row. A failed append request leaves the sheet untouched.
func (c *Client) Append(ctx context.Context, r models.Registration) error {
	values := r.Row()
	for i, v := range values {
		if err := store.CheckCell(v, maxCellChars); err != nil {
			return fmt.Errorf("%w: column %s: %v", store.ErrPersistFailure, models.Header[i], err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.appendRow(ctx, toCells(values)); err != nil {
		return fmt.Errorf("%w: append to %q: %v", store.ErrPersistFailure, c.sheet, err)
	}
	return nil
}

// ---------- helpers ----------

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Package sheets implements the remote row store over the Google Sheets v4
// API. Each record collection lives in its own tab of a single spreadsheet;
// rows are addressed by the record identifier in their first column.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/tasksheet/pkg/model"
)

// RowStore is the remote-store abstraction the sync layer depends on. Every
// method either succeeds or returns a *StorageError.
type RowStore interface {
	// ReadAll returns every data row of a tab, excluding the header.
	ReadAll(ctx context.Context, table string) ([][]interface{}, error)
	// AppendRow appends a row below the existing data.
	AppendRow(ctx context.Context, table string, row []interface{}) error
	// UpdateRow overwrites the row holding id with the given cells.
	UpdateRow(ctx context.Context, table string, id int, row []interface{}) error
	// DeleteRow removes the row holding id, shifting later rows up.
	DeleteRow(ctx context.Context, table string, id int) error
	// MoveRow relocates the row holding id from one tab to another. A move
	// that cannot complete is unwound before the error is reported.
	MoveRow(ctx context.Context, from, to string, id int, row []interface{}) error
}

// Client is the Sheets-backed RowStore.
type Client struct {
	srv           *sheetsapi.Service
	spreadsheetID string
	sheetIDs      map[string]int64
	index         *rowIndex
	retry         RetryPolicy
}

// NewClient builds a RowStore over the given spreadsheet. It fetches the
// spreadsheet metadata once to resolve tab titles to numeric sheet ids,
// which row deletion needs.
func NewClient(ctx context.Context, srv *sheetsapi.Service, spreadsheetID string, retry RetryPolicy) (*Client, error) {
	c := &Client{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
		index:         newRowIndex(),
		retry:         retry,
	}

	var ss *sheetsapi.Spreadsheet
	err := withRetry(ctx, retry, func() error {
		var err error
		ss, err = srv.Spreadsheets.Get(spreadsheetID).
			Fields(googleapi.Field("sheets.properties")).
			Context(ctx).Do()
		if err != nil {
			return classify("get", spreadsheetID, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read spreadsheet metadata: %w", err)
	}

	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return c, nil
}

func (c *Client) ReadAll(ctx context.Context, table string) ([][]interface{}, error) {
	var vr *sheetsapi.ValueRange
	err := withRetry(ctx, c.retry, func() error {
		var err error
		vr, err = c.srv.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A2:Z", table)).
			Context(ctx).Do()
		if err != nil {
			return classify("read", table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(vr.Values))
	for i, row := range vr.Values {
		ids[i] = -1
		if len(row) > 0 {
			if id, err := model.CellInt(row[0]); err == nil {
				ids[i] = id
			}
		}
	}
	c.index.reset(table, ids)
	return vr.Values, nil
}

func (c *Client) AppendRow(ctx context.Context, table string, row []interface{}) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	// Appends are not idempotent: a retry after a timeout could duplicate
	// the row, so only API-reported transient failures are retried.
	err := withRetryIf(ctx, c.retry, retryableAppend, func() error {
		_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A1", table), vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return classify("append", table, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(row) > 0 {
		if id, idErr := model.CellInt(row[0]); idErr == nil {
			c.index.appended(table, id)
		}
	}
	return nil
}

func (c *Client) UpdateRow(ctx context.Context, table string, id int, row []interface{}) error {
	r, ok := c.index.row(table, id)
	if !ok {
		return &StorageError{Op: "update", Table: table, Err: fmt.Errorf("no row for id %d", id)}
	}

	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	return withRetry(ctx, c.retry, func() error {
		_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A%d", table, r), vr).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return classify("update", table, err)
		}
		return nil
	})
}

func (c *Client) DeleteRow(ctx context.Context, table string, id int) error {
	sheetID, ok := c.sheetIDs[table]
	if !ok {
		return &StorageError{Op: "delete", Table: table, Err: fmt.Errorf("unknown tab %q", table)}
	}
	r, ok := c.index.row(table, id)
	if !ok {
		return &StorageError{Op: "delete", Table: table, Err: fmt.Errorf("no row for id %d", id)}
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(r - 1),
					EndIndex:   int64(r),
				},
			},
		}},
	}
	err := withRetry(ctx, c.retry, func() error {
		_, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return classify("delete", table, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.index.deleted(table, id)
	return nil
}

// MoveRow appends the row to the destination tab, then deletes it from the
// source tab. If the delete fails, the appended copy is removed again so a
// partial move never survives; both errors are reported if the unwind also
// fails.
func (c *Client) MoveRow(ctx context.Context, from, to string, id int, row []interface{}) error {
	if err := c.AppendRow(ctx, to, row); err != nil {
		return err
	}
	if err := c.DeleteRow(ctx, from, id); err != nil {
		if undoErr := c.DeleteRow(ctx, to, id); undoErr != nil {
			return errors.Join(err, undoErr)
		}
		return err
	}
	return nil
}

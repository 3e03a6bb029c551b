// Package sheets exports transactions to a Google spreadsheet, one row per
// transaction. The spreadsheet is a reporting mirror, not a storage backend:
// the export only ever appends.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	OAuthClientJSON []byte
	OAuthTokenJSON  []byte
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewExporter builds a Sheets exporter from OAuth client credentials and a
// previously issued token (see cmd/oauth-init).
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if cfg.SheetName == "" {
		return nil, errors.New("missing sheet name")
	}

	oauthCfg, err := google.ConfigFromJSON(cfg.OAuthClientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(cfg.OAuthTokenJSON, &token); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

// ExportMonth appends the month's transactions below the sheet's last used
// row and returns the written range. Nothing is written for an empty month.
func (e *Exporter) ExportMonth(ctx context.Context, txs []core.Transaction, month, year int) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := monthRows(txs, month, year)
	if len(rows) == 0 {
		return "", nil
	}

	// Find the next empty row by getting the sheet dimensions first
	rng := fmt.Sprintf("%s!A:A", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", e.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:F%d", e.sheetName, nextRow, nextRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}

	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	return dataRange, nil
}

// monthRows filters to active transactions of one calendar month, sorted by
// date, as rows of date, description, category, type, amount, currency.
func monthRows(txs []core.Transaction, month, year int) [][]any {
	var selected []core.Transaction
	for _, tx := range txs {
		if tx.Deleted() {
			continue
		}
		if int(tx.Date.Month())-1 != month || tx.Date.Year() != year {
			continue
		}
		selected = append(selected, tx)
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date)
	})

	rows := make([][]any, 0, len(selected))
	for _, tx := range selected {
		rows = append(rows, []any{
			tx.Date.Format(time.DateOnly),
			tx.Description,
			tx.Category,
			string(tx.Type),
			tx.Amount,
			string(tx.Currency),
		})
	}
	return rows
}

package sheets

import (
	"context"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestNewExporter_MissingSpreadsheetID(t *testing.T) {
	_, err := NewExporter(context.Background(), Config{SheetName: "2026"})
	if err == nil || err.Error() != "missing spreadsheet ID" {
		t.Errorf("NewExporter error = %v, want missing spreadsheet ID", err)
	}
}

func TestNewExporter_InvalidClientJSON(t *testing.T) {
	_, err := NewExporter(context.Background(), Config{
		SpreadsheetID:   "sheet-id",
		SheetName:       "2026",
		OAuthClientJSON: []byte("not-json"),
		OAuthTokenJSON:  []byte(`{"access_token":"t"}`),
	})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Errorf("NewExporter error = %v, want oauth config failure", err)
	}
}

func TestExportMonth_NilService(t *testing.T) {
	e := &Exporter{spreadsheetID: "sheet-id", sheetName: "2026"}
	_, err := e.ExportMonth(context.Background(), nil, 3, 2026)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("ExportMonth error = %v, want uninitialized service failure", err)
	}
}

func mustTx(t *testing.T, desc string, amount float64, date time.Time, deleted bool) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction("u1", core.Expense, desc, amount, "cat-food", date, core.ARS)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if deleted {
		now := time.Now()
		tx.DeletedAt = &now
	}
	return tx
}

func TestMonthRows(t *testing.T) {
	april10 := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	april2 := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	may1 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	txs := []core.Transaction{
		mustTx(t, "later in month", 20, april10, false),
		mustTx(t, "early in month", 10, april2, false),
		mustTx(t, "wrong month", 30, may1, false),
		mustTx(t, "tombstone", 40, april10, true),
	}

	rows := monthRows(txs, 3, 2026)
	if len(rows) != 2 {
		t.Fatalf("monthRows returned %d rows, want 2", len(rows))
	}
	if rows[0][1] != "early in month" || rows[1][1] != "later in month" {
		t.Errorf("rows not sorted by date: %v", rows)
	}
	if rows[0][0] != "2026-04-02" {
		t.Errorf("date cell = %v, want 2026-04-02", rows[0][0])
	}
	if rows[0][3] != "expense" || rows[0][5] != "ars" {
		t.Errorf("type/currency cells = %v/%v", rows[0][3], rows[0][5])
	}
	if rows[0][4] != 10.0 {
		t.Errorf("amount cell = %v, want 10", rows[0][4])
	}
}

func TestMonthRowsEmptyMonth(t *testing.T) {
	txs := []core.Transaction{
		mustTx(t, "other month", 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), false),
	}
	if rows := monthRows(txs, 6, 2026); len(rows) != 0 {
		t.Errorf("monthRows returned %d rows for an empty month, want 0", len(rows))
	}
}

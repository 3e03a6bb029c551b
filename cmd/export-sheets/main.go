// export-sheets is a one-shot export of a month's transactions from the
// local store to a Google spreadsheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/export/sheets"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentExport)

	now := time.Now()
	// Months are 0-based in storage; the flag takes the human 1-12 form.
	month := flag.Int("month", int(now.Month()), "calendar month to export (1-12)")
	year := flag.Int("year", now.Year(), "year to export")
	flag.Parse()

	if *month < 1 || *month > 12 {
		logger.Error("Invalid month", "month", *month)
		os.Exit(1)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export")
		os.Exit(1)
	}

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	clientJSON, tokenJSON, err := loadCredentials(cfg)
	if err != nil {
		logger.Error("Failed to load Sheets credentials", "error", err)
		os.Exit(1)
	}

	exporter, err := sheets.NewExporter(ctx, sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		OAuthClientJSON: clientJSON,
		OAuthTokenJSON:  tokenJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", "error", err)
		os.Exit(1)
	}

	txs, err := store.Transactions(ctx)
	if err != nil {
		logger.Error("Failed to list transactions", "error", err)
		os.Exit(1)
	}

	ref, err := exporter.ExportMonth(ctx, txs, *month-1, *year)
	if err != nil {
		logger.Error("Export failed", "error", err, "month", *month, "year", *year)
		os.Exit(1)
	}
	if ref == "" {
		logger.Info("No transactions to export", "month", *month, "year", *year)
		return
	}

	logger.Info("Export complete", "month", *month, "year", *year, "range", ref)
	fmt.Println(ref)
}

// loadCredentials resolves OAuth client and token JSON from inline config
// or from the configured files.
func loadCredentials(cfg *config.Config) ([]byte, []byte, error) {
	var clientJSON, tokenJSON []byte
	var err error

	switch {
	case cfg.GoogleOAuthClientJSON != "":
		clientJSON = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		clientJSON, err = os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read OAuth client file: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("no OAuth client credentials configured")
	}

	switch {
	case cfg.GoogleOAuthTokenJSON != "":
		tokenJSON = []byte(cfg.GoogleOAuthTokenJSON)
	case cfg.GoogleOAuthTokenFile != "":
		tokenJSON, err = os.ReadFile(cfg.GoogleOAuthTokenFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read OAuth token file: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("no OAuth token configured (run oauth-init first)")
	}

	return clientJSON, tokenJSON, nil
}

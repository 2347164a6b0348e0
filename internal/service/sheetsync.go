package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"minihost-license/internal/config"
	"minihost-license/internal/model"
)

// SheetSyncService mirrors license rows into a Google spreadsheet:
// key, status, max activations, created, updated (columns A to E).
type SheetSyncService struct {
	// mu covers the read-find-write of a row so a key is appended once.
	mu            sync.Mutex
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetSyncService returns nil when the mirror is disabled.
func NewSheetSyncService(ctx context.Context, cfg config.Sheets) (*SheetSyncService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	// service account credentials
	b, err := os.ReadFile(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load sheets credentials: %w", err)
	}

	return newSheetSyncService(ctx, cfg.SpreadsheetID, cfg.SheetName, option.WithCredentials(creds))
}

func newSheetSyncService(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetSyncService, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// SyncLicense updates the row holding license.Key, or appends one.
func (s *SheetSyncService) SyncLicense(ctx context.Context, license model.License) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// find the row of this key in column A
	keyResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet keys: %w", err)
	}

	rowIndex := 0
	for i, row := range keyResp.Values {
		if len(row) > 0 && row[0] == license.Key {
			rowIndex = i + 2 // data starts at A2
			break
		}
	}

	values := [][]interface{}{licenseRow(license)}
	if rowIndex > 0 {
		rangeData := fmt.Sprintf("%s!A%d:E%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			rangeData,
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.sheetName+"!A2:E",
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("write sheet row for %s: %w", license.Key, err)
	}

	log.Debug().Str("license_key", license.Key).Int("row", rowIndex).Msg("license mirrored to sheet")
	return nil
}

// SyncAll rewrites the sheet body from licenses. Licenses are never
// deleted, so overwriting from A2 leaves no stale rows behind.
func (s *SheetSyncService) SyncAll(ctx context.Context, licenses []model.LicenseSummary) error {
	if s == nil || len(licenses) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([][]interface{}, 0, len(licenses))
	for _, l := range licenses {
		values = append(values, licenseRow(l.License))
	}

	_, err := s.service.Spreadsheets.Values.Update(
		s.spreadsheetID,
		fmt.Sprintf("%s!A2:E%d", s.sheetName, len(values)+1),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch sync licenses: %w", err)
	}
	return nil
}

func licenseRow(l model.License) []interface{} {
	return []interface{}{
		l.Key,
		l.Status,
		l.MaxActivations,
		l.CreatedAt.Format(time.RFC3339),
		l.UpdatedAt.Format(time.RFC3339),
	}
}

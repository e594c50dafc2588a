package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/model"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsMirror appends submissions to a cloud spreadsheet.
type SheetsMirror struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           string
	timeout       time.Duration
}

// NewSheetsMirror authenticates with the service-account key named in cfg.
func NewSheetsMirror(ctx context.Context, cfg *config.SheetsConfig) (*SheetsMirror, error) {
	key, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets: read credentials: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return newSheetsMirror(svc, cfg), nil
}

func newSheetsMirror(svc *sheets.Service, cfg *config.SheetsConfig) *SheetsMirror {
	rng := cfg.Range
	if rng == "" {
		rng = SheetName + "!A:G"
	}
	return &SheetsMirror{svc: svc, spreadsheetID: cfg.SpreadsheetID, rng: rng, timeout: cfg.Timeout}
}

// Append adds one row per submission with raw (unparsed) values.
func (m *SheetsMirror) Append(ctx context.Context, contacts []*model.ContactSubmission) error {
	if len(contacts) == 0 {
		return nil
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	values := make([][]interface{}, 0, len(contacts))
	for _, c := range contacts {
		values = append(values, []interface{}{
			c.Name, c.Email, c.Company, c.ServiceRequested, c.Message, c.BudgetRange,
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	_, err := m.svc.Spreadsheets.Values.
		Append(m.spreadsheetID, m.rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append: %w", err)
	}
	return nil
}

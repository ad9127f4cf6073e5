// Package sheets writes statements into a Google Sheets range using a
// service account.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbuddy/internal/export"
	"budgetbuddy/internal/log"
)

var _ export.Exporter = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Inline service account JSON wins over the file.
	CredentialsJSON string
	CredentialsFile string
	// ClientOptions are appended after the credentials; tests point the
	// client at a local endpoint with them.
	ClientOptions []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates a Sheets client. Credentials may be omitted only when
// ClientOptions supply their own transport.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Extrato"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	var opts []goption.ClientOption
	credentialsJSON, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}
	switch {
	case credentialsJSON != nil:
		logger.DebugContext(ctx, "Using service account credentials", "credentials_size", len(credentialsJSON))
		opts = append(opts,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case len(cfg.ClientOptions) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	opts = append(opts, cfg.ClientOptions...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, logger: logger}, nil
}

func readCredentials(cfg Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.CredentialsJSON); s != "" {
		return []byte(s), nil
	}
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, nil
}

// Export clears the sheet's statement columns, then writes the header and
// one row per transaction. It returns the updated range.
func (c *Client) Export(ctx context.Context, st export.Statement) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:E", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := toValues(st)
	rng := fmt.Sprintf("%s!A1:E%d", c.sheetName, len(values))
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Statement exported to sheet",
		log.FieldUserID, st.UserID,
		"range", rng,
		"rows", len(st.Transactions))
	if resp.UpdatedRange != "" {
		return resp.UpdatedRange, nil
	}
	return rng, nil
}

func toValues(st export.Statement) [][]any {
	values := make([][]any, 0, len(st.Transactions)+1)
	values = append(values, toRow(export.Header))
	for _, row := range st.Rows() {
		values = append(values, toRow(row))
	}
	return values
}

func toRow(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

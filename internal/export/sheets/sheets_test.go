package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/export"
)

// fakeSheets records the calls the client makes against the values API.
type fakeSheets struct {
	mu      sync.Mutex
	calls   []string
	query   string
	written [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.calls = append(f.calls, "clear "+strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"))
		w.Write([]byte(`{"spreadsheetId":"sid","clearedRange":"Extrato!A1:E100"}`))
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update "+strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"))
		f.query = r.URL.Query().Get("valueInputOption")
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.written = vr.Values
		w.Write([]byte(`{"spreadsheetId":"sid","updatedRange":"Extrato!A1:E3","updatedRows":3}`))
	default:
		http.Error(w, `{"error":{"code":404,"message":"unexpected call"}}`, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{
		SpreadsheetID: "sid",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithHTTPClient(srv.Client()),
			goption.WithoutAuthentication(),
		},
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func statement() export.Statement {
	return export.Statement{
		UserID:      "u1",
		GeneratedAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Transactions: core.Statement(
			[]core.Income{{ID: "i1", Label: "Salário", Amount: core.MustMoney("100"), Date: core.NewDate(2025, 3, 1)}},
			[]core.Expense{{ID: "e1", Label: "Aluguel", Amount: core.MustMoney("550"), Date: core.NewDate(2025, 3, 5), CategoryID: 5}},
		),
	}
}

func TestExportClearsThenWrites(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.Export(context.Background(), statement())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "Extrato!A1:E3" {
		t.Errorf("unexpected range %q", ref)
	}

	if len(fake.calls) != 2 {
		t.Fatalf("expected clear and update, got %v", fake.calls)
	}
	if !strings.HasPrefix(fake.calls[0], "clear sid/values/Extrato!A:E") {
		t.Errorf("first call should clear the sheet, got %q", fake.calls[0])
	}
	if !strings.HasPrefix(fake.calls[1], "update sid/values/Extrato!A1:E3") {
		t.Errorf("second call should update the range, got %q", fake.calls[1])
	}
	if fake.query != "USER_ENTERED" {
		t.Errorf("unexpected valueInputOption %q", fake.query)
	}

	if len(fake.written) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(fake.written))
	}
	if fake.written[0][0] != "Data" || fake.written[0][4] != "Valor" {
		t.Errorf("unexpected header %v", fake.written[0])
	}
	if fake.written[1][2] != "Aluguel" || fake.written[1][4] != "-550.00" {
		t.Errorf("unexpected first row %v", fake.written[1])
	}
}

func TestExportSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"caller lacks permission"}}`))
	}))
	_, err := c.Export(context.Background(), statement())
	if err == nil || !strings.Contains(err.Error(), "clear") {
		t.Fatalf("expected clear error, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{}, nil); err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("expected missing spreadsheet id, got %v", err)
	}
	if _, err := New(ctx, Config{SpreadsheetID: "sid"}, nil); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Errorf("expected missing credentials error, got %v", err)
	}
	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := New(ctx, Config{SpreadsheetID: "sid", CredentialsFile: missing}, nil); err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestReadCredentialsPrefersInlineJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := readCredentials(Config{CredentialsJSON: ` {"from":"env"} `, CredentialsFile: path})
	if err != nil || string(got) != `{"from":"env"}` {
		t.Fatalf("expected inline json, got %q %v", got, err)
	}
	got, err = readCredentials(Config{CredentialsFile: path})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("expected file json, got %q %v", got, err)
	}
}

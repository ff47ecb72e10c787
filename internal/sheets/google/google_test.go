package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"prodash/internal/core"
)

func testEntry() core.BudgetEntry {
	e := core.BudgetEntry{
		Amount:      decimal.RequireFromString("12.5"),
		Category:    "Food",
		Type:        core.Expense,
		Date:        core.NewDate(2024, 3, 2),
		Description: "lunch",
	}
	e.ID, e.UserID = "b1", "u1"
	return e
}

// newTestClient points a real Sheets service at an httptest server.
func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	c, err := NewWithService(svc, "sheet-1", "", nil)
	if err != nil {
		t.Fatalf("NewWithService: %v", err)
	}
	return c
}

func TestNewWithService_MissingSpreadsheetID(t *testing.T) {
	_, err := NewWithService(nil, "  ", "Budget", nil)
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-1", "Budget", nil)
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/missing.json")

	_, err := New(context.Background(), "sheet-1", "Budget", nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_AppendValidatesEntry(t *testing.T) {
	c := &Client{spreadsheetID: "test"}

	bad := testEntry()
	bad.Amount = decimal.Zero
	_, err := c.Append(context.Background(), bad)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got: %v", err)
	}

	if _, err := c.Append(context.Background(), testEntry()); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestClient_Append(t *testing.T) {
	var (
		gotPath  string
		gotQuery map[string]string
		gotBody  gsheet.ValueRange
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"valueInputOption": r.URL.Query().Get("valueInputOption"),
			"insertDataOption": r.URL.Query().Get("insertDataOption"),
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"'2024 Budget'!A5:G5","updatedRows":1}}`))
	})

	ref, err := c.Append(context.Background(), testEntry())
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "'2024 Budget'!A5:G5" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-1/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotPath, "2024 Budget") {
		t.Errorf("path %q should target the entry's year sheet", gotPath)
	}
	if gotQuery["valueInputOption"] != "USER_ENTERED" || gotQuery["insertDataOption"] != "INSERT_ROWS" {
		t.Errorf("query = %v", gotQuery)
	}

	want := []any{"2024-03-02", "expense", "Food", "12.50", "lunch", "u1", "b1"}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != len(want) {
		t.Fatalf("values = %v", gotBody.Values)
	}
	for i, v := range want {
		if gotBody.Values[0][i] != v {
			t.Errorf("cell %d = %v, want %v", i, gotBody.Values[0][i], v)
		}
	}
}

func TestClient_AppendAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	_, err := c.Append(context.Background(), testEntry())
	if err == nil || !strings.Contains(err.Error(), "append to sheet 2024 Budget") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Budget", 2025, "2025 Budget"},
		{"Ledger", 2024, "2024 Ledger"},
		{"", 2023, ""},
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's 2024"); got != "'Bob''s 2024'" {
		t.Errorf("quoteSheet = %q", got)
	}
}

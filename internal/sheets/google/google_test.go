package google

import (
	"context"
	"strings"
	"testing"

	ports "finanse/internal/sheets"

	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_InvalidCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", CredentialsJSON: "not-json"})
	if err == nil {
		t.Fatal("expected error with invalid credentials")
	}
	if !strings.Contains(err.Error(), "sheets service") {
		t.Errorf("expected sheets service error, got: %v", err)
	}
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: t.TempDir() + "/none.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestExport_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Export(context.Background(), "u1", []ports.Row{}); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		base, owner, want string
	}{
		{"Transactions", "u1", "Transactions u1"},
		{"Ledger", "a/b:c", "Ledger abc"},
		{"  ", "owner", "owner"},
		{"X", strings.Repeat("y", 200), "X " + strings.Repeat("y", 98)},
	}
	for _, tt := range tests {
		if got := sheetName(tt.base, tt.owner); got != tt.want {
			t.Errorf("sheetName(%q, %q) = %q, want %q", tt.base, tt.owner, got, tt.want)
		}
	}
}

func TestHasSheet(t *testing.T) {
	ss := &gsheet.Spreadsheet{Sheets: []*gsheet.Sheet{
		{Properties: &gsheet.SheetProperties{Title: "Transactions u1"}},
		{},
	}}
	if !hasSheet(ss, "transactions U1") {
		t.Error("expected case-insensitive match")
	}
	if hasSheet(ss, "Transactions u2") || hasSheet(nil, "x") {
		t.Error("unexpected match")
	}
}

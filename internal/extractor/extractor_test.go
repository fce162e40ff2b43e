package extractor

import (
	"strings"
	"testing"
)

func TestSummaryTextPlainFile(t *testing.T) {
	data := []byte("FOR THE MONTH OF 03/2024\nTOTAL FOR AGENT : AB123")

	got, err := SummaryText("summary.txt", data)
	if err != nil {
		t.Fatalf("SummaryText() error = %v", err)
	}
	if got != string(data) {
		t.Errorf("Text files should pass through unchanged, got %q", got)
	}
}

func TestSummaryTextUnreadablePDF(t *testing.T) {
	// Not a PDF at all; extraction must fail rather than return partial junk.
	_, err := SummaryText("summary.pdf", []byte("this is not a pdf"))
	if err == nil {
		t.Fatal("Expected error for unreadable PDF, got nil")
	}
}

func TestSummaryTextExtensionCase(t *testing.T) {
	_, err := SummaryText("SUMMARY.PDF", []byte("still not a pdf"))
	if err == nil {
		t.Fatal("Expected .PDF to be routed through PDF extraction")
	}

	got, err := SummaryText("report", []byte("no extension"))
	if err != nil || !strings.Contains(got, "no extension") {
		t.Errorf("Extensionless files should be treated as text, got %q, err %v", got, err)
	}
}

package parser

import (
	"testing"
)

func TestParsePremiumSummary(t *testing.T) {
	input := `AGENTWISE PREMIUM SUMMARY
FOR THE MONTH OF 03/2024

AGENT : AB123  SHARMA RAMESH
... policy rows ...
TOTAL FOR AGENT : ab123
PREMIUM : 15000.00   FP Sch.Prem : 1200.50   FY Sch.Prem : 800.25
`

	records := ParsePremiumSummary(input)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.AgencyCode != "AB123" {
		t.Errorf("Expected upper-cased agency code 'AB123', got %q", rec.AgencyCode)
	}
	if rec.ReportMonth != "03/2024" {
		t.Errorf("Expected report month '03/2024', got %q", rec.ReportMonth)
	}
	if rec.TotalPremium != "15000.00" {
		t.Errorf("Expected total premium '15000.00', got %q", rec.TotalPremium)
	}
	if rec.FPSchPrem != "1200.50" {
		t.Errorf("Expected FP Sch.Prem '1200.50', got %q", rec.FPSchPrem)
	}
	if rec.FYSchPrem != "800.25" {
		t.Errorf("Expected FY Sch.Prem '800.25', got %q", rec.FYSchPrem)
	}
}

func TestParsePremiumSummaryMultipleAgents(t *testing.T) {
	input := `FOR THE MONTH OF 11/2023
TOTAL FOR AGENT : AA111
PREMIUM : 100.00 FP Sch.Prem : 10.00 FY Sch.Prem : 5.00
TOTAL FOR AGENT : BB222
PREMIUM : 200.00 FP Sch.Prem : 20.00 FY Sch.Prem : 15.00`

	records := ParsePremiumSummary(input)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].AgencyCode != "AA111" || records[1].AgencyCode != "BB222" {
		t.Errorf("Unexpected agency codes: %q, %q", records[0].AgencyCode, records[1].AgencyCode)
	}
	for i, rec := range records {
		if rec.ReportMonth != "11/2023" {
			t.Errorf("Record %d: expected month '11/2023', got %q", i, rec.ReportMonth)
		}
	}
}

func TestParsePremiumSummarySpansLineBreaks(t *testing.T) {
	// Page joins from PDF extraction can split a block across lines anywhere.
	input := "for the month of 07/2024\nTOTAL FOR AGENT\n: CD456\nsome filler\nPREMIUM\n: 99.50\nFP Sch.Prem :\n1.25\nFY Sch.Prem :\n2.75"

	records := ParsePremiumSummary(input)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].AgencyCode != "CD456" {
		t.Errorf("Expected agency code 'CD456', got %q", records[0].AgencyCode)
	}
	if records[0].ReportMonth != "07/2024" {
		t.Errorf("Expected case-insensitive month match '07/2024', got %q", records[0].ReportMonth)
	}
}

func TestParsePremiumSummaryUnknownMonth(t *testing.T) {
	input := `TOTAL FOR AGENT : XY789
PREMIUM : 500.00 FP Sch.Prem : 50.00 FY Sch.Prem : 25.00`

	records := ParsePremiumSummary(input)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].ReportMonth != UnknownMonth {
		t.Errorf("Expected month %q without heading, got %q", UnknownMonth, records[0].ReportMonth)
	}
}

func TestParsePremiumSummaryNoMatches(t *testing.T) {
	records := ParsePremiumSummary("nothing that looks like a summary")
	if len(records) != 0 {
		t.Errorf("Expected empty record set, got %d records", len(records))
	}
}

func TestParsePremiumSummaryDuplicateAgentKeepsBoth(t *testing.T) {
	// Repeated blocks are not deduplicated here; that is the store's upsert
	// policy, not the parser's.
	input := `FOR THE MONTH OF 01/2024
TOTAL FOR AGENT : ZZ999
PREMIUM : 1.00 FP Sch.Prem : 1.00 FY Sch.Prem : 1.00
TOTAL FOR AGENT : ZZ999
PREMIUM : 2.00 FP Sch.Prem : 2.00 FY Sch.Prem : 2.00`

	records := ParsePremiumSummary(input)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records for duplicate agent blocks, got %d", len(records))
	}
}

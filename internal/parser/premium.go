package parser

import (
	"regexp"
	"strings"
)

// PremiumSummaryRecord is one agent's premium totals for a report month.
// Amounts stay as extracted text; numeric interpretation is the consumer's.
type PremiumSummaryRecord struct {
	AgencyCode   string
	ReportMonth  string
	TotalPremium string
	FPSchPrem    string
	FYSchPrem    string
}

// UnknownMonth is recorded when a summary document carries no month heading.
const UnknownMonth = "Unknown"

var (
	// Document-level heading: "FOR THE MONTH OF MM/YYYY"
	monthHeadingPattern = regexp.MustCompile(`(?i)FOR THE MONTH OF (\d{2}/\d{4})`)

	// One block per agent. The fields always appear in this order; the
	// non-greedy gaps let the block span line breaks and page joins.
	agentTotalPattern = regexp.MustCompile(
		`(?is)TOTAL FOR AGENT\s*:\s*(\w+).*?PREMIUM\s*:\s*([\d.]+).*?FP Sch\.Prem\s*:\s*([\d.]+).*?FY Sch\.Prem\s*:\s*([\d.]+)`)
)

// ParsePremiumSummary extracts per-agent premium totals from report text.
// The whole document covers a single month, taken from its heading; zero
// agent blocks is a valid outcome and returns an empty set.
func ParsePremiumSummary(text string) []PremiumSummaryRecord {
	month := UnknownMonth
	if m := monthHeadingPattern.FindStringSubmatch(text); m != nil {
		month = m[1]
	}

	var records []PremiumSummaryRecord
	for _, m := range agentTotalPattern.FindAllStringSubmatch(text, -1) {
		records = append(records, PremiumSummaryRecord{
			AgencyCode:   strings.ToUpper(strings.TrimSpace(m[1])),
			ReportMonth:  month,
			TotalPremium: m[2],
			FPSchPrem:    m[3],
			FYSchPrem:    m[4],
		})
	}
	return records
}

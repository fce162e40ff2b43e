package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PolicyRecord is one finalized proposal reconstructed from a register export.
type PolicyRecord struct {
	AgentName        string
	AgencyCode       string
	ProposalDate     string
	ProposalNo       string
	ShortName        string
	PolicyNo         string
	DateOfCompletion string
	DOC              string
	Plan             string
	Term             string
	Mode             string
	Premium          string
	Remarks          string
	Ananda           string
	ENachDate        string
}

// RegisterColumns lists the column names downstream consumers key on.
// The names are part of the output contract and must stay verbatim.
var RegisterColumns = []string{
	"Agent Name",
	"Agency Code",
	"Date of Proposal",
	"Proposal No",
	"Short Name",
	"Policy No",
	"Date of Completion",
	"DOC",
	"Plan",
	"Term",
	"Mode",
	"Premium",
	"Remarks",
	"ANANDA",
	"ENACH Date",
}

// registerSchema names the positions of each semantic field in the pipe-split
// header and detail lines. The register format is undocumented beyond live
// samples; these indices are the observed contract, kept in one place so a
// format revision touches nothing but this table.
type registerSchema struct {
	// header line
	ProposalDate   int
	ProposalNo     int
	ShortName      int
	CompletionDate int
	PolicyNo       int
	Plan           int
	Mode           int
	Premium        int
	Remarks        int
	// paired detail line
	DOC  int
	Term int
}

var regSchema = registerSchema{
	ProposalDate:   0,
	ProposalNo:     1,
	ShortName:      2,
	CompletionDate: 5,
	PolicyNo:       6,
	Plan:           9,
	Mode:           10,
	Premium:        11,
	Remarks:        12,
	DOC:            6,
	Term:           9,
}

// minHeaderFields is the field count a line must exceed to qualify as a
// record header. Together with an all-digit proposal number field this is
// the sole detection rule; do not tighten it, the live format guarantees
// nothing more.
const minHeaderFields = 6

func init() {
	if err := regSchema.validate(); err != nil {
		panic(err)
	}
}

func (s registerSchema) validate() error {
	indices := []int{
		s.ProposalDate, s.ProposalNo, s.ShortName, s.CompletionDate,
		s.PolicyNo, s.Plan, s.Mode, s.Premium, s.Remarks, s.DOC, s.Term,
	}
	for _, idx := range indices {
		if idx < 0 {
			return fmt.Errorf("register schema: negative column index %d", idx)
		}
	}
	if s.ProposalNo > minHeaderFields {
		return fmt.Errorf("register schema: proposal number index %d outside the header detection window", s.ProposalNo)
	}
	return nil
}

// Context-marker phrases. A line containing one announces the agent every
// following record belongs to, until the next marker.
const (
	agentNameMarker  = "Name of the agent"
	agencyCodeMarker = "Agency Code No."
)

// scanContext is the agent block a register line belongs to. Marker lines
// replace the whole value; data lines inherit it untouched.
type scanContext struct {
	AgentName  string
	AgencyCode string
}

// advance returns the context after seeing line. Non-marker lines return the
// receiver unchanged.
func (c scanContext) advance(line string) scanContext {
	if idx := strings.LastIndex(line, agentNameMarker); idx >= 0 {
		name := strings.TrimSpace(line[idx+len(agentNameMarker):])
		name = strings.TrimSpace(strings.TrimLeft(name, ":"))
		c.AgentName = name
		return c
	}
	if strings.Contains(line, agencyCodeMarker) {
		if parts := strings.Split(line, ":"); len(parts) > 1 {
			c.AgencyCode = strings.TrimSpace(parts[1])
		}
		return c
	}
	return c
}

// Report is the outcome of one register extraction run. Skipped entries let
// callers surface how many line pairs were rejected, not just the survivors.
type Report struct {
	Records []PolicyRecord
	Skipped []Skip
}

// Skip records one rejected line pair.
type Skip struct {
	Line   int // 1-based line number of the header line
	Reason string
}

// ParseRegister scans a proposal-register export and reconstructs one record
// per policy. Each record spans two consecutive pipe-delimited lines; a header
// line carrying the proposal and policy numbers, then a detail line carrying
// the DOC and term. Free-text marker lines update the agent context carried
// into all subsequent records. A rejected pair never aborts the scan.
func ParseRegister(text string) Report {
	lines := strings.Split(text, "\n")
	var rep Report
	ctx := scanContext{}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		ctx = ctx.advance(line)

		header := strings.Split(line, "|")
		if !isHeaderLine(header) {
			continue
		}

		var detail []string
		if i+1 < len(lines) {
			detail = strings.Split(strings.TrimSpace(lines[i+1]), "|")
		}

		rec := assembleRecord(ctx, header, detail)
		if strings.TrimSpace(rec.PolicyNo) == "" {
			rep.Skipped = append(rep.Skipped, Skip{Line: i + 1, Reason: "missing policy number"})
			log.Warn("register record skipped",
				zap.Int("line", i+1),
				zap.String("proposal_no", rec.ProposalNo),
				zap.String("reason", "missing policy number"))
		} else {
			rep.Records = append(rep.Records, rec)
		}

		i++ // detail line consumed with the header
	}

	return rep
}

// isHeaderLine reports whether a pipe-split line opens a record: more than
// minHeaderFields fields and an all-digit proposal number.
func isHeaderLine(parts []string) bool {
	return len(parts) > minHeaderFields && allDigits(strings.TrimSpace(parts[regSchema.ProposalNo]))
}

func assembleRecord(ctx scanContext, header, detail []string) PolicyRecord {
	// Proposal numbers lose their zero padding; policy numbers are long-lived
	// identifiers and stay verbatim.
	proposalNo := strings.TrimLeft(field(header, regSchema.ProposalNo), "0")
	mode := field(header, regSchema.Mode)
	doc := FormatDate(field(detail, regSchema.DOC))

	return PolicyRecord{
		AgentName:        ctx.AgentName,
		AgencyCode:       ctx.AgencyCode,
		ProposalDate:     FormatDate(field(header, regSchema.ProposalDate)),
		ProposalNo:       proposalNo,
		ShortName:        field(header, regSchema.ShortName),
		PolicyNo:         field(header, regSchema.PolicyNo),
		DateOfCompletion: FormatDate(field(header, regSchema.CompletionDate)),
		DOC:              doc,
		Plan:             field(header, regSchema.Plan),
		Term:             field(detail, regSchema.Term),
		Mode:             mode,
		Premium:          field(header, regSchema.Premium),
		Remarks:          field(header, regSchema.Remarks),
		Ananda:           anandaFlag(proposalNo),
		ENachDate:        ENachDay(doc, mode),
	}
}

// anandaFlag marks scheme-eligible proposals: exactly six digits.
func anandaFlag(proposalNo string) string {
	if len(proposalNo) == 6 && allDigits(proposalNo) {
		return "YES"
	}
	return ""
}

// field returns the trimmed value at idx, or "" when the line is too short.
func field(parts []string, idx int) string {
	if idx >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[idx])
}

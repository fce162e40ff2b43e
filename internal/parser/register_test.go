package parser

import (
	"reflect"
	"strings"
	"testing"
)

const sampleRegister = `LIFE INSURANCE CORPORATION OF INDIA
Name of the agent : RAMESH KUMAR
Agency Code No. : 0345671K
20230415|000123|SHARMA R|x|x|20230420|123456789012|x|x|914|MLY|2500.00|OK
x|x|x|x|x|x|20230420|x|x|16
20230501|456789|VERMA S|x|x|20230512|987654321098|x|x|815|YLY|12000.00|
x|x|x|x|x|x|20230512|x|x|21
`

func TestParseRegister(t *testing.T) {
	rep := ParseRegister(sampleRegister)

	if len(rep.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(rep.Records))
	}
	if len(rep.Skipped) != 0 {
		t.Errorf("Expected 0 skipped, got %d", len(rep.Skipped))
	}

	rec := rep.Records[0]
	if rec.AgentName != "RAMESH KUMAR" {
		t.Errorf("Expected agent name 'RAMESH KUMAR', got %q", rec.AgentName)
	}
	if rec.AgencyCode != "0345671K" {
		t.Errorf("Expected agency code '0345671K', got %q", rec.AgencyCode)
	}
	if rec.ProposalNo != "123" {
		t.Errorf("Expected proposal no '123' (zeros stripped), got %q", rec.ProposalNo)
	}
	if rec.PolicyNo != "123456789012" {
		t.Errorf("Expected policy no '123456789012', got %q", rec.PolicyNo)
	}
	if rec.ProposalDate != "15/04/2023" {
		t.Errorf("Expected proposal date '15/04/2023', got %q", rec.ProposalDate)
	}
	if rec.DOC != "20/04/2023" {
		t.Errorf("Expected DOC '20/04/2023', got %q", rec.DOC)
	}
	if rec.Term != "16" {
		t.Errorf("Expected term '16', got %q", rec.Term)
	}
	if rec.Mode != "MLY" {
		t.Errorf("Expected mode 'MLY', got %q", rec.Mode)
	}
	if rec.Ananda != "" {
		t.Errorf("Expected empty ANANDA for 3-digit proposal no, got %q", rec.Ananda)
	}
	if rec.ENachDate != "22" {
		t.Errorf("Expected ENACH date '22' (day 20), got %q", rec.ENachDate)
	}

	rec = rep.Records[1]
	if rec.Ananda != "YES" {
		t.Errorf("Expected ANANDA 'YES' for 6-digit proposal no, got %q", rec.Ananda)
	}
	if rec.ENachDate != "" {
		t.Errorf("Expected empty ENACH date for yearly mode, got %q", rec.ENachDate)
	}
	if rec.Premium != "12000.00" {
		t.Errorf("Expected premium '12000.00', got %q", rec.Premium)
	}
	if rec.Remarks != "" {
		t.Errorf("Expected empty remarks, got %q", rec.Remarks)
	}
}

func TestParseRegisterSinglePair(t *testing.T) {
	input := "15042023|000123|SHORTNAME|x|x|20042023|POL456|x|x|PLANA|M|5000|remark\n" +
		"x|x|x|x|x|x|20042023|x|x|12"

	rep := ParseRegister(input)
	if len(rep.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(rep.Records))
	}

	rec := rep.Records[0]
	if rec.ProposalNo != "123" {
		t.Errorf("Expected proposal no '123', got %q", rec.ProposalNo)
	}
	if rec.PolicyNo != "POL456" {
		t.Errorf("Expected policy no 'POL456', got %q", rec.PolicyNo)
	}
	if rec.DOC != "20/04/2023" {
		t.Errorf("Expected DOC '20/04/2023', got %q", rec.DOC)
	}
	if rec.Term != "12" {
		t.Errorf("Expected term '12', got %q", rec.Term)
	}
	if rec.Mode != "M" {
		t.Errorf("Expected mode 'M', got %q", rec.Mode)
	}
	if rec.Ananda != "" {
		t.Errorf("Expected empty ANANDA, got %q", rec.Ananda)
	}
	if rec.ENachDate != "22" {
		t.Errorf("Expected ENACH date '22', got %q", rec.ENachDate)
	}
	if rec.Plan != "PLANA" {
		t.Errorf("Expected plan 'PLANA', got %q", rec.Plan)
	}
	if rec.Remarks != "remark" {
		t.Errorf("Expected remarks 'remark', got %q", rec.Remarks)
	}
}

func TestParseRegisterContextCarriesForward(t *testing.T) {
	input := `Name of the agent : FIRST AGENT
Agency Code No. : 111111A
20230415|100001|A|x|x|20230420|POL1|x|x|914|M|100|
x|x|x|x|x|x|20230420|x|x|10
Name of the agent : SECOND AGENT
20230416|100002|B|x|x|20230421|POL2|x|x|914|M|100|
x|x|x|x|x|x|20230421|x|x|10`

	rep := ParseRegister(input)
	if len(rep.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(rep.Records))
	}
	if rep.Records[0].AgentName != "FIRST AGENT" {
		t.Errorf("Expected 'FIRST AGENT', got %q", rep.Records[0].AgentName)
	}
	if rep.Records[1].AgentName != "SECOND AGENT" {
		t.Errorf("Expected 'SECOND AGENT', got %q", rep.Records[1].AgentName)
	}
	// Agency code was never re-announced, so it carries over.
	if rep.Records[1].AgencyCode != "111111A" {
		t.Errorf("Expected carried agency code '111111A', got %q", rep.Records[1].AgencyCode)
	}
}

func TestParseRegisterMissingDetailLine(t *testing.T) {
	input := "20230415|000123|SHORTNAME|x|x|20230420|POL456|x|x|914|M|5000|ok"

	rep := ParseRegister(input)
	if len(rep.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(rep.Records))
	}
	rec := rep.Records[0]
	if rec.DOC != "" {
		t.Errorf("Expected empty DOC without detail line, got %q", rec.DOC)
	}
	if rec.Term != "" {
		t.Errorf("Expected empty term without detail line, got %q", rec.Term)
	}
	if rec.ENachDate != "" {
		t.Errorf("Expected empty ENACH date without DOC, got %q", rec.ENachDate)
	}
}

func TestParseRegisterSkipsEmptyPolicyNo(t *testing.T) {
	input := `20230415|000123|SHORTNAME|x|x|20230420||x|x|914|M|5000|
x|x|x|x|x|x|20230420|x|x|10
20230416|000124|OTHER|x|x|20230421|POL2|x|x|914|M|100|
x|x|x|x|x|x|20230421|x|x|10`

	rep := ParseRegister(input)
	if len(rep.Records) != 1 {
		t.Fatalf("Expected 1 surviving record, got %d", len(rep.Records))
	}
	if rep.Records[0].PolicyNo != "POL2" {
		t.Errorf("Expected surviving policy 'POL2', got %q", rep.Records[0].PolicyNo)
	}
	if len(rep.Skipped) != 1 {
		t.Fatalf("Expected 1 skip, got %d", len(rep.Skipped))
	}
	if rep.Skipped[0].Line != 1 {
		t.Errorf("Expected skip at line 1, got %d", rep.Skipped[0].Line)
	}
}

func TestParseRegisterIgnoresNonHeaderLines(t *testing.T) {
	input := `PROPOSAL REGISTER REPORT
------------------------
Date|Something|Else
20230415|NOTDIGITS|A|x|x|20230420|POL1|x
just some free text`

	rep := ParseRegister(input)
	if len(rep.Records) != 0 {
		t.Errorf("Expected 0 records from non-header lines, got %d", len(rep.Records))
	}
}

func TestParseRegisterIdempotent(t *testing.T) {
	first := ParseRegister(sampleRegister)
	second := ParseRegister(sampleRegister)
	if !reflect.DeepEqual(first, second) {
		t.Error("ParseRegister is not idempotent over identical input")
	}
}

func TestParseRegisterPolicyNoAlwaysNonEmpty(t *testing.T) {
	rep := ParseRegister(sampleRegister)
	for i, rec := range rep.Records {
		if strings.TrimSpace(rec.PolicyNo) == "" {
			t.Errorf("Record %d has empty policy no", i)
		}
	}
}

func TestAnandaFlag(t *testing.T) {
	tests := []struct {
		proposalNo string
		want       string
	}{
		{"123456", "YES"},
		{"12345", ""},
		{"1234567", ""},
		{"12345A", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := anandaFlag(tt.proposalNo); got != tt.want {
			t.Errorf("anandaFlag(%q) = %q, want %q", tt.proposalNo, got, tt.want)
		}
	}
}

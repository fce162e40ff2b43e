package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/wrapborne/udaan1/internal/parser"
)

// PolicyRow is a stored policy record plus its upload provenance.
type PolicyRow struct {
	parser.PolicyRecord
	UploadedBy string
}

// PolicyFilter narrows ListPolicies. Zero values mean "no constraint";
// DOC bounds are DD/MM/YYYY like the records themselves.
type PolicyFilter struct {
	AgencyCode string
	Plan       string
	Mode       string
	DOCFrom    string
	DOCTo      string
	Search     string
}

// docISO converts a DD/MM/YYYY display date into sortable YYYY-MM-DD,
// or "" when the date is absent or malformed.
func docISO(doc string) string {
	t, err := time.Parse("02/01/2006", doc)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// UpsertPolicies writes extracted records into a tenant database, deduping
// by policy number with keep-last semantics: a re-uploaded policy replaces
// its earlier row. Returns the number of rows written.
func (s *Store) UpsertPolicies(db *sql.DB, records []parser.PolicyRecord, uploadedBy string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("upserting policies: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO lic_data (policy_no, agent_name, agency_code, proposal_date, proposal_no,
			short_name, date_of_completion, doc, doc_iso, plan, term, mode, premium, remarks,
			ananda, enach_date, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(policy_no) DO UPDATE SET
			agent_name = excluded.agent_name,
			agency_code = excluded.agency_code,
			proposal_date = excluded.proposal_date,
			proposal_no = excluded.proposal_no,
			short_name = excluded.short_name,
			date_of_completion = excluded.date_of_completion,
			doc = excluded.doc,
			doc_iso = excluded.doc_iso,
			plan = excluded.plan,
			term = excluded.term,
			mode = excluded.mode,
			premium = excluded.premium,
			remarks = excluded.remarks,
			ananda = excluded.ananda,
			enach_date = excluded.enach_date,
			uploaded_by = excluded.uploaded_by`)
	if err != nil {
		return 0, fmt.Errorf("preparing policy upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, rec := range records {
		if strings.TrimSpace(rec.PolicyNo) == "" {
			continue
		}
		_, err := stmt.Exec(rec.PolicyNo, rec.AgentName, rec.AgencyCode, rec.ProposalDate,
			rec.ProposalNo, rec.ShortName, rec.DateOfCompletion, rec.DOC, docISO(rec.DOC),
			rec.Plan, rec.Term, rec.Mode, rec.Premium, rec.Remarks, rec.Ananda,
			rec.ENachDate, uploadedBy)
		if err != nil {
			return 0, fmt.Errorf("upserting policy %s: %w", rec.PolicyNo, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upserting policies: %w", err)
	}
	return written, nil
}

// ListPolicies returns a tenant's policy rows matching the filter,
// newest completion date first.
func (s *Store) ListPolicies(db *sql.DB, f PolicyFilter) ([]PolicyRow, error) {
	query := `
		SELECT policy_no, agent_name, agency_code, proposal_date, proposal_no, short_name,
		       date_of_completion, doc, plan, term, mode, premium, remarks, ananda,
		       enach_date, COALESCE(uploaded_by, '')
		FROM lic_data WHERE 1=1`
	var args []any

	if f.AgencyCode != "" {
		query += " AND UPPER(TRIM(agency_code)) = ?"
		args = append(args, strings.ToUpper(strings.TrimSpace(f.AgencyCode)))
	}
	if f.Plan != "" {
		query += " AND plan = ?"
		args = append(args, f.Plan)
	}
	if f.Mode != "" {
		query += " AND mode = ?"
		args = append(args, f.Mode)
	}
	if iso := docISO(f.DOCFrom); iso != "" {
		query += " AND doc_iso >= ?"
		args = append(args, iso)
	}
	if iso := docISO(f.DOCTo); iso != "" {
		query += " AND doc_iso <= ?"
		args = append(args, iso)
	}
	if f.Search != "" {
		query += ` AND (policy_no LIKE ? OR short_name LIKE ? OR agent_name LIKE ? OR proposal_no LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like, like, like)
	}
	query += " ORDER BY doc_iso DESC, policy_no"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}
	defer rows.Close()

	var out []PolicyRow
	for rows.Next() {
		var r PolicyRow
		if err := rows.Scan(&r.PolicyNo, &r.AgentName, &r.AgencyCode, &r.ProposalDate,
			&r.ProposalNo, &r.ShortName, &r.DateOfCompletion, &r.DOC, &r.Plan, &r.Term,
			&r.Mode, &r.Premium, &r.Remarks, &r.Ananda, &r.ENachDate, &r.UploadedBy); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AgencyCodes returns the distinct agency codes present in a tenant database.
// Registration uses it to verify an agent belongs to the DO.
func (s *Store) AgencyCodes(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT DISTINCT UPPER(TRIM(agency_code)) FROM lic_data WHERE TRIM(agency_code) != ''")
	if err != nil {
		return nil, fmt.Errorf("listing agency codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning agency code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

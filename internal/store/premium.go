package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wrapborne/udaan1/internal/parser"
)

// ErrMonthConflict reports that a month's summary already exists with
// different figures and the upload did not ask to overwrite it.
var ErrMonthConflict = errors.New("premium summary for this month already exists with different figures")

// PremiumRow is a stored premium summary record plus its upload provenance.
type PremiumRow struct {
	parser.PremiumSummaryRecord
	UploadedBy string
}

// SavePremiumSummary stores one parsed summary batch for an uploader.
// A re-upload of identical figures for the same month silently overwrites;
// differing figures are rejected with ErrMonthConflict unless force is set.
func (s *Store) SavePremiumSummary(db *sql.DB, records []parser.PremiumSummaryRecord, uploadedBy string, force bool) error {
	if len(records) == 0 {
		return errors.New("no premium records to save")
	}
	month := records[0].ReportMonth

	existing, err := s.PremiumSummary(db, month, uploadedBy)
	if err != nil {
		return err
	}
	if len(existing) > 0 && !force && !samePremiumFigures(existing, records) {
		return ErrMonthConflict
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("saving premium summary: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec("DELETE FROM premium_summary WHERE report_month = ? AND uploaded_by = ?", month, uploadedBy)
	if err != nil {
		return fmt.Errorf("clearing existing month: %w", err)
	}
	for _, rec := range records {
		_, err := tx.Exec(`
			INSERT INTO premium_summary (agency_code, report_month, total_premium, fp_sch_prem, fy_sch_prem, uploaded_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.AgencyCode, rec.ReportMonth, rec.TotalPremium, rec.FPSchPrem, rec.FYSchPrem, uploadedBy)
		if err != nil {
			return fmt.Errorf("inserting premium row for %s: %w", rec.AgencyCode, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving premium summary: %w", err)
	}
	return nil
}

// PremiumSummary returns an uploader's rows for one report month.
func (s *Store) PremiumSummary(db *sql.DB, month, uploadedBy string) ([]PremiumRow, error) {
	rows, err := db.Query(`
		SELECT agency_code, report_month, COALESCE(total_premium, ''), COALESCE(fp_sch_prem, ''),
		       COALESCE(fy_sch_prem, ''), COALESCE(uploaded_by, '')
		FROM premium_summary WHERE report_month = ? AND uploaded_by = ?
		ORDER BY agency_code`, month, uploadedBy)
	if err != nil {
		return nil, fmt.Errorf("reading premium summary: %w", err)
	}
	defer rows.Close()

	var out []PremiumRow
	for rows.Next() {
		var r PremiumRow
		if err := rows.Scan(&r.AgencyCode, &r.ReportMonth, &r.TotalPremium,
			&r.FPSchPrem, &r.FYSchPrem, &r.UploadedBy); err != nil {
			return nil, fmt.Errorf("scanning premium row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PremiumMonths returns the report months an uploader has data for,
// newest upload first.
func (s *Store) PremiumMonths(db *sql.DB, uploadedBy string) ([]string, error) {
	rows, err := db.Query(`
		SELECT report_month FROM premium_summary WHERE uploaded_by = ?
		GROUP BY report_month ORDER BY MAX(id) DESC`, uploadedBy)
	if err != nil {
		return nil, fmt.Errorf("listing premium months: %w", err)
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning month: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// EligiblePremium sums FP and FY scheduled premium across a month's rows.
// Unparseable amounts count as zero rather than failing the whole total.
func EligiblePremium(rows []PremiumRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if fp, err := decimal.NewFromString(r.FPSchPrem); err == nil {
			total = total.Add(fp)
		}
		if fy, err := decimal.NewFromString(r.FYSchPrem); err == nil {
			total = total.Add(fy)
		}
	}
	return total
}

// samePremiumFigures compares stored rows against a new batch ignoring order.
func samePremiumFigures(existing []PremiumRow, incoming []parser.PremiumSummaryRecord) bool {
	if len(existing) != len(incoming) {
		return false
	}
	key := func(agency, month, total, fp, fy string) string {
		return agency + "\x00" + month + "\x00" + total + "\x00" + fp + "\x00" + fy
	}
	a := make([]string, len(existing))
	b := make([]string, len(incoming))
	for i, r := range existing {
		a[i] = key(r.AgencyCode, r.ReportMonth, r.TotalPremium, r.FPSchPrem, r.FYSchPrem)
	}
	for i, r := range incoming {
		b[i] = key(r.AgencyCode, r.ReportMonth, r.TotalPremium, r.FPSchPrem, r.FYSchPrem)
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

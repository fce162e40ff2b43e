package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/parser"
	"github.com/wrapborne/udaan1/internal/store"
)

// filterFromQuery builds a policy filter from request parameters.
// Dates are DD/MM/YYYY to match the records themselves.
func filterFromQuery(r *http.Request) store.PolicyFilter {
	q := r.URL.Query()
	return store.PolicyFilter{
		AgencyCode: q.Get("agency_code"),
		Plan:       q.Get("plan"),
		Mode:       q.Get("mode"),
		DOCFrom:    q.Get("doc_from"),
		DOCTo:      q.Get("doc_to"),
		Search:     q.Get("search"),
	}
}

// recordMap renders a policy row under the verbatim column names
// downstream consumers key on.
func recordMap(r store.PolicyRow) map[string]string {
	return map[string]string{
		"Agent Name":         r.AgentName,
		"Agency Code":        r.AgencyCode,
		"Date of Proposal":   r.ProposalDate,
		"Proposal No":        r.ProposalNo,
		"Short Name":         r.ShortName,
		"Policy No":          r.PolicyNo,
		"Date of Completion": r.DateOfCompletion,
		"DOC":                r.DOC,
		"Plan":               r.Plan,
		"Term":               r.Term,
		"Mode":               r.Mode,
		"Premium":            r.Premium,
		"Remarks":            r.Remarks,
		"ANANDA":             r.Ananda,
		"ENACH Date":         r.ENachDate,
	}
}

// ListPolicies returns the caller's visible policy rows with filter and
// summary counts. Agents are pinned to their own agency.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	db := h.tenantDB(w, sess)
	if db == nil {
		return
	}

	filter := sessionFilter(sess, filterFromQuery(r))
	rows, err := h.store.ListPolicies(db, filter)
	if err != nil {
		h.log.Error("listing policies", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load policies")
		return
	}

	ananda := 0
	planCounts := make(map[string]int)
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		out[i] = recordMap(row)
		if row.Ananda == "YES" {
			ananda++
		}
		if row.Plan != "" {
			planCounts[row.Plan]++
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"columns":      parser.RegisterColumns,
		"rows":         out,
		"total":        len(rows),
		"ananda_count": ananda,
		"plan_counts":  planCounts,
	})
}

// ExportPolicies streams the caller's visible rows as an xlsx workbook.
// The Policy No column is formatted as text so spreadsheet tools do not
// mangle long numeric identifiers.
func (h *Handler) ExportPolicies(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}
	db := h.tenantDB(w, sess)
	if db == nil {
		return
	}

	filter := sessionFilter(sess, filterFromQuery(r))
	rows, err := h.store.ListPolicies(db, filter)
	if err != nil {
		h.log.Error("listing policies for export", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load policies")
		return
	}

	f, err := buildPolicyWorkbook(rows)
	if err != nil {
		h.log.Error("building export workbook", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("LIC_Data_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		h.log.Warn("writing export", zap.Error(err))
	}
}

func buildPolicyWorkbook(rows []store.PolicyRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, col := range parser.RegisterColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, err
		}
	}

	// Text format keeps Policy No verbatim, leading zeros included.
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return nil, err
	}
	policyCol := 0
	for i, col := range parser.RegisterColumns {
		if col == "Policy No" {
			policyCol = i + 1
		}
	}
	colName, err := excelize.ColumnNumberToName(policyCol)
	if err != nil {
		return nil, err
	}
	if err := f.SetColStyle(sheet, colName, textStyle); err != nil {
		return nil, err
	}

	for rowIdx, row := range rows {
		values := recordMap(row)
		for colIdx, col := range parser.RegisterColumns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, values[col]); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// PremiumSummaryView returns one report month's rows and the eligible
// premium total (FP + FY scheduled premium). Defaults to the most
// recently uploaded month.
func (h *Handler) PremiumSummaryView(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	db := h.tenantDB(w, sess)
	if db == nil {
		return
	}

	months, err := h.store.PremiumMonths(db, sess.Username)
	if err != nil {
		h.log.Error("listing premium months", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load premium summary")
		return
	}
	if len(months) == 0 {
		h.respondJSON(w, http.StatusOK, map[string]any{
			"months": []string{},
			"rows":   []any{},
		})
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = months[0]
	}

	rows, err := h.store.PremiumSummary(db, month, sess.Username)
	if err != nil {
		h.log.Error("reading premium summary", zap.String("month", month), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load premium summary")
		return
	}

	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		out[i] = map[string]string{
			"Agency Code":   row.AgencyCode,
			"report_month":  row.ReportMonth,
			"total_premium": row.TotalPremium,
			"fp_sch_prem":   row.FPSchPrem,
			"fy_sch_prem":   row.FYSchPrem,
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"months":           months,
		"report_month":     month,
		"rows":             out,
		"eligible_premium": store.EligiblePremium(rows).StringFixed(2),
	})
}

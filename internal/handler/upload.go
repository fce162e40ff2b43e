package handler

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/wrapborne/udaan1/internal/auth"
	"github.com/wrapborne/udaan1/internal/extractor"
	"github.com/wrapborne/udaan1/internal/parser"
	"github.com/wrapborne/udaan1/internal/store"
)

// Uploads are whole report files held in memory; registers and summaries
// are small, but cap the form parse anyway.
const maxUploadBytes = 32 << 20

// readUploadFile pulls the named multipart file into memory.
func (h *Handler) readUploadFile(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return "", nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing file field "+field)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "could not read uploaded file")
		return "", nil, false
	}
	return header.Filename, data, true
}

// UploadRegister ingests a proposal-register export into the caller's
// tenant database. The response reports surviving and skipped records.
func (h *Handler) UploadRegister(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	db := h.tenantDB(w, sess)
	if db == nil {
		return
	}

	filename, data, ok := h.readUploadFile(w, r, "file")
	if !ok {
		return
	}

	rep := parser.ParseRegister(string(data))
	if len(rep.Records) == 0 {
		h.respondJSON(w, http.StatusOK, map[string]any{
			"imported": 0,
			"skipped":  len(rep.Skipped),
			"message":  "no valid records found in uploaded file",
		})
		return
	}

	written, err := h.store.UpsertPolicies(db, rep.Records, sess.Username)
	if err != nil {
		h.log.Error("saving register upload", zap.String("file", filename), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save records")
		return
	}

	h.log.Info("register uploaded",
		zap.String("username", sess.Username),
		zap.String("file", filename),
		zap.Int("imported", written),
		zap.Int("skipped", len(rep.Skipped)))

	skips := make([]map[string]any, len(rep.Skipped))
	for i, s := range rep.Skipped {
		skips[i] = map[string]any{"line": s.Line, "reason": s.Reason}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"imported":     written,
		"skipped":      len(rep.Skipped),
		"skip_reasons": skips,
	})
}

// UploadPremium ingests a premium-summary report (PDF or text) for the
// caller. A "force=true" form value overwrites a conflicting month.
func (h *Handler) UploadPremium(w http.ResponseWriter, r *http.Request) {
	sess := h.adminSession(w, r)
	if sess == nil {
		return
	}
	db := h.tenantDB(w, sess)
	if db == nil {
		return
	}

	filename, data, ok := h.readUploadFile(w, r, "file")
	if !ok {
		return
	}
	force := r.FormValue("force") == "true"

	text, err := extractor.SummaryText(filename, data)
	if err != nil {
		h.log.Warn("premium summary unreadable", zap.String("file", filename), zap.Error(err))
		h.respondError(w, http.StatusBadRequest, "could not extract text from uploaded file")
		return
	}

	records := parser.ParsePremiumSummary(text)
	if len(records) == 0 {
		h.respondJSON(w, http.StatusOK, map[string]any{
			"imported": 0,
			"message":  "no agent totals found in uploaded file",
		})
		return
	}

	err = h.store.SavePremiumSummary(db, records, sess.Username, force)
	if errors.Is(err, store.ErrMonthConflict) {
		h.respondJSON(w, http.StatusConflict, map[string]any{
			"error":        err.Error(),
			"report_month": records[0].ReportMonth,
			"hint":         "re-upload with force=true to overwrite",
		})
		return
	}
	if err != nil {
		h.log.Error("saving premium summary", zap.String("file", filename), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save premium summary")
		return
	}

	h.log.Info("premium summary uploaded",
		zap.String("username", sess.Username),
		zap.String("file", filename),
		zap.String("report_month", records[0].ReportMonth),
		zap.Int("rows", len(records)))

	h.respondJSON(w, http.StatusOK, map[string]any{
		"imported":     len(records),
		"report_month": records[0].ReportMonth,
	})
}

// sessionFilter narrows a policy filter to what the caller may see:
// agents only ever see their own agency's rows.
func sessionFilter(sess *auth.Session, f store.PolicyFilter) store.PolicyFilter {
	if sess.Role == auth.RoleAgent {
		f.AgencyCode = sess.AgencyCode
	}
	return f
}

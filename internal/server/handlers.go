package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/meisai-dev/meisai/internal/diagnosis"
	"github.com/meisai-dev/meisai/internal/importer"
	"github.com/meisai-dev/meisai/internal/ledger"
	"github.com/meisai-dev/meisai/internal/logger"
	"github.com/meisai-dev/meisai/internal/period"
	"github.com/meisai-dev/meisai/internal/plparse"
)

type convertResponse struct {
	Encoding    string                       `json:"encoding"`
	Records     int                          `json:"records"`
	Skipped     int                          `json:"skipped"`
	SkipReasons map[importer.SkipReason]int  `json:"skip_reasons,omitempty"`
	Months      []ledger.MonthSummary        `json:"months"`
	Categories  []ledger.Rollup              `json:"categories"`
	Subjects    []ledger.Rollup              `json:"subjects"`
	Mismatches  map[string][]ledger.Mismatch `json:"mismatches,omitempty"`
	Health      *diagnosis.Report            `json:"health"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleConvert takes a bank CSV in the multipart field "file". By default
// it answers with a JSON summary; ?format=csv&month=YYYY-MM returns that
// month as CSV instead.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		s.fail(w, r, uploadError(err))
		return
	}
	raw, err := formFile(r, "file")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	records, stats, err := importer.NewBankParser(s.classifier, log).ParseBytes(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l := ledger.New(records)

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		s.writeMonthCSV(w, r, l, r.URL.Query().Get("month"))
		return
	}

	resp := convertResponse{
		Encoding:    stats.Encoding,
		Records:     stats.Parsed,
		Skipped:     stats.Skipped,
		SkipReasons: stats.Reasons,
		Months:      ledger.Summary(l.Buckets),
		Categories:  ledger.ByCategory(l.Records),
		Subjects:    ledger.BySubject(l.Records),
		Health:      diagnosis.Diagnose(l, &s.cfg.Diagnosis),
	}
	for i := range l.Buckets {
		if mm := ledger.Reconcile(&l.Buckets[i]); len(mm) > 0 {
			if resp.Mismatches == nil {
				resp.Mismatches = make(map[string][]ledger.Mismatch)
			}
			resp.Mismatches[l.Buckets[i].Key()] = mm
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeMonthCSV(w http.ResponseWriter, r *http.Request, l *ledger.Ledger, month string) {
	var b *ledger.Bucket
	switch {
	case month != "":
		if _, _, err := period.Parse(month); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		b = l.ForKey(month)
	case len(l.Buckets) == 1:
		b = &l.Buckets[0]
	default:
		writeError(w, r, http.StatusBadRequest, "month is required when the statement spans several months")
		return
	}
	if b == nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("no records for month %q", month))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ledger.FileName(b)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, ledger.BOM); err != nil {
		return
	}
	if err := ledger.WriteMonth(w, b); err != nil {
		logger.FromContext(r.Context()).Error("writing month CSV", "month", b.Key(), "error", err)
	}
}

// handleEvaluate scores the P&L text in form field "pl_text", optionally
// cross-checked against a bank CSV in multipart field "csv_file".
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.fail(w, r, uploadError(err))
		return
	}
	text := r.FormValue("pl_text")
	if strings.TrimSpace(text) == "" {
		writeError(w, r, http.StatusBadRequest, "pl_text is required")
		return
	}

	var bank *ledger.Ledger
	raw, err := formFile(r, "csv_file")
	switch {
	case err == nil:
		records, _, err := importer.NewBankParser(s.classifier, log).ParseBytes(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		bank = ledger.New(records)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		s.fail(w, r, err)
		return
	}

	report, err := diagnosis.Evaluate(plparse.Extract(text), bank, &s.cfg.Diagnosis)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// requestError is a client mistake with a fixed status.
type requestError struct {
	status int
	msg    string
	err    error
}

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return e.err }

func uploadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit), err: err}
	}
	return &requestError{status: http.StatusBadRequest, msg: "malformed form: " + err.Error(), err: err}
}

func formFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		return nil, &requestError{status: http.StatusBadRequest, msg: "reading " + field + ": " + err.Error(), err: err}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	return data, nil
}

// fail maps err to a status code and writes it as JSON.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr    *requestError
		encErr    *importer.EncodingError
		schemaErr *importer.SchemaError
		valErr    *diagnosis.ValidationError
	)
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.As(err, &reqErr):
		status, msg = reqErr.status, reqErr.msg
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		status, msg = http.StatusBadRequest, "a CSV file upload is required"
	case errors.As(err, &encErr), errors.As(err, &schemaErr), errors.As(err, &valErr):
		status, msg = http.StatusBadRequest, err.Error()
	}

	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, r, status, msg)
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

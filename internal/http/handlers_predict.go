package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"budgetlens/internal/core"
	applog "budgetlens/internal/log"
	"budgetlens/internal/model"
	"budgetlens/internal/tabular"
)

const maxMultipartMemory = 1 << 20

// handlePredict categorizes one account/tag pair. It accepts form or JSON
// bodies and answers with the prediction partial, or JSON for JSON requests.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	account, tag := parser.Get("account"), parser.Get("tag")

	if msg := s.validateSelection(account, tag); msg != "" {
		s.logger.WarnContext(r.Context(), "Prediction rejected",
			applog.FieldAccount, account,
			applog.FieldTag, tag,
			applog.FieldErrorType, applog.ErrorTypeValidation)
		if parser.IsJSON() {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": msg})
			return
		}
		UnprocessableEntityError(msg).Write(w)
		return
	}

	p, err := s.deps.Categorizer.Predict(r.Context(), account, tag)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Prediction failed", applog.FieldError, err)
		InternalServerError("Prediction failed. Please try again later.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.predictions, 1)

	if parser.IsJSON() {
		writeJSON(w, http.StatusOK, map[string]string{"account": p.Account, "tag": p.Tag, "label": p.Label})
		return
	}
	s.render(w, r, http.StatusOK, "prediction.html", p)
}

func (s *Server) validateSelection(account, tag string) string {
	switch {
	case account == "" || tag == "":
		return "Please select both an account and a tag."
	case !s.deps.Options.HasAccount(account):
		return "Unknown account: " + account
	case !s.deps.Options.HasTag(tag):
		return "Unknown tag: " + tag
	}
	return ""
}

// handleCategorize labels every row of an uploaded CSV. With Accept: text/csv
// the file comes straight back; otherwise a preview partial links to a
// cached download.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "File is too large. The limit is "+strconv.FormatInt(s.cfg.MaxUploadBytes>>20, 10)+" MiB.").Write(w)
			return
		}
		BadRequestError("Invalid upload").Write(w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		UnprocessableEntityError("Please choose a CSV file to upload.").Write(w)
		return
	}
	defer file.Close()

	table, err := tabular.Read(file)
	if err != nil {
		s.logger.WarnContext(ctx, "Upload is not a readable CSV",
			applog.FieldFilename, header.Filename,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeData)
		UnprocessableEntityError("The file could not be read as CSV.").Write(w)
		return
	}

	res, err := s.deps.Categorizer.CategorizeBatch(ctx, table, header.Filename)
	switch {
	case errors.Is(err, core.ErrMissingColumns):
		UnprocessableEntityError("CSV must contain 'account' and 'tags' columns.").Write(w)
		return
	case errors.Is(err, model.ErrModelMismatch):
		InternalServerError("The model is misconfigured. Please contact the administrator.").Write(w)
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "Batch categorization failed", applog.FieldError, err)
		InternalServerError("Categorization failed. Please try again later.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.batches, 1)
	atomic.AddInt64(&s.appMetrics.rowsClassified, int64(res.Output.Len()))

	if wantsCSV(r) {
		writeCSV(w, res.Filename, res.CSV)
		return
	}

	s.downloads.Set(res.BatchID, res.CSV)
	data := struct {
		BatchID     string
		Filename    string
		Rows        int
		Preview     *core.Table
		LabelCounts []core.LabelCount
		DownloadURL string
	}{
		BatchID:     res.BatchID,
		Filename:    res.Filename,
		Rows:        res.Output.Len(),
		Preview:     res.Preview,
		LabelCounts: res.LabelCounts,
		DownloadURL: "/categorize/download/" + res.BatchID,
	}
	NewHTMXResponse().
		TriggerBatchCategorized(res.BatchID, res.Output.Len()).
		TriggerHistoryRefresh().
		TriggerNotification(NotificationSuccess, fmt.Sprintf("Categorized %d rows from %s", res.Output.Len(), res.Filename), 3000).
		WriteHeaders(w)
	s.render(w, r, http.StatusOK, "categorize_result.html", data)
}

// handleDownload serves a categorized CSV kept from a recent upload.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, ok := s.downloads.Get(id)
	if !ok {
		NotFoundError("This download has expired. Please upload the file again.").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.downloads, 1)
	writeCSV(w, core.CategorizedFilename, data)
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/config"
	"github.com/georgeokwiri254/entered-on-audit/src/logger"
	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/services"
	"github.com/georgeokwiri254/entered-on-audit/src/store"
	"github.com/georgeokwiri254/entered-on-audit/src/utils"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService services.AuditService
}

func NewAuditHandler(service services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: service,
	}
}

// HandleWorkbookUpload accepts the "Entered On" workbook as a multipart file
// upload and stages its rows for the next run.
func (h *AuditHandler) HandleWorkbookUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to parse upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	count, err := h.auditService.ImportWorkbook(file, fileHeader.Filename)
	if err != nil {
		ctxLogger.Warn("Workbook import failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, map[string]any{"filename": fileHeader.Filename, "reservations": count}, http.StatusOK)
}

// HandleSubmitDocuments accepts a JSON array of confirmation documents and
// stages their extracted records for the next run. Documents without an id or
// timestamp get defaults; nothing is rejected for parse failures.
func (h *AuditHandler) HandleSubmitDocuments(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	var docs []models.RawDocument
	if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
		ctxLogger.Warn("Invalid document payload", "error", err)
		utils.SendJSONError(w, "invalid JSON document payload", http.StatusBadRequest)
		return
	}
	if len(docs) == 0 {
		utils.SendJSONError(w, "no documents in payload", http.StatusBadRequest)
		return
	}

	now := time.Now()
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		if docs[i].Channel == "" {
			docs[i].Channel = models.ChannelEmail
		}
		if docs[i].ReceivedAt.IsZero() {
			docs[i].ReceivedAt = now
		}
	}

	accepted := h.auditService.SubmitDocuments(docs)
	utils.WriteJSON(w, map[string]int{"accepted": accepted}, http.StatusOK)
}

// HandleRunAudit reconciles and audits everything staged and returns the run
// summary.
func (h *AuditHandler) HandleRunAudit(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	stats, err := h.auditService.RunAudit(r.Context())
	if err == services.ErrNoWorkbook {
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		ctxLogger.Error("Audit run failed", "error", err)
		utils.SendJSONError(w, "audit run failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, stats, http.StatusOK)
}

// HandleResults returns persisted audit outcomes, filtered by the run_id,
// status, arrival_from and arrival_to query parameters.
func (h *AuditHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	filter, err := resultFilterFromQuery(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.auditService.Results(filter)
	if err == services.ErrNoRuns {
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to query audit results", "error", err)
		utils.SendJSONError(w, "failed to query audit results", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{"count": len(rows), "results": rows}, http.StatusOK)
}

// HandleExport streams the filtered audit outcomes as a CSV download.
func (h *AuditHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := resultFilterFromQuery(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="entered_on_audit.csv"`)

	if err := h.auditService.ExportCSV(w, filter); err != nil {
		logger.FromContext(r.Context()).Error("CSV export failed", "error", err)
	}
}

// HandleSummary returns the stats of a run (latest when run_id is absent).
func (h *AuditHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.auditService.Summary(r.URL.Query().Get("run_id"))
	if err == services.ErrNoRuns {
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load run summary", "error", err)
		utils.SendJSONError(w, "failed to load run summary", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, stats, http.StatusOK)
}

// HandleListRuns returns the run history.
func (h *AuditHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	runs, err := h.auditService.Runs(limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list runs", "error", err)
		utils.SendJSONError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, map[string]any{"count": len(runs), "runs": runs}, http.StatusOK)
}

func resultFilterFromQuery(r *http.Request) (store.ResultFilter, error) {
	q := r.URL.Query()
	filter := store.ResultFilter{
		RunID:  q.Get("run_id"),
		Status: q.Get("status"),
	}
	if raw := q.Get("arrival_from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid arrival_from %q, want YYYY-MM-DD", raw)
		}
		filter.ArrivalFrom = &t
	}
	if raw := q.Get("arrival_to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid arrival_to %q, want YYYY-MM-DD", raw)
		}
		filter.ArrivalTo = &t
	}
	return filter, nil
}

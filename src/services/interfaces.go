package services

import (
	"context"
	"errors"
	"io"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/store"
)

var (
	// ErrNoWorkbook: an audit run was requested before any workbook import.
	ErrNoWorkbook = errors.New("no workbook imported")
	// ErrEmptyWorkbook: the uploaded workbook contained no usable rows.
	ErrEmptyWorkbook = errors.New("workbook contains no reservations")
	// ErrNoRuns: results were requested but no run has ever completed.
	ErrNoRuns = errors.New("no audit runs recorded")
)

// AuditService stages workbook rows and confirmation documents, runs the
// reconciliation audit over them, and serves the persisted outcomes.
type AuditService interface {
	// ImportWorkbook replaces the staged spreadsheet with the rows of the
	// uploaded workbook and returns how many were read.
	ImportWorkbook(r io.Reader, filename string) (int, error)

	// SubmitDocuments classifies, extracts and normalizes confirmation
	// documents into the staging area. Returns how many were accepted;
	// documents are never rejected for parse failures.
	SubmitDocuments(docs []models.RawDocument) int

	// RunAudit reconciles and audits every staged reservation, persists the
	// outcomes under a fresh run id, and returns the run summary.
	RunAudit(ctx context.Context) (models.RunStats, error)

	// Results returns persisted audit outcomes. An empty RunID filter means
	// the latest run.
	Results(f store.ResultFilter) ([]store.AuditRow, error)

	// ExportCSV writes the filtered outcomes as CSV, one column per canonical
	// field plus its provenance tag.
	ExportCSV(w io.Writer, f store.ResultFilter) error

	// Summary returns the cached stats of a run; an empty id means the latest
	// run. Falls back to recomputing from the persisted outcomes.
	Summary(runID string) (models.RunStats, error)

	// Runs returns the run history, newest first.
	Runs(limit int) ([]models.RunInfo, error)
}

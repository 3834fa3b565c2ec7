package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/importers"
	"github.com/georgeokwiri254/entered-on-audit/src/logger"
	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/normalize"
	"github.com/georgeokwiri254/entered-on-audit/src/parsers"
	"github.com/georgeokwiri254/entered-on-audit/src/processors"
	"github.com/georgeokwiri254/entered-on-audit/src/store"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const auditWorkers = 4

type auditService struct {
	db         *sql.DB
	engine     *processors.RateEngine
	reconciler *processors.Reconciler
	auditor    *processors.Auditor
	cache      *gocache.Cache

	mu           sync.Mutex
	workbookName string
	reservations []models.SpreadsheetReservation
	emails       []models.NormalizedReservation
}

// NewAuditService wires the processing pipeline around a database handle.
// Run summaries are cached; a completed run's stats never change, so the TTL
// only bounds memory.
func NewAuditService(db *sql.DB, engine *processors.RateEngine, cacheTTL time.Duration) AuditService {
	return &auditService{
		db:         db,
		engine:     engine,
		reconciler: processors.NewReconciler(),
		auditor:    processors.NewAuditor(),
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *auditService) ImportWorkbook(r io.Reader, filename string) (int, error) {
	rows, err := importers.ReadWorkbook(r)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrEmptyWorkbook
	}

	s.mu.Lock()
	s.workbookName = filename
	s.reservations = rows
	s.mu.Unlock()

	logger.L.Info("workbook imported", "file", filename, "reservations", len(rows))
	return len(rows), nil
}

func (s *auditService) SubmitDocuments(docs []models.RawDocument) int {
	normalized := make([]models.NormalizedReservation, 0, len(docs))
	for _, doc := range docs {
		source := parsers.Classify(doc)
		rec := parsers.Extract(doc, source)
		n := normalize.Reservation(rec)
		s.engine.Derive(&n)
		if len(n.ParseNotes) > 0 {
			logger.L.Debug("document normalized with notes",
				"doc", doc.ID, "source", string(source), "notes", n.ParseNotes)
		}
		normalized = append(normalized, n)
	}

	s.mu.Lock()
	s.emails = append(s.emails, normalized...)
	s.mu.Unlock()

	logger.L.Info("documents submitted", "count", len(normalized))
	return len(normalized)
}

func (s *auditService) RunAudit(ctx context.Context) (models.RunStats, error) {
	s.mu.Lock()
	reservations := s.reservations
	emails := s.emails
	workbookName := s.workbookName
	s.mu.Unlock()

	if len(reservations) == 0 {
		return models.RunStats{}, ErrNoWorkbook
	}

	started := time.Now()
	runID := newRunID(started)
	if err := store.CreateRun(s.db, runID, workbookName, started); err != nil {
		return models.RunStats{}, err
	}
	if err := store.SaveRawReservations(s.db, runID, reservations); err != nil {
		return models.RunStats{}, err
	}
	if err := store.SaveEmailRecords(s.db, runID, emails); err != nil {
		return models.RunStats{}, err
	}

	stats := models.RunStats{RunID: runID, Total: len(reservations)}

	var (
		wg      sync.WaitGroup
		statsMu sync.Mutex
		jobs    = make(chan int)
	)
	for w := 0; w < auditWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s.auditOne(runID, &reservations[i], emails, &stats, &statsMu)
			}
		}()
	}
	for i := range reservations {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		store.LogRunError(s.db, runID, "run", "cancelled: "+err.Error())
		return stats, err
	}

	stats.ExecutionSeconds = time.Since(started).Seconds()
	if err := store.FinishRun(s.db, stats, len(emails), "COMPLETED"); err != nil {
		return stats, err
	}

	s.cache.Set(runID, stats, gocache.DefaultExpiration)
	s.cache.Set("latest_run_stats", stats, gocache.DefaultExpiration)

	logger.L.Info("audit run completed",
		"run_id", runID, "total", stats.Total, "complete", stats.Complete,
		"partial", stats.Partial, "failed", stats.Failed,
		"emails_matched", stats.EmailsMatched, "seconds", stats.ExecutionSeconds)
	return stats, nil
}

// auditOne reconciles and audits a single reservation and persists the
// outcome. Failures are logged against the run and counted; they never abort
// the other reservations.
func (s *auditService) auditOne(runID string, sheet *models.SpreadsheetReservation, emails []models.NormalizedReservation, stats *models.RunStats, statsMu *sync.Mutex) {
	candidates := s.reconciler.MatchCandidates(sheet, emails)
	rec := s.reconciler.Merge(sheet, candidates)
	res := s.auditor.Audit(&rec, runID, time.Now())

	if err := store.SaveAuditOutcome(s.db, &rec, &res); err != nil {
		logger.L.Error("failed to persist audit outcome", "resv_id", rec.ResvID, "error", err)
		store.LogRunError(s.db, runID, "persist "+rec.ResvID, err.Error())
	}

	statsMu.Lock()
	defer statsMu.Unlock()
	if rec.EmailDocID != "" {
		stats.EmailsMatched++
	}
	switch {
	case res.Status == models.AuditFail:
		stats.Failed++
	case hasMissingFields(&rec):
		stats.Partial++
	default:
		stats.Complete++
	}
}

func (s *auditService) Results(f store.ResultFilter) ([]store.AuditRow, error) {
	if f.RunID == "" {
		latest, err := store.LatestRunID(s.db)
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, ErrNoRuns
		}
		f.RunID = latest
	}
	return store.QueryAuditResults(s.db, f)
}

func (s *auditService) Summary(runID string) (models.RunStats, error) {
	if runID == "" {
		if cached, ok := s.cache.Get("latest_run_stats"); ok {
			return cached.(models.RunStats), nil
		}
		latest, err := store.LatestRunID(s.db)
		if err != nil {
			return models.RunStats{}, err
		}
		if latest == "" {
			return models.RunStats{}, ErrNoRuns
		}
		runID = latest
	}
	if cached, ok := s.cache.Get(runID); ok {
		return cached.(models.RunStats), nil
	}

	stats, err := store.RunSummary(s.db, runID)
	if err != nil {
		return models.RunStats{}, err
	}
	s.cache.Set(runID, stats, gocache.DefaultExpiration)
	return stats, nil
}

func (s *auditService) Runs(limit int) ([]models.RunInfo, error) {
	return store.ListRuns(s.db, limit)
}

func hasMissingFields(rec *models.ReconciledReservation) bool {
	for _, cell := range rec.Fields {
		if cell.Source == models.SourceMissing {
			return true
		}
	}
	return false
}

// newRunID builds run ids like run_20250830_141502_1a2b3c4d: sortable by
// start time, unique under concurrent starts.
func newRunID(t time.Time) string {
	return fmt.Sprintf("run_%s_%s", t.Format("20060102_150405"), uuid.NewString()[:8])
}

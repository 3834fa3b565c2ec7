package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(on)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}
	return db
}

func testReconciled(resvID string) models.ReconciledReservation {
	fields := make(map[string]models.Cell, len(models.CanonicalFields))
	for _, f := range models.CanonicalFields {
		fields[f] = models.Cell{Value: models.MissingValue, Source: models.SourceMissing}
	}
	fields[models.FieldFullName] = models.Cell{Value: "SMITH", Source: models.SourceSpreadsheet}
	fields[models.FieldArrival] = models.Cell{Value: "04/10/2025", Source: models.SourceSpreadsheet}
	return models.ReconciledReservation{
		ResvID:     resvID,
		Fields:     fields,
		EmailDocID: "doc-1",
		Match:      models.MatchStats{FieldsMatching: 5, TotalComparable: 7, MatchPercentage: 71.4, Status: models.MatchWarning},
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	started := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, CreateRun(db, "run-1", "entered_on.xlsx", started))

	rec := testReconciled("R-1001")
	res := models.AuditResult{
		ResvID:    "R-1001",
		RunID:     "run-1",
		Status:    models.AuditFail,
		Findings:  []models.Finding{{Rule: 4, Fields: []string{models.FieldNights}, Reason: "NIGHTS missing"}},
		Match:     rec.Match,
		AuditedAt: started.Add(time.Second),
	}
	require.NoError(t, SaveAuditOutcome(db, &rec, &res))

	stats := models.RunStats{RunID: "run-1", Total: 1, Failed: 1, ExecutionSeconds: 1.5}
	require.NoError(t, FinishRun(db, stats, 3, "COMPLETED"))

	runs, err := ListRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "entered_on.xlsx", runs[0].WorkbookName)
	assert.Equal(t, 3, runs[0].EmailsFound)
	assert.Equal(t, 1, runs[0].FailCount)
	assert.Equal(t, "COMPLETED", runs[0].Status)
}

func TestSaveAndQueryAuditResults(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	require.NoError(t, CreateRun(db, "run-1", "wb.xlsx", now))

	pass := testReconciled("R-1")
	passRes := models.AuditResult{ResvID: "R-1", RunID: "run-1", Status: models.AuditPass, Match: pass.Match, AuditedAt: now}
	require.NoError(t, SaveAuditOutcome(db, &pass, &passRes))

	fail := testReconciled("R-2")
	failRes := models.AuditResult{
		ResvID: "R-2", RunID: "run-1", Status: models.AuditFail,
		Findings:  []models.Finding{{Rule: 3, Fields: []string{models.FieldPersons}, Reason: "PERSONS is 0"}},
		Match:     fail.Match,
		AuditedAt: now,
	}
	require.NoError(t, SaveAuditOutcome(db, &fail, &failRes))

	all, err := QueryAuditResults(db, ResultFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "SMITH", all[0].Fields[models.FieldFullName].Value)
	assert.Equal(t, models.SourceSpreadsheet, all[0].Fields[models.FieldFullName].Source)
	assert.Equal(t, models.MissingValue, all[0].Fields[models.FieldPersons].Value)

	failed, err := QueryAuditResults(db, ResultFilter{RunID: "run-1", Status: models.AuditFail})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "R-2", failed[0].ResvID)
	assert.Equal(t, "PERSONS is 0", failed[0].Issues)
}

func TestQueryAuditResultsArrivalRange(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	require.NoError(t, CreateRun(db, "run-1", "wb.xlsx", now))

	rec := testReconciled("R-1")
	res := models.AuditResult{ResvID: "R-1", RunID: "run-1", Status: models.AuditPass, Match: rec.Match, AuditedAt: now}
	require.NoError(t, SaveAuditOutcome(db, &rec, &res))

	from := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	rows, err := QueryAuditResults(db, ResultFilter{RunID: "run-1", ArrivalFrom: &from, ArrivalTo: &to})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	later := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	rows, err = QueryAuditResults(db, ResultFilter{RunID: "run-1", ArrivalFrom: &later})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSaveSnapshots(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	require.NoError(t, CreateRun(db, "run-1", "wb.xlsx", now))

	nights := 3
	net := decimal.RequireFromString("900.00")
	arrival := time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)

	raw := []models.SpreadsheetReservation{{
		ResvID: "R-1", FullName: "SMITH", Arrival: &arrival, Nights: &nights, NetTotal: &net,
	}}
	require.NoError(t, SaveRawReservations(db, "run-1", raw))

	emails := []models.NormalizedReservation{{
		DocID: "doc-1", Source: models.OTABookingCom, ReceivedAt: now,
		FullName: "SMITH", Arrival: &arrival, Nights: &nights, NetTotal: &net,
		Currency:   "AED",
		ParseNotes: []string{"ROOM: room description unmapped"},
	}}
	require.NoError(t, SaveEmailRecords(db, "run-1", emails))

	var rawCount, emailCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reservations_raw WHERE run_id = 'run-1'`).Scan(&rawCount))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reservations_email WHERE run_id = 'run-1'`).Scan(&emailCount))
	assert.Equal(t, 1, rawCount)
	assert.Equal(t, 1, emailCount)

	var storedArrival, storedCurrency, storedNotes string
	require.NoError(t, db.QueryRow(`SELECT arrival, currency, parse_notes FROM reservations_email`).Scan(&storedArrival, &storedCurrency, &storedNotes))
	assert.Equal(t, "04/10/2025", storedArrival)
	assert.Equal(t, "AED", storedCurrency)
	assert.Contains(t, storedNotes, "unmapped")
}

func TestRunSummary(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	require.NoError(t, CreateRun(db, "run-1", "wb.xlsx", now))

	partial := testReconciled("R-1") // has MISSING fields
	partialRes := models.AuditResult{ResvID: "R-1", RunID: "run-1", Status: models.AuditPass, Match: partial.Match, AuditedAt: now}
	require.NoError(t, SaveAuditOutcome(db, &partial, &partialRes))

	failed := testReconciled("R-2")
	failedRes := models.AuditResult{ResvID: "R-2", RunID: "run-1", Status: models.AuditFail, Match: failed.Match, AuditedAt: now}
	require.NoError(t, SaveAuditOutcome(db, &failed, &failedRes))

	stats, err := RunSummary(db, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Partial)
	assert.Equal(t, 0, stats.Complete)
	assert.Equal(t, 2, stats.EmailsMatched)
}

func TestLatestRunID(t *testing.T) {
	db := openTestDB(t)

	latest, err := LatestRunID(db)
	require.NoError(t, err)
	assert.Empty(t, latest)

	require.NoError(t, CreateRun(db, "run-1", "", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, CreateRun(db, "run-2", "", time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)))

	latest, err = LatestRunID(db)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest)
}

func TestPurgeRunsBefore(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, CreateRun(db, "run-old", "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, CreateRun(db, "run-new", "", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))

	rec := testReconciled("R-1")
	res := models.AuditResult{ResvID: "R-1", RunID: "run-old", Status: models.AuditPass, Match: rec.Match, AuditedAt: time.Now()}
	require.NoError(t, SaveAuditOutcome(db, &rec, &res))

	purged, err := PurgeRunsBefore(db, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var orphans int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reservations_audit`).Scan(&orphans))
	assert.Zero(t, orphans)

	runs, err := ListRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-new", runs[0].RunID)
}

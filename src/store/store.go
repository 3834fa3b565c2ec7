package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/shopspring/decimal"
)

// isoDate is the storage layout for the indexed arrival column; it sorts
// lexicographically, so range filters are plain string comparisons.
const isoDate = "2006-01-02"

// CreateRun inserts the run row before any per-reservation work starts, so
// partial runs remain visible in the history.
func CreateRun(db *sql.DB, runID, workbookName string, startedAt time.Time) error {
	_, err := db.Exec(
		`INSERT INTO audit_runs (run_id, started_at, workbook_name) VALUES (?, ?, ?)`,
		runID, startedAt.UTC().Format(time.RFC3339), nullStr(workbookName),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", runID, err)
	}
	return nil
}

// FinishRun records the final counters and status of a run.
func FinishRun(db *sql.DB, stats models.RunStats, emailsFound int, status string) error {
	_, err := db.Exec(
		`UPDATE audit_runs
		 SET reservations_loaded = ?, emails_found = ?, pass_count = ?, fail_count = ?,
		     execution_seconds = ?, status = ?
		 WHERE run_id = ?`,
		stats.Total, emailsFound, stats.Complete+stats.Partial, stats.Failed,
		stats.ExecutionSeconds, status, stats.RunID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", stats.RunID, err)
	}
	return nil
}

// SaveRawReservations snapshots the imported workbook rows for a run in one
// transaction.
func SaveRawReservations(db *sql.DB, runID string, rows []models.SpreadsheetReservation) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save raw reservations: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO reservations_raw
		 (run_id, resv_id, full_name, first_name, arrival, departure, nights, persons,
		  room, rate_code, c_t_s, net_total, total, tdf, adr, amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save raw reservations: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		_, err := stmt.Exec(
			runID, r.ResvID, nullStr(r.FullName), nullStr(r.FirstName),
			dateVal(r.Arrival), dateVal(r.Departure), intVal(r.Nights), intVal(r.Persons),
			nullStr(r.Room), nullStr(r.RateCode), nullStr(r.CTS),
			decVal(r.NetTotal), decVal(r.Total), decVal(r.TDF), decVal(r.ADR), decVal(r.Amount),
		)
		if err != nil {
			return fmt.Errorf("save raw reservation %s: %w", r.ResvID, err)
		}
	}
	return tx.Commit()
}

// SaveEmailRecords snapshots the normalized email extractions for a run in
// one transaction.
func SaveEmailRecords(db *sql.DB, runID string, records []models.NormalizedReservation) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save email records: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO reservations_email
		 (run_id, doc_id, source, received_at, full_name, first_name, arrival, departure,
		  nights, persons, room, rate_code, c_t_s, currency, net_total, total, tdf, adr, amount, parse_notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save email records: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		n := &records[i]
		_, err := stmt.Exec(
			runID, n.DocID, string(n.Source), n.ReceivedAt.UTC().Format(time.RFC3339),
			nullStr(n.FullName), nullStr(n.FirstName),
			dateVal(n.Arrival), dateVal(n.Departure), intVal(n.Nights), intVal(n.Persons),
			nullStr(n.Room), nullStr(n.RateCode), nullStr(n.CTS), nullStr(n.Currency),
			decVal(n.NetTotal), decVal(n.Total), decVal(n.TDF), decVal(n.ADR), decVal(n.Amount),
			nullStr(strings.Join(n.ParseNotes, "; ")),
		)
		if err != nil {
			return fmt.Errorf("save email record %s: %w", n.DocID, err)
		}
	}
	return tx.Commit()
}

// SaveAuditOutcome persists one reconciled reservation and its audit result
// atomically. A crash mid-run loses at most in-flight reservations, never
// half of one.
func SaveAuditOutcome(db *sql.DB, rec *models.ReconciledReservation, res *models.AuditResult) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("save audit outcome %s: %w", rec.ResvID, err)
	}

	var arrivalISO any
	if t, ok := rec.Date(models.FieldArrival); ok {
		arrivalISO = t.Format(isoDate)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save audit outcome %s: %w", rec.ResvID, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO reservations_audit
		 (run_id, resv_id, arrival_iso, email_doc_id, fields_json, audit_status, audit_issues,
		  fields_matching, total_comparable, match_percentage, email_match_status, audited_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, rec.ResvID, arrivalISO, nullStr(rec.EmailDocID), string(fieldsJSON),
		res.Status, nullStr(res.IssueSummary()),
		rec.Match.FieldsMatching, rec.Match.TotalComparable, rec.Match.MatchPercentage,
		rec.Match.Status, res.AuditedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save audit outcome %s: %w", rec.ResvID, err)
	}
	return tx.Commit()
}

// LogRunError appends a non-fatal error to the run's error log.
func LogRunError(db *sql.DB, runID, context, msg string) {
	db.Exec(`INSERT INTO run_errors (run_id, context, error) VALUES (?, ?, ?)`, runID, context, msg)
}

// AuditRow is one persisted audit outcome as returned by queries and export.
type AuditRow struct {
	ResvID      string                 `json:"resv_id"`
	RunID       string                 `json:"run_id"`
	Fields      map[string]models.Cell `json:"fields"`
	EmailDocID  string                 `json:"email_doc_id,omitempty"`
	AuditStatus string                 `json:"audit_status"`
	Issues      string                 `json:"issues,omitempty"`
	Match       models.MatchStats      `json:"match"`
	AuditedAt   time.Time              `json:"audited_at"`
}

// ResultFilter narrows an audit-result query. Zero values mean "no filter";
// an empty RunID means the latest run.
type ResultFilter struct {
	RunID       string
	Status      string
	ArrivalFrom *time.Time
	ArrivalTo   *time.Time
}

// LatestRunID returns the most recently started run, or "" when none exist.
func LatestRunID(db *sql.DB) (string, error) {
	var runID string
	err := db.QueryRow(`SELECT run_id FROM audit_runs ORDER BY started_at DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

// QueryAuditResults returns the persisted outcomes matching the filter,
// ordered by reservation id.
func QueryAuditResults(db *sql.DB, f ResultFilter) ([]AuditRow, error) {
	query := `SELECT resv_id, run_id, arrival_iso, email_doc_id, fields_json, audit_status,
	                 audit_issues, fields_matching, total_comparable, match_percentage,
	                 email_match_status, audited_at
	          FROM reservations_audit WHERE 1=1`
	var args []any

	if f.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, f.RunID)
	}
	if f.Status != "" {
		query += ` AND audit_status = ?`
		args = append(args, f.Status)
	}
	if f.ArrivalFrom != nil {
		query += ` AND arrival_iso >= ?`
		args = append(args, f.ArrivalFrom.Format(isoDate))
	}
	if f.ArrivalTo != nil {
		query += ` AND arrival_iso <= ?`
		args = append(args, f.ArrivalTo.Format(isoDate))
	}
	query += ` ORDER BY resv_id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit results: %w", err)
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var (
			row        AuditRow
			arrivalISO sql.NullString
			emailDocID sql.NullString
			issues     sql.NullString
			fieldsJSON string
			auditedAt  string
		)
		err := rows.Scan(
			&row.ResvID, &row.RunID, &arrivalISO, &emailDocID, &fieldsJSON,
			&row.AuditStatus, &issues, &row.Match.FieldsMatching, &row.Match.TotalComparable,
			&row.Match.MatchPercentage, &row.Match.Status, &auditedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit result: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &row.Fields); err != nil {
			return nil, fmt.Errorf("decode audit fields for %s: %w", row.ResvID, err)
		}
		row.EmailDocID = emailDocID.String
		row.Issues = issues.String
		if t, err := time.Parse(time.RFC3339, auditedAt); err == nil {
			row.AuditedAt = t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListRuns returns the run history, newest first.
func ListRuns(db *sql.DB, limit int) ([]models.RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT run_id, started_at, workbook_name, reservations_loaded, emails_found,
		        pass_count, fail_count, status
		 FROM audit_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunInfo
	for rows.Next() {
		var (
			info      models.RunInfo
			startedAt string
			workbook  sql.NullString
		)
		err := rows.Scan(&info.RunID, &startedAt, &workbook, &info.Reservations,
			&info.EmailsFound, &info.PassCount, &info.FailCount, &info.Status)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			info.StartedAt = t
		}
		info.WorkbookName = workbook.String
		out = append(out, info)
	}
	return out, rows.Err()
}

// RunSummary recomputes a run's stats from the persisted outcomes. Partial
// means the audit passed but at least one field carries the MISSING tag.
func RunSummary(db *sql.DB, runID string) (models.RunStats, error) {
	stats := models.RunStats{RunID: runID}
	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN audit_status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN audit_status = ? AND fields_json LIKE ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN email_doc_id IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM reservations_audit WHERE run_id = ?`,
		models.AuditFail, models.AuditPass, `%"`+string(models.SourceMissing)+`"%`, runID,
	).Scan(&stats.Total, &stats.Failed, &stats.Partial, &stats.EmailsMatched)
	if err != nil {
		return stats, fmt.Errorf("run summary %s: %w", runID, err)
	}
	stats.Complete = stats.Total - stats.Failed - stats.Partial

	err = db.QueryRow(`SELECT execution_seconds FROM audit_runs WHERE run_id = ?`, runID).
		Scan(&stats.ExecutionSeconds)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("run summary %s: %w", runID, err)
	}
	return stats, nil
}

// PurgeRunsBefore deletes runs older than the cutoff; cascades take the
// per-run tables with them.
func PurgeRunsBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM audit_runs WHERE started_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purge runs: %w", err)
	}
	return res.RowsAffected()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateVal(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(models.DateLayout)
}

func intVal(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func decVal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

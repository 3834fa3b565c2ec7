package services

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/logger"
	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/processors"
	"github.com/georgeokwiri254/entered-on-audit/src/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

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
		require.NoError(t, err)
	}
	return db
}

func newTestService(t *testing.T) AuditService {
	t.Helper()
	engine := processors.NewRateEngine(
		decimal.NewFromInt(20),
		decimal.NewFromInt(40),
		30,
		decimal.RequireFromString("1.225"),
	)
	return NewAuditService(openTestDB(t), engine, time.Minute)
}

func workbookBytes(t *testing.T, rows ...[]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{"RESV_ID", "FULL_NAME", "FIRST_NAME", "ARRIVAL", "DEPARTURE", "NIGHTS", "ROOM", "RATE_CODE"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

const confirmationBody = `New Reservation
Guest Name: JOHN SMITH
Arrive: 10/04/2025
Depart: 10/07/2025
Total Nights: 3
Adult/Child: 2/0
Room Type: Deluxe Room with One King Bed
Rate Plan: BAR
Total Charges: AED 1300.00
`

func TestRunAuditEndToEnd(t *testing.T) {
	svc := newTestService(t)

	count, err := svc.ImportWorkbook(workbookBytes(t,
		[]any{"R-1", "SMITH", "JOHN", "04/10/2025", "07/10/2025", "3", "DK", "BAR"},
		[]any{"R-2", "GARCIA", "MARIA", "05/10/2025", "06/10/2025", "2", "SA", "BAR"},
	), "entered_on.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	accepted := svc.SubmitDocuments([]models.RawDocument{{
		ID:         "doc-1",
		Sender:     "noreply-reservations@millenniumhotels.com",
		Subject:    "Reservation Confirmation",
		Channel:    models.ChannelText,
		Body:       confirmationBody,
		ReceivedAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	}})
	assert.Equal(t, 1, accepted)

	stats, err := svc.RunAudit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.EmailsMatched)
	// R-2 has no email and a nights/date mismatch; R-1 passes but keeps
	// some fields missing.
	assert.Equal(t, 1, stats.Partial)
	assert.Equal(t, 1, stats.Failed)

	rows, err := svc.Results(store.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r1 := rows[0]
	assert.Equal(t, "R-1", r1.ResvID)
	assert.Equal(t, models.AuditPass, r1.AuditStatus)
	assert.Equal(t, "doc-1", r1.EmailDocID)
	// Workbook values win; email fills the gaps.
	assert.Equal(t, models.SourceSpreadsheet, r1.Fields[models.FieldNights].Source)
	assert.Equal(t, models.SourceEmail, r1.Fields[models.FieldPersons].Source)
	assert.Equal(t, "2", r1.Fields[models.FieldPersons].Value)
	// Interface dates are month-first: 10/04/2025 means October 4.
	assert.Equal(t, "04/10/2025", r1.Fields[models.FieldArrival].Value)
	// TDF-inclusive quote: 1300 - 60 TDF = 1240 net.
	assert.Equal(t, "1240.00", r1.Fields[models.FieldNetTotal].Value)
	assert.Equal(t, models.SourceEmail, r1.Fields[models.FieldNetTotal].Source)

	r2 := rows[1]
	assert.Equal(t, models.AuditFail, r2.AuditStatus)
	assert.Equal(t, models.MatchNoEmail, r2.Match.Status)
	assert.Contains(t, r2.Issues, "NIGHTS")
}

func TestRunAuditWithoutWorkbook(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RunAudit(context.Background())
	assert.ErrorIs(t, err, ErrNoWorkbook)
}

func TestSummaryAndRuns(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportWorkbook(workbookBytes(t,
		[]any{"R-1", "SMITH", "JOHN", "04/10/2025", "07/10/2025", "3", "DK", "BAR"},
	), "wb.xlsx")
	require.NoError(t, err)

	stats, err := svc.RunAudit(context.Background())
	require.NoError(t, err)

	summary, err := svc.Summary("")
	require.NoError(t, err)
	assert.Equal(t, stats.RunID, summary.RunID)
	assert.Equal(t, stats.Total, summary.Total)

	byID, err := svc.Summary(stats.RunID)
	require.NoError(t, err)
	assert.Equal(t, stats.Total, byID.Total)

	runs, err := svc.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, stats.RunID, runs[0].RunID)
	assert.Equal(t, "wb.xlsx", runs[0].WorkbookName)
}

func TestSummaryNoRuns(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Summary("")
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestExportCSV(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportWorkbook(workbookBytes(t,
		[]any{"R-1", "SMITH", "JOHN", "04/10/2025", "07/10/2025", "3", "DK", "BAR"},
	), "wb.xlsx")
	require.NoError(t, err)
	_, err = svc.RunAudit(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(&buf, store.ResultFilter{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "FULL_NAME,FULL_NAME_SOURCE")
	assert.Contains(t, lines[0], "AUDIT_STATUS")
	assert.Contains(t, lines[1], "R-1")
	assert.Contains(t, lines[1], "SMITH,SPREADSHEET")
	assert.Contains(t, lines[1], "N/A,MISSING")
}

func TestExportCSVEscapesFormulaPrefixes(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportWorkbook(workbookBytes(t,
		[]any{"R-1", "SMITH", "JOHN", "04/10/2025", "07/10/2025", "3", "DK", "BAR"},
	), "wb.xlsx")
	require.NoError(t, err)

	// A crafted confirmation email plants a formula in a free-text field;
	// the exported cell must come out inert.
	accepted := svc.SubmitDocuments([]models.RawDocument{{
		ID:      "doc-evil",
		Sender:  "noreply-reservations@millenniumhotels.com",
		Channel: models.ChannelText,
		Body: `Guest Name: JOHN SMITH
Arrive: 10/04/2025
Depart: 10/07/2025
Company Name: =HYPERLINK("http://evil.example";"click")
`,
		ReceivedAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	}})
	require.Equal(t, 1, accepted)

	_, err = svc.RunAudit(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(&buf, store.ResultFilter{}))

	out := buf.String()
	assert.Contains(t, out, `'=HYPERLINK`)
	for _, line := range strings.Split(out, "\n") {
		for _, cell := range strings.Split(line, ",") {
			cell = strings.Trim(cell, `"`)
			assert.False(t, strings.HasPrefix(cell, "="), "live formula cell in export: %q", cell)
		}
	}
}

func TestImportEmptyWorkbook(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ImportWorkbook(workbookBytes(t), "empty.xlsx")
	assert.ErrorIs(t, err, ErrEmptyWorkbook)
}

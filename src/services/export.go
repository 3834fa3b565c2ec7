package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/georgeokwiri254/entered-on-audit/src/security/validation"
	"github.com/georgeokwiri254/entered-on-audit/src/store"
)

// ExportCSV writes the filtered audit outcomes as CSV. Each canonical field
// gets a value column and a _SOURCE column so a reviewer can see which side
// supplied what; missing fields export as "N/A". Values that originate from
// email text are untrusted, so every free-text cell is run through the
// formula-injection sanitizer before it reaches the file.
func (s *auditService) ExportCSV(w io.Writer, f store.ResultFilter) error {
	rows, err := s.Results(f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	header := []string{"RESV_ID"}
	for _, field := range models.CanonicalFields {
		header = append(header, field, field+"_SOURCE")
	}
	header = append(header, "AUDIT_STATUS", "AUDIT_ISSUES", "MATCH_PERCENTAGE", "EMAIL_MATCH_STATUS")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	for _, row := range rows {
		record := []string{validation.SanitizeForFormulaInjection(row.ResvID)}
		for _, field := range models.CanonicalFields {
			cell, ok := row.Fields[field]
			if !ok {
				cell = models.Cell{Value: models.MissingValue, Source: models.SourceMissing}
			}
			record = append(record, validation.SanitizeForFormulaInjection(cell.Value), string(cell.Source))
		}
		record = append(record,
			row.AuditStatus,
			validation.SanitizeForFormulaInjection(row.Issues),
			fmt.Sprintf("%.1f", row.Match.MatchPercentage),
			row.Match.Status,
		)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

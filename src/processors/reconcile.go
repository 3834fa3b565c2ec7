package processors

import (
	"strings"
	"time"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
)

// Fields compared when scoring how well an email agrees with its spreadsheet
// row. Amount fields are excluded: the workbook's figures are authoritative
// and emails routinely quote a differently-composed total.
var comparableFields = []string{
	models.FieldFullName,
	models.FieldFirstName,
	models.FieldArrival,
	models.FieldDeparture,
	models.FieldNights,
	models.FieldPersons,
	models.FieldRoom,
}

// Reconciler merges spreadsheet rows with their matching email records into
// per-reservation reconciled views. Spreadsheet values always win; email
// values only fill gaps.
type Reconciler struct{}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// MatchCandidates returns the email records whose guest surname and arrival
// date both agree with the row. Name comparison is case-insensitive with
// whitespace collapsed.
func (r *Reconciler) MatchCandidates(sheet *models.SpreadsheetReservation, emails []models.NormalizedReservation) []models.NormalizedReservation {
	if sheet.FullName == "" || sheet.Arrival == nil {
		return nil
	}
	want := foldName(sheet.FullName)
	var out []models.NormalizedReservation
	for _, e := range emails {
		if e.Arrival == nil || !e.Arrival.Equal(*sheet.Arrival) {
			continue
		}
		if foldName(e.FullName) != want {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Merge builds the reconciled view of one row from its candidate emails.
// When several emails match, the one received closest to (but not after) the
// arrival date supplies values first; if every candidate arrived after, the
// earliest of those does. Fields present nowhere become "N/A" tagged MISSING.
func (r *Reconciler) Merge(sheet *models.SpreadsheetReservation, candidates []models.NormalizedReservation) models.ReconciledReservation {
	ordered := orderCandidates(sheet.Arrival, candidates)

	rec := models.ReconciledReservation{
		ResvID: sheet.ResvID,
		Fields: make(map[string]models.Cell, len(models.CanonicalFields)),
	}
	if len(ordered) > 0 {
		rec.EmailDocID = ordered[0].DocID
	}

	for _, field := range models.CanonicalFields {
		if v, ok := sheet.CanonicalValue(field); ok {
			rec.Fields[field] = models.Cell{Value: v, Source: models.SourceSpreadsheet}
			continue
		}
		filled := false
		for i := range ordered {
			if v, ok := ordered[i].CanonicalValue(field); ok {
				rec.Fields[field] = models.Cell{Value: v, Source: models.SourceEmail}
				filled = true
				break
			}
		}
		if !filled {
			rec.Fields[field] = models.Cell{Value: models.MissingValue, Source: models.SourceMissing}
		}
	}

	rec.Match = r.matchStats(sheet, ordered)
	return rec
}

// matchStats scores the best candidate against the spreadsheet row over the
// comparable fields. Only fields present on both sides count.
func (r *Reconciler) matchStats(sheet *models.SpreadsheetReservation, ordered []models.NormalizedReservation) models.MatchStats {
	if len(ordered) == 0 {
		return models.MatchStats{Status: models.MatchNoEmail}
	}
	best := &ordered[0]

	stats := models.MatchStats{}
	for _, field := range comparableFields {
		sv, sok := sheet.CanonicalValue(field)
		ev, eok := best.CanonicalValue(field)
		if !sok || !eok {
			continue
		}
		stats.TotalComparable++
		if fieldEqual(field, sv, ev) {
			stats.FieldsMatching++
		}
	}
	if stats.TotalComparable == 0 {
		stats.Status = models.MatchNoEmail
		return stats
	}

	stats.MatchPercentage = float64(stats.FieldsMatching) / float64(stats.TotalComparable) * 100
	switch {
	case stats.MatchPercentage >= 80:
		stats.Status = models.MatchPass
	case stats.MatchPercentage >= 60:
		stats.Status = models.MatchWarning
	default:
		stats.Status = models.MatchFail
	}
	return stats
}

// orderCandidates sorts candidates by merge priority: received closest to the
// arrival date without being after it first, then the earliest received after.
func orderCandidates(arrival *time.Time, candidates []models.NormalizedReservation) []models.NormalizedReservation {
	if len(candidates) <= 1 || arrival == nil {
		return candidates
	}
	ordered := make([]models.NormalizedReservation, len(candidates))
	copy(ordered, candidates)

	// Cutoff is end of the arrival day: a confirmation received on the
	// arrival date itself is not "after arrival".
	cutoff := arrival.Add(24 * time.Hour)
	better := func(a, b models.NormalizedReservation) bool {
		aBefore := a.ReceivedAt.Before(cutoff)
		bBefore := b.ReceivedAt.Before(cutoff)
		if aBefore != bBefore {
			return aBefore
		}
		if aBefore {
			return a.ReceivedAt.After(b.ReceivedAt)
		}
		return a.ReceivedAt.Before(b.ReceivedAt)
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && better(ordered[j], ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

func fieldEqual(field, a, b string) bool {
	if field == models.FieldRoom {
		// SK and ST both come back as "superior" in loose email text; treat
		// king/twin superior variants as interchangeable for scoring.
		if isSuperior(a) && isSuperior(b) {
			return true
		}
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func isSuperior(code string) bool {
	return strings.EqualFold(code, "SK") || strings.EqualFold(code, "ST")
}

func foldName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

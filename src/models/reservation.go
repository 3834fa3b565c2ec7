package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedReservation is an ExtractedRecord after normalization: dates are
// calendar dates, amounts are decimals, counts are integers, the room is a
// short code. Nil pointers mean the field is missing. Every present amount is
// non-negative, and when both dates are present NIGHTS equals their
// calendar-day difference or the record carries a parse note explaining why
// not.
type NormalizedReservation struct {
	DocID      string
	Source     OTASource
	ReceivedAt time.Time

	FullName  string
	FirstName string
	Arrival   *time.Time
	Departure *time.Time
	Nights    *int
	Persons   *int
	Room      string // short room code, "" when unmapped or missing
	RateCode  string
	CTS       string

	Currency string // "" when no currency code appeared in the source text
	NetTotal *decimal.Decimal
	Total    *decimal.Decimal
	TDF      *decimal.Decimal
	ADR      *decimal.Decimal
	Amount   *decimal.Decimal

	// ParseNotes collects per-field normalization failures; they demote a
	// field to missing but never abort the record.
	ParseNotes []string
}

// CanonicalValue renders a field to its canonical string form. The second
// return is false when the field is missing.
func (n *NormalizedReservation) CanonicalValue(field string) (string, bool) {
	switch field {
	case FieldFullName:
		return n.FullName, n.FullName != ""
	case FieldFirstName:
		return n.FirstName, n.FirstName != ""
	case FieldArrival:
		return renderDate(n.Arrival)
	case FieldDeparture:
		return renderDate(n.Departure)
	case FieldNights:
		return renderInt(n.Nights)
	case FieldPersons:
		return renderInt(n.Persons)
	case FieldRoom:
		return n.Room, n.Room != ""
	case FieldRateCode:
		return n.RateCode, n.RateCode != ""
	case FieldCTS:
		return n.CTS, n.CTS != ""
	case FieldNetTotal:
		return renderDecimal(n.NetTotal)
	case FieldTotal:
		return renderDecimal(n.Total)
	case FieldTDF:
		return renderDecimal(n.TDF)
	case FieldADR:
		return renderDecimal(n.ADR)
	case FieldAmount:
		return renderDecimal(n.Amount)
	}
	return "", false
}

// SpreadsheetReservation is one row of the "Entered On" workbook, already
// typed by the importer. Nil pointers mean the cell was empty.
type SpreadsheetReservation struct {
	ResvID string

	FullName  string
	FirstName string
	Arrival   *time.Time
	Departure *time.Time
	Nights    *int
	Persons   *int
	Room      string
	RateCode  string
	CTS       string

	NetTotal *decimal.Decimal
	Total    *decimal.Decimal
	TDF      *decimal.Decimal
	ADR      *decimal.Decimal
	Amount   *decimal.Decimal
}

// CanonicalValue renders a field to its canonical string form. The second
// return is false when the cell was empty.
func (s *SpreadsheetReservation) CanonicalValue(field string) (string, bool) {
	switch field {
	case FieldFullName:
		return s.FullName, s.FullName != ""
	case FieldFirstName:
		return s.FirstName, s.FirstName != ""
	case FieldArrival:
		return renderDate(s.Arrival)
	case FieldDeparture:
		return renderDate(s.Departure)
	case FieldNights:
		return renderInt(s.Nights)
	case FieldPersons:
		return renderInt(s.Persons)
	case FieldRoom:
		return s.Room, s.Room != ""
	case FieldRateCode:
		return s.RateCode, s.RateCode != ""
	case FieldCTS:
		return s.CTS, s.CTS != ""
	case FieldNetTotal:
		return renderDecimal(s.NetTotal)
	case FieldTotal:
		return renderDecimal(s.Total)
	case FieldTDF:
		return renderDecimal(s.TDF)
	case FieldADR:
		return renderDecimal(s.ADR)
	case FieldAmount:
		return renderDecimal(s.Amount)
	}
	return "", false
}

// Cell is one reconciled field value with its provenance tag.
type Cell struct {
	Value  string    `json:"value"`
	Source SourceTag `json:"source"`
}

// MatchStats summarizes how well email-extracted values agreed with the
// spreadsheet for the comparable fields of one reservation.
type MatchStats struct {
	FieldsMatching  int     `json:"fields_matching"`
	TotalComparable int     `json:"total_comparable"`
	MatchPercentage float64 `json:"match_percentage"`
	Status          string  `json:"status"` // PASS, WARNING, FAIL, NO_EMAIL_DATA
}

// ReconciledReservation merges one SpreadsheetReservation with its matching
// email records: one value per canonical field plus a provenance tag. It is
// created by the merge step, consumed by the audit engine, and never mutated
// afterwards.
type ReconciledReservation struct {
	ResvID     string          `json:"resv_id"`
	Fields     map[string]Cell `json:"fields"`
	EmailDocID string          `json:"email_doc_id,omitempty"`
	Match      MatchStats      `json:"match"`
}

// Get returns the canonical value for a field; found is false for MISSING.
func (r *ReconciledReservation) Get(field string) (value string, found bool) {
	cell, ok := r.Fields[field]
	if !ok || cell.Source == SourceMissing {
		return MissingValue, false
	}
	return cell.Value, true
}

// Date parses a date field from its canonical dd/mm/yyyy rendering.
func (r *ReconciledReservation) Date(field string) (time.Time, bool) {
	v, ok := r.Get(field)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Int parses an integer field from its canonical rendering.
func (r *ReconciledReservation) Int(field string) (int, bool) {
	v, ok := r.Get(field)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Decimal parses an amount field from its canonical rendering.
func (r *ReconciledReservation) Decimal(field string) (decimal.Decimal, bool) {
	v, ok := r.Get(field)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func renderDate(t *time.Time) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

func renderInt(i *int) (string, bool) {
	if i == nil {
		return "", false
	}
	return strconv.Itoa(*i), true
}

func renderDecimal(d *decimal.Decimal) (string, bool) {
	if d == nil {
		return "", false
	}
	return d.StringFixed(2), true
}

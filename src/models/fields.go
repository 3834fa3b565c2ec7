package models

// Canonical reservation field names. This set is a stable contract shared by
// the workbook importer, the email extractor, the merge step, the audit
// engine, persistence and export. Field values are rendered canonically as
// strings: dates as dd/mm/yyyy, amounts as plain two-decimal numbers,
// counts as integers.
const (
	FieldFullName  = "FULL_NAME"
	FieldFirstName = "FIRST_NAME"
	FieldArrival   = "ARRIVAL"
	FieldDeparture = "DEPARTURE"
	FieldNights    = "NIGHTS"
	FieldPersons   = "PERSONS"
	FieldRoom      = "ROOM"
	FieldRateCode  = "RATE_CODE"
	FieldCTS       = "C_T_S"
	FieldNetTotal  = "NET_TOTAL"
	FieldTotal     = "TOTAL"
	FieldTDF       = "TDF"
	FieldADR       = "ADR"
	FieldAmount    = "AMOUNT"
)

// CanonicalFields lists every canonical field in export order.
var CanonicalFields = []string{
	FieldFullName,
	FieldFirstName,
	FieldArrival,
	FieldDeparture,
	FieldNights,
	FieldPersons,
	FieldRoom,
	FieldRateCode,
	FieldCTS,
	FieldNetTotal,
	FieldTotal,
	FieldTDF,
	FieldADR,
	FieldAmount,
}

// MissingValue marks a field that neither source supplied. Extraction never
// records an empty string, so "N/A" is unambiguous.
const MissingValue = "N/A"

// DateLayout is the canonical dd/mm/yyyy rendering used everywhere a date
// becomes a string (workbook, email extraction, persistence, export).
const DateLayout = "02/01/2006"

// SourceTag records which side supplied a reconciled field value.
type SourceTag string

const (
	SourceSpreadsheet SourceTag = "SPREADSHEET"
	SourceEmail       SourceTag = "EMAIL"
	SourceMissing     SourceTag = "MISSING"
)

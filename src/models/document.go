package models

import "time"

// Document channels. A RawDocument's payload is already plain text; the
// channel records what it was decoded from.
const (
	ChannelEmail = "email"
	ChannelPDF   = "pdf"
	ChannelHTML  = "html"
	ChannelText  = "text"
)

// RawDocument is one confirmation email (or decoded attachment) as handed
// over by the mail-access collaborator. Immutable once captured.
type RawDocument struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	Channel     string    `json:"channel"`
	Body        string    `json:"body"`
	Attachments []string  `json:"attachments,omitempty"` // already decoded to plain text
	ReceivedAt  time.Time `json:"received_at"`
}

// OTASource identifies the booking channel a document came from. It is
// derived once per document and never changes afterwards.
type OTASource string

const (
	OTABookingCom  OTASource = "BOOKING.COM"
	OTAExpedia     OTASource = "EXPEDIA"
	OTAAgoda       OTASource = "AGODA"
	OTABrandCom    OTASource = "BRAND.COM"
	OTAInnLink2Way OTASource = "INNLINK2WAY"
	OTAUnknown     OTASource = "UNKNOWN"
)

// DateSwap reports whether raw date strings from this source are in
// month/day/year order and must be reinterpreted as day/month/year.
// This is a documented INNLINK2WAY quirk; every other source already
// sends day-first dates.
func (s OTASource) DateSwap() bool {
	return s == OTAInnLink2Way
}

// FormulaKind selects how the rate engine interprets the email-quoted amount.
type FormulaKind int

const (
	// FormulaTotal: the quoted amount includes TDF; NET_TOTAL = TOTAL - TDF.
	FormulaTotal FormulaKind = iota
	// FormulaNet: the quoted amount excludes TDF; TOTAL = NET_TOTAL + TDF.
	FormulaNet
	// FormulaDefault: the quoted amount is NET_TOTAL and doubles as AMOUNT.
	FormulaDefault
)

// Formula returns the rate formula for this source. INNLINK2WAY reservations
// not identifiable as Agoda/Expedia follow the Booking.com interpretation.
func (s OTASource) Formula() FormulaKind {
	switch s {
	case OTABookingCom, OTABrandCom, OTAInnLink2Way:
		return FormulaTotal
	case OTAExpedia, OTAAgoda:
		return FormulaNet
	default:
		return FormulaDefault
	}
}

// FieldValue is one extracted field: the raw captured string, whether any
// pattern matched, and an optional note from later normalization.
type FieldValue struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
	Note  string `json:"note,omitempty"`
}

// ExtractedRecord maps canonical field names to raw extracted values for a
// single RawDocument. Values are opaque strings until normalized.
type ExtractedRecord struct {
	DocID      string                `json:"doc_id"`
	Source     OTASource             `json:"source"`
	ReceivedAt time.Time             `json:"received_at"`
	Fields     map[string]FieldValue `json:"fields"`
}

// NewExtractedRecord returns a record with every canonical field missing.
func NewExtractedRecord(docID string, source OTASource, receivedAt time.Time) ExtractedRecord {
	fields := make(map[string]FieldValue, len(CanonicalFields))
	for _, f := range CanonicalFields {
		fields[f] = FieldValue{}
	}
	return ExtractedRecord{DocID: docID, Source: source, ReceivedAt: receivedAt, Fields: fields}
}

// Get returns the raw value for a field and whether it was found.
func (r ExtractedRecord) Get(field string) (string, bool) {
	fv := r.Fields[field]
	return fv.Value, fv.Found
}

// Set records a found value for a field.
func (r ExtractedRecord) Set(field, value string) {
	r.Fields[field] = FieldValue{Value: value, Found: true}
}

// SetNote attaches a note (typically a parse-error description) to a field
// without changing its value.
func (r ExtractedRecord) SetNote(field, note string) {
	fv := r.Fields[field]
	fv.Note = note
	r.Fields[field] = fv
}

// Clear marks a field as missing, keeping any note.
func (r ExtractedRecord) Clear(field string) {
	fv := r.Fields[field]
	fv.Value = ""
	fv.Found = false
	r.Fields[field] = fv
}

package parsers

import (
	"regexp"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
)

// patternSet maps a canonical field name to an ordered list of patterns.
// The first pattern whose first capture group matches wins. Fields absent
// from a source's set fall back to genericPatterns.
type patternSet map[string][]*regexp.Regexp

func pats(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Labels seen on CRS interface confirmations (the two-way feed). The quoted
// amount is captured into NET_TOTAL with its currency prefix; the rate engine
// reinterprets it per source.
var innlinkPatterns = patternSet{
	models.FieldFirstName: pats(
		`(?i)Guest Name:\s*(\S+)`,
	),
	models.FieldFullName: pats(
		`(?i)Guest Name:\s*\S+\s+([^\n]+)`,
		`(?i)Guest Name:\s*([^\n]+)`,
	),
	models.FieldArrival: pats(
		`(?i)Arrive:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`,
		`(?i)Arrival Date:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`,
	),
	models.FieldDeparture: pats(
		`(?i)Depart:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`,
		`(?i)Departure Date:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`,
	),
	models.FieldNights: pats(
		`(?i)Total Nights:?\s*(\d+)`,
	),
	models.FieldPersons: pats(
		`(?i)Adult/Child(?:ren)?:\s*(\d+)`,
		`(?i)Adults?:\s*(\d+)`,
	),
	models.FieldRoom: pats(
		`(?i)Room Type:\s*([^\n]+)`,
	),
	models.FieldRateCode: pats(
		`(?i)Rate Plan:\s*([A-Za-z0-9]+)`,
		`(?i)Rate Code:\s*([A-Za-z0-9]+)`,
	),
	models.FieldCTS: pats(
		`(?i)Company Name:\s*([^\n]+)`,
		`(?i)Travel Agent Name:\s*([^\n]+)`,
	),
	models.FieldNetTotal: pats(
		`(?i)Total Charges?:?\s*((?:AED\s*)?[\d,]+(?:\.\d+)?)`,
		`(?i)Total:\s*(AED\s*[\d,]+(?:\.\d+)?)`,
	),
}

var bookingPatterns = patternSet{
	models.FieldNetTotal: pats(
		`(?i)Total price:?\s*((?:AED|USD|EUR|GBP|\$)?\s*[\d,]+(?:\.\d+)?)`,
	),
	models.FieldPersons: pats(
		`(?i)(\d+)\s*adults?`,
	),
}

var expediaPatterns = patternSet{
	models.FieldNetTotal: pats(
		`(?i)Amount to be charged:?\s*((?:AED|USD|EUR|GBP|\$)?\s*[\d,]+(?:\.\d+)?)`,
		`(?i)Net Rate:?\s*((?:AED|USD|EUR|GBP|\$)?\s*[\d,]+(?:\.\d+)?)`,
	),
}

var agodaPatterns = patternSet{
	models.FieldFirstName: pats(
		`(?i)Customer First Name:\s*([^\n]+)`,
	),
	models.FieldFullName: pats(
		`(?i)Customer Last Name:\s*([^\n]+)`,
	),
	models.FieldNetTotal: pats(
		`(?i)Net (?:Amount|Rate):?\s*((?:AED|USD|EUR|GBP|\$)?\s*[\d,]+(?:\.\d+)?)`,
	),
}

var brandPatterns = patternSet{
	models.FieldNetTotal: pats(
		`(?i)Total for stay:?\s*((?:AED|USD|EUR|GBP|\$)?\s*[\d,]+(?:\.\d+)?)`,
	),
}

// genericPatterns is the fallback set; labels common across agency emails.
var genericPatterns = patternSet{
	models.FieldFullName: pats(
		`(?i)Guest Name:\s*([^\n]+)`,
		`(?im)^Name:\s*([^\n]+)`,
	),
	models.FieldFirstName: pats(
		`(?i)First Name:\s*([^\n]+)`,
	),
	models.FieldArrival: pats(
		`(?i)(?:Arrival|Check[- ]?in)(?: Date)?:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`,
	),
	models.FieldDeparture: pats(
		`(?i)(?:Departure|Check[- ]?out)(?: Date)?:\s*(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})`,
	),
	models.FieldNights: pats(
		`(?i)(?:Number of )?Nights?:\s*(\d+)`,
		`(?i)(\d+)\s*nights?`,
	),
	models.FieldPersons: pats(
		`(?i)(?:Persons|Guests|Occupancy|Adults?):\s*(\d+)`,
	),
	models.FieldRoom: pats(
		`(?i)Room(?: Type)?:\s*([^\n]+)`,
	),
	models.FieldRateCode: pats(
		`(?i)Rate (?:Code|Plan):\s*([A-Za-z0-9]+)`,
	),
	models.FieldCTS: pats(
		`(?i)(?:Company|Agency|Travel Agent):\s*([^\n]+)`,
	),
	models.FieldNetTotal: pats(
		`(?i)(?:Net Total|Total Amount|Total Charges?|Total|Amount):?\s*((?:AED|USD|EUR|GBP|\$)?\s*[\d,]+(?:\.\d+)?)`,
	),
}

var sourcePatterns = map[models.OTASource]patternSet{
	models.OTAInnLink2Way: innlinkPatterns,
	models.OTABookingCom:  bookingPatterns,
	models.OTAExpedia:     expediaPatterns,
	models.OTAAgoda:       agodaPatterns,
	models.OTABrandCom:    brandPatterns,
}

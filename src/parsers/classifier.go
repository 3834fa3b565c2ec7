package parsers

import (
	"strings"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
)

// classifierRule is one step of the ordered source classification. Sender
// substrings are checked before text substrings; the first matching rule
// wins, so a CRS interface email mentioning Booking.com in its body still
// classifies as INNLINK2WAY.
type classifierRule struct {
	source  models.OTASource
	senders []string
	text    []string
}

var classifierRules = []classifierRule{
	{models.OTAInnLink2Way, []string{"noreply-reservations@millenniumhotels.com", "innlink"}, nil},
	{models.OTABookingCom, []string{"@booking.com"}, []string{"booking.com"}},
	{models.OTAExpedia, []string{"@expedia"}, []string{"expedia"}},
	{models.OTAAgoda, []string{"@agoda"}, []string{"agoda"}},
	{models.OTABrandCom, nil, []string{"brand.com"}},
}

// Classify derives the booking source of a document from its sender address
// first, then its subject and body. Documents matching no rule are UNKNOWN;
// they still flow through extraction with the generic patterns.
func Classify(doc models.RawDocument) models.OTASource {
	sender := strings.ToLower(doc.Sender)
	text := strings.ToLower(doc.Subject + "\n" + doc.Body)

	for _, rule := range classifierRules {
		for _, s := range rule.senders {
			if strings.Contains(sender, s) {
				return rule.source
			}
		}
	}
	for _, rule := range classifierRules {
		for _, t := range rule.text {
			if strings.Contains(text, t) {
				return rule.source
			}
		}
	}
	return models.OTAUnknown
}

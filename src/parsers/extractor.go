package parsers

import (
	"html"
	"strings"

	"github.com/georgeokwiri254/entered-on-audit/src/models"
	"github.com/microcosm-cc/bluemonday"
)

var htmlStripper = bluemonday.StrictPolicy()

// Extract runs the source's pattern set over a document and returns the raw
// field values. Extraction never fails: a document matching nothing yields a
// record with every field missing. The body is searched before attachments,
// and the subject line participates so subject-only fields (arrival dates on
// interface notifications) are still captured.
func Extract(doc models.RawDocument, source models.OTASource) models.ExtractedRecord {
	rec := models.NewExtractedRecord(doc.ID, source, doc.ReceivedAt)

	body := doc.Body
	if doc.Channel == models.ChannelHTML {
		body = stripHTML(body)
	}
	segments := make([]string, 0, 2+len(doc.Attachments))
	segments = append(segments, doc.Subject, body)
	segments = append(segments, doc.Attachments...)
	text := strings.Join(segments, "\n")

	set := sourcePatterns[source]
	for _, field := range models.CanonicalFields {
		patterns := set[field]
		if len(patterns) == 0 {
			patterns = genericPatterns[field]
		}
		for _, p := range patterns {
			m := p.FindStringSubmatch(text)
			if m == nil || len(m) < 2 {
				continue
			}
			v := cleanValue(m[1])
			if v == "" {
				continue
			}
			rec.Set(field, v)
			break
		}
	}

	splitGuestName(rec)
	return rec
}

// splitGuestName applies the interface-email convention: the first token of
// the guest-name line is the first name, the last token the surname used for
// matching. Only fills gaps; an explicitly captured first name is kept.
func splitGuestName(rec models.ExtractedRecord) {
	full, ok := rec.Get(models.FieldFullName)
	if !ok {
		return
	}
	tokens := strings.Fields(full)
	if len(tokens) < 2 {
		return
	}
	if _, found := rec.Get(models.FieldFirstName); !found {
		rec.Set(models.FieldFirstName, tokens[0])
	}
	rec.Set(models.FieldFullName, tokens[len(tokens)-1])
}

// cleanValue trims a capture to a single line. No extracted value may span a
// line boundary.
func cleanValue(v string) string {
	if i := strings.IndexByte(v, '\n'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "\r"))
}

func stripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlStripper.Sanitize(s)))
}

package normalize

import (
	"errors"
	"strings"
)

// ErrRoomUnmapped marks a room description no rule recognizes. The caller
// surfaces it for manual correction instead of guessing a code.
var ErrRoomUnmapped = errors.New("room description unmapped")

// roomRule maps a description to a short room code when either the exact
// phrase appears or all of the looser keywords appear.
type roomRule struct {
	code     string
	phrase   string
	keywords []string
}

// Priority-ordered: most specific phrases first so compound descriptions are
// not claimed by an earlier looser rule. Mirrors the official
// "Entered On room Map" workbook.
var roomRules = []roomRule{
	{"SK", "superior room with one king bed", []string{"superior", "king"}},
	{"ST", "superior room with two twin beds", []string{"superior", "twin"}},
	{"DK", "deluxe room with one king bed", []string{"deluxe", "king"}},
	{"DT", "deluxe room with two twin beds", []string{"deluxe", "twin"}},
	{"CK", "club room with one king bed", []string{"club", "king"}},
	{"CT", "club room with two twin beds", []string{"club", "twin"}},
	{"SA", "studio with one king bed", []string{"studio"}},
	{"1BA", "one bedroom apartment", []string{"1 bedroom"}},
	{"BS", "business suite with one king bed", []string{"business suite"}},
	{"ES", "executive suite with one king bed", []string{"executive suite"}},
	{"FS", "family suite", nil},
	{"2BA", "two bedroom apartment", []string{"2 bedroom"}},
	{"PRES", "presidential suite", nil},
	{"RS", "royal suite", nil},
}

// MapRoom maps a free-text room description to its short code. The second
// return is false when no rule matches.
func MapRoom(description string) (string, bool) {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return "", false
	}

	// Descriptions that already are a known short code pass through.
	upper := strings.ToUpper(strings.TrimSpace(description))
	for _, rule := range roomRules {
		if upper == rule.code {
			return rule.code, true
		}
	}

	for _, rule := range roomRules {
		if rule.phrase != "" && strings.Contains(desc, rule.phrase) {
			return rule.code, true
		}
		if len(rule.keywords) > 0 && containsAll(desc, rule.keywords) {
			return rule.code, true
		}
	}
	return "", false
}

// IsApartment reports whether a room code carries the apartment TDF rate.
func IsApartment(roomCode string) bool {
	return strings.EqualFold(roomCode, "2BA")
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

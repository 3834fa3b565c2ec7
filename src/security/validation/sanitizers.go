package validation

import "strings"

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// This prevents CSV Injection (Formula Injection) in Excel/Sheets. Reservation
// text extracted from confirmation emails is hostile input and must not reach
// an exported cell as an executable formula.
func SanitizeForFormulaInjection(s string) string {
	// It is safer to check the trimmed string to find the trigger character,
	// but apply the fix to the original string to preserve formatting.
	trimmed := strings.TrimSpace(s)

	if len(trimmed) == 0 {
		return s
	}

	firstChar := rune(trimmed[0])

	// List of characters that trigger formula execution in Excel/LibreOffice/Sheets
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
		// Prepend a single quote (') which forces the cell to be treated as text
		return "'" + s
	}

	return s
}

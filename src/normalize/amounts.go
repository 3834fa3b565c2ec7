package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAmountParse marks a raw amount string whose numeric part is not a valid
// non-negative decimal.
var ErrAmountParse = errors.New("amount parse failed")

// Currency code prefixes recognized on raw amounts, checked in order.
var currencyPrefixes = []struct {
	prefix string
	code   string
}{
	{"AED", "AED"},
	{"USD", "USD"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"$", "USD"},
}

var amountRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseAmount parses strings like "AED 10,357.47" or "1,234.56" into a
// decimal amount and a currency code ("" when the raw string carried none).
// Thousands separators are stripped; anything else non-numeric fails.
func ParseAmount(raw string) (decimal.Decimal, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, "", fmt.Errorf("%w: empty string", ErrAmountParse)
	}

	currency := ""
	upper := strings.ToUpper(s)
	for _, c := range currencyPrefixes {
		if strings.HasPrefix(upper, c.prefix) {
			currency = c.code
			s = strings.TrimSpace(s[len(c.prefix):])
			break
		}
	}

	s = strings.ReplaceAll(s, ",", "")
	if !amountRe.MatchString(s) {
		return decimal.Decimal{}, "", fmt.Errorf("%w: %q", ErrAmountParse, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("%w: %q: %v", ErrAmountParse, raw, err)
	}
	return d, currency, nil
}

// FormatAmount renders an amount back to its display form with thousands
// separators and two decimal places, prefixed by the currency code when one
// is known. Parsing and re-rendering an amount reproduces the original
// digits: "AED 10,357.47" round-trips exactly.
func FormatAmount(d decimal.Decimal, currency string) string {
	s := groupThousands(d.StringFixed(2))
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func groupThousands(fixed string) string {
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	if fracPart != "" {
		out += "." + fracPart
	}
	return out
}

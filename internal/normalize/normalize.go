// Package normalize holds the cell-level cleaning rules shared by the silver
// cleaners. Every function is total: bad input maps to null (or zero for
// quantities) instead of an error.
package normalize

import (
	"database/sql"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TimestampLayout is how UTC timestamps are written to silver and gold files.
const TimestampLayout = "2006-01-02 15:04:05.999999-07:00"

// dayFirstLayouts cover dotted and dashed day-month-year dates, which
// dateparse reads month-first or rejects.
var dayFirstLayouts = []string{
	"2.1.2006",
	"2.1.2006 15:04",
	"2.1.2006 15:04:05",
	"2-1-2006",
	"2-1-2006 15:04",
	"2-1-2006 15:04:05",
}

// DateLayout is how calendar dates are written.
const DateLayout = "2006-01-02"

const invalidPhoneSentinel = "invalid_phone"

// validStates holds the 27 Brazilian federative units.
var validStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {}, "ES": {}, "GO": {},
	"MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {}, "PB": {}, "PR": {}, "PE": {}, "PI": {},
	"RJ": {}, "RN": {}, "RS": {}, "RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

var quantityWords = map[string]int64{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
}

// States returns the valid state codes in alphabetical order.
func States() []string {
	out := make([]string, 0, len(validStates))
	for uf := range validStates {
		out = append(out, uf)
	}
	slices.Sort(out)
	return out
}

// StateCode upper-cases and trims v, keeping it only when it is a valid UF.
func StateCode(v sql.Null[string]) sql.Null[string] {
	if !v.Valid {
		return sql.Null[string]{}
	}
	uf := strings.ToUpper(strings.TrimSpace(v.V))
	if _, ok := validStates[uf]; !ok {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: uf, Valid: true}
}

// String trims, lower-cases and strips combining marks ("São Paulo" -> "sao paulo").
func String(v sql.Null[string]) sql.Null[string] {
	if !v.Valid {
		return sql.Null[string]{}
	}
	s := strings.ToLower(strings.TrimSpace(v.V))
	if s == "" {
		return sql.Null[string]{}
	}

	// Transformers keep state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: stripped, Valid: true}
}

// Phone keeps the digits of a Brazilian number (DDD + number) without the +55
// prefix. Only 10 or 11 digit results survive.
func Phone(v sql.Null[string]) sql.Null[string] {
	if !v.Valid {
		return sql.Null[string]{}
	}
	s := strings.TrimSpace(v.V)
	if s == "" || strings.EqualFold(s, invalidPhoneSentinel) {
		return sql.Null[string]{}
	}

	s = strings.TrimPrefix(s, "+55")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	if len(digits) < 10 || len(digits) > 11 {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: digits, Valid: true}
}

// Money parses a monetary amount. When both '.' and ',' appear the value is
// read in Brazilian format ("2.026,00" -> 2026.00); a lone ',' is a decimal
// separator. Negative or unparsable values are null.
func Money(v sql.Null[string]) decimal.NullDecimal {
	if !v.Valid {
		return decimal.NullDecimal{}
	}
	s := strings.TrimSpace(v.V)
	if s == "" {
		return decimal.NullDecimal{}
	}

	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Quantity maps v to a non-negative integer. Null, empty and unparsable
// values are 0; "one".."four" are spelled-out numerals; decimals truncate.
func Quantity(v sql.Null[string]) int64 {
	if !v.Valid {
		return 0
	}
	s := strings.ToLower(strings.TrimSpace(v.V))
	if s == "" {
		return 0
	}
	if n, ok := quantityWords[s]; ok {
		return n
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	q := int64(math.Trunc(f))
	if q < 0 {
		return 0
	}
	return q
}

// Timestamp parses mixed date formats, preferring day before month, and
// returns the instant in UTC. Unparsable input is null.
func Timestamp(v sql.Null[string]) sql.Null[time.Time] {
	if !v.Valid {
		return sql.Null[time.Time]{}
	}
	s := strings.TrimSpace(v.V)
	if s == "" {
		return sql.Null[time.Time]{}
	}

	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return sql.Null[time.Time]{V: t.UTC(), Valid: true}
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.Null[time.Time]{V: t, Valid: true}
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return sql.Null[time.Time]{}
	}
	return sql.Null[time.Time]{V: t.UTC(), Valid: true}
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TimestampText renders a nullable timestamp as nullable text.
func TimestampText(t sql.Null[time.Time]) sql.Null[string] {
	if !t.Valid {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: FormatTimestamp(t.V), Valid: true}
}

// DateText renders the UTC calendar date of a nullable timestamp.
func DateText(t sql.Null[time.Time]) sql.Null[string] {
	if !t.Valid {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: t.V.UTC().Format(DateLayout), Valid: true}
}

// MoneyText renders a nullable amount exactly as parsed.
func MoneyText(d decimal.NullDecimal) sql.Null[string] {
	if !d.Valid {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: d.Decimal.String(), Valid: true}
}

// Text wraps s as a non-null cell.
func Text(s string) sql.Null[string] {
	return sql.Null[string]{V: s, Valid: true}
}

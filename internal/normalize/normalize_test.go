package normalize

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) sql.Null[string] { return sql.Null[string]{V: s, Valid: true} }

var null = sql.Null[string]{}

func TestStateCodeAcceptsEveryUF(t *testing.T) {
	states := States()
	require.Len(t, states, 27)

	for _, uf := range states {
		assert.Equal(t, text(uf), StateCode(text(uf)))
		assert.Equal(t, text(uf), StateCode(text(" "+strings.ToLower(uf)+" ")), uf)
	}
}

func TestStateCodeRejectsEverythingElse(t *testing.T) {
	for _, in := range []string{"XX", "S P", "SPP", "", "  ", "São", "1"} {
		assert.False(t, StateCode(text(in)).Valid, in)
	}
	assert.False(t, StateCode(null).Valid)
}

func TestStringStripsAccents(t *testing.T) {
	assert.Equal(t, text("sao paulo"), String(text("  São Paulo ")))
	assert.Equal(t, text("florianopolis"), String(text("Florianópolis")))
	assert.Equal(t, text("goiania"), String(text("GOIÂNIA")))
	assert.Equal(t, text("acai"), String(text("açaí")))
	assert.False(t, String(text("   ")).Valid)
	assert.False(t, String(null).Valid)
}

func TestStringIsIdempotent(t *testing.T) {
	inputs := []string{"São Paulo", "  Ribeirão Preto", "ÉÇÃÕ", "a ́", "İstanbul", "plain", "Mogi-Guaçu"}
	for _, in := range inputs {
		once := String(text(in))
		twice := String(once)
		assert.Equal(t, once, twice, in)
	}
}

func TestPhone(t *testing.T) {
	assert.Equal(t, text("1140028922"), Phone(text("(11) 4002-8922")))
	assert.Equal(t, text("11940028922"), Phone(text("+55 (11) 94002-8922")))
	assert.False(t, Phone(text("invalid_phone")).Valid)
	assert.False(t, Phone(text("INVALID_PHONE")).Valid)
	assert.False(t, Phone(text("4002-8922")).Valid)
	assert.False(t, Phone(text("5511940028922")).Valid)
	assert.False(t, Phone(null).Valid)
}

func TestPhoneOutputShape(t *testing.T) {
	for _, in := range []string{"(21) 2222-3333", "+55 21 99999 8888", "abc", "123", "+5511", "11 1234 5678 9"} {
		out := Phone(text(in))
		if !out.Valid {
			continue
		}
		assert.Regexp(t, `^[0-9]{10,11}$`, out.V, in)
	}
}

func TestMoney(t *testing.T) {
	got := Money(text("2.026,00"))
	require.True(t, got.Valid)
	assert.True(t, got.Decimal.Equal(decimal.NewFromInt(2026)))

	got = Money(text("12,50"))
	require.True(t, got.Valid)
	assert.True(t, got.Decimal.Equal(decimal.RequireFromString("12.5")))

	got = Money(text("99.90"))
	require.True(t, got.Valid)
	assert.True(t, got.Decimal.Equal(decimal.RequireFromString("99.9")))

	assert.False(t, Money(text("-5")).Valid)
	assert.False(t, Money(text("abc")).Valid)
	assert.False(t, Money(text("")).Valid)
	assert.False(t, Money(null).Valid)
}

func TestMoneyNeverNegative(t *testing.T) {
	for _, in := range []string{"0", "-0.01", "1.000,50", "-1.000,50", "3", "x1"} {
		out := Money(text(in))
		if out.Valid {
			assert.False(t, out.Decimal.IsNegative(), in)
		}
	}
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, int64(2), Quantity(text("two")))
	assert.Equal(t, int64(4), Quantity(text(" FOUR ")))
	assert.Equal(t, int64(3), Quantity(text("3.0")))
	assert.Equal(t, int64(3), Quantity(text("3.9")))
	assert.Equal(t, int64(0), Quantity(text("")))
	assert.Equal(t, int64(0), Quantity(text("banana")))
	assert.Equal(t, int64(0), Quantity(text("-2")))
	assert.Equal(t, int64(0), Quantity(null))
}

func TestTimestampISOAndDayFirst(t *testing.T) {
	got := Timestamp(text("2024-01-15 10:30:00"))
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), got.V)

	got = Timestamp(text("05/03/2024"))
	require.True(t, got.Valid)
	assert.Equal(t, time.March, got.V.Month())
	assert.Equal(t, 5, got.V.Day())

	got = Timestamp(text("05.01.2024"))
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got.V)

	got = Timestamp(text("05-01-2024"))
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got.V)

	got = Timestamp(text("05.01.2024 14:20"))
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 1, 5, 14, 20, 0, 0, time.UTC), got.V)

	got = Timestamp(text("5-1-2024 08:15:30"))
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 1, 5, 8, 15, 30, 0, time.UTC), got.V)

	got = Timestamp(text("2024-01-15T10:30:00-03:00"))
	require.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC), got.V)
	assert.Equal(t, time.UTC, got.V.Location())
}

func TestTimestampRoundTripsOwnLayout(t *testing.T) {
	ts := time.Date(2024, 2, 1, 8, 0, 0, 123000000, time.UTC)
	formatted := FormatTimestamp(ts)
	assert.Equal(t, "2024-02-01 08:00:00.123+00:00", formatted)

	got := Timestamp(text(formatted))
	require.True(t, got.Valid)
	assert.True(t, ts.Equal(got.V))
}

func TestTimestampUnparsable(t *testing.T) {
	assert.False(t, Timestamp(text("not a date")).Valid)
	assert.False(t, Timestamp(text("")).Valid)
	assert.False(t, Timestamp(null).Valid)
}

func TestTextRenderers(t *testing.T) {
	ts := sql.Null[time.Time]{V: time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC), Valid: true}
	assert.Equal(t, text("2024-01-15 23:00:00+00:00"), TimestampText(ts))
	assert.Equal(t, text("2024-01-15"), DateText(ts))
	assert.False(t, TimestampText(sql.Null[time.Time]{}).Valid)

	assert.Equal(t, text("2026"), MoneyText(Money(text("2.026,00"))))
	assert.False(t, MoneyText(decimal.NullDecimal{}).Valid)
}

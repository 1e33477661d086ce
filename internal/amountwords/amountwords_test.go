package amountwords

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/podryad/internal/apperr"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "ноль рублей ноль копеек"},
		{"0.00", "ноль рублей ноль копеек"},
		{"1.00", "один рубль ноль копеек"},
		{"2", "два рубля ноль копеек"},
		{"5", "пять рублей ноль копеек"},
		{"11", "одиннадцать рублей ноль копеек"},
		{"21.05", "двадцать один рубль 05 копеек"},
		{"112.22", "сто двенадцать рублей 22 копейки"},
		{"540.00", "пятьсот сорок рублей ноль копеек"},
		{"1000", "одна тысяча рублей ноль копеек"},
		{"2001.01", "две тысячи один рубль 01 копейка"},
		{"11000", "одиннадцать тысяч рублей ноль копеек"},
		{"125000.50", "сто двадцать пять тысяч рублей 50 копеек"},
		{"1000000", "один миллион рублей ноль копеек"},
		{"3452001", "три миллиона четыреста пятьдесят две тысячи один рубль ноль копеек"},
		{"2000000000", "два миллиарда рублей ноль копеек"},
		{"999999999999.99", "девятьсот девяносто девять миллиардов девятьсот девяносто девять миллионов девятьсот девяносто девять тысяч девятьсот девяносто девять рублей 99 копеек"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := Format(decimal.RequireFromString(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatRoundsHalfUp(t *testing.T) {
	got, err := Format(decimal.RequireFromString("0.005"))
	require.NoError(t, err)
	assert.Equal(t, "ноль рублей 01 копейка", got)

	got, err = Format(decimal.RequireFromString("1.995"))
	require.NoError(t, err)
	assert.Equal(t, "два рубля ноль копеек", got)

	got, err = Format(decimal.RequireFromString("10.124"))
	require.NoError(t, err)
	assert.Equal(t, "десять рублей 12 копеек", got)
}

func TestFormatRejectsOutOfRange(t *testing.T) {
	_, err := Format(decimal.RequireFromString("-0.01"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = Format(decimal.New(1, 12))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestKopecksInWords(t *testing.T) {
	f := Rubles{KopecksInWords: true}

	got, err := f.Format(decimal.RequireFromString("21.05"))
	require.NoError(t, err)
	assert.Equal(t, "двадцать один рубль пять копеек", got)

	got, err = f.Format(decimal.RequireFromString("0.22"))
	require.NoError(t, err)
	assert.Equal(t, "ноль рублей двадцать две копейки", got)

	got, err = f.Format(decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "ноль рублей ноль копеек", got)
}

func TestRubleNounAgreement(t *testing.T) {
	for r := int64(0); r <= 999999; r++ {
		var want string
		switch {
		case r%100 >= 11 && r%100 <= 19:
			want = "рублей"
		case r%10 == 1:
			want = "рубль"
		case r%10 >= 2 && r%10 <= 4:
			want = "рубля"
		default:
			want = "рублей"
		}

		got, err := Format(decimal.NewFromInt(r))
		if err != nil {
			t.Fatalf("format %d: %v", r, err)
		}
		rubleClause := strings.TrimSuffix(got, " ноль копеек")
		if !strings.HasSuffix(rubleClause, " "+want) {
			t.Fatalf("format %d: got %q, want noun %q", r, got, want)
		}
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	amount := decimal.RequireFromString("76543.21")
	first, err := Format(amount)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Format(amount)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Package amountwords renders ruble amounts as Russian text for printed documents.
package amountwords

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/podryad/internal/apperr"
)

// Formatter turns a money amount into its textual form.
type Formatter interface {
	Format(amount decimal.Decimal) (string, error)
}

// Rubles renders Belarusian ruble amounts. The zero value prints kopecks as
// a two digit numeral ("05 копеек").
type Rubles struct {
	KopecksInWords bool
}

var _ Formatter = Rubles{}

// upper bound (exclusive) of what the numeral tables can spell
var limit = decimal.New(1, 12)

// Format is Rubles{}.Format.
func Format(amount decimal.Decimal) (string, error) {
	return Rubles{}.Format(amount)
}

func (r Rubles) Format(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", apperr.Validation("amount must not be negative")
	}
	rounded := amount.Round(2)
	if rounded.GreaterThanOrEqual(limit) {
		return "", apperr.Validation("amount %s is too large", rounded.StringFixed(2))
	}

	whole := rounded.Truncate(0)
	rubles := whole.IntPart()
	kopecks := rounded.Sub(whole).Shift(2).IntPart()

	parts := []string{spell(rubles, false), rubleForms.pick(rubles), r.kopecks(kopecks)}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

func (r Rubles) kopecks(k int64) string {
	if k == 0 {
		return "ноль " + kopeckForms.many
	}
	if r.KopecksInWords {
		return spell(k, true) + " " + kopeckForms.pick(k)
	}
	return fmt.Sprintf("%02d %s", k, kopeckForms.pick(k))
}

type forms struct {
	one  string
	few  string
	many string
}

var (
	rubleForms    = forms{"рубль", "рубля", "рублей"}
	kopeckForms   = forms{"копейка", "копейки", "копеек"}
	thousandForms = forms{"тысяча", "тысячи", "тысяч"}
	millionForms  = forms{"миллион", "миллиона", "миллионов"}
	billionForms  = forms{"миллиард", "миллиарда", "миллиардов"}
)

func (f forms) pick(n int64) string {
	switch {
	case n%100 >= 11 && n%100 <= 19:
		return f.many
	case n%10 == 1:
		return f.one
	case n%10 >= 2 && n%10 <= 4:
		return f.few
	default:
		return f.many
	}
}

var (
	unitsMasculine = [...]string{"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	unitsFeminine  = [...]string{"", "одна", "две", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	teens          = [...]string{"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать", "пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать"}
	tens           = [...]string{"", "", "двадцать", "тридцать", "сорок", "пятьдесят", "шестьдесят", "семьдесят", "восемьдесят", "девяносто"}
	hundreds       = [...]string{"", "сто", "двести", "триста", "четыреста", "пятьсот", "шестьсот", "семьсот", "восемьсот", "девятьсот"}
)

type scale struct {
	size     int64
	forms    forms
	feminine bool
}

var scales = []scale{
	{size: 1_000_000_000, forms: billionForms},
	{size: 1_000_000, forms: millionForms},
	{size: 1_000, forms: thousandForms, feminine: true},
}

// spell writes n (< 10^12) in words. feminine applies to the trailing
// 0-999 group only; the thousands group is always feminine.
func spell(n int64, feminine bool) string {
	if n == 0 {
		return "ноль"
	}
	words := make([]string, 0, 12)
	for _, s := range scales {
		if n < s.size {
			continue
		}
		count := n / s.size
		words = append(words, triplet(count, s.feminine), s.forms.pick(count))
		n %= s.size
	}
	if n > 0 {
		words = append(words, triplet(n, feminine))
	}
	return strings.Join(words, " ")
}

func triplet(n int64, feminine bool) string {
	words := make([]string, 0, 3)
	if h := n / 100; h > 0 {
		words = append(words, hundreds[h])
	}
	rest := n % 100
	if rest >= 10 && rest <= 19 {
		return strings.Join(append(words, teens[rest-10]), " ")
	}
	if t := rest / 10; t > 0 {
		words = append(words, tens[t])
	}
	if u := rest % 10; u > 0 {
		if feminine {
			words = append(words, unitsFeminine[u])
		} else {
			words = append(words, unitsMasculine[u])
		}
	}
	return strings.Join(words, " ")
}

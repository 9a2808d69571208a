package extractor

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const currencySymbols = "$€£¥₽₸"

// ParsePrice derives the numeric amount of a display price such as "$190".
// One currency symbol may lead or trail; ',' thousands separators are dropped.
func ParsePrice(price string) (float64, error) {
	fail := func(msg string) (float64, error) {
		return 0, &PriceError{Index: -1, Price: price, Err: errors.New(msg)}
	}

	s := strings.TrimSpace(price)
	if r, n := utf8.DecodeRuneInString(s); n > 0 && strings.ContainsRune(currencySymbols, r) {
		s = s[n:]
	} else if r, n := utf8.DecodeLastRuneInString(s); n > 0 && strings.ContainsRune(currencySymbols, r) {
		s = s[:len(s)-n]
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return fail("no amount")
	}
	if strings.ContainsAny(s, "eE") {
		return fail("exponent notation")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &PriceError{Index: -1, Price: price, Err: err}
	}
	if d.IsNegative() {
		return fail("negative amount")
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fail("amount out of range")
	}
	return f, nil
}

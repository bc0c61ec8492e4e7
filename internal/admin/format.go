package admin

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/commerce-admin/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PriceFormatter renders product prices in the configured currency.
type PriceFormatter struct {
	printer *message.Printer
	symbol  string
}

// NewPriceFormatter formats prices for currency code in the given locale.
// Unknown codes are rendered with the code itself as the symbol.
func NewPriceFormatter(code string, tag language.Tag) *PriceFormatter {
	symbol := code + " "
	if c, ok := model.Currencies[code]; ok {
		symbol = c.Symbol
	}
	return &PriceFormatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// Format renders amount with two decimals and locale grouping.
func (f *PriceFormatter) Format(amount float64) string {
	return f.symbol + f.printer.Sprintf("%.2f", amount)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceFormat renders base-unit amounts for humans, e.g. 520000000000 with
// 9 decimals and symbol "ETH" becomes "520 ETH".
type PriceFormat struct {
	Decimals int32
	Symbol   string
}

// Format converts amount from base units to a decimal string with the symbol appended.
func (f PriceFormat) Format(amount int64) string {
	value := decimal.New(amount, -f.Decimals).String()
	if f.Symbol == "" {
		return value
	}
	return strings.Join([]string{value, f.Symbol}, " ")
}

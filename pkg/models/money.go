package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount as stored by the browser client. Stored values are
// not trusted to be numeric: anything that does not parse decodes to zero.
type Money float64

// Decimal returns the amount as a decimal for exact arithmetic.
func (m Money) Decimal() decimal.Decimal {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	f, _ := d.Round(2).Float64()
	return Money(f)
}

// Float64 returns the raw amount.
func (m Money) Float64() float64 { return float64(m) }

// UnmarshalJSON accepts numbers and numeric strings; everything else is zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			*m = 0
			return nil
		}
	} else {
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*m = 0
		return nil
	}
	*m = Money(f)
	return nil
}

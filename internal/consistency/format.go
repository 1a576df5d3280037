package consistency

import (
	"fmt"

	"github.com/shopspring/decimal"
	"muabook/pkg/models"
)

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func fmtMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func fmtAmount(m models.Money) string {
	return fmtMoney(m.Decimal())
}

func clientLabel(c models.Client) string {
	if c.Name == "" {
		return fmt.Sprintf("client #%d", c.ID)
	}
	return fmt.Sprintf("%s (#%d)", c.Name, c.ID)
}

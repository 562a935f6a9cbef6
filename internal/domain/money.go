package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places stored for every amount
const MoneyPlaces = 2

// CheckMoneyScale rejects amounts the NUMERIC(12, 2) columns would round
func CheckMoneyScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyPlaces)) {
		return Validation("%s cannot have more than %d decimal places", field, MoneyPlaces)
	}
	return nil
}

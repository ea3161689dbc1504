package services

import "github.com/shopspring/decimal"

// usdToEUR is the fixed demo rate used when seeding prices quoted in dollars.
var usdToEUR = decimal.RequireFromString("0.85")

func ToEUR(usd decimal.Decimal) decimal.Decimal {
	return Round2(usd.Mul(usdToEUR))
}

func ToUSD(eur decimal.Decimal) decimal.Decimal {
	return Round2(eur.Div(usdToEUR))
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

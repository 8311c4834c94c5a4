package folio

import "github.com/etnz/folio/date"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// buy is a helper to create a Buy transaction in tests.
func buy(day, ticker string, qty, price float64) Transaction {
	return NewBuy(date.MustParse(day), ticker, Q(qty), USD(price))
}

// sell is a helper to create a signed Sell transaction in tests.
func sell(day, ticker string, qty, price float64) Transaction {
	return NewSell(date.MustParse(day), ticker, Q(qty), USD(price))
}

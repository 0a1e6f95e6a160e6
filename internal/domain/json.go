package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices are JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

package coingecko

import "github.com/shopspring/decimal"

// SimplePriceResponse is the body of /api/v3/simple/price, keyed by coin id
// and then by quote currency, e.g. {"dogecoin":{"usd":0.1234}}.
type SimplePriceResponse map[string]map[string]decimal.Decimal

// ErrorResponse is returned by CoinGecko on rate limiting and bad requests.
type ErrorResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Error string `json:"error"`
}

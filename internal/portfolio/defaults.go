package portfolio

import (
	"github.com/shopspring/decimal"

	"cryptodash/internal/models"
)

var defaultHoldings = []struct {
	symbol string
	amount string
}{
	{"PEPE", "32510000"}, {"SHIB", "16731600"}, {"RIO", "14576"}, {"XLM", "13056.3"},
	{"DOGE", "10000.5"}, {"PAAL", "9885.5"}, {"ARB", "5818.23"}, {"BEAM", "5634"},
	{"FET", "4242.79"}, {"XRP", "4248.24"}, {"ADA", "2921.85"}, {"HBAR", "2889.63"},
	{"ONDO", "2812.654"}, {"SUI", "2375.99"}, {"0X0", "1597"}, {"USDT", "1574.7"},
	{"AIOZ", "1293.272"}, {"DSYNC", "1084.82"}, {"AIXBT", "1008.96"}, {"MATIC", "804.68"},
	{"VERTAI", "615.7"}, {"PRO", "557.875"}, {"DOGINME", "464310"}, {"HASHAI", "366536"},
	{"ALGO", "352.994"}, {"APE", "311.65"}, {"RNDR", "306.22"}, {"MANA", "271.692"},
	{"AI16Z", "216.97"}, {"SOL", "198.2146"}, {"DOT", "157.5"}, {"UNI", "103.427"},
	{"LINK", "89.7845"}, {"NEAR", "89.22"}, {"ICP", "66.9215"}, {"WLFI", "31821"},
	{"TRUMP", "26.49"}, {"ETH", "18.4697"}, {"ZEC", "3.4038"}, {"LTC", "2.6649"},
	{"BTC", "1.0037"}, {"TAO", "1.0014"},
}

// DefaultHoldings is the starter portfolio installed into an empty store.
func DefaultHoldings() []models.Holding {
	out := make([]models.Holding, 0, len(defaultHoldings))
	for _, h := range defaultHoldings {
		out = append(out, models.Holding{Symbol: h.symbol, Amount: decimal.RequireFromString(h.amount)})
	}
	return out
}

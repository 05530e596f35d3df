package portfolio

const (
	CategoryOther = "Other"
	RiskHigh      = "high"
)

// categoryOrder fixes iteration order so lookups are deterministic.
var categoryOrder = []string{
	"Layer 1 Blockchains",
	"Layer 2 Solutions",
	"DeFi Tokens",
	"Payment/Transfer",
	"Meme Coins",
	"Gaming/Metaverse",
	"AI Tokens",
	"Privacy",
	CategoryOther,
}

var categoryMembers = map[string][]string{
	"Layer 1 Blockchains": {"ETH", "SOL", "BTC", "ADA", "DOT", "NEAR", "ICP", "HBAR", "ALGO", "SUI", "XLM"},
	"Layer 2 Solutions":   {"MATIC", "ARB"},
	"DeFi Tokens":         {"UNI", "LINK", "ONDO", "AAVE", "CRV", "SUSHI"},
	"Payment/Transfer":    {"XRP", "LTC", "USDT"},
	"Meme Coins":          {"DOGE", "SHIB", "PEPE", "DOGINME", "WIF", "BONK", "TRUMP"},
	"Gaming/Metaverse":    {"MANA", "SAND", "AXS", "ENJ", "APE", "BEAM"},
	"AI Tokens":           {"AIOZ", "AI16Z", "HASHAI", "VERTAI", "FET", "AGIX", "AIXBT", "PAAL", "TAO", "RNDR"},
	"Privacy":             {"ZEC", "XMR", "DASH"},
	CategoryOther:         {"PRO", "DSYNC", "WLFI", "0X0", "RIO"},
}

var categoryColors = map[string]string{
	"Layer 1 Blockchains": "#3b82f6",
	"Layer 2 Solutions":   "#8b5cf6",
	"DeFi Tokens":         "#ec4899",
	"Payment/Transfer":    "#22c55e",
	"Meme Coins":          "#fb923c",
	"Gaming/Metaverse":    "#a855f7",
	"AI Tokens":           "#06b6d4",
	"Privacy":             "#64748b",
	CategoryOther:         "#94a3b8",
}

var riskLevels = map[string]string{
	"Layer 1 Blockchains": "low",
	"Layer 2 Solutions":   "low",
	"DeFi Tokens":         "medium",
	"Payment/Transfer":    "low",
	"Meme Coins":          RiskHigh,
	"Gaming/Metaverse":    "medium",
	"AI Tokens":           RiskHigh,
	"Privacy":             "medium",
	CategoryOther:         RiskHigh,
}

var symbolCategory = func() map[string]string {
	out := make(map[string]string)
	for _, cat := range categoryOrder {
		for _, sym := range categoryMembers[cat] {
			if _, seen := out[sym]; !seen {
				out[sym] = cat
			}
		}
	}
	return out
}()

// CategoryFor returns the asset category of symbol, or CategoryOther.
func CategoryFor(symbol string) string {
	if cat, ok := symbolCategory[symbol]; ok {
		return cat
	}
	return CategoryOther
}

func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return categoryColors[CategoryOther]
}

func RiskLevel(category string) string {
	if r, ok := riskLevels[category]; ok {
		return r
	}
	return RiskHigh
}

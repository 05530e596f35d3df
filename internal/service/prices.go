package service

import (
	"context"
	"strings"
	"time"

	"cryptodash/internal/cache"
	"cryptodash/internal/coingecko"
	"cryptodash/internal/defillama"
	"cryptodash/internal/models"

	"github.com/sirupsen/logrus"
)

// staticIDs maps tickers to CoinGecko ids for the assets the dashboard
// always knows about. Anything else goes through the symbol mapping.
var staticIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"DOGE":  "dogecoin",
	"SHIB":  "shiba-inu",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"LTC":   "litecoin",
	"ALGO":  "algorand",
	"XLM":   "stellar",
	"HBAR":  "hedera-hashgraph",
	"ICP":   "internet-computer",
	"NEAR":  "near",
	"ZEC":   "zcash",
	"MANA":  "decentraland",
	"PEPE":  "pepe",
	"SUI":   "sui",
	"ONDO":  "ondo-finance",
	"AIOZ":  "aioz-network",
	"PRO":   "propy",
}

const chainsCacheKey = "llama:chains"

type MarketSource interface {
	Markets(ctx context.Context, ids []string) (map[string]coingecko.Market, error)
}

type ChainSource interface {
	Chains(ctx context.Context) ([]defillama.Chain, error)
}

// IDResolver looks up a provider id for a ticker the static table misses.
type IDResolver func(symbol string) (string, bool)

type PriceGateway struct {
	markets    MarketSource
	chains     ChainSource
	cache      cache.Cache
	priceTTL   time.Duration
	metricsTTL time.Duration
	fallback   IDResolver
	log        *logrus.Logger
}

func NewPriceGateway(markets MarketSource, chains ChainSource, c cache.Cache, priceTTL, metricsTTL time.Duration, fallback IDResolver, log *logrus.Logger) *PriceGateway {
	return &PriceGateway{
		markets:    markets,
		chains:     chains,
		cache:      c,
		priceTTL:   priceTTL,
		metricsTTL: metricsTTL,
		fallback:   fallback,
		log:        log,
	}
}

// CanonicalSymbol trims and upper-cases a ticker.
func CanonicalSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ProviderID returns the CoinGecko id for symbol.
func (g *PriceGateway) ProviderID(symbol string) (string, bool) {
	if id, ok := staticIDs[symbol]; ok {
		return id, true
	}
	if g.fallback != nil {
		return g.fallback(symbol)
	}
	return "", false
}

// FetchPrices returns exactly one Price per requested symbol, in request
// order. Unmapped symbols and every symbol of a failed provider call come
// back zero-valued.
func (g *PriceGateway) FetchPrices(ctx context.Context, symbols []string) []models.Price {
	prices, err := g.Quote(ctx, symbols)
	if err != nil {
		return zeroPrices(canonical(symbols))
	}
	return prices
}

// Quote is FetchPrices but reports a provider failure instead of degrading,
// so background refreshes can keep the last good prices.
func (g *PriceGateway) Quote(ctx context.Context, symbols []string) ([]models.Price, error) {
	syms := canonical(symbols)
	if len(syms) == 0 {
		return []models.Price{}, nil
	}

	key := "prices:" + strings.Join(syms, ",")
	var cached []models.Price
	if cache.GetJSON(ctx, g.cache, key, &cached) && len(cached) == len(syms) {
		return cached, nil
	}

	ids := make([]string, 0, len(syms))
	idFor := make(map[string]string, len(syms))
	seen := make(map[string]bool, len(syms))
	for _, s := range syms {
		id, ok := g.ProviderID(s)
		if !ok {
			continue
		}
		idFor[s] = id
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	markets := map[string]coingecko.Market{}
	if len(ids) > 0 {
		var err error
		markets, err = g.markets.Markets(ctx, ids)
		if err != nil {
			g.log.Warnf("price fetch for %d symbols failed: %v", len(syms), err)
			return nil, err
		}
	}

	out := make([]models.Price, len(syms))
	for i, s := range syms {
		m, ok := markets[idFor[s]]
		if !ok {
			out[i] = models.ZeroPrice(s)
			continue
		}
		out[i] = fromMarket(s, m)
	}

	if err := cache.SetJSON(ctx, g.cache, key, out, g.priceTTL); err != nil {
		g.log.Warnf("cache prices: %v", err)
	}
	return out, nil
}

func fromMarket(symbol string, m coingecko.Market) models.Price {
	p := models.Price{
		Symbol:    symbol,
		Current:   m.Price.Decimal,
		Change24h: m.Change24h.Decimal,
		Change7d:  m.Change7d.Decimal,
		Change30d: m.Change30d.Decimal,
	}
	if m.MarketCap.Valid {
		v := m.MarketCap.Decimal
		p.MarketCap = &v
	}
	if m.Volume.Valid {
		v := m.Volume.Decimal
		p.Volume24h = &v
	}
	return p
}

// FetchOnChainMetrics returns chain TVL for symbol, or nil when DefiLlama has
// no chain for it or cannot be reached.
func (g *PriceGateway) FetchOnChainMetrics(ctx context.Context, symbol string) *models.OnChainMetrics {
	symbol = CanonicalSymbol(symbol)
	if symbol == "" {
		return nil
	}
	chains, ok := g.chainList(ctx)
	if !ok {
		return nil
	}
	id, _ := g.ProviderID(symbol)

	var best *defillama.Chain
	for i := range chains {
		c := &chains[i]
		if id != "" && c.GeckoID == id {
			best = c
			break
		}
		if strings.EqualFold(c.TokenSymbol, symbol) && (best == nil || c.TVL.GreaterThan(best.TVL)) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	tvl := best.TVL
	return &models.OnChainMetrics{Symbol: symbol, TVL: &tvl}
}

func (g *PriceGateway) chainList(ctx context.Context) ([]defillama.Chain, bool) {
	var chains []defillama.Chain
	if cache.GetJSON(ctx, g.cache, chainsCacheKey, &chains) {
		return chains, true
	}
	chains, err := g.chains.Chains(ctx)
	if err != nil {
		g.log.Warnf("on-chain metrics unavailable: %v", err)
		return nil, false
	}
	if err := cache.SetJSON(ctx, g.cache, chainsCacheKey, chains, g.metricsTTL); err != nil {
		g.log.Warnf("cache chains: %v", err)
	}
	return chains, true
}

func canonical(symbols []string) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = CanonicalSymbol(s)
	}
	return out
}

func zeroPrices(symbols []string) []models.Price {
	out := make([]models.Price, len(symbols))
	for i, s := range symbols {
		out[i] = models.ZeroPrice(s)
	}
	return out
}

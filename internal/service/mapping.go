package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cryptodash/internal/coingecko"
	"cryptodash/internal/models"

	"github.com/sirupsen/logrus"
)

var defaultMappingSymbols = []string{
	"0X0", "ADA", "AI16Z", "AIOZ", "AIXBT", "ALGO", "APE", "ARB", "BEAM", "BTC",
	"DOGE", "DOGINME", "DOT", "DSYNC", "ETH", "FET", "HASHAI", "HBAR", "HNT", "ICP",
	"LINK", "LTC", "MANA", "MATIC", "NEAR", "ONDO", "PAAL", "PEPE", "PRO", "RIO",
	"RNDR", "SHIB", "SOL", "SUI", "TAO", "TRUMP", "UNI", "USDT", "VERTAI", "WLFI",
	"XLM", "XRP", "ZEC",
}

// DefaultMappingSymbols is the ticker list resolved when neither the caller
// nor the portfolio supplies one.
func DefaultMappingSymbols() []string {
	return append([]string(nil), defaultMappingSymbols...)
}

type CatalogSource interface {
	CoinsList(ctx context.Context) ([]coingecko.Coin, error)
}

// MappingUpdater resolves tickers to CoinGecko ids against the full coin
// catalog and keeps the most recent result.
type MappingUpdater struct {
	catalog CatalogSource
	now     func() time.Time
	log     *logrus.Logger

	mu   sync.RWMutex
	last models.MappingResult
}

func NewMappingUpdater(catalog CatalogSource, now func() time.Time, log *logrus.Logger) *MappingUpdater {
	if now == nil {
		now = time.Now
	}
	return &MappingUpdater{
		catalog: catalog,
		now:     now,
		log:     log,
		last:    emptyMapping(),
	}
}

func emptyMapping() models.MappingResult {
	return models.MappingResult{
		Mapping: map[string]string{},
		Details: []models.MappingDetail{},
		Failed:  []string{},
	}
}

// Update fetches the catalog once and resolves every symbol. The result
// replaces the previous mapping wholesale. On a catalog failure the previous
// mapping is kept and the error returned.
func (m *MappingUpdater) Update(ctx context.Context, symbols []string) (models.MappingResult, error) {
	syms := dedupe(canonical(symbols))
	if len(syms) == 0 {
		syms = DefaultMappingSymbols()
	}

	coins, err := m.catalog.CoinsList(ctx)
	if err != nil {
		return models.MappingResult{}, fmt.Errorf("fetch coin catalog: %w", err)
	}
	index := IndexCatalog(coins)

	res := emptyMapping()
	for _, s := range syms {
		d := Resolve(index, s)
		res.Details = append(res.Details, d)
		if d.Status == models.MappingSuccess {
			res.Mapping[s] = d.ID
		} else {
			res.Failed = append(res.Failed, s)
		}
	}
	at := m.now().UTC()
	res.UpdatedAt = &at

	m.mu.Lock()
	m.last = res
	m.mu.Unlock()

	m.log.Infof("symbol mapping updated: %d resolved, %d not found", len(res.Mapping), len(res.Failed))
	return copyMapping(res), nil
}

// Last returns the most recent result without touching the network.
func (m *MappingUpdater) Last() models.MappingResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMapping(m.last)
}

// Lookup returns the id the last update resolved for symbol.
func (m *MappingUpdater) Lookup(symbol string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.last.Mapping[symbol]
	return id, ok
}

// IndexCatalog groups coins by upper-cased ticker, keeping catalog order
// within each group.
func IndexCatalog(coins []coingecko.Coin) map[string][]coingecko.Coin {
	index := make(map[string][]coingecko.Coin, len(coins))
	for _, c := range coins {
		key := strings.ToUpper(c.Symbol)
		index[key] = append(index[key], c)
	}
	return index
}

// Resolve picks the candidate for symbol: the only one, else the one whose
// name equals the ticker ignoring case, else the first in catalog order.
func Resolve(index map[string][]coingecko.Coin, symbol string) models.MappingDetail {
	candidates := index[symbol]
	switch len(candidates) {
	case 0:
		return models.Unresolved(symbol)
	case 1:
		return models.Resolved(symbol, candidates[0].ID, candidates[0].Name)
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Name, symbol) {
			return models.Resolved(symbol, c.ID, c.Name)
		}
	}
	return models.Resolved(symbol, candidates[0].ID, candidates[0].Name)
}

func copyMapping(r models.MappingResult) models.MappingResult {
	out := models.MappingResult{
		Mapping: make(map[string]string, len(r.Mapping)),
		Details: append([]models.MappingDetail{}, r.Details...),
		Failed:  append([]string{}, r.Failed...),
	}
	for k, v := range r.Mapping {
		out.Mapping[k] = v
	}
	if r.UpdatedAt != nil {
		at := *r.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

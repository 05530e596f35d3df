package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/cache"
	"cryptodash/internal/coingecko"
	"cryptodash/internal/defillama"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeMarkets struct {
	calls   atomic.Int32
	lastIDs []string
	rows    map[string]coingecko.Market
	err     error
}

func (f *fakeMarkets) Markets(_ context.Context, ids []string) (map[string]coingecko.Market, error) {
	f.calls.Add(1)
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]coingecko.Market{}
	for _, id := range ids {
		if m, ok := f.rows[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

type fakeChains struct {
	calls  atomic.Int32
	chains []defillama.Chain
	err    error
}

func (f *fakeChains) Chains(context.Context) ([]defillama.Chain, error) {
	f.calls.Add(1)
	return f.chains, f.err
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func market(id, current, c24 string) coingecko.Market {
	return coingecko.Market{ID: id, Price: nd(current), Change24h: nd(c24), Change7d: nd("1"), Change30d: nd("2")}
}

func newGateway(m MarketSource, c ChainSource, clk *fakeClock, fallback IDResolver) *PriceGateway {
	return NewPriceGateway(m, c, cache.NewMemory(clk.Now), time.Minute, 5*time.Minute, fallback, logrus.New())
}

func TestFetchPrices_OneEntryPerSymbolInOrder(t *testing.T) {
	m := &fakeMarkets{rows: map[string]coingecko.Market{
		"bitcoin":  market("bitcoin", "50000", "2.5"),
		"ethereum": market("ethereum", "3000", "-1"),
	}}
	g := newGateway(m, &fakeChains{}, newFakeClock(), nil)

	got := g.FetchPrices(context.Background(), []string{"eth", "UNKNOWNCOIN", "BTC", "ETH"})
	require.Len(t, got, 4)
	assert.Equal(t, "ETH", got[0].Symbol)
	assert.True(t, got[0].Current.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "UNKNOWNCOIN", got[1].Symbol)
	assert.True(t, got[1].Current.IsZero())
	assert.True(t, got[1].Change24h.IsZero())
	assert.Equal(t, "BTC", got[2].Symbol)
	assert.True(t, got[2].Change24h.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "ETH", got[3].Symbol)
	assert.ElementsMatch(t, []string{"ethereum", "bitcoin"}, m.lastIDs)
}

func TestFetchPrices_CachedWithinTTL(t *testing.T) {
	clk := newFakeClock()
	m := &fakeMarkets{rows: map[string]coingecko.Market{"bitcoin": market("bitcoin", "50000", "0")}}
	g := newGateway(m, &fakeChains{}, clk, nil)
	ctx := context.Background()

	g.FetchPrices(ctx, []string{"BTC"})
	clk.Advance(30 * time.Second)
	got := g.FetchPrices(ctx, []string{"BTC"})
	assert.Equal(t, int32(1), m.calls.Load())
	assert.True(t, got[0].Current.Equal(decimal.NewFromInt(50000)))

	clk.Advance(31 * time.Second)
	g.FetchPrices(ctx, []string{"BTC"})
	assert.Equal(t, int32(2), m.calls.Load())
}

func TestFetchPrices_ProviderErrorDegradesToZero(t *testing.T) {
	m := &fakeMarkets{err: errors.New("rate limited")}
	g := newGateway(m, &fakeChains{}, newFakeClock(), nil)

	got := g.FetchPrices(context.Background(), []string{"BTC", "ETH"})
	require.Len(t, got, 2)
	for i, sym := range []string{"BTC", "ETH"} {
		assert.Equal(t, sym, got[i].Symbol)
		assert.True(t, got[i].Current.IsZero())
	}

	g.FetchPrices(context.Background(), []string{"BTC", "ETH"})
	assert.Equal(t, int32(2), m.calls.Load(), "fallback is not cached")

	_, err := g.Quote(context.Background(), []string{"BTC"})
	assert.Error(t, err)
}

func TestFetchPrices_UsesMappingFallback(t *testing.T) {
	m := &fakeMarkets{rows: map[string]coingecko.Market{"bittensor": market("bittensor", "400", "3")}}
	fallback := func(s string) (string, bool) {
		if s == "TAO" {
			return "bittensor", true
		}
		return "", false
	}
	g := newGateway(m, &fakeChains{}, newFakeClock(), fallback)

	got := g.FetchPrices(context.Background(), []string{"TAO"})
	require.Len(t, got, 1)
	assert.True(t, got[0].Current.Equal(decimal.NewFromInt(400)))
}

func TestFetchPrices_NoResolvableSymbolsSkipsProvider(t *testing.T) {
	m := &fakeMarkets{}
	g := newGateway(m, &fakeChains{}, newFakeClock(), nil)

	got := g.FetchPrices(context.Background(), []string{"NOPE"})
	require.Len(t, got, 1)
	assert.Equal(t, int32(0), m.calls.Load())
	assert.Empty(t, g.FetchPrices(context.Background(), nil))
}

func TestFetchOnChainMetrics(t *testing.T) {
	clk := newFakeClock()
	c := &fakeChains{chains: []defillama.Chain{
		{Name: "Ethereum", TokenSymbol: "ETH", GeckoID: "ethereum", TVL: decimal.NewFromInt(60000000000)},
		{Name: "Solana", TokenSymbol: "SOL", GeckoID: "solana", TVL: decimal.NewFromInt(9000000000)},
		{Name: "Tiny", TokenSymbol: "ABC", TVL: decimal.NewFromInt(10)},
		{Name: "Bigger", TokenSymbol: "abc", TVL: decimal.NewFromInt(20)},
	}}
	g := newGateway(&fakeMarkets{}, c, clk, nil)
	ctx := context.Background()

	m := g.FetchOnChainMetrics(ctx, "sol")
	require.NotNil(t, m)
	assert.Equal(t, "SOL", m.Symbol)
	assert.True(t, m.TVL.Equal(decimal.NewFromInt(9000000000)))

	m = g.FetchOnChainMetrics(ctx, "ABC")
	require.NotNil(t, m)
	assert.True(t, m.TVL.Equal(decimal.NewFromInt(20)))

	assert.Nil(t, g.FetchOnChainMetrics(ctx, "DOGE"))
	assert.Equal(t, int32(1), c.calls.Load(), "chain list cached")

	clk.Advance(6 * time.Minute)
	g.FetchOnChainMetrics(ctx, "ETH")
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestFetchOnChainMetrics_ProviderFailure(t *testing.T) {
	g := newGateway(&fakeMarkets{}, &fakeChains{err: errors.New("down")}, newFakeClock(), nil)
	assert.Nil(t, g.FetchOnChainMetrics(context.Background(), "ETH"))
}

func TestPriceGateway_AgainstHTTPProviders(t *testing.T) {
	var hits atomic.Int32
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "24h,7d,30d", r.URL.Query().Get("price_change_percentage"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":64000.5,
			"market_cap":1200000000000,"total_volume":null,
			"price_change_percentage_24h_in_currency":1.25,
			"price_change_percentage_7d_in_currency":-3.5,
			"price_change_percentage_30d_in_currency":null}]`))
	}))
	defer gecko.Close()
	llama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/chains", r.URL.Path)
		_, _ = w.Write([]byte(`[{"name":"Bitcoin","tokenSymbol":"BTC","gecko_id":"bitcoin","tvl":5000000}]`))
	}))
	defer llama.Close()

	clk := newFakeClock()
	g := NewPriceGateway(
		coingecko.NewClient(gecko.URL, time.Second),
		defillama.NewClient(llama.URL, time.Second),
		cache.NewMemory(clk.Now), time.Minute, 5*time.Minute, nil, logrus.New())

	got := g.FetchPrices(context.Background(), []string{"BTC", "XYZ"})
	require.Len(t, got, 2)
	assert.True(t, got[0].Current.Equal(decimal.RequireFromString("64000.5")))
	assert.True(t, got[0].Change7d.Equal(decimal.RequireFromString("-3.5")))
	assert.True(t, got[0].Change30d.IsZero())
	require.NotNil(t, got[0].MarketCap)
	assert.Nil(t, got[0].Volume24h)
	assert.True(t, got[1].Current.IsZero())

	g.FetchPrices(context.Background(), []string{"BTC", "XYZ"})
	assert.Equal(t, int32(1), hits.Load())

	m := g.FetchOnChainMetrics(context.Background(), "btc")
	require.NotNil(t, m)
	assert.True(t, m.TVL.Equal(decimal.NewFromInt(5000000)))
}

func TestPriceGateway_HTTPErrorStatus(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer gecko.Close()

	g := NewPriceGateway(coingecko.NewClient(gecko.URL, time.Second), &fakeChains{},
		cache.NewMemory(time.Now), time.Minute, time.Minute, nil, logrus.New())
	_, err := g.Quote(context.Background(), []string{"ETH"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

package service

import (
	"context"
	"sync/atomic"
	"time"

	"cryptodash/internal/models"
	"cryptodash/internal/portfolio"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Broadcaster receives every refreshed summary.
type Broadcaster interface {
	Broadcast(v any)
}

// Refresher is the single fetch path shared by the background ticker and
// manual refreshes. Overlapping calls share one in-flight fetch.
type Refresher struct {
	store  *portfolio.Store
	prices *PriceGateway
	hub    Broadcaster
	now    func() time.Time
	log    *logrus.Logger

	group    singleflight.Group
	inFlight atomic.Bool
}

func NewRefresher(store *portfolio.Store, prices *PriceGateway, hub Broadcaster, now func() time.Time, log *logrus.Logger) *Refresher {
	if now == nil {
		now = time.Now
	}
	return &Refresher{store: store, prices: prices, hub: hub, now: now, log: log}
}

func (r *Refresher) InFlight() bool { return r.inFlight.Load() }

// Refresh prices every holding, stores the result and broadcasts the new
// summary. A failed provider call keeps the previous prices.
func (r *Refresher) Refresh(ctx context.Context) models.PortfolioSummary {
	v, _, _ := r.group.Do("refresh", func() (any, error) {
		r.inFlight.Store(true)
		defer r.inFlight.Store(false)
		return r.refresh(context.WithoutCancel(ctx)), nil
	})
	return v.(models.PortfolioSummary)
}

func (r *Refresher) refresh(ctx context.Context) models.PortfolioSummary {
	symbols := r.store.Symbols()
	if len(symbols) > 0 {
		prices, err := r.prices.Quote(ctx, symbols)
		if err != nil {
			r.log.Warnf("refresh kept previous prices: %v", err)
		} else {
			r.store.SetPrices(prices, r.now().UTC())
		}
		for _, s := range symbols {
			if m := r.prices.FetchOnChainMetrics(ctx, s); m != nil {
				r.store.SetMetrics(s, *m)
			}
		}
	}

	summary := r.store.Summary()
	if r.hub != nil {
		r.hub.Broadcast(summary)
	}
	r.log.Debugf("refreshed %d holdings, total %s", len(symbols), summary.TotalValue.StringFixed(2))
	return summary
}

// Start refreshes once and then every interval until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	go func() {
		r.Refresh(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info("price refresher stopping")
				return
			case <-ticker.C:
				r.Refresh(ctx)
			}
		}
	}()
}

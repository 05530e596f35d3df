// Package portfolio holds the authoritative holdings, prices and alerts of
// the dashboard and derives every aggregate the views render.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cryptodash/internal/models"
)

var (
	ErrHoldingNotFound = errors.New("holding not found")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrInvalidHolding  = errors.New("invalid holding")
	ErrInvalidAlert    = errors.New("invalid alert")
)

// Persister stores holdings and alerts across restarts. Prices and metrics
// are never persisted.
type Persister interface {
	LoadHoldings(ctx context.Context) ([]models.Holding, error)
	SaveHoldings(ctx context.Context, holdings []models.Holding) error
	LoadAlerts(ctx context.Context) ([]models.Alert, error)
	SaveAlerts(ctx context.Context, alerts []models.Alert) error
}

type Store struct {
	mu          sync.RWMutex
	holdings    []models.Holding
	prices      map[string]models.Price
	metrics     map[string]models.OnChainMetrics
	alerts      []models.Alert
	lastUpdated time.Time

	persist Persister
	log     *logrus.Logger
	now     func() time.Time
}

// NewStore returns an empty store. persist may be nil for a purely
// in-memory store.
func NewStore(persist Persister, log *logrus.Logger) *Store {
	return &Store{
		prices:  make(map[string]models.Price),
		metrics: make(map[string]models.OnChainMetrics),
		persist: persist,
		log:     log,
		now:     time.Now,
	}
}

// Load restores holdings and alerts from the persister. When nothing was
// persisted and seed is set, the default holdings are installed. If loading
// fails the store keeps running in memory only.
func (s *Store) Load(ctx context.Context, seed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persist == nil {
		if seed {
			s.holdings = DefaultHoldings()
		}
		return nil
	}

	holdings, err := s.persist.LoadHoldings(ctx)
	if err != nil {
		s.detach()
		return fmt.Errorf("load holdings: %w", err)
	}
	alerts, err := s.persist.LoadAlerts(ctx)
	if err != nil {
		s.detach()
		return fmt.Errorf("load alerts: %w", err)
	}
	s.holdings = holdings
	s.alerts = alerts

	if len(s.holdings) == 0 && seed {
		s.log.Infof("no persisted holdings, installing %d defaults", len(defaultHoldings))
		s.holdings = DefaultHoldings()
		s.saveHoldings(ctx)
	}
	return nil
}

// detach stops persisting so a store that never saw the stored collections
// cannot overwrite them. Called with mu held.
func (s *Store) detach() {
	s.log.Warn("persisted portfolio could not be loaded, changes will not be saved")
	s.persist = nil
}

// NormalizeHolding canonicalizes the symbol and rejects empty symbols and
// negative amounts.
func NormalizeHolding(h models.Holding) (models.Holding, error) {
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	if h.Symbol == "" {
		return h, fmt.Errorf("%w: empty symbol", ErrInvalidHolding)
	}
	if h.Amount.IsNegative() {
		return h, fmt.Errorf("%w: negative amount for %s", ErrInvalidHolding, h.Symbol)
	}
	return h, nil
}

func upsert(list []models.Holding, h models.Holding) []models.Holding {
	for i := range list {
		if list[i].Symbol == h.Symbol {
			list[i].Amount = h.Amount
			return list
		}
	}
	return append(list, h)
}

func (s *Store) Holdings() []models.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Holding, len(s.holdings))
	copy(out, s.holdings)
	return out
}

func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.holdings))
	for _, h := range s.holdings {
		out = append(out, h.Symbol)
	}
	return out
}

// AddHolding inserts h or, when the symbol is already held, overwrites its
// amount. There is never more than one holding per symbol.
func (s *Store) AddHolding(ctx context.Context, h models.Holding) (models.Holding, error) {
	h, err := NormalizeHolding(h)
	if err != nil {
		return h, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings = upsert(s.holdings, h)
	s.saveHoldings(ctx)
	return h, nil
}

func (s *Store) UpdateHolding(ctx context.Context, symbol string, amount decimal.Decimal) error {
	h, err := NormalizeHolding(models.Holding{Symbol: symbol, Amount: amount})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.holdings {
		if s.holdings[i].Symbol == h.Symbol {
			s.holdings[i].Amount = h.Amount
			s.saveHoldings(ctx)
			return nil
		}
	}
	return ErrHoldingNotFound
}

func (s *Store) RemoveHolding(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.holdings {
		if s.holdings[i].Symbol == symbol {
			s.holdings = append(s.holdings[:i], s.holdings[i+1:]...)
			s.saveHoldings(ctx)
			return nil
		}
	}
	return ErrHoldingNotFound
}

// ReplaceAllHoldings swaps the whole collection. Invalid rows are skipped and
// duplicate symbols collapse onto the last occurrence. It returns the number
// of rows skipped.
func (s *Store) ReplaceAllHoldings(ctx context.Context, list []models.Holding) int {
	next, skipped := s.collect(nil, list)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings = next
	s.saveHoldings(ctx)
	return skipped
}

// MergeHoldings upserts every row of list into the current collection.
func (s *Store) MergeHoldings(ctx context.Context, list []models.Holding) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, skipped := s.collect(s.holdings, list)
	s.holdings = next
	s.saveHoldings(ctx)
	return skipped
}

func (s *Store) collect(base, list []models.Holding) ([]models.Holding, int) {
	out := make([]models.Holding, len(base), len(base)+len(list))
	copy(out, base)
	skipped := 0
	for _, h := range list {
		n, err := NormalizeHolding(h)
		if err != nil {
			s.log.Warnf("skipping holding row: %v", err)
			skipped++
			continue
		}
		out = upsert(out, n)
	}
	return out, skipped
}

func (s *Store) ClearAllHoldings(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings = nil
	s.saveHoldings(ctx)
}

// SetPrices replaces the cached price of every symbol in prices and records
// asOf as the last data update.
func (s *Store) SetPrices(prices []models.Price, asOf time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range prices {
		s.prices[p.Symbol] = p
	}
	s.lastUpdated = asOf
}

func (s *Store) Price(symbol string) (models.Price, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

func (s *Store) SetMetrics(symbol string, m models.OnChainMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[symbol] = m
}

func (s *Store) Metrics(symbol string) (models.OnChainMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[symbol]
	return m, ok
}

func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

func (s *Store) TotalValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TotalValue(s.holdings, s.prices)
}

func (s *Store) PortfolioData() []models.PortfolioPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Positions(s.holdings, s.prices)
}

func (s *Store) PerformanceStats() models.PerformanceStats {
	return Performance(s.PortfolioData())
}

func (s *Store) TimeframeChanges(tf models.Timeframe) models.TimeframeChange {
	return TimeframeChange(s.PortfolioData(), tf)
}

// Summary computes every dashboard aggregate from one consistent snapshot.
func (s *Store) Summary() models.PortfolioSummary {
	s.mu.RLock()
	positions := Positions(s.holdings, s.prices)
	total := TotalValue(s.holdings, s.prices)
	last := s.lastUpdated
	s.mu.RUnlock()

	changes := make(map[models.Timeframe]models.TimeframeChange, len(models.Timeframes))
	for _, tf := range models.Timeframes {
		changes[tf] = TimeframeChange(positions, tf)
	}
	out := models.PortfolioSummary{
		TotalValue:        total,
		TotalValueDisplay: money.NewFromFloat(total.InexactFloat64(), money.USD).Display(),
		HoldingsCount:     len(positions),
		Positions:         positions,
		Performance:       Performance(positions),
		Changes:           changes,
		Allocation:        Allocation(positions),
	}
	if !last.IsZero() {
		out.LastUpdated = &last
	}
	return out
}

func (s *Store) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// AddAlert assigns a fresh id and stores a as active.
func (s *Store) AddAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	a.Symbol = strings.ToUpper(strings.TrimSpace(a.Symbol))
	if a.Symbol == "" {
		return a, fmt.Errorf("%w: empty symbol", ErrInvalidAlert)
	}
	if !a.Type.Valid() {
		return a, fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, a.Type)
	}
	a.ID = uuid.NewString()
	a.Active = true
	a.Triggered = false
	a.LastTriggered = nil
	a.CreatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	s.saveAlerts(ctx)
	return a, nil
}

func (s *Store) RemoveAlert(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			s.saveAlerts(ctx)
			return nil
		}
	}
	return ErrAlertNotFound
}

func (s *Store) ToggleAlert(ctx context.Context, id string) (models.Alert, error) {
	return s.mutateAlert(ctx, id, func(a *models.Alert) {
		a.Active = !a.Active
	})
}

// TriggerAlert marks the alert as fired now. Nothing evaluates alert
// conditions automatically.
func (s *Store) TriggerAlert(ctx context.Context, id string) (models.Alert, error) {
	now := s.now().UTC()
	return s.mutateAlert(ctx, id, func(a *models.Alert) {
		a.Triggered = true
		a.LastTriggered = &now
	})
}

func (s *Store) mutateAlert(ctx context.Context, id string, fn func(*models.Alert)) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			fn(&s.alerts[i])
			s.saveAlerts(ctx)
			return s.alerts[i], nil
		}
	}
	return models.Alert{}, ErrAlertNotFound
}

// saveHoldings and saveAlerts must be called with mu held. A failed write
// leaves the in-memory state authoritative for the rest of the session.
func (s *Store) saveHoldings(ctx context.Context) {
	if s.persist == nil {
		return
	}
	snapshot := make([]models.Holding, len(s.holdings))
	copy(snapshot, s.holdings)
	if err := s.persist.SaveHoldings(ctx, snapshot); err != nil {
		s.log.Warnf("persist holdings failed, continuing in memory: %v", err)
	}
}

func (s *Store) saveAlerts(ctx context.Context) {
	if s.persist == nil {
		return
	}
	snapshot := make([]models.Alert, len(s.alerts))
	copy(snapshot, s.alerts)
	if err := s.persist.SaveAlerts(ctx, snapshot); err != nil {
		s.log.Warnf("persist alerts failed, continuing in memory: %v", err)
	}
}

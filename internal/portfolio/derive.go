package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"cryptodash/internal/models"
)

var hundred = decimal.NewFromInt(100)

// TotalValue sums amount x current price. Holdings without a known price
// contribute zero.
func TotalValue(holdings []models.Holding, prices map[string]models.Price) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		if p, ok := prices[h.Symbol]; ok {
			total = total.Add(h.Amount.Mul(p.Current))
		}
	}
	return total
}

// Positions derives one position per holding, sorted by value descending.
// Percentages are all zero when the total value is zero.
func Positions(holdings []models.Holding, prices map[string]models.Price) []models.PortfolioPosition {
	total := TotalValue(holdings, prices)
	out := make([]models.PortfolioPosition, 0, len(holdings))
	for _, h := range holdings {
		p := prices[h.Symbol]
		value := h.Amount.Mul(p.Current)
		pct := decimal.Zero
		if total.IsPositive() {
			pct = value.Div(total).Mul(hundred)
		}
		cat := CategoryFor(h.Symbol)
		out = append(out, models.PortfolioPosition{
			Symbol:       h.Symbol,
			Amount:       h.Amount,
			CurrentPrice: p.Current,
			Value:        value,
			Change24h:    p.Change24h,
			Change7d:     p.Change7d,
			Change30d:    p.Change30d,
			Percentage:   pct,
			Category:     cat,
			RiskLevel:    RiskLevel(cat),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})
	return out
}

// Performance picks the best and worst performer per timeframe.
func Performance(positions []models.PortfolioPosition) models.PerformanceStats {
	var stats models.PerformanceStats
	stats.BestPerformer24h, stats.WorstPerformer24h = bestWorst(positions, models.Timeframe24h)
	stats.BestPerformer7d, stats.WorstPerformer7d = bestWorst(positions, models.Timeframe7d)
	stats.BestPerformer30d, stats.WorstPerformer30d = bestWorst(positions, models.Timeframe30d)
	return stats
}

func bestWorst(positions []models.PortfolioPosition, tf models.Timeframe) (*models.Performer, *models.Performer) {
	if len(positions) == 0 {
		return nil, nil
	}
	sorted := make([]models.PortfolioPosition, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Change(tf).GreaterThan(sorted[j].Change(tf))
	})
	first, last := sorted[0], sorted[len(sorted)-1]
	return &models.Performer{Symbol: first.Symbol, Change: first.Change(tf)},
		&models.Performer{Symbol: last.Symbol, Change: last.Change(tf)}
}

// PriorValue back-computes a position's value at the start of tf. A change
// of -100% or below leaves no meaningful prior value; such positions report
// their current value, i.e. a zero contribution to the aggregate delta.
func PriorValue(value, changePct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(changePct.Div(hundred))
	if !factor.IsPositive() {
		return value
	}
	return value.Div(factor)
}

// TimeframeChange aggregates the value delta across all positions for tf.
func TimeframeChange(positions []models.PortfolioPosition, tf models.Timeframe) models.TimeframeChange {
	current, prior := decimal.Zero, decimal.Zero
	for _, p := range positions {
		current = current.Add(p.Value)
		prior = prior.Add(PriorValue(p.Value, p.Change(tf)))
	}
	change := current.Sub(prior)
	pct := decimal.Zero
	if prior.IsPositive() {
		pct = change.Div(prior).Mul(hundred)
	}
	return models.TimeframeChange{ChangeAmount: change, ChangePercent: pct}
}

// Allocation groups position values by category, largest first.
func Allocation(positions []models.PortfolioPosition) []models.CategoryAllocation {
	byCat := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, p := range positions {
		byCat[p.Category] = byCat[p.Category].Add(p.Value)
		total = total.Add(p.Value)
	}
	out := make([]models.CategoryAllocation, 0, len(byCat))
	for _, cat := range categoryOrder {
		v, ok := byCat[cat]
		if !ok {
			continue
		}
		pct := decimal.Zero
		if total.IsPositive() {
			pct = v.Div(total).Mul(hundred)
		}
		out = append(out, models.CategoryAllocation{
			Category:   cat,
			Color:      CategoryColor(cat),
			Value:      v,
			Percentage: pct,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})
	return out
}

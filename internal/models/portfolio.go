package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioPosition is derived from a holding and its latest price. It is
// never stored.
type PortfolioPosition struct {
	Symbol       string          `json:"symbol"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Value        decimal.Decimal `json:"value"`
	Change24h    decimal.Decimal `json:"change24h"`
	Change7d     decimal.Decimal `json:"change7d"`
	Change30d    decimal.Decimal `json:"change30d"`
	Percentage   decimal.Decimal `json:"percentage"`
	Category     string          `json:"category"`
	RiskLevel    string          `json:"riskLevel"`
}

// Change returns the position's percent change over tf.
func (p PortfolioPosition) Change(tf Timeframe) decimal.Decimal {
	switch tf {
	case Timeframe7d:
		return p.Change7d
	case Timeframe30d:
		return p.Change30d
	default:
		return p.Change24h
	}
}

type Performer struct {
	Symbol string          `json:"symbol"`
	Change decimal.Decimal `json:"change"`
}

type PerformanceStats struct {
	BestPerformer24h  *Performer `json:"bestPerformer24h"`
	WorstPerformer24h *Performer `json:"worstPerformer24h"`
	BestPerformer7d   *Performer `json:"bestPerformer7d"`
	WorstPerformer7d  *Performer `json:"worstPerformer7d"`
	BestPerformer30d  *Performer `json:"bestPerformer30d"`
	WorstPerformer30d *Performer `json:"worstPerformer30d"`
}

type TimeframeChange struct {
	ChangeAmount  decimal.Decimal `json:"changeAmount"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

type CategoryAllocation struct {
	Category   string          `json:"category"`
	Color      string          `json:"color"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// PortfolioSummary is what the dashboard renders and what the websocket hub
// pushes after every refresh.
type PortfolioSummary struct {
	TotalValue        decimal.Decimal               `json:"totalValue"`
	TotalValueDisplay string                        `json:"totalValueDisplay"`
	HoldingsCount     int                           `json:"holdingsCount"`
	Positions         []PortfolioPosition           `json:"positions"`
	Performance       PerformanceStats              `json:"performance"`
	Changes           map[Timeframe]TimeframeChange `json:"changes"`
	Allocation        []CategoryAllocation          `json:"allocation"`
	LastUpdated       *time.Time                    `json:"lastUpdated,omitempty"`
}

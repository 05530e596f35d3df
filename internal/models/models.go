package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	Symbol string          `db:"symbol" json:"symbol"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

type Price struct {
	Symbol    string           `json:"symbol"`
	Current   decimal.Decimal  `json:"current"`
	Change24h decimal.Decimal  `json:"change24h"`
	Change7d  decimal.Decimal  `json:"change7d"`
	Change30d decimal.Decimal  `json:"change30d"`
	MarketCap *decimal.Decimal `json:"marketCap,omitempty"`
	Volume24h *decimal.Decimal `json:"volume24h,omitempty"`
}

// ZeroPrice is the record returned for a symbol the provider could not price.
func ZeroPrice(symbol string) Price {
	return Price{Symbol: symbol}
}

type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
)

var Timeframes = []Timeframe{Timeframe24h, Timeframe7d, Timeframe30d}

func (t Timeframe) Valid() bool {
	switch t {
	case Timeframe24h, Timeframe7d, Timeframe30d:
		return true
	}
	return false
}

type OnChainMetrics struct {
	Symbol            string           `json:"symbol"`
	TVL               *decimal.Decimal `json:"tvl,omitempty"`
	TransactionVolume *decimal.Decimal `json:"transactionVolume,omitempty"`
	ActiveAddresses   *int64           `json:"activeAddresses,omitempty"`
	GasUsed           *int64           `json:"gasUsed,omitempty"`
}

type AlertType string

const (
	AlertPriceAbove  AlertType = "price_above"
	AlertPriceBelow  AlertType = "price_below"
	AlertVolumeSpike AlertType = "volume_spike"
	AlertTVLChange   AlertType = "tvl_change"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertPriceAbove, AlertPriceBelow, AlertVolumeSpike, AlertTVLChange:
		return true
	}
	return false
}

type Alert struct {
	ID            string          `db:"id" json:"id"`
	Symbol        string          `db:"symbol" json:"symbol"`
	Type          AlertType       `db:"type" json:"type"`
	Threshold     decimal.Decimal `db:"threshold" json:"threshold"`
	Active        bool            `db:"active" json:"active"`
	Triggered     bool            `db:"triggered" json:"triggered"`
	LastTriggered *time.Time      `db:"last_triggered" json:"lastTriggered,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

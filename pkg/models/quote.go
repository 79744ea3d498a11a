package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close
type PricePoint struct {
	Date  string          `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// Quote is a price/volume snapshot with a month of daily closes
type Quote struct {
	Symbol        string           `json:"symbol"`
	Price         decimal.Decimal  `json:"price"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"change_percent"`
	Volume        int64            `json:"volume"`
	MarketCap     decimal.Decimal  `json:"market_cap"`
	History       []PricePoint     `json:"history"`
	SMA20         *decimal.Decimal `json:"sma_20,omitempty"`
	RSI14         *decimal.Decimal `json:"rsi_14,omitempty"`
	Trend         string           `json:"trend,omitempty"`
	FetchedAt     time.Time        `json:"fetched_at"`
}

// Closes returns the history closes as float64 in chronological order
func (q *Quote) Closes() []float64 {
	closes := make([]float64, len(q.History))
	for i, p := range q.History {
		closes[i] = ToFloat64(p.Close)
	}
	return closes
}

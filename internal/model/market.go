package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents a single daily close with its traded volume.
type Bar struct {
	Time   time.Time
	Close  float64
	Volume float64
}

// Profile holds the eligibility and identity fields returned by a market data provider.
type Profile struct {
	Ticker             string
	Name               string
	Sector             string
	MarketCap          decimal.Decimal
	AverageVolume      float64
	CurrentPrice       float64
	RegularMarketPrice float64
	TargetMeanPrice    decimal.Decimal
	RecommendationKey  string
}

// Price returns the current price, falling back to the regular market price.
func (p Profile) Price() float64 {
	if p.CurrentPrice != 0 {
		return p.CurrentPrice
	}
	return p.RegularMarketPrice
}

// Closes extracts the close series from bars, oldest first.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volume series from bars, oldest first.
func Volumes(bars []Bar) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}

// Package universe holds the static entity registry shared by every table:
// tickers, sectors, sleeves, venues and the per-entity constants the
// generators draw from.
package universe

import (
	"fmt"
	"strings"
)

// Sector names.
const (
	Semiconductors = "Semiconductors"
	Software       = "Software"
	Hardware       = "Hardware"
)

// Sleeve names.
const (
	GrowthUS = "Growth-US"
	CoreEMEA = "Core-EMEA"
	TechAPAC = "Tech-APAC"
)

// Limit types tracked by risk policy and breach tables.
const (
	LimitVAR           = "VAR"
	LimitGamma         = "gamma"
	LimitConcentration = "concentration"
)

// SectorParams drives sector-conditioned factor distributions.
type SectorParams struct {
	VolTailSigma float64
	QualityMean  float64
	QualitySD    float64
}

// Greeks are the per-sector position sensitivities.
type Greeks struct {
	Delta float64
	Beta  float64
}

// Universe is the read-only registry. Generators must only read from it.
type Universe struct {
	Tickers        []string
	SectorByTicker map[string]string
	Sleeves        []string
	LimitTypes     []string
	Venues         map[string]string
	SectorParams   map[string]SectorParams
	Greeks         map[string]Greeks

	// SleeveWeights are raw, unnormalized target weights per sleeve and ticker.
	SleeveWeights map[string]map[string]float64
	// SleeveBaseMV is the sleeve market value baseline in USD.
	SleeveBaseMV map[string]float64
	// PriceScale converts market value to share quantity.
	PriceScale map[string]float64
	// BaseOrders is the daily order count per sleeve and ticker.
	BaseOrders map[string]map[string]int
}

// Default returns the registry used by every generator.
func Default() *Universe {
	tickers := []string{"NVDA", "AMD", "INTC", "AVGO", "MSFT", "ADBE", "AAPL"}
	sectors := map[string]string{
		"NVDA": Semiconductors,
		"AMD":  Semiconductors,
		"INTC": Semiconductors,
		"AVGO": Semiconductors,
		"MSFT": Software,
		"ADBE": Software,
		"AAPL": Hardware,
	}

	venues := make(map[string]string, len(tickers))
	for _, t := range tickers {
		venues[t] = "NASDAQ"
	}

	u := &Universe{
		Tickers:        tickers,
		SectorByTicker: sectors,
		Sleeves:        []string{GrowthUS, CoreEMEA, TechAPAC},
		LimitTypes:     []string{LimitVAR, LimitGamma, LimitConcentration},
		Venues:         venues,
		SectorParams: map[string]SectorParams{
			Semiconductors: {VolTailSigma: 0.50, QualityMean: 0.62, QualitySD: 0.10},
			Software:       {VolTailSigma: 0.35, QualityMean: 0.68, QualitySD: 0.08},
			Hardware:       {VolTailSigma: 0.40, QualityMean: 0.65, QualitySD: 0.09},
		},
		Greeks: map[string]Greeks{
			Semiconductors: {Delta: 0.98, Beta: 1.20},
			Hardware:       {Delta: 0.95, Beta: 1.05},
			Software:       {Delta: 0.92, Beta: 1.00},
		},
		SleeveWeights: map[string]map[string]float64{
			GrowthUS: {"NVDA": 0.26, "AMD": 0.14, "INTC": 0.08, "AVGO": 0.10, "MSFT": 0.08, "ADBE": 0.06, "AAPL": 0.28},
			CoreEMEA: {"NVDA": 0.08, "AMD": 0.06, "INTC": 0.10, "AVGO": 0.06, "MSFT": 0.28, "ADBE": 0.20, "AAPL": 0.22},
			TechAPAC: {"NVDA": 0.12, "AMD": 0.10, "INTC": 0.12, "AVGO": 0.10, "MSFT": 0.18, "ADBE": 0.14, "AAPL": 0.24},
		},
		SleeveBaseMV: map[string]float64{
			GrowthUS: 4_200_000_000,
			CoreEMEA: 5_800_000_000,
			TechAPAC: 2_500_000_000,
		},
		PriceScale: map[string]float64{
			"NVDA": 1050, "AMD": 175, "INTC": 38, "AVGO": 1500, "MSFT": 420, "ADBE": 600, "AAPL": 210,
		},
		BaseOrders: make(map[string]map[string]int),
	}

	baseOrders := map[string][2]int{ // {semis, other}
		GrowthUS: {45, 28},
		CoreEMEA: {26, 32},
		TechAPAC: {22, 20},
	}
	for sleeve, counts := range baseOrders {
		row := make(map[string]int, len(tickers))
		for _, t := range tickers {
			if sectors[t] == Semiconductors {
				row[t] = counts[0]
			} else {
				row[t] = counts[1]
			}
		}
		u.BaseOrders[sleeve] = row
	}

	return u
}

// Sector returns the sector of ticker, or "" when unknown.
func (u *Universe) Sector(ticker string) string {
	return u.SectorByTicker[ticker]
}

// HasTicker reports whether ticker is registered.
func (u *Universe) HasTicker(ticker string) bool {
	_, ok := u.SectorByTicker[ticker]
	return ok
}

// HasSleeve reports whether sleeve is registered.
func (u *Universe) HasSleeve(sleeve string) bool {
	for _, s := range u.Sleeves {
		if s == sleeve {
			return true
		}
	}
	return false
}

// NormalizedWeights returns the sleeve's weights in Tickers order, summing to 1.
func (u *Universe) NormalizedWeights(sleeve string) []float64 {
	raw := u.SleeveWeights[sleeve]
	weights := make([]float64, len(u.Tickers))
	total := 0.0
	for i, t := range u.Tickers {
		weights[i] = raw[t]
		total += raw[t]
	}
	if total == 0 {
		return weights
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// SleeveCode is the two-letter sleeve prefix used in record identifiers.
func SleeveCode(sleeve string) string {
	if len(sleeve) < 2 {
		return strings.ToUpper(sleeve)
	}
	return strings.ToUpper(sleeve[:2])
}

// Validate checks that every registry covers every ticker and sleeve.
func (u *Universe) Validate() error {
	for _, t := range u.Tickers {
		sector, ok := u.SectorByTicker[t]
		if !ok {
			return fmt.Errorf("ticker %s has no sector", t)
		}
		if _, ok := u.SectorParams[sector]; !ok {
			return fmt.Errorf("sector %s has no parameters", sector)
		}
		if _, ok := u.Greeks[sector]; !ok {
			return fmt.Errorf("sector %s has no greeks", sector)
		}
		if u.PriceScale[t] <= 0 {
			return fmt.Errorf("ticker %s has no price scale", t)
		}
	}
	for _, s := range u.Sleeves {
		if u.SleeveBaseMV[s] <= 0 {
			return fmt.Errorf("sleeve %s has no market value baseline", s)
		}
		if _, ok := u.SleeveWeights[s]; !ok {
			return fmt.Errorf("sleeve %s has no weights", s)
		}
		if _, ok := u.BaseOrders[s]; !ok {
			return fmt.Errorf("sleeve %s has no order table", s)
		}
	}
	return nil
}

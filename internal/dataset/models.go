package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table names as handed to persistence.
const (
	FactorVectorsTable = "factset_factor_vectors"
	PositionsTable     = "internal_positions"
	OrdersTable        = "internal_orders_executions"
	PolicyChangesTable = "risk_policy_changes"
	BreachesTable      = "risk_limit_breaches"
)

// TimestampPrecision is the resolution every timestamp is truncated to.
const TimestampPrecision = time.Millisecond

// FactorVector is one ticker-day of factor scores.
type FactorVector struct {
	Ticker             string    `parquet:"ticker"`
	Date               time.Time `parquet:"date"`
	MomentumScore      float64   `parquet:"momentum_score"`
	EarningsQuality    float64   `parquet:"earnings_quality_score"`
	ValuationScore     float64   `parquet:"valuation_score"`
	VolatilityScore    float64   `parquet:"volatility_score"`
	NewsSentimentScore float64   `parquet:"news_sentiment_score"`
}

// Position is one sleeve-ticker-day holding.
type Position struct {
	PositionID        string    `parquet:"position_id"`
	Date              time.Time `parquet:"date"`
	Ticker            string    `parquet:"ticker"`
	Sleeve            string    `parquet:"sleeve"`
	Sector            string    `parquet:"sector"`
	Quantity          int64     `parquet:"quantity"`
	MarketValueUSD    float64   `parquet:"market_value_usd"`
	Delta             float64   `parquet:"delta"`
	Beta              float64   `parquet:"beta"`
	ConcentrationFlag bool      `parquet:"concentration_flag"`
}

// Order is one synthetic order with its execution outcome.
type Order struct {
	OrderID        string    `parquet:"order_id"`
	ParentOrderID  *string   `parquet:"parent_order_id,optional"`
	Timestamp      time.Time `parquet:"timestamp"`
	Date           time.Time `parquet:"date"`
	Ticker         string    `parquet:"ticker"`
	Sleeve         string    `parquet:"sleeve"`
	Side           string    `parquet:"side"`
	OrderType      string    `parquet:"order_type"`
	Venue          string    `parquet:"venue"`
	QuoteSpreadBps float64   `parquet:"quote_spread_bps"`
	DepthShares    int64     `parquet:"top_of_book_depth_shares"`
	FillQty        int64     `parquet:"fill_qty"`
	AvgFillPrice   float64   `parquet:"avg_fill_price"`
	SlippageBps    float64   `parquet:"slippage_bps"`
}

// PolicyChange is one dated risk threshold change.
type PolicyChange struct {
	PolicyID     string
	ChangeDate   time.Time
	ScopeSleeve  string
	ScopeSector  *string
	LimitType    string
	OldThreshold decimal.Decimal
	NewThreshold decimal.Decimal
	Notes        string
}

// Tightening reports whether the change lowers the threshold.
func (p PolicyChange) Tightening() bool {
	return p.NewThreshold.LessThan(p.OldThreshold)
}

// Breach is the daily breach tally of one sleeve and limit type.
type Breach struct {
	BreachID      string    `parquet:"breach_id"`
	Date          time.Time `parquet:"date"`
	Sleeve        string    `parquet:"sleeve"`
	LimitType     string    `parquet:"limit_type"`
	BreachCount   int64     `parquet:"breach_count"`
	SeverityScore float64   `parquet:"severity_score"`
}

// Order sides and types.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderMarket          = "market"
	OrderMarketableLimit = "marketable_limit"
	OrderLimit           = "limit"
)

// Columns per table, in persistence order.
var (
	FactorVectorColumns = []string{"ticker", "date", "momentum_score", "earnings_quality_score", "valuation_score", "volatility_score", "news_sentiment_score"}
	PositionColumns     = []string{"position_id", "date", "ticker", "sleeve", "sector", "quantity", "market_value_usd", "delta", "beta", "concentration_flag"}
	OrderColumns        = []string{"order_id", "parent_order_id", "timestamp", "date", "ticker", "sleeve", "side", "order_type", "venue", "quote_spread_bps", "top_of_book_depth_shares", "fill_qty", "avg_fill_price", "slippage_bps"}
	PolicyChangeColumns = []string{"policy_id", "change_date", "scope_sleeve", "scope_sector", "limit_type", "old_threshold", "new_threshold", "notes"}
	BreachColumns       = []string{"breach_id", "date", "sleeve", "limit_type", "breach_count", "severity_score"}
)

// Values implements Record.
func (r FactorVector) Values() []any {
	return []any{r.Ticker, r.Date, r.MomentumScore, r.EarningsQuality, r.ValuationScore, r.VolatilityScore, r.NewsSentimentScore}
}

// Values implements Record.
func (r Position) Values() []any {
	return []any{r.PositionID, r.Date, r.Ticker, r.Sleeve, r.Sector, r.Quantity, r.MarketValueUSD, r.Delta, r.Beta, r.ConcentrationFlag}
}

// Values implements Record.
func (r Order) Values() []any {
	var parent any
	if r.ParentOrderID != nil {
		parent = *r.ParentOrderID
	}
	return []any{r.OrderID, parent, r.Timestamp, r.Date, r.Ticker, r.Sleeve, r.Side, r.OrderType, r.Venue,
		r.QuoteSpreadBps, r.DepthShares, r.FillQty, r.AvgFillPrice, r.SlippageBps}
}

// Values implements Record. Thresholds are exported as float64.
func (r PolicyChange) Values() []any {
	var sector any
	if r.ScopeSector != nil {
		sector = *r.ScopeSector
	}
	return []any{r.PolicyID, r.ChangeDate, r.ScopeSleeve, sector, r.LimitType,
		r.OldThreshold.InexactFloat64(), r.NewThreshold.InexactFloat64(), r.Notes}
}

// Values implements Record.
func (r Breach) Values() []any {
	return []any{r.BreachID, r.Date, r.Sleeve, r.LimitType, r.BreachCount, r.SeverityScore}
}

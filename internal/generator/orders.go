package generator

import (
	"fmt"
	"time"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/stochastic"
)

// Intraday and microstructure parameters of the order book.
var (
	tradingHours = []int{9, 10, 11, 12, 13, 14, 15}
	hourWeights  = []float64{0.20, 0.12, 0.11, 0.10, 0.09, 0.10, 0.28}

	sides            = []string{dataset.SideBuy, dataset.SideSell}
	sideWeights      = []float64{0.48, 0.52}
	eventSideWeights = []float64{0.35, 0.65}

	orderTypes            = []string{dataset.OrderMarket, dataset.OrderMarketableLimit, dataset.OrderLimit}
	orderTypeWeights      = []float64{0.18, 0.32, 0.50}
	eventOrderTypeWeights = []float64{0.30, 0.40, 0.30}
)

const (
	// LowDepthShares marks thin books that pay extra slippage during the event.
	LowDepthShares = 12000
	// ParentNullRate is the chance an order has no parent.
	ParentNullRate = 0.001
)

type orderSamplers struct {
	hour           stochastic.Categorical
	side           stochastic.Categorical
	eventSide      stochastic.Categorical
	orderType      stochastic.Categorical
	eventOrderType stochastic.Categorical
}

// OrderCount is the number of orders drawn for a group on one day.
func (g *Generator) OrderCount(sleeve, ticker string, inEvent bool) int {
	n := g.sc.Universe.BaseOrders[sleeve][ticker]
	if inEvent && sleeve == g.sc.Stress.Sleeve {
		n = int(float64(n) * g.sc.Stress.TurnoverMultiplier)
	}
	return n
}

// Orders emits the intraday order events of the impact window. Rows are
// ordered day, sleeve, ticker and order ids are contiguous from ORD-00000001.
func (g *Generator) Orders(rng *stochastic.Stream) *dataset.Frame[dataset.Order] {
	days := g.sc.ImpactDays()
	u := g.sc.Universe
	g.logger.Info().Int("days", len(days)).Msg("generating orders and executions")

	s := orderSamplers{
		hour:           rng.Categorical(hourWeights),
		side:           rng.Categorical(sideWeights),
		eventSide:      rng.Categorical(eventSideWeights),
		orderType:      rng.Categorical(orderTypeWeights),
		eventOrderType: rng.Categorical(eventOrderTypeWeights),
	}

	rows := make([]dataset.Order, 0, len(days)*len(u.Sleeves)*len(u.Tickers)*30)
	next := 1
	prog := newProgress(g.logger, "days", len(days))
	for i, d := range days {
		prog.step(i)
		inEvent := g.sc.Windows.InEvent(d)
		for _, sleeve := range u.Sleeves {
			for _, ticker := range u.Tickers {
				n := g.OrderCount(sleeve, ticker, inEvent)
				rows = g.appendOrders(rows, rng, s, d, sleeve, ticker, n, inEvent, next)
				next += n
			}
		}
	}

	g.logger.Info().Int("rows", len(rows)).Msg("orders generated")
	return dataset.NewFrame(dataset.OrdersTable, dataset.OrderColumns, rows)
}

func (g *Generator) appendOrders(rows []dataset.Order, rng *stochastic.Stream, s orderSamplers, d time.Time,
	sleeve, ticker string, n int, inEvent bool, first int) []dataset.Order {
	sideDraw, typeDraw := s.side, s.orderType
	if inEvent {
		typeDraw = s.eventOrderType
		if g.sc.IsStressedSector(ticker) {
			sideDraw = s.eventSide
		}
	}

	// Event liquidity shocks apply once per group.
	spreadMult, depthMult := 1.0, 1.0
	if inEvent {
		spreadMult = rng.Uniform(1.4, 1.9)
		depthMult = rng.Uniform(0.55, 0.85)
	}

	day := floorTime(d)
	venue := g.sc.Universe.Venues[ticker]
	for k := 0; k < n; k++ {
		hour := tradingHours[s.hour.Draw()]
		minute := rng.IntRange(0, 60)
		ts := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

		spread := rng.LogNormalAround(10, 0.35) * spreadMult
		depth := int64(rng.LogNormalAround(25000, 0.60))
		if inEvent {
			depth = int64(float64(depth) * depthMult)
		}

		fill := int64(rng.Poisson(2500) + rng.IntRange(100, 800))
		price := rng.LogNormalAround(200, 0.45)

		var slip float64
		if inEvent {
			slip = rng.Normal(18, 6)
			if depth < LowDepthShares {
				slip += rng.Uniform(2, 8)
			}
		} else {
			slip = rng.Normal(10.5, 3)
		}

		var parent *string
		if !rng.Bernoulli(ParentNullRate) {
			id := fmt.Sprintf("PORD-%06d", rng.IntRange(100000, 1000000))
			parent = &id
		}

		rows = append(rows, dataset.Order{
			OrderID:        OrderID(first + k),
			ParentOrderID:  parent,
			Timestamp:      floorTime(ts),
			Date:           day,
			Ticker:         ticker,
			Sleeve:         sleeve,
			Side:           sides[sideDraw.Draw()],
			OrderType:      orderTypes[typeDraw.Draw()],
			Venue:          venue,
			QuoteSpreadBps: spread,
			DepthShares:    depth,
			FillQty:        fill,
			AvgFillPrice:   price,
			SlippageBps:    slip,
		})
	}
	return rows
}

// OrderID formats "ORD-%08d".
func OrderID(seq int) string {
	return fmt.Sprintf("ORD-%08d", seq)
}

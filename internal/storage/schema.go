package storage

import "portfolio-scenario-gen/internal/dataset"

// tableDDL creates each scenario table when missing. Column order matches
// dataset's persistence order so COPY can stream rows unchanged.
var tableDDL = map[string]string{
	dataset.FactorVectorsTable: `CREATE TABLE IF NOT EXISTS factset_factor_vectors (
        ticker                 TEXT             NOT NULL,
        "date"                 TIMESTAMP        NOT NULL,
        momentum_score         DOUBLE PRECISION NOT NULL,
        earnings_quality_score DOUBLE PRECISION NOT NULL,
        valuation_score        DOUBLE PRECISION NOT NULL,
        volatility_score       DOUBLE PRECISION NOT NULL,
        news_sentiment_score   DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (ticker, "date")
    );`,

	dataset.PositionsTable: `CREATE TABLE IF NOT EXISTS internal_positions (
        position_id        TEXT             NOT NULL,
        "date"             TIMESTAMP        NOT NULL,
        ticker             TEXT             NOT NULL,
        sleeve             TEXT             NOT NULL,
        sector             TEXT             NOT NULL,
        quantity           BIGINT           NOT NULL,
        market_value_usd   DOUBLE PRECISION NOT NULL,
        delta              DOUBLE PRECISION NOT NULL,
        beta               DOUBLE PRECISION NOT NULL,
        concentration_flag BOOLEAN          NOT NULL,
        PRIMARY KEY (sleeve, ticker, "date")
    );`,

	dataset.OrdersTable: `CREATE TABLE IF NOT EXISTS internal_orders_executions (
        order_id                 TEXT PRIMARY KEY,
        parent_order_id          TEXT,
        "timestamp"              TIMESTAMP        NOT NULL,
        "date"                   TIMESTAMP        NOT NULL,
        ticker                   TEXT             NOT NULL,
        sleeve                   TEXT             NOT NULL,
        side                     TEXT             NOT NULL,
        order_type               TEXT             NOT NULL,
        venue                    TEXT             NOT NULL,
        quote_spread_bps         DOUBLE PRECISION NOT NULL,
        top_of_book_depth_shares BIGINT           NOT NULL,
        fill_qty                 BIGINT           NOT NULL,
        avg_fill_price           DOUBLE PRECISION NOT NULL,
        slippage_bps             DOUBLE PRECISION NOT NULL
    );`,

	dataset.PolicyChangesTable: `CREATE TABLE IF NOT EXISTS risk_policy_changes (
        policy_id     TEXT PRIMARY KEY,
        change_date   TIMESTAMP NOT NULL,
        scope_sleeve  TEXT      NOT NULL,
        scope_sector  TEXT,
        limit_type    TEXT      NOT NULL,
        old_threshold NUMERIC   NOT NULL,
        new_threshold NUMERIC   NOT NULL,
        notes         TEXT      NOT NULL
    );`,

	dataset.BreachesTable: `CREATE TABLE IF NOT EXISTS risk_limit_breaches (
        breach_id      TEXT             NOT NULL,
        "date"         TIMESTAMP        NOT NULL,
        sleeve         TEXT             NOT NULL,
        limit_type     TEXT             NOT NULL,
        breach_count   BIGINT           NOT NULL,
        severity_score DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (sleeve, limit_type, "date")
    );`,
}

// dateColumn is the column each table is bounded by in row summaries.
var dateColumn = map[string]string{
	dataset.FactorVectorsTable: "date",
	dataset.PositionsTable:     "date",
	dataset.OrdersTable:        "date",
	dataset.PolicyChangesTable: "change_date",
	dataset.BreachesTable:      "date",
}

// TableNames lists the scenario tables in hand-off order.
var TableNames = []string{
	dataset.FactorVectorsTable,
	dataset.PositionsTable,
	dataset.OrdersTable,
	dataset.PolicyChangesTable,
	dataset.BreachesTable,
}

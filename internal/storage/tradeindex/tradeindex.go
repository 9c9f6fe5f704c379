// Package tradeindex maintains a relational index of executed trades for
// query serving. The index is rebuilt from engine events and is not part
// of consensus state; the ledger's key-value store remains authoritative.
package tradeindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when a queried trade does not exist.
var ErrNotFound = errors.New("tradeindex: trade not found")

// Source identifies which venue produced a trade.
type Source string

const (
	SourceCurve     Source = "curve"
	SourceOrderBook Source = "orderbook"
)

// Trade is one row of the index. Curve trades carry the numeric token id;
// order book trades carry the asset address and the filled order's id.
type Trade struct {
	ID         uint64
	Source     Source
	TokenID    uint64
	Asset      string
	OrderID    uint64
	Buyer      string
	Seller     string
	Amount     int64
	Price      int64
	Total      int64
	IsBuy      bool
	ExecutedAt time.Time
}

// Repository stores and queries the trade index.
type Repository interface {
	// Insert records an executed trade.
	Insert(ctx context.Context, trade Trade) error

	// ByID returns one trade, or ErrNotFound. Curve trade sequences are
	// per market, so curve lookups key on (tokenID, id); order book ids
	// are global and tokenID is zero.
	ByID(ctx context.Context, source Source, tokenID, id uint64) (*Trade, error)

	// ByToken returns the most recent curve trades for a token, newest
	// first.
	ByToken(ctx context.Context, tokenID uint64, limit int) ([]Trade, error)

	// ByAsset returns the most recent order book trades for an asset,
	// newest first.
	ByAsset(ctx context.Context, asset string, limit int) ([]Trade, error)

	// ByAccount returns the most recent trades an account took part in,
	// newest first.
	ByAccount(ctx context.Context, account string, limit int) ([]Trade, error)

	// Count returns the total number of indexed trades.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying connection.
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id    BIGINT NOT NULL,
	source      TEXT   NOT NULL,
	token_id    BIGINT NOT NULL,
	asset       TEXT   NOT NULL,
	order_id    BIGINT NOT NULL,
	buyer       TEXT   NOT NULL,
	seller      TEXT   NOT NULL,
	amount      BIGINT NOT NULL,
	price       BIGINT NOT NULL,
	total       BIGINT NOT NULL,
	is_buy      BOOLEAN NOT NULL,
	executed_at BIGINT NOT NULL,
	PRIMARY KEY (source, token_id, trade_id)
);
CREATE INDEX IF NOT EXISTS trades_token ON trades (token_id, executed_at);
CREATE INDEX IF NOT EXISTS trades_asset ON trades (asset, executed_at);
CREATE INDEX IF NOT EXISTS trades_buyer ON trades (buyer);
CREATE INDEX IF NOT EXISTS trades_seller ON trades (seller);
`

// sqlRepository serves both drivers; rebind translates ? placeholders to
// the dialect's form.
type sqlRepository struct {
	db     *sql.DB
	rebind func(string) string
}

func newSQLRepository(ctx context.Context, db *sql.DB, rebind func(string) string) (*sqlRepository, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("tradeindex: failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tradeindex: failed to initialize schema: %w", err)
	}
	return &sqlRepository{db: db, rebind: rebind}, nil
}

func (r *sqlRepository) Insert(ctx context.Context, trade Trade) error {
	query := r.rebind(`INSERT INTO trades
		(trade_id, source, token_id, asset, order_id, buyer, seller, amount, price, total, is_buy, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		int64(trade.ID), string(trade.Source), int64(trade.TokenID), trade.Asset,
		int64(trade.OrderID), trade.Buyer, trade.Seller, trade.Amount, trade.Price,
		trade.Total, trade.IsBuy, trade.ExecutedAt.Unix())
	if err != nil {
		return fmt.Errorf("tradeindex: failed to insert trade: %w", err)
	}
	return nil
}

func (r *sqlRepository) ByID(ctx context.Context, source Source, tokenID, id uint64) (*Trade, error) {
	query := r.rebind(selectColumns + ` WHERE source = ? AND token_id = ? AND trade_id = ?`)

	row := r.db.QueryRowContext(ctx, query, string(source), int64(tokenID), int64(id))
	trade, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tradeindex: failed to query trade: %w", err)
	}
	return trade, nil
}

func (r *sqlRepository) ByToken(ctx context.Context, tokenID uint64, limit int) ([]Trade, error) {
	query := r.rebind(selectColumns + ` WHERE token_id = ? ORDER BY executed_at DESC, trade_id DESC LIMIT ?`)
	return r.queryTrades(ctx, query, int64(tokenID), normalizeLimit(limit))
}

func (r *sqlRepository) ByAsset(ctx context.Context, asset string, limit int) ([]Trade, error) {
	query := r.rebind(selectColumns + ` WHERE asset = ? ORDER BY executed_at DESC, trade_id DESC LIMIT ?`)
	return r.queryTrades(ctx, query, asset, normalizeLimit(limit))
}

func (r *sqlRepository) ByAccount(ctx context.Context, account string, limit int) ([]Trade, error) {
	query := r.rebind(selectColumns + ` WHERE buyer = ? OR seller = ? ORDER BY executed_at DESC, trade_id DESC LIMIT ?`)
	return r.queryTrades(ctx, query, account, account, normalizeLimit(limit))
}

func (r *sqlRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("tradeindex: failed to count trades: %w", err)
	}
	return count, nil
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

const selectColumns = `SELECT trade_id, source, token_id, asset, order_id, buyer, seller, amount, price, total, is_buy, executed_at FROM trades`

const defaultLimit = 100

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultLimit
	}
	return limit
}

func (r *sqlRepository) queryTrades(ctx context.Context, query string, args ...any) ([]Trade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tradeindex: failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("tradeindex: failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return trades, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (*Trade, error) {
	var (
		trade      Trade
		id         int64
		source     string
		tokenID    int64
		orderID    int64
		executedAt int64
	)
	err := s.Scan(&id, &source, &tokenID, &trade.Asset, &orderID, &trade.Buyer,
		&trade.Seller, &trade.Amount, &trade.Price, &trade.Total, &trade.IsBuy,
		&executedAt)
	if err != nil {
		return nil, err
	}

	trade.ID = uint64(id)
	trade.Source = Source(source)
	trade.TokenID = uint64(tokenID)
	trade.OrderID = uint64(orderID)
	trade.ExecutedAt = time.Unix(executedAt, 0).UTC()
	return &trade, nil
}

// rebindQuestion leaves ? placeholders as-is (sqlite).
func rebindQuestion(query string) string { return query }

// rebindDollar rewrites ? placeholders to $1, $2, ... (postgres).
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package tradeindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumeforge/venued/internal/core/tx"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func curveRow(id uint64, at time.Time) Trade {
	return Trade{
		ID:         id,
		Source:     SourceCurve,
		TokenID:    1,
		Buyer:      "aa11",
		Amount:     500,
		Price:      2_0000000,
		Total:      100,
		IsBuy:      true,
		ExecutedAt: at,
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := time.Unix(1_700_000_000, 0).UTC()
	require.NoError(t, repo.Insert(ctx, curveRow(0, at)))

	got, err := repo.ByID(ctx, SourceCurve, 1, 0)
	require.NoError(t, err)
	require.Equal(t, SourceCurve, got.Source)
	require.Equal(t, uint64(1), got.TokenID)
	require.Equal(t, "aa11", got.Buyer)
	require.Equal(t, int64(500), got.Amount)
	require.True(t, got.IsBuy)
	require.Equal(t, at, got.ExecutedAt)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestRepositoryNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.ByID(context.Background(), SourceCurve, 1, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositorySourcesDoNotCollide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Unix(1_700_000_000, 0).UTC()

	require.NoError(t, repo.Insert(ctx, curveRow(1, at)))
	require.NoError(t, repo.Insert(ctx, Trade{
		ID:         1,
		Source:     SourceOrderBook,
		Asset:      "bb22",
		OrderID:    4,
		Buyer:      "aa11",
		Seller:     "cc33",
		Amount:     40,
		Price:      5,
		Total:      200,
		IsBuy:      true,
		ExecutedAt: at,
	}))

	curve, err := repo.ByID(ctx, SourceCurve, 1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), curve.TokenID)

	book, err := repo.ByID(ctx, SourceOrderBook, 0, 1)
	require.NoError(t, err)
	require.Equal(t, "bb22", book.Asset)
	require.Equal(t, uint64(4), book.OrderID)
}

func TestRepositoryMarketsDoNotCollide(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Unix(1_700_000_000, 0).UTC()

	// Curve trade sequences restart at 0 for every market; two markets'
	// first trades must both land.
	first := curveRow(0, at)
	second := curveRow(0, at.Add(time.Minute))
	second.TokenID = 2
	second.Amount = 700
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	got, err := repo.ByID(ctx, SourceCurve, 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(700), got.Amount)

	got, err = repo.ByID(ctx, SourceCurve, 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(500), got.Amount)
}

func TestRepositoryQueriesNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0).UTC()
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, curveRow(i, base.Add(time.Duration(i)*time.Minute))))
	}

	trades, err := repo.ByToken(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	require.Equal(t, uint64(4), trades[0].ID)
	require.Equal(t, uint64(3), trades[1].ID)
	require.Equal(t, uint64(2), trades[2].ID)

	// A non-positive limit falls back to the default rather than erroring.
	trades, err = repo.ByToken(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, trades, 5)

	trades, err = repo.ByToken(ctx, 2, 10)
	require.NoError(t, err)
	require.Empty(t, trades)
}

func TestRepositoryByAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Unix(1_700_000_000, 0).UTC()

	require.NoError(t, repo.Insert(ctx, Trade{
		ID: 1, Source: SourceOrderBook, Asset: "bb22", Buyer: "aa11", Seller: "cc33",
		Amount: 10, Price: 5, Total: 50, IsBuy: true, ExecutedAt: at,
	}))
	require.NoError(t, repo.Insert(ctx, Trade{
		ID: 2, Source: SourceOrderBook, Asset: "bb22", Buyer: "cc33", Seller: "dd44",
		Amount: 20, Price: 5, Total: 100, IsBuy: true, ExecutedAt: at.Add(time.Minute),
	}))

	// Matches both sides of a trade.
	trades, err := repo.ByAccount(ctx, "cc33", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	trades, err = repo.ByAccount(ctx, "dd44", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, uint64(2), trades[0].ID)
}

// captureRepo records inserted trades for hook conversion tests.
type captureRepo struct {
	trades []Trade
}

func (c *captureRepo) Insert(_ context.Context, trade Trade) error {
	c.trades = append(c.trades, trade)
	return nil
}

func (c *captureRepo) ByID(context.Context, Source, uint64, uint64) (*Trade, error) {
	return nil, ErrNotFound
}
func (c *captureRepo) ByToken(context.Context, uint64, int) ([]Trade, error)   { return nil, nil }
func (c *captureRepo) ByAsset(context.Context, string, int) ([]Trade, error)   { return nil, nil }
func (c *captureRepo) ByAccount(context.Context, string, int) ([]Trade, error) { return nil, nil }
func (c *captureRepo) Count(context.Context) (int64, error)                    { return 0, nil }
func (c *captureRepo) Close() error                                            { return nil }

func TestIndexerCurveBuy(t *testing.T) {
	repo := &captureRepo{}
	ix := NewIndexer(repo, nil)
	now := time.Unix(1_700_000_000, 0).UTC()
	ix.timeFn = func() time.Time { return now }

	ix.Hook()(tx.Event{
		Type: "buy",
		Key:  "MOON",
		Data: map[string]any{
			"token_id":   uint64(3),
			"trade_seq":  uint64(7),
			"buyer":      "aa11",
			"xlm_in":     int64(100),
			"tokens_out": int64(500),
		},
	})

	require.Len(t, repo.trades, 1)
	trade := repo.trades[0]
	require.Equal(t, SourceCurve, trade.Source)
	require.Equal(t, uint64(7), trade.ID)
	require.Equal(t, uint64(3), trade.TokenID)
	require.Equal(t, "aa11", trade.Buyer)
	require.Equal(t, int64(500), trade.Amount)
	require.Equal(t, int64(100), trade.Total)
	require.Equal(t, int64(2_000_000), trade.Price)
	require.True(t, trade.IsBuy)
	require.Equal(t, now, trade.ExecutedAt)
}

func TestIndexerCurveSell(t *testing.T) {
	repo := &captureRepo{}
	ix := NewIndexer(repo, nil)

	ix.Hook()(tx.Event{
		Type: "sell",
		Key:  "MOON",
		Data: map[string]any{
			"token_id":  uint64(3),
			"trade_seq": uint64(8),
			"seller":    "cc33",
			"tokens_in": int64(500),
			"xlm_out":   int64(90),
		},
	})

	require.Len(t, repo.trades, 1)
	trade := repo.trades[0]
	require.False(t, trade.IsBuy)
	require.Equal(t, "cc33", trade.Seller)
	require.Equal(t, int64(500), trade.Amount)
	require.Equal(t, int64(90), trade.Total)
}

func TestIndexerBookTrade(t *testing.T) {
	repo := &captureRepo{}
	ix := NewIndexer(repo, nil)

	ix.Hook()(tx.Event{
		Type: "trade_executed",
		Key:  "aa11",
		Data: map[string]any{
			"trade_id": uint64(12),
			"order_id": uint64(4),
			"seller":   "cc33",
			"asset":    "bb22",
			"amount":   int64(40),
			"price":    int64(5),
			"total":    int64(200),
		},
	})

	require.Len(t, repo.trades, 1)
	trade := repo.trades[0]
	require.Equal(t, SourceOrderBook, trade.Source)
	require.Equal(t, uint64(12), trade.ID)
	require.Equal(t, uint64(4), trade.OrderID)
	require.Equal(t, "bb22", trade.Asset)
	require.Equal(t, "aa11", trade.Buyer)
	require.Equal(t, "cc33", trade.Seller)
}

func TestIndexerIgnoresOtherEvents(t *testing.T) {
	repo := &captureRepo{}
	ix := NewIndexer(repo, nil)

	ix.Hook()(tx.Event{Type: "pool_created", Key: "LMS"})
	ix.Hook()(tx.Event{Type: "order_created", Key: "aa11"})

	require.Empty(t, repo.trades)
}

func TestRebindDollar(t *testing.T) {
	require.Equal(t,
		`INSERT INTO trades VALUES ($1, $2, $3)`,
		rebindDollar(`INSERT INTO trades VALUES (?, ?, ?)`))
	require.Equal(t, `SELECT 1`, rebindDollar(`SELECT 1`))
}

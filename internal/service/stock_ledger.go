package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// StockLedger owns the product stock counter. All adjustments go through
// Adjust within a caller-provided transaction; the Redis mirror is a
// best-effort read-side copy refreshed after commits.
type StockLedger struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(store *store.Store, redis *redisclient.Client) *StockLedger {
	return &StockLedger{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// Adjust applies a signed delta to a product's stock within tx. Negative
// deltas reserve stock, positive deltas release it. The underlying update is
// conditional and never takes the counter below zero; a lost race surfaces as
// store.ErrStockConflict rather than oversold stock.
func (sl *StockLedger) Adjust(ctx context.Context, tx *sqlx.Tx, productID string, delta int) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "StockLedger.Adjust")
	defer span.End()

	product, err := sl.store.AdjustStock(ctx, tx, productID, delta)
	if err != nil {
		return nil, err
	}

	direction := "release"
	if delta < 0 {
		direction = "reserve"
	}
	util.StockAdjustmentsTotal.WithLabelValues(direction).Inc()

	return product, nil
}

// Mirror refreshes the Redis stock mirror and drops the product cache entry.
// Failures are logged only; the database already holds the committed truth.
func (sl *StockLedger) Mirror(ctx context.Context, productID string, stock int) {
	if err := sl.redis.SetStock(ctx, productID, stock); err != nil {
		sl.logger.Warn("Failed to mirror stock to Redis",
			zap.String("product_id", productID),
			zap.Error(err))
	}
	if err := sl.redis.InvalidateProduct(ctx, productID); err != nil {
		sl.logger.Warn("Failed to invalidate product cache",
			zap.String("product_id", productID),
			zap.Error(err))
	}
}

// SyncMirror seeds the Redis stock mirror from the database at startup.
func (sl *StockLedger) SyncMirror(ctx context.Context) error {
	products, err := sl.store.ListProducts(ctx, models.ProductQueryOptions{})
	if err != nil {
		return err
	}

	for _, product := range products {
		if err := sl.redis.SetStock(ctx, product.ID, product.Stock); err != nil {
			sl.logger.Error("Failed to init stock mirror",
				zap.String("product_id", product.ID),
				zap.Error(err))
		}
	}

	sl.logger.Info("Stock mirror synced", zap.Int("count", len(products)))
	return nil
}

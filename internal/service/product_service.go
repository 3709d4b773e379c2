package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductService serves catalog reads. Single-product lookups go through a
// Redis cache; listings always hit the database.
type ProductService struct {
	store    *store.Store
	redis    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store *store.Store, redis *redisclient.Client, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		store:    store,
		redis:    redis,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// ListProducts retrieves products with optional filters and sorting.
func (ps *ProductService) ListProducts(ctx context.Context, opts models.ProductQueryOptions) ([]models.Product, error) {
	products, err := ps.store.ListProducts(ctx, opts)
	if err != nil {
		return nil, apperr.Server(err)
	}
	return products, nil
}

// GetProduct retrieves a product by ID, cache first.
func (ps *ProductService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperr.Validation("invalid product ID format")
	}

	cached, err := ps.redis.GetCachedProduct(ctx, productID)
	if err != nil {
		ps.logger.Warn("Product cache read failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
	if cached != nil {
		util.ProductCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	util.ProductCacheHits.WithLabelValues("miss").Inc()

	product, err := ps.store.GetProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("product with ID %s not found", productID)
	}
	if err != nil {
		return nil, apperr.Server(err)
	}

	if err := ps.redis.CacheProduct(ctx, product, ps.cacheTTL); err != nil {
		ps.logger.Warn("Product cache write failed",
			zap.String("product_id", productID),
			zap.Error(err))
	}
	return product, nil
}

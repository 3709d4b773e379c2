package worker

import (
	"context"
	"log"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/redisclient"
)

// StockMirrorWorker consumes order events and keeps the Redis stock mirror
// and product cache in step with committed stock changes. Other instances of
// the service learn about adjustments they did not perform themselves.
type StockMirrorWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewStockMirrorWorker creates a new stock mirror worker
func NewStockMirrorWorker(consumer *broker.Consumer, redis *redisclient.Client) *StockMirrorWorker {
	eventHandler := broker.NewEventHandler()

	refresh := func(ctx context.Context, productID string, stock int) error {
		if err := redis.SetStock(ctx, productID, stock); err != nil {
			return err
		}
		return redis.InvalidateProduct(ctx, productID)
	}

	eventHandler.OnOrderPlaced(func(ctx context.Context, event *models.OrderPlacedEvent) error {
		return refresh(ctx, event.ProductID, event.Stock)
	})
	eventHandler.OnOrderCanceled(func(ctx context.Context, event *models.OrderCanceledEvent) error {
		return refresh(ctx, event.ProductID, event.Stock)
	})

	return &StockMirrorWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *StockMirrorWorker) Start(ctx context.Context) error {
	log.Println("Starting stock mirror worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockMirrorWorker) Stop() error {
	log.Println("Stopping stock mirror worker...")
	return w.consumer.Close()
}

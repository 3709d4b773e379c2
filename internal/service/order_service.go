package service

import (
	"context"
	"errors"
	"math"
	"regexp"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const deliveryDateLayout = "2006-01-02"

// OrderService coordinates order placement and cancellation as all-or-nothing
// transactions spanning the order record and the stock ledger.
type OrderService struct {
	store          *store.Store
	ledger         *StockLedger
	eventPublisher *broker.EventPublisher
	windowDays     int
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service. windowDays is the minimum
// number of days before delivery that cancellation remains allowed.
func NewOrderService(
	store *store.Store,
	ledger *StockLedger,
	eventPublisher *broker.EventPublisher,
	windowDays int,
) *OrderService {
	return &OrderService{
		store:          store,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		windowDays:     windowDays,
		logger:         util.GetLogger(),
		now:            time.Now,
	}
}

// PlaceOrderRequest represents a request to place an order
type PlaceOrderRequest struct {
	ProductID    string `json:"productId"`
	Quantity     int    `json:"quantity"`
	EmailID      string `json:"emailId"`
	DeliveryDate string `json:"deliveryDate"`
}

// PlaceOrder validates the request, then atomically creates the order and
// decrements the product's stock. On any failure inside the transaction both
// writes roll back together.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	deliveryDate, err := s.validatePlaceRequest(req)
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	start := time.Now()
	defer func() {
		util.OrderTxLatency.Observe(time.Since(start).Seconds())
	}()

	var placed *models.Order
	txErr := s.store.WithinTx(ctx, func(tx *sqlx.Tx) error {
		product, err := s.store.GetProductByIDTx(ctx, tx, req.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("product with ID %s not found", req.ProductID)
		}
		if err != nil {
			return apperr.Server(err)
		}

		if product.Stock < req.Quantity {
			return apperr.InsufficientStock(product.Name, product.Stock, req.Quantity)
		}

		order := &models.Order{
			ProductID:    req.ProductID,
			Quantity:     req.Quantity,
			EmailID:      req.EmailID,
			DeliveryDate: deliveryDate,
			Status:       models.OrderStatusConfirmed,
		}
		if err := s.store.CreateOrder(ctx, tx, order); err != nil {
			return apperr.Server(err)
		}

		updated, err := s.ledger.Adjust(ctx, tx, req.ProductID, -req.Quantity)
		if errors.Is(err, store.ErrStockConflict) {
			// Another placement won the counter between our read and the
			// conditional decrement.
			return apperr.InsufficientStock(product.Name, product.Stock, req.Quantity)
		}
		if err != nil {
			return apperr.Server(err)
		}
		if updated.Stock < 0 {
			return apperr.Server(errors.New("stock went negative after adjustment"))
		}

		order.Product = updated
		placed = order
		return nil
	})
	if txErr != nil {
		s.rejectMetric(txErr)
		return nil, txErr
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", placed.ID),
		zap.String("product_id", placed.ProductID),
		zap.Int("quantity", placed.Quantity),
		zap.Int("stock", placed.Product.Stock))

	s.afterCommit(ctx, models.EventTypeOrderPlaced, placed)
	return placed, nil
}

// CancelOrder atomically flips a Confirmed order to Canceled and restores the
// product's stock, provided the delivery date is still outside the
// cancellation window. Canceled is terminal.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	if _, err := uuid.Parse(orderID); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, apperr.Validation("invalid order ID format")
	}

	start := time.Now()
	defer func() {
		util.OrderTxLatency.Observe(time.Since(start).Seconds())
	}()

	var canceled *models.Order
	txErr := s.store.WithinTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.store.GetOrderByIDTx(ctx, tx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("order with ID %s not found", orderID)
		}
		if err != nil {
			return apperr.Server(err)
		}

		if order.Status == models.OrderStatusCanceled {
			return apperr.AlreadyCanceled(orderID)
		}

		daysUntil := daysUntilDelivery(order.DeliveryDate, s.now())
		if daysUntil <= s.windowDays {
			return apperr.WindowClosed(s.windowDays, daysUntil)
		}

		if err := s.store.UpdateOrderStatus(ctx, tx, orderID, models.OrderStatusCanceled); err != nil {
			return apperr.Server(err)
		}

		updated, err := s.ledger.Adjust(ctx, tx, order.ProductID, order.Quantity)
		if err != nil {
			return apperr.Server(err)
		}

		order.Status = models.OrderStatusCanceled
		order.Product = updated
		canceled = order
		return nil
	})
	if txErr != nil {
		s.rejectMetric(txErr)
		return nil, txErr
	}

	util.OrdersCanceledTotal.Inc()
	s.logger.Info("Order canceled",
		zap.String("order_id", canceled.ID),
		zap.String("product_id", canceled.ProductID),
		zap.Int("restored", canceled.Quantity))

	s.afterCommit(ctx, models.EventTypeOrderCanceled, canceled)

	// Re-fetch so the caller sees the final persisted state.
	final, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperr.Server(err)
	}
	return final, nil
}

// ListOrders retrieves all orders with products resolved.
func (s *OrderService) ListOrders(ctx context.Context, opts models.OrderQueryOptions) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx, opts)
	if err != nil {
		return nil, apperr.Server(err)
	}
	return orders, nil
}

// validatePlaceRequest checks all preconditions before any transaction opens.
func (s *OrderService) validatePlaceRequest(req *PlaceOrderRequest) (time.Time, error) {
	if req.ProductID == "" || req.Quantity == 0 || req.EmailID == "" || req.DeliveryDate == "" {
		return time.Time{}, apperr.Validation("missing required order fields: productId, quantity, emailId, deliveryDate")
	}
	if _, err := uuid.Parse(req.ProductID); err != nil {
		return time.Time{}, apperr.Validation("invalid product ID format")
	}
	if req.Quantity < 1 {
		return time.Time{}, apperr.Validation("quantity must be greater than zero")
	}
	if !emailPattern.MatchString(req.EmailID) {
		return time.Time{}, apperr.Validation("invalid email format")
	}

	deliveryDate, err := time.Parse(deliveryDateLayout, req.DeliveryDate)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid delivery date, expected YYYY-MM-DD")
	}
	// Compare calendar dates in the server's zone: the parsed date is
	// midnight UTC, which off-UTC would make today's date look past.
	today := startOfDay(s.now())
	delivery := time.Date(deliveryDate.Year(), deliveryDate.Month(), deliveryDate.Day(),
		0, 0, 0, 0, today.Location())
	if delivery.Before(today) {
		return time.Time{}, apperr.Validation("delivery date cannot be in the past")
	}
	return deliveryDate, nil
}

func (s *OrderService) rejectMetric(err error) {
	reason := "server_error"
	switch apperr.StatusOf(err) {
	case 400:
		reason = "validation"
	case 403:
		reason = "window_closed"
	case 404:
		reason = "not_found"
	case 409:
		reason = "conflict"
	}
	util.OrdersRejectedTotal.WithLabelValues(reason).Inc()
}

// afterCommit publishes the domain event and refreshes the stock mirror.
// Both are best-effort: the transaction has already committed.
func (s *OrderService) afterCommit(ctx context.Context, eventType string, order *models.Order) {
	base := models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: s.now(),
	}

	var err error
	switch eventType {
	case models.EventTypeOrderPlaced:
		err = s.eventPublisher.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{
			BaseEvent: base,
			OrderID:   order.ID,
			ProductID: order.ProductID,
			Quantity:  order.Quantity,
			Stock:     order.Product.Stock,
		})
	case models.EventTypeOrderCanceled:
		err = s.eventPublisher.PublishOrderCanceled(ctx, &models.OrderCanceledEvent{
			BaseEvent: base,
			OrderID:   order.ID,
			ProductID: order.ProductID,
			Quantity:  order.Quantity,
			Stock:     order.Product.Stock,
		})
	}
	if err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.ledger.Mirror(ctx, order.ProductID, order.Product.Stock)
}

// daysUntilDelivery returns the number of days until delivery, rounded up.
func daysUntilDelivery(deliveryDate, now time.Time) int {
	diff := deliveryDate.Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

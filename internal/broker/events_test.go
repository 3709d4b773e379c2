package broker

import (
	"context"
	"encoding/json"
	"testing"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandlerRoutesOrderPlaced(t *testing.T) {
	eh := NewEventHandler()

	var got *models.OrderPlacedEvent
	eh.OnOrderPlaced(func(_ context.Context, event *models.OrderPlacedEvent) error {
		got = event
		return nil
	})

	event := models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeOrderPlaced},
		OrderID:   "order-1",
		ProductID: "product-1",
		Quantity:  3,
		Stock:     7,
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = eh.HandleMessage(context.Background(), kafka.Message{Value: payload})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, 7, got.Stock)
}

func TestEventHandlerIgnoresUnknownTypes(t *testing.T) {
	eh := NewEventHandler()
	eh.OnOrderPlaced(func(context.Context, *models.OrderPlacedEvent) error {
		t.Fatal("should not be called")
		return nil
	})

	payload, err := json.Marshal(models.BaseEvent{EventID: "evt-2", EventType: "SOMETHING_ELSE"})
	require.NoError(t, err)

	assert.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: payload}))
}

func TestEventHandlerRejectsMalformedPayload(t *testing.T) {
	eh := NewEventHandler()
	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not-json")})
	assert.Error(t, err)
}

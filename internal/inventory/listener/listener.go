package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/internal/inventory"
	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const eventOrderCreated = "OrderCreated"

// Reader is satisfied by broker.KafkaConsumer.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type InventoryListener struct {
	consumer Reader
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewInventoryListener(consumer Reader, uc inventory.UseCase, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

// Start reads order events until ctx is done.
func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("starting inventory kafka listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("stopping inventory kafka listener")
				return
			}
			l.logger.Error("failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		l.processMessage(ctx, msg.Value)
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID       string             `json:"id"`
	VendorID string             `json:"vendor_id"`
	Items    []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal event", zap.Error(err))
		return
	}
	if event.EventType != eventOrderCreated {
		return
	}

	l.logger.Info("processing OrderCreated event", zap.String("order_id", event.Payload.ID))

	for _, item := range event.Payload.Items {
		if item.VariantID == "" || item.Quantity <= 0 {
			l.logger.Warn("skipping order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
			)
			continue
		}
		_, err := l.uc.AdjustStock(ctx, &dto.AdjustStockInput{
			VendorID:       event.Payload.VendorID,
			VariantID:      item.VariantID,
			QuantityChange: -item.Quantity,
			Reason:         "order sale",
			ReferenceID:    event.Payload.ID,
			ReferenceType:  dto.MovementSale,
			UserID:         "system",
		})
		if err != nil {
			l.logger.Error("failed to adjust stock for order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("variant_id", item.VariantID),
				zap.Error(err),
			)
		}
	}
}

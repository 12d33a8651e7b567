package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"foodcourt/agg-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

type Consumer struct {
	Reader MessageReader
	Store  StoreInterface
	Logger *logrus.Logger
}

func NewConsumer(reader MessageReader, store StoreInterface, logger *logrus.Logger) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
		Logger: logger,
	}
}

// Start reads order events until ctx is done. Bad messages are logged and
// skipped.
func (c *Consumer) Start(ctx context.Context) {
	c.Logger.Info("Starting Aggregation Service consumer...")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.Logger.Info("Aggregation Service consumer stopped")
				return
			}
			c.Logger.WithError(err).Error("Error reading message")
			continue
		}

		var event domain.OrderEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.Logger.WithError(err).WithField("offset", message.Offset).Warn("Error unmarshaling message")
			continue
		}

		if err := c.Process(ctx, event); err != nil {
			c.Logger.WithError(err).WithField("order_id", event.OrderID).Error("Error processing order event")
		}
	}
}

func (c *Consumer) Process(ctx context.Context, event domain.OrderEvent) error {
	log := c.Logger.WithFields(logrus.Fields{"type": event.Type, "order_id": event.OrderID})

	switch event.Type {
	case domain.EventOrderPlaced:
		if event.RestaurantID == "" {
			return fmt.Errorf("order %s has no restaurant", event.OrderID)
		}
		err := c.Store.RecordOrderPlaced(ctx, event)
		if errors.Is(err, domain.ErrAlreadyRecorded) {
			log.Info("skipping redelivered order event")
			return nil
		}
		if err != nil {
			return fmt.Errorf("record order placed: %w", err)
		}
	case domain.EventStatusChanged:
		err := c.Store.RecordStatusChange(ctx, event)
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("skipping status change for unknown or expired order")
			return nil
		}
		if err != nil {
			return fmt.Errorf("record status change: %w", err)
		}
	default:
		log.Debug("ignoring unknown event type")
		return nil
	}

	log.Info("Successfully processed order event")
	return nil
}

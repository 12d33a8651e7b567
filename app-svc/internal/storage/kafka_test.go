package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"foodcourt/app-svc/internal/domain"
	"foodcourt/app-svc/internal/storage"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestKafkaPublisher_PublishOrderEvent(t *testing.T) {
	writer := &recordingWriter{}
	publisher := storage.NewKafkaPublisher(writer)

	event := domain.OrderEvent{
		Type:         domain.EventOrderPlaced,
		OrderID:      "o1",
		UserID:       "u1",
		RestaurantID: "r1",
		TotalAmount:  19,
		Status:       domain.StatusPending,
		Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishOrderEvent(context.Background(), event))

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "o1", string(writer.messages[0].Key))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &payload))
	assert.Equal(t, "order_placed", payload["type"])
	assert.Equal(t, "r1", payload["restaurant_id"])
	assert.Equal(t, "Pending", payload["status"])
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	publisher := storage.NewKafkaPublisher(&recordingWriter{err: errors.New("no brokers")})
	err := publisher.PublishOrderEvent(context.Background(), domain.OrderEvent{OrderID: "o1"})
	assert.ErrorContains(t, err, "no brokers")
}

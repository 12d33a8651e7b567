package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"foodcourt/agg-svc/internal/domain"
	"foodcourt/agg-svc/internal/mocks"
	"foodcourt/agg-svc/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestConsumer_Process(t *testing.T) {
	placed := domain.OrderEvent{
		Type:         domain.EventOrderPlaced,
		OrderID:      "o-1",
		RestaurantID: "r-1",
		TotalAmount:  25.3,
		Status:       "Pending",
	}
	changed := domain.OrderEvent{Type: domain.EventStatusChanged, OrderID: "o-1", Status: "Delivered"}

	tests := []struct {
		name           string
		event          domain.OrderEvent
		setupMockStore func(*mocks.StoreInterface)
		wantErr        bool
	}{
		{
			name:  "order placed",
			event: placed,
			setupMockStore: func(m *mocks.StoreInterface) {
				m.On("RecordOrderPlaced", mock.Anything, placed).Return(nil).Once()
			},
		},
		{
			name:  "order placed store error",
			event: placed,
			setupMockStore: func(m *mocks.StoreInterface) {
				m.On("RecordOrderPlaced", mock.Anything, placed).Return(errors.New("redis down")).Once()
			},
			wantErr: true,
		},
		{
			name:           "order placed without restaurant",
			event:          domain.OrderEvent{Type: domain.EventOrderPlaced, OrderID: "o-2"},
			setupMockStore: func(m *mocks.StoreInterface) {},
			wantErr:        true,
		},
		{
			name:  "status changed",
			event: changed,
			setupMockStore: func(m *mocks.StoreInterface) {
				m.On("RecordStatusChange", mock.Anything, changed).Return(nil).Once()
			},
		},
		{
			name:  "redelivered order placed is skipped",
			event: placed,
			setupMockStore: func(m *mocks.StoreInterface) {
				m.On("RecordOrderPlaced", mock.Anything, placed).Return(domain.ErrAlreadyRecorded).Once()
			},
		},
		{
			name:  "status change for unknown order is skipped",
			event: changed,
			setupMockStore: func(m *mocks.StoreInterface) {
				m.On("RecordStatusChange", mock.Anything, changed).Return(domain.ErrNotFound).Once()
			},
		},
		{
			name:  "status change store error",
			event: changed,
			setupMockStore: func(m *mocks.StoreInterface) {
				m.On("RecordStatusChange", mock.Anything, changed).Return(errors.New("redis down")).Once()
			},
			wantErr: true,
		},
		{
			name:           "unknown type is ignored",
			event:          domain.OrderEvent{Type: "new_review", OrderID: "o-3"},
			setupMockStore: func(m *mocks.StoreInterface) {},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockStore := mocks.NewStoreInterface(t)
			testCase.setupMockStore(mockStore)

			logger, _ := test.NewNullLogger()
			consumer := service.NewConsumer(nil, mockStore, logger)

			err := consumer.Process(context.Background(), testCase.event)
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type fakeReader struct {
	messages []kafka.Message
	cancel   context.CancelFunc
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func TestConsumer_StartSkipsBadMessages(t *testing.T) {
	event := domain.OrderEvent{
		Type:         domain.EventOrderPlaced,
		OrderID:      "o-1",
		RestaurantID: "r-1",
		TotalAmount:  12.5,
		Timestamp:    time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(event)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{
		messages: []kafka.Message{{Value: []byte("{not json")}, {Key: []byte("o-1"), Value: payload}},
		cancel:   cancel,
	}

	mockStore := mocks.NewStoreInterface(t)
	mockStore.On("RecordOrderPlaced", mock.Anything, mock.MatchedBy(func(e domain.OrderEvent) bool {
		return e.OrderID == "o-1" && e.RestaurantID == "r-1" && e.TotalAmount == 12.5
	})).Return(nil).Once()

	logger, hook := test.NewNullLogger()
	consumer := service.NewConsumer(reader, mockStore, logger)

	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after context cancel")
	}

	var sawUnmarshal bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Error unmarshaling message" {
			sawUnmarshal = true
		}
	}
	assert.True(t, sawUnmarshal)
}

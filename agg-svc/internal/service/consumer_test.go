package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digital-menu/agg-svc/internal/domain"
	"digital-menu/agg-svc/internal/mocks"
	"digital-menu/agg-svc/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConsumer_ProcessEvent(t *testing.T) {
	item := "A"
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	valid := domain.Event{Type: domain.EventAddToCart, OwnerID: "owner-1", ItemID: &item, OccurredAt: at}

	tests := []struct {
		name           string
		event          domain.Event
		setupMockStore func(*mocks.StoreInterface)
		wantErr        bool
	}{
		{
			name:  "success",
			event: valid,
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordEvent", mock.Anything, valid).Return(nil).Once()
				mockStore.On("UpdateCounters", mock.Anything, valid).Return(nil).Once()
			},
		},
		{
			name:  "RecordEvent error",
			event: valid,
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordEvent", mock.Anything, valid).Return(errors.New("db connection failed")).Once()
			},
			wantErr: true,
		},
		{
			name:  "UpdateCounters error",
			event: valid,
			setupMockStore: func(mockStore *mocks.StoreInterface) {
				mockStore.On("RecordEvent", mock.Anything, valid).Return(nil).Once()
				mockStore.On("UpdateCounters", mock.Anything, valid).Return(errors.New("redis error")).Once()
			},
			wantErr: true,
		},
		{
			name:           "unknown type",
			event:          domain.Event{Type: "new_review", OwnerID: "owner-1"},
			setupMockStore: func(*mocks.StoreInterface) {},
			wantErr:        true,
		},
		{
			name:           "missing owner",
			event:          domain.Event{Type: domain.EventMenuView},
			setupMockStore: func(*mocks.StoreInterface) {},
			wantErr:        true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockStore := mocks.NewStoreInterface(t)
			testCase.setupMockStore(mockStore)
			consumer := service.NewConsumer(nil, mockStore, nil)

			err := consumer.ProcessEvent(context.Background(), testCase.event)

			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConsumer_ProcessEventDefaultsTimestamp(t *testing.T) {
	mockStore := mocks.NewStoreInterface(t)
	isStamped := mock.MatchedBy(func(e domain.Event) bool { return !e.OccurredAt.IsZero() })
	mockStore.On("RecordEvent", mock.Anything, isStamped).Return(nil).Once()
	mockStore.On("UpdateCounters", mock.Anything, isStamped).Return(nil).Once()

	err := service.NewConsumer(nil, mockStore, nil).
		ProcessEvent(context.Background(), domain.Event{Type: domain.EventMenuView, OwnerID: "owner-1"})

	assert.NoError(t, err)
}

// queueReader hands out fixed messages and then blocks until ctx is done.
type queueReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	drained   chan struct{}
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	close(r.drained)
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func TestConsumer_RunCommitsEveryMessage(t *testing.T) {
	reader := &queueReader{
		messages: []kafka.Message{
			{Offset: 1, Value: []byte(`{"type":"menu_view","owner_id":"owner-1","occurred_at":"2024-05-01T10:00:00Z"}`)},
			{Offset: 2, Value: []byte(`not json`)},
			{Offset: 3, Value: []byte(`{"type":"checkout","owner_id":"owner-1","occurred_at":"2024-05-01T10:05:00Z"}`)},
		},
		drained: make(chan struct{}),
	}
	mockStore := mocks.NewStoreInterface(t)
	mockStore.On("RecordEvent", mock.Anything, mock.AnythingOfType("domain.Event")).Return(nil).Twice()
	mockStore.On("UpdateCounters", mock.Anything, mock.AnythingOfType("domain.Event")).Return(nil).Twice()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.NewConsumer(reader, mockStore, nil).Run(ctx) }()

	<-reader.drained
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

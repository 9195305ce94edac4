package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_db "github.com/stockroom/inventory-portal/internal/db/mocks"
	mock_kafka "github.com/stockroom/inventory-portal/internal/kafka/mocks"
	"github.com/stockroom/inventory-portal/internal/repository"
	mock_storage "github.com/stockroom/inventory-portal/internal/storage/mocks"
)

type publisherMocks struct {
	db       *mock_db.MockDB
	tx       *mock_db.MockTx
	repo     *mock_storage.MockOutboxTaskRepository
	producer *mock_kafka.MockProducer
}

var publishedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestPublisher(t *testing.T) (*Publisher, publisherMocks) {
	ctrl := gomock.NewController(t)
	m := publisherMocks{
		db:       mock_db.NewMockDB(ctrl),
		tx:       mock_db.NewMockTx(ctrl),
		repo:     mock_storage.NewMockOutboxTaskRepository(ctrl),
		producer: mock_kafka.NewMockProducer(ctrl),
	}
	p := NewPublisher(m.db, m.repo, m.producer, PublisherConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  3,
	}, zap.NewNop())
	p.timeNow = func() time.Time { return publishedAt }
	return p, m
}

func TestPublisher_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("sends claimed tasks", func(t *testing.T) {
		p, m := newTestPublisher(t)
		task := &repository.OutboxTask{ID: uuid.New(), Topic: "order_events", Payload: []byte(`{"type":"order_created"}`)}

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.repo.EXPECT().GetProcessableTasks(ctx, m.tx, 10).Return([]*repository.OutboxTask{task}, nil)
		m.repo.EXPECT().UpdateTaskStatusTx(ctx, m.tx, task.ID, repository.TaskStatusProcessing, 0, nil, nil).Return(nil)
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
		m.producer.EXPECT().SendMessage(ctx, "order_events", []byte(task.ID.String()), task.Payload).Return(nil)
		m.repo.EXPECT().UpdateTaskStatus(ctx, m.db, task.ID, repository.TaskStatusDone, 0, nil, &publishedAt).Return(nil)

		require.NoError(t, p.processBatch(ctx))
	})

	t.Run("send failure marks task failed", func(t *testing.T) {
		p, m := newTestPublisher(t)
		task := &repository.OutboxTask{ID: uuid.New(), Topic: "order_events", Attempts: 1}
		sendErr := errors.New("broker unavailable")

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.repo.EXPECT().GetProcessableTasks(ctx, m.tx, 10).Return([]*repository.OutboxTask{task}, nil)
		m.repo.EXPECT().UpdateTaskStatusTx(ctx, m.tx, task.ID, repository.TaskStatusProcessing, 1, nil, nil).Return(nil)
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
		m.producer.EXPECT().SendMessage(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(sendErr)
		m.repo.EXPECT().UpdateTaskStatus(ctx, m.db, task.ID, repository.TaskStatusFailed, 2, gomock.Any(), nil).
			DoAndReturn(func(_ context.Context, _ interface{}, _ uuid.UUID, _ repository.TaskStatus, _ int, lastError *string, _ *time.Time) error {
				require.NotNil(t, lastError)
				assert.Equal(t, "broker unavailable", *lastError)
				return nil
			})

		require.NoError(t, p.processBatch(ctx))
	})

	t.Run("no tasks", func(t *testing.T) {
		p, m := newTestPublisher(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.repo.EXPECT().GetProcessableTasks(ctx, m.tx, 10).Return(nil, nil)
		m.tx.EXPECT().Commit(ctx).Return(nil)
		m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()

		require.NoError(t, p.processBatch(ctx))
	})

	t.Run("fetch error rolls back", func(t *testing.T) {
		p, m := newTestPublisher(t)

		m.db.EXPECT().BeginTx(ctx).Return(m.tx, nil)
		m.repo.EXPECT().GetProcessableTasks(ctx, m.tx, 10).Return(nil, errors.New("relation does not exist"))
		m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

		err := p.processBatch(ctx)
		assert.ErrorContains(t, err, "failed to get processable tasks")
	})

	t.Run("begin fails", func(t *testing.T) {
		p, m := newTestPublisher(t)
		m.db.EXPECT().BeginTx(ctx).Return(nil, errors.New("pool closed"))

		assert.ErrorContains(t, p.processBatch(ctx), "failed to begin transaction")
	})
}

func TestPublisher_StartAndShutdown(t *testing.T) {
	p, m := newTestPublisher(t)

	m.db.EXPECT().BeginTx(gomock.Any()).Return(m.tx, nil).AnyTimes()
	m.repo.EXPECT().GetProcessableTasks(gomock.Any(), m.tx, 10).Return(nil, nil).AnyTimes()
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil).AnyTimes()
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	m.producer.EXPECT().Close().Return(nil).Times(1)

	p.Start(context.Background())

	time.Sleep(30 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Shutdown(ctx)
	p.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
}

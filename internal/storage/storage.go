//go:generate mockgen -source ./storage.go -destination=./mocks/storage.go -package=mock_storage
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom/inventory-portal/internal/cache"
	"github.com/stockroom/inventory-portal/internal/db"
	"github.com/stockroom/inventory-portal/internal/repository"
)

type OrderRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error
	CreateManyTx(ctx context.Context, tx db.Tx, orders []*repository.Order) (int, error)
	GetByOrderID(ctx context.Context, orderID string) (*repository.Order, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, orderID, status string) error
	Delete(ctx context.Context, orderID string) error
	ListByStatus(ctx context.Context, status string, limit int) ([]*repository.Order, error)
	GetAllActiveOrders(ctx context.Context) ([]*repository.Order, error)
}

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*repository.Product, error)
	UpdateAvailableQty(ctx context.Context, id string, availableQty int) error
	List(ctx context.Context) ([]*repository.Product, error)
}

type HistoryRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, entry *repository.HistoryEntry) error
	GetByOrderID(ctx context.Context, orderID string) ([]*repository.HistoryEntry, error)
}

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasks(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}

// Storage is the order store used by the import pipeline and the lifecycle
// manager. Every order write runs in one transaction together with its history
// rows and the outbox event describing it.
type Storage struct {
	db          db.DB
	orderRepo   OrderRepository
	productRepo ProductRepository
	historyRepo HistoryRepository
	outboxRepo  OutboxTaskRepository
	cache       *cache.OrderCache
	topic       string
	timeNow     func() time.Time
}

func NewStorage(
	database db.DB,
	orderRepo OrderRepository,
	productRepo ProductRepository,
	historyRepo HistoryRepository,
	outboxRepo OutboxTaskRepository,
	orderCache *cache.OrderCache,
	topic string,
) *Storage {
	return &Storage{
		db:          database,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		historyRepo: historyRepo,
		outboxRepo:  outboxRepo,
		cache:       orderCache,
		topic:       topic,
		timeNow:     time.Now,
	}
}

// WarmCache loads every active order into the cache.
func (s *Storage) WarmCache(ctx context.Context) error {
	return s.cache.LoadInitialData(ctx)
}

func (s *Storage) AddOrder(ctx context.Context, order Order) error {
	repoOrder, err := toRepoOrder(order)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.orderRepo.CreateTx(ctx, tx, repoOrder); err != nil {
		s.rollback(ctx, tx)
		return fmt.Errorf("failed to add order: %w", mapRepoError(err))
	}

	if err := s.addHistory(ctx, tx, order.OrderID, order.OrderStatus); err != nil {
		s.rollback(ctx, tx)
		return err
	}

	event := OrderEvent{Type: EventOrderCreated, OrderIDs: []string{order.OrderID}, Status: order.OrderStatus, Count: 1}
	if err := s.enqueueEvent(ctx, tx, event); err != nil {
		s.rollback(ctx, tx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Set(repoOrder)
	return nil
}

// AddOrders stores orders as one batch. On failure nothing is kept and the
// returned error is a *BulkInsertError.
func (s *Storage) AddOrders(ctx context.Context, orders []Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	bulkErr := func(index int, err error) error {
		return &BulkInsertError{Index: index, Inserted: 0, Failed: len(orders), Err: err}
	}

	repoOrders := make([]*repository.Order, len(orders))
	ids := make([]string, len(orders))
	for i, order := range orders {
		repoOrder, err := toRepoOrder(order)
		if err != nil {
			return 0, bulkErr(i, err)
		}
		repoOrders[i] = repoOrder
		ids[i] = order.OrderID
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, bulkErr(-1, fmt.Errorf("failed to begin transaction: %w", err))
	}

	if n, err := s.orderRepo.CreateManyTx(ctx, tx, repoOrders); err != nil {
		s.rollback(ctx, tx)
		return 0, bulkErr(n, mapRepoError(err))
	}

	for _, order := range orders {
		if err := s.addHistory(ctx, tx, order.OrderID, order.OrderStatus); err != nil {
			s.rollback(ctx, tx)
			return 0, bulkErr(-1, err)
		}
	}

	event := OrderEvent{Type: EventOrdersImported, OrderIDs: ids, Count: len(orders)}
	if err := s.enqueueEvent(ctx, tx, event); err != nil {
		s.rollback(ctx, tx)
		return 0, bulkErr(-1, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, bulkErr(-1, fmt.Errorf("failed to commit transaction: %w", err))
	}

	for _, repoOrder := range repoOrders {
		s.cache.Set(repoOrder)
	}
	return len(orders), nil
}

func (s *Storage) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	repoOrder, found := s.cache.Get(orderID)
	if !found {
		var err error
		repoOrder, err = s.orderRepo.GetByOrderID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
			}
			return nil, fmt.Errorf("failed to get order: %w", err)
		}
		s.cache.Set(repoOrder)
	}

	order, err := fromRepoOrder(repoOrder)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns at most limit orders, newest first. An empty status lists all orders.
func (s *Storage) ListOrders(ctx context.Context, status Status, limit int) ([]Order, error) {
	repoOrders, err := s.orderRepo.ListByStatus(ctx, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return fromRepoOrders(repoOrders)
}

func (s *Storage) ExportOrders(ctx context.Context) ([]Order, error) {
	return s.ListOrders(ctx, "", 0)
}

// UpdateOrderStatus overwrites the status of one order.
func (s *Storage) UpdateOrderStatus(ctx context.Context, orderID string, status Status) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.orderRepo.UpdateStatusTx(ctx, tx, orderID, string(status)); err != nil {
		s.rollback(ctx, tx)
		if errors.Is(err, repository.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return fmt.Errorf("failed to update order: %w", err)
	}

	if err := s.addHistory(ctx, tx, orderID, status); err != nil {
		s.rollback(ctx, tx)
		return err
	}

	event := OrderEvent{Type: EventOrderStatusChanged, OrderIDs: []string{orderID}, Status: status, Count: 1}
	if err := s.enqueueEvent(ctx, tx, event); err != nil {
		s.rollback(ctx, tx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Delete(orderID)
	return nil
}

func (s *Storage) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.cache.Delete(orderID)
	return nil
}

func (s *Storage) GetOrderHistory(ctx context.Context, orderID string) ([]HistoryEntry, error) {
	repoEntries, err := s.historyRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}

	entries := make([]HistoryEntry, len(repoEntries))
	for i, repoEntry := range repoEntries {
		entries[i] = HistoryEntry{
			OrderID:   repoEntry.OrderID,
			Status:    Status(repoEntry.Status),
			ChangedAt: repoEntry.ChangedAt,
		}
	}

	return entries, nil
}

func (s *Storage) GetProduct(ctx context.Context, productID string) (*Product, error) {
	repoProduct, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	product := fromRepoProduct(repoProduct)
	return &product, nil
}

func (s *Storage) ExportProducts(ctx context.Context) ([]Product, error) {
	repoProducts, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]Product, len(repoProducts))
	for i, repoProduct := range repoProducts {
		products[i] = fromRepoProduct(repoProduct)
	}
	return products, nil
}

func (s *Storage) SetAvailableQty(ctx context.Context, productID string, availableQty int) error {
	if err := s.productRepo.UpdateAvailableQty(ctx, productID, availableQty); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return fmt.Errorf("failed to update available quantity: %w", err)
	}
	return nil
}

func (s *Storage) addHistory(ctx context.Context, tx db.Tx, orderID string, status Status) error {
	entry := &repository.HistoryEntry{
		OrderID:   orderID,
		Status:    string(status),
		ChangedAt: s.timeNow().UTC(),
	}
	if err := s.historyRepo.CreateTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to add order history entry: %w", err)
	}
	return nil
}

func (s *Storage) enqueueEvent(ctx context.Context, tx db.Tx, event OrderEvent) error {
	event.Timestamp = s.timeNow().UTC()
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	task := &repository.OutboxTask{Payload: payload, Topic: s.topic}
	if err := s.outboxRepo.CreateTx(ctx, tx, task); err != nil {
		return fmt.Errorf("failed to enqueue order event: %w", err)
	}
	return nil
}

func (s *Storage) rollback(ctx context.Context, tx db.Tx) {
	_ = tx.Rollback(ctx)
}

func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return fmt.Errorf("%w: %w", ErrDuplicateOrderID, err)
	}
	return err
}

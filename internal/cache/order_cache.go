package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/stockroom/inventory-portal/internal/metrics"
	"github.com/stockroom/inventory-portal/internal/repository"
)

type OrderRepository interface {
	GetAllActiveOrders(ctx context.Context) ([]*repository.Order, error)
}

// OrderCache holds orders that are still being fulfilled, keyed by order id.
type OrderCache struct {
	mu     sync.RWMutex
	cache  map[string]*repository.Order
	repo   OrderRepository
	logger *zap.Logger
}

func NewOrderCache(repo OrderRepository, logger *zap.Logger) *OrderCache {
	return &OrderCache{
		cache:  make(map[string]*repository.Order),
		repo:   repo,
		logger: logger.With(zap.String("component", "order_cache")),
	}
}

func (c *OrderCache) LoadInitialData(ctx context.Context) error {
	c.logger.Info("Loading active orders into cache")
	orders, err := c.repo.GetAllActiveOrders(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, order := range orders {
		orderCopy := *order
		c.cache[order.OrderID] = &orderCopy
	}
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("Active orders loaded", zap.Int("count", len(c.cache)))
	return nil
}

func (c *OrderCache) Get(orderID string) (*repository.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, found := c.cache[orderID]
	if !found {
		return nil, false
	}
	orderCopy := *order
	return &orderCopy, true
}

// Set stores an active order and evicts an inactive one.
func (c *OrderCache) Set(order *repository.Order) {
	if !isActiveStatus(order.OrderStatus) {
		c.Delete(order.OrderID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	orderCopy := *order
	c.cache[order.OrderID] = &orderCopy
	metrics.OrderCacheItems.Set(float64(len(c.cache)))
	c.logger.Debug("Cached order", zap.String("order_id", order.OrderID), zap.String("status", order.OrderStatus))
}

func (c *OrderCache) Delete(orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.cache[orderID]; found {
		delete(c.cache, orderID)
		metrics.OrderCacheItems.Set(float64(len(c.cache)))
		c.logger.Debug("Evicted order", zap.String("order_id", orderID))
	}
}

func (c *OrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func isActiveStatus(status string) bool {
	return status == "processing" || status == "ready"
}

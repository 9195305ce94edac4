//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stockroom/inventory-portal/internal/importer"
	"github.com/stockroom/inventory-portal/internal/lifecycle"
	"github.com/stockroom/inventory-portal/internal/metrics"
	"github.com/stockroom/inventory-portal/internal/storage"
)

type Storage interface {
	GetOrder(ctx context.Context, orderID string) (*storage.Order, error)
	ListOrders(ctx context.Context, status storage.Status, limit int) ([]storage.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	GetOrderHistory(ctx context.Context, orderID string) ([]storage.HistoryEntry, error)
	ExportOrders(ctx context.Context) ([]storage.Order, error)
	ExportProducts(ctx context.Context) ([]storage.Product, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, order storage.Order) (storage.Order, error)
}

type ImportQueue interface {
	Submit(upload *importer.Upload) (importer.Job, error)
	Get(id string) (importer.Job, error)
}

type Lifecycle interface {
	SetStatus(ctx context.Context, orderID, status string) error
	ApplyStockDelta(ctx context.Context, items []lifecycle.StockItem) lifecycle.StockReport
}

type Config struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	UploadDir      string
	MaxUploadBytes int64
}

type Server struct {
	storage   Storage
	creator   OrderCreator
	imports   ImportQueue
	lifecycle Lifecycle
	config    Config
	logger    *zap.Logger
	server    *http.Server
}

func New(config Config, storage Storage, creator OrderCreator, imports ImportQueue, lifecycle Lifecycle, logger *zap.Logger) *Server {
	s := &Server{
		storage:   storage,
		creator:   creator,
		imports:   imports,
		lifecycle: lifecycle,
		config:    config,
		logger:    logger.With(zap.String("component", "http")),
	}
	s.server = &http.Server{
		Addr:         ":" + config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server shutdown completed")
	return nil
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/post-order", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/post-orders", s.handleImportOrders).Methods(http.MethodPost)
	api.HandleFunc("/imports/{id}", s.handleGetImport).Methods(http.MethodGet)
	api.HandleFunc("/get-orders/{filterBy}", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/history", s.handleOrderHistory).Methods(http.MethodGet)
	api.HandleFunc("/put-update-order-status/{id}", s.handleUpdateOrderStatus).Methods(http.MethodPut)
	api.HandleFunc("/put-update-available-stock", s.handleUpdateAvailableStock).Methods(http.MethodPut)
	api.HandleFunc("/delete-order/{id}", s.handleDeleteOrder).Methods(http.MethodDelete)
	api.HandleFunc("/order-export", s.handleOrderExport).Methods(http.MethodGet)
	api.HandleFunc("/product-export", s.handleProductExport).Methods(http.MethodGet)

	return r
}

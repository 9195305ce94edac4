package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stockroom/inventory-portal/internal/export"
	"github.com/stockroom/inventory-portal/internal/importer"
	"github.com/stockroom/inventory-portal/internal/lifecycle"
	"github.com/stockroom/inventory-portal/internal/storage"
)

const (
	listOrdersLimit     = 50
	multipartFormMemory = 8 << 20
	uploadField         = "file"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

func respondCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, "inventory portal server is running")
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var order storage.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.creator.CreateOrder(r.Context(), order)
	if err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Order added successfully",
		"order":   created,
	})
}

func (s *Server) handleImportOrders(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	upload, err := importer.SaveUpload(s.config.UploadDir, header.Filename, file)
	if err != nil {
		s.logger.Error("Failed to store upload", zap.String("file", header.Filename), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	job, err := s.imports.Submit(upload)
	if err != nil {
		if errors.Is(err, importer.ErrQueueFull) || errors.Is(err, importer.ErrJobsClosed) {
			respondError(w, http.StatusServiceUnavailable, "Import queue is unavailable, retry later")
			return
		}
		s.logger.Error("Failed to queue import", zap.String("file", header.Filename), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "Import queued",
		"job":     job,
	})
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.imports.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, importer.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "import not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": job})
}

// handleListOrders treats any filter that is not a status as "all".
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status, err := storage.ParseStatus(mux.Vars(r)["filterBy"])
	if err != nil {
		status = ""
	}

	orders, err := s.storage.ListOrders(r.Context(), status, listOrdersLimit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if len(orders) == 0 {
		respondError(w, http.StatusOK, "No orders found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "orders": orders})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.storage.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		s.logger.Error("Failed to get order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "order": order})
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.storage.GetOrderHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.logger.Error("Failed to get order history", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "history": history})
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var statusRequest struct {
		OrderStatus string `json:"orderStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&statusRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := s.lifecycle.SetStatus(r.Context(), mux.Vars(r)["id"], statusRequest.OrderStatus)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "order updated successfully"})
	case errors.Is(err, lifecycle.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, storage.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

type stockResultResponse struct {
	ProductID string `json:"_id"`
	NewQty    int    `json:"availableQty"`
	Error     string `json:"error,omitempty"`
}

// handleUpdateAvailableStock answers 207 when some items failed; the body then
// lists every item's outcome.
func (s *Server) handleUpdateAvailableStock(w http.ResponseWriter, r *http.Request) {
	var stockRequest struct {
		AllProducts []lifecycle.StockItem `json:"allProducts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&stockRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report := s.lifecycle.ApplyStockDelta(r.Context(), stockRequest.AllProducts)
	if err := report.Err(); err != nil {
		results := make([]stockResultResponse, len(report.Results))
		for i, res := range report.Results {
			results[i] = stockResultResponse{ProductID: res.ProductID, NewQty: res.NewQty}
			if res.Err != nil {
				results[i].Error = res.Err.Error()
			}
		}
		respondJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"success": false,
			"message": err.Error(),
			"results": results,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Stock updated successfully"})
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.DeleteOrder(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		s.logger.Error("Failed to delete order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "order deleted successfully"})
}

func (s *Server) handleOrderExport(w http.ResponseWriter, r *http.Request) {
	orders, err := s.storage.ExportOrders(r.Context())
	if err != nil {
		s.logger.Error("Failed to load orders for export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrdersCSV(&buf, orders); err != nil {
		s.logger.Error("Failed to render order export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondCSV(w, export.OrdersFilename, buf.Bytes())
}

func (s *Server) handleProductExport(w http.ResponseWriter, r *http.Request) {
	products, err := s.storage.ExportProducts(r.Context())
	if err != nil {
		s.logger.Error("Failed to load products for export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteProductsCSV(&buf, products); err != nil {
		s.logger.Error("Failed to render product export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondCSV(w, export.ProductsFilename, buf.Bytes())
}

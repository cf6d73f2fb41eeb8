package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/httpx"
	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/services"
)

type SalesOrderHandler struct {
	DB  *gorm.DB
	Svc *services.LifecycleService
}

func NewSalesOrderHandler(db *gorm.DB, svc *services.LifecycleService) *SalesOrderHandler {
	return &SalesOrderHandler{DB: db, Svc: svc}
}

// List: GET /orders
func (h *SalesOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	var total int64
	h.DB.Model(&models.SalesOrder{}).Count(&total)
	var orders []models.SalesOrder
	if err := h.DB.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_orders", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /orders/get?id=N
func (h *SalesOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.GetSalesOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// Create: POST /orders — direct creation without a source quote.
func (h *SalesOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	type itemReq struct {
		ProductID uint    `json:"product_id"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	var req struct {
		CustomerID     uint      `json:"customer_id"`
		ClientPONumber string    `json:"client_po_number"`
		Notes          string    `json:"notes"`
		Items          []itemReq `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.CustomerID == 0 || len(req.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"customer_id": "required", "items": "required"})
		return
	}
	o := &models.SalesOrder{CustomerID: req.CustomerID, ClientPONumber: req.ClientPONumber, Notes: req.Notes}
	for i, it := range req.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"items": "invalid_product_or_quantity"})
			return
		}
		o.Items = append(o.Items, models.SalesOrderItem{ProductID: it.ProductID, OrderedQuantity: it.Quantity, UnitPrice: it.UnitPrice, Position: i})
	}
	created, err := h.Svc.CreateSalesOrder(r.Context(), o)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Cancel: POST /orders/cancel
func (h *SalesOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	o, err := h.Svc.CancelSalesOrder(r.Context(), req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// Delete: POST /orders/delete — removes the order and its delivery orders.
func (h *SalesOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Svc.DeleteSalesOrder(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}

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

type DeliveryOrderHandler struct {
	DB  *gorm.DB
	Svc *services.LifecycleService
}

func NewDeliveryOrderHandler(db *gorm.DB, svc *services.LifecycleService) *DeliveryOrderHandler {
	return &DeliveryOrderHandler{DB: db, Svc: svc}
}

// List: GET /deliveries
func (h *DeliveryOrderHandler) List(w http.ResponseWriter, r *http.Request) {
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
	dbq := h.DB
	if v := r.URL.Query().Get("sales_order_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			dbq = dbq.Where("sales_order_id = ?", n)
		}
	}
	var total int64
	dbq.Model(&models.DeliveryOrder{}).Count(&total)
	var deliveries []models.DeliveryOrder
	if err := dbq.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&deliveries).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_deliveries", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": deliveries, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /deliveries/get?id=N
func (h *DeliveryOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	d, err := h.Svc.GetDeliveryOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// Create: POST /deliveries — draws quantities from a sales order.
func (h *DeliveryOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SalesOrderID uint `json:"sales_order_id"`
		services.DeliveryRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.SalesOrderID == 0 || len(req.Lines) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"sales_order_id": "required", "lines": "required"})
		return
	}
	delivery, order, err := h.Svc.CreateDeliveryOrder(r.Context(), req.SalesOrderID, req.DeliveryRequest)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"delivery": delivery, "order": order})
}

// UpdateStatus: POST /deliveries/status
func (h *DeliveryOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint                       `json:"id"`
		Status models.DeliveryOrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 || req.Status == "" {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	delivery, order, err := h.Svc.UpdateDeliveryOrderStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := map[string]any{"delivery": delivery}
	if order != nil {
		resp["order"] = order
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Delete: POST /deliveries/delete — releases the held quantities.
func (h *DeliveryOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	order, err := h.Svc.DeleteDeliveryOrder(r.Context(), req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": req.ID, "order": order})
}

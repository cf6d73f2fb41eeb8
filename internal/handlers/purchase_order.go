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

type PurchaseOrderHandler struct {
	DB  *gorm.DB
	Svc *services.LifecycleService
}

func NewPurchaseOrderHandler(db *gorm.DB, svc *services.LifecycleService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{DB: db, Svc: svc}
}

// List: GET /purchase-orders
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
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
	h.DB.Model(&models.PurchaseOrder{}).Count(&total)
	var purchases []models.PurchaseOrder
	if err := h.DB.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&purchases).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_purchase_orders", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": purchases, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /purchase-orders/get?id=N
func (h *PurchaseOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Save: POST /purchase-orders — creates when id is absent, replaces a draft otherwise.
func (h *PurchaseOrderHandler) Save(w http.ResponseWriter, r *http.Request) {
	type itemReq struct {
		ProductID uint    `json:"product_id"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	var req struct {
		ID         uint      `json:"id"`
		SupplierID uint      `json:"supplier_id"`
		Notes      string    `json:"notes"`
		Items      []itemReq `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.SupplierID == 0 || len(req.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"supplier_id": "required", "items": "required"})
		return
	}
	p := &models.PurchaseOrder{ID: req.ID, SupplierID: req.SupplierID, Notes: req.Notes}
	for i, it := range req.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"items": "invalid_product_or_quantity"})
			return
		}
		p.Items = append(p.Items, models.PurchaseOrderItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Position: i})
	}
	saved, err := h.Svc.SavePurchaseOrder(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if req.ID != 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, saved)
}

// UpdateStatus: POST /purchase-orders/status
func (h *PurchaseOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint                       `json:"id"`
		Status models.PurchaseOrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 || req.Status == "" {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	p, err := h.Svc.UpdatePurchaseOrderStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Delete: POST /purchase-orders/delete
func (h *PurchaseOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Svc.DeletePurchaseOrder(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}

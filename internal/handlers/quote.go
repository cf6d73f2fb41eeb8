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

type QuoteHandler struct {
	DB  *gorm.DB
	Svc *services.LifecycleService
}

func NewQuoteHandler(db *gorm.DB, svc *services.LifecycleService) *QuoteHandler {
	return &QuoteHandler{DB: db, Svc: svc}
}

// List: GET /quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
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
	h.DB.Model(&models.Quote{}).Count(&total)
	var quotes []models.Quote
	if err := h.DB.Preload("Items").Order("id desc").Limit(limit).Offset(offset).Find(&quotes).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_quotes", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": total, "limit": limit, "offset": offset})
}

// Get: GET /quotes/get?id=N
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.Svc.GetQuote(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// Save: POST /quotes — creates when id is absent, replaces content otherwise.
func (h *QuoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	type itemReq struct {
		ProductID uint    `json:"product_id"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	type saveReq struct {
		ID         uint      `json:"id"`
		CustomerID uint      `json:"customer_id"`
		Notes      string    `json:"notes"`
		Items      []itemReq `json:"items"`
	}
	var req saveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.CustomerID == 0 || len(req.Items) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"customer_id": "required", "items": "required"})
		return
	}
	q := &models.Quote{ID: req.ID, CustomerID: req.CustomerID, Notes: req.Notes}
	for i, it := range req.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"items": "invalid_product_or_quantity"})
			return
		}
		q.Items = append(q.Items, models.QuoteItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Position: i})
	}
	saved, err := h.Svc.SaveQuote(r.Context(), q)
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

// UpdateStatus: POST /quotes/status
func (h *QuoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint               `json:"id"`
		Status models.QuoteStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 || req.Status == "" {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	q, err := h.Svc.UpdateQuoteStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// Convert: POST /quotes/convert — accepted quote into a new sales order.
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID             uint   `json:"id"`
		ClientPONumber string `json:"client_po_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	order, quote, err := h.Svc.CreateSalesOrderFromQuote(r.Context(), req.ID, req.ClientPONumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"order": order, "quote": quote})
}

// Delete: POST /quotes/delete
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Svc.DeleteQuote(r.Context(), req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}

// idParam reads the id query parameter shared by the /get endpoints.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	v := r.URL.Query().Get("id")
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(n), true
}

package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/httpx"
	"github.com/opscore/orderflow/internal/models"
)

// CatalogHandler serves the reference entities document lines point at.
type CatalogHandler struct {
	DB *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler { return &CatalogHandler{DB: db} }

func (h *CatalogHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	var customers []models.Customer
	if err := h.DB.Order("name").Find(&customers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_customers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *CatalogHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	c.ID = 0
	if err := h.DB.Create(&c).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_customer", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	if err := h.DB.Order("name").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	p.ID = 0
	if err := h.DB.Create(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_product", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	var suppliers []models.Supplier
	if err := h.DB.Order("name").Find(&suppliers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_suppliers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var s models.Supplier
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil || s.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	s.ID = 0
	if err := h.DB.Create(&s).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_supplier", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/config"
	"github.com/opscore/orderflow/internal/db"
	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/services"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedNumbering(conn, config.DefaultNumbering()); err != nil {
		t.Fatalf("seed numbering: %v", err)
	}
	return conn
}

func seedHandlerFixtures(t *testing.T, conn *gorm.DB) (models.Customer, models.Product) {
	t.Helper()
	customer := models.Customer{Name: "Acme"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	product := models.Product{Code: "SKU1", Name: "Widget", UnitPrice: 10}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return customer, product
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestQuoteCreateListAndConvert(t *testing.T) {
	conn := setupHandlerTestDB(t)
	customer, product := seedHandlerFixtures(t, conn)
	svc := services.NewLifecycleService(conn)
	qh := NewQuoteHandler(conn, svc)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":100,"unit_price":10}]}`, customer.ID, product.ID)
	w := postJSON(t, qh.Save, "/quotes", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Quote
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.QuoteNumber != "QT-1" || created.Status != models.QuoteStatusDraft {
		t.Fatalf("created quote: %+v", created)
	}

	// List
	listReq := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	listW := httptest.NewRecorder()
	qh.List(listW, listReq)
	if listW.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", listW.Code)
	}
	var list struct {
		Items []models.Quote `json:"items"`
		Total int64          `json:"total"`
	}
	if err := json.Unmarshal(listW.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("list: %+v", list)
	}

	// Converting a draft quote is rejected with invalid_source_state.
	w = postJSON(t, qh.Convert, "/quotes/convert", fmt.Sprintf(`{"id":%d}`, created.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "invalid_source_state") {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}

	// Walk to accepted, then convert.
	for _, status := range []models.QuoteStatus{models.QuoteStatusSent, models.QuoteStatusAccepted} {
		w = postJSON(t, qh.UpdateStatus, "/quotes/status", fmt.Sprintf(`{"id":%d,"status":"%s"}`, created.ID, status))
		if w.Code != http.StatusOK {
			t.Fatalf("status %s: got %d body=%s", status, w.Code, w.Body.String())
		}
	}
	w = postJSON(t, qh.Convert, "/quotes/convert", fmt.Sprintf(`{"id":%d,"client_po_number":"PO-55"}`, created.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("convert: got %d body=%s", w.Code, w.Body.String())
	}
	var conv struct {
		Order models.SalesOrder `json:"order"`
		Quote models.Quote      `json:"quote"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode convert: %v", err)
	}
	if conv.Order.OrderNumber != "SO-1" || conv.Quote.Status != models.QuoteStatusConverted {
		t.Fatalf("conversion payload: %+v", conv)
	}
}

func TestDeliveryOverDeliveryViaHandlers(t *testing.T) {
	conn := setupHandlerTestDB(t)
	customer, product := seedHandlerFixtures(t, conn)
	svc := services.NewLifecycleService(conn)
	oh := NewSalesOrderHandler(conn, svc)
	dh := NewDeliveryOrderHandler(conn, svc)

	body := fmt.Sprintf(`{"customer_id":%d,"items":[{"product_id":%d,"quantity":100,"unit_price":10}]}`, customer.ID, product.ID)
	w := postJSON(t, oh.Create, "/orders", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: got %d body=%s", w.Code, w.Body.String())
	}
	var order models.SalesOrder
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	lineID := order.Items[0].ID

	w = postJSON(t, dh.Create, "/deliveries", fmt.Sprintf(
		`{"sales_order_id":%d,"lines":[{"sales_order_item_id":%d,"quantity":60}],"shipping_address":"1 Dock Road"}`, order.ID, lineID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create delivery: got %d body=%s", w.Code, w.Body.String())
	}

	w = postJSON(t, dh.Create, "/deliveries", fmt.Sprintf(
		`{"sales_order_id":%d,"lines":[{"sales_order_item_id":%d,"quantity":50}]}`, order.ID, lineID))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "over_delivery") {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}
}

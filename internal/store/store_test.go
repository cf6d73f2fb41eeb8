package store

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/config"
	"github.com/opscore/orderflow/internal/db"
	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/services"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
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
	return New(services.NewLifecycleService(conn)), conn
}

func seedCustomer(t *testing.T, conn *gorm.DB) models.Customer {
	t.Helper()
	c := models.Customer{Name: "Acme"}
	if err := conn.Create(&c).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	return c
}

func draftQuote(customerID uint) *models.Quote {
	return &models.Quote{
		CustomerID: customerID,
		Items:      []models.QuoteItem{{ProductID: 1, Quantity: 100, UnitPrice: 10}},
	}
}

func TestSaveQuoteUpsertSemantics(t *testing.T) {
	s, conn := setupStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, conn)

	// Three new quotes append in order.
	for i := 0; i < 3; i++ {
		if err := s.SaveQuote(ctx, draftQuote(customer.ID)); err != nil {
			t.Fatalf("save quote %d: %v", i, err)
		}
	}
	quotes := s.Quotes()
	if len(quotes) != 3 {
		t.Fatalf("cached quotes: got %d want 3", len(quotes))
	}
	if s.Loading() {
		t.Fatal("loading still set after save")
	}

	// Updating the middle entry replaces it in place.
	middle := quotes[1]
	update := &models.Quote{
		ID:         middle.ID,
		CustomerID: customer.ID,
		Items:      []models.QuoteItem{{ProductID: 1, Quantity: 42, UnitPrice: 10}},
	}
	if err := s.SaveQuote(ctx, update); err != nil {
		t.Fatalf("update quote: %v", err)
	}
	after := s.Quotes()
	if len(after) != 3 {
		t.Fatalf("upsert duplicated an entry: %d", len(after))
	}
	if after[0].ID != quotes[0].ID || after[1].ID != middle.ID || after[2].ID != quotes[2].ID {
		t.Fatalf("order not preserved: %v", []uint{after[0].ID, after[1].ID, after[2].ID})
	}
	if after[1].Items[0].Quantity != 42 {
		t.Fatalf("middle entry not replaced: %+v", after[1].Items)
	}
}

func TestFailureLeavesCacheUntouched(t *testing.T) {
	s, conn := setupStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, conn)

	if err := s.SaveQuote(ctx, draftQuote(customer.ID)); err != nil {
		t.Fatalf("save quote: %v", err)
	}
	before := s.Quotes()

	// Converting a draft quote is rejected by the engine.
	if err := s.CreateSalesOrderFromQuote(ctx, before[0].ID, "PO-1"); err == nil {
		t.Fatal("expected conversion failure")
	}
	if s.Err() == "" {
		t.Fatal("error not recorded")
	}
	if s.Loading() {
		t.Fatal("loading still set after failure")
	}
	if len(s.SalesOrders()) != 0 {
		t.Fatalf("sales order cached despite failure")
	}
	after := s.Quotes()
	if len(after) != len(before) || after[0].Status != before[0].Status {
		t.Fatalf("quote cache changed on failure: %+v", after)
	}

	// The next successful operation clears the error.
	if err := s.FetchQuotes(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if s.Err() != "" {
		t.Fatalf("error not cleared: %q", s.Err())
	}
}

func TestConversionAndDeliveryPatchCollections(t *testing.T) {
	s, conn := setupStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, conn)

	if err := s.SaveQuote(ctx, draftQuote(customer.ID)); err != nil {
		t.Fatalf("save quote: %v", err)
	}
	quoteID := s.Quotes()[0].ID
	if err := s.UpdateQuoteStatus(ctx, quoteID, models.QuoteStatusSent); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.UpdateQuoteStatus(ctx, quoteID, models.QuoteStatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := s.CreateSalesOrderFromQuote(ctx, quoteID, "PO-55"); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got := s.Quotes()[0].Status; got != models.QuoteStatusConverted {
		t.Fatalf("cached quote status: %s", got)
	}
	orders := s.SalesOrders()
	if len(orders) != 1 || orders[0].Status != models.SalesOrderStatusOpen {
		t.Fatalf("cached orders: %+v", orders)
	}

	lineID := orders[0].Items[0].ID
	if err := s.CreateDeliveryOrder(ctx, orders[0].ID, services.DeliveryRequest{
		Lines: []services.DeliveryLine{{SalesOrderItemID: lineID, Quantity: 60}},
	}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(s.DeliveryOrders()) != 1 {
		t.Fatalf("delivery not cached")
	}
	if got := s.SalesOrders()[0].Status; got != models.SalesOrderStatusPartiallyDelivered {
		t.Fatalf("cached order status not patched: %s", got)
	}

	deliveryID := s.DeliveryOrders()[0].ID
	if err := s.DeleteDeliveryOrder(ctx, deliveryID); err != nil {
		t.Fatalf("delete delivery: %v", err)
	}
	if len(s.DeliveryOrders()) != 0 {
		t.Fatalf("delivery not removed from cache")
	}
	if got := s.SalesOrders()[0].Status; got != models.SalesOrderStatusOpen {
		t.Fatalf("cached order status after delete: %s", got)
	}
}

func TestDeleteSalesOrderPatchesDeliveries(t *testing.T) {
	s, conn := setupStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, conn)

	svc := services.NewLifecycleService(conn)
	order, err := svc.CreateSalesOrder(ctx, &models.SalesOrder{
		CustomerID: customer.ID,
		Items:      []models.SalesOrderItem{{ProductID: 1, OrderedQuantity: 10, UnitPrice: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, _, err := svc.CreateDeliveryOrder(ctx, order.ID, services.DeliveryRequest{
		Lines: []services.DeliveryLine{{SalesOrderItemID: order.Items[0].ID, Quantity: 5}},
	}); err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	if err := s.FetchSalesOrders(ctx); err != nil {
		t.Fatalf("fetch orders: %v", err)
	}
	if err := s.FetchDeliveryOrders(ctx); err != nil {
		t.Fatalf("fetch deliveries: %v", err)
	}

	if err := s.DeleteSalesOrder(ctx, order.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if len(s.SalesOrders()) != 0 {
		t.Fatalf("order still cached")
	}
	if len(s.DeliveryOrders()) != 0 {
		t.Fatalf("orphaned deliveries still cached")
	}
}

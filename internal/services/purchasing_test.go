package services

import (
	"context"
	"errors"
	"testing"

	"github.com/opscore/orderflow/internal/models"
)

func TestPurchaseOrderLifecycle(t *testing.T) {
	conn := setupServiceTestDB(t)
	lc := NewLifecycleService(conn)
	ctx := context.Background()

	supplier := models.Supplier{Name: "Mill & Co"}
	if err := conn.Create(&supplier).Error; err != nil {
		t.Fatalf("supplier: %v", err)
	}

	p, err := lc.SavePurchaseOrder(ctx, &models.PurchaseOrder{
		SupplierID: supplier.ID,
		Items:      []models.PurchaseOrderItem{{ProductID: 1, Quantity: 25, UnitPrice: 4}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.PoNumber != "PO-1" || p.Status != models.PurchaseOrderStatusDraft {
		t.Fatalf("new purchase order: %+v", p)
	}

	// Draft may be edited.
	if _, err := lc.SavePurchaseOrder(ctx, &models.PurchaseOrder{
		ID:         p.ID,
		SupplierID: supplier.ID,
		Items:      []models.PurchaseOrderItem{{ProductID: 1, Quantity: 30, UnitPrice: 4}},
	}); err != nil {
		t.Fatalf("edit draft: %v", err)
	}

	if _, err := lc.UpdatePurchaseOrderStatus(ctx, p.ID, models.PurchaseOrderStatusSent); err != nil {
		t.Fatalf("draft -> sent: %v", err)
	}

	// Sent orders are frozen and cannot be deleted.
	var se *SourceStateError
	if _, err := lc.SavePurchaseOrder(ctx, &models.PurchaseOrder{ID: p.ID, SupplierID: supplier.ID, Items: p.Items}); !errors.As(err, &se) {
		t.Fatalf("expected SourceStateError editing sent order, got %v", err)
	}
	if err := lc.DeletePurchaseOrder(ctx, p.ID); !errors.As(err, &se) {
		t.Fatalf("expected SourceStateError deleting sent order, got %v", err)
	}

	// Sent -> received is terminal.
	if _, err := lc.UpdatePurchaseOrderStatus(ctx, p.ID, models.PurchaseOrderStatusReceived); err != nil {
		t.Fatalf("sent -> received: %v", err)
	}
	var te *TransitionError
	if _, err := lc.UpdatePurchaseOrderStatus(ctx, p.ID, models.PurchaseOrderStatusCancelled); !errors.As(err, &te) {
		t.Fatalf("expected TransitionError out of received, got %v", err)
	}
}

func TestPurchaseOrderDeleteDraft(t *testing.T) {
	conn := setupServiceTestDB(t)
	lc := NewLifecycleService(conn)
	ctx := context.Background()

	supplier := models.Supplier{Name: "Mill & Co"}
	if err := conn.Create(&supplier).Error; err != nil {
		t.Fatalf("supplier: %v", err)
	}
	p, err := lc.SavePurchaseOrder(ctx, &models.PurchaseOrder{
		SupplierID: supplier.ID,
		Items:      []models.PurchaseOrderItem{{ProductID: 1, Quantity: 5, UnitPrice: 2}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := lc.DeletePurchaseOrder(ctx, p.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	var count int64
	conn.Model(&models.PurchaseOrderItem{}).Count(&count)
	if count != 0 {
		t.Fatalf("orphaned purchase lines: %d", count)
	}
}

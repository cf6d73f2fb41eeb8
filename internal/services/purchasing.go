package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/metrics"
	"github.com/opscore/orderflow/internal/models"
)

// Purchase orders follow the same pattern as sales documents: their own
// numbering scheme, a small state machine, edits only in draft.

func (s *LifecycleService) GetPurchaseOrder(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	return s.purchases.Get(ctx, id)
}

func (s *LifecycleService) ListPurchaseOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	return s.purchases.List(ctx)
}

// SavePurchaseOrder creates the order (drawing a PO number) or replaces the
// content of a draft one.
func (s *LifecycleService) SavePurchaseOrder(ctx context.Context, p *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.ID == 0 {
			number, err := s.numbering.AllocateTx(tx, models.DocTypePurchaseOrder)
			if err != nil {
				return err
			}
			p.PoNumber = number
			if p.Status == "" {
				p.Status = models.PurchaseOrderStatusDraft
			}
			if err := s.purchases.WithTx(tx).Create(ctx, p); err != nil {
				return err
			}
			metrics.DocumentsCreated.WithLabelValues(string(models.DocTypePurchaseOrder)).Inc()
			return nil
		}
		existing, err := s.purchases.WithTx(tx).Get(ctx, p.ID)
		if err != nil {
			return err
		}
		if !existing.CanEdit() {
			return &SourceStateError{Document: "purchase order", Status: string(existing.Status)}
		}
		p.PoNumber = existing.PoNumber
		p.Status = existing.Status
		if err := tx.Where("purchase_order_id = ?", p.ID).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
			return fmt.Errorf("replace purchase lines: %w", err)
		}
		for i := range p.Items {
			p.Items[i].ID = 0
			p.Items[i].PurchaseOrderID = p.ID
		}
		return s.purchases.WithTx(tx).Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePurchaseOrderStatus applies one legal procurement transition.
func (s *LifecycleService) UpdatePurchaseOrderStatus(ctx context.Context, id uint, next models.PurchaseOrderStatus) (*models.PurchaseOrder, error) {
	p, err := s.purchases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(purchaseTransitions, p.Status, next) {
		metrics.IllegalTransitions.Inc()
		return nil, &TransitionError{Document: "purchase order", From: string(p.Status), To: string(next)}
	}
	if err := s.db.WithContext(ctx).Model(p).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("update purchase order status: %w", err)
	}
	p.Status = next
	return p, nil
}

// DeletePurchaseOrder removes a draft purchase order.
func (s *LifecycleService) DeletePurchaseOrder(ctx context.Context, id uint) error {
	p, err := s.purchases.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != models.PurchaseOrderStatusDraft {
		return &SourceStateError{Document: "purchase order", Status: string(p.Status)}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
			return fmt.Errorf("delete purchase lines: %w", err)
		}
		return s.purchases.WithTx(tx).Delete(ctx, id)
	})
}

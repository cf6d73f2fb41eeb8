package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/metrics"
	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/repository"
)

// DeliveryLine requests a quantity against one sales-order line.
type DeliveryLine struct {
	SalesOrderItemID uint    `json:"sales_order_item_id"`
	Quantity         float64 `json:"quantity"`
}

// DeliveryRequest is the input to CreateDeliveryOrder.
type DeliveryRequest struct {
	Lines           []DeliveryLine `json:"lines"`
	ShippingAddress string         `json:"shipping_address"`
	ContactName     string         `json:"contact_name"`
	ContactPhone    string         `json:"contact_phone"`
}

// CreateDeliveryOrder creates a draft delivery order against a sales order
// and consumes the requested quantities from its lines. The delivery write
// and the quantity updates are one transaction.
//
// The over-delivery check runs twice: once against the rows read inside the
// transaction (to produce a precise error), and again as a guard on the
// UPDATE itself, so two concurrent deliveries racing past the first check
// cannot jointly exceed a line's ordered quantity.
func (s *LifecycleService) CreateDeliveryOrder(ctx context.Context, salesOrderID uint, req DeliveryRequest) (*models.DeliveryOrder, *models.SalesOrder, error) {
	if len(req.Lines) == 0 {
		return nil, nil, fmt.Errorf("delivery request has no lines")
	}
	var delivery *models.DeliveryOrder
	var order *models.SalesOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.orders.WithTx(tx).Get(ctx, salesOrderID)
		if err != nil {
			return err
		}
		if o.Status == models.SalesOrderStatusCancelled {
			return &SourceStateError{Document: "sales order", Status: string(o.Status)}
		}
		itemsByID := make(map[uint]*models.SalesOrderItem, len(o.Items))
		for i := range o.Items {
			itemsByID[o.Items[i].ID] = &o.Items[i]
		}
		d := &models.DeliveryOrder{
			Status:          models.DeliveryOrderStatusDraft,
			SalesOrderID:    o.ID,
			ShippingAddress: req.ShippingAddress,
			ContactName:     req.ContactName,
			ContactPhone:    req.ContactPhone,
		}
		for _, line := range req.Lines {
			item, ok := itemsByID[line.SalesOrderItemID]
			if !ok {
				return fmt.Errorf("sales order line %d: %w", line.SalesOrderItemID, repository.ErrNotFound)
			}
			if line.Quantity <= 0 {
				return fmt.Errorf("sales order line %d: quantity must be positive", line.SalesOrderItemID)
			}
			if line.Quantity > item.Remaining() {
				metrics.OverDeliveryRejections.Inc()
				return &OverDeliveryError{
					SalesOrderItemID: item.ID,
					Requested:        line.Quantity,
					Remaining:        item.Remaining(),
				}
			}
			d.Items = append(d.Items, models.DeliveryOrderItem{
				SalesOrderItemID: item.ID,
				ProductID:        item.ProductID,
				Quantity:         line.Quantity,
			})
		}
		number, err := s.numbering.AllocateTx(tx, models.DocTypeDeliveryOrder)
		if err != nil {
			return err
		}
		d.DeliveryNumber = number
		if err := s.deliveries.WithTx(tx).Create(ctx, d); err != nil {
			return err
		}
		for _, line := range req.Lines {
			if err := s.consumeQuantity(tx, line.SalesOrderItemID, line.Quantity); err != nil {
				return err
			}
		}
		updated, err := s.refreshOrderStatus(tx, o)
		if err != nil {
			return err
		}
		delivery, order = d, updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.DocumentsCreated.WithLabelValues(string(models.DocTypeDeliveryOrder)).Inc()
	metrics.Conversions.WithLabelValues("sales_order_to_delivery_order").Inc()
	return delivery, order, nil
}

// consumeQuantity adds qty to a line's delivered quantity with the invariant
// enforced in the UPDATE's predicate. Zero rows affected means another
// transaction consumed the remaining quantity first.
func (s *LifecycleService) consumeQuantity(tx *gorm.DB, itemID uint, qty float64) error {
	res := tx.Model(&models.SalesOrderItem{}).
		Where("id = ? AND delivered_quantity + ? <= ordered_quantity", itemID, qty).
		UpdateColumn("delivered_quantity", gorm.Expr("delivered_quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("consume quantity on line %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.OverDeliveryRejections.Inc()
		var item models.SalesOrderItem
		if err := tx.First(&item, itemID).Error; err != nil {
			return fmt.Errorf("reload line %d: %w", itemID, err)
		}
		return &OverDeliveryError{
			SalesOrderItemID: itemID,
			Requested:        qty,
			Remaining:        item.Remaining(),
		}
	}
	return nil
}

// releaseQuantity reverses a delivery line's contribution.
func (s *LifecycleService) releaseQuantity(tx *gorm.DB, itemID uint, qty float64) error {
	res := tx.Model(&models.SalesOrderItem{}).
		Where("id = ?", itemID).
		UpdateColumn("delivered_quantity", gorm.Expr("delivered_quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("release quantity on line %d: %w", itemID, res.Error)
	}
	return nil
}

// refreshOrderStatus re-reads the order's lines and persists the derived
// aggregate status.
func (s *LifecycleService) refreshOrderStatus(tx *gorm.DB, o *models.SalesOrder) (*models.SalesOrder, error) {
	var items []models.SalesOrderItem
	if err := tx.Where("sales_order_id = ?", o.ID).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("reload order lines: %w", err)
	}
	o.Items = items
	next := o.DeliveryStatus()
	if next != o.Status {
		if err := tx.Model(o).Update("status", next).Error; err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		o.Status = next
	}
	return o, nil
}

// DeleteDeliveryOrder removes a delivery order and hands its quantities back
// to the parent sales order, whose status is recomputed in the same
// transaction. Returns the updated sales order.
func (s *LifecycleService) DeleteDeliveryOrder(ctx context.Context, id uint) (*models.SalesOrder, error) {
	var order *models.SalesOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.deliveries.WithTx(tx).Get(ctx, id)
		if err != nil {
			return err
		}
		o, err := s.orders.WithTx(tx).Get(ctx, d.SalesOrderID)
		if err != nil {
			return err
		}
		if d.CountsAgainstOrder() {
			for _, it := range d.Items {
				if err := s.releaseQuantity(tx, it.SalesOrderItemID, it.Quantity); err != nil {
					return err
				}
			}
		}
		if err := tx.Where("delivery_order_id = ?", id).Delete(&models.DeliveryOrderItem{}).Error; err != nil {
			return fmt.Errorf("delete delivery lines: %w", err)
		}
		if err := s.deliveries.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		order, err = s.refreshOrderStatus(tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateDeliveryOrderStatus applies one legal shipping transition.
// Cancelling releases the held quantities, exactly like deletion, but keeps
// the document on record.
func (s *LifecycleService) UpdateDeliveryOrderStatus(ctx context.Context, id uint, next models.DeliveryOrderStatus) (*models.DeliveryOrder, *models.SalesOrder, error) {
	var delivery *models.DeliveryOrder
	var order *models.SalesOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := s.deliveries.WithTx(tx).Get(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(deliveryTransitions, d.Status, next) {
			metrics.IllegalTransitions.Inc()
			return &TransitionError{Document: "delivery order", From: string(d.Status), To: string(next)}
		}
		if next == models.DeliveryOrderStatusCancelled {
			o, err := s.orders.WithTx(tx).Get(ctx, d.SalesOrderID)
			if err != nil {
				return err
			}
			for _, it := range d.Items {
				if err := s.releaseQuantity(tx, it.SalesOrderItemID, it.Quantity); err != nil {
					return err
				}
			}
			if order, err = s.refreshOrderStatus(tx, o); err != nil {
				return err
			}
		}
		if err := tx.Model(d).Update("status", next).Error; err != nil {
			return fmt.Errorf("update delivery status: %w", err)
		}
		d.Status = next
		delivery = d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return delivery, order, nil
}

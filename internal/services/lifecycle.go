package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/metrics"
	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/repository"
)

// LifecycleService owns every rule about document statuses and conversions.
// Callers (handlers, the client state store) never change a status or a
// derived quantity themselves. Two-write operations — a conversion plus the
// source status flip, a delivery plus the consumed quantities — run inside
// one database transaction so a partial result is never observable.
type LifecycleService struct {
	db        *gorm.DB
	numbering *NumberingService

	quotes     *repository.Repository[models.Quote]
	orders     *repository.Repository[models.SalesOrder]
	deliveries *repository.Repository[models.DeliveryOrder]
	purchases  *repository.Repository[models.PurchaseOrder]
}

func NewLifecycleService(db *gorm.DB) *LifecycleService {
	return &LifecycleService{
		db:         db,
		numbering:  NewNumberingService(db),
		quotes:     repository.New[models.Quote](db),
		orders:     repository.New[models.SalesOrder](db),
		deliveries: repository.New[models.DeliveryOrder](db),
		purchases:  repository.New[models.PurchaseOrder](db),
	}
}

// --- Reads ---

func (s *LifecycleService) GetQuote(ctx context.Context, id uint) (*models.Quote, error) {
	return s.quotes.Get(ctx, id)
}

func (s *LifecycleService) ListQuotes(ctx context.Context) ([]models.Quote, error) {
	return s.quotes.List(ctx)
}

func (s *LifecycleService) GetSalesOrder(ctx context.Context, id uint) (*models.SalesOrder, error) {
	return s.orders.Get(ctx, id)
}

func (s *LifecycleService) ListSalesOrders(ctx context.Context) ([]models.SalesOrder, error) {
	return s.orders.List(ctx)
}

func (s *LifecycleService) GetDeliveryOrder(ctx context.Context, id uint) (*models.DeliveryOrder, error) {
	return s.deliveries.Get(ctx, id)
}

func (s *LifecycleService) ListDeliveryOrders(ctx context.Context) ([]models.DeliveryOrder, error) {
	return s.deliveries.List(ctx)
}

// --- Quotes ---

// SaveQuote creates the quote (drawing a quote number) or replaces the
// content of an existing one. Quote number and status are immutable here;
// status moves only through UpdateQuoteStatus or conversion.
func (s *LifecycleService) SaveQuote(ctx context.Context, q *models.Quote) (*models.Quote, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if q.ID == 0 {
			number, err := s.numbering.AllocateTx(tx, models.DocTypeQuote)
			if err != nil {
				return err
			}
			q.QuoteNumber = number
			if q.Status == "" {
				q.Status = models.QuoteStatusDraft
			}
			if err := s.quotes.WithTx(tx).Create(ctx, q); err != nil {
				return err
			}
			metrics.DocumentsCreated.WithLabelValues(string(models.DocTypeQuote)).Inc()
			return nil
		}
		existing, err := s.quotes.WithTx(tx).Get(ctx, q.ID)
		if err != nil {
			return err
		}
		if !existing.CanEdit() {
			return &SourceStateError{Document: "quote", Status: string(existing.Status)}
		}
		q.QuoteNumber = existing.QuoteNumber
		q.Status = existing.Status
		// Replace the line set wholesale; ids are reissued.
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return fmt.Errorf("replace quote lines: %w", err)
		}
		for i := range q.Items {
			q.Items[i].ID = 0
			q.Items[i].QuoteID = q.ID
		}
		return s.quotes.WithTx(tx).Save(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuoteStatus applies one legal transition. Converted is reachable
// only through CreateSalesOrderFromQuote, never by direct status update.
func (s *LifecycleService) UpdateQuoteStatus(ctx context.Context, id uint, next models.QuoteStatus) (*models.Quote, error) {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if next == models.QuoteStatusConverted || !canTransition(quoteTransitions, q.Status, next) {
		metrics.IllegalTransitions.Inc()
		return nil, &TransitionError{Document: "quote", From: string(q.Status), To: string(next)}
	}
	if err := s.db.WithContext(ctx).Model(q).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("update quote status: %w", err)
	}
	q.Status = next
	return q, nil
}

// DeleteQuote removes a quote that has not reached a terminal status.
// Converted, rejected and expired quotes stay on record.
func (s *LifecycleService) DeleteQuote(ctx context.Context, id uint) error {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return err
	}
	if q.IsTerminal() {
		return &SourceStateError{Document: "quote", Status: string(q.Status)}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteItem{}).Error; err != nil {
			return fmt.Errorf("delete quote lines: %w", err)
		}
		return s.quotes.WithTx(tx).Delete(ctx, id)
	})
}

// --- Sales orders ---

// CreateSalesOrder creates an order with no source quote.
func (s *LifecycleService) CreateSalesOrder(ctx context.Context, o *models.SalesOrder) (*models.SalesOrder, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbering.AllocateTx(tx, models.DocTypeSalesOrder)
		if err != nil {
			return err
		}
		o.OrderNumber = number
		o.Status = models.SalesOrderStatusOpen
		o.SourceQuoteID = nil
		for i := range o.Items {
			o.Items[i].DeliveredQuantity = 0
		}
		return s.orders.WithTx(tx).Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	metrics.DocumentsCreated.WithLabelValues(string(models.DocTypeSalesOrder)).Inc()
	return o, nil
}

// CreateSalesOrderFromQuote converts an accepted quote into an open sales
// order, copying lines verbatim. The order creation and the quote's flip to
// converted commit together; on any failure the quote is untouched and the
// whole conversion can be retried.
func (s *LifecycleService) CreateSalesOrderFromQuote(ctx context.Context, quoteID uint, clientPONumber string) (*models.SalesOrder, *models.Quote, error) {
	var order *models.SalesOrder
	var quote *models.Quote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := s.quotes.WithTx(tx).Get(ctx, quoteID)
		if err != nil {
			return err
		}
		if q.Status != models.QuoteStatusAccepted {
			return &SourceStateError{Document: "quote", Status: string(q.Status)}
		}
		number, err := s.numbering.AllocateTx(tx, models.DocTypeSalesOrder)
		if err != nil {
			return err
		}
		o := &models.SalesOrder{
			OrderNumber:    number,
			Status:         models.SalesOrderStatusOpen,
			SourceQuoteID:  &q.ID,
			ClientPONumber: clientPONumber,
			CustomerID:     q.CustomerID,
		}
		for _, it := range q.Items {
			o.Items = append(o.Items, models.SalesOrderItem{
				ProductID:       it.ProductID,
				OrderedQuantity: it.Quantity,
				UnitPrice:       it.UnitPrice,
				Position:        it.Position,
			})
		}
		if err := s.orders.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}
		if err := tx.Model(q).Update("status", models.QuoteStatusConverted).Error; err != nil {
			return fmt.Errorf("mark quote converted: %w", err)
		}
		q.Status = models.QuoteStatusConverted
		order, quote = o, q
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.DocumentsCreated.WithLabelValues(string(models.DocTypeSalesOrder)).Inc()
	metrics.Conversions.WithLabelValues("quote_to_sales_order").Inc()
	return order, quote, nil
}

// DeleteSalesOrder removes the order together with its delivery orders.
// A source quote keeps its converted status; there is no reversal path.
func (s *LifecycleService) DeleteSalesOrder(ctx context.Context, id uint) error {
	if _, err := s.orders.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deliveries []models.DeliveryOrder
		if err := tx.Where("sales_order_id = ?", id).Find(&deliveries).Error; err != nil {
			return fmt.Errorf("load delivery orders: %w", err)
		}
		for _, d := range deliveries {
			if err := tx.Where("delivery_order_id = ?", d.ID).Delete(&models.DeliveryOrderItem{}).Error; err != nil {
				return fmt.Errorf("delete delivery lines: %w", err)
			}
		}
		if err := tx.Where("sales_order_id = ?", id).Delete(&models.DeliveryOrder{}).Error; err != nil {
			return fmt.Errorf("delete delivery orders: %w", err)
		}
		if err := tx.Where("sales_order_id = ?", id).Delete(&models.SalesOrderItem{}).Error; err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		return s.orders.WithTx(tx).Delete(ctx, id)
	})
}

// CancelSalesOrder cancels an order no delivery order still counts against.
func (s *LifecycleService) CancelSalesOrder(ctx context.Context, id uint) (*models.SalesOrder, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == models.SalesOrderStatusCancelled {
		metrics.IllegalTransitions.Inc()
		return nil, &TransitionError{Document: "sales order", From: string(o.Status), To: string(models.SalesOrderStatusCancelled)}
	}
	var active int64
	if err := s.db.WithContext(ctx).Model(&models.DeliveryOrder{}).
		Where("sales_order_id = ? AND status <> ?", id, models.DeliveryOrderStatusCancelled).
		Count(&active).Error; err != nil {
		return nil, fmt.Errorf("count delivery orders: %w", err)
	}
	if active > 0 {
		metrics.IllegalTransitions.Inc()
		return nil, &TransitionError{Document: "sales order", From: string(o.Status), To: string(models.SalesOrderStatusCancelled)}
	}
	if err := s.db.WithContext(ctx).Model(o).Update("status", models.SalesOrderStatusCancelled).Error; err != nil {
		return nil, fmt.Errorf("cancel sales order: %w", err)
	}
	o.Status = models.SalesOrderStatusCancelled
	return o, nil
}

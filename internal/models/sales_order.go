package models

import "time"

// SalesOrderStatus represents the fulfillment state of a sales order.
type SalesOrderStatus string

const (
	SalesOrderStatusOpen               SalesOrderStatus = "open"
	SalesOrderStatusPartiallyDelivered SalesOrderStatus = "partially_delivered"
	SalesOrderStatusFullyDelivered     SalesOrderStatus = "fully_delivered"
	SalesOrderStatusCancelled          SalesOrderStatus = "cancelled"
)

// SalesOrder authorizes delivery of goods to a customer. It may originate
// from an accepted quote (SourceQuoteID set) or be created directly.
type SalesOrder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderNumber string           `gorm:"size:50;uniqueIndex;not null" json:"order_number"`
	Status      SalesOrderStatus `gorm:"size:30;default:'open'" json:"status"`

	// SourceQuoteID is a back-reference only; deleting the order never
	// reverts the quote's converted status.
	SourceQuoteID *uint  `gorm:"index" json:"source_quote_id,omitempty"`
	SourceQuote   *Quote `gorm:"foreignKey:SourceQuoteID" json:"source_quote,omitempty"`

	ClientPONumber string `gorm:"size:100" json:"client_po_number,omitempty"`

	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Items []SalesOrderItem `gorm:"foreignKey:SalesOrderID" json:"items,omitempty"`
}

// SalesOrderItem carries the ordered quantity plus the running total already
// committed to delivery orders. DeliveredQuantity is derived state, only ever
// recomputed by the lifecycle service inside the same transaction that
// creates or removes a delivery order.
type SalesOrderItem struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	SalesOrderID uint `gorm:"index;not null" json:"sales_order_id"`
	ProductID    uint `gorm:"not null" json:"product_id"`

	OrderedQuantity   float64 `gorm:"not null" json:"ordered_quantity"`
	DeliveredQuantity float64 `gorm:"not null;default:0" json:"delivered_quantity"`
	UnitPrice         float64 `gorm:"not null" json:"unit_price"`

	Position int `gorm:"default:0" json:"position"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// Remaining returns the quantity still available for delivery on this line.
func (it *SalesOrderItem) Remaining() float64 {
	return it.OrderedQuantity - it.DeliveredQuantity
}

// DeliveryStatus derives the aggregate fulfillment status from the lines.
// Cancelled orders keep their status regardless of line state.
func (o *SalesOrder) DeliveryStatus() SalesOrderStatus {
	if o.Status == SalesOrderStatusCancelled {
		return SalesOrderStatusCancelled
	}
	if len(o.Items) == 0 {
		return SalesOrderStatusOpen
	}
	full := true
	any := false
	for _, it := range o.Items {
		if it.DeliveredQuantity > 0 {
			any = true
		}
		if it.DeliveredQuantity < it.OrderedQuantity {
			full = false
		}
	}
	switch {
	case full:
		return SalesOrderStatusFullyDelivered
	case any:
		return SalesOrderStatusPartiallyDelivered
	default:
		return SalesOrderStatusOpen
	}
}

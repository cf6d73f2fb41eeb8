package models

import "time"

// DeliveryOrderStatus represents the shipping state of a delivery order.
type DeliveryOrderStatus string

const (
	DeliveryOrderStatusDraft      DeliveryOrderStatus = "draft"
	DeliveryOrderStatusDispatched DeliveryOrderStatus = "dispatched"
	DeliveryOrderStatusDelivered  DeliveryOrderStatus = "delivered"
	DeliveryOrderStatusCancelled  DeliveryOrderStatus = "cancelled"
)

// DeliveryOrder ships part or all of a sales order. Always tied to exactly
// one sales order; a sales order may have many delivery orders.
type DeliveryOrder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DeliveryNumber string              `gorm:"size:50;uniqueIndex;not null" json:"delivery_number"`
	Status         DeliveryOrderStatus `gorm:"size:20;default:'draft'" json:"status"`

	SalesOrderID uint        `gorm:"index;not null" json:"sales_order_id"`
	SalesOrder   *SalesOrder `gorm:"foreignKey:SalesOrderID" json:"sales_order,omitempty"`

	ShippingAddress string `gorm:"size:500" json:"shipping_address,omitempty"`
	ContactName     string `gorm:"size:100" json:"contact_name,omitempty"`
	ContactPhone    string `gorm:"size:50" json:"contact_phone,omitempty"`

	Items []DeliveryOrderItem `gorm:"foreignKey:DeliveryOrderID" json:"items,omitempty"`
}

// DeliveryOrderItem commits a quantity against one sales-order line.
type DeliveryOrderItem struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	DeliveryOrderID uint `gorm:"index;not null" json:"delivery_order_id"`

	SalesOrderItemID uint `gorm:"index;not null" json:"sales_order_item_id"`
	ProductID        uint `gorm:"not null" json:"product_id"`

	Quantity float64 `gorm:"not null" json:"quantity"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// CountsAgainstOrder reports whether this delivery order's quantities are
// held against the parent sales order's lines.
func (d *DeliveryOrder) CountsAgainstOrder() bool {
	return d.Status != DeliveryOrderStatusCancelled
}

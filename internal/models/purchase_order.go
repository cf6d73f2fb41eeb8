package models

import "time"

// PurchaseOrderStatus represents the procurement state of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent      PurchaseOrderStatus = "sent"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrder is the procurement counterpart of a sales order, numbered
// from its own scheme.
type PurchaseOrder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PoNumber string              `gorm:"size:50;uniqueIndex;not null" json:"po_number"`
	Status   PurchaseOrderStatus `gorm:"size:20;default:'draft'" json:"status"`

	SupplierID uint      `gorm:"index;not null" json:"supplier_id"`
	Supplier   *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`

	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint `gorm:"index;not null" json:"purchase_order_id"`
	ProductID       uint `gorm:"not null" json:"product_id"`

	Quantity  float64 `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`

	Position int `gorm:"default:0" json:"position"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// CanEdit returns true while the purchase order may still be changed.
func (p *PurchaseOrder) CanEdit() bool {
	return p.Status == PurchaseOrderStatusDraft
}

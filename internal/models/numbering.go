package models

import "time"

// DocumentType identifies a numbered document family.
type DocumentType string

const (
	DocTypeQuote         DocumentType = "quote"
	DocTypeSalesOrder    DocumentType = "sales_order"
	DocTypeDeliveryOrder DocumentType = "delivery_order"
	DocTypePurchaseOrder DocumentType = "purchase_order"
)

// NumberingScheme is the per-type counter row behind human-readable document
// numbers. One row per document type, provisioned at setup, never deleted.
// CurrentNumber is the next value to hand out; it only ever increases, even
// when the document that consumed a number is later deleted.
type NumberingScheme struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	DocumentType  DocumentType `gorm:"size:30;uniqueIndex;not null" json:"document_type"`
	Prefix        string       `gorm:"size:10;not null" json:"prefix"`
	CurrentNumber int64        `gorm:"not null;default:1" json:"current_number"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

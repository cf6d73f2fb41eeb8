package models

import "time"

// QuoteStatus represents the status of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusExpired   QuoteStatus = "expired"
	QuoteStatusConverted QuoteStatus = "converted"
)

// Quote is a sales quotation. Once accepted it can be converted into a sales
// order, which marks it converted for good.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// QuoteNumber comes from the numbering scheme and never changes after creation.
	QuoteNumber string      `gorm:"size:50;uniqueIndex;not null" json:"quote_number"`
	Status      QuoteStatus `gorm:"size:20;default:'draft'" json:"status"`

	CustomerID uint      `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes,omitempty"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
}

type QuoteItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	QuoteID   uint `gorm:"index;not null" json:"quote_id"`
	ProductID uint `gorm:"not null" json:"product_id"`

	Quantity  float64 `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// CanEdit returns true while the quote content may still be changed.
func (q *Quote) CanEdit() bool {
	return q.Status == QuoteStatusDraft || q.Status == QuoteStatusSent
}

// IsTerminal returns true when no further transition can leave this status.
func (q *Quote) IsTerminal() bool {
	switch q.Status {
	case QuoteStatusRejected, QuoteStatusExpired, QuoteStatusConverted:
		return true
	}
	return false
}

// Total computes the quote amount from its lines.
func (q *Quote) Total() float64 {
	var total float64
	for _, it := range q.Items {
		total += it.Quantity * it.UnitPrice
	}
	return total
}

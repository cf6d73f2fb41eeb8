package models

import "time"

// Catalog entities referenced by document lines.

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:200;not null" json:"name"`
	Email   string `gorm:"size:200" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
}

type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code      string  `gorm:"size:50;uniqueIndex" json:"code"`
	Name      string  `gorm:"size:200;not null" json:"name"`
	UnitPrice float64 `gorm:"not null;default:0" json:"unit_price"`
	Unit      string  `gorm:"size:20" json:"unit,omitempty"`
}

type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"size:200;not null" json:"name"`
	Email   string `gorm:"size:200" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
}

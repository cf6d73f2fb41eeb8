package models

import "time"

// User is an application account. Capability flags gate whole route groups;
// the document lifecycle itself never reads them.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email    string `gorm:"size:200;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:200;not null" json:"-"`
	Name     string `gorm:"size:200" json:"name,omitempty"`
	Role     string `gorm:"size:50;default:'user'" json:"role"`

	HasErpAccess      bool `gorm:"default:false" json:"has_erp_access"`
	HasPayrollAccess  bool `gorm:"default:false" json:"has_payroll_access"`
	HasProjectsAccess bool `gorm:"default:false" json:"has_projects_access"`
}

// impactflow-crm/models/contact.go
package models

import "gorm.io/gorm"

// Contact представляет модель контакта в базе данных.
// Ключ сопоставления при импорте - пара (email, companyId).
type Contact struct {
	gorm.Model
	Name      string   `json:"name" gorm:"not null"`
	Email     string   `json:"email" gorm:"index"`
	Phone     string   `json:"phone"`
	CompanyID *uint    `json:"companyId"`
	Company   *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Role      string   `json:"role"`
	LinkedIn  string   `json:"linkedin"`

	Notes []ContactNote `json:"notes,omitempty" gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE;"`
}

// impactflow-crm/models/project.go
package models

import "gorm.io/gorm"

// Project представляет модель проекта (пост-продажное внедрение).
type Project struct {
	gorm.Model
	Name      string   `json:"name" gorm:"not null"`
	CompanyID *uint    `json:"companyId"`
	Company   *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Status    string   `json:"status" gorm:"default:'active'"`
	OwnerID   *uint    `json:"ownerId"`
}

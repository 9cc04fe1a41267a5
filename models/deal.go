// impactflow-crm/models/deal.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Deal представляет модель сделки в базе данных.
type Deal struct {
	gorm.Model
	Name          string     `json:"name" gorm:"not null"`
	CompanyID     *uint      `json:"companyId"`
	Company       *Company   `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Stage         string     `json:"stage" gorm:"default:'prospecting'"`
	Amount        float64    `json:"amount"`
	OwnerID       *uint      `json:"ownerId"`
	ExpectedClose *time.Time `json:"expectedClose"`
}

// impactflow-crm/models/company.go
package models

import "gorm.io/gorm"

// Company представляет модель компании в базе данных.
// Domain хранится в нормализованном виде (без схемы, www и пути) и
// служит ключом сопоставления при импорте.
type Company struct {
	gorm.Model
	Name            string `json:"name" gorm:"not null"`
	Domain          string `json:"domain" gorm:"index"`
	Industry        string `json:"industry"`
	OwnerID         *uint  `json:"ownerId"`
	Owner           *User  `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	IsTargetAccount bool   `json:"isTargetAccount" gorm:"default:false"`

	Notes         []CompanyNote  `json:"notes,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE;"`
	SocialSignals []SocialSignal `json:"socialSignals,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE;"`
}

// SocialSignal - упоминание компании во внешних источниках (новости, соцсети).
type SocialSignal struct {
	gorm.Model
	CompanyID uint   `json:"companyId"`
	Source    string `json:"source"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

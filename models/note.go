// impactflow-crm/models/note.go
package models

import "gorm.io/gorm"

// CompanyNote - заметка, прикрепленная к компании. Список заметок
// append-only: редактирование не поддерживается, удалять может только
// автор или администратор.
type CompanyNote struct {
	gorm.Model
	CompanyID uint   `json:"companyId"`
	UserID    uint   `json:"userId"`
	UserName  string `json:"userName"`
	Body      string `json:"body" gorm:"type:text"`
}

// ContactNote - заметка, прикрепленная к контакту.
type ContactNote struct {
	gorm.Model
	ContactID uint   `json:"contactId"`
	UserID    uint   `json:"userId"`
	UserName  string `json:"userName"`
	Body      string `json:"body" gorm:"type:text"`
}

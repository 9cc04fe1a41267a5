// impactflow-crm/models/user.go
package models

import "gorm.io/gorm"

// User представляет модель пользователя CRM в базе данных.
type User struct {
	gorm.Model
	FullName string `json:"fullName" gorm:"not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-"`
	Phone    string `json:"phone"`
	// Role определяет уровень доступа: "admin" или "member".
	Role     string `json:"role" gorm:"default:'member'"`
	PhotoURL string `json:"photoUrl"`
}

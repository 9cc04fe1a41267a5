// impactflow-crm/models/notification.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Виды уведомлений.
const (
	NotificationMention           = "mention"
	NotificationPlaybookCompleted = "playbook_completed"
	NotificationImportFinished    = "import_finished"
)

// Notification - уведомление пользователю. Создание уведомления
// никогда не прерывает вызвавшую его операцию: ошибки только логируются.
type Notification struct {
	gorm.Model
	UserID     uint       `json:"userId" gorm:"index"`
	ActorID    uint       `json:"actorId"`
	ActorName  string     `json:"actorName"`
	Kind       string     `json:"kind"`
	Body       string     `json:"body" gorm:"type:text"`
	EntityType string     `json:"entityType"`
	EntityID   uint       `json:"entityId"`
	ReadAt     *time.Time `json:"readAt"`
}

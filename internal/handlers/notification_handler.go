// impactflow-crm/internal/handlers/notification_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
)

// createNotification сохраняет уведомление и пушит его в websocket-хаб.
// Ошибки только логируются: создание уведомления никогда не должно
// прерывать операцию, которая его вызвала.
func createNotification(n models.Notification) {
	if err := config.DB.Create(&n).Error; err != nil {
		slog.Error("Не удалось создать уведомление", "error", err, "user_id", n.UserID, "kind", n.Kind)
		return
	}
	GlobalHub.Push(&n)
}

// ListNotificationsHandler возвращает уведомления текущего пользователя,
// непрочитанные первыми.
func ListNotificationsHandler(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var notifications []models.Notification
	query := config.DB.Where("user_id = ?", userID).Order("read_at ASC NULLS FIRST, created_at DESC")

	if c.Query("unread") == "true" {
		query = query.Where("read_at IS NULL")
	}

	if err := query.Limit(100).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить уведомления"})
		return
	}

	if notifications == nil {
		notifications = make([]models.Notification, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

// MarkNotificationReadHandler помечает уведомление прочитанным.
func MarkNotificationReadHandler(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var notification models.Notification
	if err := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
		return
	}

	if notification.ReadAt == nil {
		now := time.Now()
		notification.ReadAt = &now
		if err := config.DB.Save(&notification).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить уведомление"})
			return
		}
	}

	c.JSON(http.StatusOK, notification)
}

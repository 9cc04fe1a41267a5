// impactflow-crm/internal/handlers/note_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"impactflow-crm/config"
	"impactflow-crm/internal/mentions"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
)

type NoteInput struct {
	Body string `json:"body" binding:"required"`
}

// AddCompanyNoteHandler добавляет заметку к компании и рассылает
// уведомления упомянутым пользователям.
func AddCompanyNoteHandler(c *gin.Context) {
	companyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var company models.Company
	if err := config.DB.First(&company, companyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Компания не найдена"})
		return
	}

	var input NoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Текст заметки обязателен"})
		return
	}

	userID := c.MustGet("user_id").(uint)
	note := models.CompanyNote{
		CompanyID: companyID,
		UserID:    userID,
		UserName:  c.GetString("user_name"),
		Body:      input.Body,
	}
	if err := config.DB.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить заметку: " + err.Error()})
		return
	}

	go notifyMentions(note.Body, userID, note.UserName, "company", companyID)

	c.JSON(http.StatusCreated, note)
}

// DeleteCompanyNoteHandler удаляет заметку. Разрешено автору или администратору.
func DeleteCompanyNoteHandler(c *gin.Context) {
	noteID, ok := parseID(c, "noteId")
	if !ok {
		return
	}

	var note models.CompanyNote
	if err := config.DB.First(&note, noteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заметка не найдена"})
		return
	}

	if !canDeleteNote(c, note.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Удалять заметку может только автор или администратор"})
		return
	}

	if err := config.DB.Delete(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить заметку"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Заметка удалена"})
}

// AddContactNoteHandler добавляет заметку к контакту.
func AddContactNoteHandler(c *gin.Context) {
	contactID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var contact models.Contact
	if err := config.DB.First(&contact, contactID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Контакт не найден"})
		return
	}

	var input NoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Текст заметки обязателен"})
		return
	}

	userID := c.MustGet("user_id").(uint)
	note := models.ContactNote{
		ContactID: contactID,
		UserID:    userID,
		UserName:  c.GetString("user_name"),
		Body:      input.Body,
	}
	if err := config.DB.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить заметку: " + err.Error()})
		return
	}

	go notifyMentions(note.Body, userID, note.UserName, "contact", contactID)

	c.JSON(http.StatusCreated, note)
}

// DeleteContactNoteHandler удаляет заметку контакта.
func DeleteContactNoteHandler(c *gin.Context) {
	noteID, ok := parseID(c, "noteId")
	if !ok {
		return
	}

	var note models.ContactNote
	if err := config.DB.First(&note, noteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заметка не найдена"})
		return
	}

	if !canDeleteNote(c, note.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Удалять заметку может только автор или администратор"})
		return
	}

	if err := config.DB.Delete(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить заметку"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Заметка удалена"})
}

func canDeleteNote(c *gin.Context, authorID uint) bool {
	return c.MustGet("user_id").(uint) == authorID || c.GetString("user_role") == "admin"
}

// notifyMentions разрешает @упоминания в тексте заметки и создает по
// одному уведомлению на каждого упомянутого пользователя. Автор заметки
// себе уведомление не получает. Запускается в фоне: сбои не влияют на
// сохранение самой заметки.
func notifyMentions(body string, actorID uint, actorName string, entityType string, entityID uint) {
	var users []models.User
	if err := config.DB.Find(&users).Error; err != nil {
		slog.Error("Не удалось загрузить пользователей для разбора упоминаний", "error", err)
		return
	}

	for _, m := range mentions.Extract(body, users) {
		if m.UserID == actorID {
			continue
		}
		createNotification(models.Notification{
			UserID:     m.UserID,
			ActorID:    actorID,
			ActorName:  actorName,
			Kind:       models.NotificationMention,
			Body:       actorName + " упомянул вас в заметке",
			EntityType: entityType,
			EntityID:   entityID,
		})
	}
}

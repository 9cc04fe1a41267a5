// impactflow-crm/internal/handlers/playbook_handler.go
package handlers

import (
	"errors"
	"net/http"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlaybookTemplateInput - входные данные для создания/обновления шаблона.
type PlaybookTemplateInput struct {
	Name        string                  `json:"name"`
	Category    string                  `json:"category"`
	Description string                  `json:"description"`
	Sections    models.PlaybookSections `json:"sections"`
}

// ListPlaybookTemplatesHandler возвращает список шаблонов плейбуков.
func ListPlaybookTemplatesHandler(c *gin.Context) {
	var templates []models.PlaybookTemplate
	query := config.DB.Order("name asc")

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список шаблонов"})
		return
	}

	if templates == nil {
		templates = make([]models.PlaybookTemplate, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// GetPlaybookTemplateHandler возвращает шаблон по ID.
func GetPlaybookTemplateHandler(c *gin.Context) {
	var template models.PlaybookTemplate
	if err := config.DB.First(&template, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения шаблона: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, template)
}

// CreatePlaybookTemplateHandler создает шаблон. Структурные инварианты
// проверяются до записи в БД; нарушение блокирует сохранение.
func CreatePlaybookTemplateHandler(c *gin.Context) {
	var input PlaybookTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные шаблона: " + err.Error()})
		return
	}

	template := models.PlaybookTemplate{
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		Version:     1,
		Sections:    input.Sections,
	}

	if err := template.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := config.DB.Create(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать шаблон: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, template)
}

// UpdatePlaybookTemplateHandler обновляет шаблон и увеличивает версию.
// Снапшоты существующих экземпляров правка не затрагивает.
func UpdatePlaybookTemplateHandler(c *gin.Context) {
	var template models.PlaybookTemplate
	if err := config.DB.First(&template, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
		return
	}

	var input PlaybookTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные шаблона: " + err.Error()})
		return
	}

	template.Name = input.Name
	template.Category = input.Category
	template.Description = input.Description
	template.Sections = input.Sections

	if err := template.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	template.Version++

	if err := config.DB.Save(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить шаблон: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, template)
}

// DeletePlaybookTemplateHandler удаляет шаблон. Активные экземпляры
// продолжают жить на своих снапшотах.
func DeletePlaybookTemplateHandler(c *gin.Context) {
	result := config.DB.Delete(&models.PlaybookTemplate{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить шаблон: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Шаблон удален"})
}

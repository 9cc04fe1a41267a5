// impactflow-crm/internal/handlers/contact_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ContactInput - входные данные для создания/обновления контакта.
type ContactInput struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CompanyID *uint  `json:"companyId"`
	Role      string `json:"role"`
	LinkedIn  string `json:"linkedin"`
}

// ListContactsHandler возвращает список контактов с поиском, фильтром по
// компании и пагинацией. Полный список кэшируется аналогично компаниям.
func ListContactsHandler(c *gin.Context) {
	if c.Query("all") == "true" {
		if cached := getCachedList("contacts", c.Request.URL.RawQuery); cached != "" {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
	}

	var contacts []models.Contact
	query := config.DB.Model(&models.Contact{}).Preload("Company").Order("name asc")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(role) LIKE ?", pattern, pattern, pattern)
	}
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	if c.Query("all") == "true" {
		if err := query.Find(&contacts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список контактов"})
			return
		}
		payload, err := json.Marshal(gin.H{"data": contacts})
		if err == nil {
			storeCachedList("contacts", c.Request.URL.RawQuery, payload)
		}
		c.JSON(http.StatusOK, gin.H{"data": contacts})
		return
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать контакты"})
		return
	}

	if err := query.Scopes(Paginate(c)).Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список контактов"})
		return
	}

	if contacts == nil {
		contacts = make([]models.Contact, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, contacts, totalRows))
}

// GetContactHandler возвращает контакт с заметками и компанией.
func GetContactHandler(c *gin.Context) {
	var contact models.Contact
	err := config.DB.
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Preload("Company").
		First(&contact, c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Контакт не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения данных контакта: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// CreateContactHandler создает контакт. Email приводится к нижнему регистру.
func CreateContactHandler(c *gin.Context) {
	var input ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные контакта: " + err.Error()})
		return
	}

	contact := models.Contact{
		Name:      input.Name,
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:     input.Phone,
		CompanyID: input.CompanyID,
		Role:      input.Role,
		LinkedIn:  input.LinkedIn,
	}
	if err := config.DB.Create(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать контакт: " + err.Error()})
		return
	}

	invalidateEntityCache("contacts")
	c.JSON(http.StatusCreated, contact)
}

// UpdateContactHandler обновляет контакт целиком.
func UpdateContactHandler(c *gin.Context) {
	var contact models.Contact
	if err := config.DB.First(&contact, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Контакт не найден"})
		return
	}

	var input ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные контакта: " + err.Error()})
		return
	}

	contact.Name = input.Name
	contact.Email = strings.ToLower(strings.TrimSpace(input.Email))
	contact.Phone = input.Phone
	contact.CompanyID = input.CompanyID
	contact.Role = input.Role
	contact.LinkedIn = input.LinkedIn

	if err := config.DB.Save(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить контакт: " + err.Error()})
		return
	}

	invalidateEntityCache("contacts")
	c.JSON(http.StatusOK, contact)
}

// DeleteContactHandler выполняет мягкое удаление контакта.
func DeleteContactHandler(c *gin.Context) {
	result := config.DB.Delete(&models.Contact{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить контакт: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Контакт не найден"})
		return
	}

	invalidateEntityCache("contacts")
	c.JSON(http.StatusOK, gin.H{"message": "Контакт удален"})
}

// BulkDeleteContactsHandler - массовое удаление контактов с поштучным итогом.
func BulkDeleteContactsHandler(c *gin.Context) {
	var input BulkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не указаны ID контактов"})
		return
	}

	outcome := runBulk(input.IDs, func(id uint) error {
		result := config.DB.Delete(&models.Contact{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("контакт не найден")
		}
		return nil
	})

	invalidateEntityCache("contacts")
	c.JSON(http.StatusOK, outcome)
}

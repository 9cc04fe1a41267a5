// impactflow-crm/internal/handlers/company_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"impactflow-crm/config"
	"impactflow-crm/internal/importer"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// CompanyInput - входные данные для создания/обновления компании.
type CompanyInput struct {
	Name            string `json:"name" binding:"required"`
	Domain          string `json:"domain"`
	Industry        string `json:"industry"`
	OwnerID         *uint  `json:"ownerId"`
	IsTargetAccount bool   `json:"isTargetAccount"`
}

// ListCompaniesHandler возвращает список компаний с поиском и пагинацией.
// Полный список (all=true) кэшируется в Redis и инвалидируется при мутациях.
func ListCompaniesHandler(c *gin.Context) {
	if c.Query("all") == "true" {
		if cached := getCachedList("companies", c.Request.URL.RawQuery); cached != "" {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
	}

	var companies []models.Company
	query := config.DB.Model(&models.Company{}).Order("name asc")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(domain) LIKE ? OR LOWER(industry) LIKE ?", pattern, pattern, pattern)
	}
	if c.Query("target") == "true" {
		query = query.Where("is_target_account = TRUE")
	}

	if c.Query("all") == "true" {
		if err := query.Find(&companies).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список компаний"})
			return
		}
		payload, err := json.Marshal(gin.H{"data": companies})
		if err == nil {
			storeCachedList("companies", c.Request.URL.RawQuery, payload)
		}
		c.JSON(http.StatusOK, gin.H{"data": companies})
		return
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать компании"})
		return
	}

	if err := query.Scopes(Paginate(c)).Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список компаний"})
		return
	}

	if companies == nil {
		companies = make([]models.Company, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, companies, totalRows))
}

// GetCompanyHandler возвращает компанию с заметками и сигналами.
func GetCompanyHandler(c *gin.Context) {
	var company models.Company
	err := config.DB.
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Preload("SocialSignals").
		Preload("Owner").
		First(&company, c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Компания не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения данных компании: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, company)
}

// CreateCompanyHandler создает компанию. Домен нормализуется при сохранении.
func CreateCompanyHandler(c *gin.Context) {
	var input CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные компании: " + err.Error()})
		return
	}

	company := models.Company{
		Name:            input.Name,
		Domain:          importer.NormalizeDomain(input.Domain),
		Industry:        input.Industry,
		OwnerID:         input.OwnerID,
		IsTargetAccount: input.IsTargetAccount,
	}
	if err := config.DB.Create(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать компанию: " + err.Error()})
		return
	}

	invalidateEntityCache("companies")
	c.JSON(http.StatusCreated, company)
}

// UpdateCompanyHandler обновляет компанию целиком.
func UpdateCompanyHandler(c *gin.Context) {
	var company models.Company
	if err := config.DB.First(&company, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Компания не найдена"})
		return
	}

	var input CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные компании: " + err.Error()})
		return
	}

	company.Name = input.Name
	company.Domain = importer.NormalizeDomain(input.Domain)
	company.Industry = input.Industry
	company.OwnerID = input.OwnerID
	company.IsTargetAccount = input.IsTargetAccount

	if err := config.DB.Save(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить компанию: " + err.Error()})
		return
	}

	invalidateEntityCache("companies")
	c.JSON(http.StatusOK, company)
}

// DeleteCompanyHandler выполняет мягкое удаление компании.
func DeleteCompanyHandler(c *gin.Context) {
	result := config.DB.Delete(&models.Company{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить компанию: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Компания не найдена"})
		return
	}

	invalidateEntityCache("companies")
	c.JSON(http.StatusOK, gin.H{"message": "Компания удалена"})
}

// BulkInput - список ID для массовых операций.
type BulkInput struct {
	IDs []uint `json:"ids" binding:"required"`
}

// BulkUpdateInput - массовое обновление: применяется к каждой компании отдельно.
type BulkUpdateInput struct {
	IDs    []uint `json:"ids" binding:"required"`
	Fields struct {
		OwnerID         *uint   `json:"ownerId"`
		Industry        *string `json:"industry"`
		IsTargetAccount *bool   `json:"isTargetAccount"`
	} `json:"fields"`
}

// BulkOutcome - поштучный итог массовой операции.
type BulkOutcome struct {
	Succeeded []uint      `json:"succeeded"`
	Failed    []BulkError `json:"failed"`
}

type BulkError struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

// BulkDeleteCompaniesHandler удаляет компании по одной параллельно и
// ждет завершения всех. Частичный провал не откатывает уже удаленные
// записи; итог сообщается поштучно.
func BulkDeleteCompaniesHandler(c *gin.Context) {
	var input BulkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не указаны ID компаний"})
		return
	}

	outcome := runBulk(input.IDs, func(id uint) error {
		result := config.DB.Delete(&models.Company{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("компания не найдена")
		}
		return nil
	})

	invalidateEntityCache("companies")
	c.JSON(http.StatusOK, outcome)
}

// BulkUpdateCompaniesHandler применяет переданные поля к каждой компании.
func BulkUpdateCompaniesHandler(c *gin.Context) {
	var input BulkUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные массового обновления"})
		return
	}

	updates := map[string]interface{}{}
	if input.Fields.OwnerID != nil {
		updates["owner_id"] = *input.Fields.OwnerID
	}
	if input.Fields.Industry != nil {
		updates["industry"] = *input.Fields.Industry
	}
	if input.Fields.IsTargetAccount != nil {
		updates["is_target_account"] = *input.Fields.IsTargetAccount
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не указаны поля для обновления"})
		return
	}

	outcome := runBulk(input.IDs, func(id uint) error {
		result := config.DB.Model(&models.Company{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("компания не найдена")
		}
		return nil
	})

	invalidateEntityCache("companies")
	c.JSON(http.StatusOK, outcome)
}

// runBulk запускает операцию для каждого ID в отдельной горутине и
// собирает поштучные результаты.
func runBulk(ids []uint, op func(id uint) error) BulkOutcome {
	var g errgroup.Group
	var mu sync.Mutex
	outcome := BulkOutcome{Succeeded: []uint{}, Failed: []BulkError{}}

	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := op(id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome.Failed = append(outcome.Failed, BulkError{ID: id, Error: err.Error()})
			} else {
				outcome.Succeeded = append(outcome.Succeeded, id)
			}
			return nil
		})
	}

	g.Wait()
	return outcome
}

// parseID читает числовой параметр пути.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный ID"})
		return 0, false
	}
	return uint(id), true
}

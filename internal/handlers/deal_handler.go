// impactflow-crm/internal/handlers/deal_handler.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DealInput struct {
	Name          string     `json:"name" binding:"required"`
	CompanyID     *uint      `json:"companyId"`
	Stage         string     `json:"stage"`
	Amount        float64    `json:"amount"`
	OwnerID       *uint      `json:"ownerId"`
	ExpectedClose *time.Time `json:"expectedClose"`
}

func ListDealsHandler(c *gin.Context) {
	var deals []models.Deal
	query := config.DB.Model(&models.Deal{}).Preload("Company").Order("created_at desc")

	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if stage := c.Query("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}

	if c.Query("all") == "true" {
		if err := query.Find(&deals).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список сделок"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": deals})
		return
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать сделки"})
		return
	}
	if err := query.Scopes(Paginate(c)).Find(&deals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список сделок"})
		return
	}

	if deals == nil {
		deals = make([]models.Deal, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, deals, totalRows))
}

func GetDealHandler(c *gin.Context) {
	var deal models.Deal
	if err := config.DB.Preload("Company").First(&deal, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Сделка не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения данных сделки: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, deal)
}

func CreateDealHandler(c *gin.Context) {
	var input DealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные сделки: " + err.Error()})
		return
	}

	deal := models.Deal{
		Name:          input.Name,
		CompanyID:     input.CompanyID,
		Stage:         input.Stage,
		Amount:        input.Amount,
		OwnerID:       input.OwnerID,
		ExpectedClose: input.ExpectedClose,
	}
	if deal.Stage == "" {
		deal.Stage = "prospecting"
	}
	if err := config.DB.Create(&deal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать сделку: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, deal)
}

func UpdateDealHandler(c *gin.Context) {
	var deal models.Deal
	if err := config.DB.First(&deal, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сделка не найдена"})
		return
	}

	var input DealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные сделки: " + err.Error()})
		return
	}

	deal.Name = input.Name
	deal.CompanyID = input.CompanyID
	deal.Stage = input.Stage
	deal.Amount = input.Amount
	deal.OwnerID = input.OwnerID
	deal.ExpectedClose = input.ExpectedClose

	if err := config.DB.Save(&deal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить сделку: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, deal)
}

func DeleteDealHandler(c *gin.Context) {
	result := config.DB.Delete(&models.Deal{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить сделку: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сделка не найдена"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Сделка удалена"})
}

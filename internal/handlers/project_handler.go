// impactflow-crm/internal/handlers/project_handler.go
package handlers

import (
	"errors"
	"net/http"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectInput struct {
	Name      string `json:"name" binding:"required"`
	CompanyID *uint  `json:"companyId"`
	Status    string `json:"status"`
	OwnerID   *uint  `json:"ownerId"`
}

func ListProjectsHandler(c *gin.Context) {
	var projects []models.Project
	query := config.DB.Model(&models.Project{}).Preload("Company").Order("created_at desc")

	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if c.Query("all") == "true" {
		if err := query.Find(&projects).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список проектов"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": projects})
		return
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать проекты"})
		return
	}
	if err := query.Scopes(Paginate(c)).Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список проектов"})
		return
	}

	if projects == nil {
		projects = make([]models.Project, 0)
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, projects, totalRows))
}

func GetProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.Preload("Company").First(&project, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения данных проекта: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

func CreateProjectHandler(c *gin.Context) {
	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные проекта: " + err.Error()})
		return
	}

	project := models.Project{
		Name:      input.Name,
		CompanyID: input.CompanyID,
		Status:    input.Status,
		OwnerID:   input.OwnerID,
	}
	if project.Status == "" {
		project.Status = "active"
	}
	if err := config.DB.Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать проект: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, project)
}

func UpdateProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.First(&project, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
		return
	}

	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные проекта: " + err.Error()})
		return
	}

	project.Name = input.Name
	project.CompanyID = input.CompanyID
	project.Status = input.Status
	project.OwnerID = input.OwnerID

	if err := config.DB.Save(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить проект: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

func DeleteProjectHandler(c *gin.Context) {
	result := config.DB.Delete(&models.Project{}, c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить проект: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Проект удален"})
}

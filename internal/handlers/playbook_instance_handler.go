// impactflow-crm/internal/handlers/playbook_instance_handler.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ActivatePlaybookInput - привязка шаблона к сделке или проекту.
type ActivatePlaybookInput struct {
	TemplateID uint  `json:"templateId" binding:"required"`
	DealID     *uint `json:"dealId"`
	ProjectID  *uint `json:"projectId"`
	CompanyID  *uint `json:"companyId"`
}

// InstanceProgress - производный прогресс экземпляра.
type InstanceProgress struct {
	CompletedSteps int `json:"completedSteps"`
	TotalSteps     int `json:"totalSteps"`
	Percent        int `json:"percent"`
}

// InstanceResponse - экземпляр вместе с вычисленным прогрессом.
type InstanceResponse struct {
	models.PlaybookInstance
	Progress InstanceProgress `json:"progress"`
}

// ListPlaybookInstancesHandler возвращает экземпляры с прогрессом,
// отфильтрованные по сделке, проекту или компании.
func ListPlaybookInstancesHandler(c *gin.Context) {
	var instances []models.PlaybookInstance
	query := config.DB.Order("activated_at desc")

	if dealID := c.Query("deal_id"); dealID != "" {
		query = query.Where("deal_id = ?", dealID)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	if err := query.Find(&instances).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список плейбуков"})
		return
	}

	// Загружаем completions всех найденных экземпляров одним запросом.
	completionsByInstance := make(map[uint][]models.StepCompletion)
	if len(instances) > 0 {
		ids := make([]uint, 0, len(instances))
		for _, inst := range instances {
			ids = append(ids, inst.ID)
		}
		var completions []models.StepCompletion
		if err := config.DB.Where("instance_id IN ?", ids).Find(&completions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить прогресс плейбуков"})
			return
		}
		for _, comp := range completions {
			completionsByInstance[comp.InstanceID] = append(completionsByInstance[comp.InstanceID], comp)
		}
	}

	response := make([]InstanceResponse, 0, len(instances))
	for _, inst := range instances {
		completed, total, percent := inst.Progress(completionsByInstance[inst.ID])
		response = append(response, InstanceResponse{
			PlaybookInstance: inst,
			Progress:         InstanceProgress{completed, total, percent},
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": response})
}

// ActivatePlaybookHandler создает экземпляр плейбука: снапшот секций
// шаблона замораживается на момент активации, живой ссылки на шаблон
// у экземпляра нет.
func ActivatePlaybookHandler(c *gin.Context) {
	var input ActivatePlaybookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные активации: " + err.Error()})
		return
	}

	if input.DealID != nil && input.ProjectID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Плейбук привязывается либо к сделке, либо к проекту, но не к обоим"})
		return
	}
	if input.DealID == nil && input.ProjectID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите сделку или проект для активации плейбука"})
		return
	}

	var template models.PlaybookTemplate
	if err := config.DB.First(&template, input.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Шаблон не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка загрузки шаблона: " + err.Error()})
		return
	}

	snapshot, err := template.Sections.DeepCopy()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать снапшот шаблона: " + err.Error()})
		return
	}

	instance := models.PlaybookInstance{
		TemplateID:       template.ID,
		TemplateName:     template.Name,
		TemplateSnapshot: snapshot,
		DealID:           input.DealID,
		ProjectID:        input.ProjectID,
		CompanyID:        input.CompanyID,
		Status:           models.InstanceStatusActive,
		ActivatedBy:      c.MustGet("user_id").(uint),
		ActivatedAt:      time.Now(),
	}

	if err := config.DB.Create(&instance).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось активировать плейбук: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, InstanceResponse{
		PlaybookInstance: instance,
		Progress:         InstanceProgress{0, snapshot.TotalSteps(), 0},
	})
}

// GetPlaybookInstanceHandler возвращает экземпляр с прогрессом.
func GetPlaybookInstanceHandler(c *gin.Context) {
	var instance models.PlaybookInstance
	if err := config.DB.First(&instance, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Экземпляр плейбука не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения экземпляра: " + err.Error()})
		return
	}

	var completions []models.StepCompletion
	if err := config.DB.Where("instance_id = ?", instance.ID).Find(&completions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить прогресс"})
		return
	}

	completed, total, percent := instance.Progress(completions)
	c.JSON(http.StatusOK, InstanceResponse{
		PlaybookInstance: instance,
		Progress:         InstanceProgress{completed, total, percent},
	})
}

// ListStepCompletionsHandler возвращает записи о выполнении шагов экземпляра.
func ListStepCompletionsHandler(c *gin.Context) {
	var completions []models.StepCompletion
	if err := config.DB.Where("instance_id = ?", c.Param("id")).Order("completed_at asc").Find(&completions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось загрузить выполнение шагов"})
		return
	}
	if completions == nil {
		completions = make([]models.StepCompletion, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": completions})
}

// CompleteStepHandler отмечает шаг выполненным. Операция идемпотентна:
// повторная отметка уже выполненного шага возвращает существующую запись.
// После каждой отметки перепроверяется прогресс, и при достижении 100%
// экземпляр ровно один раз переводится в статус "completed".
func CompleteStepHandler(c *gin.Context) {
	instanceID, ok := parseID(c, "id")
	if !ok {
		return
	}
	stepID := c.Param("stepId")

	var instance models.PlaybookInstance
	if err := config.DB.First(&instance, instanceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Экземпляр плейбука не найден"})
		return
	}

	if !instance.TemplateSnapshot.StepIDs()[stepID] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Шаг не входит в снапшот этого плейбука"})
		return
	}

	// Идемпотентность: существующая запись возвращается как есть.
	var existing models.StepCompletion
	err := config.DB.Where("instance_id = ? AND step_id = ?", instanceID, stepID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, existing)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка проверки выполнения шага"})
		return
	}

	completion := models.StepCompletion{
		InstanceID:  instanceID,
		StepID:      stepID,
		CompletedBy: c.MustGet("user_id").(uint),
		CompletedAt: time.Now(),
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&completion).Error; err != nil {
			// Гонка двух одновременных отметок упирается в уникальный
			// индекс - вторая отметка превращается в no-op.
			if strings.Contains(err.Error(), "idx_instance_step") {
				return tx.Where("instance_id = ? AND step_id = ?", instanceID, stepID).First(&completion).Error
			}
			return fmt.Errorf("не удалось сохранить выполнение шага: %w", err)
		}

		var completions []models.StepCompletion
		if err := tx.Where("instance_id = ?", instanceID).Find(&completions).Error; err != nil {
			return err
		}

		completed, total, _ := instance.Progress(completions)
		if total > 0 && completed == total && instance.Status == models.InstanceStatusActive {
			// Условный UPDATE гарантирует ровно один переход в "completed".
			result := tx.Model(&models.PlaybookInstance{}).
				Where("id = ? AND status = ?", instanceID, models.InstanceStatusActive).
				Update("status", models.InstanceStatusCompleted)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				instance.Status = models.InstanceStatusCompleted
				go notifyPlaybookCompleted(instance)
			}
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"completion": completion,
		"status":     instance.Status,
	})
}

func notifyPlaybookCompleted(instance models.PlaybookInstance) {
	var actorName string
	var activator models.User
	if err := config.DB.First(&activator, instance.ActivatedBy).Error; err == nil {
		actorName = activator.FullName
	} else {
		slog.Warn("Не удалось загрузить активатора плейбука", "instance_id", instance.ID, "error", err)
	}

	createNotification(models.Notification{
		UserID:     instance.ActivatedBy,
		ActorName:  actorName,
		Kind:       models.NotificationPlaybookCompleted,
		Body:       "Плейбук \"" + instance.TemplateName + "\" выполнен полностью",
		EntityType: "playbook_instance",
		EntityID:   instance.ID,
	})
}

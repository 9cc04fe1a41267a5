package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactflow-crm/config"
	"impactflow-crm/models"
)

func twoStepSections() models.PlaybookSections {
	return models.PlaybookSections{
		{
			ID: "s1", Name: "Kickoff", Order: 1,
			Steps: []models.PlaybookStep{
				{ID: "st1", Name: "Intro call", Order: 1},
				{ID: "st2", Name: "Handover", Order: 2},
			},
		},
	}
}

func activeInstance(t *testing.T, sections models.PlaybookSections) *models.PlaybookInstance {
	t.Helper()

	snapshot, err := sections.DeepCopy()
	require.NoError(t, err)

	instance := &models.PlaybookInstance{
		TemplateID:       1,
		TemplateName:     "Onboarding",
		TemplateSnapshot: snapshot,
		Status:           models.InstanceStatusActive,
		ActivatedBy:      1,
		ActivatedAt:      time.Now(),
	}
	require.NoError(t, config.DB.Create(instance).Error)
	return instance
}

func completeStep(instanceID uint, stepID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{
		{Key: "id", Value: strconv.FormatUint(uint64(instanceID), 10)},
		{Key: "stepId", Value: stepID},
	}
	c.Set("user_id", uint(1))
	CompleteStepHandler(c)
	return w
}

func completionCount(t *testing.T, instanceID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, config.DB.Model(&models.StepCompletion{}).Where("instance_id = ?", instanceID).Count(&count).Error)
	return count
}

func TestCompleteStep_Idempotent(t *testing.T) {
	setupTestDB(t)
	instance := activeInstance(t, twoStepSections())

	first := completeStep(instance.ID, "st1")
	require.Equal(t, http.StatusCreated, first.Code)

	// Повторная отметка того же шага - no-op с существующей записью.
	second := completeStep(instance.ID, "st1")
	require.Equal(t, http.StatusOK, second.Code)

	assert.EqualValues(t, 1, completionCount(t, instance.ID))

	var reloaded models.PlaybookInstance
	require.NoError(t, config.DB.First(&reloaded, instance.ID).Error)
	assert.Equal(t, models.InstanceStatusActive, reloaded.Status)
}

func TestCompleteStep_AutoCompletesExactlyOnce(t *testing.T) {
	setupTestDB(t)
	instance := activeInstance(t, twoStepSections())

	require.Equal(t, http.StatusCreated, completeStep(instance.ID, "st1").Code)

	// После первого шага экземпляр еще активен.
	var reloaded models.PlaybookInstance
	require.NoError(t, config.DB.First(&reloaded, instance.ID).Error)
	require.Equal(t, models.InstanceStatusActive, reloaded.Status)

	// Последний шаг переводит экземпляр в "completed".
	require.Equal(t, http.StatusCreated, completeStep(instance.ID, "st2").Code)
	require.NoError(t, config.DB.First(&reloaded, instance.ID).Error)
	assert.Equal(t, models.InstanceStatusCompleted, reloaded.Status)

	// Повторные отметки на завершенном экземпляре ничего не меняют:
	// записей по-прежнему две, второго перехода статуса нет.
	require.Equal(t, http.StatusOK, completeStep(instance.ID, "st2").Code)
	require.Equal(t, http.StatusOK, completeStep(instance.ID, "st1").Code)

	assert.EqualValues(t, 2, completionCount(t, instance.ID))
	require.NoError(t, config.DB.First(&reloaded, instance.ID).Error)
	assert.Equal(t, models.InstanceStatusCompleted, reloaded.Status)
}

func TestCompleteStep_RejectsStepOutsideSnapshot(t *testing.T) {
	setupTestDB(t)
	instance := activeInstance(t, twoStepSections())

	w := completeStep(instance.ID, "ghost")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 0, completionCount(t, instance.ID))
}

func TestCompleteStep_InstanceNotFound(t *testing.T) {
	setupTestDB(t)

	w := completeStep(12345, "st1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivatePlaybook_RequiresExactlyOneParent(t *testing.T) {
	setupTestDB(t)
	template := models.PlaybookTemplate{Name: "Onboarding", Version: 1, Sections: twoStepSections()}
	require.NoError(t, config.DB.Create(&template).Error)

	dealID := uint(1)
	projectID := uint(2)

	w := postJSON(t, ActivatePlaybookInput{TemplateID: template.ID, DealID: &dealID, ProjectID: &projectID}, nil, ActivatePlaybookHandler)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, ActivatePlaybookInput{TemplateID: template.ID}, nil, ActivatePlaybookHandler)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, ActivatePlaybookInput{TemplateID: template.ID, DealID: &dealID}, nil, ActivatePlaybookHandler)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestActivatePlaybook_SnapshotFrozenAgainstTemplateEdits(t *testing.T) {
	setupTestDB(t)
	template := models.PlaybookTemplate{Name: "Onboarding", Version: 1, Sections: twoStepSections()}
	require.NoError(t, config.DB.Create(&template).Error)

	dealID := uint(1)
	w := postJSON(t, ActivatePlaybookInput{TemplateID: template.ID, DealID: &dealID}, nil, ActivatePlaybookHandler)
	require.Equal(t, http.StatusCreated, w.Code)

	// Правим шаблон после активации: добавляем третий шаг.
	template.Sections[0].Steps = append(template.Sections[0].Steps, models.PlaybookStep{ID: "st3", Name: "Extra", Order: 3})
	template.Version++
	require.NoError(t, config.DB.Save(&template).Error)

	var instance models.PlaybookInstance
	require.NoError(t, config.DB.First(&instance).Error)
	assert.Equal(t, 2, instance.TemplateSnapshot.TotalSteps())
	assert.False(t, instance.TemplateSnapshot.StepIDs()["st3"])
}

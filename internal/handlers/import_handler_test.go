package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactflow-crm/config"
	"impactflow-crm/internal/importer"
	"impactflow-crm/models"
)

// contactUploadAtConfirm создает сессию импорта контактов на шаге
// подтверждения с одной строкой, чей домен компании не разрешился.
func contactUploadAtConfirm(t *testing.T) *models.ImportUpload {
	t.Helper()

	upload := &models.ImportUpload{
		UploadID:   uuid.NewString(),
		Kind:       models.ImportKindContact,
		Step:       importer.StepConfirm,
		SourceName: "contacts.csv",
		Headers:    models.StringSlice{"Name", "Email", "Company Domain"},
		Rows:       models.RowsData{{"Bob Lee", "bob@newco.io", "newco.io"}},
		RowCount:   1,
		Mapping: models.StringMap{
			"Name":           importer.FieldName,
			"Email":          importer.FieldEmail,
			"Company Domain": importer.FieldCompanyDomain,
		},
		CreatedBy: 1,
	}
	require.NoError(t, config.DB.Create(upload).Error)
	return upload
}

func TestExecuteImport_RejectsUnknownCompanySelection(t *testing.T) {
	setupTestDB(t)
	upload := contactUploadAtConfirm(t)

	// Выбор несуществующей компании должен отклоняться до выполнения,
	// иначе контакт останется с болтающейся ссылкой.
	w := postJSON(t, ExecuteImportInput{CompanySelections: map[int]uint{0: 999}},
		gin.Params{{Key: "uploadId", Value: upload.UploadID}}, ExecuteImportHandler)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var contacts int64
	require.NoError(t, config.DB.Model(&models.Contact{}).Count(&contacts).Error)
	assert.Zero(t, contacts)

	var reloaded models.ImportUpload
	require.NoError(t, config.DB.First(&reloaded, upload.ID).Error)
	assert.Equal(t, importer.StepConfirm, reloaded.Step)
}

func TestExecuteImport_CreatesContactWithSelectedCompany(t *testing.T) {
	db := setupTestDB(t)
	acme := models.Company{Name: "Acme", Domain: "acme.com"}
	require.NoError(t, db.Create(&acme).Error)
	upload := contactUploadAtConfirm(t)

	w := postJSON(t, ExecuteImportInput{CompanySelections: map[int]uint{0: acme.ID}},
		gin.Params{{Key: "uploadId", Value: upload.UploadID}}, ExecuteImportHandler)
	require.Equal(t, http.StatusOK, w.Code)

	var contact models.Contact
	require.NoError(t, db.First(&contact).Error)
	assert.Equal(t, "bob@newco.io", contact.Email)
	require.NotNil(t, contact.CompanyID)
	assert.Equal(t, acme.ID, *contact.CompanyID)

	var reloaded models.ImportUpload
	require.NoError(t, db.First(&reloaded, upload.ID).Error)
	assert.Equal(t, importer.StepExecuted, reloaded.Step)
}

func TestExecuteImport_RejectedOffConfirmStep(t *testing.T) {
	setupTestDB(t)
	upload := contactUploadAtConfirm(t)
	require.NoError(t, config.DB.Model(upload).Update("step", importer.StepPreview).Error)

	w := postJSON(t, ExecuteImportInput{},
		gin.Params{{Key: "uploadId", Value: upload.UploadID}}, ExecuteImportHandler)
	assert.Equal(t, http.StatusConflict, w.Code)
}

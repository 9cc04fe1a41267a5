// impactflow-crm/internal/handlers/import_handler.go
package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"impactflow-crm/config"
	"impactflow-crm/internal/importer"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// UploadImportHandler принимает CSV или XLSX файл и открывает сессию
// мастера импорта. После успешного разбора мастер сразу на шаге "map".
func UploadImportHandler(c *gin.Context) {
	kind := c.PostForm("kind")
	if kind != models.ImportKindCompany && kind != models.ImportKindContact {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите тип импорта: company или contact"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл не передан"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось открыть файл: " + err.Error()})
		return
	}
	defer file.Close()

	var headers []string
	var rows [][]string
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		headers, rows, err = parseCSV(file)
	case ".xlsx":
		headers, rows, err = parseXLSX(file)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Поддерживаются только файлы .csv и .xlsx"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	createUploadSession(c, kind, fileHeader.Filename, headers, rows)
}

// SpreadsheetImportInput - импорт по ссылке на Google-таблицу.
type SpreadsheetImportInput struct {
	URL  string `json:"url" binding:"required"`
	Kind string `json:"kind" binding:"required"`
}

// ImportFromSpreadsheetHandler читает таблицу по ссылке через Sheets API.
// Ошибки доступа возвращаются оператору дословно; мастер остается на
// шаге загрузки, автоматических повторов нет.
func ImportFromSpreadsheetHandler(c *gin.Context) {
	var input SpreadsheetImportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите ссылку на таблицу и тип импорта"})
		return
	}
	if input.Kind != models.ImportKindCompany && input.Kind != models.ImportKindContact {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите тип импорта: company или contact"})
		return
	}

	if config.SheetsService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Импорт из Google Таблиц не настроен"})
		return
	}

	match := spreadsheetIDPattern.FindStringSubmatch(input.URL)
	if match == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не удалось распознать ссылку на Google Таблицу"})
		return
	}

	resp, err := config.SheetsService.Spreadsheets.Values.Get(match[1], "A1:ZZ100000").Do()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var headers []string
	var rows [][]string
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		if i == 0 {
			headers = cells
		} else {
			rows = append(rows, cells)
		}
	}

	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "В таблице не обнаружено ни одной колонки"})
		return
	}

	createUploadSession(c, input.Kind, input.URL, headers, rows)
}

func createUploadSession(c *gin.Context, kind, sourceName string, headers []string, rows [][]string) {
	upload := models.ImportUpload{
		UploadID:   uuid.NewString(),
		Kind:       kind,
		Step:       importer.StepMap,
		SourceName: sourceName,
		Headers:    headers,
		Rows:       rows,
		RowCount:   len(rows),
		Mapping:    importer.AutoMapHeaders(headers, kind),
		CreatedBy:  c.MustGet("user_id").(uint),
	}

	if err := config.DB.Create(&upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить сессию импорта: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uploadId": upload.UploadID,
		"headers":  upload.Headers,
		"rowCount": upload.RowCount,
		"mapping":  upload.Mapping,
		"step":     upload.Step,
	})
}

// parseCSV разбирает CSV: первая строка - заголовки.
func parseCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось разобрать CSV: %v", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, nil, errors.New("В файле не обнаружено ни одной колонки")
	}
	return records[0], records[1:], nil
}

// parseXLSX читает первый лист книги.
func parseXLSX(r io.Reader) ([]string, [][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть XLSX: %v", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("В книге нет ни одного листа")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось прочитать лист: %v", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil, errors.New("В файле не обнаружено ни одной колонки")
	}
	return rows[0], rows[1:], nil
}

func findUpload(c *gin.Context) (*models.ImportUpload, bool) {
	var upload models.ImportUpload
	if err := config.DB.Where("upload_id = ?", c.Param("uploadId")).First(&upload).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Сессия импорта не найдена"})
		return nil, false
	}
	return &upload, true
}

// SaveMappingInput - маппинг колонка -> целевое поле.
type SaveMappingInput struct {
	Mapping map[string]string `json:"mapping" binding:"required"`
}

// SaveMappingHandler сохраняет маппинг колонок и переводит мастер на превью.
func SaveMappingHandler(c *gin.Context) {
	upload, ok := findUpload(c)
	if !ok {
		return
	}
	if upload.Step != importer.StepMap {
		c.JSON(http.StatusConflict, gin.H{"error": "Маппинг можно менять только на шаге выбора колонок"})
		return
	}

	var input SaveMappingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный маппинг колонок"})
		return
	}

	next, err := importer.Advance(upload.Step)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	upload.Mapping = input.Mapping
	upload.Step = next
	if err := config.DB.Save(upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить маппинг: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"step": upload.Step, "mapping": upload.Mapping})
}

// classifyUpload классифицирует строки сессии против текущего состояния БД.
func classifyUpload(upload *models.ImportUpload) ([]importer.RowResult, importer.Summary, error) {
	records := make([]map[string]string, 0, len(upload.Rows))
	for _, row := range upload.Rows {
		records = append(records, importer.MapRow(upload.Headers, upload.Mapping, row))
	}

	var companies []models.Company
	if err := config.DB.Find(&companies).Error; err != nil {
		return nil, importer.Summary{}, err
	}

	if upload.Kind == models.ImportKindCompany {
		results, summary := importer.ClassifyCompanyRows(records, companies)
		return results, summary, nil
	}

	var contacts []models.Contact
	if err := config.DB.Find(&contacts).Error; err != nil {
		return nil, importer.Summary{}, err
	}
	results, summary := importer.ClassifyContactRows(records, companies, contacts)
	return results, summary, nil
}

// GetPreviewHandler возвращает классификацию строк и агрегаты.
// Для строк "needs-company-selection" прикладывается список компаний-кандидатов.
func GetPreviewHandler(c *gin.Context) {
	upload, ok := findUpload(c)
	if !ok {
		return
	}
	if upload.Step != importer.StepPreview && upload.Step != importer.StepConfirm {
		c.JSON(http.StatusConflict, gin.H{"error": "Превью доступно после сохранения маппинга"})
		return
	}

	results, summary, err := classifyUpload(upload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось построить превью: " + err.Error()})
		return
	}

	type rowError struct {
		RowIndex int    `json:"rowIndex"`
		Message  string `json:"message"`
	}
	rowErrors := []rowError{}
	for _, r := range results {
		for _, msg := range r.Errors {
			rowErrors = append(rowErrors, rowError{RowIndex: r.RowIndex, Message: msg})
		}
	}

	response := gin.H{
		"summary": summary,
		"rows":    results,
		"errors":  rowErrors,
		"step":    upload.Step,
	}

	if summary.NeedsSelection > 0 {
		var companies []models.Company
		if err := config.DB.Order("name asc").Find(&companies).Error; err == nil {
			response["companies"] = companies
		}
	}

	c.JSON(http.StatusOK, response)
}

// ConfirmImportHandler переводит мастер с превью на шаг подтверждения.
func ConfirmImportHandler(c *gin.Context) {
	upload, ok := findUpload(c)
	if !ok {
		return
	}
	if upload.Step != importer.StepPreview {
		c.JSON(http.StatusConflict, gin.H{"error": "Подтверждение доступно только с шага превью"})
		return
	}

	next, err := importer.Advance(upload.Step)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	upload.Step = next
	if err := config.DB.Save(upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить сессию импорта"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": upload.Step})
}

// ExecuteImportInput - решения оператора: какие строки пометить
// целевыми аккаунтами и какие компании выбраны для контактов без
// автоматического совпадения.
type ExecuteImportInput struct {
	TargetAccounts    map[int]bool `json:"targetAccounts"`
	CompanySelections map[int]uint `json:"companySelections"`
}

// ExecuteSummary - агрегаты выполненного импорта.
type ExecuteSummary struct {
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	TargetAccounts int `json:"targetAccounts"`
	Failed         int `json:"failed"`
}

// ExecuteImportHandler выполняет пакетный upsert. Выполнение отклоняется,
// пока остаются строки с ошибками или неразрешенные строки выбора
// компании - это предусловие, а не повтор.
func ExecuteImportHandler(c *gin.Context) {
	upload, ok := findUpload(c)
	if !ok {
		return
	}
	if !importer.CanExecute(upload.Step) {
		c.JSON(http.StatusConflict, gin.H{"error": "Импорт можно выполнить только с шага подтверждения"})
		return
	}

	var input ExecuteImportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные выполнения импорта"})
		return
	}

	results, _, err := classifyUpload(upload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось классифицировать строки: " + err.Error()})
		return
	}

	if importer.Blocked(results, input.CompanySelections) {
		c.JSON(http.StatusConflict, gin.H{"error": "Импорт заблокирован: остались строки с ошибками или без выбранной компании"})
		return
	}

	if err := verifySelectedCompanies(results, input.CompanySelections); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var summary ExecuteSummary
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if upload.Kind == models.ImportKindCompany {
			summary, err = executeCompanyImport(tx, results, input.TargetAccounts)
		} else {
			summary, err = executeContactImport(tx, results, input.CompanySelections)
		}
		if err != nil {
			return err
		}

		upload.Step = importer.StepExecuted
		return tx.Save(upload).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выполнить импорт: " + err.Error()})
		return
	}

	if upload.Kind == models.ImportKindCompany {
		invalidateEntityCache("companies")
	} else {
		invalidateEntityCache("contacts")
	}

	go createNotification(models.Notification{
		UserID:     upload.CreatedBy,
		Kind:       models.NotificationImportFinished,
		Body:       fmt.Sprintf("Импорт завершен: создано %d, обновлено %d", summary.Created, summary.Updated),
		EntityType: "import",
		EntityID:   upload.ID,
	})

	slog.Info("Импорт выполнен",
		"upload_id", upload.UploadID,
		"kind", upload.Kind,
		"created", summary.Created,
		"updated", summary.Updated,
	)

	c.JSON(http.StatusOK, gin.H{"summary": summary, "step": upload.Step})
}

// verifySelectedCompanies проверяет, что каждая компания, выбранная
// оператором для строки без автоматического совпадения, существует в БД.
// Несуществующий ID оставил бы контакт с болтающейся ссылкой.
func verifySelectedCompanies(results []importer.RowResult, selections map[int]uint) error {
	idSet := make(map[uint]bool)
	for _, r := range results {
		if r.Status == importer.RowNeedsCompany {
			idSet[selections[r.RowIndex]] = true
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var count int64
	if err := config.DB.Model(&models.Company{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("не удалось проверить выбранные компании: %w", err)
	}
	if count != int64(len(ids)) {
		return errors.New("Одна из выбранных компаний не существует")
	}
	return nil
}

func executeCompanyImport(tx *gorm.DB, results []importer.RowResult, targets map[int]bool) (ExecuteSummary, error) {
	var summary ExecuteSummary

	for _, r := range results {
		markTarget := targets[r.RowIndex]

		switch r.Status {
		case importer.RowNew:
			company := models.Company{
				Name:            r.Data[importer.FieldCompanyName],
				Domain:          importer.NormalizeDomain(r.Data[importer.FieldDomain]),
				Industry:        r.Data[importer.FieldIndustry],
				IsTargetAccount: markTarget,
			}
			if err := tx.Create(&company).Error; err != nil {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}
			summary.Created++
			if markTarget {
				summary.TargetAccounts++
			}

		case importer.RowUpdate:
			var company models.Company
			if err := tx.First(&company, r.MatchID).Error; err != nil {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}
			importer.FillCompanyBlanks(&company, r.Data)
			if markTarget && !company.IsTargetAccount {
				company.IsTargetAccount = true
				summary.TargetAccounts++
			}
			if err := tx.Save(&company).Error; err != nil {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}
			summary.Updated++
		}
	}

	return summary, nil
}

func executeContactImport(tx *gorm.DB, results []importer.RowResult, selections map[int]uint) (ExecuteSummary, error) {
	var summary ExecuteSummary

	for _, r := range results {
		companyID := r.CompanyID
		if r.Status == importer.RowNeedsCompany {
			chosen := selections[r.RowIndex]
			companyID = &chosen
		}

		email := strings.ToLower(r.Data[importer.FieldEmail])

		switch r.Status {
		case importer.RowNew, importer.RowNeedsCompany:
			// Для строк с выбранной вручную компанией ключ (email, companyId)
			// перепроверяется: совпадение превращает строку в обновление.
			var existing models.Contact
			err := tx.Where("LOWER(email) = ? AND company_id = ?", email, companyID).First(&existing).Error
			if err == nil {
				importer.FillContactBlanks(&existing, r.Data)
				if err := tx.Save(&existing).Error; err != nil {
					return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
				}
				summary.Updated++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}

			contact := models.Contact{
				Name:      r.Data[importer.FieldName],
				Email:     email,
				Phone:     r.Data[importer.FieldPhone],
				CompanyID: companyID,
				Role:      r.Data[importer.FieldRole],
				LinkedIn:  r.Data[importer.FieldLinkedIn],
			}
			if err := tx.Create(&contact).Error; err != nil {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}
			summary.Created++

		case importer.RowUpdate:
			var contact models.Contact
			if err := tx.First(&contact, r.MatchID).Error; err != nil {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}
			importer.FillContactBlanks(&contact, r.Data)
			if err := tx.Save(&contact).Error; err != nil {
				return summary, fmt.Errorf("строка %d: %w", r.RowIndex, err)
			}
			summary.Updated++
		}
	}

	return summary, nil
}

// ImportBackHandler возвращает мастер на предыдущий шаг и сбрасывает
// вычисленное ниже по течению состояние.
func ImportBackHandler(c *gin.Context) {
	upload, ok := findUpload(c)
	if !ok {
		return
	}

	prev, reset, err := importer.Back(upload.Step)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	applyReset(upload, reset)
	upload.Step = prev
	if err := config.DB.Save(upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить сессию импорта"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"step": upload.Step})
}

// StartOverImportHandler полностью сбрасывает сессию мастера.
// Допустимо с любого шага, включая терминальный "executed".
func StartOverImportHandler(c *gin.Context) {
	upload, ok := findUpload(c)
	if !ok {
		return
	}

	step, reset := importer.StartOver()
	applyReset(upload, reset)
	upload.Step = step
	if err := config.DB.Save(upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить сессию импорта"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"step": upload.Step})
}

func applyReset(upload *models.ImportUpload, reset importer.ResetScope) {
	switch reset {
	case importer.ResetEverything:
		upload.SourceName = ""
		upload.Headers = models.StringSlice{}
		upload.Rows = models.RowsData{}
		upload.RowCount = 0
		upload.Mapping = models.StringMap{}
	case importer.ResetPreview, importer.ResetDecisions:
		// Превью и решения оператора не хранятся на сервере между
		// запросами - сбрасывать нечего, классификация пересчитывается.
	}
}

// impactflow-crm/internal/importer/importer.go
package importer

import (
	"strings"

	"impactflow-crm/models"
)

// Статусы строки после классификации.
const (
	RowNew          = "new"
	RowUpdate       = "update"
	RowError        = "error"
	RowNeedsCompany = "needs-company-selection"
)

// Целевые поля маппинга колонок.
const (
	FieldIgnore        = "ignore"
	FieldCompanyName   = "companyName"
	FieldDomain        = "domain"
	FieldIndustry      = "industry"
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldRole          = "role"
	FieldLinkedIn      = "linkedin"
	FieldCompanyDomain = "companyDomain"
)

// RowResult - результат классификации одной строки импорта.
type RowResult struct {
	RowIndex              int               `json:"rowIndex"`
	Status                string            `json:"status"`
	Data                  map[string]string `json:"data"`
	Errors                []string          `json:"errors,omitempty"`
	NeedsCompanySelection bool              `json:"needsCompanySelection,omitempty"`
	// MatchID - ID существующей записи при статусе "update".
	MatchID uint `json:"matchId,omitempty"`
	// CompanyID - компания, к которой привязывается контакт (если нашлась по домену).
	CompanyID *uint `json:"companyId,omitempty"`
}

// Summary - агрегаты превью импорта.
type Summary struct {
	Total          int `json:"total"`
	New            int `json:"new"`
	Updates        int `json:"updates"`
	Errors         int `json:"errors"`
	NeedsSelection int `json:"needsSelection"`
}

// NormalizeDomain приводит домен к каноническому виду для сопоставления:
// нижний регистр, без схемы, без "www.", без пути, порта и query-строки.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return ""
	}
	if idx := strings.Index(d, "://"); idx != -1 {
		d = d[idx+3:]
	}
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.IndexAny(d, "/?#"); idx != -1 {
		d = d[:idx]
	}
	if idx := strings.Index(d, ":"); idx != -1 {
		d = d[:idx]
	}
	return strings.TrimSuffix(d, ".")
}

// Таблицы алиасов для автоматического маппинга заголовков.
var companyHeaderAliases = map[string]string{
	"company":       FieldCompanyName,
	"company name":  FieldCompanyName,
	"organization":  FieldCompanyName,
	"organisation":  FieldCompanyName,
	"business name": FieldCompanyName,
	"name":          FieldCompanyName,
	"domain":        FieldDomain,
	"website":       FieldDomain,
	"url":           FieldDomain,
	"site":          FieldDomain,
	"industry":      FieldIndustry,
	"sector":        FieldIndustry,
}

var contactHeaderAliases = map[string]string{
	"name":          FieldName,
	"full name":     FieldName,
	"contact name":  FieldName,
	"email":         FieldEmail,
	"e-mail":        FieldEmail,
	"email address": FieldEmail,
	"phone":         FieldPhone,
	"phone number":  FieldPhone,
	"mobile":        FieldPhone,
	"role":          FieldRole,
	"title":         FieldRole,
	"job title":     FieldRole,
	"position":      FieldRole,
	"linkedin":      FieldLinkedIn,
	"linkedin url":  FieldLinkedIn,
	"company":       FieldCompanyDomain,
	"company name":  FieldCompanyDomain,
	"organization":  FieldCompanyDomain,
	"website":       FieldCompanyDomain,
	"domain":        FieldCompanyDomain,
}

// AutoMapHeaders строит маппинг заголовок->поле по таблице алиасов.
// Несопоставленные заголовки получают "ignore"; оператор может изменить
// любое значение до сохранения маппинга.
func AutoMapHeaders(headers []string, kind string) map[string]string {
	aliases := companyHeaderAliases
	if kind == models.ImportKindContact {
		aliases = contactHeaderAliases
	}

	mapping := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if field, ok := aliases[key]; ok {
			mapping[h] = field
		} else {
			mapping[h] = FieldIgnore
		}
	}
	return mapping
}

// MapRow превращает сырую строку таблицы в запись поле->значение
// согласно сохраненному маппингу колонок.
func MapRow(headers []string, mapping map[string]string, row []string) map[string]string {
	record := make(map[string]string)
	for i, h := range headers {
		field := mapping[h]
		if field == "" || field == FieldIgnore {
			continue
		}
		if i < len(row) {
			record[field] = strings.TrimSpace(row[i])
		}
	}
	return record
}

// ClassifyCompanyRows классифицирует строки импорта компаний против
// существующих записей. Ключ сопоставления - нормализованный домен.
func ClassifyCompanyRows(rows []map[string]string, existing []models.Company) ([]RowResult, Summary) {
	byDomain := make(map[string]models.Company, len(existing))
	for _, c := range existing {
		if d := NormalizeDomain(c.Domain); d != "" {
			byDomain[d] = c
		}
	}

	results := make([]RowResult, 0, len(rows))
	summary := Summary{Total: len(rows)}

	for i, data := range rows {
		result := RowResult{RowIndex: i, Data: data}

		if data[FieldCompanyName] == "" {
			result.Errors = append(result.Errors, "Не указано название компании")
		}
		domain := NormalizeDomain(data[FieldDomain])
		if domain == "" {
			result.Errors = append(result.Errors, "Не указан домен компании")
		}

		if len(result.Errors) > 0 {
			result.Status = RowError
			summary.Errors++
			results = append(results, result)
			continue
		}

		if match, ok := byDomain[domain]; ok {
			result.Status = RowUpdate
			result.MatchID = match.ID
			summary.Updates++
		} else {
			result.Status = RowNew
			summary.New++
		}
		results = append(results, result)
	}

	return results, summary
}

// ClassifyContactRows классифицирует строки импорта контактов.
// Компания разрешается по тексту домена из строки; если совпадения нет,
// строка получает статус "needs-company-selection" и блокирует выполнение,
// пока оператор не выберет компанию явно. Автосоздания компании нет.
func ClassifyContactRows(rows []map[string]string, companies []models.Company, existing []models.Contact) ([]RowResult, Summary) {
	companyByDomain := make(map[string]models.Company, len(companies))
	for _, c := range companies {
		if d := NormalizeDomain(c.Domain); d != "" {
			companyByDomain[d] = c
		}
	}

	type contactKey struct {
		email     string
		companyID uint
	}
	byKey := make(map[contactKey]models.Contact, len(existing))
	for _, ct := range existing {
		if ct.Email == "" || ct.CompanyID == nil {
			continue
		}
		byKey[contactKey{strings.ToLower(ct.Email), *ct.CompanyID}] = ct
	}

	results := make([]RowResult, 0, len(rows))
	summary := Summary{Total: len(rows)}

	for i, data := range rows {
		result := RowResult{RowIndex: i, Data: data}

		if data[FieldName] == "" {
			result.Errors = append(result.Errors, "Не указано имя контакта")
		}
		email := strings.ToLower(data[FieldEmail])
		if email == "" {
			result.Errors = append(result.Errors, "Не указан email контакта")
		}

		if len(result.Errors) > 0 {
			result.Status = RowError
			summary.Errors++
			results = append(results, result)
			continue
		}

		companyDomain := NormalizeDomain(data[FieldCompanyDomain])
		match, found := companyByDomain[companyDomain]
		if companyDomain == "" || !found {
			result.Status = RowNeedsCompany
			result.NeedsCompanySelection = true
			summary.NeedsSelection++
			results = append(results, result)
			continue
		}

		companyID := match.ID
		result.CompanyID = &companyID

		if ct, ok := byKey[contactKey{email, companyID}]; ok {
			result.Status = RowUpdate
			result.MatchID = ct.ID
			summary.Updates++
		} else {
			result.Status = RowNew
			summary.New++
		}
		results = append(results, result)
	}

	return results, summary
}

// Blocked сообщает, можно ли выполнять импорт: строки со статусом
// "error" и неразрешенные "needs-company-selection" блокируют выполнение.
// resolved - выбор компаний оператором (rowIndex -> companyId).
func Blocked(results []RowResult, resolved map[int]uint) bool {
	for _, r := range results {
		if r.Status == RowError {
			return true
		}
		if r.Status == RowNeedsCompany {
			if _, ok := resolved[r.RowIndex]; !ok {
				return true
			}
		}
	}
	return false
}

// FillCompanyBlanks применяет политику fill-blank-only: поле существующей
// компании перезаписывается только если его текущее значение пусто.
// Возвращается список измененных полей.
func FillCompanyBlanks(existing *models.Company, data map[string]string) []string {
	var changed []string
	if existing.Name == "" && data[FieldCompanyName] != "" {
		existing.Name = data[FieldCompanyName]
		changed = append(changed, FieldCompanyName)
	}
	if existing.Domain == "" {
		if d := NormalizeDomain(data[FieldDomain]); d != "" {
			existing.Domain = d
			changed = append(changed, FieldDomain)
		}
	}
	if existing.Industry == "" && data[FieldIndustry] != "" {
		existing.Industry = data[FieldIndustry]
		changed = append(changed, FieldIndustry)
	}
	return changed
}

// FillContactBlanks - то же для контактов.
func FillContactBlanks(existing *models.Contact, data map[string]string) []string {
	var changed []string
	if existing.Name == "" && data[FieldName] != "" {
		existing.Name = data[FieldName]
		changed = append(changed, FieldName)
	}
	if existing.Email == "" && data[FieldEmail] != "" {
		existing.Email = strings.ToLower(data[FieldEmail])
		changed = append(changed, FieldEmail)
	}
	if existing.Phone == "" && data[FieldPhone] != "" {
		existing.Phone = data[FieldPhone]
		changed = append(changed, FieldPhone)
	}
	if existing.Role == "" && data[FieldRole] != "" {
		existing.Role = data[FieldRole]
		changed = append(changed, FieldRole)
	}
	if existing.LinkedIn == "" && data[FieldLinkedIn] != "" {
		existing.LinkedIn = data[FieldLinkedIn]
		changed = append(changed, FieldLinkedIn)
	}
	return changed
}

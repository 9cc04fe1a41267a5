package importer

import (
	"testing"

	"impactflow-crm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"":                                  "",
		"acme.io":                           "acme.io",
		"ACME.IO":                           "acme.io",
		"  acme.io  ":                       "acme.io",
		"https://acme.io":                   "acme.io",
		"http://www.acme.io/about?ref=x":    "acme.io",
		"www.acme.io":                       "acme.io",
		"acme.io:8080":                      "acme.io",
		"https://www.acme.io/path#fragment": "acme.io",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, NormalizeDomain(input), "input %q", input)
	}
}

func TestAutoMapHeaders_Company(t *testing.T) {
	headers := []string{"Company", "Website", "Industry", "Some Custom Column"}
	mapping := AutoMapHeaders(headers, models.ImportKindCompany)

	assert.Equal(t, FieldCompanyName, mapping["Company"])
	assert.Equal(t, FieldDomain, mapping["Website"])
	assert.Equal(t, FieldIndustry, mapping["Industry"])
	assert.Equal(t, FieldIgnore, mapping["Some Custom Column"])
}

func TestAutoMapHeaders_ContactAliasesAndCase(t *testing.T) {
	headers := []string{"  E-MAIL ", "Full Name", "Job Title", "Company"}
	mapping := AutoMapHeaders(headers, models.ImportKindContact)

	assert.Equal(t, FieldEmail, mapping["  E-MAIL "])
	assert.Equal(t, FieldName, mapping["Full Name"])
	assert.Equal(t, FieldRole, mapping["Job Title"])
	assert.Equal(t, FieldCompanyDomain, mapping["Company"])
}

func TestMapRow(t *testing.T) {
	headers := []string{"Company", "Website", "Notes"}
	mapping := map[string]string{"Company": FieldCompanyName, "Website": FieldDomain, "Notes": FieldIgnore}

	record := MapRow(headers, mapping, []string{" Acme ", "acme.io"})
	assert.Equal(t, "Acme", record[FieldCompanyName])
	assert.Equal(t, "acme.io", record[FieldDomain])
	_, hasNotes := record["Notes"]
	assert.False(t, hasNotes)
}

func companyRow(name, domain string) map[string]string {
	row := map[string]string{}
	if name != "" {
		row[FieldCompanyName] = name
	}
	if domain != "" {
		row[FieldDomain] = domain
	}
	return row
}

func existingCompany(id uint, name, domain string) models.Company {
	c := models.Company{Name: name, Domain: domain}
	c.ID = id
	return c
}

func TestClassifyCompanyRows_NewUpdateError(t *testing.T) {
	existing := []models.Company{
		existingCompany(1, "Acme", "acme.io"),
	}

	rows := []map[string]string{
		companyRow("Acme Corp", "https://www.acme.io/about"), // update по нормализованному домену
		companyRow("Globex", "globex.com"),                   // new
		companyRow("NoDomain", ""),                           // error
		companyRow("", "nameless.io"),                        // error
	}

	results, summary := ClassifyCompanyRows(rows, existing)
	require.Len(t, results, 4)

	assert.Equal(t, RowUpdate, results[0].Status)
	assert.Equal(t, uint(1), results[0].MatchID)
	assert.Equal(t, RowNew, results[1].Status)
	assert.Equal(t, RowError, results[2].Status)
	assert.NotEmpty(t, results[2].Errors)
	assert.Equal(t, RowError, results[3].Status)

	assert.Equal(t, Summary{Total: 4, New: 1, Updates: 1, Errors: 2}, summary)
}

// Сценарий из приемочных требований: 10 строк, 6 совпадений по домену,
// 3 новых домена, 1 строка без домена.
func TestClassifyCompanyRows_TenRowScenario(t *testing.T) {
	var existing []models.Company
	domains := []string{"a.io", "b.io", "c.io", "d.io", "e.io", "f.io"}
	for i, d := range domains {
		existing = append(existing, existingCompany(uint(i+1), "Company", d))
	}

	var rows []map[string]string
	for _, d := range domains {
		rows = append(rows, companyRow("Company", d))
	}
	rows = append(rows,
		companyRow("New One", "new1.io"),
		companyRow("New Two", "new2.io"),
		companyRow("New Three", "new3.io"),
		companyRow("Broken", ""),
	)

	results, summary := ClassifyCompanyRows(rows, existing)
	assert.Equal(t, Summary{Total: 10, New: 3, Updates: 6, Errors: 1}, summary)

	// Строка с ошибкой блокирует выполнение.
	assert.True(t, Blocked(results, nil))

	// После исправления файла (строка получает домен) выполнение доступно.
	rows[9] = companyRow("Broken", "fixed.io")
	results, summary = ClassifyCompanyRows(rows, existing)
	assert.Equal(t, Summary{Total: 10, New: 4, Updates: 6, Errors: 0}, summary)
	assert.False(t, Blocked(results, nil))
}

func TestClassifyContactRows(t *testing.T) {
	companies := []models.Company{
		existingCompany(7, "Acme", "acme.io"),
	}

	companyID := uint(7)
	jane := models.Contact{Name: "Jane", Email: "jane@acme.io", CompanyID: &companyID}
	jane.ID = 42
	existing := []models.Contact{jane}

	rows := []map[string]string{
		{FieldName: "Jane Doe", FieldEmail: "JANE@acme.io", FieldCompanyDomain: "www.acme.io"}, // update: ключ (email, company)
		{FieldName: "John Roe", FieldEmail: "john@acme.io", FieldCompanyDomain: "acme.io"},     // new
		{FieldName: "Orphan", FieldEmail: "x@nowhere.io", FieldCompanyDomain: "nowhere.io"},    // needs-company-selection
		{FieldName: "NoMail", FieldCompanyDomain: "acme.io"},                                   // error
	}

	results, summary := ClassifyContactRows(rows, companies, existing)
	require.Len(t, results, 4)

	assert.Equal(t, RowUpdate, results[0].Status)
	assert.Equal(t, uint(42), results[0].MatchID)
	assert.Equal(t, RowNew, results[1].Status)
	require.NotNil(t, results[1].CompanyID)
	assert.Equal(t, uint(7), *results[1].CompanyID)
	assert.Equal(t, RowNeedsCompany, results[2].Status)
	assert.True(t, results[2].NeedsCompanySelection)
	assert.Equal(t, RowError, results[3].Status)

	assert.Equal(t, Summary{Total: 4, New: 1, Updates: 1, Errors: 1, NeedsSelection: 1}, summary)

	// Неразрешенный выбор компании блокирует выполнение даже без ошибок.
	assert.True(t, Blocked(results[:3], nil))
	assert.False(t, Blocked(results[:3], map[int]uint{2: 7}))
}

func TestFillCompanyBlanks(t *testing.T) {
	company := existingCompany(1, "Acme", "acme.io")
	company.Industry = ""

	changed := FillCompanyBlanks(&company, map[string]string{
		FieldCompanyName: "Acme Imported",
		FieldIndustry:    "Software",
	})

	// Непустые значения сохраняются, пустые заполняются.
	assert.Equal(t, "Acme", company.Name)
	assert.Equal(t, "Software", company.Industry)
	assert.Equal(t, []string{FieldIndustry}, changed)
}

func TestFillContactBlanks(t *testing.T) {
	contact := models.Contact{Name: "Jane", Email: "", Phone: "+7 777"}

	changed := FillContactBlanks(&contact, map[string]string{
		FieldName:  "Jane Imported",
		FieldEmail: "Jane@Acme.IO",
		FieldPhone: "+1 555",
		FieldRole:  "CTO",
	})

	assert.Equal(t, "Jane", contact.Name)
	assert.Equal(t, "jane@acme.io", contact.Email)
	assert.Equal(t, "+7 777", contact.Phone)
	assert.Equal(t, "CTO", contact.Role)
	assert.ElementsMatch(t, []string{FieldEmail, FieldRole}, changed)
}

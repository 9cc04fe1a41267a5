// impactflow-crm/models/playbook.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
)

// Statuses экземпляра плейбука.
const (
	InstanceStatusActive    = "active"
	InstanceStatusCompleted = "completed"
)

// Типы вложений к шагу.
const (
	AttachmentTypePDF       = "pdf"
	AttachmentTypeDriveFile = "drive-file"
)

// Attachment - файл, прикрепленный к шагу плейбука.
type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// PlaybookStep - один шаг внутри секции.
type PlaybookStep struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Instructions   string       `json:"instructions"`
	ChecklistItems []string     `json:"checklistItems"`
	Attachments    []Attachment `json:"attachments"`
	Order          int          `json:"order"`
}

// PlaybookSection - упорядоченная группа шагов.
type PlaybookSection struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Order int            `json:"order"`
	Steps []PlaybookStep `json:"steps"`
}

// PlaybookSections - специальный тип для хранения дерева секций в JSONB.
type PlaybookSections []PlaybookSection

// Value преобразует дерево секций в JSON для сохранения в БД.
func (s PlaybookSections) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan считывает данные из БД (в формате JSON) и преобразует их в дерево секций.
func (s *PlaybookSections) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, s)
}

// TotalSteps возвращает общее число шагов во всех секциях.
func (s PlaybookSections) TotalSteps() int {
	total := 0
	for _, section := range s {
		total += len(section.Steps)
	}
	return total
}

// StepIDs возвращает множество идентификаторов шагов дерева.
func (s PlaybookSections) StepIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, section := range s {
		for _, step := range section.Steps {
			ids[step.ID] = true
		}
	}
	return ids
}

// DeepCopy создает независимую копию дерева секций через JSON.
// Снапшот экземпляра никогда не должен ссылаться на живой шаблон.
func (s PlaybookSections) DeepCopy() (PlaybookSections, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var copied PlaybookSections
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, err
	}
	if copied == nil {
		copied = PlaybookSections{}
	}
	return copied, nil
}

// PlaybookTemplate представляет модель шаблона плейбука в базе данных.
// Version монотонно растет: каждое сохранение изменений увеличивает его на 1.
type PlaybookTemplate struct {
	gorm.Model
	Name        string           `json:"name" gorm:"not null"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Version     int              `json:"version" gorm:"default:1"`
	Sections    PlaybookSections `json:"sections" gorm:"type:jsonb"`
}

// Validate проверяет структурные инварианты шаблона перед сохранением.
// Возвращается первое нарушенное правило.
func (t *PlaybookTemplate) Validate() error {
	if t.Name == "" {
		return errors.New("Название шаблона обязательно")
	}
	if len(t.Sections) == 0 {
		return errors.New("Шаблон должен содержать хотя бы одну секцию")
	}
	for _, section := range t.Sections {
		if section.Name == "" {
			return errors.New("Каждая секция должна иметь название")
		}
		if len(section.Steps) == 0 {
			return errors.New("Секция '" + section.Name + "' должна содержать хотя бы один шаг")
		}
		for _, step := range section.Steps {
			if step.Name == "" {
				return errors.New("Каждый шаг секции '" + section.Name + "' должен иметь название")
			}
		}
	}
	return nil
}

// PlaybookInstance - активация шаблона против сделки или проекта.
// TemplateSnapshot - замороженная копия секций на момент активации:
// последующие правки шаблона не затрагивают уже созданные экземпляры.
type PlaybookInstance struct {
	gorm.Model
	TemplateID       uint             `json:"templateId"`
	TemplateName     string           `json:"templateName"`
	TemplateSnapshot PlaybookSections `json:"templateSnapshot" gorm:"type:jsonb"`
	DealID           *uint            `json:"dealId"`
	ProjectID        *uint            `json:"projectId"`
	CompanyID        *uint            `json:"companyId"`
	Status           string           `json:"status" gorm:"default:'active'"`
	ActivatedBy      uint             `json:"activatedBy"`
	ActivatedAt      time.Time        `json:"activatedAt"`
}

// StepCompletion - запись о выполнении шага. Append-only: на пару
// (instance, step) существует не более одной записи.
type StepCompletion struct {
	gorm.Model
	InstanceID  uint      `json:"instanceId" gorm:"uniqueIndex:idx_instance_step"`
	StepID      string    `json:"stepId" gorm:"uniqueIndex:idx_instance_step"`
	CompletedBy uint      `json:"completedBy"`
	CompletedAt time.Time `json:"completedAt"`
}

// Progress вычисляет производный прогресс экземпляра: число выполненных
// шагов, общее число шагов снапшота и процент (округленный).
// Учитываются только completions, чьи шаги присутствуют в снапшоте.
func (i *PlaybookInstance) Progress(completions []StepCompletion) (completed int, total int, percent int) {
	total = i.TemplateSnapshot.TotalSteps()
	if total == 0 {
		return 0, 0, 0
	}

	known := i.TemplateSnapshot.StepIDs()
	seen := make(map[string]bool)
	for _, c := range completions {
		if known[c.StepID] && !seen[c.StepID] {
			seen[c.StepID] = true
			completed++
		}
	}

	percent = int(math.Round(100 * float64(completed) / float64(total)))
	return completed, total, percent
}

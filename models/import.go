// impactflow-crm/models/import.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
)

// Виды импорта.
const (
	ImportKindCompany = "company"
	ImportKindContact = "contact"
)

// StringSlice - специальный тип для хранения массива строк в JSONB.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, s)
}

// RowsData - сырые строки загруженной таблицы в JSONB.
type RowsData [][]string

func (r RowsData) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *RowsData) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, r)
}

// StringMap - отображение строка->строка в JSONB (маппинг колонок).
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, m)
}

// ImportUpload - серверное состояние сессии мастера импорта.
// Снаружи сессия видна только по opaque UploadID; Step хранит текущий
// шаг мастера (upload -> map -> preview -> confirm -> executed).
type ImportUpload struct {
	gorm.Model
	UploadID   string      `json:"uploadId" gorm:"uniqueIndex;not null"`
	Kind       string      `json:"kind" gorm:"not null"`
	Step       string      `json:"step" gorm:"default:'map'"`
	SourceName string      `json:"sourceName"`
	Headers    StringSlice `json:"headers" gorm:"type:jsonb"`
	Rows       RowsData    `json:"-" gorm:"type:jsonb"`
	RowCount   int         `json:"rowCount"`
	Mapping    StringMap   `json:"mapping" gorm:"type:jsonb"`
	CreatedBy  uint        `json:"createdBy"`
}

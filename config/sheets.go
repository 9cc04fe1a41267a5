// impactflow-crm/config/sheets.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var SheetsService *sheets.Service

// InitGoogleServices инициализирует клиент Google Sheets API.
// Используется мастером импорта для чтения таблиц по ссылке.
func InitGoogleServices() error {
	ctx := context.Background()

	apiKey := os.Getenv("SHEETS_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SHEETS_API_KEY environment variable not set")
	}

	service, err := sheets.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return fmt.Errorf("unable to create Sheets client: %v", err)
	}
	SheetsService = service
	slog.Info("Google Sheets API client initialized successfully.")

	return nil
}

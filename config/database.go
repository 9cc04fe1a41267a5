// impactflow-crm/config/database.go
package config

import (
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB открывает соединение с Postgres по DSN из переменной
// окружения DATABASE_URL. Без базы сервис бесполезен, поэтому любая
// ошибка на этом этапе завершает процесс.
func ConnectDB() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		slog.Error("Переменная окружения DATABASE_URL не установлена")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("Не удалось подключиться к Postgres", "error", err)
		os.Exit(1)
	}

	DB = db
	slog.Info("Соединение с базой данных установлено")
}

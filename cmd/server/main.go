// impactflow-crm/cmd/server/main.go
package main

import (
	"log/slog"
	"os"

	"impactflow-crm/config"
	"impactflow-crm/internal/handlers"
	"impactflow-crm/internal/routes"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env опционален: в продакшене переменные приходят из окружения.
	if err := godotenv.Load(); err != nil {
		slog.Info("Файл .env не найден, используются переменные окружения")
	}

	config.ConnectDB()
	config.ConnectRedis()
	config.InitJWT()

	if err := config.InitGoogleServices(); err != nil {
		// Без Sheets API работает все, кроме импорта по ссылке на таблицу.
		slog.Warn("Google Sheets API недоступен, импорт по ссылке отключен", "error", err)
	}

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.SocialSignal{},
		&models.CompanyNote{},
		&models.Contact{},
		&models.ContactNote{},
		&models.Deal{},
		&models.Project{},
		&models.PlaybookTemplate{},
		&models.PlaybookInstance{},
		&models.StepCompletion{},
		&models.ImportUpload{},
		&models.Notification{},
	); err != nil {
		slog.Error("Ошибка миграции базы данных", "error", err)
		os.Exit(1)
	}

	go handlers.GlobalHub.Run()

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	slog.Info("Сервер запускается", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}

// impactflow-crm/internal/routes/api_routes.go
package routes

import (
	"impactflow-crm/internal/handlers"
	"impactflow-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// Профиль текущего пользователя
		apiGroup.GET("/profile", handlers.GetProfileHandler)

		// --- КОМПАНИИ ---
		companies := apiGroup.Group("/companies")
		{
			companies.GET("", handlers.ListCompaniesHandler)
			companies.POST("", handlers.CreateCompanyHandler)
			companies.POST("/bulk-delete", handlers.BulkDeleteCompaniesHandler)
			companies.POST("/bulk-update", handlers.BulkUpdateCompaniesHandler)
			companies.GET("/:id", handlers.GetCompanyHandler)
			companies.PUT("/:id", handlers.UpdateCompanyHandler)
			companies.DELETE("/:id", handlers.DeleteCompanyHandler)
			companies.POST("/:id/notes", handlers.AddCompanyNoteHandler)
			companies.DELETE("/:id/notes/:noteId", handlers.DeleteCompanyNoteHandler)
		}

		// --- КОНТАКТЫ ---
		contacts := apiGroup.Group("/contacts")
		{
			contacts.GET("", handlers.ListContactsHandler)
			contacts.POST("", handlers.CreateContactHandler)
			contacts.POST("/bulk-delete", handlers.BulkDeleteContactsHandler)
			contacts.GET("/:id", handlers.GetContactHandler)
			contacts.PUT("/:id", handlers.UpdateContactHandler)
			contacts.DELETE("/:id", handlers.DeleteContactHandler)
			contacts.POST("/:id/notes", handlers.AddContactNoteHandler)
			contacts.DELETE("/:id/notes/:noteId", handlers.DeleteContactNoteHandler)
		}

		// --- СДЕЛКИ ---
		deals := apiGroup.Group("/deals")
		{
			deals.GET("", handlers.ListDealsHandler)
			deals.POST("", handlers.CreateDealHandler)
			deals.GET("/:id", handlers.GetDealHandler)
			deals.PUT("/:id", handlers.UpdateDealHandler)
			deals.DELETE("/:id", handlers.DeleteDealHandler)
		}

		// --- ПРОЕКТЫ ---
		projects := apiGroup.Group("/projects")
		{
			projects.GET("", handlers.ListProjectsHandler)
			projects.POST("", handlers.CreateProjectHandler)
			projects.GET("/:id", handlers.GetProjectHandler)
			projects.PUT("/:id", handlers.UpdateProjectHandler)
			projects.DELETE("/:id", handlers.DeleteProjectHandler)
		}

		// --- ПОЛЬЗОВАТЕЛИ ---
		users := apiGroup.Group("/users")
		{
			users.GET("", handlers.ListUsersHandler)
			users.GET("/:id", handlers.GetUserHandler)
			users.POST("", middleware.RequireAdmin(), handlers.CreateUserHandler)
			users.PUT("/:id", middleware.RequireAdmin(), handlers.UpdateUserHandler)
			users.DELETE("/:id", middleware.RequireAdmin(), handlers.DeleteUserHandler)
		}

		// --- ШАБЛОНЫ ПЛЕЙБУКОВ ---
		playbooks := apiGroup.Group("/playbooks")
		{
			playbooks.GET("", handlers.ListPlaybookTemplatesHandler)
			playbooks.POST("", handlers.CreatePlaybookTemplateHandler)
			playbooks.GET("/:id", handlers.GetPlaybookTemplateHandler)
			playbooks.PUT("/:id", handlers.UpdatePlaybookTemplateHandler)
			playbooks.DELETE("/:id", handlers.DeletePlaybookTemplateHandler)
		}

		// --- ЭКЗЕМПЛЯРЫ ПЛЕЙБУКОВ ---
		instances := apiGroup.Group("/playbook-instances")
		{
			instances.GET("", handlers.ListPlaybookInstancesHandler)
			instances.POST("", handlers.ActivatePlaybookHandler)
			instances.GET("/:id", handlers.GetPlaybookInstanceHandler)
			instances.GET("/:id/completions", handlers.ListStepCompletionsHandler)
			instances.POST("/:id/steps/:stepId/complete", handlers.CompleteStepHandler)
		}

		// --- ИМПОРТ ---
		imports := apiGroup.Group("/imports")
		{
			imports.POST("/upload", handlers.UploadImportHandler)
			imports.POST("/spreadsheet", handlers.ImportFromSpreadsheetHandler)
			imports.POST("/:uploadId/mapping", handlers.SaveMappingHandler)
			imports.GET("/:uploadId/preview", handlers.GetPreviewHandler)
			imports.POST("/:uploadId/confirm", handlers.ConfirmImportHandler)
			imports.POST("/:uploadId/execute", handlers.ExecuteImportHandler)
			imports.POST("/:uploadId/back", handlers.ImportBackHandler)
			imports.POST("/:uploadId/start-over", handlers.StartOverImportHandler)
		}

		// --- УВЕДОМЛЕНИЯ ---
		notifications := apiGroup.Group("/notifications")
		{
			notifications.GET("", handlers.ListNotificationsHandler)
			notifications.POST("/:id/read", handlers.MarkNotificationReadHandler)
			notifications.GET("/ws", handlers.NotificationsWSEndpoint)
		}
	}
}

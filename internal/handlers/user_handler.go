// impactflow-crm/internal/handlers/user_handler.go
package handlers

import (
	"net/http"
	"time"

	"impactflow-crm/config"
	"impactflow-crm/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// UserResponse defines the structure for user data sent in API responses.
// This helps prevent accidental leakage of sensitive data like password hashes.
type UserResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	PhotoURL  string    `json:"photoUrl"`
}

type CreateUserInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type UpdateUserInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"` // Для смены пароля, опционально
}

func toUserResponse(u models.User) UserResponse {
	photoURL := u.PhotoURL
	if photoURL == "" {
		photoURL = "/static/placeholder.png"
	}
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		PhotoURL:  photoURL,
	}
}

// ListUsersHandler returns a paginated list of all users.
func ListUsersHandler(c *gin.Context) {
	var users []models.User
	query := config.DB.Order("id asc")

	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
			return
		}
	} else {
		if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch users"})
			return
		}
	}

	responseData := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responseData = append(responseData, toUserResponse(user))
	}

	if c.Query("all") == "true" {
		c.JSON(http.StatusOK, gin.H{"data": responseData})
		return
	}

	var totalRows int64
	config.DB.Model(&models.User{}).Count(&totalRows)
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

// GetUserHandler retrieves a single user by ID.
func GetUserHandler(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// CreateUserHandler creates a new user (admin only).
func CreateUserHandler(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные пользователя: " + err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	role := input.Role
	if role == "" {
		role = "member"
	}

	user := models.User{
		FullName: input.FullName,
		Email:    input.Email,
		Password: string(hashedPassword),
		Phone:    input.Phone,
		Role:     role,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать пользователя: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// UpdateUserHandler updates an existing user and drops their cached auth data.
func UpdateUserHandler(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные пользователя: " + err.Error()})
		return
	}

	user.FullName = input.FullName
	user.Email = input.Email
	user.Phone = input.Phone
	if input.Role != "" {
		user.Role = input.Role
	}
	if input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = string(hashedPassword)
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить пользователя: " + err.Error()})
		return
	}

	// Роль могла измениться - сбрасываем кэш данных пользователя.
	invalidateUserCache(user.ID)

	c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteUserHandler soft-deletes a user.
func DeleteUserHandler(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if userID == c.MustGet("user_id").(uint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Нельзя удалить собственную учетную запись"})
		return
	}

	result := config.DB.Delete(&models.User{}, userID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить пользователя: " + result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	invalidateUserCache(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Пользователь удален"})
}

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"impactflow-crm/config"
	"impactflow-crm/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB поднимает чистую in-memory базу на время одного теста
// и подставляет ее в глобальное подключение.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Contact{},
		&models.PlaybookTemplate{},
		&models.PlaybookInstance{},
		&models.StepCompletion{},
		&models.ImportUpload{},
		&models.Notification{},
	))

	config.DB = db
	return db
}

// postJSON вызывает обработчик с JSON-телом и параметрами пути.
func postJSON(t *testing.T, body interface{}, params gin.Params, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set("user_id", uint(1))

	handler(c)
	return w
}

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impactflow-crm/models"
)

func queryCtx(rawQuery string) *gin.Context {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestPageParams(t *testing.T) {
	page, size := pageParams(queryCtx(""))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = pageParams(queryCtx("page=3&pageSize=50"))
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	// Мусорные и отрицательные значения откатываются к значениям по умолчанию.
	page, size = pageParams(queryCtx("page=-2&pageSize=0"))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = pageParams(queryCtx("page=abc&pageSize=xyz"))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	_, size = pageParams(queryCtx("pageSize=1000"))
	assert.Equal(t, MaxPageSize, size)
}

func TestPaginateScope(t *testing.T) {
	db := setupTestDB(t)
	for i := 1; i <= 25; i++ {
		company := models.Company{
			Name:   fmt.Sprintf("Компания %02d", i),
			Domain: fmt.Sprintf("c%02d.example.com", i),
		}
		require.NoError(t, db.Create(&company).Error)
	}

	var page2 []models.Company
	require.NoError(t, db.Scopes(Paginate(queryCtx("page=2&pageSize=10"))).Order("id asc").Find(&page2).Error)
	require.Len(t, page2, 10)
	assert.Equal(t, "Компания 11", page2[0].Name)

	var tail []models.Company
	require.NoError(t, db.Scopes(Paginate(queryCtx("page=3&pageSize=10"))).Order("id asc").Find(&tail).Error)
	assert.Len(t, tail, 5)
}

func TestCreatePaginatedResponse(t *testing.T) {
	resp := CreatePaginatedResponse(queryCtx("page=2&pageSize=10"), []string{"a", "b"}, 25)
	assert.EqualValues(t, 25, resp.TotalRows)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, 10, resp.PageSize)

	empty := CreatePaginatedResponse(queryCtx(""), []string{}, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, 1, empty.CurrentPage)
}

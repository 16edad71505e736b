package aiform

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/business"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	filestorage "github.com/aisa-it/aiform/aiform.go/internal/aiform/file-storage"
)

func newFormTestServices(t *testing.T) *Services {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	webURL, _ := url.Parse("https://forms.example.com")
	return &Services{
		db:       db,
		storage:  storage,
		business: business.NewBL(db, storage, webURL),
	}
}

func newFormTestUser(t *testing.T, s *Services, username string) *dao.User {
	user := dao.User{
		Username: username,
		Email:    username + "@example.com",
		Password: dao.HashPassword("pass"),
	}
	require.NoError(t, s.db.Create(&user).Error)
	return &user
}

// formTestEcho поднимает маршруты форм со стаб-аутентификацией от имени user.
func formTestEcho(s *Services, user *dao.User) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	auth := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(AuthContext{Context: c, User: user})
		}
	}
	s.AddFormServices(e.Group("/forms", auth))
	return e
}

func submitRequest(t *testing.T, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/forms/submit/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestSubmitAndGetForm(t *testing.T) {
	s := newFormTestServices(t)
	owner := newFormTestUser(t, s, "owner")
	stranger := newFormTestUser(t, s, "stranger")

	e := formTestEcho(s, owner)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, submitRequest(t, map[string]string{
		"formName": "Анкета сотрудника",
		"pages":    `[{"pageId": "p1", "fields": [{"key": "fullName"}]}]`,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	formID, ok := created["formId"].(string)
	require.True(t, ok)

	// Owner reads the form back
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forms/"+formID+"/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "Анкета сотрудника", fetched["formName"])
	assert.Len(t, fetched["pages"], 1)

	// Someone else's form is indistinguishable from a missing one
	rec = httptest.NewRecorder()
	formTestEcho(s, stranger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forms/"+formID+"/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/forms/"+formID+"/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forms/"+formID+"/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitFormBadPages(t *testing.T) {
	s := newFormTestServices(t)
	user := newFormTestUser(t, s, "badpages")
	e := formTestEcho(s, user)

	for _, pages := range []string{
		`null`,
		`{"pageId": "p1"}`,
		`[{"pageType": "info"}]`,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, submitRequest(t, map[string]string{
			"formName": "Анкета",
			"pages":    pages,
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code, pages)
	}

	var count int64
	require.NoError(t, s.db.Model(&dao.Form{}).Count(&count).Error)
	assert.Zero(t, count)
}

package aiform

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
)

func proTestContext(role string, rec *httptest.ResponseRecorder) AuthContext {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/forms/export/", nil)
	return AuthContext{Context: e.NewContext(req, rec), User: &dao.User{Role: role}}
}

func TestProMiddleware(t *testing.T) {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	rec := httptest.NewRecorder()
	require.NoError(t, ProMiddleware(next)(proTestContext(dao.RoleUser, rec)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "1201"))

	rec = httptest.NewRecorder()
	require.NoError(t, ProMiddleware(next)(proTestContext(dao.RolePro, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

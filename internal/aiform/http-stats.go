// Статистика отправок форм текущего пользователя.
package aiform

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Services) AddStatsServices(g *echo.Group) {
	g.GET("/stats/total-submissions/", s.getTotalSubmissions)
	g.GET("/stats/average-time/", s.getAverageTime)
}

// getTotalSubmissions godoc
// @id getTotalSubmissions
// @Summary статистика: количество отправок
// @Description Возвращает количество форм, отправленных текущим пользователем.
// @Tags Stats
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.TotalSubmissions "Количество отправок"
// @Failure 401 {object} apierrors.DefinedError "Пользователь не авторизован"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /form-stats/stats/total-submissions/ [get]
func (s *Services) getTotalSubmissions(c echo.Context) error {
	user := c.(AuthContext).User

	res, err := s.business.GetTotalSubmissions(user.ID)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// getAverageTime godoc
// @id getAverageTime
// @Summary статистика: среднее время заполнения
// @Description Возвращает среднее время заполнения форм пользователя в секундах.
// @Tags Stats
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.AverageTime "Среднее время заполнения"
// @Failure 401 {object} apierrors.DefinedError "Пользователь не авторизован"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /form-stats/stats/average-time/ [get]
func (s *Services) getAverageTime(c echo.Context) error {
	user := c.(AuthContext).User

	res, err := s.business.GetAverageCompletionTime(user.ID)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

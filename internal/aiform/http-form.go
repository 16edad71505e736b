// Пакет aiform предоставляет функциональность для управления формами: отправка, редактирование, получение и удаление форм, а также выдача прикрепленных файлов.
//
// Основные возможности:
//   - Отправка форм с вложениями и подписью.
//   - Редактирование форм: частичное обновление полей и перезапись вложений.
//   - Получение форм: по идентификатору и списком.
//   - Выдача файлов из хранилища владельцу формы.
package aiform

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/apierrors"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/business"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/types"
)

type FormContext struct {
	AuthContext
	Form dao.Form
}

var submissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "aiform",
	Name:      "form_submissions_total",
	Help:      "Accepted form submissions",
})

type formNameRequest struct {
	Name string `validate:"formName"`
}

// FormMiddleware загружает форму по идентификатору в контекст запроса. Форма
// ищется только среди форм текущего пользователя: чужая форма неотличима от
// несуществующей.
func (s *Services) FormMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.(AuthContext).User

		formId, err := uuid.FromString(c.Param("formId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrFormNotFound)
		}

		var form dao.Form
		if err := s.db.
			Preload("Owner").
			Where("id = ?", formId).
			Where("owner_id = ?", user.ID).
			First(&form).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return EErrorDefined(c, apierrors.ErrFormNotFound)
			}
			return EErrorDefined(c, apierrors.ErrGeneric)
		}

		return next(FormContext{c.(AuthContext), form})
	}
}

func (s *Services) AddFormServices(g *echo.Group) {
	g.POST("/submit/", s.submitForm)
	g.GET("/", s.getFormList)
	g.GET("/file/:fileKey/", s.getFormFile)
	g.GET("/export/", s.exportForms, ProMiddleware)

	formGroup := g.Group("/:formId", s.FormMiddleware)
	formGroup.GET("/", s.getForm)
	formGroup.PUT("/", s.updateForm)
	formGroup.DELETE("/", s.deleteForm)
}

// submitForm godoc
// @id submitForm
// @Summary формы: отправить форму
// @Description Сохраняет форму с вложениями и подписью. Страницы передаются JSON-массивом в поле pages.
// @Tags Forms
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param formName formData string true "Название формы"
// @Param pages formData string true "Страницы формы (JSON-массив)"
// @Param signature formData string false "Подпись в base64"
// @Success 201 {object} dto.Form "Сохраненная форма"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных формы"
// @Failure 401 {object} apierrors.DefinedError "Пользователь не авторизован"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/submit/ [post]
func (s *Services) submitForm(c echo.Context) error {
	user := c.(AuthContext).User

	name := c.FormValue("formName")
	if name == "" {
		return EErrorDefined(c, apierrors.ErrFormNameRequired)
	}
	if err := c.Validate(formNameRequest{name}); err != nil {
		return EErrorDefined(c, apierrors.ErrFormRequestValidate.WithFormattedMessage("formName"))
	}

	pages, err := types.ParsePages([]byte(c.FormValue("pages")))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFormPagesInvalid)
	}
	if err := validatePages(c, pages); err != nil {
		return EErrorDefined(c, apierrors.ErrFormPagesInvalid)
	}

	req := business.SubmitForm{
		Name:        name,
		Description: c.FormValue("description"),
		Pages:       pages,
		Tags:        formTags(c),
		Signature:   c.FormValue("signature"),
		StartedAt:   formTimestamp(c, "startedAt"),
		CompletedAt: formTimestamp(c, "completedAt"),
	}

	form, err := s.business.CreateForm(user, req, formAttachments(c))
	if err != nil {
		return formWorkflowError(c, err)
	}
	submissionsTotal.Inc()

	return c.JSON(http.StatusCreated, form.ToDTO())
}

// getForm godoc
// @id getForm
// @Summary формы: получить форму
// @Description Возвращает форму текущего пользователя по идентификатору.
// @Tags Forms
// @Produce json
// @Security ApiKeyAuth
// @Param formId path string true "Идентификатор формы"
// @Success 200 {object} dto.Form "Форма"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/{formId}/ [get]
func (s *Services) getForm(c echo.Context) error {
	form := c.(FormContext).Form
	return c.JSON(http.StatusOK, form.ToDTO())
}

// getFormList godoc
// @id getFormList
// @Summary формы: список форм пользователя
// @Description Возвращает все формы текущего пользователя.
// @Tags Forms
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.FormLight "Список форм"
// @Failure 401 {object} apierrors.DefinedError "Пользователь не авторизован"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/ [get]
func (s *Services) getFormList(c echo.Context) error {
	user := c.(AuthContext).User

	var forms []dao.Form
	if err := s.db.
		Where("owner_id = ?", user.ID).
		Order("created_at desc").
		Find(&forms).Error; err != nil {
		return EError(c, err)
	}

	res := make([]interface{}, len(forms))
	for i := range forms {
		res[i] = forms[i].ToLightDTO()
	}
	return c.JSON(http.StatusOK, res)
}

// updateForm godoc
// @id updateForm
// @Summary формы: редактировать форму
// @Description Частично обновляет форму. Новые вложения ключуются по санированному имени файла и перезаписывают совпадающие записи.
// @Tags Forms
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param formId path string true "Идентификатор формы"
// @Success 200 {object} dto.Form "Обновленная форма"
// @Failure 400 {object} apierrors.DefinedError "Ошибка валидации данных формы"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/{formId}/ [put]
func (s *Services) updateForm(c echo.Context) error {
	ctx := c.(FormContext)
	form := ctx.Form

	var req business.UpdateForm

	params, err := c.FormParams()
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFormBadRequest)
	}

	if vs, ok := params["formName"]; ok && len(vs) > 0 {
		if vs[0] == "" {
			return EErrorDefined(c, apierrors.ErrFormNameRequired)
		}
		if err := c.Validate(formNameRequest{vs[0]}); err != nil {
			return EErrorDefined(c, apierrors.ErrFormRequestValidate.WithFormattedMessage("formName"))
		}
		req.Name = &vs[0]
	}
	if vs, ok := params["description"]; ok && len(vs) > 0 {
		req.Description = &vs[0]
	}
	if vs, ok := params["pages"]; ok && len(vs) > 0 {
		pages, err := types.ParsePages([]byte(vs[0]))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrFormPagesInvalid)
		}
		if err := validatePages(c, pages); err != nil {
			return EErrorDefined(c, apierrors.ErrFormPagesInvalid)
		}
		req.Pages = &pages
	}
	if vs, ok := params["tags"]; ok {
		req.Tags = vs
	}
	req.CompletedAt = formTimestamp(c, "completedAt")

	if err := s.business.EditForm(&form, ctx.User, req, formAttachments(c)); err != nil {
		return formWorkflowError(c, err)
	}

	return c.JSON(http.StatusOK, form.ToDTO())
}

// deleteForm godoc
// @id deleteForm
// @Summary формы: удалить форму
// @Description Удаляет форму и связанные с ней файлы в хранилище.
// @Tags Forms
// @Security ApiKeyAuth
// @Param formId path string true "Идентификатор формы"
// @Success 200 {object} map[string]interface{} "Форма удалена"
// @Failure 404 {object} apierrors.DefinedError "Форма не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/{formId}/ [delete]
func (s *Services) deleteForm(c echo.Context) error {
	form := c.(FormContext).Form

	if err := s.business.DeleteForm(&form); err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Form deleted successfully",
	})
}

// getFormFile godoc
// @id getFormFile
// @Summary формы: получить файл формы
// @Description Стримит файл из хранилища. Файл доступен только владельцу формы, на которую он загружен.
// @Tags Forms
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param fileKey path string true "Ключ файла в хранилище"
// @Success 200 {file} file "Содержимое файла"
// @Failure 404 {object} apierrors.DefinedError "Файл не найден"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/file/{fileKey}/ [get]
func (s *Services) getFormFile(c echo.Context) error {
	user := c.(AuthContext).User

	key, err := url.PathUnescape(c.Param("fileKey"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrFormFileNotFound)
	}

	ref, err := s.business.FindOwnedFile(user.ID, key)
	if err != nil {
		return EError(c, err)
	}
	if ref == nil {
		return EErrorDefined(c, apierrors.ErrFormFileNotFound)
	}

	reader, contentType, err := s.business.OpenFile(ref)
	if err != nil {
		return EError(c, err)
	}
	defer reader.Close()

	return c.Stream(http.StatusOK, contentType, reader)
}

// exportForms godoc
// @id exportForms
// @Summary формы: экспорт всех форм
// @Description Возвращает полный дамп форм пользователя со страницами и картами файлов. Доступно пользователям с ролью pro.
// @Tags Forms
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.Form "Формы пользователя"
// @Failure 403 {object} apierrors.DefinedError "Требуется подписка pro"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/export/ [get]
func (s *Services) exportForms(c echo.Context) error {
	user := c.(AuthContext).User

	var forms []dao.Form
	if err := s.db.
		Where("owner_id = ?", user.ID).
		Order("created_at").
		Find(&forms).Error; err != nil {
		return EError(c, err)
	}

	res := make([]interface{}, len(forms))
	for i := range forms {
		res[i] = forms[i].ToDTO()
	}
	return c.JSON(http.StatusOK, res)
}

func formWorkflowError(c echo.Context, err error) error {
	switch err {
	case business.ErrInvalidSignature:
		return EErrorDefined(c, apierrors.ErrFormSignatureInvalid)
	case business.ErrUploadFailed:
		return EErrorDefined(c, apierrors.ErrFormFileUpload)
	case dao.ErrEmptyFileKey:
		return EErrorDefined(c, apierrors.ErrFormFileKeyEmpty)
	}
	return EError(c, err)
}

func formAttachments(c echo.Context) map[string][]*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File
}

// validatePages прогоняет каждую страницу через валидатор запросов (pageId обязателен).
func validatePages(c echo.Context, pages types.PagesSlice) error {
	for _, page := range pages {
		if err := c.Validate(page); err != nil {
			return err
		}
	}
	return nil
}

func formTags(c echo.Context) []string {
	params, err := c.FormParams()
	if err != nil {
		return nil
	}
	return params["tags"]
}

// formTimestamp разбирает опциональный таймстемп в миллисекундах эпохи.
func formTimestamp(c echo.Context, key string) *time.Time {
	raw := c.FormValue(key)
	if raw == "" {
		return nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Debug("Skip malformed timestamp", "key", key, "value", raw)
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}

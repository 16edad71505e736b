// Пакет с каталогом ошибок API.
//
// Основные возможности:
//   - Нумерованные коды ошибок по подсистемам (1xxx аутентификация, 2xxx пользователи и платежи, 32xx формы, 5xxx валидация).
//   - Русский и английский текст ошибки в одном ответе.
//   - Параметризованные варианты через WithFormattedMessage.
package apierrors

import (
	"fmt"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// WithFormattedMessage подставляет аргументы в текст ошибки. Без аргументов
// плейсхолдеры просто вырезаются.
func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.ReplaceAll(e.Err, "%s", "")
		e.RuErr = strings.ReplaceAll(e.RuErr, "%s", "")
	}
	return e
}

// Authentication 1xxx
var (
	ErrFailedLogin = DefinedError{
		Code:       1001,
		StatusCode: 401,
		Err:        "wrong email or password",
		RuErr:      "Неверная почта или пароль",
	}

	ErrUserBlocked = DefinedError{
		Code:       1002,
		StatusCode: 403,
		Err:        "user is blocked until %s",
		RuErr:      "Пользователь заблокирован до %s",
	}

	ErrUserDeactivated = DefinedError{
		Code:       1003,
		StatusCode: 403,
		Err:        "user is deactivated",
		RuErr:      "Пользователь деактивирован",
	}

	ErrTokenMissing = DefinedError{
		Code:       1101,
		StatusCode: 401,
		Err:        "authorization token missing",
		RuErr:      "Отсутствует токен авторизации",
	}

	ErrTokenExpired = DefinedError{
		Code:       1102,
		StatusCode: 401,
		Err:        "token expired",
		RuErr:      "Срок действия токена истек",
	}

	ErrTokenInvalid = DefinedError{
		Code:       1103,
		StatusCode: 401,
		Err:        "token invalid",
		RuErr:      "Недействительный токен",
	}

	ErrProRequired = DefinedError{
		Code:       1201,
		StatusCode: 403,
		Err:        "pro subscription required",
		RuErr:      "Требуется подписка pro",
	}
)

// Users & payments 2xxx
var (
	ErrUserNotFound = DefinedError{
		Code:       2001,
		StatusCode: 404,
		Err:        "user not found",
		RuErr:      "Пользователь не найден",
	}

	ErrPaymentBadRequest = DefinedError{
		Code:       2101,
		StatusCode: 400,
		Err:        "invalid payment request",
		RuErr:      "Некорректный платежный запрос",
	}

	ErrPaymentSessionCreate = DefinedError{
		Code:       2102,
		StatusCode: 500,
		Err:        "failed to create payment session",
		RuErr:      "Не удалось создать платежную сессию",
	}

	ErrWebhookSignature = DefinedError{
		Code:       2103,
		StatusCode: 400,
		Err:        "webhook signature verification failed",
		RuErr:      "Ошибка проверки подписи вебхука",
	}

	ErrPaymentNotCompleted = DefinedError{
		Code:       2104,
		StatusCode: 400,
		Err:        "payment not completed",
		RuErr:      "Платеж не завершен",
	}

	ErrPaymentSessionNotFound = DefinedError{
		Code:       2105,
		StatusCode: 404,
		Err:        "payment session not found",
		RuErr:      "Платежная сессия не найдена",
	}
)

// Forms 32xx
var (
	ErrFormNotFound = DefinedError{
		Code:       3201,
		StatusCode: 404,
		Err:        "form not found",
		RuErr:      "Форма не найдена",
	}

	ErrFormNameRequired = DefinedError{
		Code:       3202,
		StatusCode: 400,
		Err:        "form name is required",
		RuErr:      "Название формы обязательно",
	}

	ErrFormPagesInvalid = DefinedError{
		Code:       3203,
		StatusCode: 400,
		Err:        "pages must be a JSON array",
		RuErr:      "Страницы должны быть JSON-массивом",
	}

	ErrFormSignatureInvalid = DefinedError{
		Code:       3204,
		StatusCode: 400,
		Err:        "signature is not valid base64 image data",
		RuErr:      "Подпись не является корректными base64-данными",
	}

	ErrFormBadRequest = DefinedError{
		Code:       3205,
		StatusCode: 400,
		Err:        "invalid form request",
		RuErr:      "Некорректный запрос формы",
	}

	ErrFormRequestValidate = DefinedError{
		Code:       3206,
		StatusCode: 400,
		Err:        "form request validation failed: %s",
		RuErr:      "Ошибка валидации запроса формы: %s",
	}

	ErrFormFileNotFound = DefinedError{
		Code:       3207,
		StatusCode: 404,
		Err:        "file not found",
		RuErr:      "Файл не найден",
	}

	ErrFormFileUpload = DefinedError{
		Code:       3208,
		StatusCode: 500,
		Err:        "failed to store uploaded file",
		RuErr:      "Не удалось сохранить загруженный файл",
	}

	ErrFormFileKeyEmpty = DefinedError{
		Code:       3209,
		StatusCode: 400,
		Err:        "file entry with empty storage key",
		RuErr:      "Запись файла с пустым ключом хранилища",
	}
)

// Common 5xxx
var (
	ErrGeneric = DefinedError{
		Code:       5000,
		StatusCode: 500,
		Err:        "something went wrong. Please try again later or contact support",
		RuErr:      "Что-то пошло не так. Повторите попытку позже или обратитесь в поддержку",
	}

	ErrInvalidEmail = DefinedError{
		Code:       5001,
		StatusCode: 400,
		Err:        "invalid email",
		RuErr:      "Некорректная почта",
	}

	ErrEntityToLarge = DefinedError{
		Code:       5010,
		StatusCode: 413,
		Err:        "request entity too large",
		RuErr:      "Запрос слишком большой",
	}
)

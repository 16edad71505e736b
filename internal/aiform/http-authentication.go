// Пакет аутентификации и авторизации пользователей сервиса форм.
// Обеспечивает безопасный доступ к ресурсам, используя JWT и куки.
//
// Основные возможности:
//   - Аутентификация пользователей по email и паролю.
//   - Генерация и проверка токенов доступа (JWT) с поддержкой обновления.
//   - Блокировка аккаунтов при неудачных попытках входа.
//   - Отзыв токенов через Sessions Manager при выходе.
package aiform

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/apierrors"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/dao"
	"github.com/aisa-it/aiform/aiform.go/internal/aiform/sessions"
)

type Authentication struct {
	db              *gorm.DB
	secret          []byte
	sessionsManager *sessions.SessionsManager
}

type AuthContext struct {
	echo.Context
	User         *dao.User
	AccessToken  *Token
	RefreshToken *Token
}

type AuthConfig struct {
	Secret         []byte
	DB             *gorm.DB
	SessionManager *sessions.SessionsManager
	Skipper        middleware.Skipper
}

func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}

			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			var refreshToken *Token
			var accessToken *Token

			schema, tokenString, ok := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if !ok {
				// Cookie token
				schema = "Cookies"
				if accessCookie, err := c.Cookie("access_token"); err == nil && accessCookie != nil {
					accessToken = new(Token)
					accessToken.SignedString = accessCookie.Value
					accessToken.Type = "access"
				}

				if refreshCookie, err := c.Cookie("refresh_token"); err == nil && refreshCookie != nil {
					refreshToken = new(Token)
					refreshToken.SignedString = refreshCookie.Value
					refreshToken.Type = "refresh"
				}

				if refreshToken == nil && accessToken == nil {
					return EErrorDefined(c, apierrors.ErrTokenMissing)
				}
			}
			schema = strings.TrimSpace(schema)

			if schema != "Cookies" {
				accessToken = new(Token)
				accessToken.SignedString = strings.TrimSpace(tokenString)
				accessToken.Type = schema
			}

			keyFunc := func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return config.Secret, nil
			}

			var accessError error
			if accessToken != nil {
				accessToken.JWT, accessError = jwt.Parse(accessToken.SignedString, keyFunc)
			}

			if refreshToken != nil {
				if refreshToken.JWT, _ = jwt.Parse(refreshToken.SignedString, keyFunc); refreshToken.JWT == nil || !refreshToken.JWT.Valid {
					refreshToken = nil
				}
			}

			var user *dao.User
			var err error

			// Prolong if expired
			if errors.Is(accessError, jwt.ErrTokenExpired) || accessToken == nil {
				accessToken, user, err = config.tokenProlong(c, refreshToken)
				if accessToken == nil || user == nil {
					return err
				}
			} else if accessError != nil {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			} else {
				// Check if token not blacklisted
				blacklisted, err := config.SessionManager.IsTokenBlacklisted(accessToken.JWT.Signature)
				if err != nil {
					return EError(c, err)
				}

				if blacklisted {
					return EErrorDefined(c, apierrors.ErrTokenExpired)
				}

				claims, ok := accessToken.JWT.Claims.(jwt.MapClaims)
				if !ok || !accessToken.JWT.Valid {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}

				userIDRaw, ok := claims["user_id"].(string)
				if !ok {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}
				userID, err := uuid.FromString(userIDRaw)
				if err != nil {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}

				// Fetch user
				user = new(dao.User)
				if err := config.DB.Where("id = ?", userID).First(user).Error; err != nil {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}
			}

			if user == nil {
				return EError(c, errors.New("nil user"))
			}

			if !user.IsActive {
				return EErrorDefined(c, apierrors.ErrUserDeactivated)
			}

			tm := time.Now()
			if err := config.DB.Model(user).Update("last_active", &tm).Error; err != nil {
				EError(c, err)
			}

			return next(AuthContext{c, user, accessToken, refreshToken})
		}
	}
}

func (a *AuthConfig) tokenProlong(c echo.Context, token *Token) (*Token, *dao.User, error) {
	if token == nil {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenExpired)
	}
	// Check if token not blacklisted
	{
		blacklisted, err := a.SessionManager.IsTokenBlacklisted(token.JWT.Signature)
		if err != nil {
			EError(c, err)
			return nil, nil, EErrorDefined(c, apierrors.ErrTokenExpired)
		}

		if blacklisted {
			return nil, nil, EErrorDefined(c, apierrors.ErrTokenExpired)
		}
	}

	// Blacklist old refresh token
	if err := a.SessionManager.BlacklistToken(token.JWT.Signature); err != nil {
		return nil, nil, EError(c, err)
	}

	claims, ok := token.JWT.Claims.(jwt.MapClaims)
	if !ok || !token.JWT.Valid {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	userIDRaw, ok := claims["user_id"].(string)
	if !ok {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	var user dao.User
	if err := a.DB.Where("id = ?", userIDRaw).First(&user).Error; err != nil {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	accessToken, refreshToken, err := createAccessToken(a.Secret, user.ID.String())
	if err != nil {
		return nil, nil, EError(c, err)
	}

	setAuthCookies(c, accessToken, refreshToken)

	return accessToken, &user, nil
}

func AddAuthenticationServices(db *gorm.DB, e *echo.Echo, secret []byte, sessionManager *sessions.SessionsManager) *Authentication {
	ret := &Authentication{db, secret, sessionManager}

	e.POST("/auth/email/", ret.emailLogin)
	e.POST("/auth/sign-out/", ret.signOut, AuthMiddleware(AuthConfig{
		Secret:         secret,
		DB:             db,
		SessionManager: sessionManager,
	}))

	return ret
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// emailLogin godoc
// @id emailLogin
// @Summary Пользователи (управление доступом): вход пользователя
// @Description Аутентифицирует пользователя с использованием email и пароля
// @Tags Users
// @Accept json
// @Produce json
// @Param data body LoginRequest true "Данные для входа пользователя"
// @Success 200 {object} map[string]interface{} "Токены доступа и информация о пользователе"
// @Failure 400 {object} apierrors.DefinedError "Некорректные данные запроса"
// @Failure 401 {object} apierrors.DefinedError "Неудачный вход в систему"
// @Failure 500 {object} apierrors.DefinedError "Внутренняя ошибка сервера"
// @Router /auth/email [post]
func (a *Authentication) emailLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}

	req.Email = strings.ToLower(req.Email)

	if req.Email == "" || req.Password == "" {
		return EErrorDefined(c, apierrors.ErrFailedLogin)
	}

	if !ValidateEmail(req.Email) {
		return EErrorDefined(c, apierrors.ErrInvalidEmail)
	}

	var user dao.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return EErrorDefined(c, apierrors.ErrFailedLogin)
		}
		return EError(c, err)
	}

	if user.BlockedUntil.Valid && user.BlockedUntil.Time.After(time.Now()) {
		return EErrorDefined(c, apierrors.ErrUserBlocked.WithFormattedMessage(user.BlockedUntil.Time.Format("02.01.2006 15:04")))
	}

	if !user.IsActive {
		return EErrorDefined(c, apierrors.ErrUserDeactivated)
	}

	if !checkPassword(req.Password, user.Password) {
		user.LoginAttempts++
		time.Sleep(time.Second * time.Duration(user.LoginAttempts))

		// block after 5 fails
		if user.LoginAttempts >= 5 {
			slog.Info("Block user for more than 5 failed attempts", "user", user.Email)
			user.BlockedUntil = sql.NullTime{Valid: true, Time: time.Now().Add(time.Minute * 20)}
			user.LoginAttempts = 0
		}

		if err := a.db.Model(&user).Select("LoginAttempts", "BlockedUntil").Updates(&user).Error; err != nil {
			return EError(c, err)
		}

		if user.BlockedUntil.Valid && user.BlockedUntil.Time.After(time.Now()) {
			return EErrorDefined(c, apierrors.ErrUserBlocked.WithFormattedMessage(user.BlockedUntil.Time.Format("02.01.2006 15:04")))
		}

		return EErrorDefined(c, apierrors.ErrFailedLogin)
	}

	tm := time.Now()

	user.LastActive = &tm
	user.LastLoginTime = &tm
	user.LastLoginIp = c.RealIP()
	user.LastLoginUagent = c.Request().UserAgent()
	user.TokenUpdatedAt = &tm
	user.LoginAttempts = 0
	user.BlockedUntil = sql.NullTime{Valid: false}
	if err := a.db.Model(&user).Select("LastActive", "LastLoginTime", "LastLoginIp", "LastLoginUagent", "TokenUpdatedAt", "LoginAttempts", "BlockedUntil").Updates(&user).Error; err != nil {
		return EError(c, err)
	}

	access_token, refresh_token, err := createAccessToken(a.secret, user.ID.String())
	if err != nil {
		return EError(c, err)
	}

	setAuthCookies(c, access_token, refresh_token)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token":  access_token.SignedString,
		"refresh_token": refresh_token.SignedString,
		"user":          user.ToDTO(),
	})
}

// signOut godoc
// @id signOut
// @Summary Пользователи (управление доступом): выход пользователя
// @Description Отзывает токены текущей сессии и очищает куки
// @Tags Users
// @Security ApiKeyAuth
// @Success 204 "Сессия завершена"
// @Failure 401 {object} apierrors.DefinedError "Пользователь не авторизован"
// @Failure 500 {object} apierrors.DefinedError "Внутренняя ошибка сервера"
// @Router /auth/sign-out [post]
func (a *Authentication) signOut(c echo.Context) error {
	ctx := c.(AuthContext)

	if ctx.AccessToken != nil && ctx.AccessToken.JWT != nil {
		if err := a.sessionsManager.BlacklistToken(ctx.AccessToken.JWT.Signature); err != nil {
			return EError(c, err)
		}
	}
	if ctx.RefreshToken != nil && ctx.RefreshToken.JWT != nil {
		if err := a.sessionsManager.BlacklistToken(ctx.RefreshToken.JWT.Signature); err != nil {
			return EError(c, err)
		}
	}

	clearAuthCookies(c)

	return c.NoContent(http.StatusNoContent)
}

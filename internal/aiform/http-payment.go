// Платежный контур: создание checkout-сессий и платежных намерений Stripe, прием вебхуков и синхронная проверка оплаты.
//
// Основные возможности:
//   - Создание checkout-сессии апгрейда до pro.
//   - Создание payment intent с произвольной суммой.
//   - Прием вебхука checkout.session.completed с проверкой подписи.
//   - Синхронная проверка оплаты по идентификатору сессии.
package aiform

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v81"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/apierrors"
)

func (s *Services) AddPaymentServices(g *echo.Group) {
	g.POST("/create-checkout-session/", s.createCheckoutSession)
	g.POST("/verify-payment/", s.verifyPayment)
}

func (s *Services) AddFormWithoutAuthServices(g *echo.Group) {
	g.POST("/create-payment-intent/", s.createPaymentIntent)
	g.POST("/webhook/", s.stripeWebhook)
}

// createCheckoutSession godoc
// @id createCheckoutSession
// @Summary платежи: создать checkout-сессию
// @Description Создает Stripe checkout-сессию апгрейда текущего пользователя до pro.
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{} "Идентификатор и адрес сессии"
// @Failure 401 {object} apierrors.DefinedError "Пользователь не авторизован"
// @Failure 500 {object} apierrors.DefinedError "Не удалось создать платежную сессию"
// @Router /payments/create-checkout-session/ [post]
func (s *Services) createCheckoutSession(c echo.Context) error {
	user := c.(AuthContext).User

	session, err := s.billing.CreateProCheckoutSession(user.ID.String())
	if err != nil {
		slog.Error("Create checkout session", "user", user.ID, "err", err)
		return EErrorDefined(c, apierrors.ErrPaymentSessionCreate)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":  session.ID,
		"url": session.URL,
	})
}

type verifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

// verifyPayment godoc
// @id verifyPayment
// @Summary платежи: проверить оплату
// @Description Проверяет статус оплаты checkout-сессии и переводит пользователя на роль pro при успешной оплате.
// @Tags Payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param data body verifyPaymentRequest true "Идентификатор сессии"
// @Success 200 {object} map[string]interface{} "Пользователь переведен на pro"
// @Failure 400 {object} apierrors.DefinedError "Платеж не завершен"
// @Failure 404 {object} apierrors.DefinedError "Платежная сессия не найдена"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /payments/verify-payment/ [post]
func (s *Services) verifyPayment(c echo.Context) error {
	var req verifyPaymentRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" {
		return EErrorDefined(c, apierrors.ErrPaymentBadRequest)
	}

	session, err := s.billing.GetCheckoutSession(req.SessionID)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrPaymentSessionNotFound)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return EErrorDefined(c, apierrors.ErrPaymentNotCompleted)
	}

	if err := s.business.UpgradeUserToPro(session.Metadata["userId"]); err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "User upgraded to pro successfully!",
	})
}

type paymentIntentRequest struct {
	Amount             int64    `json:"amount"`
	Currency           string   `json:"currency"`
	PaymentMethodTypes []string `json:"paymentMethodTypes"`
}

// createPaymentIntent godoc
// @id createPaymentIntent
// @Summary платежи: создать payment intent
// @Description Создает Stripe payment intent с указанной суммой и валютой.
// @Tags Payments
// @Accept json
// @Produce json
// @Param data body paymentIntentRequest true "Параметры платежа"
// @Success 201 {object} map[string]interface{} "Секрет клиента для подтверждения платежа"
// @Failure 400 {object} apierrors.DefinedError "Некорректный платежный запрос"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/create-payment-intent/ [post]
func (s *Services) createPaymentIntent(c echo.Context) error {
	var req paymentIntentRequest
	if err := c.Bind(&req); err != nil || req.Amount <= 0 || req.Currency == "" {
		return EErrorDefined(c, apierrors.ErrPaymentBadRequest)
	}

	intent, err := s.billing.CreatePaymentIntent(req.Amount, req.Currency, req.PaymentMethodTypes)
	if err != nil {
		slog.Error("Create payment intent", "err", err)
		return EErrorDefined(c, apierrors.ErrPaymentSessionCreate)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"clientSecret": intent.ClientSecret,
	})
}

// stripeWebhook godoc
// @id stripeWebhook
// @Summary платежи: вебхук Stripe
// @Description Принимает события Stripe. Событие checkout.session.completed переводит пользователя из метаданных сессии на роль pro.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Событие принято"
// @Failure 400 {object} apierrors.DefinedError "Ошибка проверки подписи"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /forms/webhook/ [post]
func (s *Services) stripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrWebhookSignature)
	}

	event, err := s.billing.ConstructWebhookEvent(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Error("Webhook signature verification", "err", err)
		return EErrorDefined(c, apierrors.ErrWebhookSignature)
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return EErrorDefined(c, apierrors.ErrWebhookSignature)
		}

		if err := s.business.UpgradeUserToPro(session.Metadata["userId"]); err != nil {
			return EError(c, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"received": true})
}

// Интеграция со Stripe: платежные сессии, платежные намерения и проверка вебхуков.
//
// Основные возможности:
//   - Создание checkout-сессии апгрейда до pro.
//   - Создание payment intent с произвольной суммой.
//   - Проверка подписи входящих вебхуков.
package billing

import (
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/config"
)

// Стоимость апгрейда до pro в минимальных единицах валюты.
const proUpgradeAmount = 2400

type StripeClient struct {
	api           *client.API
	webhookSecret string
	webURL        *url.URL
}

func NewStripeClient(cfg *config.Config) *StripeClient {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	return &StripeClient{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		webURL:        cfg.WebURL,
	}
}

func (s *StripeClient) frontURL(path string) string {
	return strings.TrimSuffix(s.webURL.String(), "/") + path
}

// CreateProCheckoutSession создает checkout-сессию апгрейда пользователя до pro.
// Идентификатор пользователя уезжает в метаданные сессии и возвращается вебхуком.
func (s *StripeClient) CreateProCheckoutSession(userID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Pro Subscription"),
					},
					UnitAmount: stripe.Int64(proUpgradeAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.frontURL("/success?session_id={CHECKOUT_SESSION_ID}")),
		CancelURL:  stripe.String(s.frontURL("/cancel")),
	}
	params.AddMetadata("userId", userID)

	return s.api.CheckoutSessions.New(params)
}

// GetCheckoutSession возвращает checkout-сессию по идентификатору.
func (s *StripeClient) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	return s.api.CheckoutSessions.Get(sessionID, nil)
}

// CreatePaymentIntent создает платежное намерение.
func (s *StripeClient) CreatePaymentIntent(amount int64, currency string, paymentMethodTypes []string) (*stripe.PaymentIntent, error) {
	if len(paymentMethodTypes) == 0 {
		paymentMethodTypes = []string{"card"}
	}

	return s.api.PaymentIntents.New(&stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice(paymentMethodTypes),
	})
}

// ConstructWebhookEvent проверяет подпись вебхука и разбирает событие.
func (s *StripeClient) ConstructWebhookEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
}

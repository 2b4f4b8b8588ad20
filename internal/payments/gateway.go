// Package payments integrates the Razorpay gateway: order creation, checkout
// callback verification and webhook ingestion.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/wolfman30/healthcare-booking/internal/money"
	"github.com/wolfman30/healthcare-booking/internal/observability/metrics"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

var (
	ErrGatewayNotConfigured = errors.New("payments: gateway credentials not configured")
	ErrSignatureInvalid     = errors.New("payments: signature verification failed")
	ErrAmountTooSmall       = errors.New("payments: amount below gateway minimum")
)

// GatewayError wraps a failure reported by the remote gateway.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payments: razorpay %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// orderCreator is the slice of the Razorpay SDK the gateway calls.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Order is a gateway order the checkout widget pays against.
type Order struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Gateway wraps the Razorpay client. Calls are synchronous and never retried.
type Gateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	minimum       money.Money
	orders        orderCreator
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
}

// NewGateway builds a gateway from the payment settings. Missing credentials
// are not an error here; CreateOrder reports ErrGatewayNotConfigured.
func NewGateway(cfg settings.Payment, m *metrics.BookingMetrics, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	g := &Gateway{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		minimum:       cfg.MinimumAmount,
		metrics:       m,
		logger:        logger,
	}
	if cfg.Configured() {
		g.orders = razorpay.NewClient(cfg.KeyID, cfg.KeySecret).Order
	}
	return g
}

// KeyID is the public key handed to the checkout widget.
func (g *Gateway) KeyID() string { return g.keyID }

// Configured reports whether orders can be created.
func (g *Gateway) Configured() bool {
	return g.orders != nil && g.keyID != "" && g.keySecret != ""
}

// CreateOrder registers an order for amount with the gateway.
func (g *Gateway) CreateOrder(ctx context.Context, amount money.Money, currency, receipt string, notes map[string]string) (*Order, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}
	if amount <= 0 || amount < g.minimum {
		return nil, fmt.Errorf("%w: %s", ErrAmountTooSmall, amount)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	data := map[string]interface{}{
		"amount":          amount.Minor(),
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	start := time.Now()
	resp, err := g.orders.Create(data, nil)
	g.metrics.ObserveGatewayCall("create_order", time.Since(start), err)
	if err != nil {
		return nil, &GatewayError{Op: "create order", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := &Order{
		ID:          stringField(resp, "id"),
		AmountMinor: int64Field(resp, "amount"),
		Currency:    stringField(resp, "currency"),
		Receipt:     stringField(resp, "receipt"),
	}
	if order.ID == "" {
		return nil, &GatewayError{Op: "create order", Err: errors.New("response missing order id")}
	}
	if order.AmountMinor == 0 {
		order.AmountMinor = amount.Minor()
	}
	if order.Currency == "" {
		order.Currency = currency
	}
	g.logger.Info("razorpay order created", "order_id", order.ID, "amount", order.AmountMinor, "currency", order.Currency, "receipt", receipt)
	return order, nil
}

// VerifyPaymentSignature checks a checkout callback. It has no side effects.
func (g *Gateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if g.keySecret == "" {
		return ErrGatewayNotConfigured
	}
	attrs := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(attrs, signature, g.keySecret) {
		return ErrSignatureInvalid
	}
	return nil
}

// WebhookVerificationEnabled reports whether a webhook secret is set.
func (g *Gateway) WebhookVerificationEnabled() bool { return g.webhookSecret != "" }

// VerifyWebhookSignature checks X-Razorpay-Signature. Without a configured
// webhook secret every body is accepted.
func (g *Gateway) VerifyWebhookSignature(body []byte, signature string) error {
	if g.webhookSecret == "" {
		return nil
	}
	if signature == "" || !utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret) {
		return ErrSignatureInvalid
	}
	return nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// int64Field reads a JSON number, which the SDK decodes as float64.
func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

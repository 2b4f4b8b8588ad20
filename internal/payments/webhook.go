package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/events"
	"github.com/wolfman30/healthcare-booking/internal/observability/metrics"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBody  = 1 << 20
)

// PaymentEventSink applies gateway notifications to bookings.
type PaymentEventSink interface {
	PaymentAuthorized(ctx context.Context, ev bookings.PaymentEvent) (*bookings.Booking, error)
	PaymentCaptured(ctx context.Context, ev bookings.PaymentEvent) (*bookings.Booking, error)
	PaymentFailed(ctx context.Context, ev bookings.PaymentEvent) (*bookings.Booking, error)
	OrderPaid(ctx context.Context, ev bookings.PaymentEvent) (*bookings.Booking, error)
}

type processedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// WebhookHandler handles POST /webhooks/razorpay.
type WebhookHandler struct {
	gateway   *Gateway
	sink      PaymentEventSink
	processed processedTracker
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// NewWebhookHandler builds the handler. processed may be nil, which turns
// off redelivery detection.
func NewWebhookHandler(gateway *Gateway, sink PaymentEventSink, processed processedTracker, m *metrics.BookingMetrics, logger *logging.Logger) *WebhookHandler {
	if gateway == nil || sink == nil {
		panic("payments: gateway and event sink are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{gateway: gateway, sink: sink, processed: processed, metrics: m, logger: logger}
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity orderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type orderEntity struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (e *razorpayEvent) payment() paymentEntity {
	if e.Payload.Payment == nil {
		return paymentEntity{}
	}
	return e.Payload.Payment.Entity
}

// Handle processes one delivery. Unknown bookings and ignored events get 200.
// A failure while applying an event returns 500 and leaves the event id
// unmarked, so the gateway's redelivery retries it.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.gateway.VerifyWebhookSignature(payload, r.Header.Get(signatureHeader)); err != nil {
		h.logger.Warn("razorpay webhook signature rejected")
		h.metrics.ObserveWebhook("unknown", "forbidden")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var evt razorpayEvent
	if err := json.Unmarshal(payload, &evt); err != nil || evt.Event == "" {
		h.logger.Error("failed to decode razorpay event", "error", err)
		h.metrics.ObserveWebhook("unknown", "malformed")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	eventID := r.Header.Get(eventIDHeader)
	if eventID != "" && h.processed != nil {
		seen, err := h.processed.AlreadyProcessed(ctx, events.ProviderRazorpay, eventID)
		if err != nil {
			h.logger.Error("processed lookup failed", "error", err, "event_id", eventID)
		} else if seen {
			h.metrics.ObserveWebhook(evt.Event, "duplicate")
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	outcome := h.apply(ctx, &evt)
	h.metrics.ObserveWebhook(evt.Event, outcome)
	if outcome == "error" {
		// left unmarked so the gateway redelivers
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if outcome == "applied" && eventID != "" && h.processed != nil {
		if _, err := h.processed.MarkProcessed(ctx, events.ProviderRazorpay, eventID); err != nil {
			h.logger.Error("failed to record processed event", "error", err, "event_id", eventID)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) apply(ctx context.Context, evt *razorpayEvent) string {
	payment := evt.payment()
	ev := bookings.PaymentEvent{PaymentRef: payment.ID, OrderID: payment.OrderID}

	var err error
	switch evt.Event {
	case "payment.authorized":
		_, err = h.sink.PaymentAuthorized(ctx, ev)
	case "payment.captured":
		_, err = h.sink.PaymentCaptured(ctx, ev)
	case "payment.failed":
		ev.Reason = payment.ErrorDescription
		if ev.Reason == "" {
			ev.Reason = payment.ErrorCode
		}
		if ev.Reason == "" {
			ev.Reason = "unknown error"
		}
		_, err = h.sink.PaymentFailed(ctx, ev)
	case "order.paid":
		if evt.Payload.Order != nil && evt.Payload.Order.Entity.ID != "" {
			ev.OrderID = evt.Payload.Order.Entity.ID
		}
		_, err = h.sink.OrderPaid(ctx, ev)
	default:
		h.logger.Debug("ignoring razorpay event", "event", evt.Event)
		return "ignored"
	}

	switch {
	case err == nil:
		h.logger.Info("razorpay event applied", "event", evt.Event, "payment_id", ev.PaymentRef, "order_id", ev.OrderID)
		return "applied"
	case errors.Is(err, bookings.ErrBookingNotFound):
		h.logger.Warn("razorpay event for unknown booking", "event", evt.Event, "payment_id", ev.PaymentRef, "order_id", ev.OrderID)
		return "unknown_booking"
	default:
		h.logger.Error("razorpay event update failed", "error", err, "event", evt.Event, "payment_id", ev.PaymentRef)
		return "error"
	}
}

package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/internal/money"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// BookingPayments is the booking-side state the payment endpoints touch.
type BookingPayments interface {
	Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	AttachOrder(ctx context.Context, id uuid.UUID, orderID string) (*bookings.Booking, error)
	RecordVerifiedPayment(ctx context.Context, id uuid.UUID, orderID, paymentRef string) (*bookings.Booking, error)
}

// Handler serves order creation and checkout callback verification.
type Handler struct {
	gateway  *Gateway
	bookings BookingPayments
	settings *settings.Settings
	logger   *logging.Logger
}

func NewHandler(gateway *Gateway, bookingsSvc BookingPayments, cfg *settings.Settings, logger *logging.Logger) *Handler {
	if gateway == nil || bookingsSvc == nil || cfg == nil {
		panic("payments: gateway, bookings and settings are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{gateway: gateway, bookings: bookingsSvc, settings: cfg, logger: logger}
}

type createOrderRequest struct {
	BookingID   *uuid.UUID   `json:"booking_id"`
	Amount      *money.Money `json:"amount"`
	Currency    string       `json:"currency"`
	PatientName string       `json:"patient_name"`
}

type createOrderResponse struct {
	Success     bool   `json:"success"`
	Order       *Order `json:"order"`
	RazorpayKey string `json:"razorpay_key"`
}

// CreateOrder handles POST /api/payments/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if !h.settings.Site.PaymentEnabled || !h.settings.Payment.Enabled {
		respond.Error(w, http.StatusServiceUnavailable, "Online payments are currently disabled.")
		return
	}
	var req createOrderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = h.settings.Payment.Currency
	}
	notes := map[string]string{}
	var (
		amount  money.Money
		receipt string
		booking *bookings.Booking
	)
	switch {
	case req.BookingID != nil:
		b, err := h.bookings.Get(ctx, *req.BookingID)
		if err != nil {
			if errors.Is(err, bookings.ErrBookingNotFound) {
				respond.Error(w, http.StatusNotFound, "Booking not found")
				return
			}
			h.logger.Error("order: booking lookup failed", "error", err, "booking_id", *req.BookingID)
			respond.Error(w, http.StatusInternalServerError, "Failed to create payment order")
			return
		}
		if b.PaymentStatus == bookings.PaymentPaid {
			respond.Error(w, http.StatusConflict, "This booking is already paid.")
			return
		}
		if b.Status.Terminal() {
			respond.Error(w, http.StatusConflict, "This booking can no longer be paid.")
			return
		}
		receipt = "booking_" + strings.ReplaceAll(b.ID.String(), "-", "")[:20]
		if b.GatewayOrderID != "" {
			// Reopened checkout: a payment against any earlier order would
			// no longer match the booking, so hand back the open one.
			h.logger.Info("order: reusing open order", "booking_id", b.ID, "order_id", b.GatewayOrderID)
			order := &Order{
				ID:          b.GatewayOrderID,
				AmountMinor: b.PaymentAmount.Minor(),
				Currency:    strings.ToUpper(currency),
				Receipt:     receipt,
			}
			respond.JSON(w, http.StatusOK, createOrderResponse{Success: true, Order: order, RazorpayKey: h.gateway.KeyID()})
			return
		}
		booking = b
		amount = b.PaymentAmount
		notes["booking_id"] = b.ID.String()
		notes["patient_name"] = b.Patient.Name
		notes["service"] = b.ServiceName
	case req.Amount != nil:
		amount = *req.Amount
		receipt = "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
		if req.PatientName != "" {
			notes["patient_name"] = req.PatientName
		}
	default:
		respond.FieldErrors(w, "Please correct the errors below.", map[string]string{"booking_id": "Provide booking_id or amount."})
		return
	}

	order, err := h.gateway.CreateOrder(ctx, amount, currency, receipt, notes)
	if err != nil {
		h.writeGatewayError(w, err, "order creation failed")
		return
	}
	if booking != nil {
		if _, err := h.bookings.AttachOrder(ctx, booking.ID, order.ID); err != nil {
			h.logger.Error("order: attach to booking failed", "error", err, "booking_id", booking.ID, "order_id", order.ID)
			respond.Error(w, http.StatusInternalServerError, "Failed to create payment order")
			return
		}
	}
	respond.JSON(w, http.StatusOK, createOrderResponse{Success: true, Order: order, RazorpayKey: h.gateway.KeyID()})
}

type verifyRequest struct {
	OrderID   string     `json:"razorpay_order_id"`
	PaymentID string     `json:"razorpay_payment_id"`
	Signature string     `json:"razorpay_signature"`
	BookingID *uuid.UUID `json:"booking_id"`
}

// Verify handles POST /api/payments/verify, the checkout success callback.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	fields := map[string]string{}
	if req.OrderID == "" {
		fields["razorpay_order_id"] = "This field is required."
	}
	if req.PaymentID == "" {
		fields["razorpay_payment_id"] = "This field is required."
	}
	if req.Signature == "" {
		fields["razorpay_signature"] = "This field is required."
	}
	if len(fields) > 0 {
		respond.FieldErrors(w, "Missing payment verification data.", fields)
		return
	}

	if err := h.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		if errors.Is(err, ErrSignatureInvalid) {
			h.logger.Warn("payment signature rejected", "order_id", req.OrderID, "payment_id", req.PaymentID)
			respond.Error(w, http.StatusBadRequest, "Payment verification failed.")
			return
		}
		h.writeGatewayError(w, err, "payment verification failed")
		return
	}

	resp := map[string]any{"success": true, "payment_id": req.PaymentID, "order_id": req.OrderID}
	if req.BookingID != nil {
		b, err := h.bookings.RecordVerifiedPayment(r.Context(), *req.BookingID, req.OrderID, req.PaymentID)
		if err != nil {
			if errors.Is(err, bookings.ErrBookingNotFound) {
				respond.Error(w, http.StatusNotFound, "Booking not found")
				return
			}
			if errors.Is(err, bookings.ErrOrderMismatch) {
				respond.Error(w, http.StatusConflict, "Payment does not match this booking.")
				return
			}
			h.logger.Error("verify: booking update failed", "error", err, "booking_id", *req.BookingID)
			respond.Error(w, http.StatusInternalServerError, "Payment verified but booking update failed.")
			return
		}
		resp["booking"] = b
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) writeGatewayError(w http.ResponseWriter, err error, msg string) {
	var gerr *GatewayError
	switch {
	case errors.Is(err, ErrAmountTooSmall):
		respond.FieldErrors(w, "Please correct the errors below.", map[string]string{"amount": "Amount is below the minimum payable amount."})
	case errors.As(err, &gerr):
		h.logger.Error(msg, "error", err)
		respond.Error(w, http.StatusBadGateway, "Payment gateway error. Please try again.")
	case errors.Is(err, ErrGatewayNotConfigured):
		h.logger.Error(msg, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Payment gateway is not configured.")
	default:
		h.logger.Error(msg, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Payment processing failed.")
	}
}

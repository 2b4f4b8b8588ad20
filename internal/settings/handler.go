package settings

import (
	"net/http"

	"github.com/wolfman30/healthcare-booking/internal/http/respond"
)

// PublicHandler exposes the non-secret settings to clients.
type PublicHandler struct {
	settings *Settings
}

func NewPublicHandler(s *Settings) *PublicHandler {
	return &PublicHandler{settings: s}
}

// ServeHTTP handles GET /api/settings/public.
func (h *PublicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	site := h.settings.Site
	pay := h.settings.Payment
	payload := map[string]any{
		"site_name":          site.SiteName,
		"contact_email":      site.ContactEmail,
		"contact_phone":      site.ContactPhone,
		"consultation_fee":   site.ConsultationFee,
		"is_booking_enabled": site.BookingEnabled,
		"is_payment_enabled": site.PaymentEnabled && pay.Enabled,
		"currency":           pay.Currency,
		"razorpay_key":       pay.KeyID,
		"maintenance_mode":   site.MaintenanceMode,
	}
	if site.MaintenanceMode {
		payload["maintenance_message"] = site.MaintenanceMessage
	}
	respond.JSON(w, http.StatusOK, payload)
}

// MaintenanceGuard rejects requests with 503 while maintenance mode is on.
func MaintenanceGuard(s *Settings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s != nil && s.Site.MaintenanceMode {
				respond.Error(w, http.StatusServiceUnavailable, s.Site.MaintenanceMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package settings holds the clinic-wide site and payment configuration.
//
// A Settings value is loaded once at startup and passed to every consumer by
// pointer; nothing reads it from package state.
package settings

import (
	"github.com/wolfman30/healthcare-booking/internal/config"
	"github.com/wolfman30/healthcare-booking/internal/money"
)

const defaultMaintenanceMessage = "We are currently performing maintenance. Please check back later."

// Site is the singleton site configuration row.
type Site struct {
	SiteName                  string      `json:"site_name"`
	ContactEmail              string      `json:"contact_email"`
	ContactPhone              string      `json:"contact_phone"`
	ConsultationFee           money.Money `json:"consultation_fee"`
	BookingEnabled            bool        `json:"is_booking_enabled"`
	PaymentEnabled            bool        `json:"is_payment_enabled"`
	BookingAdvanceDays        int         `json:"booking_advance_days"`
	BookingCancelHours        int         `json:"booking_cancel_hours"`
	AdminEmail                string      `json:"admin_email"`
	SendBookingNotifications  bool        `json:"send_booking_notifications"`
	SendReminderNotifications bool        `json:"send_reminder_notifications"`
	MaintenanceMode           bool        `json:"maintenance_mode"`
	MaintenanceMessage        string      `json:"maintenance_message"`
}

// Payment is the singleton payment gateway configuration row.
type Payment struct {
	Gateway       string      `json:"gateway"`
	Enabled       bool        `json:"is_enabled"`
	TestMode      bool        `json:"test_mode"`
	KeyID         string      `json:"key_id"`
	KeySecret     string      `json:"-"`
	WebhookSecret string      `json:"-"`
	Currency      string      `json:"currency"`
	MinimumAmount money.Money `json:"minimum_amount"`
	BusinessName  string      `json:"business_name"`
}

// Settings bundles both singletons.
type Settings struct {
	Site    Site
	Payment Payment
}

// Defaults derives settings from env configuration. Database rows loaded by
// Store.Load override these.
func Defaults(cfg *config.Config) *Settings {
	if cfg == nil {
		cfg = &config.Config{}
	}
	fee, err := money.Parse(cfg.ConsultationFee)
	if err != nil {
		fee = money.MustParse("200")
	}
	advance := cfg.BookingAdvanceDays
	if advance <= 0 {
		advance = 30
	}
	cancelHours := cfg.BookingCancelHours
	if cancelHours <= 0 {
		cancelHours = 24
	}
	currency := cfg.PaymentCurrency
	if currency == "" {
		currency = "INR"
	}
	siteName := cfg.SiteName
	if siteName == "" {
		siteName = "Pratap Bag Healthcare"
	}
	return &Settings{
		Site: Site{
			SiteName:                  siteName,
			ContactEmail:              cfg.ContactEmail,
			ContactPhone:              cfg.ContactPhone,
			ConsultationFee:           fee,
			BookingEnabled:            true,
			PaymentEnabled:            true,
			BookingAdvanceDays:        advance,
			BookingCancelHours:        cancelHours,
			AdminEmail:                cfg.AdminEmail,
			SendBookingNotifications:  true,
			SendReminderNotifications: true,
			MaintenanceMessage:        defaultMaintenanceMessage,
		},
		Payment: Payment{
			Gateway:       "razorpay",
			Enabled:       true,
			TestMode:      cfg.PaymentTestMode,
			KeyID:         cfg.RazorpayKeyID,
			KeySecret:     cfg.RazorpayKeySecret,
			WebhookSecret: cfg.RazorpayWebhookSecret,
			Currency:      currency,
			MinimumAmount: money.FromMinor(100),
			BusinessName:  siteName,
		},
	}
}

// Configured reports whether both gateway credentials are present.
func (p Payment) Configured() bool {
	return p.KeyID != "" && p.KeySecret != ""
}

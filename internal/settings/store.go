package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wolfman30/healthcare-booking/internal/money"
)

// Store persists the two singleton rows. Both tables pin id = 1 with a CHECK
// constraint, so there is never more than one row to pick from.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("settings: sql db required")
	}
	return &Store{db: db}
}

// Load reads both rows on top of defaults. A missing row keeps the defaults;
// empty credential columns keep the env-provided credentials.
func (s *Store) Load(ctx context.Context, defaults *Settings) (*Settings, error) {
	out := *defaults

	site := &out.Site
	var feeMinor int64
	err := s.db.QueryRowContext(ctx, `
		SELECT site_name, contact_email, contact_phone, consultation_fee_minor,
		       is_booking_enabled, is_payment_enabled, booking_advance_days, booking_cancel_hours,
		       admin_email, send_booking_notifications, send_reminder_notifications,
		       maintenance_mode, maintenance_message
		FROM site_settings WHERE id = 1`).Scan(
		&site.SiteName,
		&site.ContactEmail,
		&site.ContactPhone,
		&feeMinor,
		&site.BookingEnabled,
		&site.PaymentEnabled,
		&site.BookingAdvanceDays,
		&site.BookingCancelHours,
		&site.AdminEmail,
		&site.SendBookingNotifications,
		&site.SendReminderNotifications,
		&site.MaintenanceMode,
		&site.MaintenanceMessage,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		out.Site = defaults.Site
	case err != nil:
		return nil, fmt.Errorf("settings: load site: %w", err)
	default:
		site.ConsultationFee = money.FromMinor(feeMinor)
	}

	pay := &out.Payment
	var keyID, keySecret, webhookSecret string
	var minMinor int64
	err = s.db.QueryRowContext(ctx, `
		SELECT gateway, is_enabled, test_mode, key_id, key_secret, webhook_secret,
		       currency, minimum_amount_minor, business_name
		FROM payment_settings WHERE id = 1`).Scan(
		&pay.Gateway,
		&pay.Enabled,
		&pay.TestMode,
		&keyID,
		&keySecret,
		&webhookSecret,
		&pay.Currency,
		&minMinor,
		&pay.BusinessName,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		out.Payment = defaults.Payment
	case err != nil:
		return nil, fmt.Errorf("settings: load payment: %w", err)
	default:
		pay.MinimumAmount = money.FromMinor(minMinor)
		pay.KeyID = firstNonEmpty(keyID, defaults.Payment.KeyID)
		pay.KeySecret = firstNonEmpty(keySecret, defaults.Payment.KeySecret)
		pay.WebhookSecret = firstNonEmpty(webhookSecret, defaults.Payment.WebhookSecret)
	}

	return &out, nil
}

// SaveSite upserts the site row.
func (s *Store) SaveSite(ctx context.Context, site Site) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (id, site_name, contact_email, contact_phone, consultation_fee_minor,
			is_booking_enabled, is_payment_enabled, booking_advance_days, booking_cancel_hours,
			admin_email, send_booking_notifications, send_reminder_notifications,
			maintenance_mode, maintenance_message, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			contact_email = EXCLUDED.contact_email,
			contact_phone = EXCLUDED.contact_phone,
			consultation_fee_minor = EXCLUDED.consultation_fee_minor,
			is_booking_enabled = EXCLUDED.is_booking_enabled,
			is_payment_enabled = EXCLUDED.is_payment_enabled,
			booking_advance_days = EXCLUDED.booking_advance_days,
			booking_cancel_hours = EXCLUDED.booking_cancel_hours,
			admin_email = EXCLUDED.admin_email,
			send_booking_notifications = EXCLUDED.send_booking_notifications,
			send_reminder_notifications = EXCLUDED.send_reminder_notifications,
			maintenance_mode = EXCLUDED.maintenance_mode,
			maintenance_message = EXCLUDED.maintenance_message,
			updated_at = NOW()`,
		site.SiteName, site.ContactEmail, site.ContactPhone, site.ConsultationFee.Minor(),
		site.BookingEnabled, site.PaymentEnabled, site.BookingAdvanceDays, site.BookingCancelHours,
		site.AdminEmail, site.SendBookingNotifications, site.SendReminderNotifications,
		site.MaintenanceMode, site.MaintenanceMessage,
	)
	if err != nil {
		return fmt.Errorf("settings: save site: %w", err)
	}
	return nil
}

// SavePayment upserts the payment row.
func (s *Store) SavePayment(ctx context.Context, p Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_settings (id, gateway, is_enabled, test_mode, key_id, key_secret,
			webhook_secret, currency, minimum_amount_minor, business_name, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			gateway = EXCLUDED.gateway,
			is_enabled = EXCLUDED.is_enabled,
			test_mode = EXCLUDED.test_mode,
			key_id = EXCLUDED.key_id,
			key_secret = EXCLUDED.key_secret,
			webhook_secret = EXCLUDED.webhook_secret,
			currency = EXCLUDED.currency,
			minimum_amount_minor = EXCLUDED.minimum_amount_minor,
			business_name = EXCLUDED.business_name,
			updated_at = NOW()`,
		p.Gateway, p.Enabled, p.TestMode, p.KeyID, p.KeySecret,
		p.WebhookSecret, p.Currency, p.MinimumAmount.Minor(), p.BusinessName,
	)
	if err != nil {
		return fmt.Errorf("settings: save payment: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

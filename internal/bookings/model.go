package bookings

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/money"
)

// Status is the appointment axis of a booking.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Terminal reports whether no further transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// HoldsSlot reports whether a booking in s occupies its appointment slot.
func (s Status) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

// PaymentStatus is the payment axis, independent of Status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod is how the patient intends to pay.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

// ParsePaymentMethod validates a client-supplied method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentOnline:
		return PaymentMethod(s), nil
	}
	return "", ErrInvalidPaymentMethod
}

// Gender is the optional patient gender captured at intake.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ValidGender reports whether g is empty or a known value.
func ValidGender(g Gender) bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Patient is the contact snapshot copied onto a booking at creation time.
// It never follows later edits to an account.
type Patient struct {
	Name     string `json:"patient_name"`
	Age      int    `json:"patient_age"`
	Gender   Gender `json:"patient_gender,omitempty"`
	Phone    string `json:"patient_phone"`
	Email    string `json:"patient_email"`
	WhatsApp string `json:"whatsapp_number,omitempty"`
}

// Booking is one appointment request with its own lifecycle.
type Booking struct {
	ID              uuid.UUID               `json:"booking_id"`
	AccountID       *uuid.UUID              `json:"account_id,omitempty"`
	ServiceID       int64                   `json:"service_id"`
	ServiceName     string                  `json:"service_name"`
	AppointmentDate *civil.Date             `json:"appointment_date,omitempty"`
	AppointmentTime *availability.ClockTime `json:"appointment_time,omitempty"`
	DurationMinutes int                     `json:"duration_minutes"`
	Patient

	Symptoms          string `json:"symptoms,omitempty"`
	PresentComplaints string `json:"present_complaints,omitempty"`
	MedicalHistory    string `json:"medical_history,omitempty"`

	Status         Status        `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	PaymentAmount  money.Money   `json:"payment_amount"`
	GatewayOrderID string        `json:"gateway_order_id,omitempty"`
	PaymentRef     string        `json:"payment_id,omitempty"`
	AdminNotes     string        `json:"admin_notes,omitempty"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// OwnedBy reports whether accountID owns the booking.
func (b *Booking) OwnedBy(accountID uuid.UUID) bool {
	return b.AccountID != nil && accountID != uuid.Nil && *b.AccountID == accountID
}

// AppendNote adds a line to the admin notes.
func (b *Booking) AppendNote(note string) {
	if b.AdminNotes == "" {
		b.AdminNotes = note
		return
	}
	b.AdminNotes += "\n" + note
}

// Clone returns a deep copy so stores never share pointers with callers.
func (b *Booking) Clone() *Booking {
	cp := *b
	if b.AccountID != nil {
		id := *b.AccountID
		cp.AccountID = &id
	}
	if b.AppointmentDate != nil {
		d := *b.AppointmentDate
		cp.AppointmentDate = &d
	}
	if b.AppointmentTime != nil {
		t := *b.AppointmentTime
		cp.AppointmentTime = &t
	}
	cp.ReminderSentAt = cloneTime(b.ReminderSentAt)
	cp.ConfirmedAt = cloneTime(b.ConfirmedAt)
	cp.CompletedAt = cloneTime(b.CompletedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NewBooking is the input for Service.Create.
type NewBooking struct {
	AccountID         *uuid.UUID
	ServiceID         int64
	AppointmentDate   *civil.Date
	AppointmentTime   *availability.ClockTime
	Patient           Patient
	Symptoms          string
	PresentComplaints string
	MedicalHistory    string
	PaymentMethod     PaymentMethod
	// PaymentRef is set when payment was already captured before the booking
	// was materialized.
	PaymentRef string
}

// PrescriptionUpload is a file attached to a booking by its owner.
type PrescriptionUpload struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AccountID   uuid.UUID `json:"account_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

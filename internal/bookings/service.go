package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/catalog"
	"github.com/wolfman30/healthcare-booking/internal/observability/metrics"
	"github.com/wolfman30/healthcare-booking/internal/settings"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

var bookingsTracer = otel.Tracer("clinic.internal.bookings")

// Notifier sends the patient confirmation email. Implementations log and
// swallow delivery failures.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b *Booking)
}

// Service owns booking creation and every lifecycle mutation.
type Service struct {
	repo     Repository
	services catalog.Repository
	checker  *availability.Checker
	locker   availability.SlotLocker
	notifier Notifier
	settings *settings.Settings
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	loc      *time.Location
	now      func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithSlotLocker serializes the availability check and insert per slot.
// Without it, two concurrent requests may both book the same slot.
func WithSlotLocker(l availability.SlotLocker) Option {
	return func(s *Service) { s.locker = l }
}

// WithNotifier sets the confirmation email sender.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics records booking counters.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLocation sets the clinic time zone used to decide "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a bookings service.
func NewService(repo Repository, services catalog.Repository, cfg *settings.Settings, logger *logging.Logger, opts ...Option) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if services == nil {
		panic("bookings: catalog required")
	}
	if cfg == nil {
		panic("bookings: settings required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:     repo,
		services: services,
		checker:  availability.NewChecker(repo),
		settings: cfg,
		logger:   logger,
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checker exposes the availability checker backed by this service's store.
func (s *Service) Checker() *availability.Checker { return s.checker }

// Today returns the current date in the clinic's time zone.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

// Create materializes a booking. Amount and duration always come from the
// catalog entry at the time of the call.
func (s *Service) Create(ctx context.Context, in NewBooking) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("clinic.service_id", in.ServiceID),
		attribute.String("clinic.payment_method", string(in.PaymentMethod)),
	)

	b, err := s.create(ctx, in)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("clinic.booking_id", b.ID.String()))
	return b, nil
}

// Precheck runs every check Create would run, including availability,
// without writing anything. A nil result does not reserve the slot.
func (s *Service) Precheck(ctx context.Context, in NewBooking) error {
	if _, _, err := s.validate(ctx, in); err != nil {
		return err
	}
	if in.AppointmentDate == nil || in.AppointmentTime == nil {
		return nil
	}
	free, err := s.checker.IsAvailable(ctx, *in.AppointmentDate, *in.AppointmentTime)
	if err != nil {
		return err
	}
	if !free {
		return ErrSlotUnavailable
	}
	return nil
}

func (s *Service) validate(ctx context.Context, in NewBooking) (*catalog.Service, PaymentMethod, error) {
	if !s.settings.Site.BookingEnabled {
		return nil, "", ErrBookingDisabled
	}
	svc, err := catalog.GetActive(ctx, s.services, in.ServiceID)
	if err != nil {
		return nil, "", err
	}
	method, err := ParsePaymentMethod(string(in.PaymentMethod))
	if err != nil {
		return nil, "", err
	}
	if fields := ValidatePatient(in.Patient, false); len(fields) > 0 {
		return nil, "", &PatientError{Fields: fields}
	}
	if err := s.validateSchedule(in.AppointmentDate, in.AppointmentTime); err != nil {
		return nil, "", err
	}
	return svc, method, nil
}

func (s *Service) create(ctx context.Context, in NewBooking) (*Booking, error) {
	svc, method, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.AppointmentDate != nil && in.AppointmentTime != nil {
		if s.locker != nil {
			unlock, err := s.locker.Lock(ctx, *in.AppointmentDate, *in.AppointmentTime)
			if err != nil {
				if errors.Is(err, availability.ErrSlotLocked) {
					return nil, ErrSlotUnavailable
				}
				return nil, err
			}
			defer unlock()
		}
		free, err := s.checker.IsAvailable(ctx, *in.AppointmentDate, *in.AppointmentTime)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, ErrSlotUnavailable
		}
	}

	now := s.now().UTC()
	b := &Booking{
		ID:                uuid.New(),
		AccountID:         in.AccountID,
		ServiceID:         svc.ID,
		ServiceName:       svc.Name,
		AppointmentDate:   in.AppointmentDate,
		AppointmentTime:   in.AppointmentTime,
		DurationMinutes:   svc.DurationMinutes,
		Patient:           in.Patient,
		Symptoms:          in.Symptoms,
		PresentComplaints: in.PresentComplaints,
		MedicalHistory:    in.MedicalHistory,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		PaymentMethod:     method,
		PaymentAmount:     svc.Price,
	}
	switch {
	case in.PaymentRef != "":
		b.PaymentRef = in.PaymentRef
		b.PaymentStatus = PaymentPaid
		b.Confirm(now)
	case method == PaymentCash:
		b.Confirm(now)
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.metrics.ObserveBookingCreated(string(method))
	s.logger.Info("booking created",
		"booking_id", b.ID,
		"service_id", b.ServiceID,
		"status", b.Status,
		"payment_method", b.PaymentMethod,
	)
	s.notify(ctx, b)
	return b, nil
}

func (s *Service) validateSchedule(date *civil.Date, t *availability.ClockTime) error {
	if t != nil && !availability.IsSlot(*t) {
		return ErrInvalidSlot
	}
	if date == nil {
		return nil
	}
	today := s.Today()
	last := today.AddDays(s.settings.Site.BookingAdvanceDays)
	if date.Before(today) || date.After(last) {
		return fmt.Errorf("%w: %s not within %s..%s", ErrDateOutOfWindow, date, today, last)
	}
	return nil
}

// Get loads a booking by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// ListForAccount returns an account's bookings, newest first.
func (s *Service) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*Booking, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// Transition applies action to one booking through the state machine.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, action Action) (*Booking, bool, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	changed, err := b.Apply(action, s.now(), s.Today())
	if err != nil {
		s.metrics.ObserveTransition(string(action), "rejected")
		return b, false, err
	}
	if !changed {
		s.metrics.ObserveTransition(string(action), "noop")
		return b, false, nil
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, false, err
	}
	s.metrics.ObserveTransition(string(action), "changed")
	s.logger.Info("booking transitioned", "booking_id", b.ID, "action", action, "status", b.Status)
	return b, true, nil
}

// Confirm is idempotent: confirming a confirmed booking changes nothing.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, _, err := s.Transition(ctx, id, ActionConfirm)
	return b, err
}

func (s *Service) Start(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, _, err := s.Transition(ctx, id, ActionStart)
	return b, err
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, _, err := s.Transition(ctx, id, ActionComplete)
	return b, err
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b, _, err := s.Transition(ctx, id, ActionNoShow)
	return b, err
}

// Cancel cancels on behalf of accountID, which must own the booking.
func (s *Service) Cancel(ctx context.Context, id, accountID uuid.UUID) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(accountID) {
		return nil, ErrForbidden
	}
	b, _, err = s.Transition(ctx, id, ActionCancel)
	return b, err
}

// AttachOrder records the gateway order created for an online booking so
// order-level webhooks can find it.
func (s *Service) AttachOrder(ctx context.Context, id uuid.UUID, orderID string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	b.GatewayOrderID = orderID
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// RecordVerifiedPayment applies a client-side payment callback whose
// signature has already been verified. Whichever of this callback and the
// capture webhook first flips the booking to paid sends the email.
func (s *Service) RecordVerifiedPayment(ctx context.Context, id uuid.UUID, orderID, paymentRef string) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// The order must be the one created for this booking, so its amount
	// came from the booking and not from the client.
	if b.GatewayOrderID == "" || b.GatewayOrderID != orderID {
		s.logger.Warn("payment callback order mismatch", "booking_id", b.ID, "order_id", orderID, "booking_order_id", b.GatewayOrderID)
		return nil, ErrOrderMismatch
	}
	b.PaymentRef = paymentRef
	newlyPaid := b.MarkPaymentCaptured(paymentRef, s.now())
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("payment verified", "booking_id", b.ID, "payment_id", paymentRef)
	if newlyPaid && b.Status != StatusCancelled {
		s.notify(ctx, b)
	}
	return b, nil
}

func (s *Service) notify(ctx context.Context, b *Booking) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendBookingConfirmation(ctx, b)
}

// PatientError lists invalid patient fields.
type PatientError struct {
	Fields map[string]string
}

func (e *PatientError) Error() string {
	return fmt.Sprintf("%s (%d fields)", ErrInvalidPatient, len(e.Fields))
}

func (e *PatientError) Unwrap() error { return ErrInvalidPatient }

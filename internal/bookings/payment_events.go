package bookings

import (
	"context"
	"errors"
)

// PaymentEvent identifies the booking a processor notification refers to.
// PaymentRef is tried first; OrderID is the fallback for bookings whose
// payment id is not known locally yet.
type PaymentEvent struct {
	PaymentRef string
	OrderID    string
	Reason     string
}

func (s *Service) resolve(ctx context.Context, ev PaymentEvent) (*Booking, error) {
	b, err := s.repo.GetByPaymentRef(ctx, ev.PaymentRef)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}
	return s.repo.GetByGatewayOrderID(ctx, ev.OrderID)
}

// PaymentAuthorized leaves status alone and keeps payment pending.
func (s *Service) PaymentAuthorized(ctx context.Context, ev PaymentEvent) (*Booking, error) {
	b, err := s.resolve(ctx, ev)
	if err != nil {
		return nil, err
	}
	b.MarkPaymentAuthorized(ev.PaymentRef)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// PaymentCaptured marks the booking paid and confirmed, and sends the
// confirmation email the first time the payment flips to paid.
func (s *Service) PaymentCaptured(ctx context.Context, ev PaymentEvent) (*Booking, error) {
	b, err := s.resolve(ctx, ev)
	if err != nil {
		return nil, err
	}
	newlyPaid := b.MarkPaymentCaptured(ev.PaymentRef, s.now())
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("payment captured", "booking_id", b.ID, "payment_id", b.PaymentRef, "status", b.Status)
	if newlyPaid && b.Status != StatusCancelled {
		s.notify(ctx, b)
	}
	return b, nil
}

// PaymentFailed records the failure reason in the admin notes.
func (s *Service) PaymentFailed(ctx context.Context, ev PaymentEvent) (*Booking, error) {
	b, err := s.resolve(ctx, ev)
	if err != nil {
		return nil, err
	}
	b.MarkPaymentFailed(ev.PaymentRef, ev.Reason)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Warn("payment failed", "booking_id", b.ID, "payment_id", ev.PaymentRef, "reason", ev.Reason)
	return b, nil
}

// OrderPaid resolves the booking by gateway order id and treats it as a capture.
func (s *Service) OrderPaid(ctx context.Context, ev PaymentEvent) (*Booking, error) {
	return s.PaymentCaptured(ctx, PaymentEvent{PaymentRef: ev.PaymentRef, OrderID: ev.OrderID})
}

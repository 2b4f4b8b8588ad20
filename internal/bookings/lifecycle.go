package bookings

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Action names a lifecycle transition. Admin bulk actions use the same names.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no_show"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionConfirm, ActionStart, ActionComplete, ActionCancel, ActionNoShow:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, s)
}

// Confirm moves pending to confirmed and stamps ConfirmedAt once.
// It reports false without error when there is nothing to do, which covers
// bookings already confirmed or further along.
func (b *Booking) Confirm(now time.Time) bool {
	if b.Status != StatusPending {
		return false
	}
	b.Status = StatusConfirmed
	if b.ConfirmedAt == nil {
		t := now.UTC()
		b.ConfirmedAt = &t
	}
	return true
}

// Start marks a confirmed appointment as in progress.
func (b *Booking) Start() error {
	if b.Status != StatusConfirmed {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusInProgress
	return nil
}

// Complete finishes a pending, confirmed or in-progress booking.
func (b *Booking) Complete(now time.Time) error {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusInProgress:
	default:
		return fmt.Errorf("%w: complete from %s", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusCompleted
	if b.CompletedAt == nil {
		t := now.UTC()
		b.CompletedAt = &t
	}
	return nil
}

// Cancel cancels a pending or confirmed booking whose appointment date, if
// any, is not before today. Payment status is left alone.
func (b *Booking) Cancel(today civil.Date) error {
	if !b.Status.HoldsSlot() {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, b.Status)
	}
	if b.AppointmentDate != nil && b.AppointmentDate.Before(today) {
		return ErrCancellationWindowClosed
	}
	b.Status = StatusCancelled
	return nil
}

// MarkNoShow records that the patient did not attend.
func (b *Booking) MarkNoShow() error {
	if !b.Status.HoldsSlot() {
		return fmt.Errorf("%w: no_show from %s", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusNoShow
	return nil
}

// MarkPaymentAuthorized keeps payment pending; authorization is not capture.
func (b *Booking) MarkPaymentAuthorized(paymentRef string) {
	b.attachPaymentRef(paymentRef)
	if b.PaymentStatus != PaymentPaid {
		b.PaymentStatus = PaymentPending
	}
}

// MarkPaymentCaptured records the payment and confirms the booking. It
// reports whether the payment status changed to paid on this call.
// A cancelled or otherwise terminal booking stays in its status.
func (b *Booking) MarkPaymentCaptured(paymentRef string, now time.Time) bool {
	b.attachPaymentRef(paymentRef)
	changed := b.PaymentStatus != PaymentPaid
	b.PaymentStatus = PaymentPaid
	if b.Status == StatusCancelled && changed {
		b.AppendNote("Payment captured after cancellation; refund required")
	}
	b.Confirm(now)
	return changed
}

// MarkPaymentFailed records a failed payment with the processor's reason.
func (b *Booking) MarkPaymentFailed(paymentRef, reason string) {
	b.attachPaymentRef(paymentRef)
	if b.PaymentStatus == PaymentPaid {
		return
	}
	b.PaymentStatus = PaymentFailed
	b.AppendNote("Payment failed: " + reason)
}

func (b *Booking) attachPaymentRef(ref string) {
	if ref != "" && b.PaymentRef == "" {
		b.PaymentRef = ref
	}
}

// Apply runs the named transition. changed is false when the transition was
// a permitted no-op (confirming an already confirmed booking).
func (b *Booking) Apply(action Action, now time.Time, today civil.Date) (changed bool, err error) {
	switch action {
	case ActionConfirm:
		if b.Status.Terminal() {
			return false, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, b.Status)
		}
		return b.Confirm(now), nil
	case ActionStart:
		err = b.Start()
	case ActionComplete:
		err = b.Complete(now)
	case ActionCancel:
		err = b.Cancel(today)
	case ActionNoShow:
		err = b.MarkNoShow()
	default:
		return false, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	return err == nil, err
}

package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when no booking matches the lookup.
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrInvalidTransition is returned when the current status has no edge for the requested action.
	ErrInvalidTransition = errors.New("bookings: invalid status transition")

	// ErrCancellationWindowClosed is returned when cancelling a booking whose appointment date has passed.
	ErrCancellationWindowClosed = errors.New("bookings: cancellation window closed")

	// ErrSlotUnavailable is returned when the requested slot is already held.
	ErrSlotUnavailable = errors.New("bookings: time slot no longer available")

	// ErrInvalidSlot is returned when the requested time is not a daily slot start.
	ErrInvalidSlot = errors.New("bookings: not a bookable time slot")

	// ErrDateOutOfWindow is returned for dates in the past or beyond the advance booking window.
	ErrDateOutOfWindow = errors.New("bookings: appointment date outside booking window")

	// ErrBookingDisabled is returned when online booking is switched off in site settings.
	ErrBookingDisabled = errors.New("bookings: booking is currently disabled")

	// ErrInvalidPaymentMethod is returned for payment methods other than cash and online.
	ErrInvalidPaymentMethod = errors.New("bookings: invalid payment method")

	// ErrOrderMismatch is returned when a payment callback names an order that was not created for the booking.
	ErrOrderMismatch = errors.New("bookings: payment order does not belong to booking")

	// ErrForbidden is returned when an account acts on a booking it does not own.
	ErrForbidden = errors.New("bookings: booking belongs to another account")

	// ErrInvalidPatient is returned when the patient snapshot is incomplete.
	ErrInvalidPatient = errors.New("bookings: patient details incomplete")

	// ErrUnsupportedFile is returned for prescription uploads that are not PDF, JPEG or PNG.
	ErrUnsupportedFile = errors.New("bookings: unsupported file type")

	// ErrFileTooLarge is returned for prescription uploads over the size limit.
	ErrFileTooLarge = errors.New("bookings: file too large")
)

package bookings

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/availability"
)

// Repository persists bookings.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByPaymentRef(ctx context.Context, ref string) (*Booking, error)
	GetByGatewayOrderID(ctx context.Context, orderID string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Booking, error)
	ListDueForReminder(ctx context.Context, date civil.Date) ([]*Booking, error)
	ReservedTimes(ctx context.Context, date civil.Date) ([]availability.ClockTime, error)
}

// PrescriptionRepository persists prescription upload metadata.
type PrescriptionRepository interface {
	AddPrescription(ctx context.Context, p *PrescriptionUpload) error
	ListPrescriptions(ctx context.Context, bookingID uuid.UUID) ([]*PrescriptionUpload, error)
}

// InMemoryRepository is a development and test store.
type InMemoryRepository struct {
	mu            sync.RWMutex
	bookings      map[uuid.UUID]*Booking
	prescriptions map[uuid.UUID][]*PrescriptionUpload
}

// NewInMemoryRepository creates an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bookings:      make(map[uuid.UUID]*Booking),
		prescriptions: make(map[uuid.UUID][]*PrescriptionUpload),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	r.bookings[b.ID] = b.Clone()
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *InMemoryRepository) GetByPaymentRef(ctx context.Context, ref string) (*Booking, error) {
	return r.findOne(func(b *Booking) bool { return ref != "" && b.PaymentRef == ref })
}

func (r *InMemoryRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*Booking, error) {
	return r.findOne(func(b *Booking) bool { return orderID != "" && b.GatewayOrderID == orderID })
}

func (r *InMemoryRepository) findOne(match func(*Booking) bool) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bookings {
		if match(b) {
			return b.Clone(), nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *InMemoryRepository) Update(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	r.bookings[b.ID] = b.Clone()
	return nil
}

func (r *InMemoryRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Booking, error) {
	out := r.filter(func(b *Booking) bool { return b.OwnedBy(accountID) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) ListDueForReminder(ctx context.Context, date civil.Date) ([]*Booking, error) {
	out := r.filter(func(b *Booking) bool {
		return b.Status.HoldsSlot() && b.ReminderSentAt == nil &&
			b.AppointmentDate != nil && *b.AppointmentDate == date
	})
	sortBySlot(out)
	return out, nil
}

func (r *InMemoryRepository) ReservedTimes(ctx context.Context, date civil.Date) ([]availability.ClockTime, error) {
	held := r.filter(func(b *Booking) bool {
		return b.Status.HoldsSlot() && b.AppointmentDate != nil && *b.AppointmentDate == date && b.AppointmentTime != nil
	})
	out := make([]availability.ClockTime, 0, len(held))
	for _, b := range held {
		out = append(out, *b.AppointmentTime)
	}
	return out, nil
}

func (r *InMemoryRepository) filter(match func(*Booking) bool) []*Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Booking
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func (r *InMemoryRepository) AddPrescription(ctx context.Context, p *PrescriptionUpload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[p.BookingID]; !ok {
		return ErrBookingNotFound
	}
	cp := *p
	r.prescriptions[p.BookingID] = append(r.prescriptions[p.BookingID], &cp)
	return nil
}

func (r *InMemoryRepository) ListPrescriptions(ctx context.Context, bookingID uuid.UUID) ([]*PrescriptionUpload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.prescriptions[bookingID]
	out := make([]*PrescriptionUpload, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		cp := *src[i]
		out = append(out, &cp)
	}
	return out, nil
}

func sortBySlot(list []*Booking) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].AppointmentTime, list[j].AppointmentTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}

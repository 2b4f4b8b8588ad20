package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/money"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings and prescription metadata in Postgres.
type PostgresRepository struct {
	db dbtx
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db dbtx) *PostgresRepository {
	if db == nil {
		panic("bookings: db required")
	}
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, account_id, service_id, service_name, appointment_date, appointment_time,
	duration_minutes, patient_name, patient_age, patient_gender, patient_phone, patient_email,
	whatsapp_number, symptoms, present_complaints, medical_history, status, payment_status,
	payment_method, payment_amount, gateway_order_id, payment_ref, admin_notes, reminder_sent_at,
	confirmed_at, completed_at, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query, r.args(b)...).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, b *Booking) error {
	query := `
		UPDATE bookings SET
			account_id = $2, service_id = $3, service_name = $4, appointment_date = $5,
			appointment_time = $6, duration_minutes = $7, patient_name = $8, patient_age = $9,
			patient_gender = $10, patient_phone = $11, patient_email = $12, whatsapp_number = $13,
			symptoms = $14, present_complaints = $15, medical_history = $16, status = $17,
			payment_status = $18, payment_method = $19, payment_amount = $20, gateway_order_id = $21,
			payment_ref = $22, admin_notes = $23, reminder_sent_at = $24, confirmed_at = $25,
			completed_at = $26, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query, r.args(b)...).Scan(&b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("bookings: update %s: %w", b.ID, err)
	}
	return nil
}

// args lists the 26 writable columns in bookingColumns order.
func (r *PostgresRepository) args(b *Booking) []any {
	var timeText pgtype.Text
	if b.AppointmentTime != nil {
		timeText = pgtype.Text{String: b.AppointmentTime.String(), Valid: true}
	}
	return []any{
		b.ID,
		toPGUUIDPtr(b.AccountID),
		b.ServiceID,
		b.ServiceName,
		toPGDate(b.AppointmentDate),
		timeText,
		b.DurationMinutes,
		b.Patient.Name,
		b.Patient.Age,
		string(b.Patient.Gender),
		b.Patient.Phone,
		b.Patient.Email,
		b.Patient.WhatsApp,
		b.Symptoms,
		b.PresentComplaints,
		b.MedicalHistory,
		string(b.Status),
		string(b.PaymentStatus),
		string(b.PaymentMethod),
		b.PaymentAmount.Minor(),
		toPGText(b.GatewayOrderID),
		toPGText(b.PaymentRef),
		b.AdminNotes,
		toPGNullableTime(b.ReminderSentAt),
		toPGNullableTime(b.ConfirmedAt),
		toPGNullableTime(b.CompletedAt),
	}
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByPaymentRef(ctx context.Context, ref string) (*Booking, error) {
	if ref == "" {
		return nil, ErrBookingNotFound
	}
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_ref = $1`, ref)
}

func (r *PostgresRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*Booking, error) {
	if orderID == "" {
		return nil, ErrBookingNotFound
	}
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE gateway_order_id = $1 ORDER BY created_at DESC LIMIT 1`, orderID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
}

func (r *PostgresRepository) ListDueForReminder(ctx context.Context, date civil.Date) ([]*Booking, error) {
	return r.list(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE appointment_date = $1 AND status IN ('pending', 'confirmed') AND reminder_sent_at IS NULL
		ORDER BY appointment_time`, toPGDate(&date))
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ReservedTimes(ctx context.Context, date civil.Date) ([]availability.ClockTime, error) {
	rows, err := r.db.Query(ctx, `
		SELECT appointment_time FROM bookings
		WHERE appointment_date = $1 AND status IN ('pending', 'confirmed') AND appointment_time IS NOT NULL`,
		toPGDate(&date))
	if err != nil {
		return nil, fmt.Errorf("bookings: reserved times: %w", err)
	}
	defer rows.Close()

	var out []availability.ClockTime
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("bookings: scan reserved time: %w", err)
		}
		t, err := availability.ParseClock(raw)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) AddPrescription(ctx context.Context, p *PrescriptionUpload) error {
	query := `
		INSERT INTO prescription_uploads (id, booking_id, account_id, file_name, content_type, size_bytes, storage_key, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING uploaded_at
	`
	if err := r.db.QueryRow(ctx, query,
		p.ID, p.BookingID, p.AccountID, p.FileName, p.ContentType, p.SizeBytes, p.StorageKey, p.Description,
	).Scan(&p.UploadedAt); err != nil {
		return fmt.Errorf("bookings: insert prescription: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPrescriptions(ctx context.Context, bookingID uuid.UUID) ([]*PrescriptionUpload, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, booking_id, account_id, file_name, content_type, size_bytes, storage_key, description, uploaded_at
		FROM prescription_uploads WHERE booking_id = $1 ORDER BY uploaded_at DESC`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*PrescriptionUpload
	for rows.Next() {
		var p PrescriptionUpload
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AccountID, &p.FileName, &p.ContentType,
			&p.SizeBytes, &p.StorageKey, &p.Description, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan prescription: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b                                    Booking
		accountID                            pgtype.UUID
		apptDate                             pgtype.Date
		apptTime, orderID, paymentRef        pgtype.Text
		gender, status, payStatus, method    string
		amount                               int64
		reminderAt, confirmedAt, completedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&b.ID,
		&accountID,
		&b.ServiceID,
		&b.ServiceName,
		&apptDate,
		&apptTime,
		&b.DurationMinutes,
		&b.Patient.Name,
		&b.Patient.Age,
		&gender,
		&b.Patient.Phone,
		&b.Patient.Email,
		&b.Patient.WhatsApp,
		&b.Symptoms,
		&b.PresentComplaints,
		&b.MedicalHistory,
		&status,
		&payStatus,
		&method,
		&amount,
		&orderID,
		&paymentRef,
		&b.AdminNotes,
		&reminderAt,
		&confirmedAt,
		&completedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if accountID.Valid {
		id := uuid.UUID(accountID.Bytes)
		b.AccountID = &id
	}
	if apptDate.Valid {
		d := civil.DateOf(apptDate.Time)
		b.AppointmentDate = &d
	}
	if apptTime.Valid {
		if t, err := availability.ParseClock(apptTime.String); err == nil {
			b.AppointmentTime = &t
		}
	}
	b.Patient.Gender = Gender(gender)
	b.Status = Status(status)
	b.PaymentStatus = PaymentStatus(payStatus)
	b.PaymentMethod = PaymentMethod(method)
	b.PaymentAmount = money.FromMinor(amount)
	b.GatewayOrderID = orderID.String
	b.PaymentRef = paymentRef.String
	b.ReminderSentAt = fromPGTime(reminderAt)
	b.ConfirmedAt = fromPGTime(confirmedAt)
	b.CompletedAt = fromPGTime(completedAt)
	return &b, nil
}

func toPGUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil || *id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: [16]byte(*id), Valid: true}
}

func toPGDate(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func toPGText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPGNullableTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func fromPGTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

package intake

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/catalog"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Field keys held in State.Fields. They match the booking JSON names.
const (
	fieldServiceID         = "service_id"
	fieldName              = "patient_name"
	fieldEmail             = "patient_email"
	fieldPhone             = "patient_phone"
	fieldWhatsApp          = "whatsapp_number"
	fieldAge               = "patient_age"
	fieldGender            = "patient_gender"
	fieldAddress           = "address"
	fieldDate              = "appointment_date"
	fieldTime              = "appointment_time"
	fieldSymptoms          = "symptoms"
	fieldPresentComplaints = "present_complaints"
	fieldMedicalHistory    = "medical_history"
)

// NextAction tells the client what to do after Finalize.
type NextAction string

const (
	NextPayment   NextAction = "payment"
	NextConfirmed NextAction = "confirmed"
)

// Options toggles which inputs the wizard requires.
type Options struct {
	CollectGender     bool
	CollectDate       bool
	CollectTime       bool
	ProvisionAccounts bool
}

// Booker creates the durable booking at the end of the wizard.
type Booker interface {
	Precheck(ctx context.Context, in bookings.NewBooking) error
	Create(ctx context.Context, in bookings.NewBooking) (*bookings.Booking, error)
}

// ContactInput is the body of the contact step.
type ContactInput struct {
	Name     string `json:"patient_name"`
	Email    string `json:"patient_email"`
	Phone    string `json:"patient_phone"`
	WhatsApp string `json:"whatsapp_number"`
	Age      int    `json:"patient_age"`
	Gender   string `json:"patient_gender"`
	Address  string `json:"address"`
}

// ScheduleInput is the body of the schedule step.
type ScheduleInput struct {
	Date              string `json:"appointment_date"`
	Time              string `json:"appointment_time"`
	Symptoms          string `json:"symptoms"`
	PresentComplaints string `json:"present_complaints"`
	MedicalHistory    string `json:"medical_history"`
}

// FinalizeInput is the body of the confirm step.
type FinalizeInput struct {
	PaymentMethod string `json:"payment_method"`
	Password      string `json:"password"`
}

// Result is what Finalize hands back to the client.
type Result struct {
	Booking     *bookings.Booking `json:"booking"`
	Account     *accounts.Account `json:"account,omitempty"`
	AccessToken string            `json:"access_token,omitempty"`
	NextAction  NextAction        `json:"next_action"`
}

// Wizard drives the intake steps.
type Wizard struct {
	store       Store
	services    catalog.Repository
	booker      Booker
	accounts    accounts.Repository
	provisioner *accounts.Provisioner
	tokens      *accounts.TokenIssuer
	opts        Options
	logger      *logging.Logger
	now         func() time.Time
}

// WizardOption configures optional collaborators.
type WizardOption func(*Wizard)

// WithAccounts enables profile back-fill, provisioning and token issuance.
func WithAccounts(repo accounts.Repository, p *accounts.Provisioner, tokens *accounts.TokenIssuer) WizardOption {
	return func(w *Wizard) {
		w.accounts = repo
		w.provisioner = p
		w.tokens = tokens
	}
}

func NewWizard(store Store, services catalog.Repository, booker Booker, opts Options, logger *logging.Logger, extra ...WizardOption) *Wizard {
	if store == nil || services == nil || booker == nil {
		panic("intake: store, catalog and booker are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Wizard{store: store, services: services, booker: booker, opts: opts, logger: logger, now: time.Now}
	for _, opt := range extra {
		opt(w)
	}
	return w
}

// Start opens a new session.
func (w *Wizard) Start(ctx context.Context) (*State, error) {
	st := newState(w.now())
	if err := w.store.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Load returns the session so earlier steps can be re-rendered.
func (w *Wizard) Load(ctx context.Context, token string) (*State, error) {
	return w.store.Load(ctx, token)
}

func (w *Wizard) begin(ctx context.Context, token string, step Step) (*State, error) {
	st, err := w.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if !st.allows(step) {
		return nil, fmt.Errorf("%w: %s before %s", ErrStepOutOfOrder, step, st.Step)
	}
	return st, nil
}

func (w *Wizard) commit(ctx context.Context, st *State, step Step) (*State, error) {
	st.advance(step, w.now())
	if err := w.store.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// SelectService records the chosen service.
func (w *Wizard) SelectService(ctx context.Context, token string, serviceID int64) (*State, error) {
	st, err := w.begin(ctx, token, StepService)
	if err != nil {
		return nil, err
	}
	if _, err := catalog.GetActive(ctx, w.services, serviceID); err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, ErrInvalidSelection
		}
		return nil, err
	}
	st.set(fieldServiceID, strconv.FormatInt(serviceID, 10))
	return w.commit(ctx, st, StepService)
}

// SubmitContact validates patient contact details. For a signed-in account,
// empty profile fields are filled from the submission.
func (w *Wizard) SubmitContact(ctx context.Context, token string, accountID *uuid.UUID, in ContactInput) (*State, error) {
	st, err := w.begin(ctx, token, StepContact)
	if err != nil {
		return nil, err
	}
	patient := bookings.Patient{
		Name:     strings.TrimSpace(in.Name),
		Age:      in.Age,
		Gender:   bookings.Gender(strings.ToLower(strings.TrimSpace(in.Gender))),
		Phone:    bookings.NormalizePhone(in.Phone),
		Email:    strings.TrimSpace(in.Email),
		WhatsApp: bookings.NormalizePhone(in.WhatsApp),
	}
	if fields := bookings.ValidatePatient(patient, w.opts.CollectGender); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	prevEmail := st.Fields[fieldEmail]
	st.set(fieldName, patient.Name)
	st.set(fieldEmail, patient.Email)
	st.set(fieldPhone, patient.Phone)
	st.set(fieldWhatsApp, patient.WhatsApp)
	st.set(fieldAge, strconv.Itoa(patient.Age))
	st.set(fieldGender, string(patient.Gender))
	st.set(fieldAddress, in.Address)

	if accountID != nil && *accountID != uuid.Nil {
		id := *accountID
		st.AccountID, st.Provisioned = &id, false
		if w.accounts != nil {
			if _, err := accounts.BackfillAccount(ctx, w.accounts, id, profileFromState(st)); err != nil {
				w.logger.Warn("intake: account backfill failed", "error", err, "account_id", id)
			}
		}
	} else if st.AccountID != nil && !strings.EqualFold(prevEmail, patient.Email) {
		// An account provisioned for the old address must not take this booking.
		st.AccountID, st.Provisioned = nil, false
	}
	return w.commit(ctx, st, StepContact)
}

// SubmitSchedule records date, time and clinical notes.
func (w *Wizard) SubmitSchedule(ctx context.Context, token string, in ScheduleInput) (*State, error) {
	st, err := w.begin(ctx, token, StepSchedule)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string)
	date := strings.TrimSpace(in.Date)
	switch {
	case date == "" && w.opts.CollectDate:
		fields[fieldDate] = "This field is required."
	case date != "":
		if _, err := civil.ParseDate(date); err != nil {
			fields[fieldDate] = "Invalid date format. Use YYYY-MM-DD"
		}
	}
	clock := strings.TrimSpace(in.Time)
	switch {
	case clock == "" && w.opts.CollectTime:
		fields[fieldTime] = "This field is required."
	case clock != "":
		t, err := availability.ParseClock(clock)
		if err != nil || !availability.IsSlot(t) {
			fields[fieldTime] = "Please select a valid time slot."
		} else {
			clock = t.String()
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	st.set(fieldDate, date)
	st.set(fieldTime, clock)
	st.set(fieldSymptoms, in.Symptoms)
	st.set(fieldPresentComplaints, in.PresentComplaints)
	st.set(fieldMedicalHistory, in.MedicalHistory)
	return w.commit(ctx, st, StepSchedule)
}

// Finalize creates the booking, provisioning an account first when asked,
// and deletes the session.
func (w *Wizard) Finalize(ctx context.Context, token string, accountID *uuid.UUID, in FinalizeInput) (*Result, error) {
	st, err := w.begin(ctx, token, StepConfirm)
	if err != nil {
		return nil, err
	}
	method, err := bookings.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod)))
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"payment_method": "Select a valid choice."}}
	}

	newBooking, err := bookingFromState(st)
	if err != nil {
		return nil, err
	}
	newBooking.PaymentMethod = method

	// Fail before any account is written when the booking cannot be made.
	if err := w.booker.Precheck(ctx, newBooking); err != nil {
		return nil, err
	}

	res := &Result{}
	switch {
	case accountID != nil && *accountID != uuid.Nil:
		id := *accountID
		newBooking.AccountID = &id
	case st.AccountID != nil:
		newBooking.AccountID = st.AccountID
		if st.Provisioned {
			if err := w.resumeAccount(ctx, *st.AccountID, res); err != nil {
				return nil, err
			}
		}
	case w.provisioner != nil && (w.opts.ProvisionAccounts || in.Password != ""):
		acc, err := w.provisioner.Provision(ctx, st.Fields[fieldEmail], in.Password)
		if err != nil {
			return nil, err
		}
		if accounts.Backfill(acc, profileFromState(st)) && w.accounts != nil {
			if err := w.accounts.Update(ctx, acc); err != nil {
				w.logger.Warn("intake: profile update after provisioning failed", "error", err, "account_id", acc.ID)
			}
		}
		id := acc.ID
		newBooking.AccountID = &id
		// Remember the account so a retry after a failed create reuses it.
		st.AccountID, st.Provisioned = &id, true
		if err := w.store.Save(ctx, st); err != nil {
			w.logger.Warn("intake: failed to record provisioned account", "error", err, "account_id", acc.ID)
		}
		if err := w.issueToken(acc, res); err != nil {
			return nil, err
		}
	}

	b, err := w.booker.Create(ctx, newBooking)
	if err != nil {
		return nil, err
	}
	res.Booking = b
	res.NextAction = NextConfirmed
	if b.PaymentMethod == bookings.PaymentOnline && b.PaymentStatus != bookings.PaymentPaid {
		res.NextAction = NextPayment
	}

	if err := w.store.Delete(ctx, token); err != nil {
		w.logger.Warn("intake: failed to delete finished session", "error", err, "booking_id", b.ID)
	}
	w.logger.Info("intake finalized", "booking_id", b.ID, "next_action", res.NextAction, "provisioned", res.Account != nil)
	return res, nil
}

func (w *Wizard) resumeAccount(ctx context.Context, id uuid.UUID, res *Result) error {
	if w.accounts == nil {
		return nil
	}
	acc, err := w.accounts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("intake: load provisioned account: %w", err)
	}
	return w.issueToken(acc, res)
}

func (w *Wizard) issueToken(acc *accounts.Account, res *Result) error {
	res.Account = acc
	if w.tokens == nil || !w.tokens.Enabled() {
		return nil
	}
	tok, err := w.tokens.Issue(acc)
	if err != nil {
		return fmt.Errorf("intake: issue token: %w", err)
	}
	res.AccessToken = tok
	return nil
}

func profileFromState(st *State) accounts.Profile {
	age, _ := strconv.Atoi(st.Fields[fieldAge])
	return accounts.Profile{
		FullName: st.Fields[fieldName],
		Phone:    st.Fields[fieldPhone],
		Age:      age,
		Gender:   st.Fields[fieldGender],
		Address:  st.Fields[fieldAddress],
	}
}

func bookingFromState(st *State) (bookings.NewBooking, error) {
	serviceID, err := strconv.ParseInt(st.Fields[fieldServiceID], 10, 64)
	if err != nil {
		return bookings.NewBooking{}, fmt.Errorf("%w: service_id", ErrStepOutOfOrder)
	}
	age, _ := strconv.Atoi(st.Fields[fieldAge])
	in := bookings.NewBooking{
		ServiceID: serviceID,
		Patient: bookings.Patient{
			Name:     st.Fields[fieldName],
			Age:      age,
			Gender:   bookings.Gender(st.Fields[fieldGender]),
			Phone:    st.Fields[fieldPhone],
			Email:    st.Fields[fieldEmail],
			WhatsApp: st.Fields[fieldWhatsApp],
		},
		Symptoms:          st.Fields[fieldSymptoms],
		PresentComplaints: st.Fields[fieldPresentComplaints],
		MedicalHistory:    st.Fields[fieldMedicalHistory],
	}
	if raw := st.Fields[fieldDate]; raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			return bookings.NewBooking{}, fmt.Errorf("%w: stored date %q", ErrInvalidInput, raw)
		}
		in.AppointmentDate = &d
	}
	if raw := st.Fields[fieldTime]; raw != "" {
		t, err := availability.ParseClock(raw)
		if err != nil {
			return bookings.NewBooking{}, fmt.Errorf("%w: stored time %q", ErrInvalidInput, raw)
		}
		in.AppointmentTime = &t
	}
	return in, nil
}

package bookings

import (
	"errors"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/availability"
	"github.com/wolfman30/healthcare-booking/internal/catalog"
	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Handler serves the patient-facing booking API.
type Handler struct {
	svc           *Service
	prescriptions *PrescriptionService
	logger        *logging.Logger
}

// NewHandler creates a bookings handler. prescriptions may be nil, which
// disables the upload routes.
func NewHandler(svc *Service, prescriptions *PrescriptionService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, prescriptions: prescriptions, logger: logger}
}

// CreateBookingRequest is the JSON body of POST /api/bookings.
type CreateBookingRequest struct {
	ServiceID         int64  `json:"service_id"`
	AppointmentDate   string `json:"appointment_date"`
	AppointmentTime   string `json:"appointment_time"`
	PatientName       string `json:"patient_name"`
	PatientAge        int    `json:"patient_age"`
	PatientGender     string `json:"patient_gender"`
	PatientPhone      string `json:"patient_phone"`
	PatientEmail      string `json:"patient_email"`
	WhatsAppNumber    string `json:"whatsapp_number"`
	Symptoms          string `json:"symptoms"`
	PresentComplaints string `json:"present_complaints"`
	MedicalHistory    string `json:"medical_history"`
	PaymentMethod     string `json:"payment_method"`
}

func (req CreateBookingRequest) toNewBooking() (NewBooking, map[string]string) {
	fields := make(map[string]string)
	in := NewBooking{
		ServiceID: req.ServiceID,
		Patient: Patient{
			Name:     strings.TrimSpace(req.PatientName),
			Age:      req.PatientAge,
			Gender:   Gender(strings.ToLower(req.PatientGender)),
			Phone:    NormalizePhone(req.PatientPhone),
			Email:    strings.TrimSpace(req.PatientEmail),
			WhatsApp: NormalizePhone(req.WhatsAppNumber),
		},
		Symptoms:          req.Symptoms,
		PresentComplaints: req.PresentComplaints,
		MedicalHistory:    req.MedicalHistory,
		PaymentMethod:     PaymentMethod(req.PaymentMethod),
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentOnline
	}
	if req.ServiceID <= 0 {
		fields["service_id"] = "This field is required."
	}
	if req.AppointmentDate != "" {
		d, err := civil.ParseDate(req.AppointmentDate)
		if err != nil {
			fields["appointment_date"] = "Invalid date format. Use YYYY-MM-DD"
		} else {
			in.AppointmentDate = &d
		}
	}
	if req.AppointmentTime != "" {
		t, err := availability.ParseClock(req.AppointmentTime)
		if err != nil {
			fields["appointment_time"] = "Invalid time format. Use HH:MM"
		} else {
			in.AppointmentTime = &t
		}
	}
	for k, v := range ValidatePatient(in.Patient, false) {
		fields[k] = v
	}
	return in, fields
}

// Create handles POST /api/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in, fields := req.toNewBooking()
	if len(fields) > 0 {
		respond.FieldErrors(w, "Please correct the errors below.", fields)
		return
	}
	if id, ok := accounts.AccountIDFromContext(r.Context()); ok {
		in.AccountID = &id
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "failed to create booking")
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"success": true, "booking": b})
}

// Get handles GET /api/bookings/{bookingID}. A booking tied to an account is
// visible to that account only; anonymous bookings are addressed by their id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "failed to load booking")
		return
	}
	if b.AccountID != nil {
		accountID, _ := accounts.AccountIDFromContext(r.Context())
		if !b.OwnedBy(accountID) {
			respond.Error(w, http.StatusNotFound, "Booking not found")
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "booking": b})
}

// ListMine handles GET /api/me/bookings.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accounts.AccountIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	list, err := h.svc.ListForAccount(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err, "failed to list bookings")
		return
	}
	if list == nil {
		list = []*Booking{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "bookings": list, "count": len(list)})
}

// Cancel handles POST /api/bookings/{bookingID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accounts.AccountIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Cancel(r.Context(), id, accountID)
	if err != nil {
		h.writeError(w, err, "failed to cancel booking")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "booking": b})
}

// UploadPrescription handles POST /api/bookings/{bookingID}/prescriptions (multipart, field "file").
func (h *Handler) UploadPrescription(w http.ResponseWriter, r *http.Request) {
	if h.prescriptions == nil {
		respond.Error(w, http.StatusNotFound, "uploads are not enabled")
		return
	}
	accountID, ok := accounts.AccountIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxPrescriptionBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respond.Error(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.FieldErrors(w, "Please correct the errors below.", map[string]string{"file": "This field is required."})
		return
	}
	defer file.Close()

	rec, err := h.prescriptions.Upload(r.Context(), UploadInput{
		BookingID:   id,
		AccountID:   accountID,
		FileName:    header.Filename,
		Size:        header.Size,
		Body:        file,
		Description: r.FormValue("description"),
	})
	if err != nil {
		h.writeError(w, err, "failed to store prescription")
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"success": true, "prescription": rec})
}

// ListPrescriptions handles GET /api/bookings/{bookingID}/prescriptions.
func (h *Handler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	if h.prescriptions == nil {
		respond.Error(w, http.StatusNotFound, "uploads are not enabled")
		return
	}
	accountID, ok := accounts.AccountIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}
	list, err := h.prescriptions.List(r.Context(), id, accountID)
	if err != nil {
		h.writeError(w, err, "failed to list prescriptions")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "prescriptions": list})
}

func bookingIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid booking id")
		return uuid.Nil, false
	}
	return id, true
}

// StatusFor maps a booking error to an HTTP status and client message.
func StatusFor(err error) (int, string) {
	var perr *PatientError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadRequest, "Please correct the errors below."
	case errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound, "Booking not found"
	case errors.Is(err, catalog.ErrServiceNotFound):
		return http.StatusBadRequest, "Please select a valid service."
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "You do not have access to this booking."
	case errors.Is(err, ErrCancellationWindowClosed):
		return http.StatusConflict, "This booking can no longer be cancelled."
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, "This booking cannot be changed in its current state."
	case errors.Is(err, ErrSlotUnavailable):
		return http.StatusConflict, "Selected time slot is no longer available."
	case errors.Is(err, ErrInvalidSlot):
		return http.StatusBadRequest, "Please select a valid time slot."
	case errors.Is(err, ErrDateOutOfWindow):
		return http.StatusBadRequest, "Please select a date within the booking window."
	case errors.Is(err, ErrInvalidPaymentMethod):
		return http.StatusBadRequest, "Please select cash or online payment."
	case errors.Is(err, ErrBookingDisabled):
		return http.StatusServiceUnavailable, "Online booking is currently disabled."
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusBadRequest, "File size must be under 10MB."
	case errors.Is(err, ErrUnsupportedFile):
		return http.StatusBadRequest, "Only PDF, JPG, JPEG, PNG files are allowed."
	}
	return http.StatusInternalServerError, ""
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	status, msg := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback, "error", err)
		respond.Error(w, status, fallback)
		return
	}
	var perr *PatientError
	if errors.As(err, &perr) {
		respond.FieldErrors(w, msg, perr.Fields)
		return
	}
	respond.Error(w, status, msg)
}

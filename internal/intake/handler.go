package intake

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/bookings"
	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

const (
	// SessionHeader carries the token for API clients.
	SessionHeader = "X-Intake-Session"
	// SessionCookie carries the token for browsers.
	SessionCookie = "intake_session"
)

// Handler exposes the wizard over HTTP.
type Handler struct {
	wizard *Wizard
	ttl    time.Duration
	secure bool
	logger *logging.Logger
}

// NewHandler wires the wizard. secure marks the session cookie Secure.
func NewHandler(w *Wizard, ttl time.Duration, secure bool, logger *logging.Logger) *Handler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{wizard: w, ttl: ttl, secure: secure, logger: logger}
}

// Start handles POST /api/intake.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	st, err := h.wizard.Start(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setCookie(w, st.Token, int(h.ttl/time.Second))
	respond.JSON(w, http.StatusCreated, map[string]any{"success": true, "token": st.Token, "state": st})
}

// Current handles GET /api/intake.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	st, err := h.wizard.Load(r.Context(), sessionToken(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "state": st})
}

type serviceStepRequest struct {
	ServiceID int64 `json:"service_id"`
}

// SubmitStep handles POST /api/intake/steps/{step}.
func (h *Handler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	step, err := ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "unknown step")
		return
	}
	token := sessionToken(r)
	ctx := r.Context()
	var accountID *uuid.UUID
	if id, ok := accounts.AccountIDFromContext(ctx); ok {
		accountID = &id
	}

	var st *State
	switch step {
	case StepService:
		var req serviceStepRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		st, err = h.wizard.SelectService(ctx, token, req.ServiceID)
	case StepContact:
		var req ContactInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		st, err = h.wizard.SubmitContact(ctx, token, accountID, req)
	case StepSchedule:
		var req ScheduleInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		st, err = h.wizard.SubmitSchedule(ctx, token, req)
	case StepConfirm:
		var req FinalizeInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		res, err := h.wizard.Finalize(ctx, token, accountID, req)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.setCookie(w, "", -1)
		respond.JSON(w, http.StatusCreated, map[string]any{
			"success":      true,
			"booking":      res.Booking,
			"account":      res.Account,
			"access_token": res.AccessToken,
			"next_action":  res.NextAction,
		})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "state": st})
}

func sessionToken(r *http.Request) string {
	if tok := r.Header.Get(SessionHeader); tok != "" {
		return tok
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/api/intake",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.FieldErrors(w, "Please correct the errors below.", verr.Fields)
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(w, http.StatusNotFound, "Your booking session has expired. Please start again.")
	case errors.Is(err, ErrStepOutOfOrder):
		respond.Error(w, http.StatusConflict, "Please complete the previous step first.")
	case errors.Is(err, ErrInvalidSelection):
		respond.FieldErrors(w, "Please correct the errors below.", map[string]string{"service_id": "Please select a valid service."})
	case errors.Is(err, accounts.ErrWeakCredential):
		respond.FieldErrors(w, "Please correct the errors below.", map[string]string{"password": "Password must be at least 8 characters."})
	case errors.Is(err, accounts.ErrDuplicateAccount):
		respond.FieldErrors(w, "Please correct the errors below.", map[string]string{"patient_email": "An account with this email already exists. Please log in."})
	default:
		status, msg := bookings.StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("intake request failed", "error", err)
			msg = "Something went wrong. Please try again."
		}
		respond.Error(w, status, msg)
	}
}

package bookings

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// AdminHandler serves staff-only lifecycle actions.
type AdminHandler struct {
	svc    *Service
	logger *logging.Logger
}

func NewAdminHandler(svc *Service, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{svc: svc, logger: logger}
}

type bulkActionRequest struct {
	Action     string      `json:"action"`
	BookingIDs []uuid.UUID `json:"booking_ids"`
}

// BulkAction handles POST /admin/bookings/actions.
func (h *AdminHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req bulkActionRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	action, err := ParseAction(req.Action)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "unknown action")
		return
	}
	if len(req.BookingIDs) == 0 {
		respond.Error(w, http.StatusBadRequest, "booking_ids is required")
		return
	}
	res, err := h.svc.BulkApply(r.Context(), action, req.BookingIDs)
	if err != nil {
		h.logger.Error("bulk action failed", "error", err, "action", action)
		respond.Error(w, http.StatusInternalServerError, "bulk action failed")
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// Apply handles POST /admin/bookings/{bookingID}/{action}.
func (h *AdminHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingIDParam(w, r)
	if !ok {
		return
	}
	action, err := ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "unknown action")
		return
	}
	b, changed, err := h.svc.Transition(r.Context(), id, action)
	if err != nil {
		status, msg := StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("admin transition failed", "error", err, "booking_id", id, "action", action)
			msg = "transition failed"
		}
		respond.Error(w, status, msg)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "changed": changed, "booking": b})
}

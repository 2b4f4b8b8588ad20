package availability

import (
	"net/http"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Handler serves GET /api/time-slots?date=YYYY-MM-DD.
type Handler struct {
	checker *Checker
	logger  *logging.Logger
}

func NewHandler(checker *Checker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{checker: checker, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		respond.Error(w, http.StatusBadRequest, "Date parameter is required")
		return
	}
	date, err := civil.ParseDate(raw)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	open, err := h.checker.Available(r.Context(), &date)
	if err != nil {
		h.logger.Error("failed to compute availability", "error", err, "date", raw)
		respond.Error(w, http.StatusInternalServerError, "failed to load time slots")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"date":    date.String(),
		"slots":   ToSlots(open),
	})
}

package catalog

import (
	"errors"
	"time"

	"github.com/wolfman30/healthcare-booking/internal/money"
)

// ErrServiceNotFound is returned when a service id is unknown or inactive.
var ErrServiceNotFound = errors.New("catalog: service not found")

// Service is a bookable treatment.
type Service struct {
	ID                   int64       `json:"id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	DurationMinutes      int         `json:"duration"`
	Price                money.Money `json:"price"`
	IsActive             bool        `json:"is_active"`
	RequiresPrescription bool        `json:"requires_prescription"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

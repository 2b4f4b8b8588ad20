package bookings

import (
	"context"

	"github.com/google/uuid"
)

// BulkSkip explains why one booking in a bulk action was left alone.
type BulkSkip struct {
	ID     uuid.UUID `json:"booking_id"`
	Reason string    `json:"reason"`
}

// BulkResult reports the outcome of an admin bulk action.
type BulkResult struct {
	Action  Action      `json:"action"`
	Updated []uuid.UUID `json:"updated"`
	Skipped []BulkSkip  `json:"skipped"`
}

// BulkApply runs action on each booking through the same transitions the
// patient-facing flows use. A booking the state machine rejects is skipped,
// never force-written.
func (s *Service) BulkApply(ctx context.Context, action Action, ids []uuid.UUID) (*BulkResult, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}
	res := &BulkResult{Action: action, Updated: []uuid.UUID{}, Skipped: []BulkSkip{}}
	for _, id := range ids {
		b, changed, err := s.Transition(ctx, id, action)
		switch {
		case err != nil:
			res.Skipped = append(res.Skipped, BulkSkip{ID: id, Reason: err.Error()})
		case !changed:
			res.Skipped = append(res.Skipped, BulkSkip{ID: id, Reason: "already " + string(b.Status)})
		default:
			res.Updated = append(res.Updated, id)
		}
	}
	s.logger.Info("bulk booking action", "action", action, "updated", len(res.Updated), "skipped", len(res.Skipped))
	return res, nil
}

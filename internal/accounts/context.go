package accounts

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const accountKey ctxKey = "clinic.account_id"

// WithAccountID stores the authenticated account id in context.
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountKey, id)
}

// AccountIDFromContext extracts the account id if present.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Profile is contact data submitted during intake.
type Profile struct {
	FullName string
	Phone    string
	Age      int
	Gender   string
	Address  string
}

// Backfill copies profile values into fields the account has not set yet.
// Values already present on the account are never overwritten.
func Backfill(a *Account, p Profile) bool {
	changed := false
	set := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	first, last := SplitName(p.FullName)
	set(&a.FirstName, first)
	set(&a.LastName, last)
	set(&a.Phone, strings.TrimSpace(p.Phone))
	set(&a.Gender, p.Gender)
	set(&a.Address, strings.TrimSpace(p.Address))
	if a.Age == 0 && p.Age > 0 {
		a.Age = p.Age
		changed = true
	}
	return changed
}

// SplitName splits "Asha Rani Devi" into "Asha" and "Rani Devi".
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// BackfillAccount loads the account, applies Backfill and saves when something changed.
func BackfillAccount(ctx context.Context, repo Repository, id uuid.UUID, p Profile) (*Account, error) {
	a, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Backfill(a, p) {
		return a, nil
	}
	if err := repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Package intake runs the multi-step booking wizard. Partial input lives in a
// short-lived session store; only Finalize writes a booking.
package intake

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("intake: session not found or expired")
	ErrStepOutOfOrder   = errors.New("intake: step submitted before its predecessor")
	ErrInvalidSelection = errors.New("intake: invalid service selection")
	ErrInvalidInput     = errors.New("intake: invalid input")
)

// Step names one wizard page.
type Step string

const (
	StepService  Step = "service"
	StepContact  Step = "contact"
	StepSchedule Step = "schedule"
	StepConfirm  Step = "confirm"
)

var stepOrder = map[Step]int{
	StepService:  0,
	StepContact:  1,
	StepSchedule: 2,
	StepConfirm:  3,
}

// ParseStep validates a step name from the URL.
func ParseStep(s string) (Step, error) {
	step := Step(strings.ToLower(s))
	if _, ok := stepOrder[step]; !ok {
		return "", fmt.Errorf("%w: unknown step %q", ErrInvalidInput, s)
	}
	return step, nil
}

func (s Step) next() Step {
	switch s {
	case StepService:
		return StepContact
	case StepContact:
		return StepSchedule
	default:
		return StepConfirm
	}
}

// State is the in-progress wizard data for one session token.
// Step is the furthest step the client may submit.
type State struct {
	Token     string            `json:"token"`
	Step      Step              `json:"step"`
	Fields    map[string]string `json:"fields"`
	AccountID *uuid.UUID        `json:"account_id,omitempty"`
	// Provisioned marks an AccountID created by this session's finalize step.
	Provisioned bool      `json:"provisioned,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newState(now time.Time) *State {
	return &State{
		Token:     uuid.NewString(),
		Step:      StepService,
		Fields:    make(map[string]string),
		UpdatedAt: now.UTC(),
	}
}

// allows reports whether step may be submitted from this state.
func (st *State) allows(step Step) bool {
	return stepOrder[step] <= stepOrder[st.Step]
}

// advance records that step was completed. Going back never rewinds Step, so
// fields captured by later steps survive a revisit.
func (st *State) advance(step Step, now time.Time) {
	if next := step.next(); stepOrder[next] > stepOrder[st.Step] {
		st.Step = next
	}
	st.UpdatedAt = now.UTC()
}

func (st *State) set(key, value string) {
	if st.Fields == nil {
		st.Fields = make(map[string]string)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(st.Fields, key)
		return
	}
	st.Fields[key] = value
}

// ValidationError lists every invalid field of one step submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("intake: invalid fields: %s", strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

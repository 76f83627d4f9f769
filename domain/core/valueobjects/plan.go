package valueobjects

import (
	"fmt"
	"net/mail"
	"strings"

	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// Plan is the subscription tier of a user
type Plan string

const (
	PlanLite Plan = "lite"
	PlanPlus Plan = "plus"
)

// ParsePlan accepts "lite" or "plus" in any case
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanLite, PlanPlus:
		return p, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("invalid plan %q: must be lite or plus", s))
	}
}

func (p Plan) String() string { return string(p) }

// Email is a normalized (trimmed, lower-cased) email address
type Email struct {
	value string
}

// NewEmail validates an address and normalizes it for uniqueness checks
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return Email{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid email address %q", raw))
	}
	return Email{value: normalized}, nil
}

func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

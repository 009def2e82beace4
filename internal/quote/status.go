package quote

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusDraft    Status = "borrador"
	StatusSent     Status = "enviada"
	StatusApproved Status = "aprobada"
	StatusRejected Status = "rechazada"
	StatusExpired  Status = "expirada"
)

// ExpiryAge is how long a pending quote stays valid.
const ExpiryAge = 30 * 24 * time.Hour

var (
	ErrInvalidStatus     = errors.New("estado de cotización no válido")
	ErrInvalidTransition = errors.New("cambio de estado no permitido")
)

// ParseStatus resolves a status name. The legacy "aceptada" reads as approved.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusExpired:
		return s, nil
	case "aceptada":
		return StatusApproved, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Final reports whether the status no longer ages.
func (s Status) Final() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

var transitions = map[Status][]Status{
	StatusDraft:   {StatusSent, StatusApproved, StatusRejected},
	StatusSent:    {StatusApproved, StatusRejected},
	StatusExpired: {StatusSent},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Age returns the status a quote issued at issued has at now: pending quotes
// older than ExpiryAge become expired.
func Age(s Status, issued, now time.Time) Status {
	if s.Final() || issued.IsZero() {
		return s
	}
	if now.Sub(issued) >= ExpiryAge {
		return StatusExpired
	}
	return s
}

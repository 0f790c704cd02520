package model

import "fmt"

// =====================================================
// SESSION STATUS
// =====================================================

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusConfirmed SessionStatus = "confirmed"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
	StatusExpired   SessionStatus = "expired"
)

// statusTransitions is the full transition graph. Terminal statuses have
// no outgoing edge. A confirmed session only moves forward to completed;
// backing out of a confirmed checkout is the order context's business.
var statusTransitions = map[SessionStatus][]SessionStatus{
	StatusActive:    {StatusConfirmed, StatusAbandoned, StatusExpired},
	StatusConfirmed: {StatusCompleted},
	StatusCompleted: nil,
	StatusAbandoned: nil,
	StatusExpired:   nil,
}

func ParseStatus(s string) (SessionStatus, error) {
	status := SessionStatus(s)
	if _, ok := statusTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// IsTerminal reports whether no further transition is possible
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusExpired
}

// CanTransitionTo reports whether the graph has an edge s -> next
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s SessionStatus) String() string {
	return string(s)
}

package statemachine

import (
	"fmt"
	"strings"

	"cafe-pos-api/models"
)

// Transition defines a valid status change and the permission needed to make it
type Transition struct {
	From       models.OrderStatus `json:"from"`
	To         models.OrderStatus `json:"to"`
	Permission string             `json:"permission"`
}

// validTransitions is the authoritative post-checkout state machine.
// Orders are born completed; refunded and voided are terminal.
var validTransitions = []Transition{
	{From: models.StatusCompleted, To: models.StatusRefunded, Permission: "sales.refund"},
	{From: models.StatusCompleted, To: models.StatusVoided, Permission: "sales.void"},
}

type transitionKey struct {
	From models.OrderStatus
	To   models.OrderStatus
}

var transitionMap = func() map[transitionKey]Transition {
	m := make(map[transitionKey]Transition, len(validTransitions))
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To}] = t
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks the edge exists and that the caller holds its permission.
func CanTransition(from, to models.OrderStatus, has func(permission string) bool) error {
	t, ok := transitionMap[transitionKey{From: from, To: to}]
	if !ok {
		return fmt.Errorf("invalid transition: %s → %s is not allowed. Valid transitions from %s are: %s",
			from, to, from, describeValidFrom(from))
	}
	if has != nil && !has(t.Permission) {
		return fmt.Errorf("transition %s → %s requires permission %q", from, to, t.Permission)
	}
	return nil
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

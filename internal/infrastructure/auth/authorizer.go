package auth

import "crypto/subtle"

// Action is a privileged operation gated behind a supervisor credential.
type Action string

const (
	ActionStepBack     Action = "step_back"
	ActionDeleteRecord Action = "delete_record"
	ActionSweepOrphans Action = "sweep_orphans"
	ActionResetCounter Action = "reset_counter"
	ActionForceImport  Action = "force_import"
)

// Authorizer checks a supervisor credential for one privileged action.
type Authorizer interface {
	Authorize(action Action, credential string) bool
}

// PINAuthorizer validates actions against configured PINs. Actions without
// a configured PIN always fail closed.
type PINAuthorizer struct {
	pins map[Action]string
}

// NewPINAuthorizer builds an authorizer from the action to PIN map, usually
// straight from config.
func NewPINAuthorizer(pins map[Action]string) *PINAuthorizer {
	copied := make(map[Action]string, len(pins))
	for action, pin := range pins {
		copied[action] = pin
	}
	return &PINAuthorizer{pins: copied}
}

func (a *PINAuthorizer) Authorize(action Action, credential string) bool {
	pin, ok := a.pins[action]
	if !ok || pin == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(pin), []byte(credential)) == 1
}

var _ Authorizer = (*PINAuthorizer)(nil)

package gamestate

import (
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
)

// Decision is the pure outcome of handling an intent.
type Decision struct {
	Events    []Event
	Rejection *Rejection
}

// Rejection is the reason an intent was declined.
type Rejection struct {
	Code    errors.Code
	Message string
}

// Err returns the rejection as a coded error.
func (r Rejection) Err() error {
	return errors.New(r.Code, r.Message)
}

// Accept returns a decision that emits the provided events.
func Accept(events ...Event) Decision {
	return Decision{Events: append([]Event(nil), events...)}
}

// Reject returns a decision that carries one rejection.
func Reject(code errors.Code, message string) Decision {
	return Decision{Rejection: &Rejection{Code: code, Message: message}}
}

// Accepted reports whether the decision carries no rejection.
func (d Decision) Accepted() bool {
	return d.Rejection == nil
}

// Decide checks intent against s. An accepted intent starts a new pending
// action numbered after the last one of this generation.
func Decide(s Session, intent Intent) Decision {
	if s.ProviderMissing {
		return Reject(errors.CodeProviderMissing, "no wallet provider")
	}
	switch intent.Kind {
	case ActionConnect, ActionSwitchNetwork:
		// Wallet prompts may start while the session is still loading.
		if s.Pending != nil || s.Phase.busy() {
			return Reject(errors.CodeActionInProgress, "another action is in progress")
		}
		return start(s, intent)
	case ActionMint, ActionAttack, ActionRevive:
	default:
		return Reject(errors.CodeUnknown, "unknown intent "+string(intent.Kind))
	}

	if s.Account == "" {
		return Reject(errors.CodeNotConnected, "wallet is not connected")
	}
	if !s.ChainMatches() {
		return Reject(errors.CodeWrongChain, "active chain "+string(s.ChainID)+" is not "+string(s.RequiredChain))
	}
	if busy(s) {
		return Reject(errors.CodeActionInProgress, "another action is in progress")
	}

	switch intent.Kind {
	case ActionMint:
		if s.Character != nil {
			return Reject(errors.CodeCharacterAlreadyOwned, "account already owns a character")
		}
		if intent.Index < 0 || intent.Index >= len(s.Roster) {
			return Reject(errors.CodeInvalidRosterIndex, "roster index out of range")
		}
	case ActionAttack:
		if s.Character == nil {
			return Reject(errors.CodeNoCharacter, "account has no character")
		}
		if s.Character.HP == 0 {
			return Reject(errors.CodeCharacterDefeated, "character has no hp left")
		}
	case ActionRevive:
		if s.Character == nil {
			return Reject(errors.CodeNoCharacter, "account has no character")
		}
		if s.Character.HP > 0 {
			return Reject(errors.CodeCharacterAlive, "character is still alive")
		}
	}
	return start(s, intent)
}

func busy(s Session) bool {
	return s.Pending != nil || s.Phase != PhaseIdle
}

func start(s Session, intent Intent) Decision {
	action := Action{ID: s.LastActionID + 1, Kind: intent.Kind}
	if intent.Kind == ActionMint {
		action.Index = intent.Index
	}
	return Accept(ActionStarted{Action: action})
}

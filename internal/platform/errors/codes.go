// Package errors provides coded errors shared by the arena client.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an error that carries no arena code.
	CodeUnknown Code = "UNKNOWN"

	// Wallet and chain faults
	CodeProviderMissing  Code = "PROVIDER_MISSING"
	CodeUserRejected     Code = "USER_REJECTED"
	CodeWrongChain       Code = "WRONG_CHAIN"
	CodeAddChainRequired Code = "ADD_CHAIN_REQUIRED"
	CodeProviderFailure  Code = "PROVIDER_FAILURE"

	// Transaction outcomes
	CodeTxReverted          Code = "TX_REVERTED"
	CodeTxDroppedOrReplaced Code = "TX_DROPPED_OR_REPLACED"

	// Payload validation
	CodeMalformedEventPayload Code = "MALFORMED_EVENT_PAYLOAD"
	CodeValueOutOfRange       Code = "VALUE_OUT_OF_RANGE"

	// Intent preconditions
	CodeNotConnected          Code = "NOT_CONNECTED"
	CodeActionInProgress      Code = "ACTION_IN_PROGRESS"
	CodeNoCharacter           Code = "NO_CHARACTER"
	CodeCharacterDefeated     Code = "CHARACTER_DEFEATED"
	CodeCharacterAlive        Code = "CHARACTER_ALIVE"
	CodeInvalidRosterIndex    Code = "INVALID_ROSTER_INDEX"
	CodeCharacterAlreadyOwned Code = "CHARACTER_ALREADY_OWNED"
)

// Codes lists every code a player can be shown, in a stable order.
func Codes() []Code {
	return []Code{
		CodeUnknown,
		CodeProviderMissing, CodeUserRejected, CodeWrongChain, CodeAddChainRequired, CodeProviderFailure,
		CodeTxReverted, CodeTxDroppedOrReplaced,
		CodeMalformedEventPayload, CodeValueOutOfRange,
		CodeNotConnected, CodeActionInProgress, CodeNoCharacter, CodeCharacterDefeated,
		CodeCharacterAlive, CodeInvalidRosterIndex, CodeCharacterAlreadyOwned,
	}
}

// Severity ranks how loudly a code is surfaced to the player.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Severity returns the notification severity for the code.
func (c Code) Severity() Severity {
	switch c {
	case CodeUserRejected:
		return SeverityInfo
	case CodeNotConnected, CodeActionInProgress, CodeNoCharacter,
		CodeCharacterDefeated, CodeCharacterAlive, CodeInvalidRosterIndex,
		CodeCharacterAlreadyOwned, CodeWrongChain:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Retryable reports whether the player may simply repeat the failed action.
func (c Code) Retryable() bool {
	switch c {
	case CodeUserRejected, CodeTxReverted, CodeTxDroppedOrReplaced, CodeProviderFailure:
		return true
	default:
		return false
	}
}

package gamestate

import (
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/ethereum/go-ethereum/common"
)

// EventType names an event in logs and the action journal.
type EventType string

const (
	EventReset           EventType = "session.reset"
	EventWalletObserved  EventType = "session.wallet_observed"
	EventProviderMissing EventType = "session.provider_missing"
	EventReady           EventType = "session.ready"
	EventOwnershipLoaded EventType = "session.ownership_loaded"
	EventRosterLoaded    EventType = "session.roster_loaded"
	EventBossLoaded      EventType = "session.boss_loaded"
	EventActionStarted   EventType = "action.started"
	EventActionSubmitted EventType = "action.submitted"
	EventActionCompleted EventType = "action.completed"
	EventActionConfirmed EventType = "action.confirmed"
	EventActionFailed    EventType = "action.failed"
	EventCharacterMinted EventType = "chain.character_minted"
	EventAttackResolved  EventType = "chain.attack_resolved"
)

// Event is one input to Fold.
type Event interface {
	Type() EventType
}

// Reset empties the Session for a new generation.
type Reset struct {
	Generation uint64
}

// WalletObserved records the handshake's account and chain.
type WalletObserved struct {
	Account chainlink.Account
	ChainID chainlink.ChainID
}

// ProviderMissing records that no wallet is injected.
type ProviderMissing struct{}

// Ready ends the handshake.
type Ready struct{}

// OwnershipLoaded carries the ownership check of the current account.
type OwnershipLoaded struct {
	Ownership gateway.Ownership
}

// RosterLoaded carries the mintable templates.
type RosterLoaded struct {
	Roster []gateway.Character
}

// BossLoaded carries a boss read.
type BossLoaded struct {
	Boss gateway.Boss
}

// ActionStarted begins an accepted intent.
type ActionStarted struct {
	Action Action
}

// ActionSubmitted records the transaction behind the pending action.
type ActionSubmitted struct {
	ID     uint64
	TxHash common.Hash
}

// ActionCompleted resolves an action that has no transaction.
type ActionCompleted struct {
	ID uint64
}

// ActionConfirmed resolves a mined transaction.
type ActionConfirmed struct {
	ID      uint64
	Index   int
	Receipt gateway.Receipt
}

// ActionFailed resolves an action that ended in a terminal error.
type ActionFailed struct {
	ID   uint64
	Code errors.Code
}

// CharacterMinted is a pushed mint outcome.
type CharacterMinted struct {
	Event gateway.CharacterMinted
}

// AttackResolved is a pushed attack outcome.
type AttackResolved struct {
	Event gateway.AttackResolved
}

func (Reset) Type() EventType           { return EventReset }
func (WalletObserved) Type() EventType  { return EventWalletObserved }
func (ProviderMissing) Type() EventType { return EventProviderMissing }
func (Ready) Type() EventType           { return EventReady }
func (OwnershipLoaded) Type() EventType { return EventOwnershipLoaded }
func (RosterLoaded) Type() EventType    { return EventRosterLoaded }
func (BossLoaded) Type() EventType      { return EventBossLoaded }
func (ActionStarted) Type() EventType   { return EventActionStarted }
func (ActionSubmitted) Type() EventType { return EventActionSubmitted }
func (ActionCompleted) Type() EventType { return EventActionCompleted }
func (ActionConfirmed) Type() EventType { return EventActionConfirmed }
func (ActionFailed) Type() EventType    { return EventActionFailed }
func (CharacterMinted) Type() EventType { return EventCharacterMinted }
func (AttackResolved) Type() EventType  { return EventAttackResolved }

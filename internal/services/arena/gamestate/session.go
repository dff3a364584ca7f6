package gamestate

import (
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/ethereum/go-ethereum/common"
)

// Phase is the single active UI phase.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseMinting   Phase = "minting"
	PhaseAttacking Phase = "attacking"
	PhaseReviving  Phase = "reviving"
)

// ActionKind names a user action that stays pending until it resolves.
type ActionKind string

const (
	ActionConnect       ActionKind = "connect"
	ActionSwitchNetwork ActionKind = "switch_network"
	ActionMint          ActionKind = "mint"
	ActionAttack        ActionKind = "attack"
	ActionRevive        ActionKind = "revive"
)

// phase returns the phase an action runs under. Connecting and switching
// networks keep the current phase; the wallet prompt is the only feedback.
func (k ActionKind) phase(current Phase) Phase {
	switch k {
	case ActionMint:
		return PhaseMinting
	case ActionAttack:
		return PhaseAttacking
	case ActionRevive:
		return PhaseReviving
	}
	return current
}

// Action is the one in-flight user action.
type Action struct {
	ID     uint64      `json:"id"`
	Kind   ActionKind  `json:"kind"`
	Index  int         `json:"index,omitempty"`
	TxHash common.Hash `json:"txHash,omitempty"`
}

// Session is the client-side view of the game. Only the engine mutates it,
// and only through Fold.
type Session struct {
	RequiredChain   chainlink.ChainID   `json:"requiredChain"`
	Account         chainlink.Account   `json:"account,omitempty"`
	ChainID         chainlink.ChainID   `json:"chainId,omitempty"`
	Character       *gateway.Character  `json:"character,omitempty"`
	Boss            *gateway.Boss       `json:"boss,omitempty"`
	Roster          []gateway.Character `json:"roster,omitempty"`
	Phase           Phase               `json:"phase"`
	Pending         *Action             `json:"pending,omitempty"`
	ProviderMissing bool                `json:"providerMissing,omitempty"`
	Generation      uint64              `json:"generation"`

	// LastActionID numbers actions within a generation.
	LastActionID uint64 `json:"-"`
	// PlayerAt is the chain position of the last applied player hp.
	PlayerAt gateway.LogPosition `json:"-"`
	// EarlyBossHP keeps the lowest boss hp seen before the boss was loaded.
	EarlyBossHP *int `json:"-"`
}

// New returns the empty Session a process or reset starts from.
func New(required chainlink.ChainID) Session {
	return Session{RequiredChain: required, Phase: PhaseLoading}
}

// ChainMatches reports whether the active chain is the required one.
func (s Session) ChainMatches() bool {
	return s.ChainID != "" && s.ChainID == s.RequiredChain
}

// ChainKnownMismatch reports whether a chain is known and it is not the
// required one.
func (s Session) ChainKnownMismatch() bool {
	return s.ChainID != "" && s.ChainID != s.RequiredChain
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	if s.Character != nil {
		c := *s.Character
		out.Character = &c
	}
	if s.Boss != nil {
		b := *s.Boss
		out.Boss = &b
	}
	if s.Roster != nil {
		out.Roster = append([]gateway.Character(nil), s.Roster...)
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	if s.EarlyBossHP != nil {
		hp := *s.EarlyBossHP
		out.EarlyBossHP = &hp
	}
	return out
}

// busy reports whether the phase belongs to an in-flight transaction.
func (p Phase) busy() bool {
	return p == PhaseMinting || p == PhaseAttacking || p == PhaseReviving
}

func clamp(hp, maxHP int) int {
	if maxHP < 0 {
		maxHP = 0
	}
	switch {
	case hp < 0:
		return 0
	case hp > maxHP:
		return maxHP
	}
	return hp
}

package gamestate

import (
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/ethereum/go-ethereum/common"
)

// Fold applies one event to s and returns the next Session. s is not
// modified. Unknown events leave the Session unchanged.
func Fold(s Session, e Event) Session {
	next := s.Clone()
	switch e := e.(type) {
	case Reset:
		next = New(s.RequiredChain)
		next.Generation = e.Generation
	case WalletObserved:
		next.Account = e.Account
		next.ChainID = e.ChainID
		next.ProviderMissing = false
	case ProviderMissing:
		next.ProviderMissing = true
	case Ready:
		if next.Phase == PhaseLoading {
			next.Phase = PhaseIdle
		}
	case OwnershipLoaded:
		next.applyOwnership(e.Ownership)
	case RosterLoaded:
		next.Roster = make([]gateway.Character, len(e.Roster))
		for i, c := range e.Roster {
			c.HP = clamp(c.HP, c.MaxHP)
			next.Roster[i] = c
		}
	case BossLoaded:
		next.applyBoss(e.Boss)
	case ActionStarted:
		if next.Pending != nil {
			break
		}
		action := e.Action
		next.Pending = &action
		next.LastActionID = action.ID
		next.Phase = action.Kind.phase(next.Phase)
	case ActionSubmitted:
		if next.Pending != nil && next.Pending.ID == e.ID {
			next.Pending.TxHash = e.TxHash
		}
	case ActionCompleted:
		next.settle(e.ID)
	case ActionFailed:
		next.settle(e.ID)
	case ActionConfirmed:
		next.applyReceipt(e.Index, e.Receipt)
		next.settle(e.ID)
	case CharacterMinted:
		next.applyMinted(e.Event)
		if e.Event.Sender == next.Account {
			next.settleTx(ActionMint, e.Event.TxHash)
		}
	case AttackResolved:
		next.applyAttack(e.Event)
		if e.Event.Sender == next.Account {
			next.settleTx(ActionAttack, e.Event.TxHash)
		}
	}
	return next
}

// Apply folds events in order.
func Apply(s Session, events ...Event) Session {
	for _, e := range events {
		s = Fold(s, e)
	}
	return s
}

func (s *Session) settle(id uint64) {
	if s.Pending == nil || s.Pending.ID != id {
		return
	}
	s.Pending = nil
	if s.Phase.busy() {
		s.Phase = PhaseIdle
	}
}

func (s *Session) settleTx(kind ActionKind, hash common.Hash) {
	if s.Pending == nil || s.Pending.Kind != kind || s.Pending.TxHash != hash {
		return
	}
	s.settle(s.Pending.ID)
}

func (s *Session) applyOwnership(o gateway.Ownership) {
	if !o.Owned {
		return
	}
	c := o.Character
	c.HP = clamp(c.HP, c.MaxHP)
	if s.Character == nil {
		s.Character = &c
		s.PlayerAt = o.At
		return
	}
	if o.At.Compare(s.PlayerAt) < 0 {
		return
	}
	if c.TokenID == 0 {
		c.TokenID = s.Character.TokenID
	}
	s.Character = &c
	s.PlayerAt = o.At
}

func (s *Session) applyBoss(b gateway.Boss) {
	hp := b.HP
	if s.Boss != nil && s.Boss.HP < hp {
		hp = s.Boss.HP
	}
	if s.EarlyBossHP != nil && *s.EarlyBossHP < hp {
		hp = *s.EarlyBossHP
	}
	b.HP = clamp(hp, b.MaxHP)
	s.Boss = &b
	s.EarlyBossHP = nil
}

func (s *Session) applyMinted(m gateway.CharacterMinted) {
	if s.Account == "" || m.Sender != s.Account {
		return
	}
	if s.Character != nil {
		if s.Character.TokenID == 0 && s.Character.Index == m.CharacterIndex {
			s.Character.TokenID = m.TokenID
		}
		return
	}
	if m.CharacterIndex < 0 || m.CharacterIndex >= len(s.Roster) {
		return
	}
	c := s.Roster[m.CharacterIndex]
	c.TokenID = m.TokenID
	s.Character = &c
	s.PlayerAt = m.Position
}

func (s *Session) applyAttack(a gateway.AttackResolved) {
	if s.Boss != nil {
		if hp := clamp(a.BossHP, s.Boss.MaxHP); hp < s.Boss.HP {
			s.Boss.HP = hp
		}
	} else if s.EarlyBossHP == nil || a.BossHP < *s.EarlyBossHP {
		hp := a.BossHP
		if hp < 0 {
			hp = 0
		}
		s.EarlyBossHP = &hp
	}

	if s.Account == "" || a.Sender != s.Account || s.Character == nil {
		return
	}
	if a.Position.Compare(s.PlayerAt) < 0 {
		return
	}
	s.Character.HP = clamp(a.PlayerHP, s.Character.MaxHP)
	s.PlayerAt = a.Position
}

// applyReceipt applies a confirmed transaction. The outcomes decoded from
// its logs go through the same merges as pushed events.
func (s *Session) applyReceipt(index int, r gateway.Receipt) {
	for _, m := range r.Minted {
		s.applyMinted(m)
	}
	for _, a := range r.Attacks {
		s.applyAttack(a)
	}
	if s.Account == "" || r.Tx.From != s.Account {
		return
	}
	switch r.Tx.Kind {
	case gateway.TxMint:
		if s.Character == nil && index >= 0 && index < len(s.Roster) {
			c := s.Roster[index]
			s.Character = &c
			s.PlayerAt = r.Position
		}
	case gateway.TxRevive:
		if s.Character != nil && r.Position.Compare(s.PlayerAt) >= 0 {
			s.Character.HP = s.Character.MaxHP
			s.PlayerAt = r.Position
		}
	}
}

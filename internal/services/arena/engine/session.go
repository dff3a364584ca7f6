package engine

import (
	"context"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/timeouts"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
)

// reset empties the Session, abandons all work of the current generation and
// starts the handshake of the next one.
func (s *Store) reset(reason string) {
	if s.genCancel != nil {
		s.genCancel()
	}
	s.releaseScope()
	s.contract = nil
	s.screen = ""

	generation := s.state.Generation + 1
	s.logf("session reset (%s), generation %d", reason, generation)
	s.genCtx, s.genCancel = context.WithCancel(s.runCtx)
	s.commit(gamestate.Reset{Generation: generation})
	s.record(storage.Entry{Kind: "session", Stage: storage.StageReset})

	go s.handshake(s.genCtx, generation)
}

func (s *Store) chainChanged(id chainlink.ChainID) {
	if id == s.state.ChainID {
		return
	}
	s.logf("chain changed %s -> %s", s.state.ChainID, id)
	s.reset("chain changed")
}

func (s *Store) accountChanged(account chainlink.Account) {
	if account == s.state.Account {
		return
	}
	s.logf("account changed %q -> %q", s.state.Account, account)
	s.reset("account changed")
}

// handshake reads the authorised account and active chain without
// prompting.
func (s *Store) handshake(ctx context.Context, generation uint64) {
	if !s.wallet.Available() {
		s.postScoped(generation, func() {
			s.handshakeFailed(apperrors.New(apperrors.CodeProviderMissing, "no wallet provider"))
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.ProviderRequest)
	defer cancel()
	accounts, err := s.wallet.Accounts(ctx)
	var chain chainlink.ChainID
	if err == nil {
		chain, err = s.wallet.ChainID(ctx)
	}
	if err != nil {
		s.postScoped(generation, func() { s.handshakeFailed(err) })
		return
	}
	var account chainlink.Account
	if len(accounts) > 0 {
		account = accounts[0]
	}
	s.postScoped(generation, func() { s.walletObserved(account, chain) })
}

func (s *Store) handshakeFailed(err error) {
	s.logf("wallet handshake: %v", err)
	s.emit(s.notices.Failure(err))
	if apperrors.HasCode(err, apperrors.CodeProviderMissing) {
		s.commit(gamestate.ProviderMissing{}, gamestate.Ready{})
		return
	}
	s.commit(gamestate.Ready{})
}

func (s *Store) walletObserved(account chainlink.Account, chain chainlink.ChainID) {
	s.logf("wallet account %q on chain %s", account, chain)
	s.commit(gamestate.WalletObserved{Account: account, ChainID: chain})
	if account == "" || !s.state.ChainMatches() {
		s.commit(gamestate.Ready{})
		return
	}

	s.contract = s.contracts(account)
	contract, ctx := s.contract, s.genCtx
	go func() {
		if err := contract.Watch(ctx); err != nil && ctx.Err() == nil {
			s.logf("watch contract events: %v", err)
		}
	}()
	s.loadOwnership()
}

// loadOwnership reads the owned character and ends the handshake when it is
// still running.
func (s *Store) loadOwnership() {
	generation, ctx, contract := s.state.Generation, s.genCtx, s.contract
	go func() {
		ownership, err := contract.OwnedCharacter(ctx)
		s.postScoped(generation, func() {
			if err != nil {
				s.logf("read owned character: %v", err)
				s.emit(s.notices.Failure(err))
				s.commit(gamestate.Ready{})
				return
			}
			s.commit(gamestate.OwnershipLoaded{Ownership: ownership}, gamestate.Ready{})
		})
	}()
}

// commit folds events into the Session and publishes the result.
func (s *Store) commit(events ...gamestate.Event) {
	for _, e := range events {
		prev := s.state
		s.state = gamestate.Fold(s.state, e)
		s.announce(prev, s.state, e)
	}

	s.mu.Lock()
	s.snapshot = s.state.Clone()
	s.mu.Unlock()

	s.syncScope()
	s.publish(view.Render(s.state.Clone()))
}

// announce emits the success notice when e resolved the pending action.
func (s *Store) announce(prev, next gamestate.Session, e gamestate.Event) {
	if prev.Pending == nil || next.Pending != nil || prev.Generation != next.Generation {
		return
	}
	if _, failed := e.(gamestate.ActionFailed); failed {
		return
	}
	switch prev.Pending.Kind {
	case gamestate.ActionMint:
		name := ""
		if next.Character != nil {
			name = next.Character.Name
		}
		s.emit(s.notices.Minted(name))
	case gamestate.ActionAttack:
		var bossHP, playerHP int
		if next.Boss != nil {
			bossHP = next.Boss.HP
		}
		if next.Character != nil {
			playerHP = next.Character.HP
		}
		s.emit(s.notices.AttackComplete(bossHP, playerHP))
	case gamestate.ActionRevive:
		s.emit(s.notices.Revived())
	}
}

// syncScope keeps the contract subscription and reads of the current screen
// alive, releasing those of the previous one.
func (s *Store) syncScope() {
	screen := view.Route(s.state)
	if screen == s.screen {
		return
	}
	if s.screen != "" {
		s.logf("screen %s -> %s", s.screen, screen)
	}
	s.releaseScope()
	s.screen = screen
	if s.contract == nil {
		return
	}

	generation, ctx, contract := s.state.Generation, s.genCtx, s.contract
	switch screen {
	case view.ScreenCharacterSelection:
		s.release = contract.OnCharacterMinted(func(m gateway.CharacterMinted) {
			s.postScoped(generation, func() { s.characterMinted(m) })
		})
		go func() {
			roster, err := contract.Roster(ctx)
			s.postScoped(generation, func() {
				if err != nil {
					s.logf("read roster: %v", err)
					s.emit(s.notices.Failure(err))
					return
				}
				s.commit(gamestate.RosterLoaded{Roster: roster})
			})
		}()
	case view.ScreenArena:
		s.release = contract.OnAttackResolved(func(a gateway.AttackResolved) {
			s.postScoped(generation, func() { s.commit(gamestate.AttackResolved{Event: a}) })
		})
		go func() {
			boss, err := contract.Boss(ctx)
			s.postScoped(generation, func() {
				if err != nil {
					s.logf("read boss: %v", err)
					s.emit(s.notices.Failure(err))
					return
				}
				s.commit(gamestate.BossLoaded{Boss: boss})
			})
		}()
	}
}

func (s *Store) releaseScope() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

func (s *Store) characterMinted(m gateway.CharacterMinted) {
	s.commit(gamestate.CharacterMinted{Event: m})
	if m.Sender == s.state.Account && s.state.Character == nil && s.contract != nil {
		s.logf("minted character %d is not on the loaded roster, re-reading ownership", m.CharacterIndex)
		s.loadOwnership()
	}
}

// record appends entry to the journal, stamped with the Session identity.
func (s *Store) record(entry storage.Entry) {
	if s.journal == nil {
		return
	}
	entry.Generation = s.state.Generation
	entry.Account = string(s.state.Account)
	entry.ChainID = string(s.state.ChainID)
	ctx, cancel := context.WithTimeout(s.runCtx, timeouts.ProviderRequest)
	defer cancel()
	if err := s.journal.Append(ctx, entry); err != nil {
		s.logf("journal %s %s: %v", entry.Kind, entry.Stage, err)
	}
}

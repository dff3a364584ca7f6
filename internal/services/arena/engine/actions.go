package engine

import (
	"context"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/timeouts"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatch hands intent to the loop and returns once it was accepted or
// rejected. Accepted actions resolve later; their outcome arrives as a View
// change and a notice.
func (s *Store) Dispatch(ctx context.Context, intent gamestate.Intent) error {
	reply := make(chan error, 1)
	m := message{run: func() { reply <- s.handleIntent(intent) }}
	select {
	case s.inbox <- m:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect opens the wallet permission prompt.
func (s *Store) Connect(ctx context.Context) error {
	return s.Dispatch(ctx, gamestate.Intent{Kind: gamestate.ActionConnect})
}

// SwitchNetwork asks the wallet to activate the required chain.
func (s *Store) SwitchNetwork(ctx context.Context) error {
	return s.Dispatch(ctx, gamestate.Intent{Kind: gamestate.ActionSwitchNetwork})
}

// Mint mints roster entry index.
func (s *Store) Mint(ctx context.Context, index int) error {
	return s.Dispatch(ctx, gamestate.Intent{Kind: gamestate.ActionMint, Index: index})
}

// Attack attacks the boss.
func (s *Store) Attack(ctx context.Context) error {
	return s.Dispatch(ctx, gamestate.Intent{Kind: gamestate.ActionAttack})
}

// Revive revives a defeated character.
func (s *Store) Revive(ctx context.Context) error {
	return s.Dispatch(ctx, gamestate.Intent{Kind: gamestate.ActionRevive})
}

func (s *Store) handleIntent(intent gamestate.Intent) error {
	d := gamestate.Decide(s.state, intent)
	if !d.Accepted() {
		err := d.Rejection.Err()
		s.logf("intent %s rejected: %v", intent.Kind, err)
		s.record(storage.Entry{Kind: string(intent.Kind), Stage: storage.StageRejected, Code: string(d.Rejection.Code)})
		s.emit(s.notices.Code(d.Rejection.Code))
		return err
	}
	s.commit(d.Events...)
	action := *s.state.Pending
	s.record(storage.Entry{ActionID: action.ID, Kind: string(action.Kind), Stage: storage.StageStarted})

	generation, ctx := s.state.Generation, s.genCtx
	switch action.Kind {
	case gamestate.ActionConnect:
		go s.connect(ctx, generation, action)
	case gamestate.ActionSwitchNetwork:
		go s.switchNetwork(ctx, generation, action)
	default:
		if s.contract == nil {
			s.fail(action, apperrors.New(apperrors.CodeNotConnected, "no contract bound"), "", "")
			return nil
		}
		go s.transact(ctx, generation, action, s.contract)
	}
	return nil
}

func (s *Store) connect(ctx context.Context, generation uint64, action gamestate.Action) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.WalletPrompt)
	defer cancel()
	account, err := s.wallet.RequestAccounts(ctx)
	s.postScoped(generation, func() {
		if err != nil {
			s.fail(action, err, "", "")
			return
		}
		s.commit(gamestate.ActionCompleted{ID: action.ID})
		s.record(storage.Entry{ActionID: action.ID, Kind: string(action.Kind), Stage: storage.StageConfirmed})
		s.logf("connected account %s", account)
		s.reset("connected")
	})
}

func (s *Store) switchNetwork(ctx context.Context, generation uint64, action gamestate.Action) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.WalletPrompt)
	defer cancel()
	err := s.wallet.SwitchChain(ctx, s.wallet.RequiredChain())
	s.postScoped(generation, func() {
		if err != nil {
			s.fail(action, err, "", "")
			return
		}
		// The reset follows from the chainChanged notification.
		s.commit(gamestate.ActionCompleted{ID: action.ID})
		s.record(storage.Entry{ActionID: action.ID, Kind: string(action.Kind), Stage: storage.StageConfirmed})
	})
}

// transact submits the action's transaction and waits for it to be mined.
// Once submitted nothing can cancel it; a reset only stops the wait.
func (s *Store) transact(ctx context.Context, generation uint64, action gamestate.Action, contract Contract) {
	ctx, span := s.tracer.Start(ctx, "gamestate."+string(action.Kind), trace.WithAttributes(
		attribute.Int64("action.id", int64(action.ID)),
		attribute.Int64("session.generation", int64(generation)),
	))
	defer span.End()
	var traceID string
	if sc := span.SpanContext(); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	failed := func(err error, txHash string) {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(apperrors.CodeOf(err)))
		s.postScoped(generation, func() { s.fail(action, err, txHash, traceID) })
	}

	var tx gateway.Tx
	var err error
	switch action.Kind {
	case gamestate.ActionMint:
		tx, err = contract.Mint(ctx, action.Index)
	case gamestate.ActionAttack:
		tx, err = contract.Attack(ctx)
	case gamestate.ActionRevive:
		tx, err = contract.Revive(ctx)
	}
	if err != nil {
		failed(err, "")
		return
	}
	span.SetAttributes(attribute.String("tx.hash", tx.Hash.Hex()))
	s.postScoped(generation, func() { s.submitted(action, tx, traceID) })

	receipt, err := contract.AwaitConfirmation(ctx, tx)
	if err != nil {
		failed(err, tx.Hash.Hex())
		return
	}
	s.postScoped(generation, func() { s.confirmed(action, receipt, traceID) })
}

func (s *Store) submitted(action gamestate.Action, tx gateway.Tx, traceID string) {
	s.logf("%s action %d submitted tx %s", action.Kind, action.ID, tx.Hash.Hex())
	s.commit(gamestate.ActionSubmitted{ID: action.ID, TxHash: tx.Hash})
	s.record(storage.Entry{
		ActionID: action.ID,
		Kind:     string(action.Kind),
		Stage:    storage.StageSubmitted,
		TxHash:   tx.Hash.Hex(),
		TraceID:  traceID,
	})
}

func (s *Store) confirmed(action gamestate.Action, receipt gateway.Receipt, traceID string) {
	s.logf("%s action %d confirmed in block %d", action.Kind, action.ID, receipt.Position.Block)
	s.commit(gamestate.ActionConfirmed{ID: action.ID, Index: action.Index, Receipt: receipt})
	s.record(storage.Entry{
		ActionID: action.ID,
		Kind:     string(action.Kind),
		Stage:    storage.StageConfirmed,
		TxHash:   receipt.Tx.Hash.Hex(),
		TraceID:  traceID,
	})
}

// fail resolves action with err. txHash is set once the transaction was
// submitted. The notice is only shown while the action is still pending; a
// pushed outcome may already have resolved it.
func (s *Store) fail(action gamestate.Action, err error, txHash, traceID string) {
	code := apperrors.CodeOf(err)
	s.logf("%s action %d failed: %v", action.Kind, action.ID, err)
	stillPending := s.state.Pending != nil && s.state.Pending.ID == action.ID
	s.commit(gamestate.ActionFailed{ID: action.ID, Code: code})
	s.record(storage.Entry{
		ActionID: action.ID,
		Kind:     string(action.Kind),
		Stage:    storage.StageFailed,
		Code:     string(code),
		TxHash:   txHash,
		TraceID:  traceID,
	})
	if stillPending {
		s.emit(s.notices.Failure(err))
	}
}

package engine

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/notice"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/engine"

const (
	inboxSize      = 64
	subscriberSize = 16
)

var (
	// ErrWalletRequired indicates a missing wallet adapter.
	ErrWalletRequired = errors.New("wallet is required")
	// ErrContractFactoryRequired indicates a missing contract factory.
	ErrContractFactoryRequired = errors.New("contract factory is required")
	// ErrRendererRequired indicates a missing notice renderer.
	ErrRendererRequired = errors.New("notice renderer is required")
	// ErrStopped is returned for intents sent after Run returned.
	ErrStopped = errors.New("store stopped")
)

// Store owns the Session and serializes every change to it.
type Store struct {
	wallet    Wallet
	contracts ContractFactory
	notices   *notice.Renderer
	journal   storage.Journal
	logf      func(string, ...any)
	tracer    trace.Tracer

	inbox chan message
	done  chan struct{}

	mu       sync.RWMutex
	snapshot gamestate.Session

	subsMu     sync.Mutex
	subsClosed bool
	nextSub    int
	viewSubs   map[int]chan view.View
	noticeSubs map[int]chan notice.Notice

	// Loop-owned state below.
	runCtx    context.Context
	state     gamestate.Session
	genCtx    context.Context
	genCancel context.CancelFunc
	contract  Contract
	screen    view.Screen
	release   func()
}

// message is one unit of work for the loop. Scoped messages are dropped
// when their generation is no longer current.
type message struct {
	generation uint64
	scoped     bool
	run        func()
}

// Option configures a Store.
type Option func(*Store)

// WithJournal records every action lifecycle step.
func WithJournal(journal storage.Journal) Option {
	return func(s *Store) { s.journal = journal }
}

// WithLogger overrides the log sink (log.Printf by default).
func WithLogger(logf func(string, ...any)) Option {
	return func(s *Store) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// New builds a Store. Run must be called to start it.
func New(wallet Wallet, contracts ContractFactory, notices *notice.Renderer, opts ...Option) (*Store, error) {
	if wallet == nil {
		return nil, ErrWalletRequired
	}
	if contracts == nil {
		return nil, ErrContractFactoryRequired
	}
	if notices == nil {
		return nil, ErrRendererRequired
	}
	s := &Store{
		wallet:     wallet,
		contracts:  contracts,
		notices:    notices,
		logf:       log.Printf,
		tracer:     otel.Tracer(tracerName),
		inbox:      make(chan message, inboxSize),
		done:       make(chan struct{}),
		viewSubs:   map[int]chan view.View{},
		noticeSubs: map[int]chan notice.Notice{},
		state:      gamestate.New(wallet.RequiredChain()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot = s.state.Clone()
	return s, nil
}

// Run starts the first generation and processes the inbox until ctx ends.
// Run may be called once.
func (s *Store) Run(ctx context.Context) error {
	defer close(s.done)
	s.runCtx = ctx

	releaseChain := s.wallet.SubscribeChainChanged(func(id chainlink.ChainID) {
		s.post(message{run: func() { s.chainChanged(id) }})
	})
	defer releaseChain()
	releaseAccounts := s.wallet.SubscribeAccountsChanged(func(account chainlink.Account) {
		s.post(message{run: func() { s.accountChanged(account) }})
	})
	defer releaseAccounts()

	s.reset("start")
	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return nil
		case m := <-s.inbox:
			if m.scoped && m.generation != s.state.Generation {
				continue
			}
			m.run()
		}
	}
}

func (s *Store) post(m message) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

// postScoped queues fn for the given generation.
func (s *Store) postScoped(generation uint64, fn func()) {
	s.post(message{generation: generation, scoped: true, run: fn})
}

func (s *Store) teardown() {
	if s.genCancel != nil {
		s.genCancel()
	}
	s.releaseScope()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subsClosed = true
	for id, ch := range s.viewSubs {
		close(ch)
		delete(s.viewSubs, id)
	}
	for id, ch := range s.noticeSubs {
		close(ch)
		delete(s.noticeSubs, id)
	}
}

// Reload starts a new generation the way a page load does. The bridge calls
// it whenever a page attaches.
func (s *Store) Reload() {
	s.post(message{run: func() { s.reset("reload") }})
}

// Snapshot returns a deep copy of the current Session.
func (s *Store) Snapshot() gamestate.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// View renders the current Session.
func (s *Store) View() view.View {
	return view.Render(s.Snapshot())
}

// Subscribe streams a View after every change, starting with the current
// one. A slow reader loses the oldest views. Channels close when Run ends.
func (s *Store) Subscribe() (<-chan view.View, func()) {
	ch := make(chan view.View, subscriberSize)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.subsClosed {
		close(ch)
		return ch, func() {}
	}
	ch <- s.View()
	id := s.nextSub
	s.nextSub++
	s.viewSubs[id] = ch
	return ch, s.unsubscriber(func() {
		if c, ok := s.viewSubs[id]; ok {
			close(c)
			delete(s.viewSubs, id)
		}
	})
}

// Notices streams user-visible notifications. A slow reader loses the oldest
// ones. Channels close when Run ends.
func (s *Store) Notices() (<-chan notice.Notice, func()) {
	ch := make(chan notice.Notice, subscriberSize)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.subsClosed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.noticeSubs[id] = ch
	return ch, s.unsubscriber(func() {
		if c, ok := s.noticeSubs[id]; ok {
			close(c)
			delete(s.noticeSubs, id)
		}
	})
}

func (s *Store) unsubscriber(remove func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			remove()
		})
	}
}

// ReportMalformed surfaces a dropped event payload. It is safe to call from
// any goroutine.
func (s *Store) ReportMalformed(err error) {
	s.logf("dropped malformed event payload: %v", err)
	s.emit(s.notices.Failure(err))
}

func (s *Store) emit(n notice.Notice) {
	s.logf("notice %s", n)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.noticeSubs {
		sendDropOldest(ch, n)
	}
}

func (s *Store) publish(v view.View) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.viewSubs {
		sendDropOldest(ch, v)
	}
}

// sendDropOldest sends v, discarding the oldest buffered value when ch is
// full. Callers hold subsMu, so ch has a single sender.
func sendDropOldest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/i18n/catalog"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/notice"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
	"github.com/ethereum/go-ethereum/common"
)

const (
	requiredChain = chainlink.ChainID("0x13881")
	otherChain    = chainlink.ChainID("0x1")
	ownAccount    = chainlink.Account("0x00000000000000000000000000000000000000aa")
	otherAccount  = chainlink.Account("0x00000000000000000000000000000000000000bb")
)

func testRoster() []gateway.Character {
	return []gateway.Character{
		{Index: 0, Name: "Mage", HP: 80, MaxHP: 80, AttackDamage: 30},
		{Index: 1, Name: "Archer", HP: 90, MaxHP: 90, AttackDamage: 25},
		{Index: 2, Name: "Knight", HP: 100, MaxHP: 100, AttackDamage: 20},
	}
}

func ownedKnight() gateway.Ownership {
	knight := testRoster()[2]
	knight.HP = 80
	knight.TokenID = 1
	return gateway.Ownership{Character: knight, Owned: true, At: gateway.EndOfBlock(10)}
}

func testBoss() gateway.Boss {
	return gateway.Boss{Name: "Dragon", HP: 50, MaxHP: 500, AttackDamage: 20}
}

type fakeWallet struct {
	mu              sync.Mutex
	available       bool
	accounts        []chainlink.Account
	chain           chainlink.ChainID
	approve         chainlink.Account
	requestErr      error
	switchErr       error
	switches        int
	chainHandlers   map[int]func(chainlink.ChainID)
	accountHandlers map[int]func(chainlink.Account)
	nextHandler     int
}

func newFakeWallet(accounts ...chainlink.Account) *fakeWallet {
	return &fakeWallet{
		available:       true,
		accounts:        accounts,
		chain:           requiredChain,
		approve:         ownAccount,
		chainHandlers:   map[int]func(chainlink.ChainID){},
		accountHandlers: map[int]func(chainlink.Account){},
	}
}

func (w *fakeWallet) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.available
}

func (w *fakeWallet) RequiredChain() chainlink.ChainID { return requiredChain }

func (w *fakeWallet) Accounts(context.Context) ([]chainlink.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]chainlink.Account(nil), w.accounts...), nil
}

func (w *fakeWallet) ChainID(context.Context) (chainlink.ChainID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chain, nil
}

func (w *fakeWallet) RequestAccounts(context.Context) (chainlink.Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.requestErr != nil {
		return "", w.requestErr
	}
	w.accounts = []chainlink.Account{w.approve}
	return w.approve, nil
}

func (w *fakeWallet) SwitchChain(context.Context, chainlink.ChainID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.switches++
	return w.switchErr
}

func (w *fakeWallet) SubscribeChainChanged(handler func(chainlink.ChainID)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextHandler
	w.nextHandler++
	w.chainHandlers[id] = handler
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.chainHandlers, id)
	}
}

func (w *fakeWallet) SubscribeAccountsChanged(handler func(chainlink.Account)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextHandler
	w.nextHandler++
	w.accountHandlers[id] = handler
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.accountHandlers, id)
	}
}

// switchTo makes id the active chain and notifies subscribers.
func (w *fakeWallet) switchTo(id chainlink.ChainID) {
	w.mu.Lock()
	w.chain = id
	var handlers []func(chainlink.ChainID)
	for _, h := range w.chainHandlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()
	for _, h := range handlers {
		h(id)
	}
}

// selectAccount makes account the primary account and notifies subscribers.
func (w *fakeWallet) selectAccount(account chainlink.Account) {
	w.mu.Lock()
	w.accounts = []chainlink.Account{account}
	var handlers []func(chainlink.Account)
	for _, h := range w.accountHandlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()
	for _, h := range handlers {
		h(account)
	}
}

type fakeContract struct {
	mu        sync.Mutex
	account   chainlink.Account
	ownership gateway.Ownership
	roster    []gateway.Character
	boss      gateway.Boss
	submitErr error
	confirm   func(tx gateway.Tx) (gateway.Receipt, error)
	gate      chan struct{}
	nextHash  byte
	sent      []gateway.Tx
	bossReads int
	watching  int

	nextID   int
	minted   map[int]func(gateway.CharacterMinted)
	resolved map[int]func(gateway.AttackResolved)
}

func newFakeContract() *fakeContract {
	return &fakeContract{
		roster:   testRoster(),
		boss:     testBoss(),
		minted:   map[int]func(gateway.CharacterMinted){},
		resolved: map[int]func(gateway.AttackResolved){},
	}
}

func (c *fakeContract) factory(account chainlink.Account) Contract {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = account
	return c
}

func (c *fakeContract) OwnedCharacter(context.Context) (gateway.Ownership, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ownership, nil
}

func (c *fakeContract) Roster(context.Context) ([]gateway.Character, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]gateway.Character(nil), c.roster...), nil
}

func (c *fakeContract) Boss(context.Context) (gateway.Boss, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bossReads++
	return c.boss, nil
}

func (c *fakeContract) Mint(context.Context, int) (gateway.Tx, error) {
	return c.submit(gateway.TxMint)
}

func (c *fakeContract) Attack(context.Context) (gateway.Tx, error) {
	return c.submit(gateway.TxAttack)
}

func (c *fakeContract) Revive(context.Context) (gateway.Tx, error) {
	return c.submit(gateway.TxRevive)
}

func (c *fakeContract) submit(kind gateway.TxKind) (gateway.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return gateway.Tx{}, c.submitErr
	}
	c.nextHash++
	tx := gateway.Tx{Hash: common.BytesToHash([]byte{c.nextHash}), Kind: kind, From: c.account}
	c.sent = append(c.sent, tx)
	return tx, nil
}

func (c *fakeContract) lastSent() gateway.Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return gateway.Tx{}
	}
	return c.sent[len(c.sent)-1]
}

func (c *fakeContract) AwaitConfirmation(ctx context.Context, tx gateway.Tx) (gateway.Receipt, error) {
	c.mu.Lock()
	gate, confirm := c.gate, c.confirm
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return gateway.Receipt{}, ctx.Err()
		}
	}
	if confirm == nil {
		return gateway.Receipt{Tx: tx, Position: gateway.LogPosition{Block: 20}}, nil
	}
	return confirm(tx)
}

func (c *fakeContract) OnCharacterMinted(handler func(gateway.CharacterMinted)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.minted[id] = handler
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.minted, id)
	}
}

func (c *fakeContract) OnAttackResolved(handler func(gateway.AttackResolved)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.resolved[id] = handler
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.resolved, id)
	}
}

func (c *fakeContract) Watch(ctx context.Context) error {
	c.mu.Lock()
	c.watching++
	c.mu.Unlock()
	<-ctx.Done()
	c.mu.Lock()
	c.watching--
	c.mu.Unlock()
	return nil
}

func (c *fakeContract) handlers() (minted, resolved int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.minted), len(c.resolved)
}

func (c *fakeContract) watchers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watching
}

func (c *fakeContract) pushAttack(a gateway.AttackResolved) {
	c.mu.Lock()
	var handlers []func(gateway.AttackResolved)
	for _, h := range c.resolved {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()
	for _, h := range handlers {
		h(a)
	}
}

func (c *fakeContract) pushMint(m gateway.CharacterMinted) {
	c.mu.Lock()
	var handlers []func(gateway.CharacterMinted)
	for _, h := range c.minted {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()
	for _, h := range handlers {
		h(m)
	}
}

type memJournal struct {
	mu      sync.Mutex
	entries []storage.Entry
}

func (j *memJournal) Append(_ context.Context, entry storage.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *memJournal) stages(kind string) []storage.Stage {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []storage.Stage
	for _, e := range j.entries {
		if e.Kind == kind {
			out = append(out, e.Stage)
		}
	}
	return out
}

func (j *memJournal) find(kind string, stage storage.Stage) (storage.Entry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range j.entries {
		if e.Kind == kind && e.Stage == stage {
			return e, true
		}
	}
	return storage.Entry{}, false
}

type harness struct {
	t        *testing.T
	store    *Store
	wallet   *fakeWallet
	contract *fakeContract
	journal  *memJournal
	notices  <-chan notice.Notice
}

func newRenderer(t *testing.T) *notice.Renderer {
	t.Helper()
	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if err := bundle.Register(); err != nil {
		t.Fatalf("register catalogs: %v", err)
	}
	return notice.NewRenderer(bundle, "en-US", "Polygon Mumbai Testnet")
}

func start(t *testing.T, wallet *fakeWallet, contract *fakeContract) *harness {
	t.Helper()
	journal := &memJournal{}
	store, err := New(wallet, contract.factory, newRenderer(t),
		WithJournal(journal),
		WithLogger(func(string, ...any) {}),
	)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	notices, _ := store.Notices()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("run: %v", err)
		}
	})
	return &harness{t: t, store: store, wallet: wallet, contract: contract, journal: journal, notices: notices}
}

// waitFor polls the snapshot until cond holds.
func (h *harness) waitFor(what string, cond func(gamestate.Session) bool) gamestate.Session {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := h.store.Snapshot()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s; session = %+v", what, s)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (h *harness) waitScreen(screen view.Screen) gamestate.Session {
	h.t.Helper()
	return h.waitFor("screen "+string(screen), func(s gamestate.Session) bool {
		return view.Route(s) == screen
	})
}

// waitNotice reads notices until one with key arrives.
func (h *harness) waitNotice(key string) notice.Notice {
	h.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case n := <-h.notices:
			if n.Key == key {
				return n
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for notice %s", key)
		}
	}
}

// sync returns once every message queued before it was processed.
func (h *harness) sync() {
	h.t.Helper()
	done := make(chan struct{})
	h.store.post(message{run: func() { close(done) }})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		h.t.Fatal("timed out syncing with the loop")
	}
}

// drain returns every notice already queued.
func (h *harness) drain() []notice.Notice {
	var out []notice.Notice
	for {
		select {
		case n := <-h.notices:
			out = append(out, n)
		default:
			return out
		}
	}
}

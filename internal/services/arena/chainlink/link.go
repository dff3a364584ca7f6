package chainlink

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
)

// Link is the account, chain and signer adapter over one Provider.
type Link struct {
	provider   Provider
	descriptor Descriptor
	logf       func(string, ...any)

	mu          sync.Mutex
	lastChain   ChainID
	lastAccount Account
	accountSeen bool
}

// Option configures a Link.
type Option func(*Link)

// WithLogger overrides the log sink (log.Printf by default).
func WithLogger(logf func(string, ...any)) Option {
	return func(l *Link) {
		if logf != nil {
			l.logf = logf
		}
	}
}

// New builds a Link. A nil provider yields a Link whose every call reports
// PROVIDER_MISSING.
func New(provider Provider, descriptor Descriptor, opts ...Option) *Link {
	l := &Link{provider: provider, descriptor: descriptor, logf: log.Printf}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Available reports whether a provider is injected.
func (l *Link) Available() bool {
	return l != nil && l.provider != nil
}

// RequiredChain returns the chain all contract calls must run on.
func (l *Link) RequiredChain() ChainID {
	return l.descriptor.ChainID
}

// Accounts returns the accounts already authorised for this client, without
// prompting. Malformed entries are dropped.
func (l *Link) Accounts(ctx context.Context) ([]Account, error) {
	var raw []string
	if err := l.request(ctx, ReadPath, &raw, "eth_accounts"); err != nil {
		return nil, err
	}
	accounts := l.parseAccounts(raw)
	l.observeAccount(primary(accounts))
	return accounts, nil
}

// ChainID returns the active chain.
func (l *Link) ChainID(ctx context.Context) (ChainID, error) {
	var raw string
	if err := l.request(ctx, ReadPath, &raw, "eth_chainId"); err != nil {
		return "", err
	}
	id, err := ParseChainID(raw)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeProviderFailure, "eth_chainId", err)
	}
	l.observeChain(id)
	return id, nil
}

// RequestAccounts opens the wallet permission prompt and returns the primary
// account the human approved.
func (l *Link) RequestAccounts(ctx context.Context) (Account, error) {
	var raw []string
	if err := l.request(ctx, ReadPath, &raw, "eth_requestAccounts"); err != nil {
		return "", err
	}
	account := primary(l.parseAccounts(raw))
	if account == "" {
		return "", apperrors.New(apperrors.CodeUserRejected, "eth_requestAccounts: no account approved")
	}
	l.observeAccount(account)
	return account, nil
}

// SwitchChain asks the wallet to activate target. When the wallet does not
// know the required chain, the chain is added from the descriptor and the
// switch retried exactly once; a second failure is returned as is.
func (l *Link) SwitchChain(ctx context.Context, target ChainID) error {
	params := map[string]string{"chainId": string(target)}
	err := l.request(ctx, ReadPath, nil, "wallet_switchEthereumChain", params)
	if !apperrors.HasCode(err, apperrors.CodeAddChainRequired) {
		return err
	}
	if target != l.descriptor.ChainID {
		return err
	}
	l.logf("chain %s unknown to wallet, adding %q", target, l.descriptor.ChainName)
	if err := l.request(ctx, ReadPath, nil, "wallet_addEthereumChain", l.descriptor); err != nil {
		return err
	}
	return l.request(ctx, ReadPath, nil, "wallet_switchEthereumChain", params)
}

// SubscribeChainChanged calls handler once per actual network change. A
// notification repeating the last observed chain is swallowed.
func (l *Link) SubscribeChainChanged(handler func(ChainID)) (release func()) {
	if !l.Available() {
		return func() {}
	}
	return l.provider.Subscribe(EventChainChanged, func(data json.RawMessage) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			l.logf("drop chainChanged payload %s: %v", data, err)
			return
		}
		id, err := ParseChainID(raw)
		if err != nil {
			l.logf("drop chainChanged payload %s: %v", data, err)
			return
		}
		if !l.observeChain(id) {
			return
		}
		handler(id)
	})
}

// SubscribeAccountsChanged calls handler once per change of the primary
// account. Disconnect is reported as the empty Account.
func (l *Link) SubscribeAccountsChanged(handler func(Account)) (release func()) {
	if !l.Available() {
		return func() {}
	}
	return l.provider.Subscribe(EventAccountsChanged, func(data json.RawMessage) {
		var raw []string
		if err := json.Unmarshal(data, &raw); err != nil {
			l.logf("drop accountsChanged payload %s: %v", data, err)
			return
		}
		account := primary(l.parseAccounts(raw))
		if !l.observeAccount(account) {
			return
		}
		handler(account)
	})
}

// Bind returns a handle that issues provider requests on behalf of account.
func (l *Link) Bind(account Account) Signer {
	return Signer{link: l, account: account}
}

func (l *Link) request(ctx context.Context, path Path, result any, method string, params ...any) error {
	if !l.Available() {
		return Classify(ErrNoProvider, path, method)
	}
	return Classify(l.provider.Request(ctx, result, method, params...), path, method)
}

func (l *Link) parseAccounts(raw []string) []Account {
	accounts := make([]Account, 0, len(raw))
	for _, entry := range raw {
		account, ok := ParseAccount(entry)
		if !ok {
			l.logf("drop malformed account %q", entry)
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts
}

// observeChain records id and reports whether it differs from the last one.
func (l *Link) observeChain(id ChainID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastChain == id {
		return false
	}
	l.lastChain = id
	return true
}

func (l *Link) observeAccount(account Account) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.accountSeen && l.lastAccount == account {
		return false
	}
	l.accountSeen = true
	l.lastAccount = account
	return true
}

func primary(accounts []Account) Account {
	if len(accounts) == 0 {
		return ""
	}
	return accounts[0]
}

// Signer issues provider requests bound to one account.
type Signer struct {
	link    *Link
	account Account
}

// Account returns the bound account.
func (s Signer) Account() Account { return s.account }

// Request forwards to the provider, classifying faults for path.
func (s Signer) Request(ctx context.Context, path Path, result any, method string, params ...any) error {
	if s.link == nil {
		return Classify(ErrNoProvider, path, method)
	}
	return s.link.request(ctx, path, result, method, params...)
}

// Valid reports whether the signer is bound to a provider and an account.
func (s Signer) Valid() error {
	if s.link == nil || !s.link.Available() {
		return Classify(ErrNoProvider, ReadPath, "bind")
	}
	if s.account == "" {
		return apperrors.New(apperrors.CodeNotConnected, "signer has no account")
	}
	return nil
}

// Package app wires the arena engine to its wallet provider, contract
// gateway, journal, health endpoint and front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/i18n/catalog"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/bridge"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/engine"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/notice"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	arenasqlite "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage/sqlite"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/view"
	"github.com/ethereum/go-ethereum/common"
)

// Provider modes.
const (
	ProviderBridge = "bridge"
	ProviderRPC    = "rpc"
)

const (
	defaultBridgeAddr = "127.0.0.1:8095"
	defaultLocale     = "en-US"
)

var defaultBridgeOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// RuntimeConfig controls arena startup and dependencies.
type RuntimeConfig struct {
	Provider        string
	BridgeAddr      string
	BridgeOrigins   []string
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	Chain           chainlink.Descriptor
	DBPath          string
	HealthPort      int
	Locale          string
	PollInterval    time.Duration
	ConfirmTimeout  time.Duration
	ReorgDepth      uint64

	// Console, when set, is read line by line for intents.
	Console io.Reader
	// Output receives console replies. Defaults to io.Discard.
	Output io.Writer
}

// validate normalizes cfg and rejects anything that would fail later.
func (cfg RuntimeConfig) validate() (RuntimeConfig, common.Address, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderBridge
	}
	switch cfg.Provider {
	case ProviderBridge:
		if strings.TrimSpace(cfg.BridgeAddr) == "" {
			cfg.BridgeAddr = defaultBridgeAddr
		}
		if len(cfg.BridgeOrigins) == 0 {
			cfg.BridgeOrigins = defaultBridgeOrigins
		}
	case ProviderRPC:
		if strings.TrimSpace(cfg.RPCURL) == "" {
			return cfg, common.Address{}, errors.New("rpc url is required for the rpc provider")
		}
	default:
		return cfg, common.Address{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	address := strings.TrimSpace(cfg.ContractAddress)
	if address == "" {
		return cfg, common.Address{}, errors.New("contract address is required")
	}
	if !common.IsHexAddress(address) {
		return cfg, common.Address{}, fmt.Errorf("contract address %q is not a hex address", address)
	}
	chainID, err := chainlink.ParseChainID(string(cfg.Chain.ChainID))
	if err != nil {
		return cfg, common.Address{}, fmt.Errorf("required chain: %w", err)
	}
	cfg.Chain.ChainID = chainID
	if err := cfg.Chain.Validate(); err != nil {
		return cfg, common.Address{}, fmt.Errorf("required chain: %w", err)
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = defaultLocale
	}
	if cfg.HealthPort < 0 {
		return cfg, common.Address{}, fmt.Errorf("health port %d is negative", cfg.HealthPort)
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	return cfg, common.HexToAddress(address), nil
}

// Run starts the arena engine and blocks until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, contract, err := cfg.validate()
	if err != nil {
		return err
	}

	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load notice catalog: %w", err)
	}
	if err := bundle.Register(); err != nil {
		return fmt.Errorf("register notice catalog: %w", err)
	}
	renderer := notice.NewRenderer(bundle, cfg.Locale, cfg.Chain.ChainName)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		journal storage.Journal
		history storage.JournalReader
	)
	if strings.TrimSpace(cfg.DBPath) != "" {
		journalStore, err := arenasqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open arena journal: %w", err)
		}
		defer func() {
			if closeErr := journalStore.Close(); closeErr != nil {
				log.Printf("close arena journal: %v", closeErr)
			}
		}()
		journal, history = journalStore, journalStore
	}

	// The bridge forwards intents to the store, which needs the bridge as
	// its provider, so the store is bound after construction.
	var store *engine.Store
	front := newFrontEnd()

	provider, err := openProvider(ctx, cfg, front, func() *engine.Store { return store })
	if err != nil {
		return err
	}
	defer provider.close()

	link := chainlink.New(provider.provider, cfg.Chain, chainlink.WithLogger(log.Printf))
	contracts := func(account chainlink.Account) engine.Contract {
		return gateway.New(link.Bind(account), contract,
			gateway.WithPollInterval(cfg.PollInterval),
			gateway.WithConfirmTimeout(cfg.ConfirmTimeout),
			gateway.WithReorgDepth(cfg.ReorgDepth),
			gateway.WithLogger(log.Printf),
			gateway.WithMalformedHook(func(err error) { store.ReportMalformed(err) }),
		)
	}
	opts := []engine.Option{engine.WithLogger(log.Printf)}
	if journal != nil {
		opts = append(opts, engine.WithJournal(journal))
	}
	store, err = engine.New(link, contracts, renderer, opts...)
	if err != nil {
		return fmt.Errorf("build arena store: %w", err)
	}

	if cfg.HealthPort > 0 {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HealthPort))
		if err != nil {
			return fmt.Errorf("listen on health port %d: %w", cfg.HealthPort, err)
		}
		health := startHealth(listener)
		defer health.stop()
		front.add(health.track)
		log.Printf("arena health listening at %v", listener.Addr())
	}

	views, releaseViews := store.Subscribe()
	defer releaseViews()
	notices, releaseNotices := store.Notices()
	defer releaseNotices()
	go front.forwardViews(views)
	go front.forwardNotices(notices)

	if err := provider.start(ctx); err != nil {
		return err
	}

	if cfg.Console != nil {
		c := &console{
			dispatch: store.Dispatch,
			status:   store.View,
			history:  history,
			out:      cfg.Output,
		}
		go c.run(ctx, cfg.Console)
	}

	log.Printf("arena engine started: provider=%s chain=%s contract=%s", cfg.Provider, cfg.Chain.ChainID, contract.Hex())
	return store.Run(ctx)
}

// frontEnd fans the store's view and notice streams out to the bridge page,
// the health endpoint and the log.
type frontEnd struct {
	viewSinks   []func(v view.View)
	noticeSinks []func(n notice.Notice)
}

func newFrontEnd() *frontEnd {
	return &frontEnd{
		noticeSinks: []func(notice.Notice){func(n notice.Notice) { log.Printf("notice: %s", n) }},
	}
}

func (f *frontEnd) add(sink func(v view.View)) {
	f.viewSinks = append(f.viewSinks, sink)
}

func (f *frontEnd) addNotices(sink func(n notice.Notice)) {
	f.noticeSinks = append(f.noticeSinks, sink)
}

func (f *frontEnd) forwardViews(views <-chan view.View) {
	var last view.View
	for v := range views {
		if v.Screen != last.Screen {
			log.Printf("screen: %s", v.Screen)
		}
		last = v
		for _, sink := range f.viewSinks {
			sink(v)
		}
	}
}

func (f *frontEnd) forwardNotices(notices <-chan notice.Notice) {
	for n := range notices {
		for _, sink := range f.noticeSinks {
			sink(n)
		}
	}
}

// pushTo sends the streams to a bridge page.
func (f *frontEnd) pushTo(b *bridge.Bridge) {
	f.add(func(v view.View) { b.Push(bridge.EventView, v) })
	f.addNotices(func(n notice.Notice) { b.Push(bridge.EventNotice, n) })
}

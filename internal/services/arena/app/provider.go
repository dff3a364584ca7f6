package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/timeouts"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/bridge"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/engine"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
)

// walletProvider is the selected wallet transport plus its lifecycle.
type walletProvider struct {
	provider chainlink.Provider
	start    func(ctx context.Context) error
	close    func()
}

// openProvider builds the provider cfg selects. Nothing is served or polled
// until start is called.
func openProvider(ctx context.Context, cfg RuntimeConfig, front *frontEnd, store func() *engine.Store) (walletProvider, error) {
	switch cfg.Provider {
	case ProviderRPC:
		return openRPC(ctx, cfg)
	default:
		return openBridge(cfg, front, store)
	}
}

func openRPC(ctx context.Context, cfg RuntimeConfig) (walletProvider, error) {
	opts := []chainlink.RPCOption{
		chainlink.WithPollInterval(cfg.PollInterval),
		chainlink.WithRPCLogger(log.Printf),
	}
	if key := strings.TrimSpace(cfg.PrivateKey); key != "" {
		signingKey, err := chainlink.ParsePrivateKey(key)
		if err != nil {
			return walletProvider{}, fmt.Errorf("parse signing key: %w", err)
		}
		opts = append(opts, chainlink.WithSigningKey(signingKey))
	}
	rpcProvider, err := chainlink.DialRPC(ctx, cfg.RPCURL, opts...)
	if err != nil {
		return walletProvider{}, fmt.Errorf("dial rpc provider: %w", err)
	}
	return walletProvider{
		provider: rpcProvider,
		start: func(ctx context.Context) error {
			go func() {
				if err := rpcProvider.Run(ctx); err != nil {
					log.Printf("rpc provider: %v", err)
				}
			}()
			return nil
		},
		close: rpcProvider.Close,
	}, nil
}

func openBridge(cfg RuntimeConfig, front *frontEnd, store func() *engine.Store) (walletProvider, error) {
	access, token, err := bridgeAccess(cfg.BridgeOrigins)
	if err != nil {
		return walletProvider{}, err
	}
	var b *bridge.Bridge
	// A page attaching is a page load: it gets the current view, then a fresh
	// handshake against its wallet.
	b = bridge.New(
		bridge.WithLogger(log.Printf),
		bridge.WithAccess(access),
		bridge.WithIntents(func(ctx context.Context, intent gamestate.Intent) error {
			return store().Dispatch(ctx, intent)
		}),
		bridge.WithConnectHook(func() {
			b.Push(bridge.EventView, store().View())
			store().Reload()
		}),
	)
	front.pushTo(b)

	server := &http.Server{
		Addr:              cfg.BridgeAddr,
		Handler:           b.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	serveErr := make(chan error, 1)
	started := false
	return walletProvider{
		provider: b,
		start: func(context.Context) error {
			listener, err := net.Listen("tcp", cfg.BridgeAddr)
			if err != nil {
				return fmt.Errorf("listen on bridge addr %s: %w", cfg.BridgeAddr, err)
			}
			started = true
			go func() {
				serveErr <- server.Serve(listener)
			}()
			log.Printf("wallet bridge listening at ws://%v%s?%s=%s (origins %s)",
				listener.Addr(), bridge.Path, bridge.TokenParam, token, strings.Join(cfg.BridgeOrigins, ","))
			return nil
		},
		close: func() {
			if !started {
				return
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("shutdown wallet bridge: %v", err)
			}
			if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("wallet bridge: %v", err)
			}
		},
	}, nil
}

// bridgeAccess builds the page checks for one launch: the allowed origins
// plus a fresh signing key and the token the page must present.
func bridgeAccess(origins []string) (*bridge.Access, string, error) {
	key, err := bridge.NewLaunchKey()
	if err != nil {
		return nil, "", err
	}
	access := bridge.NewAccess(origins...).WithLaunchKey(key)
	token, err := access.IssueToken(timeouts.BridgeToken)
	if err != nil {
		return nil, "", err
	}
	return access, token, nil
}

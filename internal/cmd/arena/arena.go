// Package arena parses arena command flags and launches the arena runtime.
package arena

import (
	"context"
	"flag"
	"os"
	"time"

	entrypoint "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/cmd"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/app"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
)

// Config holds arena command configuration.
type Config struct {
	Provider        string        `env:"ARENA_PROVIDER" envDefault:"bridge"`
	BridgeAddr      string        `env:"ARENA_BRIDGE_ADDR" envDefault:"127.0.0.1:8095"`
	BridgeOrigins   []string      `env:"ARENA_BRIDGE_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	RPCURL          string        `env:"ARENA_RPC_URL"`
	PrivateKey      string        `env:"ARENA_PRIVATE_KEY"`
	ContractAddress string        `env:"ARENA_CONTRACT_ADDRESS"`
	ChainID         string        `env:"ARENA_CHAIN_ID" envDefault:"0x13881"`
	ChainName       string        `env:"ARENA_CHAIN_NAME" envDefault:"Polygon Mumbai Testnet"`
	ChainRPCURLs    []string      `env:"ARENA_CHAIN_RPC_URLS" envSeparator:"," envDefault:"https://rpc-mumbai.maticvigil.com/"`
	CurrencyName    string        `env:"ARENA_CHAIN_CURRENCY_NAME" envDefault:"Mumbai Matic"`
	CurrencySymbol  string        `env:"ARENA_CHAIN_CURRENCY_SYMBOL" envDefault:"MATIC"`
	CurrencyDecimal int           `env:"ARENA_CHAIN_CURRENCY_DECIMALS" envDefault:"18"`
	ExplorerURLs    []string      `env:"ARENA_CHAIN_EXPLORER_URLS" envSeparator:"," envDefault:"https://mumbai.polygonscan.com/"`
	DBPath          string        `env:"ARENA_DB_PATH" envDefault:"data/arena.db"`
	HealthPort      int           `env:"ARENA_HEALTH_PORT" envDefault:"8096"`
	Locale          string        `env:"ARENA_LOCALE" envDefault:"en-US"`
	PollInterval    time.Duration `env:"ARENA_POLL_INTERVAL" envDefault:"2s"`
	ConfirmTimeout  time.Duration `env:"ARENA_CONFIRM_TIMEOUT" envDefault:"5m"`
	ReorgDepth      uint64        `env:"ARENA_REORG_DEPTH" envDefault:"3"`
	Console         bool          `env:"ARENA_CONSOLE" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Wallet provider: bridge or rpc")
	fs.StringVar(&cfg.BridgeAddr, "bridge-addr", cfg.BridgeAddr, "The wallet bridge listen address")
	fs.StringVar(&cfg.RPCURL, "rpc-url", cfg.RPCURL, "JSON-RPC endpoint for the rpc provider")
	fs.StringVar(&cfg.ContractAddress, "contract", cfg.ContractAddress, "The game contract address")
	fs.StringVar(&cfg.ChainID, "chain-id", cfg.ChainID, "The required chain id")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The action journal SQLite path; empty disables the journal")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The session health gRPC port; 0 disables it")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Notification locale")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Receipt, log and chain poll interval")
	fs.DurationVar(&cfg.ConfirmTimeout, "confirm-timeout", cfg.ConfirmTimeout, "Confirmation wait before a transaction counts as dropped")
	fs.Uint64Var(&cfg.ReorgDepth, "reorg-depth", cfg.ReorgDepth, "Blocks re-scanned on each log poll")
	fs.BoolVar(&cfg.Console, "console", cfg.Console, "Read intents from stdin")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Descriptor returns the chain-add descriptor for the required chain.
func (cfg Config) Descriptor() chainlink.Descriptor {
	return chainlink.Descriptor{
		ChainID:   chainlink.ChainID(cfg.ChainID),
		ChainName: cfg.ChainName,
		RPCURLs:   cfg.ChainRPCURLs,
		NativeCurrency: chainlink.Currency{
			Name:     cfg.CurrencyName,
			Symbol:   cfg.CurrencySymbol,
			Decimals: cfg.CurrencyDecimal,
		},
		BlockExplorerURLs: cfg.ExplorerURLs,
	}
}

// Run starts the arena runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceArena, func(ctx context.Context) error {
		runtime := app.RuntimeConfig{
			Provider:        cfg.Provider,
			BridgeAddr:      cfg.BridgeAddr,
			BridgeOrigins:   cfg.BridgeOrigins,
			RPCURL:          cfg.RPCURL,
			PrivateKey:      cfg.PrivateKey,
			ContractAddress: cfg.ContractAddress,
			Chain:           cfg.Descriptor(),
			DBPath:          cfg.DBPath,
			HealthPort:      cfg.HealthPort,
			Locale:          cfg.Locale,
			PollInterval:    cfg.PollInterval,
			ConfirmTimeout:  cfg.ConfirmTimeout,
			ReorgDepth:      cfg.ReorgDepth,
		}
		if cfg.Console {
			runtime.Console = os.Stdin
			runtime.Output = os.Stdout
		}
		return app.Run(ctx, runtime)
	})
}

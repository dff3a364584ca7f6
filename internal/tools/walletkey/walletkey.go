// Package walletkey generates a signing key for the rpc wallet provider.
package walletkey

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
)

// Config holds configuration for key generation.
type Config struct {
	// Export prefixes the variable line with "export ".
	Export bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{}
	fs.BoolVar(&cfg.Export, "export", cfg.Export, "prefix the output with export")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates a secp256k1 key and writes it, with its address, to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	key, err := ecdsa.GenerateKey(crypto.S256(), reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	prefix := ""
	if cfg.Export {
		prefix = "export "
	}
	_, err = fmt.Fprintf(out, "# address %s\n%sARENA_PRIVATE_KEY=%s\n",
		crypto.PubkeyToAddress(key.PublicKey).Hex(), prefix, hex.EncodeToString(crypto.FromECDSA(key)))
	return err
}

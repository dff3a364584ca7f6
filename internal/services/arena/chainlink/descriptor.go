package chainlink

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Account is a chain address in lower-case canonical form.
type Account string

// ChainID is a chain identifier in lower-case 0x-prefixed hex without
// leading zeros.
type ChainID string

// ParseAccount canonicalises a hex address. The boolean is false for
// anything that is not a 20-byte hex address.
func ParseAccount(raw string) (Account, bool) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return "", false
	}
	return Account(strings.ToLower(common.HexToAddress(raw).Hex())), true
}

// Address returns the go-ethereum address form of a.
func (a Account) Address() common.Address {
	return common.HexToAddress(string(a))
}

// ParseChainID accepts 0x-prefixed hex or decimal and returns the canonical
// hex form.
func ParseChainID(raw string) (ChainID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("chain id is empty")
	}
	var id *big.Int
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		decoded, err := hexutil.DecodeBig("0x" + strings.TrimLeft(strings.ToLower(raw[2:]), "0"))
		if err != nil {
			return "", fmt.Errorf("parse chain id %q: %w", raw, err)
		}
		id = decoded
	} else {
		parsed, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return "", fmt.Errorf("parse chain id %q: not a number", raw)
		}
		id = parsed
	}
	if id.Sign() <= 0 {
		return "", fmt.Errorf("chain id %q must be positive", raw)
	}
	return ChainID(hexutil.EncodeBig(id)), nil
}

// Currency is the native currency block of a chain-add request.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Descriptor is the wallet_addEthereumChain payload for the required chain.
type Descriptor struct {
	ChainID           ChainID  `json:"chainId"`
	ChainName         string   `json:"chainName"`
	RPCURLs           []string `json:"rpcUrls"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
}

// Validate checks the fields wallets require before adding a chain.
func (d Descriptor) Validate() error {
	if _, err := ParseChainID(string(d.ChainID)); err != nil {
		return err
	}
	if strings.TrimSpace(d.ChainName) == "" {
		return errors.New("chain name is required")
	}
	if len(d.RPCURLs) == 0 {
		return errors.New("at least one rpc url is required")
	}
	if strings.TrimSpace(d.NativeCurrency.Symbol) == "" {
		return errors.New("native currency symbol is required")
	}
	if d.NativeCurrency.Decimals < 0 || d.NativeCurrency.Decimals > 36 {
		return fmt.Errorf("native currency decimals %d out of range", d.NativeCurrency.Decimals)
	}
	return nil
}

package chainlink

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCProvider is a Provider backed by a JSON-RPC node. Without a key it
// relies on the node's unlocked accounts; with a key it signs transactions
// locally. Chain and account notifications are synthesised by polling.
type RPCProvider struct {
	rpc      *rpc.Client
	eth      *ethclient.Client
	key      *ecdsa.PrivateKey
	interval time.Duration
	logf     func(string, ...any)

	mu     sync.Mutex
	subs   map[string]map[int]func(json.RawMessage)
	nextID int
}

// RPCOption configures an RPCProvider.
type RPCOption func(*RPCProvider)

// WithSigningKey makes the provider sign transactions with key and expose
// its address as the only account.
func WithSigningKey(key *ecdsa.PrivateKey) RPCOption {
	return func(p *RPCProvider) { p.key = key }
}

// WithPollInterval sets how often chain and accounts are re-read.
func WithPollInterval(interval time.Duration) RPCOption {
	return func(p *RPCProvider) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithRPCLogger overrides the log sink.
func WithRPCLogger(logf func(string, ...any)) RPCOption {
	return func(p *RPCProvider) {
		if logf != nil {
			p.logf = logf
		}
	}
}

// DialRPC connects to a JSON-RPC endpoint.
func DialRPC(ctx context.Context, url string, opts ...RPCOption) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewRPCProvider(client, opts...), nil
}

// NewRPCProvider wraps an existing rpc client.
func NewRPCProvider(client *rpc.Client, opts ...RPCOption) *RPCProvider {
	p := &RPCProvider{
		rpc:      client,
		eth:      ethclient.NewClient(client),
		interval: 2 * time.Second,
		logf:     log.Printf,
		subs:     map[string]map[int]func(json.RawMessage){},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParsePrivateKey decodes a hex ECDSA key, with or without 0x.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Close releases the underlying connection.
func (p *RPCProvider) Close() {
	p.rpc.Close()
}

// Request implements Provider.
func (p *RPCProvider) Request(ctx context.Context, result any, method string, params ...any) error {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		if p.key != nil {
			return assign(result, []string{crypto.PubkeyToAddress(p.key.PublicKey).Hex()})
		}
		method = "eth_accounts"
	case "wallet_switchEthereumChain", "wallet_addEthereumChain":
		return &ProviderError{Code: CodeUnsupportedMethod, Message: method + " is not available on a node endpoint"}
	case "eth_sendTransaction":
		if p.key != nil {
			return p.sendSigned(ctx, result, params)
		}
	}
	return p.rpc.CallContext(ctx, result, method, params...)
}

// Subscribe implements Provider.
func (p *RPCProvider) Subscribe(event string, handler func(json.RawMessage)) (release func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	if p.subs[event] == nil {
		p.subs[event] = map[int]func(json.RawMessage){}
	}
	p.subs[event][id] = handler
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs[event], id)
		})
	}
}

// Run polls chain id and accounts until ctx ends, emitting the current values
// as notifications. Consumers deduplicate.
func (p *RPCProvider) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *RPCProvider) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	chainID, err := p.eth.ChainID(pollCtx)
	if err != nil {
		p.logf("rpc poll chain id: %v", err)
	} else {
		p.emit(EventChainChanged, hexutil.EncodeBig(chainID))
	}

	var accounts []string
	if err := p.Request(pollCtx, &accounts, "eth_accounts"); err != nil {
		p.logf("rpc poll accounts: %v", err)
		return
	}
	p.emit(EventAccountsChanged, accounts)
}

func (p *RPCProvider) emit(event string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	p.mu.Lock()
	handlers := make([]func(json.RawMessage), 0, len(p.subs[event]))
	for _, handler := range p.subs[event] {
		handlers = append(handlers, handler)
	}
	p.mu.Unlock()
	for _, handler := range handlers {
		handler(data)
	}
}

type sendRequest struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Value *hexutil.Big    `json:"value"`
}

func (p *RPCProvider) sendSigned(ctx context.Context, result any, params []any) error {
	if len(params) != 1 {
		return &ProviderError{Code: CodeInvalidParams, Message: "eth_sendTransaction takes one object"}
	}
	raw, err := json.Marshal(params[0])
	if err != nil {
		return err
	}
	var req sendRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return &ProviderError{Code: CodeInvalidParams, Message: err.Error()}
	}
	from := crypto.PubkeyToAddress(p.key.PublicKey)
	if req.From != (common.Address{}) && req.From != from {
		return &ProviderError{Code: CodeUnauthorized, Message: "sender is not the signing key"}
	}
	value := new(big.Int)
	if req.Value != nil {
		value = req.Value.ToInt()
	}

	chainID, err := p.eth.ChainID(ctx)
	if err != nil {
		return err
	}
	nonce, err := p.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return err
	}
	gas, err := p.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: req.To, Data: req.Data, Value: value})
	if err != nil {
		return err
	}
	tx, err := p.buildTx(ctx, chainID, nonce, gas, req.To, value, req.Data)
	if err != nil {
		return err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), p.key)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	if err := p.eth.SendTransaction(ctx, signed); err != nil {
		return err
	}
	return assign(result, signed.Hash().Hex())
}

// buildTx prices a dynamic-fee transaction, or a legacy one on chains
// without a base fee.
func (p *RPCProvider) buildTx(ctx context.Context, chainID *big.Int, nonce, gas uint64, to *common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	head, err := p.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if head.BaseFee == nil {
		price, err := p.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.LegacyTx{Nonce: nonce, GasPrice: price, Gas: gas, To: to, Value: value, Data: data}), nil
	}
	tip, err := p.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2))),
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	}), nil
}

// assign copies value into result through its JSON form, mirroring how a
// remote provider's answer would be decoded.
func assign(result any, value any) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

package gateway

import (
	"context"
	"log"
	"math/big"
	"sync"
	"time"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"

// missingTxPolls is how many consecutive polls may report the transaction
// unknown before it counts as dropped.
const missingTxPolls = 3

// Requester issues provider requests on behalf of one account.
// chainlink.Signer satisfies it.
type Requester interface {
	Account() chainlink.Account
	Request(ctx context.Context, path chainlink.Path, result any, method string, params ...any) error
}

// Gateway is one contract instance bound to one signer.
type Gateway struct {
	signer   Requester
	contract common.Address
	tracer   trace.Tracer
	logf     func(string, ...any)

	pollInterval   time.Duration
	confirmTimeout time.Duration
	reorgDepth     uint64
	onMalformed    func(error)

	mu       sync.Mutex
	nextID   int
	minted   map[int]func(CharacterMinted)
	resolved map[int]func(AttackResolved)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPollInterval sets the receipt and log polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithConfirmTimeout bounds AwaitConfirmation.
func WithConfirmTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.confirmTimeout = d
		}
	}
}

// WithReorgDepth sets how many already-scanned blocks Watch re-reads.
func WithReorgDepth(depth uint64) Option {
	return func(g *Gateway) { g.reorgDepth = depth }
}

// WithLogger overrides the log sink.
func WithLogger(logf func(string, ...any)) Option {
	return func(g *Gateway) {
		if logf != nil {
			g.logf = logf
		}
	}
}

// WithMalformedHook receives every dropped event payload error.
func WithMalformedHook(fn func(error)) Option {
	return func(g *Gateway) { g.onMalformed = fn }
}

// New binds the contract at address to signer.
func New(signer Requester, contract common.Address, opts ...Option) *Gateway {
	g := &Gateway{
		signer:         signer,
		contract:       contract,
		tracer:         otel.Tracer(tracerName),
		logf:           log.Printf,
		pollInterval:   2 * time.Second,
		confirmTimeout: 5 * time.Minute,
		reorgDepth:     3,
		minted:         map[int]func(CharacterMinted){},
		resolved:       map[int]func(AttackResolved){},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Account returns the bound account.
func (g *Gateway) Account() chainlink.Account {
	return g.signer.Account()
}

// OwnedCharacter returns the character NFT owned by the bound account,
// read at the current head so the result can be ordered against events.
func (g *Gateway) OwnedCharacter(ctx context.Context) (ownership Ownership, err error) {
	ctx, span := g.start(ctx, "read_owned_character")
	defer func() { g.end(span, err) }()

	head, err := g.blockNumber(ctx)
	if err != nil {
		return Ownership{}, err
	}
	data, err := g.call(ctx, methodOwnedCharacter, hexutil.EncodeUint64(head))
	if err != nil {
		return Ownership{}, err
	}
	character, owned, err := decodeOwnedCharacter(data)
	if err != nil {
		return Ownership{}, decodeFailure(methodOwnedCharacter, err)
	}
	span.SetAttributes(attribute.Bool("character.owned", owned))
	return Ownership{Character: character, Owned: owned, At: EndOfBlock(head)}, nil
}

// Roster returns the mintable character templates in index order.
func (g *Gateway) Roster(ctx context.Context) (roster []Character, err error) {
	ctx, span := g.start(ctx, "read_roster")
	defer func() { g.end(span, err) }()

	data, err := g.call(ctx, methodRoster, "latest")
	if err != nil {
		return nil, err
	}
	roster, err = decodeRoster(data)
	if err != nil {
		return nil, decodeFailure(methodRoster, err)
	}
	span.SetAttributes(attribute.Int("roster.size", len(roster)))
	return roster, nil
}

// Boss returns the current boss.
func (g *Gateway) Boss(ctx context.Context) (boss Boss, err error) {
	ctx, span := g.start(ctx, "read_boss")
	defer func() { g.end(span, err) }()

	data, err := g.call(ctx, methodBoss, "latest")
	if err != nil {
		return Boss{}, err
	}
	boss, err = decodeBoss(data)
	if err != nil {
		return Boss{}, decodeFailure(methodBoss, err)
	}
	return boss, nil
}

// Mint submits mintCharacterNFT(index).
func (g *Gateway) Mint(ctx context.Context, index int) (Tx, error) {
	return g.submit(ctx, TxMint, methodMint, big.NewInt(int64(index)))
}

// Attack submits attackBoss().
func (g *Gateway) Attack(ctx context.Context) (Tx, error) {
	return g.submit(ctx, TxAttack, methodAttack)
}

// Revive submits reviveCharacter().
func (g *Gateway) Revive(ctx context.Context) (Tx, error) {
	return g.submit(ctx, TxRevive, methodRevive)
}

type callRequest struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

func (g *Gateway) call(ctx context.Context, method, block string) ([]byte, error) {
	input, err := GameABI.Pack(method)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeProviderFailure, "pack "+method, err)
	}
	var out hexutil.Bytes
	req := callRequest{From: g.signer.Account().Address(), To: g.contract, Data: input}
	if err := g.signer.Request(ctx, chainlink.ReadPath, &out, "eth_call", req, block); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) submit(ctx context.Context, kind TxKind, method string, args ...any) (tx Tx, err error) {
	ctx, span := g.start(ctx, "submit_"+string(kind))
	defer func() { g.end(span, err) }()

	input, err := GameABI.Pack(method, args...)
	if err != nil {
		return Tx{}, apperrors.Wrap(apperrors.CodeProviderFailure, "pack "+method, err)
	}
	from := g.signer.Account()
	req := callRequest{From: from.Address(), To: g.contract, Data: input}

	var hash common.Hash
	if err := g.signer.Request(ctx, chainlink.WritePath, &hash, "eth_sendTransaction", req); err != nil {
		return Tx{}, err
	}
	span.SetAttributes(attribute.String("tx.hash", hash.Hex()))
	g.logf("submitted %s tx %s from %s", kind, hash.Hex(), from)
	return Tx{Hash: hash, Kind: kind, From: from}, nil
}

// decodeFailure reports a read whose return data does not match the ABI,
// usually a wrong contract address or chain.
func decodeFailure(method string, err error) error {
	if apperrors.CodeOf(err) == apperrors.CodeValueOutOfRange {
		return err
	}
	return apperrors.Wrap(apperrors.CodeProviderFailure, "decode "+method, err)
}

func (g *Gateway) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("contract.address", g.contract.Hex()),
		attribute.String("account", string(g.signer.Account())),
	))
}

func (g *Gateway) end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(apperrors.CodeOf(err)))
	}
	span.End()
}

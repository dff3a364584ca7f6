package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel/attribute"
)

// AwaitConfirmation blocks until tx is mined or fails. A mined transaction
// with status 0 is TX_REVERTED; a transaction the provider stops knowing
// about, or one still pending when the confirm timeout elapses, is
// TX_DROPPED_OR_REPLACED.
func (g *Gateway) AwaitConfirmation(ctx context.Context, tx Tx) (receipt Receipt, err error) {
	ctx, span := g.start(ctx, "await_"+string(tx.Kind))
	span.SetAttributes(attribute.String("tx.hash", tx.Hash.Hex()))
	defer func() { g.end(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, g.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	misses := 0
	for {
		mined, err := g.fetchReceipt(ctx, tx.Hash)
		switch {
		case err != nil:
			g.logf("poll receipt %s: %v", tx.Hash.Hex(), err)
		case mined != nil:
			return g.settle(tx, mined)
		default:
			known, err := g.transactionKnown(ctx, tx.Hash)
			switch {
			case err != nil:
				g.logf("poll transaction %s: %v", tx.Hash.Hex(), err)
			case known:
				misses = 0
			default:
				misses++
				if misses >= missingTxPolls {
					return Receipt{}, apperrors.WithMetadata(apperrors.CodeTxDroppedOrReplaced,
						"transaction "+tx.Hash.Hex()+" is no longer known",
						map[string]string{"tx": tx.Hash.Hex(), "kind": string(tx.Kind)})
				}
			}
		}

		select {
		case <-ctx.Done():
			return Receipt{}, apperrors.Wrap(apperrors.CodeTxDroppedOrReplaced,
				"transaction "+tx.Hash.Hex()+" not mined", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *Gateway) fetchReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := g.signer.Request(ctx, chainlink.ReadPath, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (g *Gateway) transactionKnown(ctx context.Context, hash common.Hash) (bool, error) {
	var raw json.RawMessage
	if err := g.signer.Request(ctx, chainlink.ReadPath, &raw, "eth_getTransactionByHash", hash); err != nil {
		return false, err
	}
	return len(raw) > 0 && string(raw) != "null", nil
}

// settle turns a mined receipt into a Receipt, decoding the game events it
// carries. Malformed logs are dropped the same way Watch drops them.
func (g *Gateway) settle(tx Tx, mined *types.Receipt) (Receipt, error) {
	if mined.Status == types.ReceiptStatusFailed {
		return Receipt{}, apperrors.WithMetadata(apperrors.CodeTxReverted,
			"transaction "+tx.Hash.Hex()+" reverted",
			map[string]string{"tx": tx.Hash.Hex(), "kind": string(tx.Kind)})
	}
	out := Receipt{Tx: tx, Position: LogPosition{TxIndex: mined.TransactionIndex}}
	if mined.BlockNumber != nil && mined.BlockNumber.IsUint64() {
		out.Position.Block = mined.BlockNumber.Uint64()
	}
	for _, l := range mined.Logs {
		if l == nil || l.Address != g.contract {
			continue
		}
		entry := *l
		if entry.BlockNumber == 0 {
			entry.BlockNumber = out.Position.Block
		}
		if entry.TxHash == (common.Hash{}) {
			entry.TxHash = tx.Hash
		}
		minted, resolved, err := g.decode(entry)
		switch {
		case err != nil:
			g.dropMalformed(err)
		case minted != nil:
			out.Minted = append(out.Minted, *minted)
		case resolved != nil:
			out.Attacks = append(out.Attacks, *resolved)
		}
	}
	return out, nil
}

// decode dispatches a contract log by topic. Logs for other events return
// all nils.
func (g *Gateway) decode(l types.Log) (*CharacterMinted, *AttackResolved, error) {
	if len(l.Topics) == 0 {
		return nil, nil, malformed("log", l, "no topics")
	}
	switch l.Topics[0] {
	case GameABI.Events[EventCharacterMinted].ID:
		event, err := decodeCharacterMinted(l)
		if err != nil {
			return nil, nil, err
		}
		return &event, nil, nil
	case GameABI.Events[EventAttackResolved].ID:
		event, err := decodeAttackResolved(l)
		if err != nil {
			return nil, nil, err
		}
		return nil, &event, nil
	}
	return nil, nil, nil
}

func (g *Gateway) dropMalformed(err error) {
	var coded *apperrors.Error
	if !errors.As(err, &coded) {
		err = apperrors.Wrap(apperrors.CodeMalformedEventPayload, "decode log", err)
	}
	g.logf("drop event: %v", err)
	if g.onMalformed != nil {
		g.onMalformed(err)
	}
}

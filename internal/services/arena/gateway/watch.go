package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// OnCharacterMinted registers handler for CharacterNFTMinted events and
// returns its release. Handlers run on the Watch goroutine.
func (g *Gateway) OnCharacterMinted(handler func(CharacterMinted)) (release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.minted[id] = handler
	return g.releaser(func() { delete(g.minted, id) })
}

// OnAttackResolved registers handler for AttackComplete events and returns
// its release.
func (g *Gateway) OnAttackResolved(handler func(AttackResolved)) (release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.resolved[id] = handler
	return g.releaser(func() { delete(g.resolved, id) })
}

// Handlers reports how many event handlers are registered.
func (g *Gateway) Handlers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.minted) + len(g.resolved)
}

func (g *Gateway) releaser(remove func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			remove()
		})
	}
}

type logFilter struct {
	FromBlock hexutil.Uint64  `json:"fromBlock"`
	ToBlock   hexutil.Uint64  `json:"toBlock"`
	Address   common.Address  `json:"address"`
	Topics    [][]common.Hash `json:"topics"`
}

// Watch polls contract logs until ctx ends and dispatches decoded events to
// the registered handlers. Each round re-reads the last reorgDepth blocks, so
// the same event is normally delivered more than once.
func (g *Gateway) Watch(ctx context.Context) error {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	var lastHead uint64
	started := false
	for {
		head, err := g.blockNumber(ctx)
		if err != nil {
			g.logf("watch block number: %v", err)
		} else {
			from := head
			if started {
				from = lastHead + 1
			}
			from = saturatingSub(from, g.reorgDepth)
			if from <= head {
				if err := g.scan(ctx, from, head); err != nil {
					g.logf("watch logs %d-%d: %v", from, head, err)
				} else {
					lastHead = head
					started = true
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (g *Gateway) blockNumber(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := g.signer.Request(ctx, chainlink.ReadPath, &head, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(head), nil
}

func (g *Gateway) scan(ctx context.Context, from, to uint64) error {
	filter := logFilter{
		FromBlock: hexutil.Uint64(from),
		ToBlock:   hexutil.Uint64(to),
		Address:   g.contract,
		Topics: [][]common.Hash{{
			GameABI.Events[EventCharacterMinted].ID,
			GameABI.Events[EventAttackResolved].ID,
		}},
	}
	var logs []types.Log
	if err := g.signer.Request(ctx, chainlink.ReadPath, &logs, "eth_getLogs", filter); err != nil {
		return err
	}
	for _, l := range logs {
		g.dispatch(l)
	}
	return nil
}

func (g *Gateway) dispatch(l types.Log) {
	if l.Removed || l.Address != g.contract {
		return
	}
	minted, resolved, err := g.decode(l)
	if err != nil {
		g.dropMalformed(err)
		return
	}

	g.mu.Lock()
	var mintedHandlers []func(CharacterMinted)
	var resolvedHandlers []func(AttackResolved)
	if minted != nil {
		for _, h := range g.minted {
			mintedHandlers = append(mintedHandlers, h)
		}
	}
	if resolved != nil {
		for _, h := range g.resolved {
			resolvedHandlers = append(resolvedHandlers, h)
		}
	}
	g.mu.Unlock()

	for _, h := range mintedHandlers {
		h(*minted)
	}
	for _, h := range resolvedHandlers {
		h(*resolved)
	}
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

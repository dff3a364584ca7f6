package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	testAccount  = chainlink.Account("0x00000000000000000000000000000000000000aa")
	otherAccount = chainlink.Account("0x00000000000000000000000000000000000000bb")
)

var testContract = common.HexToAddress("0x00000000000000000000000000000000000000cc")

// fakeChain answers provider requests the way a node would, through JSON.
type fakeChain struct {
	account chainlink.Account

	mu       sync.Mutex
	outputs  map[string][]byte
	calls    []callRequest
	sent     []callRequest
	sendErr  error
	receipts map[common.Hash]*types.Receipt
	known    map[common.Hash]bool
	head     uint64
	logs     []types.Log
	filters  []logFilter
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		account:  testAccount,
		outputs:  map[string][]byte{},
		receipts: map[common.Hash]*types.Receipt{},
		known:    map[common.Hash]bool{},
	}
}

func (f *fakeChain) Account() chainlink.Account { return f.account }

func (f *fakeChain) Request(_ context.Context, path chainlink.Path, result any, method string, params ...any) error {
	value, err := f.answer(method, params)
	if err != nil {
		return chainlink.Classify(err, path, method)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func (f *fakeChain) answer(method string, params []any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch method {
	case "eth_call":
		req := params[0].(callRequest)
		f.calls = append(f.calls, req)
		for name, m := range GameABI.Methods {
			if string(m.ID) == string(req.Data[:4]) {
				out, ok := f.outputs[name]
				if !ok {
					return nil, fmt.Errorf("no output for %s", name)
				}
				return hexutil.Bytes(out), nil
			}
		}
		return nil, fmt.Errorf("unknown selector %x", req.Data[:4])
	case "eth_sendTransaction":
		if f.sendErr != nil {
			return nil, f.sendErr
		}
		f.sent = append(f.sent, params[0].(callRequest))
		hash := common.BigToHash(big.NewInt(int64(len(f.sent))))
		f.known[hash] = true
		return hash, nil
	case "eth_getTransactionReceipt":
		return f.receipts[params[0].(common.Hash)], nil
	case "eth_getTransactionByHash":
		hash := params[0].(common.Hash)
		if !f.known[hash] {
			return nil, nil
		}
		return map[string]string{"hash": hash.Hex()}, nil
	case "eth_blockNumber":
		return hexutil.Uint64(f.head), nil
	case "eth_getLogs":
		filter := params[0].(logFilter)
		f.filters = append(f.filters, filter)
		out := []types.Log{}
		for _, l := range f.logs {
			if l.BlockNumber >= uint64(filter.FromBlock) && l.BlockNumber <= uint64(filter.ToBlock) {
				out = append(out, l)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected method %s", method)
}

func (f *fakeChain) setOutput(t *testing.T, method string, value any) {
	t.Helper()
	out, err := GameABI.Methods[method].Outputs.Pack(value)
	if err != nil {
		t.Fatalf("pack %s output: %v", method, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[method] = out
}

func (f *fakeChain) setReceipt(r *types.Receipt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[r.TxHash] = r
}

func (f *fakeChain) addLog(l types.Log, head uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	f.head = head
}

func attrs(index int64, name string, hp, maxHP, damage int64) characterAttributes {
	return characterAttributes{
		CharacterIndex: big.NewInt(index),
		Name:           name,
		ImageURI:       "ipfs://" + name,
		Hp:             big.NewInt(hp),
		MaxHp:          big.NewInt(maxHP),
		AttackDamage:   big.NewInt(damage),
	}
}

func eventLog(t *testing.T, event string, block uint64, txIndex, logIndex uint, args ...any) types.Log {
	t.Helper()
	data, err := GameABI.Events[event].Inputs.Pack(args...)
	if err != nil {
		t.Fatalf("pack %s: %v", event, err)
	}
	return types.Log{
		Address:     testContract,
		Topics:      []common.Hash{GameABI.Events[event].ID},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(txIndex))),
		TxIndex:     txIndex,
		Index:       logIndex,
	}
}

func minedReceipt(hash common.Hash, status uint64, block int64, logs ...*types.Log) *types.Receipt {
	if logs == nil {
		logs = []*types.Log{}
	}
	return &types.Receipt{
		Status:           status,
		TxHash:           hash,
		BlockNumber:      big.NewInt(block),
		TransactionIndex: 1,
		Logs:             logs,
	}
}

func quietGateway(chain *fakeChain, opts ...Option) *Gateway {
	base := []Option{WithLogger(func(string, ...any) {})}
	return New(chain, testContract, append(base, opts...)...)
}

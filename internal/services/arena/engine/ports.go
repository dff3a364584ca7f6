package engine

import (
	"context"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gateway"
)

// Wallet is the account and chain adapter the store drives.
// *chainlink.Link satisfies it.
type Wallet interface {
	Available() bool
	RequiredChain() chainlink.ChainID
	Accounts(ctx context.Context) ([]chainlink.Account, error)
	ChainID(ctx context.Context) (chainlink.ChainID, error)
	RequestAccounts(ctx context.Context) (chainlink.Account, error)
	SwitchChain(ctx context.Context, target chainlink.ChainID) error
	SubscribeChainChanged(handler func(chainlink.ChainID)) (release func())
	SubscribeAccountsChanged(handler func(chainlink.Account)) (release func())
}

// Contract is one game contract bound to an account.
// *gateway.Gateway satisfies it.
type Contract interface {
	OwnedCharacter(ctx context.Context) (gateway.Ownership, error)
	Roster(ctx context.Context) ([]gateway.Character, error)
	Boss(ctx context.Context) (gateway.Boss, error)
	Mint(ctx context.Context, index int) (gateway.Tx, error)
	Attack(ctx context.Context) (gateway.Tx, error)
	Revive(ctx context.Context) (gateway.Tx, error)
	AwaitConfirmation(ctx context.Context, tx gateway.Tx) (gateway.Receipt, error)
	OnCharacterMinted(handler func(gateway.CharacterMinted)) (release func())
	OnAttackResolved(handler func(gateway.AttackResolved)) (release func())
	Watch(ctx context.Context) error
}

// ContractFactory binds the contract to the account of a new generation.
type ContractFactory func(account chainlink.Account) Contract

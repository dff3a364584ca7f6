package gateway

import (
	"math"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/ethereum/go-ethereum/common"
)

// Character is a roster template or the owned character.
type Character struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           int    `json:"hp"`
	MaxHP        int    `json:"maxHp"`
	AttackDamage int    `json:"attackDamage"`
	// TokenID is zero until the mint outcome that produced it is known.
	TokenID uint64 `json:"tokenId,omitempty"`
}

// Boss is the shared target every player attacks.
type Boss struct {
	Name         string `json:"name"`
	ImageURI     string `json:"imageURI"`
	HP           int    `json:"hp"`
	MaxHP        int    `json:"maxHp"`
	AttackDamage int    `json:"attackDamage"`
}

// LogPosition totally orders outcomes on the chain.
type LogPosition struct {
	Block    uint64 `json:"block"`
	TxIndex  uint   `json:"txIndex"`
	LogIndex uint   `json:"logIndex"`
}

// Compare returns -1, 0 or 1 as p sorts before, equal to or after o.
func (p LogPosition) Compare(o LogPosition) int {
	switch {
	case p.Block != o.Block:
		return cmpUint64(p.Block, o.Block)
	case p.TxIndex != o.TxIndex:
		return cmpUint64(uint64(p.TxIndex), uint64(o.TxIndex))
	default:
		return cmpUint64(uint64(p.LogIndex), uint64(o.LogIndex))
	}
}

// EndOfBlock is the position just after every log in block.
func EndOfBlock(block uint64) LogPosition {
	return LogPosition{Block: block, TxIndex: math.MaxUint32, LogIndex: math.MaxUint32}
}

// IsZero reports whether the position was never set.
func (p LogPosition) IsZero() bool {
	return p == LogPosition{}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Ownership is the result of the ownership check, pinned to the block it
// was read at.
type Ownership struct {
	Character Character
	Owned     bool
	At        LogPosition
}

// CharacterMinted is a validated CharacterNFTMinted event.
type CharacterMinted struct {
	Sender         chainlink.Account `json:"sender"`
	TokenID        uint64            `json:"tokenId"`
	CharacterIndex int               `json:"characterIndex"`
	TxHash         common.Hash       `json:"txHash"`
	Position       LogPosition       `json:"position"`
}

// AttackResolved is a validated AttackComplete event.
type AttackResolved struct {
	Sender   chainlink.Account `json:"sender"`
	BossHP   int               `json:"bossHp"`
	PlayerHP int               `json:"playerHp"`
	TxHash   common.Hash       `json:"txHash"`
	Position LogPosition       `json:"position"`
}

// TxKind names the write call behind a transaction.
type TxKind string

const (
	TxMint   TxKind = "mint"
	TxAttack TxKind = "attack"
	TxRevive TxKind = "revive"
)

// Tx is the handle returned by a write call.
type Tx struct {
	Hash common.Hash       `json:"hash"`
	Kind TxKind            `json:"kind"`
	From chainlink.Account `json:"from"`
}

// Receipt is a successfully mined transaction plus the game events it
// emitted.
type Receipt struct {
	Tx       Tx
	Position LogPosition
	Minted   []CharacterMinted
	Attacks  []AttackResolved
}
